package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/somiod/pkg/somiod"
)

func newApp(name string, at time.Time) *somiod.Application {
	return &somiod.Application{
		ResourceName:     name,
		CreationDatetime: at,
		ResType:          somiod.ResourceTypeApplication,
	}
}

func newContainer(appName, name string, at time.Time) *somiod.Container {
	return &somiod.Container{
		ResourceName:            name,
		ApplicationResourceName: appName,
		CreationDatetime:        at,
		ResType:                 somiod.ResourceTypeContainer,
	}
}

func newInstance(appName, containerName, name string, at time.Time) *somiod.ContentInstance {
	return &somiod.ContentInstance{
		ResourceName:            name,
		ContainerResourceName:   containerName,
		ApplicationResourceName: appName,
		CreationDatetime:        at,
		ResType:                 somiod.ResourceTypeContentInstance,
		ContentType:             "text/plain",
		Content:                 "on",
	}
}

func newSub(appName, containerName, name string, at time.Time) *somiod.Subscription {
	return &somiod.Subscription{
		ResourceName:            name,
		ContainerResourceName:   containerName,
		ApplicationResourceName: appName,
		CreationDatetime:        at,
		ResType:                 somiod.ResourceTypeSubscription,
		Evt:                     somiod.EventBoth,
		Endpoint:                "http://host.example/hook",
	}
}

func seedTree(t *testing.T, repo somiod.Repository) time.Time {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.CreateApplication(ctx, newApp("lighting", base)))
	require.NoError(t, repo.CreateContainer(ctx, newContainer("lighting", "kitchen", base.Add(time.Second))))
	require.NoError(t, repo.CreateContentInstance(ctx, newInstance("lighting", "kitchen", "state-1", base.Add(2*time.Second))))
	require.NoError(t, repo.CreateSubscription(ctx, newSub("lighting", "kitchen", "watcher", base.Add(3*time.Second))))
	return base
}

func TestApplicationLifecycle(t *testing.T) {
	repo := New()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.CreateApplication(ctx, newApp("lighting", base)))

	t.Run("DuplicateActiveName", func(t *testing.T) {
		err := repo.CreateApplication(ctx, newApp("lighting", base.Add(time.Second)))
		assert.ErrorIs(t, err, somiod.ErrApplicationExists)
	})

	t.Run("GetReturnsCopy", func(t *testing.T) {
		app, err := repo.GetApplication(ctx, "lighting")
		require.NoError(t, err)
		app.ResourceName = "mutated"

		again, err := repo.GetApplication(ctx, "lighting")
		require.NoError(t, err)
		assert.Equal(t, "lighting", again.ResourceName)
	})

	t.Run("DeleteRetiresAndFreesName", func(t *testing.T) {
		require.NoError(t, repo.DeleteApplication(ctx, "lighting"))

		exists, err := repo.ApplicationExists(ctx, "lighting")
		require.NoError(t, err)
		assert.False(t, exists)

		_, err = repo.GetApplication(ctx, "lighting")
		assert.ErrorIs(t, err, somiod.ErrApplicationNotFound)

		// The tombstone is overwritten by a new application under the name.
		require.NoError(t, repo.CreateApplication(ctx, newApp("lighting", base.Add(time.Minute))))
		exists, err = repo.ApplicationExists(ctx, "lighting")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("DeleteMissing", func(t *testing.T) {
		err := repo.DeleteApplication(ctx, "no-such-app")
		assert.ErrorIs(t, err, somiod.ErrApplicationNotFound)
	})
}

func TestDeleteApplicationCascade(t *testing.T) {
	repo := New()
	ctx := context.Background()
	seedTree(t, repo)

	require.NoError(t, repo.DeleteApplication(ctx, "lighting"))

	_, err := repo.GetContainer(ctx, "lighting", "kitchen")
	assert.ErrorIs(t, err, somiod.ErrContainerNotFound)
	_, err = repo.GetContentInstance(ctx, "lighting", "kitchen", "state-1")
	assert.ErrorIs(t, err, somiod.ErrContentInstanceNotFound)
	_, err = repo.GetSubscription(ctx, "lighting", "kitchen", "watcher")
	assert.ErrorIs(t, err, somiod.ErrSubscriptionNotFound)

	// A fresh application under the reused name starts empty.
	base := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.CreateApplication(ctx, newApp("lighting", base)))
	has, err := repo.ApplicationHasContainers(ctx, "lighting")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestDeleteContainerCascade(t *testing.T) {
	repo := New()
	ctx := context.Background()
	seedTree(t, repo)

	require.NoError(t, repo.DeleteContainerCascade(ctx, "lighting", "kitchen"))

	_, err := repo.GetContainer(ctx, "lighting", "kitchen")
	assert.ErrorIs(t, err, somiod.ErrContainerNotFound)
	_, err = repo.GetContentInstance(ctx, "lighting", "kitchen", "state-1")
	assert.ErrorIs(t, err, somiod.ErrContentInstanceNotFound)
	_, err = repo.GetSubscription(ctx, "lighting", "kitchen", "watcher")
	assert.ErrorIs(t, err, somiod.ErrSubscriptionNotFound)

	// The application itself survives.
	app, err := repo.GetApplication(ctx, "lighting")
	require.NoError(t, err)
	assert.True(t, app.Active())
}

func TestRenames(t *testing.T) {
	repo := New()
	ctx := context.Background()
	base := seedTree(t, repo)

	t.Run("Container", func(t *testing.T) {
		renamed, err := repo.RenameContainer(ctx, "lighting", "kitchen", "pantry")
		require.NoError(t, err)
		assert.Equal(t, "pantry", renamed.ResourceName)

		// Children follow the container to its new key.
		_, err = repo.GetContentInstance(ctx, "lighting", "pantry", "state-1")
		assert.NoError(t, err)
		_, err = repo.GetSubscription(ctx, "lighting", "pantry", "watcher")
		assert.NoError(t, err)
		_, err = repo.GetContainer(ctx, "lighting", "kitchen")
		assert.ErrorIs(t, err, somiod.ErrContainerNotFound)
	})

	t.Run("Container_TargetTaken", func(t *testing.T) {
		require.NoError(t, repo.CreateContainer(ctx, newContainer("lighting", "hall", base.Add(time.Minute))))

		_, err := repo.RenameContainer(ctx, "lighting", "hall", "pantry")
		assert.ErrorIs(t, err, somiod.ErrContainerExists)
	})

	t.Run("Application", func(t *testing.T) {
		renamed, err := repo.RenameApplication(ctx, "lighting", "illumination")
		require.NoError(t, err)
		assert.Equal(t, "illumination", renamed.ResourceName)

		_, err = repo.GetApplication(ctx, "lighting")
		assert.ErrorIs(t, err, somiod.ErrApplicationNotFound)
		_, err = repo.GetContainer(ctx, "illumination", "pantry")
		assert.NoError(t, err)
	})
}

func TestChildChecks(t *testing.T) {
	repo := New()
	ctx := context.Background()
	base := seedTree(t, repo)

	has, err := repo.ApplicationHasContainers(ctx, "lighting")
	require.NoError(t, err)
	assert.True(t, has)

	has, err = repo.ContainerHasChildren(ctx, "lighting", "kitchen")
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, repo.CreateContainer(ctx, newContainer("lighting", "hall", base.Add(time.Minute))))
	has, err = repo.ContainerHasChildren(ctx, "lighting", "hall")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestDiscoveryOrdering(t *testing.T) {
	repo := New()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.CreateApplication(ctx, newApp("zeta", base)))
	require.NoError(t, repo.CreateApplication(ctx, newApp("alpha", base.Add(time.Second))))

	t.Run("ApplicationsByCreation", func(t *testing.T) {
		paths, err := repo.ListApplicationPaths(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"/zeta", "/alpha"}, paths)
	})

	require.NoError(t, repo.CreateContainer(ctx, newContainer("zeta", "second", base.Add(3*time.Second))))
	require.NoError(t, repo.CreateContainer(ctx, newContainer("zeta", "first", base.Add(2*time.Second))))

	t.Run("ContainersByCreation", func(t *testing.T) {
		paths, err := repo.ListContainerPaths(ctx, "zeta")
		require.NoError(t, err)
		assert.Equal(t, []string{"/zeta/first", "/zeta/second"}, paths)
	})

	require.NoError(t, repo.CreateContentInstance(ctx, newInstance("zeta", "second", "s-1", base.Add(4*time.Second))))
	require.NoError(t, repo.CreateContentInstance(ctx, newInstance("zeta", "first", "f-2", base.Add(6*time.Second))))
	require.NoError(t, repo.CreateContentInstance(ctx, newInstance("zeta", "first", "f-1", base.Add(5*time.Second))))

	t.Run("InstancesGroupedByContainer", func(t *testing.T) {
		paths, err := repo.ListContentInstancePaths(ctx, "zeta")
		require.NoError(t, err)
		assert.Equal(t, []string{
			"/zeta/first/f-1",
			"/zeta/first/f-2",
			"/zeta/second/s-1",
		}, paths)
	})

	require.NoError(t, repo.CreateSubscription(ctx, newSub("zeta", "first", "w-1", base.Add(7*time.Second))))

	t.Run("SubscriptionPaths", func(t *testing.T) {
		paths, err := repo.ListSubscriptionPaths(ctx, "zeta", "first")
		require.NoError(t, err)
		assert.Equal(t, []string{"/zeta/first/subs/w-1"}, paths)
	})

	t.Run("EmptyInstanceListing", func(t *testing.T) {
		paths, err := repo.ListContentInstancePaths(ctx, "alpha")
		require.NoError(t, err)
		assert.Empty(t, paths)
	})
}

func TestListSubscriptionsForContainer(t *testing.T) {
	repo := New()
	ctx := context.Background()
	base := seedTree(t, repo)

	require.NoError(t, repo.CreateSubscription(ctx, newSub("lighting", "kitchen", "earlier", base.Add(time.Second))))

	subs, err := repo.ListSubscriptionsForContainer(ctx, "lighting", "kitchen")
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, "earlier", subs[0].ResourceName)
	assert.Equal(t, "watcher", subs[1].ResourceName)
}
