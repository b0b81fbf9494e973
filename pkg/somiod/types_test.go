package somiod

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalPaths(t *testing.T) {
	assert.Equal(t, "/lighting", ApplicationPath("lighting"))
	assert.Equal(t, "/lighting/kitchen", ContainerPath("lighting", "kitchen"))
	assert.Equal(t, "/lighting/kitchen/state-1", ContentInstancePath("lighting", "kitchen", "state-1"))
	assert.Equal(t, "/lighting/kitchen/subs/watcher", SubscriptionPath("lighting", "kitchen", "watcher"))
}

func TestEventCode(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		assert.True(t, EventCreation.Valid())
		assert.True(t, EventDeletion.Valid())
		assert.True(t, EventBoth.Valid())
		assert.False(t, EventCode(0).Valid())
		assert.False(t, EventCode(4).Valid())
	})

	t.Run("Matches", func(t *testing.T) {
		assert.True(t, EventCreation.Matches(EventCreation))
		assert.False(t, EventCreation.Matches(EventDeletion))
		assert.False(t, EventDeletion.Matches(EventCreation))
		assert.True(t, EventDeletion.Matches(EventDeletion))
		assert.True(t, EventBoth.Matches(EventCreation))
		assert.True(t, EventBoth.Matches(EventDeletion))
	})

	t.Run("Name", func(t *testing.T) {
		assert.Equal(t, "creation", EventCreation.Name())
		assert.Equal(t, "deletion", EventDeletion.Name())
		assert.Equal(t, "", EventBoth.Name())
	})
}

func TestParseDiscoveryKind(t *testing.T) {
	tests := []struct {
		marker string
		kind   DiscoveryKind
		ok     bool
	}{
		{"application", DiscoverApplications, true},
		{"container", DiscoverContainers, true},
		{"content-instance", DiscoverContentInstances, true},
		{"subscription", DiscoverSubscriptions, true},
		{"Application", 0, false},
		{"", 0, false},
		{"gadget", 0, false},
	}

	for _, tt := range tests {
		kind, ok := ParseDiscoveryKind(tt.marker)
		assert.Equal(t, tt.ok, ok, "marker %q", tt.marker)
		assert.Equal(t, tt.kind, kind, "marker %q", tt.marker)
	}
}

func TestDiscoveryKindString(t *testing.T) {
	for _, kind := range []DiscoveryKind{
		DiscoverApplications, DiscoverContainers, DiscoverContentInstances, DiscoverSubscriptions,
	} {
		roundTripped, ok := ParseDiscoveryKind(kind.String())
		assert.True(t, ok)
		assert.Equal(t, kind, roundTripped)
	}
}

func TestGenerateName(t *testing.T) {
	name := generateName("app")

	parts := strings.Split(name, "-")
	assert.GreaterOrEqual(t, len(parts), 3)
	assert.Equal(t, "app", parts[0])
	assert.Len(t, parts[1], 14) // timestamp portion

	assert.NotEqual(t, name, generateName("app"))
}

func TestApplicationActive(t *testing.T) {
	app := &Application{ResType: ResourceTypeApplication}
	assert.True(t, app.Active())

	app.ResType = ResourceTypeApplicationRetired
	assert.False(t, app.Active())
}

func TestNotificationValidate(t *testing.T) {
	valid := func() *Notification {
		return &Notification{
			EventType: "creation",
			EventCode: EventCreation,
			Subscription: NotificationSubscription{
				ResourceName: "watcher",
				Evt:          EventBoth,
				Endpoint:     "http://host.example/hook",
			},
			Resource: NotificationResource{
				ResourceName:            "state-1",
				CreationDatetime:        "2026-01-02T15:04:05",
				ResType:                 "content-instance",
				ContainerResourceName:   "kitchen",
				ApplicationResourceName: "lighting",
				ContentType:             "text/plain",
				Content:                 "on",
				Path:                    "/lighting/kitchen/state-1",
			},
			TriggeredAt: "2026-01-02T15:04:06",
		}
	}

	assert.NoError(t, valid().Validate())

	n := valid()
	n.EventType = "renamed"
	assert.Error(t, n.Validate())

	n = valid()
	n.EventCode = EventBoth
	assert.Error(t, n.Validate())

	n = valid()
	n.Resource.Path = "lighting/kitchen/state-1"
	assert.Error(t, n.Validate())

	n = valid()
	n.Subscription.Endpoint = ""
	assert.Error(t, n.Validate())
}
