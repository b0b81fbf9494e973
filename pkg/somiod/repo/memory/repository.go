package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/tendant/somiod/pkg/somiod"
)

// Repository implements somiod.Repository using in-memory storage. Intended
// for tests and local development; cascades run under one lock, giving the
// same all-or-nothing behavior the Postgres repository gets from a
// transaction.
type Repository struct {
	mu            sync.RWMutex
	applications  map[string]*somiod.Application                          // name -> application (incl. retired tombstones)
	containers    map[string]map[string]*somiod.Container                 // app -> name -> container
	instances     map[string]map[string]map[string]*somiod.ContentInstance // app -> container -> name
	subscriptions map[string]map[string]map[string]*somiod.Subscription    // app -> container -> name
}

// New creates a new in-memory repository
func New() somiod.Repository {
	return &Repository{
		applications:  make(map[string]*somiod.Application),
		containers:    make(map[string]map[string]*somiod.Container),
		instances:     make(map[string]map[string]map[string]*somiod.ContentInstance),
		subscriptions: make(map[string]map[string]map[string]*somiod.Subscription),
	}
}

// activeApp must be called with the lock held.
func (r *Repository) activeApp(appName string) (*somiod.Application, bool) {
	app, ok := r.applications[appName]
	if !ok || !app.Active() {
		return nil, false
	}
	return app, true
}

// Application operations

func (r *Repository) CreateApplication(ctx context.Context, app *somiod.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.applications[app.ResourceName]; ok && existing.Active() {
		return somiod.ErrApplicationExists
	}

	// A retired tombstone under the same name is overwritten; retired
	// applications do not block name reuse.
	appCopy := *app
	r.applications[app.ResourceName] = &appCopy
	return nil
}

func (r *Repository) GetApplication(ctx context.Context, appName string) (*somiod.Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	app, ok := r.activeApp(appName)
	if !ok {
		return nil, somiod.ErrApplicationNotFound
	}
	appCopy := *app
	return &appCopy, nil
}

func (r *Repository) ApplicationExists(ctx context.Context, appName string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.activeApp(appName)
	return ok, nil
}

func (r *Repository) RenameApplication(ctx context.Context, currentName, newName string) (*somiod.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	app, ok := r.activeApp(currentName)
	if !ok {
		return nil, somiod.ErrApplicationNotFound
	}
	if existing, taken := r.applications[newName]; taken && existing.Active() {
		return nil, somiod.ErrApplicationExists
	}

	renamed := *app
	renamed.ResourceName = newName
	delete(r.applications, currentName)
	r.applications[newName] = &renamed

	// Re-key any descendant buckets. The service refuses renames while
	// descendants exist, so these are normally empty.
	if cs, ok := r.containers[currentName]; ok {
		delete(r.containers, currentName)
		r.containers[newName] = cs
	}
	if cis, ok := r.instances[currentName]; ok {
		delete(r.instances, currentName)
		r.instances[newName] = cis
	}
	if subs, ok := r.subscriptions[currentName]; ok {
		delete(r.subscriptions, currentName)
		r.subscriptions[newName] = subs
	}

	result := renamed
	return &result, nil
}

func (r *Repository) DeleteApplication(ctx context.Context, appName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	app, ok := r.activeApp(appName)
	if !ok {
		return somiod.ErrApplicationNotFound
	}

	delete(r.instances, appName)
	delete(r.subscriptions, appName)
	delete(r.containers, appName)

	retired := *app
	retired.ResType = somiod.ResourceTypeApplicationRetired
	r.applications[appName] = &retired
	return nil
}

func (r *Repository) ApplicationHasContainers(ctx context.Context, appName string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.containers[appName]) > 0, nil
}

// Container operations

func (r *Repository) CreateContainer(ctx context.Context, container *somiod.Container) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	appName := container.ApplicationResourceName
	if _, ok := r.activeApp(appName); !ok {
		return somiod.ErrApplicationNotFound
	}
	if _, ok := r.containers[appName][container.ResourceName]; ok {
		return somiod.ErrContainerExists
	}

	if r.containers[appName] == nil {
		r.containers[appName] = make(map[string]*somiod.Container)
	}
	containerCopy := *container
	r.containers[appName][container.ResourceName] = &containerCopy
	return nil
}

func (r *Repository) GetContainer(ctx context.Context, appName, containerName string) (*somiod.Container, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.activeApp(appName); !ok {
		return nil, somiod.ErrContainerNotFound
	}
	container, ok := r.containers[appName][containerName]
	if !ok {
		return nil, somiod.ErrContainerNotFound
	}
	containerCopy := *container
	return &containerCopy, nil
}

func (r *Repository) ContainerExists(ctx context.Context, appName, containerName string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.activeApp(appName); !ok {
		return false, nil
	}
	_, ok := r.containers[appName][containerName]
	return ok, nil
}

func (r *Repository) ContainerHasChildren(ctx context.Context, appName, containerName string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.instances[appName][containerName]) > 0 {
		return true, nil
	}
	return len(r.subscriptions[appName][containerName]) > 0, nil
}

func (r *Repository) RenameContainer(ctx context.Context, appName, currentName, newName string) (*somiod.Container, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.activeApp(appName); !ok {
		return nil, somiod.ErrContainerNotFound
	}
	container, ok := r.containers[appName][currentName]
	if !ok {
		return nil, somiod.ErrContainerNotFound
	}
	if _, taken := r.containers[appName][newName]; taken {
		return nil, somiod.ErrContainerExists
	}

	renamed := *container
	renamed.ResourceName = newName
	delete(r.containers[appName], currentName)
	r.containers[appName][newName] = &renamed

	if cis, ok := r.instances[appName][currentName]; ok {
		delete(r.instances[appName], currentName)
		if r.instances[appName] == nil {
			r.instances[appName] = make(map[string]map[string]*somiod.ContentInstance)
		}
		r.instances[appName][newName] = cis
	}
	if subs, ok := r.subscriptions[appName][currentName]; ok {
		delete(r.subscriptions[appName], currentName)
		if r.subscriptions[appName] == nil {
			r.subscriptions[appName] = make(map[string]map[string]*somiod.Subscription)
		}
		r.subscriptions[appName][newName] = subs
	}

	result := renamed
	return &result, nil
}

func (r *Repository) DeleteContainerCascade(ctx context.Context, appName, containerName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.activeApp(appName); !ok {
		return somiod.ErrContainerNotFound
	}
	if _, ok := r.containers[appName][containerName]; !ok {
		return somiod.ErrContainerNotFound
	}

	if m := r.instances[appName]; m != nil {
		delete(m, containerName)
	}
	if m := r.subscriptions[appName]; m != nil {
		delete(m, containerName)
	}
	delete(r.containers[appName], containerName)
	return nil
}

// Content instance operations

func (r *Repository) CreateContentInstance(ctx context.Context, ci *somiod.ContentInstance) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	appName, containerName := ci.ApplicationResourceName, ci.ContainerResourceName
	if !r.containerPresent(appName, containerName) {
		return somiod.ErrContainerNotFound
	}
	if _, ok := r.instances[appName][containerName][ci.ResourceName]; ok {
		return somiod.ErrContentInstanceExists
	}

	if r.instances[appName] == nil {
		r.instances[appName] = make(map[string]map[string]*somiod.ContentInstance)
	}
	if r.instances[appName][containerName] == nil {
		r.instances[appName][containerName] = make(map[string]*somiod.ContentInstance)
	}
	ciCopy := *ci
	r.instances[appName][containerName][ci.ResourceName] = &ciCopy
	return nil
}

func (r *Repository) GetContentInstance(ctx context.Context, appName, containerName, ciName string) (*somiod.ContentInstance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.containerPresent(appName, containerName) {
		return nil, somiod.ErrContentInstanceNotFound
	}
	ci, ok := r.instances[appName][containerName][ciName]
	if !ok {
		return nil, somiod.ErrContentInstanceNotFound
	}
	ciCopy := *ci
	return &ciCopy, nil
}

func (r *Repository) ContentInstanceExists(ctx context.Context, appName, containerName, ciName string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.instances[appName][containerName][ciName]
	return ok, nil
}

func (r *Repository) DeleteContentInstance(ctx context.Context, appName, containerName, ciName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.instances[appName][containerName][ciName]; !ok {
		return somiod.ErrContentInstanceNotFound
	}
	delete(r.instances[appName][containerName], ciName)
	return nil
}

// Subscription operations

func (r *Repository) CreateSubscription(ctx context.Context, sub *somiod.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	appName, containerName := sub.ApplicationResourceName, sub.ContainerResourceName
	if !r.containerPresent(appName, containerName) {
		return somiod.ErrContainerNotFound
	}
	if _, ok := r.subscriptions[appName][containerName][sub.ResourceName]; ok {
		return somiod.ErrSubscriptionExists
	}

	if r.subscriptions[appName] == nil {
		r.subscriptions[appName] = make(map[string]map[string]*somiod.Subscription)
	}
	if r.subscriptions[appName][containerName] == nil {
		r.subscriptions[appName][containerName] = make(map[string]*somiod.Subscription)
	}
	subCopy := *sub
	r.subscriptions[appName][containerName][sub.ResourceName] = &subCopy
	return nil
}

func (r *Repository) GetSubscription(ctx context.Context, appName, containerName, subName string) (*somiod.Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.containerPresent(appName, containerName) {
		return nil, somiod.ErrSubscriptionNotFound
	}
	sub, ok := r.subscriptions[appName][containerName][subName]
	if !ok {
		return nil, somiod.ErrSubscriptionNotFound
	}
	subCopy := *sub
	return &subCopy, nil
}

func (r *Repository) SubscriptionExists(ctx context.Context, appName, containerName, subName string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.subscriptions[appName][containerName][subName]
	return ok, nil
}

func (r *Repository) DeleteSubscription(ctx context.Context, appName, containerName, subName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.subscriptions[appName][containerName][subName]; !ok {
		return somiod.ErrSubscriptionNotFound
	}
	delete(r.subscriptions[appName][containerName], subName)
	return nil
}

func (r *Repository) ListSubscriptionsForContainer(ctx context.Context, appName, containerName string) ([]*somiod.Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bucket := r.subscriptions[appName][containerName]
	result := make([]*somiod.Subscription, 0, len(bucket))
	for _, sub := range bucket {
		subCopy := *sub
		result = append(result, &subCopy)
	}
	sortByCreation(result, func(s *somiod.Subscription) (string, int64) {
		return s.ResourceName, s.CreationDatetime.UnixNano()
	})
	return result, nil
}

// Discovery listings

func (r *Repository) ListApplicationPaths(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	apps := make([]*somiod.Application, 0, len(r.applications))
	for _, app := range r.applications {
		if app.Active() {
			apps = append(apps, app)
		}
	}
	sortByCreation(apps, func(a *somiod.Application) (string, int64) {
		return a.ResourceName, a.CreationDatetime.UnixNano()
	})

	paths := make([]string, 0, len(apps))
	for _, app := range apps {
		paths = append(paths, somiod.ApplicationPath(app.ResourceName))
	}
	return paths, nil
}

func (r *Repository) ListContainerPaths(ctx context.Context, appName string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.activeApp(appName); !ok {
		return nil, somiod.ErrApplicationNotFound
	}

	containers := make([]*somiod.Container, 0, len(r.containers[appName]))
	for _, c := range r.containers[appName] {
		containers = append(containers, c)
	}
	sortByCreation(containers, func(c *somiod.Container) (string, int64) {
		return c.ResourceName, c.CreationDatetime.UnixNano()
	})

	paths := make([]string, 0, len(containers))
	for _, c := range containers {
		paths = append(paths, somiod.ContainerPath(appName, c.ResourceName))
	}
	return paths, nil
}

func (r *Repository) ListContentInstancePaths(ctx context.Context, appName string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.activeApp(appName); !ok {
		return nil, somiod.ErrApplicationNotFound
	}

	// Ordered by container, then instance creation time.
	containerNames := make([]string, 0, len(r.instances[appName]))
	for name := range r.instances[appName] {
		containerNames = append(containerNames, name)
	}
	sort.Strings(containerNames)

	var paths []string
	for _, containerName := range containerNames {
		instances := make([]*somiod.ContentInstance, 0, len(r.instances[appName][containerName]))
		for _, ci := range r.instances[appName][containerName] {
			instances = append(instances, ci)
		}
		sortByCreation(instances, func(ci *somiod.ContentInstance) (string, int64) {
			return ci.ResourceName, ci.CreationDatetime.UnixNano()
		})
		for _, ci := range instances {
			paths = append(paths, somiod.ContentInstancePath(appName, containerName, ci.ResourceName))
		}
	}
	if paths == nil {
		paths = []string{}
	}
	return paths, nil
}

func (r *Repository) ListSubscriptionPaths(ctx context.Context, appName, containerName string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.containerPresent(appName, containerName) {
		return nil, somiod.ErrContainerNotFound
	}

	subs := make([]*somiod.Subscription, 0, len(r.subscriptions[appName][containerName]))
	for _, sub := range r.subscriptions[appName][containerName] {
		subs = append(subs, sub)
	}
	sortByCreation(subs, func(s *somiod.Subscription) (string, int64) {
		return s.ResourceName, s.CreationDatetime.UnixNano()
	})

	paths := make([]string, 0, len(subs))
	for _, sub := range subs {
		paths = append(paths, somiod.SubscriptionPath(appName, containerName, sub.ResourceName))
	}
	return paths, nil
}

// containerPresent must be called with the lock held.
func (r *Repository) containerPresent(appName, containerName string) bool {
	if _, ok := r.activeApp(appName); !ok {
		return false
	}
	_, ok := r.containers[appName][containerName]
	return ok
}

// sortByCreation orders by creation time, name breaking ties.
func sortByCreation[T any](items []T, key func(T) (string, int64)) {
	sort.Slice(items, func(i, j int) bool {
		ni, ti := key(items[i])
		nj, tj := key(items[j])
		if ti != tj {
			return ti < tj
		}
		return ni < nj
	})
}
