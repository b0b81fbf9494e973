package somiod

import "context"

// Repository defines the interface for resource-tree persistence.
//
// Implementations own their concurrency control. The two cascade operations
// (DeleteApplication, DeleteContainerCascade) must remove the whole subtree as
// one unit: transactional where the backing store supports it, under a single
// lock otherwise.
type Repository interface {
	// Application operations. All reads see active applications only;
	// DeleteApplication retires the application after removing its subtree.
	CreateApplication(ctx context.Context, app *Application) error
	GetApplication(ctx context.Context, appName string) (*Application, error)
	ApplicationExists(ctx context.Context, appName string) (bool, error)
	RenameApplication(ctx context.Context, currentName, newName string) (*Application, error)
	DeleteApplication(ctx context.Context, appName string) error

	// Container operations
	CreateContainer(ctx context.Context, container *Container) error
	GetContainer(ctx context.Context, appName, containerName string) (*Container, error)
	ContainerExists(ctx context.Context, appName, containerName string) (bool, error)
	ContainerHasChildren(ctx context.Context, appName, containerName string) (bool, error)
	ApplicationHasContainers(ctx context.Context, appName string) (bool, error)
	RenameContainer(ctx context.Context, appName, currentName, newName string) (*Container, error)
	DeleteContainerCascade(ctx context.Context, appName, containerName string) error

	// Content instance operations
	CreateContentInstance(ctx context.Context, ci *ContentInstance) error
	GetContentInstance(ctx context.Context, appName, containerName, ciName string) (*ContentInstance, error)
	ContentInstanceExists(ctx context.Context, appName, containerName, ciName string) (bool, error)
	DeleteContentInstance(ctx context.Context, appName, containerName, ciName string) error

	// Subscription operations
	CreateSubscription(ctx context.Context, sub *Subscription) error
	GetSubscription(ctx context.Context, appName, containerName, subName string) (*Subscription, error)
	SubscriptionExists(ctx context.Context, appName, containerName, subName string) (bool, error)
	DeleteSubscription(ctx context.Context, appName, containerName, subName string) error
	ListSubscriptionsForContainer(ctx context.Context, appName, containerName string) ([]*Subscription, error)

	// Discovery listings: canonical paths ordered by creation time.
	ListApplicationPaths(ctx context.Context) ([]string, error)
	ListContainerPaths(ctx context.Context, appName string) ([]string, error)
	ListContentInstancePaths(ctx context.Context, appName string) ([]string, error)
	ListSubscriptionPaths(ctx context.Context, appName, containerName string) ([]string, error)
}

// Sender delivers one serialized notification to one endpoint. Senders are
// registered on the service per URI scheme; an error return is logged by the
// dispatcher and never surfaces to the operation that raised the event.
type Sender interface {
	// Send delivers payload to endpoint. topic is the container's canonical
	// path; transports without a topic concept ignore it.
	Send(ctx context.Context, endpoint, topic string, payload []byte) error

	// Close releases transport resources. Best effort.
	Close() error
}

// NotificationStore persists the audit copy of each dispatched notification.
// Implementations must validate the record before writing.
type NotificationStore interface {
	Save(ctx context.Context, appName string, n *Notification) error
}
