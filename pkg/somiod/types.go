package somiod

import (
	"fmt"
	"time"
)

// ResourceType is the domain type for resource kinds stored in the tree.
type ResourceType string

// Resource type constants (typed).
const (
	ResourceTypeApplication     ResourceType = "application"
	ResourceTypeContainer       ResourceType = "container"
	ResourceTypeContentInstance ResourceType = "content-instance"
	ResourceTypeSubscription    ResourceType = "subscription"

	// ResourceTypeApplicationRetired marks a soft-deleted application. A
	// retired application is invisible to every read, blocks no new name,
	// and keeps its row only as a tombstone.
	ResourceTypeApplicationRetired ResourceType = "application-deleted"
)

// EventCode is the domain type for subscription event filters and for the
// event kind carried by a notification.
type EventCode int

// Event code constants. A subscription stores one of the three; a dispatched
// event is always Creation or Deletion.
const (
	EventCreation EventCode = 1
	EventDeletion EventCode = 2
	EventBoth     EventCode = 3
)

// Valid reports whether e is an acceptable subscription filter.
func (e EventCode) Valid() bool {
	return e == EventCreation || e == EventDeletion || e == EventBoth
}

// Matches reports whether a subscription with filter e should be notified of
// an event with the given code.
func (e EventCode) Matches(code EventCode) bool {
	return e == EventBoth || e == code
}

// Name returns the wire name of an event code ("creation" or "deletion").
func (e EventCode) Name() string {
	switch e {
	case EventCreation:
		return "creation"
	case EventDeletion:
		return "deletion"
	default:
		return ""
	}
}

// WireTimeFormat is the timestamp layout used on the wire and in persisted
// notification records.
const WireTimeFormat = "2006-01-02T15:04:05"

// Application is the top-level namespace resource owning containers. Its name
// is unique among active applications.
type Application struct {
	ResourceName     string       `json:"resourceName"`
	CreationDatetime time.Time    `json:"creationDatetime"`
	ResType          ResourceType `json:"resType"`
}

// Active reports whether the application has not been retired.
func (a *Application) Active() bool {
	return a.ResType == ResourceTypeApplication
}

// Container groups content instances and subscriptions inside one application.
// Its name is unique within the owning application.
type Container struct {
	ResourceName            string       `json:"resourceName"`
	ApplicationResourceName string       `json:"applicationResourceName"`
	CreationDatetime        time.Time    `json:"creationDatetime"`
	ResType                 ResourceType `json:"resType"`
}

// ContentInstance is one immutable data record inside a container. It has no
// update operation; create and delete are the only mutations and both trigger
// notification dispatch.
type ContentInstance struct {
	ResourceName            string       `json:"resourceName"`
	ContainerResourceName   string       `json:"containerResourceName"`
	ApplicationResourceName string       `json:"applicationResourceName"`
	CreationDatetime        time.Time    `json:"creationDatetime"`
	ResType                 ResourceType `json:"resType"`
	ContentType             string       `json:"contentType"`
	Content                 string       `json:"content"`
}

// Subscription registers an endpoint to be notified when content instances are
// created or deleted inside one container.
type Subscription struct {
	ResourceName            string       `json:"resourceName"`
	ContainerResourceName   string       `json:"containerResourceName"`
	ApplicationResourceName string       `json:"applicationResourceName"`
	CreationDatetime        time.Time    `json:"creationDatetime"`
	ResType                 ResourceType `json:"resType"`
	Evt                     EventCode    `json:"evt"`
	Endpoint                string       `json:"endpoint"`
}

// Canonical path helpers. Every resource is addressed by one hierarchical
// path; discovery and notifications carry these paths, never bodies.

// ApplicationPath returns the canonical path of an application.
func ApplicationPath(appName string) string {
	return "/" + appName
}

// ContainerPath returns the canonical path of a container. It doubles as the
// MQTT topic notifications for the container are published on.
func ContainerPath(appName, containerName string) string {
	return fmt.Sprintf("/%s/%s", appName, containerName)
}

// ContentInstancePath returns the canonical path of a content instance.
func ContentInstancePath(appName, containerName, ciName string) string {
	return fmt.Sprintf("/%s/%s/%s", appName, containerName, ciName)
}

// SubscriptionPath returns the canonical path of a subscription.
func SubscriptionPath(appName, containerName, subName string) string {
	return fmt.Sprintf("/%s/%s/subs/%s", appName, containerName, subName)
}

// DiscoveryKind selects which child resources a discovery request enumerates.
// Discovery is dispatched on this typed value, never on a raw header string.
type DiscoveryKind int

const (
	DiscoverApplications DiscoveryKind = iota + 1
	DiscoverContainers
	DiscoverContentInstances
	DiscoverSubscriptions
)

// ParseDiscoveryKind maps a wire marker to its typed discovery kind.
func ParseDiscoveryKind(s string) (DiscoveryKind, bool) {
	switch ResourceType(s) {
	case ResourceTypeApplication:
		return DiscoverApplications, true
	case ResourceTypeContainer:
		return DiscoverContainers, true
	case ResourceTypeContentInstance:
		return DiscoverContentInstances, true
	case ResourceTypeSubscription:
		return DiscoverSubscriptions, true
	default:
		return 0, false
	}
}

// String returns the wire marker for the discovery kind.
func (k DiscoveryKind) String() string {
	switch k {
	case DiscoverApplications:
		return string(ResourceTypeApplication)
	case DiscoverContainers:
		return string(ResourceTypeContainer)
	case DiscoverContentInstances:
		return string(ResourceTypeContentInstance)
	case DiscoverSubscriptions:
		return string(ResourceTypeSubscription)
	default:
		return fmt.Sprintf("DiscoveryKind(%d)", int(k))
	}
}
