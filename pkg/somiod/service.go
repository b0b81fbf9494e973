package somiod

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
)

// Service defines the main interface for the somiod resource directory.
type Service interface {
	// Application operations
	CreateApplication(ctx context.Context, req CreateApplicationRequest) (*Application, error)
	GetApplication(ctx context.Context, appName string) (*Application, error)
	RenameApplication(ctx context.Context, req RenameApplicationRequest) (*Application, error)
	DeleteApplication(ctx context.Context, appName string) error

	// Container operations
	CreateContainer(ctx context.Context, req CreateContainerRequest) (*Container, error)
	GetContainer(ctx context.Context, appName, containerName string) (*Container, error)
	RenameContainer(ctx context.Context, req RenameContainerRequest) (*Container, error)
	DeleteContainer(ctx context.Context, appName, containerName string) error

	// Content instance operations. Create and delete raise notification
	// dispatch; neither waits for it.
	CreateContentInstance(ctx context.Context, req CreateContentInstanceRequest) (*ContentInstance, error)
	GetContentInstance(ctx context.Context, appName, containerName, ciName string) (*ContentInstance, error)
	DeleteContentInstance(ctx context.Context, appName, containerName, ciName string) error

	// Subscription operations
	CreateSubscription(ctx context.Context, req CreateSubscriptionRequest) (*Subscription, error)
	GetSubscription(ctx context.Context, appName, containerName, subName string) (*Subscription, error)
	DeleteSubscription(ctx context.Context, appName, containerName, subName string) error

	// Discover lists canonical child paths for the given kind. appName and
	// containerName are required only where the kind scopes to them.
	Discover(ctx context.Context, kind DiscoveryKind, appName, containerName string) ([]string, error)

	// Close waits for in-flight dispatches and releases sender resources.
	Close() error
}

// Option configures the service
type Option func(*service)

// WithRepository sets the repository for the service (required)
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithSender registers a transport sender for a URI scheme. Register the same
// sender under "http" and "https" to share one HTTP client.
func WithSender(scheme string, sender Sender) Option {
	return func(s *service) {
		s.senders[strings.ToLower(scheme)] = sender
	}
}

// WithNotificationStore sets the audit store for dispatched notifications.
func WithNotificationStore(store NotificationStore) Option {
	return func(s *service) {
		s.notifications = store
	}
}

// New creates a new somiod service with the given options
func New(opts ...Option) (Service, error) {
	s := &service{
		senders: make(map[string]Sender),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.repository == nil {
		return nil, errors.New("repository is required")
	}
	if s.notifications == nil {
		s.notifications = NewNoopNotificationStore()
	}

	return s, nil
}

// validateSubscription checks evt and endpoint before any write.
func validateSubscription(req CreateSubscriptionRequest) error {
	var fields []FieldError

	if !req.Evt.Valid() {
		fields = append(fields, FieldError{
			Field:   "evt",
			Message: "must be 1 (creation), 2 (deletion) or 3 (both)",
		})
	}

	if strings.TrimSpace(req.Endpoint) == "" {
		fields = append(fields, FieldError{
			Field:   "endpoint",
			Message: "is required",
		})
	} else if !validEndpoint(req.Endpoint) {
		fields = append(fields, FieldError{
			Field:   "endpoint",
			Message: "must be an absolute http, https or mqtt URL",
		})
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func validEndpoint(endpoint string) bool {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https", "mqtt":
		return true
	default:
		return false
	}
}

// StatusFromError maps a service error to its HTTP status category. Kept here
// so the API layer and tests agree on one mapping.
func StatusFromError(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsValidation(err):
		return http.StatusBadRequest
	case IsNotFound(err):
		return http.StatusNotFound
	case IsConflict(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
