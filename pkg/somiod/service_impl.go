package somiod

import (
	"context"
	"strings"
	"sync"
	"time"
)

// service implements the Service interface
type service struct {
	repository    Repository
	senders       map[string]Sender
	notifications NotificationStore

	// dispatches tracks detached notification goroutines so Close can wait
	// for them during shutdown. Requests never join this group.
	dispatches sync.WaitGroup
}

// Application operations

func (s *service) CreateApplication(ctx context.Context, req CreateApplicationRequest) (*Application, error) {
	name := strings.TrimSpace(req.ResourceName)
	if name == "" {
		name = generateName("app")
	}

	exists, err := s.repository.ApplicationExists(ctx, name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrApplicationExists
	}

	app := &Application{
		ResourceName:     name,
		CreationDatetime: time.Now().UTC(),
		ResType:          ResourceTypeApplication,
	}
	if err := s.repository.CreateApplication(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

func (s *service) GetApplication(ctx context.Context, appName string) (*Application, error) {
	return s.repository.GetApplication(ctx, appName)
}

func (s *service) RenameApplication(ctx context.Context, req RenameApplicationRequest) (*Application, error) {
	newName := strings.TrimSpace(req.NewName)
	if newName == "" {
		return nil, &ValidationError{Fields: []FieldError{{
			Field: "resourceName", Message: "is required",
		}}}
	}
	if strings.EqualFold(newName, req.CurrentName) {
		return nil, &ValidationError{Fields: []FieldError{{
			Field: "resourceName", Message: "must differ from the current name",
		}}}
	}

	exists, err := s.repository.ApplicationExists(ctx, req.CurrentName)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrApplicationNotFound
	}

	// Containers reference the application by name; renaming under them
	// would orphan the whole subtree.
	hasContainers, err := s.repository.ApplicationHasContainers(ctx, req.CurrentName)
	if err != nil {
		return nil, err
	}
	if hasContainers {
		return nil, ErrHasDescendants
	}

	taken, err := s.repository.ApplicationExists(ctx, newName)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrApplicationExists
	}

	return s.repository.RenameApplication(ctx, req.CurrentName, newName)
}

func (s *service) DeleteApplication(ctx context.Context, appName string) error {
	exists, err := s.repository.ApplicationExists(ctx, appName)
	if err != nil {
		return err
	}
	if !exists {
		return ErrApplicationNotFound
	}
	return s.repository.DeleteApplication(ctx, appName)
}

// Container operations

func (s *service) CreateContainer(ctx context.Context, req CreateContainerRequest) (*Container, error) {
	appExists, err := s.repository.ApplicationExists(ctx, req.ApplicationName)
	if err != nil {
		return nil, err
	}
	if !appExists {
		return nil, ErrApplicationNotFound
	}

	name := strings.TrimSpace(req.ResourceName)
	if name == "" {
		name = generateName("container")
	}

	exists, err := s.repository.ContainerExists(ctx, req.ApplicationName, name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrContainerExists
	}

	container := &Container{
		ResourceName:            name,
		ApplicationResourceName: req.ApplicationName,
		CreationDatetime:        time.Now().UTC(),
		ResType:                 ResourceTypeContainer,
	}
	if err := s.repository.CreateContainer(ctx, container); err != nil {
		return nil, err
	}
	return container, nil
}

func (s *service) GetContainer(ctx context.Context, appName, containerName string) (*Container, error) {
	return s.repository.GetContainer(ctx, appName, containerName)
}

func (s *service) RenameContainer(ctx context.Context, req RenameContainerRequest) (*Container, error) {
	newName := strings.TrimSpace(req.NewName)
	if newName == "" {
		return nil, &ValidationError{Fields: []FieldError{{
			Field: "resourceName", Message: "is required",
		}}}
	}
	if strings.EqualFold(newName, req.CurrentName) {
		return nil, &ValidationError{Fields: []FieldError{{
			Field: "resourceName", Message: "must differ from the current name",
		}}}
	}

	exists, err := s.repository.ContainerExists(ctx, req.ApplicationName, req.CurrentName)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrContainerNotFound
	}

	hasChildren, err := s.repository.ContainerHasChildren(ctx, req.ApplicationName, req.CurrentName)
	if err != nil {
		return nil, err
	}
	if hasChildren {
		return nil, ErrHasDescendants
	}

	taken, err := s.repository.ContainerExists(ctx, req.ApplicationName, newName)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrContainerExists
	}

	return s.repository.RenameContainer(ctx, req.ApplicationName, req.CurrentName, newName)
}

func (s *service) DeleteContainer(ctx context.Context, appName, containerName string) error {
	exists, err := s.repository.ContainerExists(ctx, appName, containerName)
	if err != nil {
		return err
	}
	if !exists {
		return ErrContainerNotFound
	}
	return s.repository.DeleteContainerCascade(ctx, appName, containerName)
}

// Content instance operations

func (s *service) CreateContentInstance(ctx context.Context, req CreateContentInstanceRequest) (*ContentInstance, error) {
	var fields []FieldError
	if strings.TrimSpace(req.ContentType) == "" {
		fields = append(fields, FieldError{Field: "contentType", Message: "is required"})
	}
	if strings.TrimSpace(req.Content) == "" {
		fields = append(fields, FieldError{Field: "content", Message: "is required"})
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	parentExists, err := s.repository.ContainerExists(ctx, req.ApplicationName, req.ContainerName)
	if err != nil {
		return nil, err
	}
	if !parentExists {
		return nil, ErrContainerNotFound
	}

	name := strings.TrimSpace(req.ResourceName)
	if name == "" {
		name = generateName("ci")
	}

	exists, err := s.repository.ContentInstanceExists(ctx, req.ApplicationName, req.ContainerName, name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrContentInstanceExists
	}

	ci := &ContentInstance{
		ResourceName:            name,
		ContainerResourceName:   req.ContainerName,
		ApplicationResourceName: req.ApplicationName,
		CreationDatetime:        time.Now().UTC(),
		ResType:                 ResourceTypeContentInstance,
		ContentType:             req.ContentType,
		Content:                 req.Content,
	}
	if err := s.repository.CreateContentInstance(ctx, ci); err != nil {
		return nil, err
	}

	s.dispatchDetached(ci, EventCreation)
	return ci, nil
}

func (s *service) GetContentInstance(ctx context.Context, appName, containerName, ciName string) (*ContentInstance, error) {
	return s.repository.GetContentInstance(ctx, appName, containerName, ciName)
}

func (s *service) DeleteContentInstance(ctx context.Context, appName, containerName, ciName string) error {
	// Snapshot before deletion; the deletion notification carries the
	// removed instance.
	existing, err := s.repository.GetContentInstance(ctx, appName, containerName, ciName)
	if err != nil {
		return err
	}

	if err := s.repository.DeleteContentInstance(ctx, appName, containerName, ciName); err != nil {
		return err
	}

	s.dispatchDetached(existing, EventDeletion)
	return nil
}

// Subscription operations

func (s *service) CreateSubscription(ctx context.Context, req CreateSubscriptionRequest) (*Subscription, error) {
	if err := validateSubscription(req); err != nil {
		return nil, err
	}

	parentExists, err := s.repository.ContainerExists(ctx, req.ApplicationName, req.ContainerName)
	if err != nil {
		return nil, err
	}
	if !parentExists {
		return nil, ErrContainerNotFound
	}

	name := strings.TrimSpace(req.ResourceName)
	if name == "" {
		name = generateName("sub")
	}

	exists, err := s.repository.SubscriptionExists(ctx, req.ApplicationName, req.ContainerName, name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrSubscriptionExists
	}

	sub := &Subscription{
		ResourceName:            name,
		ContainerResourceName:   req.ContainerName,
		ApplicationResourceName: req.ApplicationName,
		CreationDatetime:        time.Now().UTC(),
		ResType:                 ResourceTypeSubscription,
		Evt:                     req.Evt,
		Endpoint:                req.Endpoint,
	}
	if err := s.repository.CreateSubscription(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *service) GetSubscription(ctx context.Context, appName, containerName, subName string) (*Subscription, error) {
	return s.repository.GetSubscription(ctx, appName, containerName, subName)
}

func (s *service) DeleteSubscription(ctx context.Context, appName, containerName, subName string) error {
	exists, err := s.repository.SubscriptionExists(ctx, appName, containerName, subName)
	if err != nil {
		return err
	}
	if !exists {
		return ErrSubscriptionNotFound
	}
	return s.repository.DeleteSubscription(ctx, appName, containerName, subName)
}

// Discovery

func (s *service) Discover(ctx context.Context, kind DiscoveryKind, appName, containerName string) ([]string, error) {
	switch kind {
	case DiscoverApplications:
		return s.repository.ListApplicationPaths(ctx)

	case DiscoverContainers:
		if err := s.requireApplication(ctx, appName); err != nil {
			return nil, err
		}
		return s.repository.ListContainerPaths(ctx, appName)

	case DiscoverContentInstances:
		if err := s.requireApplication(ctx, appName); err != nil {
			return nil, err
		}
		return s.repository.ListContentInstancePaths(ctx, appName)

	case DiscoverSubscriptions:
		exists, err := s.repository.ContainerExists(ctx, appName, containerName)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, ErrContainerNotFound
		}
		return s.repository.ListSubscriptionPaths(ctx, appName, containerName)

	default:
		return nil, &ValidationError{Fields: []FieldError{{
			Field: "discovery", Message: "unknown discovery kind",
		}}}
	}
}

func (s *service) requireApplication(ctx context.Context, appName string) error {
	exists, err := s.repository.ApplicationExists(ctx, appName)
	if err != nil {
		return err
	}
	if !exists {
		return ErrApplicationNotFound
	}
	return nil
}

// Close waits for in-flight notification dispatches, then closes senders.
func (s *service) Close() error {
	s.dispatches.Wait()

	var firstErr error
	closed := make(map[Sender]bool)
	for _, sender := range s.senders {
		if closed[sender] {
			continue
		}
		closed[sender] = true
		if err := sender.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
