package somiod

import "context"

// NoopNotificationStore discards audit records. Used when no store is
// configured and in tests that only care about delivery.
type NoopNotificationStore struct{}

// NewNoopNotificationStore creates a new no-operation notification store
func NewNoopNotificationStore() NotificationStore {
	return &NoopNotificationStore{}
}

// Save validates the record and discards it
func (n *NoopNotificationStore) Save(ctx context.Context, appName string, record *Notification) error {
	return record.Validate()
}
