// Package memory keeps notification audit records in memory for tests and
// local development.
package memory

import (
	"context"
	"sync"

	"github.com/tendant/somiod/pkg/somiod"
)

// Store implements somiod.NotificationStore in memory.
type Store struct {
	mu      sync.Mutex
	records map[string][]*somiod.Notification // app name -> records in save order
}

// New creates a new in-memory notification store
func New() *Store {
	return &Store{records: make(map[string][]*somiod.Notification)}
}

// Save validates the record and appends it to the application's list.
func (s *Store) Save(ctx context.Context, appName string, n *somiod.Notification) error {
	if err := n.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	record := *n
	s.records[appName] = append(s.records[appName], &record)
	return nil
}

// Records returns a snapshot of the records saved for one application.
func (s *Store) Records(appName string) []*somiod.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*somiod.Notification, len(s.records[appName]))
	copy(out, s.records[appName])
	return out
}
