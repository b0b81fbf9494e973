// Package fs persists notification audit records as JSON files, one file per
// dispatched notification, grouped in a directory per application.
package fs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tendant/somiod/pkg/somiod"
)

// Store implements somiod.NotificationStore on the local filesystem.
type Store struct {
	root string
}

// New creates a store rooted at dir. The directory tree is created lazily on
// first write.
func New(dir string) *Store {
	return &Store{root: dir}
}

// Save validates the record and writes it under root/<app>/ as
// <eventType>-<timestamp>-<uuid>.json.
func (s *Store) Save(ctx context.Context, appName string, n *somiod.Notification) error {
	if err := n.Validate(); err != nil {
		return err
	}

	dir := filepath.Join(s.root, sanitizeName(appName))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating notification directory: %w", err)
	}

	now := time.Now().UTC()
	name := fmt.Sprintf("%s-%s%03d-%s.json",
		n.EventType,
		now.Format("20060102T150405"),
		now.Nanosecond()/int(time.Millisecond),
		uuid.NewString()[:8])

	data, err := json.MarshalIndent(n, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding notification: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return fmt.Errorf("writing notification: %w", err)
	}
	return nil
}

// sanitizeName keeps application names safe to use as directory names.
func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', 0:
			return '_'
		default:
			return r
		}
	}, name)
}
