package postgres

import (
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/tendant/somiod/pkg/somiod"
)

func TestHandlePostgresError(t *testing.T) {
	uniqueViolation := func(constraint string) error {
		return &pgconn.PgError{Code: "23505", ConstraintName: constraint}
	}

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"application key", uniqueViolation("application_active_name_key"), somiod.ErrApplicationExists},
		{"container key", uniqueViolation("container_pkey"), somiod.ErrContainerExists},
		{"content instance key", uniqueViolation("content_instance_pkey"), somiod.ErrContentInstanceExists},
		{"subscription key", uniqueViolation("subscription_pkey"), somiod.ErrSubscriptionExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := handlePostgresError("create", tt.err)
			assert.ErrorIs(t, got, tt.want)
		})
	}

	t.Run("other pg error is wrapped", func(t *testing.T) {
		err := handlePostgresError("create", &pgconn.PgError{Code: "23503", Message: "fk violation"})
		assert.Error(t, err)
		assert.False(t, somiod.IsConflict(err))
		assert.Contains(t, err.Error(), "create")
	})

	t.Run("plain error is wrapped", func(t *testing.T) {
		base := errors.New("connection reset")
		err := handlePostgresError("get", base)
		assert.ErrorIs(t, err, base)
	})
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	assert.NoError(t, err)
	assert.NotEmpty(t, entries)

	// Every up migration ships with its down counterpart.
	ups, downs := 0, 0
	for _, e := range entries {
		switch {
		case strings.HasSuffix(e.Name(), ".up.sql"):
			ups++
		case strings.HasSuffix(e.Name(), ".down.sql"):
			downs++
		}
	}
	assert.Equal(t, ups, downs)
	assert.Greater(t, ups, 0)
}
