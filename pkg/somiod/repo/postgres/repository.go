package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tendant/somiod/pkg/somiod"
)

// Repository implements somiod.Repository using PostgreSQL. Cascading deletes
// run inside one transaction, so a crash mid-cascade can never leave orphaned
// descendants behind.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new PostgreSQL repository backed by a connection pool
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// handlePostgresError maps low-level pg errors to domain errors.
func handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" { // unique_violation
			switch {
			case strings.Contains(pgErr.ConstraintName, "application"):
				return somiod.ErrApplicationExists
			case strings.Contains(pgErr.ConstraintName, "content_instance"):
				return somiod.ErrContentInstanceExists
			case strings.Contains(pgErr.ConstraintName, "subscription"):
				return somiod.ErrSubscriptionExists
			case strings.Contains(pgErr.ConstraintName, "container"):
				return somiod.ErrContainerExists
			}
		}
		return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
	}
	return fmt.Errorf("database error in %s: %w", operation, err)
}

// Application operations

func (r *Repository) CreateApplication(ctx context.Context, app *somiod.Application) error {
	query := `
		INSERT INTO application (resource_name, creation_datetime, res_type)
		VALUES ($1, $2, $3)`

	_, err := r.pool.Exec(ctx, query, app.ResourceName, app.CreationDatetime, app.ResType)
	if err != nil {
		return handlePostgresError("create application", err)
	}
	return nil
}

func (r *Repository) GetApplication(ctx context.Context, appName string) (*somiod.Application, error) {
	query := `
		SELECT resource_name, creation_datetime, res_type
		FROM application
		WHERE resource_name = $1 AND res_type = $2`

	var app somiod.Application
	err := r.pool.QueryRow(ctx, query, appName, somiod.ResourceTypeApplication).Scan(
		&app.ResourceName, &app.CreationDatetime, &app.ResType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, somiod.ErrApplicationNotFound
		}
		return nil, handlePostgresError("get application", err)
	}
	return &app, nil
}

func (r *Repository) ApplicationExists(ctx context.Context, appName string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM application
			WHERE resource_name = $1 AND res_type = $2
		)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, appName, somiod.ResourceTypeApplication).Scan(&exists); err != nil {
		return false, handlePostgresError("application exists", err)
	}
	return exists, nil
}

func (r *Repository) RenameApplication(ctx context.Context, currentName, newName string) (*somiod.Application, error) {
	query := `
		UPDATE application
		SET resource_name = $1
		WHERE resource_name = $2 AND res_type = $3
		RETURNING resource_name, creation_datetime, res_type`

	var app somiod.Application
	err := r.pool.QueryRow(ctx, query, newName, currentName, somiod.ResourceTypeApplication).Scan(
		&app.ResourceName, &app.CreationDatetime, &app.ResType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, somiod.ErrApplicationNotFound
		}
		return nil, handlePostgresError("rename application", err)
	}
	return &app, nil
}

// DeleteApplication removes the application subtree and retires the
// application row, all within one transaction.
func (r *Repository) DeleteApplication(ctx context.Context, appName string) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		steps := []string{
			`DELETE FROM content_instance WHERE application_resource_name = $1`,
			`DELETE FROM subscription WHERE application_resource_name = $1`,
			`DELETE FROM container WHERE application_resource_name = $1`,
		}
		for _, step := range steps {
			if _, err := tx.Exec(ctx, step, appName); err != nil {
				return err
			}
		}

		tag, err := tx.Exec(ctx, `
			UPDATE application
			SET res_type = $1
			WHERE resource_name = $2 AND res_type = $3`,
			somiod.ResourceTypeApplicationRetired, appName, somiod.ResourceTypeApplication)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return somiod.ErrApplicationNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, somiod.ErrApplicationNotFound) {
			return err
		}
		return handlePostgresError("delete application", err)
	}
	return nil
}

func (r *Repository) ApplicationHasContainers(ctx context.Context, appName string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM container WHERE application_resource_name = $1
		)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, appName).Scan(&exists); err != nil {
		return false, handlePostgresError("application has containers", err)
	}
	return exists, nil
}

// Container operations

func (r *Repository) CreateContainer(ctx context.Context, container *somiod.Container) error {
	query := `
		INSERT INTO container (resource_name, application_resource_name, creation_datetime, res_type)
		VALUES ($1, $2, $3, $4)`

	_, err := r.pool.Exec(ctx, query,
		container.ResourceName, container.ApplicationResourceName,
		container.CreationDatetime, container.ResType)
	if err != nil {
		return handlePostgresError("create container", err)
	}
	return nil
}

func (r *Repository) GetContainer(ctx context.Context, appName, containerName string) (*somiod.Container, error) {
	query := `
		SELECT c.resource_name, c.application_resource_name, c.creation_datetime, c.res_type
		FROM container c
		JOIN application a ON a.resource_name = c.application_resource_name
		WHERE a.resource_name = $1
		  AND c.resource_name = $2
		  AND a.res_type = $3`

	var container somiod.Container
	err := r.pool.QueryRow(ctx, query, appName, containerName, somiod.ResourceTypeApplication).Scan(
		&container.ResourceName, &container.ApplicationResourceName,
		&container.CreationDatetime, &container.ResType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, somiod.ErrContainerNotFound
		}
		return nil, handlePostgresError("get container", err)
	}
	return &container, nil
}

func (r *Repository) ContainerExists(ctx context.Context, appName, containerName string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM container c
			JOIN application a ON a.resource_name = c.application_resource_name
			WHERE a.resource_name = $1
			  AND c.resource_name = $2
			  AND a.res_type = $3
		)`

	var exists bool
	err := r.pool.QueryRow(ctx, query, appName, containerName, somiod.ResourceTypeApplication).Scan(&exists)
	if err != nil {
		return false, handlePostgresError("container exists", err)
	}
	return exists, nil
}

func (r *Repository) ContainerHasChildren(ctx context.Context, appName, containerName string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM content_instance
			WHERE application_resource_name = $1 AND container_resource_name = $2
		) OR EXISTS (
			SELECT 1 FROM subscription
			WHERE application_resource_name = $1 AND container_resource_name = $2
		)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, appName, containerName).Scan(&exists); err != nil {
		return false, handlePostgresError("container has children", err)
	}
	return exists, nil
}

func (r *Repository) RenameContainer(ctx context.Context, appName, currentName, newName string) (*somiod.Container, error) {
	query := `
		UPDATE container
		SET resource_name = $1
		WHERE resource_name = $2 AND application_resource_name = $3
		RETURNING resource_name, application_resource_name, creation_datetime, res_type`

	var container somiod.Container
	err := r.pool.QueryRow(ctx, query, newName, currentName, appName).Scan(
		&container.ResourceName, &container.ApplicationResourceName,
		&container.CreationDatetime, &container.ResType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, somiod.ErrContainerNotFound
		}
		return nil, handlePostgresError("rename container", err)
	}
	return &container, nil
}

// DeleteContainerCascade deletes the container's content instances,
// subscriptions and finally the container itself within one transaction.
func (r *Repository) DeleteContainerCascade(ctx context.Context, appName, containerName string) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		steps := []string{
			`DELETE FROM content_instance
			 WHERE application_resource_name = $1 AND container_resource_name = $2`,
			`DELETE FROM subscription
			 WHERE application_resource_name = $1 AND container_resource_name = $2`,
		}
		for _, step := range steps {
			if _, err := tx.Exec(ctx, step, appName, containerName); err != nil {
				return err
			}
		}

		tag, err := tx.Exec(ctx, `
			DELETE FROM container
			WHERE application_resource_name = $1 AND resource_name = $2`,
			appName, containerName)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return somiod.ErrContainerNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, somiod.ErrContainerNotFound) {
			return err
		}
		return handlePostgresError("delete container cascade", err)
	}
	return nil
}

// Content instance operations

func (r *Repository) CreateContentInstance(ctx context.Context, ci *somiod.ContentInstance) error {
	query := `
		INSERT INTO content_instance (
			resource_name, container_resource_name, application_resource_name,
			creation_datetime, res_type, content_type, content
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		ci.ResourceName, ci.ContainerResourceName, ci.ApplicationResourceName,
		ci.CreationDatetime, ci.ResType, ci.ContentType, ci.Content)
	if err != nil {
		return handlePostgresError("create content instance", err)
	}
	return nil
}

func (r *Repository) GetContentInstance(ctx context.Context, appName, containerName, ciName string) (*somiod.ContentInstance, error) {
	query := `
		SELECT ci.resource_name, ci.container_resource_name, ci.application_resource_name,
		       ci.creation_datetime, ci.res_type, ci.content_type, ci.content
		FROM content_instance ci
		JOIN application a ON a.resource_name = ci.application_resource_name
		WHERE ci.application_resource_name = $1
		  AND ci.container_resource_name = $2
		  AND ci.resource_name = $3
		  AND a.res_type = $4`

	var ci somiod.ContentInstance
	err := r.pool.QueryRow(ctx, query, appName, containerName, ciName, somiod.ResourceTypeApplication).Scan(
		&ci.ResourceName, &ci.ContainerResourceName, &ci.ApplicationResourceName,
		&ci.CreationDatetime, &ci.ResType, &ci.ContentType, &ci.Content)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, somiod.ErrContentInstanceNotFound
		}
		return nil, handlePostgresError("get content instance", err)
	}
	return &ci, nil
}

func (r *Repository) ContentInstanceExists(ctx context.Context, appName, containerName, ciName string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM content_instance
			WHERE application_resource_name = $1
			  AND container_resource_name = $2
			  AND resource_name = $3
		)`

	var exists bool
	err := r.pool.QueryRow(ctx, query, appName, containerName, ciName).Scan(&exists)
	if err != nil {
		return false, handlePostgresError("content instance exists", err)
	}
	return exists, nil
}

func (r *Repository) DeleteContentInstance(ctx context.Context, appName, containerName, ciName string) error {
	query := `
		DELETE FROM content_instance
		WHERE application_resource_name = $1
		  AND container_resource_name = $2
		  AND resource_name = $3`

	tag, err := r.pool.Exec(ctx, query, appName, containerName, ciName)
	if err != nil {
		return handlePostgresError("delete content instance", err)
	}
	if tag.RowsAffected() == 0 {
		return somiod.ErrContentInstanceNotFound
	}
	return nil
}

// Subscription operations

func (r *Repository) CreateSubscription(ctx context.Context, sub *somiod.Subscription) error {
	query := `
		INSERT INTO subscription (
			resource_name, container_resource_name, application_resource_name,
			creation_datetime, res_type, evt, endpoint
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		sub.ResourceName, sub.ContainerResourceName, sub.ApplicationResourceName,
		sub.CreationDatetime, sub.ResType, sub.Evt, sub.Endpoint)
	if err != nil {
		return handlePostgresError("create subscription", err)
	}
	return nil
}

func (r *Repository) GetSubscription(ctx context.Context, appName, containerName, subName string) (*somiod.Subscription, error) {
	query := `
		SELECT s.resource_name, s.container_resource_name, s.application_resource_name,
		       s.creation_datetime, s.res_type, s.evt, s.endpoint
		FROM subscription s
		JOIN application a ON a.resource_name = s.application_resource_name
		WHERE s.application_resource_name = $1
		  AND s.container_resource_name = $2
		  AND s.resource_name = $3
		  AND a.res_type = $4`

	var sub somiod.Subscription
	err := r.pool.QueryRow(ctx, query, appName, containerName, subName, somiod.ResourceTypeApplication).Scan(
		&sub.ResourceName, &sub.ContainerResourceName, &sub.ApplicationResourceName,
		&sub.CreationDatetime, &sub.ResType, &sub.Evt, &sub.Endpoint)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, somiod.ErrSubscriptionNotFound
		}
		return nil, handlePostgresError("get subscription", err)
	}
	return &sub, nil
}

func (r *Repository) SubscriptionExists(ctx context.Context, appName, containerName, subName string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM subscription
			WHERE application_resource_name = $1
			  AND container_resource_name = $2
			  AND resource_name = $3
		)`

	var exists bool
	err := r.pool.QueryRow(ctx, query, appName, containerName, subName).Scan(&exists)
	if err != nil {
		return false, handlePostgresError("subscription exists", err)
	}
	return exists, nil
}

func (r *Repository) DeleteSubscription(ctx context.Context, appName, containerName, subName string) error {
	query := `
		DELETE FROM subscription
		WHERE application_resource_name = $1
		  AND container_resource_name = $2
		  AND resource_name = $3`

	tag, err := r.pool.Exec(ctx, query, appName, containerName, subName)
	if err != nil {
		return handlePostgresError("delete subscription", err)
	}
	if tag.RowsAffected() == 0 {
		return somiod.ErrSubscriptionNotFound
	}
	return nil
}

func (r *Repository) ListSubscriptionsForContainer(ctx context.Context, appName, containerName string) ([]*somiod.Subscription, error) {
	query := `
		SELECT s.resource_name, s.container_resource_name, s.application_resource_name,
		       s.creation_datetime, s.res_type, s.evt, s.endpoint
		FROM subscription s
		JOIN application a ON a.resource_name = s.application_resource_name
		WHERE s.application_resource_name = $1
		  AND s.container_resource_name = $2
		  AND a.res_type = $3
		ORDER BY s.creation_datetime`

	rows, err := r.pool.Query(ctx, query, appName, containerName, somiod.ResourceTypeApplication)
	if err != nil {
		return nil, handlePostgresError("list subscriptions", err)
	}
	defer rows.Close()

	var subs []*somiod.Subscription
	for rows.Next() {
		var sub somiod.Subscription
		if err := rows.Scan(
			&sub.ResourceName, &sub.ContainerResourceName, &sub.ApplicationResourceName,
			&sub.CreationDatetime, &sub.ResType, &sub.Evt, &sub.Endpoint); err != nil {
			return nil, handlePostgresError("list subscriptions", err)
		}
		subs = append(subs, &sub)
	}
	if err := rows.Err(); err != nil {
		return nil, handlePostgresError("list subscriptions", err)
	}
	return subs, nil
}

// Discovery listings

func (r *Repository) ListApplicationPaths(ctx context.Context) ([]string, error) {
	query := `
		SELECT resource_name
		FROM application
		WHERE res_type = $1
		ORDER BY creation_datetime`

	rows, err := r.pool.Query(ctx, query, somiod.ResourceTypeApplication)
	if err != nil {
		return nil, handlePostgresError("list applications", err)
	}
	defer rows.Close()

	paths := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, handlePostgresError("list applications", err)
		}
		paths = append(paths, somiod.ApplicationPath(name))
	}
	return paths, rows.Err()
}

func (r *Repository) ListContainerPaths(ctx context.Context, appName string) ([]string, error) {
	query := `
		SELECT c.resource_name
		FROM container c
		JOIN application a ON a.resource_name = c.application_resource_name
		WHERE a.resource_name = $1 AND a.res_type = $2
		ORDER BY c.creation_datetime`

	rows, err := r.pool.Query(ctx, query, appName, somiod.ResourceTypeApplication)
	if err != nil {
		return nil, handlePostgresError("list containers", err)
	}
	defer rows.Close()

	paths := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, handlePostgresError("list containers", err)
		}
		paths = append(paths, somiod.ContainerPath(appName, name))
	}
	return paths, rows.Err()
}

func (r *Repository) ListContentInstancePaths(ctx context.Context, appName string) ([]string, error) {
	query := `
		SELECT ci.container_resource_name, ci.resource_name
		FROM content_instance ci
		JOIN application a ON a.resource_name = ci.application_resource_name
		WHERE ci.application_resource_name = $1 AND a.res_type = $2
		ORDER BY ci.container_resource_name, ci.creation_datetime`

	rows, err := r.pool.Query(ctx, query, appName, somiod.ResourceTypeApplication)
	if err != nil {
		return nil, handlePostgresError("list content instances", err)
	}
	defer rows.Close()

	paths := []string{}
	for rows.Next() {
		var containerName, ciName string
		if err := rows.Scan(&containerName, &ciName); err != nil {
			return nil, handlePostgresError("list content instances", err)
		}
		paths = append(paths, somiod.ContentInstancePath(appName, containerName, ciName))
	}
	return paths, rows.Err()
}

func (r *Repository) ListSubscriptionPaths(ctx context.Context, appName, containerName string) ([]string, error) {
	query := `
		SELECT s.resource_name
		FROM subscription s
		JOIN application a ON a.resource_name = s.application_resource_name
		WHERE s.application_resource_name = $1
		  AND s.container_resource_name = $2
		  AND a.res_type = $3
		ORDER BY s.creation_datetime`

	rows, err := r.pool.Query(ctx, query, appName, containerName, somiod.ResourceTypeApplication)
	if err != nil {
		return nil, handlePostgresError("list subscription paths", err)
	}
	defer rows.Close()

	paths := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, handlePostgresError("list subscription paths", err)
		}
		paths = append(paths, somiod.SubscriptionPath(appName, containerName, name))
	}
	return paths, rows.Err()
}
