// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package postgres implements world.ObjectStore on PostgreSQL.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/holomush/mediabutton/internal/world"
)

// Compile-time interface check.
var _ world.ObjectStore = (*ObjectRepository)(nil)

// Pool is the subset of *pgxpool.Pool the repository uses.
// pgxmock.PgxPoolIface satisfies it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

const objectColumns = `id, name, x, y, z, components, properties, created_at`

// ObjectRepository implements world.ObjectStore using PostgreSQL.
type ObjectRepository struct {
	pool Pool
}

// NewObjectRepository creates a new ObjectRepository.
func NewObjectRepository(pool Pool) *ObjectRepository {
	return &ObjectRepository{pool: pool}
}

// Get retrieves an object by ID.
func (r *ObjectRepository) Get(ctx context.Context, id string) (*world.SpatialObject, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+objectColumns+` FROM objects WHERE id = $1`, id)
	obj, err := scanObject(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code(world.CodeObjectNotFound).With("id", id).Wrap(world.ErrNotFound)
	}
	if err != nil {
		return nil, oops.With("operation", "get object").With("id", id).Wrap(err)
	}
	return obj, nil
}

// FetchInRadius returns objects within radius of center on the x/y plane.
// The bounding-box predicate lets the (x, y) index prune before the exact
// distance check.
func (r *ObjectRepository) FetchInRadius(ctx context.Context, center world.Position, radius float64) ([]world.SpatialObject, error) {
	if radius < 0 {
		return nil, oops.Code("INVALID_RADIUS").With("radius", radius).Errorf("radius must not be negative")
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+objectColumns+`
		FROM objects
		WHERE x BETWEEN $1 - $3 AND $1 + $3
		  AND y BETWEEN $2 - $3 AND $2 + $3
		  AND (x - $1) * (x - $1) + (y - $2) * (y - $2) <= $3 * $3
		ORDER BY created_at, id
	`, center.X, center.Y, radius)
	if err != nil {
		return nil, oops.With("operation", "fetch objects in radius").
			With("x", center.X).With("y", center.Y).With("radius", radius).Wrap(err)
	}
	defer rows.Close()

	var objects []world.SpatialObject
	for rows.Next() {
		obj, err := scanObject(rows)
		if err != nil {
			return nil, oops.With("operation", "scan object").Wrap(err)
		}
		objects = append(objects, *obj)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.With("operation", "iterate objects").Wrap(err)
	}
	return objects, nil
}

// FindByName returns the oldest object with the given name.
func (r *ObjectRepository) FindByName(ctx context.Context, name string) (*world.SpatialObject, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+objectColumns+`
		FROM objects WHERE name = $1 ORDER BY created_at, id LIMIT 1
	`, name)
	obj, err := scanObject(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code(world.CodeObjectNotFound).With("name", name).Wrap(world.ErrNotFound)
	}
	if err != nil {
		return nil, oops.With("operation", "find object by name").With("name", name).Wrap(err)
	}
	return obj, nil
}

// Create persists a new object.
func (r *ObjectRepository) Create(ctx context.Context, obj *world.SpatialObject) error {
	if err := obj.Validate(); err != nil {
		return oops.Code("INVALID_OBJECT").With("id", obj.ID).Wrap(err)
	}

	components, err := encodeJSON(obj.Components, "[]")
	if err != nil {
		return oops.With("operation", "encode components").With("id", obj.ID).Wrap(err)
	}
	properties, err := encodeJSON(obj.Properties, "{}")
	if err != nil {
		return oops.With("operation", "encode properties").With("id", obj.ID).Wrap(err)
	}
	createdAt := obj.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO objects (id, name, x, y, z, components, properties, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, obj.ID, obj.Name, obj.Position.X, obj.Position.Y, obj.Position.Z, components, properties, createdAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return oops.Code(world.CodeAlreadyExists).With("id", obj.ID).Wrap(world.ErrAlreadyExists)
		}
		return oops.With("operation", "create object").With("id", obj.ID).Wrap(err)
	}
	return nil
}

// MergeProperties merges changes into the object's properties inside a
// transaction holding a row lock.
func (r *ObjectRepository) MergeProperties(ctx context.Context, id string, changes map[string]any) (err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return oops.With("operation", "begin transaction").With("id", id).Wrap(err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx) //nolint:errcheck // rollback error is secondary to the original failure
		}
	}()

	var raw []byte
	err = tx.QueryRow(ctx, `SELECT properties FROM objects WHERE id = $1 FOR UPDATE`, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return oops.Code(world.CodeObjectNotFound).With("id", id).Wrap(world.ErrNotFound)
	}
	if err != nil {
		return oops.With("operation", "lock object properties").With("id", id).Wrap(err)
	}

	var props map[string]any
	if len(raw) > 0 {
		if err = json.Unmarshal(raw, &props); err != nil {
			return oops.With("operation", "decode properties").With("id", id).Wrap(err)
		}
	}

	merged, err := encodeJSON(world.MergeProperties(props, changes), "{}")
	if err != nil {
		return oops.With("operation", "encode properties").With("id", id).Wrap(err)
	}

	if _, err = tx.Exec(ctx, `UPDATE objects SET properties = $2 WHERE id = $1`, id, merged); err != nil {
		return oops.With("operation", "update properties").With("id", id).Wrap(err)
	}
	if err = tx.Commit(ctx); err != nil {
		return oops.With("operation", "commit properties").With("id", id).Wrap(err)
	}
	return nil
}

// scanObject reads one object row in objectColumns order.
func scanObject(row pgx.Row) (*world.SpatialObject, error) {
	var obj world.SpatialObject
	var components, properties []byte
	if err := row.Scan(
		&obj.ID, &obj.Name, &obj.Position.X, &obj.Position.Y, &obj.Position.Z,
		&components, &properties, &obj.CreatedAt,
	); err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with operation context
	}
	if len(components) > 0 {
		if err := json.Unmarshal(components, &obj.Components); err != nil {
			return nil, oops.With("operation", "decode components").With("id", obj.ID).Wrap(err)
		}
	}
	if len(properties) > 0 {
		if err := json.Unmarshal(properties, &obj.Properties); err != nil {
			return nil, oops.With("operation", "decode properties").With("id", obj.ID).Wrap(err)
		}
	}
	return &obj, nil
}

// encodeJSON marshals v, using empty for nil values.
func encodeJSON(v any, empty string) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err //nolint:wrapcheck // callers wrap with operation context
	}
	if string(data) == "null" {
		return empty, nil
	}
	return string(data), nil
}
