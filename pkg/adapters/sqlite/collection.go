package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/aretw0/introspection"

	"github.com/aretw0/tillage/pkg/core"
)

// Config holds the configuration for a collection.
type Config struct {
	Name     string
	ReadOnly bool
}

// Collection implements core.Repository[T] with one row per record. Stored
// order is kept in the position column.
type Collection[T core.Record] struct {
	store  *Store
	config Config
	logger *slog.Logger
	writes atomic.Uint64
}

var _ core.Repository[core.Note] = (*Collection[core.Note])(nil)

// NewCollection binds a collection name to store.
func NewCollection[T core.Record](store *Store, config Config) *Collection[T] {
	return &Collection[T]{
		store:  store,
		config: config,
		logger: store.logger.With("collection", config.Name),
	}
}

// Name returns the collection name.
func (c *Collection[T]) Name() string { return c.config.Name }

// Initialize ensures the schema exists.
func (c *Collection[T]) Initialize(ctx context.Context) error {
	return c.store.Migrate(ctx)
}

// List returns every record ordered by position. Rows that cannot be decoded
// are skipped and logged.
func (c *Collection[T]) List(ctx context.Context) ([]T, error) {
	if c.store.empty() {
		return []T{}, nil
	}
	rows, err := c.store.db.QueryContext(ctx,
		`SELECT id, data FROM records WHERE collection = ? ORDER BY position`, c.config.Name)
	if err != nil {
		return nil, unavailable("list", err)
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, unavailable("scan", err)
		}
		var rec T
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			c.logger.Warn("skipping undecodable row", "id", id, "error", err)
			continue
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list", err)
	}
	return out, nil
}

// Get retrieves a record by its ID.
func (c *Collection[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	if c.store.empty() {
		return zero, fmt.Errorf("%s %s: %w", c.config.Name, id, core.ErrNotFound)
	}
	var data string
	err := c.store.db.QueryRowContext(ctx,
		`SELECT data FROM records WHERE collection = ? AND id = ?`, c.config.Name, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, fmt.Errorf("%s %s: %w", c.config.Name, id, core.ErrNotFound)
	}
	if err != nil {
		return zero, unavailable("get", err)
	}

	var rec T
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return zero, fmt.Errorf("failed to decode %s: %w: %w", id, core.ErrStorageUnavailable, err)
	}
	return rec, nil
}

// Insert stores rec before the first or after the last record.
func (c *Collection[T]) Insert(ctx context.Context, rec T, at core.Placement) error {
	id := rec.GetID()
	if id == "" {
		return fmt.Errorf("%w: record has no id", core.ErrInvalidInput)
	}

	return c.inTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM records WHERE collection = ? AND id = ?`, c.config.Name, id).Scan(&exists)
		if err != nil {
			return unavailable("insert", err)
		}
		if exists > 0 {
			return fmt.Errorf("%s %s: %w", c.config.Name, id, core.ErrConflict)
		}

		bound := `SELECT COALESCE(MAX(position), 0) + 1 FROM records WHERE collection = ?`
		if at == core.Prepend {
			bound = `SELECT COALESCE(MIN(position), 0) - 1 FROM records WHERE collection = ?`
		}
		var position int64
		if err := tx.QueryRowContext(ctx, bound, c.config.Name).Scan(&position); err != nil {
			return unavailable("insert", err)
		}

		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO records (collection, id, position, data) VALUES (?, ?, ?, ?)`,
			c.config.Name, id, position, string(data)); err != nil {
			return unavailable("insert", err)
		}
		return nil
	})
}

// Modify applies fn to the stored record inside a transaction.
func (c *Collection[T]) Modify(ctx context.Context, id string, fn func(*T) error) (T, error) {
	var updated T
	err := c.inTx(ctx, func(tx *sql.Tx) error {
		var data string
		err := tx.QueryRowContext(ctx,
			`SELECT data FROM records WHERE collection = ? AND id = ?`, c.config.Name, id).Scan(&data)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%s %s: %w", c.config.Name, id, core.ErrNotFound)
		}
		if err != nil {
			return unavailable("modify", err)
		}

		var rec T
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return fmt.Errorf("refusing to overwrite %s: %w: %w", id, core.ErrStorageUnavailable, err)
		}
		if err := fn(&rec); err != nil {
			return err
		}
		if rec.GetID() != id {
			return fmt.Errorf("%w: record id cannot change", core.ErrInvalidInput)
		}

		encoded, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE records SET data = ? WHERE collection = ? AND id = ?`,
			string(encoded), c.config.Name, id); err != nil {
			return unavailable("modify", err)
		}
		updated = rec
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return updated, nil
}

// Delete removes the record and reports whether it existed.
func (c *Collection[T]) Delete(ctx context.Context, id string) (bool, error) {
	if c.config.ReadOnly || c.store.readOnly {
		return false, fmt.Errorf("%s: %w", c.config.Name, core.ErrReadOnly)
	}

	res, err := c.store.db.ExecContext(ctx,
		`DELETE FROM records WHERE collection = ? AND id = ?`, c.config.Name, id)
	if err != nil {
		return false, unavailable("delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, unavailable("delete", err)
	}
	if n > 0 {
		c.writes.Add(1)
	}
	return n > 0, nil
}

func (c *Collection[T]) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	if c.config.ReadOnly || c.store.readOnly {
		return fmt.Errorf("%s: %w", c.config.Name, core.ErrReadOnly)
	}

	tx, err := c.store.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("begin", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return unavailable("commit", err)
	}
	c.writes.Add(1)
	return nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("sqlite %s: %w: %w", op, core.ErrStorageUnavailable, err)
}

// CollectionState exposes internal state for observability.
type CollectionState struct {
	Name     string `json:"name"`
	Database string `json:"database"`
	ReadOnly bool   `json:"read_only"`
	Records  int    `json:"records"`
	Writes   uint64 `json:"writes"`
}

// State implements introspection.Introspectable.
func (c *Collection[T]) State() any {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	state := CollectionState{
		Name:     c.config.Name,
		Database: c.store.path,
		ReadOnly: c.config.ReadOnly || c.store.readOnly,
		Writes:   c.writes.Load(),
		Records:  -1,
	}
	if c.store.empty() {
		state.Records = 0
		return state
	}
	_ = c.store.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM records WHERE collection = ?`, c.config.Name).Scan(&state.Records)
	return state
}

// ComponentType implements introspection.Component.
func (c *Collection[T]) ComponentType() string {
	return "sqlite-collection"
}

var _ introspection.Introspectable = (*Collection[core.Task])(nil)
var _ introspection.Component = (*Collection[core.Task])(nil)
