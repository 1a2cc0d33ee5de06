package core

import "context"

// Placement tells Insert where a new record goes in the stored order.
type Placement int

const (
	Append Placement = iota
	Prepend
)

// Repository defines the contract for storing and retrieving one homogeneous
// collection of records. Implementations must serialize mutations so that two
// concurrent writers never lose each other's updates.
//
// Reads treat unparsable storage as empty, but Insert, Modify and Delete fail
// with ErrStorageUnavailable instead of overwriting a corrupt document.
type Repository[T Record] interface {
	// Initialize ensures the underlying storage is ready (directories, schema).
	Initialize(ctx context.Context) error

	// List returns all records in stored order.
	List(ctx context.Context) ([]T, error)

	// Get retrieves a record by its ID, or ErrNotFound.
	Get(ctx context.Context, id string) (T, error)

	// Insert stores a new record. It fails with ErrConflict if the ID is taken.
	Insert(ctx context.Context, rec T, at Placement) error

	// Modify applies fn to the stored record and persists the result as one
	// atomic step. fn must not change the ID.
	Modify(ctx context.Context, id string, fn func(*T) error) (T, error)

	// Delete removes a record and reports whether it existed.
	Delete(ctx context.Context, id string) (bool, error)
}

// Watchable is implemented by repositories that can report changes made to
// their storage from outside the process.
type Watchable interface {
	Watch(ctx context.Context) (<-chan Event, error)
}

// Closer is implemented by repositories holding resources (database handles).
type Closer interface {
	Close() error
}
