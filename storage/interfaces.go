package storage

import (
	"context"
	"time"

	"github.com/poiesic/rednote/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	// The context passed to fn may contain transaction state.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// RunRepository provides operations for the local archive of workflow runs.
type RunRepository interface {
	Repository

	// AddRuns adds one or more run records to the archive.
	// IDs are generated from a sequence; InsertedAt is stamped, and a zero
	// CreatedAt is backfilled from the insertion time.
	// Returns the records with generated IDs and timestamps populated.
	AddRuns(ctx context.Context, records ...*core.RunRecord) ([]*core.RunRecord, error)

	// GetRun retrieves a single run record by ID.
	// Returns ErrNotFound if the record doesn't exist.
	GetRun(ctx context.Context, id core.ID) (*core.RunRecord, error)

	// GetRecentRuns retrieves the N most recent run records, newest first.
	// Returns up to limit records.
	GetRecentRuns(ctx context.Context, limit int) ([]*core.RunRecord, error)

	// GetRunsByDateRange retrieves run records within a time range.
	// Returns records where start <= CreatedAt < end, ordered by CreatedAt.
	GetRunsByDateRange(ctx context.Context, start, end time.Time) ([]*core.RunRecord, error)

	// DeleteRuns removes run records by their IDs.
	// Also removes associated indices.
	// Returns ErrNotFound if any record doesn't exist.
	DeleteRuns(ctx context.Context, ids ...core.ID) error
}
