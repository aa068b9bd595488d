package store

import (
	"context"
	"errors"
	"time"

	"github.com/maintainly/fssync/internal/model"
)

var ErrNotFound = errors.New("not found")

// DefaultBatchSize bounds the rows of a single INSERT statement.
const DefaultBatchSize = 250

// Patch is a partial update of one row: column name -> new value.
type Patch struct {
	ID     string
	Fields map[string]any
}

// ChangeSet is the whole mutation set of one stream run. It is applied in a
// single transaction: inserts in batches, then one update per patch, then one
// batched delete.
type ChangeSet[T any] struct {
	Inserts []T
	Updates []Patch
	Deletes []string
}

func (c ChangeSet[T]) Empty() bool {
	return len(c.Inserts) == 0 && len(c.Updates) == 0 && len(c.Deletes) == 0
}

// SnapshotStore loads the current local rows of each synced table.
type SnapshotStore interface {
	ListCustomers(ctx context.Context) ([]model.Customer, error)
	ListSystems(ctx context.Context) ([]model.System, error)
	ListContacts(ctx context.Context, source model.ContactSource) ([]model.ContactPerson, error)
	// ListManualOwners returns the ids of customers owning at least one
	// system or contact without an external id.
	ListManualOwners(ctx context.Context) ([]string, error)
}

// ChangeStore applies a stream's change set atomically.
type ChangeStore interface {
	ApplyCustomers(ctx context.Context, cs ChangeSet[model.Customer]) error
	ApplySystems(ctx context.Context, cs ChangeSet[model.System]) error
	ApplyContacts(ctx context.Context, cs ChangeSet[model.ContactPerson]) error
}

// CursorStore keeps one high-water mark per stream. A missing key is not an
// error: GetCursor returns nil.
type CursorStore interface {
	GetCursor(ctx context.Context, stream string) (*time.Time, error)
	SetCursor(ctx context.Context, stream string, mark time.Time) error
	ListCursors(ctx context.Context) ([]model.SyncCursor, error)
}

// SettingsStore is the application's key-value settings table.
type SettingsStore interface {
	GetSetting(ctx context.Context, key string) (string, error)
	// UpdateSetting runs fn on the current value ("" when missing) and stores
	// the result in the same transaction.
	UpdateSetting(ctx context.Context, key string, fn func(current string) (string, error)) (string, error)
}

type JobStore interface {
	CreateJob(ctx context.Context, j *model.Job) (string, error)
	GetJob(ctx context.Context, id string) (*model.Job, error)
	UpdateJob(ctx context.Context, j *model.Job) error
	ListJobs(ctx context.Context) ([]*model.Job, error)
}

// Store is everything the sync engine and its surfaces need from persistence.
type Store interface {
	SnapshotStore
	ChangeStore
	CursorStore
	SettingsStore
	JobStore
}
