package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskshare-api/internal/domain"
)

// TaskFilter narrows the results of ListVisibleTo. Zero-valued fields are
// ignored; set fields compose with logical AND.
type TaskFilter struct {
	// IsCompleted, when non-nil, matches tasks with the given completion flag.
	IsCompleted *bool

	// DueDate, when non-nil, matches tasks due on the given calendar date.
	// The time component is ignored.
	DueDate *time.Time

	// TitleContains, when non-empty, matches tasks whose title contains the
	// given substring, case-insensitively.
	TitleContains string
}

// TaskStore defines the interface for task data persistence.
type TaskStore interface {
	// Create saves a new task to the store.
	// It handles domain validation internally.
	// Returns ErrInvalidEntity wrapped with detail if the owner does not exist.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its unique ID with SharedWith populated.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// Update persists changes to an existing task's mutable fields
	// (title, description, due date, completion flag). OwnerID and
	// CreatedAt are never written.
	// Returns ErrTaskNotFound if the task does not exist.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes a task from the store by its ID. Share relationships
	// are removed with it; no orphan references remain.
	// Returns ErrTaskNotFound if the task does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// ListVisibleTo retrieves every task the given user may read: tasks they
	// own and tasks shared with them, narrowed by the filter, with SharedWith
	// populated. Results are
	// ordered by creation time (newest first) with ID as a tiebreaker, so
	// the order is stable across an unmutated store.
	// Returns an empty slice if no tasks match.
	ListVisibleTo(ctx context.Context, userID uuid.UUID, filter TaskFilter) ([]*domain.Task, error)

	// FindDueIncomplete retrieves all incomplete tasks due on the given
	// calendar date, with SharedWith populated. Used by the due-soon
	// notification dispatcher.
	// Returns an empty slice if no tasks match.
	FindDueIncomplete(ctx context.Context, dueDate time.Time) ([]*domain.Task, error)

	// AddShare records that the task is shared with the given user.
	// The operation is idempotent: sharing with an already-shared user
	// succeeds without effect.
	// Returns ErrTaskNotFound if the task does not exist and ErrUserNotFound
	// if the user does not exist.
	AddShare(ctx context.Context, taskID, userID uuid.UUID) error

	// WithTx returns a new TaskStore instance that uses the provided transaction.
	// This allows for multiple operations to be executed within a single transaction.
	// The transaction should be created and managed by the caller (typically a service).
	WithTx(tx *sql.Tx) TaskStore
}
