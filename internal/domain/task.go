package domain

import (
	"errors"
	"time"
	"unicode/utf16"

	"github.com/google/uuid"
)

// MaxTaskTitleLength is the maximum allowed title length in UTF-16 code units.
const MaxTaskTitleLength = 255

// Common validation errors for Task
var (
	ErrEmptyTaskID      = errors.New("task ID cannot be empty")
	ErrEmptyTaskOwnerID = errors.New("task owner ID cannot be empty")
	ErrEmptyTaskTitle   = errors.New("task title cannot be empty")
	ErrTaskTitleTooLong = errors.New("task title cannot exceed 255 characters")
	ErrEmptyTaskDueDate = errors.New("task due date cannot be empty")
)

// Task represents a single to-do item. A task is owned by exactly one user
// and may be shared with any number of other users for read access.
// The owner is never a member of SharedWith; ownership already grants
// full access.
type Task struct {
	ID          uuid.UUID   `json:"id"`
	OwnerID     uuid.UUID   `json:"owner_id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	DueDate     time.Time   `json:"due_date"`
	IsCompleted bool        `json:"is_completed"`
	SharedWith  []uuid.UUID `json:"shared_with"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// NewTask creates a new Task owned by the given user.
// It generates a new UUID for the task ID, normalizes the due date to a
// calendar date, marks the task as not completed with an empty share set,
// and sets the creation/update timestamps.
// Returns an error if validation fails.
func NewTask(ownerID uuid.UUID, title, description string, dueDate time.Time) (*Task, error) {
	task := &Task{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Title:       title,
		Description: description,
		DueDate:     NormalizeDueDate(dueDate),
		IsCompleted: false,
		SharedWith:  nil,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
// Returns an error if any field fails validation.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTaskID
	}

	if t.OwnerID == uuid.Nil {
		return ErrEmptyTaskOwnerID
	}

	if t.Title == "" {
		return ErrEmptyTaskTitle
	}

	// Length is measured in UTF-16 code units to match the storage column.
	if len(utf16.Encode([]rune(t.Title))) > MaxTaskTitleLength {
		return ErrTaskTitleTooLong
	}

	if t.DueDate.IsZero() {
		return ErrEmptyTaskDueDate
	}

	return nil
}

// IsOwnedBy reports whether the given user is the task's owner.
func (t *Task) IsOwnedBy(userID uuid.UUID) bool {
	return t.OwnerID == userID
}

// IsSharedWith reports whether the task has been shared with the given user.
func (t *Task) IsSharedWith(userID uuid.UUID) bool {
	for _, id := range t.SharedWith {
		if id == userID {
			return true
		}
	}
	return false
}

// IsVisibleTo reports whether the given user may read the task.
// A task is visible to its owner and to every shared member.
func (t *Task) IsVisibleTo(userID uuid.UUID) bool {
	return t.IsOwnedBy(userID) || t.IsSharedWith(userID)
}

// AddShare adds the given user to the task's share set.
// Adding the owner or an already-shared user is a no-op; the share set
// never contains duplicates and never contains the owner.
// Returns true if the set changed.
func (t *Task) AddShare(userID uuid.UUID) bool {
	if userID == t.OwnerID || t.IsSharedWith(userID) {
		return false
	}
	t.SharedWith = append(t.SharedWith, userID)
	return true
}

// StatusLabel returns the human-readable completion status.
// The label is derived from IsCompleted rather than assumed by callers so
// it stays correct wherever the task is rendered.
func (t *Task) StatusLabel() string {
	if t.IsCompleted {
		return "Completed"
	}
	return "Pending"
}

// NormalizeDueDate truncates a timestamp to its calendar date in UTC.
// Due dates carry no time component.
func NormalizeDueDate(ts time.Time) time.Time {
	y, m, d := ts.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
