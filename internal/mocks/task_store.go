package mocks

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskshare-api/internal/domain"
	"github.com/phrazzld/taskshare-api/internal/store"
)

// MockTaskStore implements store.TaskStore for testing. The default
// implementation keeps tasks in memory and mirrors the real store's
// semantics: visibility through ownership or shares, idempotent share
// insertion, and newest-first list ordering.
type MockTaskStore struct {
	// Function fields for customizable behavior
	CreateFn            func(ctx context.Context, task *domain.Task) error
	GetByIDFn           func(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	UpdateFn            func(ctx context.Context, task *domain.Task) error
	DeleteFn            func(ctx context.Context, id uuid.UUID) error
	ListVisibleToFn     func(ctx context.Context, userID uuid.UUID, filter store.TaskFilter) ([]*domain.Task, error)
	FindDueIncompleteFn func(ctx context.Context, dueDate time.Time) ([]*domain.Task, error)
	AddShareFn          func(ctx context.Context, taskID, userID uuid.UUID) error

	// Data for default implementation
	mu    sync.Mutex
	Tasks map[uuid.UUID]*domain.Task

	// KnownUsers, when non-empty, makes AddShare enforce user existence.
	KnownUsers map[uuid.UUID]bool

	Err error
}

var _ store.TaskStore = (*MockTaskStore)(nil)

// NewMockTaskStore creates a new mock store with initialized defaults
func NewMockTaskStore() *MockTaskStore {
	return &MockTaskStore{
		Tasks:      make(map[uuid.UUID]*domain.Task),
		KnownUsers: make(map[uuid.UUID]bool),
	}
}

// AddTask seeds the store with a task.
func (m *MockTaskStore) AddTask(task *domain.Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Tasks[task.ID] = task
}

// Create implements the TaskStore interface
func (m *MockTaskStore) Create(ctx context.Context, task *domain.Task) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, task)
	}
	if m.Err != nil {
		return m.Err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Tasks[task.ID] = task
	return nil
}

// GetByID implements the TaskStore interface
func (m *MockTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	if m.Err != nil {
		return nil, m.Err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	task, ok := m.Tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	return task, nil
}

// Update implements the TaskStore interface
func (m *MockTaskStore) Update(ctx context.Context, task *domain.Task) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, task)
	}
	if m.Err != nil {
		return m.Err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.Tasks[task.ID]; !ok {
		return store.ErrTaskNotFound
	}
	m.Tasks[task.ID] = task
	return nil
}

// Delete implements the TaskStore interface
func (m *MockTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	if m.Err != nil {
		return m.Err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.Tasks[id]; !ok {
		return store.ErrTaskNotFound
	}
	delete(m.Tasks, id)
	return nil
}

// ListVisibleTo implements the TaskStore interface
func (m *MockTaskStore) ListVisibleTo(
	ctx context.Context,
	userID uuid.UUID,
	filter store.TaskFilter,
) ([]*domain.Task, error) {
	if m.ListVisibleToFn != nil {
		return m.ListVisibleToFn(ctx, userID, filter)
	}
	if m.Err != nil {
		return nil, m.Err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]*domain.Task, 0)
	for _, task := range m.Tasks {
		if !task.IsVisibleTo(userID) {
			continue
		}
		if !matchesFilter(task, filter) {
			continue
		}
		result = append(result, task)
	}

	// Newest first, ID as tiebreaker, matching the real store's ordering
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID.String() < result[j].ID.String()
	})

	return result, nil
}

// FindDueIncomplete implements the TaskStore interface
func (m *MockTaskStore) FindDueIncomplete(ctx context.Context, dueDate time.Time) ([]*domain.Task, error) {
	if m.FindDueIncompleteFn != nil {
		return m.FindDueIncompleteFn(ctx, dueDate)
	}
	if m.Err != nil {
		return nil, m.Err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	target := domain.NormalizeDueDate(dueDate)

	result := make([]*domain.Task, 0)
	for _, task := range m.Tasks {
		if task.IsCompleted {
			continue
		}
		if !domain.NormalizeDueDate(task.DueDate).Equal(target) {
			continue
		}
		result = append(result, task)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID.String() < result[j].ID.String()
	})

	return result, nil
}

// AddShare implements the TaskStore interface
func (m *MockTaskStore) AddShare(ctx context.Context, taskID, userID uuid.UUID) error {
	if m.AddShareFn != nil {
		return m.AddShareFn(ctx, taskID, userID)
	}
	if m.Err != nil {
		return m.Err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	task, ok := m.Tasks[taskID]
	if !ok {
		return store.ErrTaskNotFound
	}
	if len(m.KnownUsers) > 0 && !m.KnownUsers[userID] {
		return store.ErrUserNotFound
	}

	task.AddShare(userID)
	return nil
}

// WithTx implements the TaskStore interface. The mock has no transactions,
// so it returns itself.
func (m *MockTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return m
}

// matchesFilter applies a TaskFilter in memory.
func matchesFilter(task *domain.Task, filter store.TaskFilter) bool {
	if filter.IsCompleted != nil && task.IsCompleted != *filter.IsCompleted {
		return false
	}
	if filter.DueDate != nil &&
		!domain.NormalizeDueDate(task.DueDate).Equal(domain.NormalizeDueDate(*filter.DueDate)) {
		return false
	}
	if filter.TitleContains != "" &&
		!strings.Contains(strings.ToLower(task.Title), strings.ToLower(filter.TitleContains)) {
		return false
	}
	return true
}
