package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskshare-api/internal/domain"
	"github.com/phrazzld/taskshare-api/internal/platform/logger"
	"github.com/phrazzld/taskshare-api/internal/store"
)

// TaskUpdate carries the mutable task fields for UpdateTask.
// Nil fields are left unchanged. Owner and creation time are not
// representable here: they are immutable.
type TaskUpdate struct {
	Title       *string
	Description *string
	DueDate     *time.Time
	IsCompleted *bool
}

// ShareTarget identifies the user a task is to be shared with, either by ID
// or by email. When both are present the ID wins; when neither is present
// the request is invalid.
type ShareTarget struct {
	UserID *uuid.UUID
	Email  string
}

// TaskService enforces ownership, visibility, and completion invariants for
// tasks. Every operation takes the already-authenticated caller's user ID;
// authorization is an explicit owner-equality check at the start of each
// mutating operation.
type TaskService interface {
	// CreateTask creates a new task owned by the caller. The due date may be
	// any calendar date, including one in the past.
	CreateTask(ctx context.Context, ownerID uuid.UUID, title, description string, dueDate time.Time) (*domain.Task, error)

	// ListTasks returns every task visible to the caller (owned or shared
	// with them), narrowed by the filter. An empty result is not an error.
	ListTasks(ctx context.Context, callerID uuid.UUID, filter store.TaskFilter) ([]*domain.Task, error)

	// GetTask retrieves a single task. Returns ErrTaskNotFound both when the
	// task does not exist and when the caller may not see it, so existence
	// never leaks to unauthorized callers.
	GetTask(ctx context.Context, callerID, taskID uuid.UUID) (*domain.Task, error)

	// UpdateTask applies the given field changes. Owner-only.
	// Returns ErrTaskNotFound or ErrNotTaskOwner.
	UpdateTask(ctx context.Context, callerID, taskID uuid.UUID, update TaskUpdate) (*domain.Task, error)

	// DeleteTask removes the task and all of its share relationships.
	// Owner-only. Returns ErrTaskNotFound or ErrNotTaskOwner.
	DeleteTask(ctx context.Context, callerID, taskID uuid.UUID) error

	// CompleteTask marks the task completed. Owner-only and idempotent:
	// completing an already-completed task succeeds without effect.
	CompleteTask(ctx context.Context, callerID, taskID uuid.UUID) (*domain.Task, error)

	// ShareTask grants the target user read access to the task. Owner-only
	// and idempotent; sharing with the owner is a no-op. Returns the updated
	// task and the resolved target user.
	ShareTask(ctx context.Context, callerID, taskID uuid.UUID, target ShareTarget) (*domain.Task, *domain.User, error)
}

// Verify interface compliance at compile time
var _ TaskService = (*taskServiceImpl)(nil)

// taskServiceImpl implements the TaskService interface.
type taskServiceImpl struct {
	tasks    store.TaskStore
	users    store.UserStore
	txRunner store.TxRunner
	logger   *slog.Logger
}

// NewTaskService creates a new TaskService implementation. The txRunner is
// used for operations that touch more than one row and must be atomic.
func NewTaskService(
	tasks store.TaskStore,
	users store.UserStore,
	txRunner store.TxRunner,
	logger *slog.Logger,
) TaskService {
	if tasks == nil {
		panic("tasks store cannot be nil")
	}
	if users == nil {
		panic("users store cannot be nil")
	}
	if txRunner == nil {
		panic("txRunner cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &taskServiceImpl{
		tasks:    tasks,
		users:    users,
		txRunner: txRunner,
		logger:   logger.With(slog.String("component", "task_service")),
	}
}

// CreateTask implements TaskService.CreateTask.
func (s *taskServiceImpl) CreateTask(
	ctx context.Context,
	ownerID uuid.UUID,
	title, description string,
	dueDate time.Time,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := domain.NewTask(ownerID, title, description, dueDate)
	if err != nil {
		log.Debug("task creation rejected by validation",
			slog.String("error", err.Error()),
			slog.String("owner_id", ownerID.String()))
		return nil, err
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		log.Error("failed to persist new task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	log.Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("owner_id", ownerID.String()))
	return task, nil
}

// ListTasks implements TaskService.ListTasks.
func (s *taskServiceImpl) ListTasks(
	ctx context.Context,
	callerID uuid.UUID,
	filter store.TaskFilter,
) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	tasks, err := s.tasks.ListVisibleTo(ctx, callerID, filter)
	if err != nil {
		log.Error("failed to list tasks",
			slog.String("error", err.Error()),
			slog.String("caller_id", callerID.String()))
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, nil
}

// GetTask implements TaskService.GetTask.
// Forbidden collapses into ErrTaskNotFound: a caller who is neither the
// owner nor a shared member must not learn whether the task exists.
func (s *taskServiceImpl) GetTask(ctx context.Context, callerID, taskID uuid.UUID) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			return nil, ErrTaskNotFound
		}
		log.Error("failed to get task",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()))
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	if !task.IsVisibleTo(callerID) {
		log.Debug("task hidden from caller",
			slog.String("task_id", taskID.String()),
			slog.String("caller_id", callerID.String()))
		return nil, ErrTaskNotFound
	}

	return task, nil
}

// UpdateTask implements TaskService.UpdateTask.
func (s *taskServiceImpl) UpdateTask(
	ctx context.Context,
	callerID, taskID uuid.UUID,
	update TaskUpdate,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := s.loadOwnedTask(ctx, callerID, taskID)
	if err != nil {
		return nil, err
	}

	if update.Title != nil {
		task.Title = *update.Title
	}
	if update.Description != nil {
		task.Description = *update.Description
	}
	if update.DueDate != nil {
		task.DueDate = domain.NormalizeDueDate(*update.DueDate)
	}
	if update.IsCompleted != nil {
		task.IsCompleted = *update.IsCompleted
	}
	task.UpdatedAt = time.Now().UTC()

	if err := task.Validate(); err != nil {
		log.Debug("task update rejected by validation",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()))
		return nil, err
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			return nil, ErrTaskNotFound
		}
		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()))
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	log.Info("task updated", slog.String("task_id", taskID.String()))
	return task, nil
}

// DeleteTask implements TaskService.DeleteTask.
func (s *taskServiceImpl) DeleteTask(ctx context.Context, callerID, taskID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if _, err := s.loadOwnedTask(ctx, callerID, taskID); err != nil {
		return err
	}

	if err := s.tasks.Delete(ctx, taskID); err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			return ErrTaskNotFound
		}
		log.Error("failed to delete task",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()))
		return fmt.Errorf("failed to delete task: %w", err)
	}

	log.Info("task deleted",
		slog.String("task_id", taskID.String()),
		slog.String("caller_id", callerID.String()))
	return nil
}

// CompleteTask implements TaskService.CompleteTask.
func (s *taskServiceImpl) CompleteTask(ctx context.Context, callerID, taskID uuid.UUID) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := s.loadOwnedTask(ctx, callerID, taskID)
	if err != nil {
		return nil, err
	}

	if task.IsCompleted {
		// Already completed; succeed without touching the store.
		return task, nil
	}

	task.IsCompleted = true
	task.UpdatedAt = time.Now().UTC()

	if err := s.tasks.Update(ctx, task); err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			return nil, ErrTaskNotFound
		}
		log.Error("failed to complete task",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()))
		return nil, fmt.Errorf("failed to complete task: %w", err)
	}

	log.Info("task completed", slog.String("task_id", taskID.String()))
	return task, nil
}

// ShareTask implements TaskService.ShareTask.
// Target resolution and the share insert run in one transaction, so a user
// deleted between the lookup and the insert cannot leave a dangling share.
func (s *taskServiceImpl) ShareTask(
	ctx context.Context,
	callerID, taskID uuid.UUID,
	target ShareTarget,
) (*domain.Task, *domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := s.loadOwnedTask(ctx, callerID, taskID)
	if err != nil {
		return nil, nil, err
	}

	var targetUser *domain.User
	err = s.txRunner(ctx, func(ctx context.Context, tx *sql.Tx) error {
		users := s.users.WithTx(tx)
		tasks := s.tasks.WithTx(tx)

		var err error
		targetUser, err = resolveShareTarget(ctx, users, target)
		if err != nil {
			return err
		}

		// Sharing with the owner is a no-op: ownership already grants
		// full access.
		if targetUser.ID == task.OwnerID {
			return nil
		}

		return tasks.AddShare(ctx, taskID, targetUser.ID)
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidShareTarget), errors.Is(err, ErrShareTargetNotFound):
			return nil, nil, err
		case errors.Is(err, store.ErrTaskNotFound):
			return nil, nil, ErrTaskNotFound
		case errors.Is(err, store.ErrUserNotFound):
			return nil, nil, ErrShareTargetNotFound
		}
		log.Error("failed to share task",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()))
		return nil, nil, fmt.Errorf("failed to share task: %w", err)
	}

	if targetUser.ID == task.OwnerID {
		log.Debug("share with owner ignored",
			slog.String("task_id", taskID.String()))
		return task, targetUser, nil
	}

	task.AddShare(targetUser.ID)

	log.Info("task shared",
		slog.String("task_id", taskID.String()),
		slog.String("target_user_id", targetUser.ID.String()))
	return task, targetUser, nil
}

// loadOwnedTask fetches a task and verifies the caller owns it.
// Returns ErrTaskNotFound when the task does not exist and ErrNotTaskOwner
// when it exists but belongs to someone else.
func (s *taskServiceImpl) loadOwnedTask(ctx context.Context, callerID, taskID uuid.UUID) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	if !task.IsOwnedBy(callerID) {
		return nil, ErrNotTaskOwner
	}

	return task, nil
}

// resolveShareTarget resolves a ShareTarget to a user, trying the ID first
// and falling back to the email. Returns ErrInvalidShareTarget when neither
// identifier is supplied and ErrShareTargetNotFound when resolution fails.
func resolveShareTarget(ctx context.Context, users store.UserStore, target ShareTarget) (*domain.User, error) {
	switch {
	case target.UserID != nil && *target.UserID != uuid.Nil:
		user, err := users.GetByID(ctx, *target.UserID)
		if err != nil {
			if errors.Is(err, store.ErrUserNotFound) {
				return nil, ErrShareTargetNotFound
			}
			return nil, fmt.Errorf("failed to resolve share target by ID: %w", err)
		}
		return user, nil

	case target.Email != "":
		user, err := users.GetByEmail(ctx, target.Email)
		if err != nil {
			if errors.Is(err, store.ErrUserNotFound) {
				return nil, ErrShareTargetNotFound
			}
			return nil, fmt.Errorf("failed to resolve share target by email: %w", err)
		}
		return user, nil

	default:
		return nil, ErrInvalidShareTarget
	}
}
