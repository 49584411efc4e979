package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/taskshare-api/internal/domain"
	"github.com/phrazzld/taskshare-api/internal/platform/logger"
	"github.com/phrazzld/taskshare-api/internal/store"
)

// Foreign key constraint names from the task_shares table schema.
const (
	taskSharesTaskFKConstraint = "task_shares_task_id_fkey"
	taskSharesUserFKConstraint = "task_shares_user_id_fkey"
)

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend. Share relationships
// are kept in an explicit task_shares join table; adds are idempotent via
// ON CONFLICT DO NOTHING and removal rides on ON DELETE CASCADE.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the TaskStore interface.
// It accepts a database connection or transaction that should be initialized and
// managed by the caller. If logger is nil, a default logger will be used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// Create implements store.TaskStore.Create
// It saves a new task to the database, handling domain validation.
// Returns store.ErrInvalidEntity if the owner ID doesn't exist (foreign key violation).
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	query := `
		INSERT INTO tasks (id, owner_id, title, description, due_date, is_completed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		task.ID,
		task.OwnerID,
		task.Title,
		task.Description,
		task.DueDate,
		task.IsCompleted,
		task.CreatedAt,
		task.UpdatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolationCode {
			log.Warn("foreign key violation during task creation",
				slog.String("error", err.Error()),
				slog.String("task_id", task.ID.String()),
				slog.String("owner_id", task.OwnerID.String()))
			return fmt.Errorf("%w: owner with ID %s not found",
				store.ErrInvalidEntity, task.OwnerID)
		}

		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()),
			slog.String("owner_id", task.OwnerID.String()))
		return err
	}

	log.Info("task created successfully",
		slog.String("task_id", task.ID.String()),
		slog.String("owner_id", task.OwnerID.String()))
	return nil
}

// GetByID implements store.TaskStore.GetByID
// It retrieves a task by its unique ID with the share set populated.
// Returns store.ErrTaskNotFound if the task does not exist.
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, owner_id, title, description, due_date, is_completed, created_at, updated_at
		FROM tasks
		WHERE id = $1
	`

	var task domain.Task
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&task.ID,
		&task.OwnerID,
		&task.Title,
		&task.Description,
		&task.DueDate,
		&task.IsCompleted,
		&task.CreatedAt,
		&task.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not found", slog.String("task_id", id.String()))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task by ID",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, err
	}

	if err := s.loadShares(ctx, &task); err != nil {
		return nil, err
	}

	return &task, nil
}

// Update implements store.TaskStore.Update
// It persists the task's mutable fields. OwnerID and CreatedAt are never written.
// Returns store.ErrTaskNotFound if the task does not exist.
func (s *PostgresTaskStore) Update(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during update",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	query := `
		UPDATE tasks
		SET title = $1, description = $2, due_date = $3, is_completed = $4, updated_at = $5
		WHERE id = $6
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		task.Title,
		task.Description,
		task.DueDate,
		task.IsCompleted,
		task.UpdatedAt,
		task.ID,
	)

	if err != nil {
		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	if err := CheckRowsAffected(result, "task"); err != nil {
		log.Debug("task not found for update",
			slog.String("task_id", task.ID.String()))
		return store.ErrTaskNotFound
	}

	log.Info("task updated successfully",
		slog.String("task_id", task.ID.String()))
	return nil
}

// Delete implements store.TaskStore.Delete
// It removes a task from the store by its ID. Share rows are removed by the
// database's ON DELETE CASCADE constraint on task_shares.
// Returns store.ErrTaskNotFound if the task does not exist.
func (s *PostgresTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return err
	}

	if err := CheckRowsAffected(result, "task"); err != nil {
		log.Debug("task not found for delete", slog.String("task_id", id.String()))
		return store.ErrTaskNotFound
	}

	log.Info("task deleted successfully", slog.String("task_id", id.String()))
	return nil
}

// ListVisibleTo implements store.TaskStore.ListVisibleTo
// It retrieves tasks owned by or shared with the given user, narrowed by the
// filter, ordered by creation time (newest first) with ID as a tiebreaker.
func (s *PostgresTaskStore) ListVisibleTo(
	ctx context.Context,
	userID uuid.UUID,
	filter store.TaskFilter,
) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var sb strings.Builder
	sb.WriteString(`
		SELECT DISTINCT t.id, t.owner_id, t.title, t.description, t.due_date,
			t.is_completed, t.created_at, t.updated_at
		FROM tasks t
		LEFT JOIN task_shares s ON s.task_id = t.id
		WHERE (t.owner_id = $1 OR s.user_id = $1)
	`)

	args := []any{userID}

	if filter.IsCompleted != nil {
		args = append(args, *filter.IsCompleted)
		fmt.Fprintf(&sb, " AND t.is_completed = $%d", len(args))
	}

	if filter.DueDate != nil {
		args = append(args, domain.NormalizeDueDate(*filter.DueDate))
		fmt.Fprintf(&sb, " AND t.due_date = $%d", len(args))
	}

	if filter.TitleContains != "" {
		args = append(args, "%"+escapeLikePattern(filter.TitleContains)+"%")
		fmt.Fprintf(&sb, " AND t.title ILIKE $%d", len(args))
	}

	sb.WriteString(" ORDER BY t.created_at DESC, t.id")

	tasks, err := s.queryTasks(ctx, sb.String(), args...)
	if err != nil {
		log.Error("failed to list visible tasks",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, err
	}

	for _, task := range tasks {
		if err := s.loadShares(ctx, task); err != nil {
			return nil, err
		}
	}

	log.Debug("listed visible tasks",
		slog.String("user_id", userID.String()),
		slog.Int("count", len(tasks)))
	return tasks, nil
}

// FindDueIncomplete implements store.TaskStore.FindDueIncomplete
// It retrieves all incomplete tasks due on the given calendar date with
// share sets populated, ordered by creation time.
func (s *PostgresTaskStore) FindDueIncomplete(
	ctx context.Context,
	dueDate time.Time,
) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, owner_id, title, description, due_date, is_completed, created_at, updated_at
		FROM tasks
		WHERE due_date = $1 AND NOT is_completed
		ORDER BY created_at, id
	`

	tasks, err := s.queryTasks(ctx, query, domain.NormalizeDueDate(dueDate))
	if err != nil {
		log.Error("failed to find due tasks",
			slog.String("error", err.Error()),
			slog.Time("due_date", dueDate))
		return nil, err
	}

	for _, task := range tasks {
		if err := s.loadShares(ctx, task); err != nil {
			return nil, err
		}
	}

	log.Debug("found due incomplete tasks",
		slog.Time("due_date", dueDate),
		slog.Int("count", len(tasks)))
	return tasks, nil
}

// AddShare implements store.TaskStore.AddShare
// It records a share relationship idempotently: re-sharing with the same user
// succeeds without effect.
// Returns store.ErrTaskNotFound or store.ErrUserNotFound on dangling references.
func (s *PostgresTaskStore) AddShare(ctx context.Context, taskID, userID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO task_shares (task_id, user_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (task_id, user_id) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query, taskID, userID, time.Now().UTC())

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolationCode {
			switch pgErr.ConstraintName {
			case taskSharesTaskFKConstraint:
				log.Debug("task not found for share",
					slog.String("task_id", taskID.String()))
				return store.ErrTaskNotFound
			case taskSharesUserFKConstraint:
				log.Debug("user not found for share",
					slog.String("user_id", userID.String()))
				return store.ErrUserNotFound
			}
		}

		log.Error("failed to add task share",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()),
			slog.String("user_id", userID.String()))
		return err
	}

	log.Info("task share recorded",
		slog.String("task_id", taskID.String()),
		slog.String("user_id", userID.String()))
	return nil
}

// WithTx implements store.TaskStore.WithTx
// It returns a new TaskStore instance that uses the provided transaction.
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &PostgresTaskStore{
		db:     tx,
		logger: s.logger,
	}
}

// queryTasks runs a query returning full task rows and scans them.
// Share sets are not populated here.
func (s *PostgresTaskStore) queryTasks(ctx context.Context, query string, args ...any) ([]*domain.Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	tasks := make([]*domain.Task, 0)
	for rows.Next() {
		var task domain.Task
		if err := rows.Scan(
			&task.ID,
			&task.OwnerID,
			&task.Title,
			&task.Description,
			&task.DueDate,
			&task.IsCompleted,
			&task.CreatedAt,
			&task.UpdatedAt,
		); err != nil {
			return nil, err
		}
		tasks = append(tasks, &task)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tasks, nil
}

// loadShares populates the task's SharedWith set, ordered by when each share
// was granted so recipient ordering is deterministic.
func (s *PostgresTaskStore) loadShares(ctx context.Context, task *domain.Task) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id
		FROM task_shares
		WHERE task_id = $1
		ORDER BY created_at, user_id
	`, task.ID)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	task.SharedWith = nil
	for rows.Next() {
		var userID uuid.UUID
		if err := rows.Scan(&userID); err != nil {
			return err
		}
		task.SharedWith = append(task.SharedWith, userID)
	}

	return rows.Err()
}

// escapeLikePattern escapes LIKE wildcards in user-supplied search text so a
// title filter matches literally.
func escapeLikePattern(text string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(text)
}
