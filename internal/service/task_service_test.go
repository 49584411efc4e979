package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskshare-api/internal/domain"
	"github.com/phrazzld/taskshare-api/internal/mocks"
	"github.com/phrazzld/taskshare-api/internal/service"
	"github.com/phrazzld/taskshare-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type serviceFixture struct {
	tasks   *mocks.MockTaskStore
	users   *mocks.MockUserStore
	txCalls int
	service service.TaskService
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	f := &serviceFixture{
		tasks: mocks.NewMockTaskStore(),
		users: mocks.NewMockUserStore(),
	}

	// The mocks have no real transactions; running the function directly
	// still exercises the service's transactional path.
	txRunner := func(ctx context.Context, fn store.TxFn) error {
		f.txCalls++
		return fn(ctx, nil)
	}

	f.service = service.NewTaskService(f.tasks, f.users, txRunner, testLogger())
	return f
}

func (f *serviceFixture) addUser(t *testing.T, username, email string) *domain.User {
	t.Helper()

	user := &domain.User{
		ID:             uuid.New(),
		Username:       username,
		Email:          email,
		HashedPassword: "hashed",
	}
	f.users.AddUser(user)
	f.tasks.KnownUsers[user.ID] = true
	return user
}

func (f *serviceFixture) addTask(t *testing.T, ownerID uuid.UUID, title string) *domain.Task {
	t.Helper()

	task, err := domain.NewTask(ownerID, title, "", time.Now())
	require.NoError(t, err)
	f.tasks.AddTask(task)
	return task
}

func TestCreateTask(t *testing.T) {
	t.Parallel()

	t.Run("creates an owned task", func(t *testing.T) {
		t.Parallel()
		f := newServiceFixture(t)
		owner := f.addUser(t, "alice", "alice@example.com")

		dueDate := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
		task, err := f.service.CreateTask(context.Background(), owner.ID, "Write report", "Numbers", dueDate)
		require.NoError(t, err)

		assert.Equal(t, owner.ID, task.OwnerID)
		assert.False(t, task.IsCompleted)
		assert.Contains(t, f.tasks.Tasks, task.ID)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		t.Parallel()
		f := newServiceFixture(t)
		owner := f.addUser(t, "alice", "")

		_, err := f.service.CreateTask(context.Background(), owner.ID, "", "", time.Now())
		assert.ErrorIs(t, err, domain.ErrEmptyTaskTitle)
		assert.Empty(t, f.tasks.Tasks)
	})
}

func TestGetTask(t *testing.T) {
	t.Parallel()

	t.Run("owner can read", func(t *testing.T) {
		t.Parallel()
		f := newServiceFixture(t)
		owner := f.addUser(t, "alice", "")
		task := f.addTask(t, owner.ID, "Mine")

		got, err := f.service.GetTask(context.Background(), owner.ID, task.ID)
		require.NoError(t, err)
		assert.Equal(t, task.ID, got.ID)
	})

	t.Run("shared member can read", func(t *testing.T) {
		t.Parallel()
		f := newServiceFixture(t)
		owner := f.addUser(t, "alice", "")
		member := f.addUser(t, "bob", "")
		task := f.addTask(t, owner.ID, "Shared")
		task.AddShare(member.ID)

		got, err := f.service.GetTask(context.Background(), member.ID, task.ID)
		require.NoError(t, err)
		assert.Equal(t, task.ID, got.ID)
	})

	t.Run("stranger gets not found, not forbidden", func(t *testing.T) {
		t.Parallel()
		f := newServiceFixture(t)
		owner := f.addUser(t, "alice", "")
		stranger := f.addUser(t, "mallory", "")
		task := f.addTask(t, owner.ID, "Private")

		_, err := f.service.GetTask(context.Background(), stranger.ID, task.ID)
		assert.ErrorIs(t, err, service.ErrTaskNotFound)
	})

	t.Run("missing task", func(t *testing.T) {
		t.Parallel()
		f := newServiceFixture(t)
		caller := f.addUser(t, "alice", "")

		_, err := f.service.GetTask(context.Background(), caller.ID, uuid.New())
		assert.ErrorIs(t, err, service.ErrTaskNotFound)
	})
}

func TestListTasks(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	owner := f.addUser(t, "alice", "")
	member := f.addUser(t, "bob", "")

	owned := f.addTask(t, owner.ID, "Owned")
	shared := f.addTask(t, member.ID, "Shared with alice")
	shared.AddShare(owner.ID)
	f.addTask(t, member.ID, "Invisible to alice")

	tasks, err := f.service.ListTasks(context.Background(), owner.ID, store.TaskFilter{})
	require.NoError(t, err)

	ids := make([]uuid.UUID, 0, len(tasks))
	for _, task := range tasks {
		ids = append(ids, task.ID)
	}
	assert.ElementsMatch(t, []uuid.UUID{owned.ID, shared.ID}, ids)
}

func TestUpdateTask(t *testing.T) {
	t.Parallel()

	t.Run("applies only the given fields", func(t *testing.T) {
		t.Parallel()
		f := newServiceFixture(t)
		owner := f.addUser(t, "alice", "")
		task := f.addTask(t, owner.ID, "Original")

		newTitle := "Renamed"
		updated, err := f.service.UpdateTask(context.Background(), owner.ID, task.ID, service.TaskUpdate{
			Title: &newTitle,
		})
		require.NoError(t, err)

		assert.Equal(t, "Renamed", updated.Title)
		assert.Equal(t, task.Description, updated.Description)
		assert.Equal(t, task.DueDate, updated.DueDate)
	})

	t.Run("shared member cannot update", func(t *testing.T) {
		t.Parallel()
		f := newServiceFixture(t)
		owner := f.addUser(t, "alice", "")
		member := f.addUser(t, "bob", "")
		task := f.addTask(t, owner.ID, "Shared")
		task.AddShare(member.ID)

		newTitle := "Hijacked"
		_, err := f.service.UpdateTask(context.Background(), member.ID, task.ID, service.TaskUpdate{
			Title: &newTitle,
		})
		assert.ErrorIs(t, err, service.ErrNotTaskOwner)
	})

	t.Run("rejects an invalid result", func(t *testing.T) {
		t.Parallel()
		f := newServiceFixture(t)
		owner := f.addUser(t, "alice", "")
		task := f.addTask(t, owner.ID, "Valid")

		empty := ""
		_, err := f.service.UpdateTask(context.Background(), owner.ID, task.ID, service.TaskUpdate{
			Title: &empty,
		})
		assert.ErrorIs(t, err, domain.ErrEmptyTaskTitle)
	})
}

func TestDeleteTask(t *testing.T) {
	t.Parallel()

	t.Run("owner can delete", func(t *testing.T) {
		t.Parallel()
		f := newServiceFixture(t)
		owner := f.addUser(t, "alice", "")
		task := f.addTask(t, owner.ID, "Doomed")

		require.NoError(t, f.service.DeleteTask(context.Background(), owner.ID, task.ID))
		assert.NotContains(t, f.tasks.Tasks, task.ID)
	})

	t.Run("non-owner cannot delete", func(t *testing.T) {
		t.Parallel()
		f := newServiceFixture(t)
		owner := f.addUser(t, "alice", "")
		stranger := f.addUser(t, "mallory", "")
		task := f.addTask(t, owner.ID, "Safe")

		err := f.service.DeleteTask(context.Background(), stranger.ID, task.ID)
		assert.ErrorIs(t, err, service.ErrNotTaskOwner)
		assert.Contains(t, f.tasks.Tasks, task.ID)
	})
}

func TestCompleteTask(t *testing.T) {
	t.Parallel()

	t.Run("marks the task completed", func(t *testing.T) {
		t.Parallel()
		f := newServiceFixture(t)
		owner := f.addUser(t, "alice", "")
		task := f.addTask(t, owner.ID, "Todo")

		completed, err := f.service.CompleteTask(context.Background(), owner.ID, task.ID)
		require.NoError(t, err)
		assert.True(t, completed.IsCompleted)
	})

	t.Run("completing twice succeeds without a second write", func(t *testing.T) {
		t.Parallel()
		f := newServiceFixture(t)
		owner := f.addUser(t, "alice", "")
		task := f.addTask(t, owner.ID, "Todo")

		updateCalls := 0
		f.tasks.UpdateFn = func(ctx context.Context, updated *domain.Task) error {
			updateCalls++
			f.tasks.Tasks[updated.ID] = updated
			return nil
		}

		_, err := f.service.CompleteTask(context.Background(), owner.ID, task.ID)
		require.NoError(t, err)

		completed, err := f.service.CompleteTask(context.Background(), owner.ID, task.ID)
		require.NoError(t, err)

		assert.True(t, completed.IsCompleted)
		assert.Equal(t, 1, updateCalls)
	})

	t.Run("shared member cannot complete", func(t *testing.T) {
		t.Parallel()
		f := newServiceFixture(t)
		owner := f.addUser(t, "alice", "")
		member := f.addUser(t, "bob", "")
		task := f.addTask(t, owner.ID, "Shared")
		task.AddShare(member.ID)

		_, err := f.service.CompleteTask(context.Background(), member.ID, task.ID)
		assert.ErrorIs(t, err, service.ErrNotTaskOwner)
	})
}

func TestShareTask(t *testing.T) {
	t.Parallel()

	t.Run("share by user ID", func(t *testing.T) {
		t.Parallel()
		f := newServiceFixture(t)
		owner := f.addUser(t, "alice", "")
		target := f.addUser(t, "bob", "bob@example.com")
		task := f.addTask(t, owner.ID, "Shared")

		updated, resolved, err := f.service.ShareTask(context.Background(), owner.ID, task.ID, service.ShareTarget{
			UserID: &target.ID,
		})
		require.NoError(t, err)

		assert.Equal(t, target.ID, resolved.ID)
		assert.True(t, updated.IsSharedWith(target.ID))
	})

	t.Run("share by email", func(t *testing.T) {
		t.Parallel()
		f := newServiceFixture(t)
		owner := f.addUser(t, "alice", "")
		target := f.addUser(t, "bob", "bob@example.com")
		task := f.addTask(t, owner.ID, "Shared")

		_, resolved, err := f.service.ShareTask(context.Background(), owner.ID, task.ID, service.ShareTarget{
			Email: "bob@example.com",
		})
		require.NoError(t, err)
		assert.Equal(t, target.ID, resolved.ID)
	})

	t.Run("user ID wins when both identifiers are present", func(t *testing.T) {
		t.Parallel()
		f := newServiceFixture(t)
		owner := f.addUser(t, "alice", "")
		byID := f.addUser(t, "bob", "bob@example.com")
		byEmail := f.addUser(t, "carol", "carol@example.com")
		task := f.addTask(t, owner.ID, "Shared")

		_, resolved, err := f.service.ShareTask(context.Background(), owner.ID, task.ID, service.ShareTarget{
			UserID: &byID.ID,
			Email:  byEmail.Email,
		})
		require.NoError(t, err)
		assert.Equal(t, byID.ID, resolved.ID)
	})

	t.Run("neither identifier", func(t *testing.T) {
		t.Parallel()
		f := newServiceFixture(t)
		owner := f.addUser(t, "alice", "")
		task := f.addTask(t, owner.ID, "Shared")

		_, _, err := f.service.ShareTask(context.Background(), owner.ID, task.ID, service.ShareTarget{})
		assert.ErrorIs(t, err, service.ErrInvalidShareTarget)
	})

	t.Run("unknown target", func(t *testing.T) {
		t.Parallel()
		f := newServiceFixture(t)
		owner := f.addUser(t, "alice", "")
		task := f.addTask(t, owner.ID, "Shared")

		_, _, err := f.service.ShareTask(context.Background(), owner.ID, task.ID, service.ShareTarget{
			Email: "ghost@example.com",
		})
		assert.ErrorIs(t, err, service.ErrShareTargetNotFound)
	})

	t.Run("sharing with the owner is a no-op", func(t *testing.T) {
		t.Parallel()
		f := newServiceFixture(t)
		owner := f.addUser(t, "alice", "alice@example.com")
		task := f.addTask(t, owner.ID, "Mine")

		updated, resolved, err := f.service.ShareTask(context.Background(), owner.ID, task.ID, service.ShareTarget{
			UserID: &owner.ID,
		})
		require.NoError(t, err)

		assert.Equal(t, owner.ID, resolved.ID)
		assert.Empty(t, updated.SharedWith)
	})

	t.Run("sharing twice leaves one share", func(t *testing.T) {
		t.Parallel()
		f := newServiceFixture(t)
		owner := f.addUser(t, "alice", "")
		target := f.addUser(t, "bob", "")
		task := f.addTask(t, owner.ID, "Shared")

		for i := 0; i < 2; i++ {
			_, _, err := f.service.ShareTask(context.Background(), owner.ID, task.ID, service.ShareTarget{
				UserID: &target.ID,
			})
			require.NoError(t, err)
		}

		assert.Equal(t, []uuid.UUID{target.ID}, task.SharedWith)
	})

	t.Run("resolution and insert run in one transaction", func(t *testing.T) {
		t.Parallel()
		f := newServiceFixture(t)
		owner := f.addUser(t, "alice", "")
		target := f.addUser(t, "bob", "bob@example.com")
		task := f.addTask(t, owner.ID, "Shared")

		_, _, err := f.service.ShareTask(context.Background(), owner.ID, task.ID, service.ShareTarget{
			Email: "bob@example.com",
		})
		require.NoError(t, err)

		assert.Equal(t, 1, f.txCalls)
		assert.True(t, task.IsSharedWith(target.ID))
	})

	t.Run("a failed insert rolls the share back", func(t *testing.T) {
		t.Parallel()
		f := newServiceFixture(t)
		owner := f.addUser(t, "alice", "")
		target := f.addUser(t, "bob", "")
		task := f.addTask(t, owner.ID, "Shared")

		f.tasks.AddShareFn = func(ctx context.Context, taskID, userID uuid.UUID) error {
			return errors.New("connection reset")
		}

		_, _, err := f.service.ShareTask(context.Background(), owner.ID, task.ID, service.ShareTarget{
			UserID: &target.ID,
		})
		require.Error(t, err)

		assert.Equal(t, 1, f.txCalls)
		assert.Empty(t, task.SharedWith)
	})

	t.Run("only the owner can share", func(t *testing.T) {
		t.Parallel()
		f := newServiceFixture(t)
		owner := f.addUser(t, "alice", "")
		member := f.addUser(t, "bob", "")
		other := f.addUser(t, "carol", "")
		task := f.addTask(t, owner.ID, "Shared")
		task.AddShare(member.ID)

		_, _, err := f.service.ShareTask(context.Background(), member.ID, task.ID, service.ShareTarget{
			UserID: &other.ID,
		})
		assert.ErrorIs(t, err, service.ErrNotTaskOwner)
	})
}
