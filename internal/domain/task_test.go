package domain_test

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskshare-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTask(t *testing.T) {
	t.Parallel()

	ownerID := uuid.New()
	dueDate := time.Date(2025, 6, 15, 14, 30, 0, 0, time.FixedZone("CEST", 2*3600))

	t.Run("valid task", func(t *testing.T) {
		t.Parallel()

		task, err := domain.NewTask(ownerID, "Write report", "Quarterly numbers", dueDate)
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, task.ID)
		assert.Equal(t, ownerID, task.OwnerID)
		assert.Equal(t, "Write report", task.Title)
		assert.Equal(t, "Quarterly numbers", task.Description)
		assert.False(t, task.IsCompleted)
		assert.Empty(t, task.SharedWith)
		assert.False(t, task.CreatedAt.IsZero())
	})

	t.Run("due date is normalized to a calendar date", func(t *testing.T) {
		t.Parallel()

		task, err := domain.NewTask(ownerID, "Title", "", dueDate)
		require.NoError(t, err)

		assert.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), task.DueDate)
	})

	t.Run("empty description is allowed", func(t *testing.T) {
		t.Parallel()

		task, err := domain.NewTask(ownerID, "Title", "", dueDate)
		require.NoError(t, err)
		assert.Empty(t, task.Description)
	})

	t.Run("due date in the past is allowed", func(t *testing.T) {
		t.Parallel()

		_, err := domain.NewTask(ownerID, "Title", "", time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC))
		assert.NoError(t, err)
	})

	t.Run("empty title", func(t *testing.T) {
		t.Parallel()

		_, err := domain.NewTask(ownerID, "", "", dueDate)
		assert.ErrorIs(t, err, domain.ErrEmptyTaskTitle)
	})

	t.Run("missing owner", func(t *testing.T) {
		t.Parallel()

		_, err := domain.NewTask(uuid.Nil, "Title", "", dueDate)
		assert.ErrorIs(t, err, domain.ErrEmptyTaskOwnerID)
	})

	t.Run("zero due date", func(t *testing.T) {
		t.Parallel()

		_, err := domain.NewTask(ownerID, "Title", "", time.Time{})
		assert.ErrorIs(t, err, domain.ErrEmptyTaskDueDate)
	})
}

func TestTaskTitleLength(t *testing.T) {
	t.Parallel()

	ownerID := uuid.New()
	dueDate := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	t.Run("title at the limit is accepted", func(t *testing.T) {
		t.Parallel()

		_, err := domain.NewTask(ownerID, strings.Repeat("a", 255), "", dueDate)
		assert.NoError(t, err)
	})

	t.Run("title over the limit is rejected", func(t *testing.T) {
		t.Parallel()

		_, err := domain.NewTask(ownerID, strings.Repeat("a", 256), "", dueDate)
		assert.ErrorIs(t, err, domain.ErrTaskTitleTooLong)
	})

	t.Run("length counts UTF-16 code units, not bytes", func(t *testing.T) {
		t.Parallel()

		// 255 two-byte runes, one UTF-16 code unit each
		_, err := domain.NewTask(ownerID, strings.Repeat("é", 255), "", dueDate)
		assert.NoError(t, err)

		// Astral-plane runes take two UTF-16 code units each
		_, err = domain.NewTask(ownerID, strings.Repeat("😀", 128), "", dueDate)
		assert.ErrorIs(t, err, domain.ErrTaskTitleTooLong)
	})
}

func TestTaskVisibility(t *testing.T) {
	t.Parallel()

	ownerID := uuid.New()
	sharedID := uuid.New()
	strangerID := uuid.New()

	task, err := domain.NewTask(ownerID, "Title", "", time.Now())
	require.NoError(t, err)
	task.AddShare(sharedID)

	assert.True(t, task.IsOwnedBy(ownerID))
	assert.False(t, task.IsOwnedBy(sharedID))

	assert.True(t, task.IsSharedWith(sharedID))
	assert.False(t, task.IsSharedWith(ownerID))

	assert.True(t, task.IsVisibleTo(ownerID))
	assert.True(t, task.IsVisibleTo(sharedID))
	assert.False(t, task.IsVisibleTo(strangerID))
}

func TestTaskAddShare(t *testing.T) {
	t.Parallel()

	ownerID := uuid.New()
	userID := uuid.New()

	task, err := domain.NewTask(ownerID, "Title", "", time.Now())
	require.NoError(t, err)

	t.Run("adds a new member", func(t *testing.T) {
		assert.True(t, task.AddShare(userID))
		assert.Equal(t, []uuid.UUID{userID}, task.SharedWith)
	})

	t.Run("duplicate share is a no-op", func(t *testing.T) {
		assert.False(t, task.AddShare(userID))
		assert.Len(t, task.SharedWith, 1)
	})

	t.Run("sharing with the owner is a no-op", func(t *testing.T) {
		assert.False(t, task.AddShare(ownerID))
		assert.Len(t, task.SharedWith, 1)
	})
}

func TestTaskStatusLabel(t *testing.T) {
	t.Parallel()

	task, err := domain.NewTask(uuid.New(), "Title", "", time.Now())
	require.NoError(t, err)

	assert.Equal(t, "Pending", task.StatusLabel())

	task.IsCompleted = true
	assert.Equal(t, "Completed", task.StatusLabel())
}

func TestNormalizeDueDate(t *testing.T) {
	t.Parallel()

	// A late evening in a west-of-UTC zone still normalizes to that zone's
	// calendar date.
	loc := time.FixedZone("PST", -8*3600)
	ts := time.Date(2025, 3, 1, 23, 45, 0, 0, loc)

	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), domain.NormalizeDueDate(ts))
}
