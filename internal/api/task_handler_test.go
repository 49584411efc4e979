package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/taskshare-api/internal/api"
	"github.com/phrazzld/taskshare-api/internal/api/shared"
	"github.com/phrazzld/taskshare-api/internal/domain"
	"github.com/phrazzld/taskshare-api/internal/mocks"
	"github.com/phrazzld/taskshare-api/internal/service"
	"github.com/phrazzld/taskshare-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// taskAPIFixture wires a real task service over in-memory stores behind the
// task routes, with a middleware standing in for JWT authentication.
type taskAPIFixture struct {
	tasks  *mocks.MockTaskStore
	users  *mocks.MockUserStore
	router chi.Router
}

func newTaskAPIFixture(t *testing.T) *taskAPIFixture {
	t.Helper()

	tasks := mocks.NewMockTaskStore()
	users := mocks.NewMockUserStore()
	txRunner := func(ctx context.Context, fn store.TxFn) error {
		return fn(ctx, nil)
	}
	taskService := service.NewTaskService(tasks, users, txRunner, testLogger())
	handler := api.NewTaskHandler(taskService, testLogger())

	r := chi.NewRouter()
	r.Route("/api/tasks", func(r chi.Router) {
		r.Get("/", handler.List)
		r.Post("/", handler.Create)
		r.Get("/{id}", handler.Get)
		r.Put("/{id}", handler.Update)
		r.Delete("/{id}", handler.Delete)
		r.Patch("/{id}/complete", handler.Complete)
		r.Post("/{id}/share", handler.Share)
	})

	return &taskAPIFixture{tasks: tasks, users: users, router: r}
}

func (f *taskAPIFixture) addUser(t *testing.T, username, email string) *domain.User {
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

func (f *taskAPIFixture) addTask(t *testing.T, ownerID uuid.UUID, title string) *domain.Task {
	t.Helper()

	task, err := domain.NewTask(ownerID, title, "", time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	f.tasks.AddTask(task)
	return task
}

// do performs a request against the fixture router as the given user.
func (f *taskAPIFixture) do(t *testing.T, callerID uuid.UUID, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(context.WithValue(req.Context(), shared.UserIDContextKey, callerID))

	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func TestTaskCreateEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("creates a task", func(t *testing.T) {
		t.Parallel()
		f := newTaskAPIFixture(t)
		owner := f.addUser(t, "alice", "")

		rr := f.do(t, owner.ID, http.MethodPost, "/api/tasks", map[string]string{
			"title":       "Write report",
			"description": "Quarterly numbers",
			"due_date":    "2025-07-01",
		})

		require.Equal(t, http.StatusCreated, rr.Code)

		var resp api.TaskResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, owner.ID, resp.OwnerID)
		assert.Equal(t, "2025-07-01", resp.DueDate)
		assert.False(t, resp.IsCompleted)
		assert.Empty(t, resp.SharedWith)
	})

	t.Run("rejects a malformed due date", func(t *testing.T) {
		t.Parallel()
		f := newTaskAPIFixture(t)
		owner := f.addUser(t, "alice", "")

		rr := f.do(t, owner.ID, http.MethodPost, "/api/tasks", map[string]string{
			"title":    "Bad date",
			"due_date": "01/07/2025",
		})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("rejects a missing title", func(t *testing.T) {
		t.Parallel()
		f := newTaskAPIFixture(t)
		owner := f.addUser(t, "alice", "")

		rr := f.do(t, owner.ID, http.MethodPost, "/api/tasks", map[string]string{
			"due_date": "2025-07-01",
		})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestTaskListEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("lists owned and shared tasks only", func(t *testing.T) {
		t.Parallel()
		f := newTaskAPIFixture(t)
		alice := f.addUser(t, "alice", "")
		bob := f.addUser(t, "bob", "")

		f.addTask(t, alice.ID, "Mine")
		sharedTask := f.addTask(t, bob.ID, "Bob's, shared")
		sharedTask.AddShare(alice.ID)
		f.addTask(t, bob.ID, "Bob's, private")

		rr := f.do(t, alice.ID, http.MethodGet, "/api/tasks", nil)
		require.Equal(t, http.StatusOK, rr.Code)

		var resp api.TaskListResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Len(t, resp.Tasks, 2)
	})

	t.Run("filters by completion and search", func(t *testing.T) {
		t.Parallel()
		f := newTaskAPIFixture(t)
		alice := f.addUser(t, "alice", "")

		done := f.addTask(t, alice.ID, "Groceries")
		done.IsCompleted = true
		f.addTask(t, alice.ID, "Laundry")

		rr := f.do(t, alice.ID, http.MethodGet, "/api/tasks?is_completed=true&search=groc", nil)
		require.Equal(t, http.StatusOK, rr.Code)

		var resp api.TaskListResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		require.Len(t, resp.Tasks, 1)
		assert.Equal(t, done.ID, resp.Tasks[0].ID)
	})

	t.Run("rejects a malformed is_completed", func(t *testing.T) {
		t.Parallel()
		f := newTaskAPIFixture(t)
		alice := f.addUser(t, "alice", "")

		rr := f.do(t, alice.ID, http.MethodGet, "/api/tasks?is_completed=banana", nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestTaskGetEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("stranger gets 404, not 403", func(t *testing.T) {
		t.Parallel()
		f := newTaskAPIFixture(t)
		owner := f.addUser(t, "alice", "")
		stranger := f.addUser(t, "mallory", "")
		task := f.addTask(t, owner.ID, "Private")

		rr := f.do(t, stranger.ID, http.MethodGet, "/api/tasks/"+task.ID.String(), nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("invalid UUID", func(t *testing.T) {
		t.Parallel()
		f := newTaskAPIFixture(t)
		alice := f.addUser(t, "alice", "")

		rr := f.do(t, alice.ID, http.MethodGet, "/api/tasks/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestTaskUpdateEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("partial update", func(t *testing.T) {
		t.Parallel()
		f := newTaskAPIFixture(t)
		owner := f.addUser(t, "alice", "")
		task := f.addTask(t, owner.ID, "Original")

		rr := f.do(t, owner.ID, http.MethodPut, "/api/tasks/"+task.ID.String(), map[string]any{
			"title":    "Renamed",
			"due_date": "2025-08-01",
		})
		require.Equal(t, http.StatusOK, rr.Code)

		var resp api.TaskResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "Renamed", resp.Title)
		assert.Equal(t, "2025-08-01", resp.DueDate)
	})

	t.Run("shared member gets 403", func(t *testing.T) {
		t.Parallel()
		f := newTaskAPIFixture(t)
		owner := f.addUser(t, "alice", "")
		member := f.addUser(t, "bob", "")
		task := f.addTask(t, owner.ID, "Shared")
		task.AddShare(member.ID)

		rr := f.do(t, member.ID, http.MethodPut, "/api/tasks/"+task.ID.String(), map[string]any{
			"title": "Hijacked",
		})
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}

func TestTaskDeleteEndpoint(t *testing.T) {
	t.Parallel()

	f := newTaskAPIFixture(t)
	owner := f.addUser(t, "alice", "")
	task := f.addTask(t, owner.ID, "Doomed")

	rr := f.do(t, owner.ID, http.MethodDelete, "/api/tasks/"+task.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = f.do(t, owner.ID, http.MethodGet, "/api/tasks/"+task.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestTaskCompleteEndpoint(t *testing.T) {
	t.Parallel()

	f := newTaskAPIFixture(t)
	owner := f.addUser(t, "alice", "")
	task := f.addTask(t, owner.ID, "Todo")

	path := fmt.Sprintf("/api/tasks/%s/complete", task.ID)

	for i := 0; i < 2; i++ {
		rr := f.do(t, owner.ID, http.MethodPatch, path, nil)
		require.Equal(t, http.StatusOK, rr.Code, "attempt %d", i+1)

		var resp api.TaskResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.True(t, resp.IsCompleted)
	}
}

func TestTaskShareEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("share by email", func(t *testing.T) {
		t.Parallel()
		f := newTaskAPIFixture(t)
		owner := f.addUser(t, "alice", "")
		target := f.addUser(t, "bob", "bob@example.com")
		task := f.addTask(t, owner.ID, "Shared")

		rr := f.do(t, owner.ID, http.MethodPost, fmt.Sprintf("/api/tasks/%s/share", task.ID), map[string]string{
			"email": "bob@example.com",
		})
		require.Equal(t, http.StatusOK, rr.Code)

		var resp api.ShareTaskResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, target.ID, resp.SharedWith.ID)
		assert.Contains(t, resp.Task.SharedWith, target.ID)
	})

	t.Run("share without a target", func(t *testing.T) {
		t.Parallel()
		f := newTaskAPIFixture(t)
		owner := f.addUser(t, "alice", "")
		task := f.addTask(t, owner.ID, "Shared")

		rr := f.do(t, owner.ID, http.MethodPost, fmt.Sprintf("/api/tasks/%s/share", task.ID), map[string]string{})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("share with an unknown user", func(t *testing.T) {
		t.Parallel()
		f := newTaskAPIFixture(t)
		owner := f.addUser(t, "alice", "")
		task := f.addTask(t, owner.ID, "Shared")

		rr := f.do(t, owner.ID, http.MethodPost, fmt.Sprintf("/api/tasks/%s/share", task.ID), map[string]string{
			"email": "ghost@example.com",
		})
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("non-owner cannot share", func(t *testing.T) {
		t.Parallel()
		f := newTaskAPIFixture(t)
		owner := f.addUser(t, "alice", "")
		member := f.addUser(t, "bob", "bob@example.com")
		task := f.addTask(t, owner.ID, "Shared")
		task.AddShare(member.ID)

		rr := f.do(t, member.ID, http.MethodPost, fmt.Sprintf("/api/tasks/%s/share", task.ID), map[string]string{
			"email": "bob@example.com",
		})
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}
