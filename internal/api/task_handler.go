package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/taskshare-api/internal/api/middleware"
	"github.com/phrazzld/taskshare-api/internal/api/shared"
	"github.com/phrazzld/taskshare-api/internal/domain"
	"github.com/phrazzld/taskshare-api/internal/service"
	"github.com/phrazzld/taskshare-api/internal/store"
)

// TaskHandler handles task CRUD, completion, and sharing requests.
// Authentication happens upstream in the auth middleware; every handler
// reads the caller's user ID from the request context.
type TaskHandler struct {
	taskService service.TaskService
	logger      *slog.Logger
}

// NewTaskHandler creates a new TaskHandler with the given dependencies.
func NewTaskHandler(taskService service.TaskService, logger *slog.Logger) *TaskHandler {
	if taskService == nil {
		panic("taskService cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &TaskHandler{
		taskService: taskService,
		logger:      logger.With(slog.String("component", "task_handler")),
	}
}

// Create handles POST /api/tasks.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req CreateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	dueDate, err := time.Parse(dueDateLayout, req.DueDate)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid due_date, expected YYYY-MM-DD")
		return
	}

	task, err := h.taskService.CreateTask(r.Context(), callerID, req.Title, req.Description, dueDate)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, newTaskResponse(task))
}

// List handles GET /api/tasks. Supported query parameters:
//
//	is_completed=true|false  filter by completion state
//	due_date=YYYY-MM-DD      filter by exact due date
//	search=<text>            case-insensitive title substring match
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	filter, err := parseTaskFilter(r)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	tasks, err := h.taskService.ListTasks(r.Context(), callerID, filter)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	responses := make([]TaskResponse, 0, len(tasks))
	for _, task := range tasks {
		responses = append(responses, newTaskResponse(task))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TaskListResponse{Tasks: responses})
}

// Get handles GET /api/tasks/{id}.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	taskID, ok := h.taskIDFromURL(w, r)
	if !ok {
		return
	}

	task, err := h.taskService.GetTask(r.Context(), callerID, taskID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, newTaskResponse(task))
}

// Update handles PUT /api/tasks/{id}.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	taskID, ok := h.taskIDFromURL(w, r)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	update := service.TaskUpdate{
		Title:       req.Title,
		Description: req.Description,
		IsCompleted: req.IsCompleted,
	}
	if req.DueDate != nil {
		dueDate, err := time.Parse(dueDateLayout, *req.DueDate)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid due_date, expected YYYY-MM-DD")
			return
		}
		update.DueDate = &dueDate
	}

	task, err := h.taskService.UpdateTask(r.Context(), callerID, taskID, update)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, newTaskResponse(task))
}

// Delete handles DELETE /api/tasks/{id}.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	taskID, ok := h.taskIDFromURL(w, r)
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(r.Context(), callerID, taskID); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Complete handles PATCH /api/tasks/{id}/complete. Completing an already
// completed task returns 200 with the unchanged task.
func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	taskID, ok := h.taskIDFromURL(w, r)
	if !ok {
		return
	}

	task, err := h.taskService.CompleteTask(r.Context(), callerID, taskID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, newTaskResponse(task))
}

// Share handles POST /api/tasks/{id}/share.
func (h *TaskHandler) Share(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	taskID, ok := h.taskIDFromURL(w, r)
	if !ok {
		return
	}

	var req ShareTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	task, targetUser, err := h.taskService.ShareTask(r.Context(), callerID, taskID, service.ShareTarget{
		UserID: req.UserID,
		Email:  req.Email,
	})
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, ShareTaskResponse{
		Task:       newTaskResponse(task),
		SharedWith: newUserSummary(targetUser),
	})
}

// taskIDFromURL parses the {id} URL parameter, writing a 400 response and
// returning false when it is not a valid UUID.
func (h *TaskHandler) taskIDFromURL(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "id")
	taskID, err := uuid.Parse(raw)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID")
		return uuid.Nil, false
	}
	return taskID, true
}

// parseTaskFilter builds a store filter from list query parameters.
func parseTaskFilter(r *http.Request) (store.TaskFilter, error) {
	var filter store.TaskFilter
	query := r.URL.Query()

	if raw := query.Get("is_completed"); raw != "" {
		isCompleted, err := strconv.ParseBool(raw)
		if err != nil {
			return store.TaskFilter{}, errInvalidQueryParam("is_completed", "expected true or false")
		}
		filter.IsCompleted = &isCompleted
	}

	if raw := query.Get("due_date"); raw != "" {
		dueDate, err := time.Parse(dueDateLayout, raw)
		if err != nil {
			return store.TaskFilter{}, errInvalidQueryParam("due_date", "expected YYYY-MM-DD")
		}
		normalized := domain.NormalizeDueDate(dueDate)
		filter.DueDate = &normalized
	}

	filter.TitleContains = query.Get("search")

	return filter, nil
}
