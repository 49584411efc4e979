package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskshare-api/internal/domain"
)

// dueDateLayout is the wire format for task due dates.
const dueDateLayout = "2006-01-02"

// RegisterRequest represents the registration request payload.
// Email is optional; accounts without one simply receive no reminders.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,max=150"`
	Email    string `json:"email"    validate:"omitempty,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest represents the login request payload.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse represents the authentication response payload.
type AuthResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	UserID       uuid.UUID `json:"user_id"`
}

// RefreshTokenRequest represents the token refresh request payload.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshTokenResponse represents the token refresh response payload.
type RefreshTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// CreateTaskRequest represents the task creation request payload.
// DueDate uses the YYYY-MM-DD calendar date format.
type CreateTaskRequest struct {
	Title       string `json:"title"       validate:"required"`
	Description string `json:"description"`
	DueDate     string `json:"due_date"    validate:"required"`
}

// UpdateTaskRequest represents the task update request payload. Nil fields
// are left unchanged; the zero value of a present field is applied as-is.
type UpdateTaskRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	DueDate     *string `json:"due_date,omitempty"`
	IsCompleted *bool   `json:"is_completed,omitempty"`
}

// ShareTaskRequest represents the share request payload. The target may be
// named by user ID or by email; the ID wins when both are present.
type ShareTaskRequest struct {
	UserID *uuid.UUID `json:"user_id,omitempty"`
	Email  string     `json:"email,omitempty"`
}

// UserSummary is the public projection of a user embedded in responses.
type UserSummary struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email,omitempty"`
}

// TaskResponse represents a task in API responses.
type TaskResponse struct {
	ID          uuid.UUID   `json:"id"`
	OwnerID     uuid.UUID   `json:"owner_id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	DueDate     string      `json:"due_date"`
	IsCompleted bool        `json:"is_completed"`
	SharedWith  []uuid.UUID `json:"shared_with"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// TaskListResponse represents a list of tasks in API responses.
type TaskListResponse struct {
	Tasks []TaskResponse `json:"tasks"`
}

// ShareTaskResponse represents the result of sharing a task: the updated
// task plus the user it was shared with.
type ShareTaskResponse struct {
	Task       TaskResponse `json:"task"`
	SharedWith UserSummary  `json:"shared_with_user"`
}

// newTaskResponse maps a domain task to its API representation.
func newTaskResponse(task *domain.Task) TaskResponse {
	shared := task.SharedWith
	if shared == nil {
		shared = []uuid.UUID{}
	}
	return TaskResponse{
		ID:          task.ID,
		OwnerID:     task.OwnerID,
		Title:       task.Title,
		Description: task.Description,
		DueDate:     task.DueDate.Format(dueDateLayout),
		IsCompleted: task.IsCompleted,
		SharedWith:  shared,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

// newUserSummary maps a domain user to its public projection.
func newUserSummary(user *domain.User) UserSummary {
	return UserSummary{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	}
}
