package http

import "alertify/internal/domain"

type userRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r userRequest) input() domain.UserInput {
	return domain.UserInput{Username: r.Username, Email: r.Email, Password: r.Password}
}

// UserResponse never carries password data.
type UserResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type UserWithTasksResponse struct {
	UserResponse
	Tasks []TaskResponse `json:"tasks"`
}

type taskRequest struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Priority    domain.TaskPriority `json:"priority"`
	Status      domain.TaskStatus   `json:"status"`
	DueDate     *domain.Date        `json:"dueDate"`
	UserID      *int64              `json:"userId"`
}

func (r taskRequest) input() domain.TaskInput {
	return domain.TaskInput{
		Title:       r.Title,
		Description: r.Description,
		Priority:    r.Priority,
		Status:      r.Status,
		DueDate:     r.DueDate,
		UserID:      r.UserID,
	}
}

type TaskResponse struct {
	ID          int64               `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Priority    domain.TaskPriority `json:"priority"`
	Status      domain.TaskStatus   `json:"status"`
	DueDate     *domain.Date        `json:"dueDate"`
	UserID      int64               `json:"userId"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"tokenType"`
	ExpiresIn int64  `json:"expiresIn"`
}

func userToResponse(user domain.User) UserResponse {
	return UserResponse{ID: user.ID, Username: user.Username, Email: user.Email}
}

func usersToResponse(users []domain.User) []UserResponse {
	resp := make([]UserResponse, len(users))
	for i := range users {
		resp[i] = userToResponse(users[i])
	}
	return resp
}

func taskToResponse(task domain.Task) TaskResponse {
	return TaskResponse{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Priority:    task.Priority,
		Status:      task.Status,
		DueDate:     task.DueDate,
		UserID:      task.UserID,
	}
}

func tasksToResponse(tasks []domain.Task) []TaskResponse {
	resp := make([]TaskResponse, len(tasks))
	for i := range tasks {
		resp[i] = taskToResponse(tasks[i])
	}
	return resp
}
