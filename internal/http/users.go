package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) createUser(c *gin.Context) {
	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, codeInvalidInput, err.Error())
		return
	}

	h.log(c).WithField("username", req.Username).Info("creating user")
	user, err := h.users.CreateUser(c.Request.Context(), req.input())
	if err != nil {
		h.fail(c, err)
		return
	}

	respond(c, http.StatusCreated, userToResponse(*user), "User created successfully")
}

func (h *Handler) getUser(c *gin.Context) {
	id, ok := pathID(c, "id", "user")
	if !ok {
		return
	}

	user, err := h.users.GetUserByID(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	respond(c, http.StatusOK, userToResponse(*user), "User retrieved successfully")
}

func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.users.GetAllUsers(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	respond(c, http.StatusOK, usersToResponse(users), "Users retrieved successfully")
}

func (h *Handler) listUsersWithTasks(c *gin.Context) {
	result, err := h.users.GetUsersWithTasks(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := make([]UserWithTasksResponse, len(result))
	for i := range result {
		resp[i] = UserWithTasksResponse{
			UserResponse: userToResponse(result[i].User),
			Tasks:        tasksToResponse(result[i].Tasks),
		}
	}
	respond(c, http.StatusOK, resp, "Users with tasks retrieved successfully")
}

func (h *Handler) listUserTasks(c *gin.Context) {
	id, ok := pathID(c, "id", "user")
	if !ok {
		return
	}

	tasks, err := h.tasks.GetTasksByUser(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	respond(c, http.StatusOK, tasksToResponse(tasks), "Tasks retrieved successfully")
}

func (h *Handler) updateUser(c *gin.Context) {
	id, ok := pathID(c, "id", "user")
	if !ok {
		return
	}

	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, codeInvalidInput, err.Error())
		return
	}

	h.log(c).WithField("user_id", id).Info("updating user")
	user, err := h.users.UpdateUser(c.Request.Context(), id, req.input())
	if err != nil {
		h.fail(c, err)
		return
	}

	respond(c, http.StatusOK, userToResponse(*user), "User updated successfully")
}

func (h *Handler) deleteUser(c *gin.Context) {
	id, ok := pathID(c, "id", "user")
	if !ok {
		return
	}

	h.log(c).WithField("user_id", id).Info("deleting user")
	if err := h.users.DeleteUser(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}

	respond(c, http.StatusOK, nil, "User deleted successfully")
}
