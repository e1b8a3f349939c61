package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"alertify/internal/domain"
)

func (h *Handler) createTask(c *gin.Context) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, codeInvalidInput, err.Error())
		return
	}

	h.log(c).WithField("title", req.Title).Info("creating task")
	task, err := h.tasks.CreateTask(c.Request.Context(), req.input())
	if err != nil {
		h.fail(c, err)
		return
	}

	respond(c, http.StatusCreated, taskToResponse(*task), "Task created successfully")
}

func (h *Handler) getTask(c *gin.Context) {
	id, ok := pathID(c, "id", "task")
	if !ok {
		return
	}

	task, err := h.tasks.GetTaskByID(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	respond(c, http.StatusOK, taskToResponse(*task), "Task retrieved successfully")
}

// listTasks serves GET /tasks and, with ?status=, the tasks in one status.
func (h *Handler) listTasks(c *gin.Context) {
	var (
		tasks []domain.Task
		err   error
	)
	if status, ok := c.GetQuery("status"); ok {
		tasks, err = h.tasks.GetTasksByStatus(c.Request.Context(), domain.TaskStatus(status))
	} else {
		tasks, err = h.tasks.GetAllTasks(c.Request.Context())
	}
	if err != nil {
		h.fail(c, err)
		return
	}

	respond(c, http.StatusOK, tasksToResponse(tasks), "Tasks retrieved successfully")
}

func (h *Handler) updateTask(c *gin.Context) {
	id, ok := pathID(c, "id", "task")
	if !ok {
		return
	}

	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, codeInvalidInput, err.Error())
		return
	}

	h.log(c).WithField("task_id", id).Info("updating task")
	task, err := h.tasks.UpdateTask(c.Request.Context(), id, req.input())
	if err != nil {
		h.fail(c, err)
		return
	}

	respond(c, http.StatusOK, taskToResponse(*task), "Task updated successfully")
}

func (h *Handler) deleteTask(c *gin.Context) {
	id, ok := pathID(c, "id", "task")
	if !ok {
		return
	}

	h.log(c).WithField("task_id", id).Info("deleting task")
	if err := h.tasks.DeleteTask(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}

	respond(c, http.StatusOK, nil, "Task deleted successfully")
}

func (h *Handler) assignTask(c *gin.Context) {
	taskID, ok := pathID(c, "id", "task")
	if !ok {
		return
	}
	userID, ok := pathID(c, "userId", "user")
	if !ok {
		return
	}

	h.log(c).WithFields(logrus.Fields{"task_id": taskID, "user_id": userID}).Info("assigning task")
	task, err := h.tasks.AssignTaskToUser(c.Request.Context(), taskID, userID)
	if err != nil {
		h.fail(c, err)
		return
	}

	respond(c, http.StatusOK, taskToResponse(*task), "Task assigned successfully")
}
