package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"task_manager/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
)

type listTasksQuery struct {
	Page   string `form:"page"`
	Limit  string `form:"limit"`
	Status string `form:"status"`
	Search string `form:"search"`
}

type createTaskRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Status      string  `json:"status"`
	Priority    string  `json:"priority"`
	DueDate     *string `json:"dueDate"`
}

type updateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Priority    *string `json:"priority"`
	DueDate     *string `json:"dueDate"`
}

// GET /tasks
func (h *Handler) ListTasks(c *gin.Context) {
	const op = "handler.ListTasks"

	log := h.log.With(slog.String("op", op))

	userID, ok := userIDFromContext(c)
	if !ok {
		newErrorResponse(c, http.StatusUnauthorized, "Unauthorized")

		return
	}

	var q listTasksQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "invalid query")

		return
	}

	page, err := h.serviceLayer.ListTasks(c.Request.Context(), userID, service.ListQuery{
		Page:   atoiOrZero(q.Page),
		Limit:  atoiOrZero(q.Limit),
		Status: q.Status,
		Search: q.Search,
	})
	if err != nil {
		respondError(c, log, err)

		return
	}

	c.JSON(http.StatusOK, page)
}

// GET /tasks/:id
func (h *Handler) GetTask(c *gin.Context) {
	const op = "handler.GetTask"

	log := h.log.With(slog.String("op", op))

	userID, taskID, ok := h.taskTarget(c)
	if !ok {
		return
	}

	task, err := h.serviceLayer.GetTask(c.Request.Context(), userID, taskID)
	if err != nil {
		respondError(c, log, err)

		return
	}

	c.JSON(http.StatusOK, task)
}

// POST /tasks
func (h *Handler) CreateTask(c *gin.Context) {
	const op = "handler.CreateTask"

	log := h.log.With(slog.String("op", op))

	userID, ok := userIDFromContext(c)
	if !ok {
		newErrorResponse(c, http.StatusUnauthorized, "Unauthorized")

		return
	}

	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Debug("failed to read request body", slog.Any("error", err))

		newErrorResponse(c, http.StatusBadRequest, "invalid request body")

		return
	}

	task, err := h.serviceLayer.CreateTask(c.Request.Context(), userID, service.TaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
	})
	if err != nil {
		respondError(c, log, err)

		return
	}

	c.JSON(http.StatusCreated, task)
}

// PATCH /tasks/:id
func (h *Handler) UpdateTask(c *gin.Context) {
	const op = "handler.UpdateTask"

	log := h.log.With(slog.String("op", op))

	userID, taskID, ok := h.taskTarget(c)
	if !ok {
		return
	}

	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Debug("failed to read request body", slog.Any("error", err))

		newErrorResponse(c, http.StatusBadRequest, "invalid request body")

		return
	}

	task, err := h.serviceLayer.UpdateTask(c.Request.Context(), userID, taskID, service.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
	})
	if err != nil {
		respondError(c, log, err)

		return
	}

	c.JSON(http.StatusOK, task)
}

// DELETE /tasks/:id
func (h *Handler) DeleteTask(c *gin.Context) {
	const op = "handler.DeleteTask"

	log := h.log.With(slog.String("op", op))

	userID, taskID, ok := h.taskTarget(c)
	if !ok {
		return
	}

	if err := h.serviceLayer.DeleteTask(c.Request.Context(), userID, taskID); err != nil {
		respondError(c, log, err)

		return
	}

	log.Info("task deleted", slog.String("task_id", taskID.String()))

	c.JSON(http.StatusOK, gin.H{"message": "Task deleted"})
}

// PATCH /tasks/:id/toggle
func (h *Handler) ToggleTask(c *gin.Context) {
	const op = "handler.ToggleTask"

	log := h.log.With(slog.String("op", op))

	userID, taskID, ok := h.taskTarget(c)
	if !ok {
		return
	}

	task, err := h.serviceLayer.ToggleTask(c.Request.Context(), userID, taskID)
	if err != nil {
		respondError(c, log, err)

		return
	}

	c.JSON(http.StatusOK, task)
}

// taskTarget resolves the caller and the :id path parameter, answering the
// request itself when either is unusable.
func (h *Handler) taskTarget(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := userIDFromContext(c)
	if !ok {
		newErrorResponse(c, http.StatusUnauthorized, "Unauthorized")

		return uuid.Nil, uuid.Nil, false
	}

	taskID, err := uuid.FromString(c.Param("id"))
	if err != nil || taskID == uuid.Nil {
		newErrorResponse(c, http.StatusBadRequest, "Invalid task id")

		return uuid.Nil, uuid.Nil, false
	}

	return userID, taskID, true
}

// atoiOrZero treats absent and non-numeric values as zero so the service
// falls back to its defaults.
func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}

	return n
}
