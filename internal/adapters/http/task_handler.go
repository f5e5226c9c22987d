package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/socialdesk/core/internal/domain/entities"
	"github.com/socialdesk/core/internal/infrastructure/logger"
	"github.com/socialdesk/core/internal/ports"
)

// TaskHandler handles task board requests
type TaskHandler struct {
	taskService ports.TaskService
	logger      *logger.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(taskService ports.TaskService, logger *logger.Logger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		logger:      logger,
	}
}

// Register mounts the task routes on g
func (h *TaskHandler) Register(g *echo.Group) {
	g.GET("", h.ListTasks)
	g.POST("", h.CreateTask)
	g.GET("/board", h.Board)
	g.GET("/:id", h.GetTask)
	g.PATCH("/:id", h.UpdateTask)
	g.DELETE("/:id", h.DeleteTask)
	g.POST("/:id/transition", h.Transition)
}

// CreateTask handles task creation
func (h *TaskHandler) CreateTask(c echo.Context) error {
	var req ports.CreateTaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	task, err := h.taskService.CreateTask(c.Request().Context(), req)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, task)
}

// GetTask handles fetching one task
func (h *TaskHandler) GetTask(c echo.Context) error {
	task, err := h.taskService.GetTask(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, task)
}

// ListTasks lists tasks, optionally one status column
func (h *TaskHandler) ListTasks(c echo.Context) error {
	ctx := c.Request().Context()

	var (
		tasks []entities.Task
		err   error
	)
	if status := c.QueryParam("status"); status != "" {
		ts := entities.TaskStatus(status)
		if !ts.IsValid() {
			return toHTTPError(entities.NewValidationError("status", entities.CodeStatusInvalid))
		}
		tasks, err = h.taskService.GetByStatus(ctx, ts)
	} else {
		tasks, err = h.taskService.ListTasks(ctx)
	}
	if err != nil {
		return toHTTPError(err)
	}
	return list(c, tasks)
}

// UpdateTask handles partial task updates
func (h *TaskHandler) UpdateTask(c echo.Context) error {
	var patch entities.TaskPatch
	if err := bindPatch(c, &patch); err != nil {
		return err
	}

	task, err := h.taskService.UpdateTask(c.Request().Context(), c.Param("id"), patch)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, task)
}

// DeleteTask handles task deletion
func (h *TaskHandler) DeleteTask(c echo.Context) error {
	ok, err := h.taskService.DeleteTask(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return deleted(c, ok, "task")
}

// Transition moves a task to another column
func (h *TaskHandler) Transition(c echo.Context) error {
	var req ports.TransitionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	task, err := h.taskService.Transition(c.Request().Context(), c.Param("id"), entities.TaskStatus(req.Status))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, task)
}

// Board returns every column sorted by due date
func (h *TaskHandler) Board(c echo.Context) error {
	board, err := h.taskService.Board(c.Request().Context())
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, board)
}
