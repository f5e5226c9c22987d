package services

import (
	"context"
	"fmt"

	"github.com/socialdesk/core/internal/domain/entities"
	"github.com/socialdesk/core/internal/domain/ordering"
	"github.com/socialdesk/core/internal/infrastructure/logger"
	"github.com/socialdesk/core/internal/infrastructure/metrics"
	"github.com/socialdesk/core/internal/ports"
)

// TaskService handles task board operations
type TaskService struct {
	taskRepo ports.TaskRepository
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

// NewTaskService creates a new task service
func NewTaskService(taskRepo ports.TaskRepository, logger *logger.Logger, metrics *metrics.Metrics) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		logger:   logger.WithComponent("tasks"),
		metrics:  metrics,
	}
}

// CreateTask creates a new task. Status defaults to unassigned.
func (s *TaskService) CreateTask(ctx context.Context, req ports.CreateTaskRequest) (entities.Task, error) {
	task := entities.Task{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Assignee:    req.Assignee,
		DueDate:     req.DueDate,
		Tags:        nonNil(entities.NormalizeTags(req.Tags)),
	}
	if task.Status == "" {
		task.Status = entities.TaskStatusUnassigned
	}
	if task.Assignee != nil && *task.Assignee == "" {
		task.Assignee = nil
	}
	if err := task.Validate(); err != nil {
		return entities.Task{}, err
	}

	created, err := s.taskRepo.Create(ctx, task)
	if err != nil {
		return entities.Task{}, fmt.Errorf("failed to create task: %w", err)
	}

	s.logger.LogEntityMutation("tasks", "create", created.ID, map[string]interface{}{
		"status": created.Status,
	})
	return created, nil
}

// GetTask retrieves a task by ID
func (s *TaskService) GetTask(ctx context.Context, id string) (entities.Task, error) {
	return s.taskRepo.GetByID(ctx, id)
}

// UpdateTask applies a typed patch
func (s *TaskService) UpdateTask(ctx context.Context, id string, patch entities.TaskPatch) (entities.Task, error) {
	updated, err := s.taskRepo.Update(ctx, id, patch.Apply)
	if err != nil {
		return entities.Task{}, err
	}
	s.logger.LogEntityMutation("tasks", "update", id, nil)
	return updated, nil
}

// DeleteTask removes a task. It reports false when no task matched.
func (s *TaskService) DeleteTask(ctx context.Context, id string) (bool, error) {
	ok, err := s.taskRepo.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if ok {
		s.logger.LogEntityMutation("tasks", "delete", id, nil)
	}
	return ok, nil
}

// ListTasks returns all tasks in insertion order
func (s *TaskService) ListTasks(ctx context.Context) ([]entities.Task, error) {
	return s.taskRepo.List(ctx)
}

// GetByStatus returns the tasks in one board column
func (s *TaskService) GetByStatus(ctx context.Context, status entities.TaskStatus) ([]entities.Task, error) {
	return byStatus(ctx, s.taskRepo, status, func(t *entities.Task) entities.TaskStatus { return t.Status })
}

// Transition moves a task to another column. Any status may follow any
// other.
func (s *TaskService) Transition(ctx context.Context, id string, status entities.TaskStatus) (entities.Task, error) {
	if !status.IsValid() {
		return entities.Task{}, entities.NewValidationError("status", entities.CodeStatusInvalid)
	}

	updated, err := s.taskRepo.Update(ctx, id, func(t *entities.Task) error {
		return t.TransitionTo(status)
	})
	if err != nil {
		return entities.Task{}, err
	}

	s.metrics.ObserveTransition("task", string(status))
	s.logger.LogEntityMutation("tasks", "transition", id, map[string]interface{}{
		"status": status,
	})
	return updated, nil
}

// Board groups tasks into columns sorted by due date
func (s *TaskService) Board(ctx context.Context) (map[entities.TaskStatus][]entities.Task, error) {
	tasks, err := s.taskRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	return ordering.Board(tasks), nil
}
