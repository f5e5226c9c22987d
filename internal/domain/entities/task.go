package entities

import (
	"time"
)

type TaskStatus string

const (
	TaskStatusUnassigned TaskStatus = "unassigned"
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusDone       TaskStatus = "done"
)

// TaskStatuses lists the board columns in display order.
var TaskStatuses = []TaskStatus{
	TaskStatusUnassigned,
	TaskStatusTodo,
	TaskStatusInProgress,
	TaskStatusDone,
}

func (ts TaskStatus) IsValid() bool {
	switch ts {
	case TaskStatusUnassigned, TaskStatusTodo, TaskStatusInProgress, TaskStatusDone:
		return true
	default:
		return false
	}
}

// Task is a card on the kanban board.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	Assignee    *string    `json:"assignee,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Tags        []string   `json:"tags"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

func (t *Task) GetID() string      { return t.ID }
func (t *Task) SetID(id string)    { t.ID = id }
func (t *Task) Stamp(at time.Time) { t.CreatedAt = at }

func (t *Task) Touch(at time.Time) {
	t.UpdatedAt = &at
}

func (t *Task) Clone() Task {
	c := *t
	c.Assignee = cloneString(t.Assignee)
	c.DueDate = cloneTime(t.DueDate)
	c.Tags = cloneStrings(t.Tags)
	c.UpdatedAt = cloneTime(t.UpdatedAt)
	return c
}

// Validate checks the fields required before a task may be stored.
func (t *Task) Validate() error {
	if blank(t.Title) {
		return NewValidationError("title", CodeTitleRequired)
	}
	if !t.Status.IsValid() {
		return NewValidationError("status", CodeStatusInvalid)
	}
	return nil
}

// TransitionTo moves the task to another board column. Every column is
// reachable from every other one.
func (t *Task) TransitionTo(status TaskStatus) error {
	if !status.IsValid() {
		return NewValidationError("status", CodeStatusInvalid)
	}
	t.Status = status
	return nil
}

// IsOverdue reports whether the task is past its due date and not done.
func (t *Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil {
		return false
	}
	return now.After(*t.DueDate) && t.Status != TaskStatusDone
}

// TaskPatch is the closed set of updatable task fields.
type TaskPatch struct {
	Title        *string     `json:"title,omitempty"`
	Description  *string     `json:"description,omitempty"`
	Status       *TaskStatus `json:"status,omitempty"`
	Assignee     *string     `json:"assignee,omitempty"`
	DueDate      *time.Time  `json:"dueDate,omitempty"`
	ClearDueDate bool        `json:"clearDueDate,omitempty"`
	Tags         *[]string   `json:"tags,omitempty"`
}

// Apply merges the patch over t. An empty Assignee clears the assignee.
func (p TaskPatch) Apply(t *Task) error {
	next := t.Clone()
	if p.Title != nil {
		next.Title = *p.Title
	}
	if p.Description != nil {
		next.Description = *p.Description
	}
	if p.Status != nil {
		next.Status = *p.Status
	}
	if p.Assignee != nil {
		if *p.Assignee == "" {
			next.Assignee = nil
		} else {
			next.Assignee = cloneString(p.Assignee)
		}
	}
	if p.ClearDueDate {
		next.DueDate = nil
	} else if p.DueDate != nil {
		next.DueDate = cloneTime(p.DueDate)
	}
	if p.Tags != nil {
		next.Tags = NormalizeTags(*p.Tags)
		if next.Tags == nil {
			next.Tags = []string{}
		}
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*t = next
	return nil
}
