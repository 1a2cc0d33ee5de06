package core

import (
	"context"
	"fmt"
	"time"
)

// TaskService handles the business logic of the kanban board.
type TaskService struct {
	repo Repository[Task]
	opts *serviceOptions
}

// NewTaskService creates a TaskService on top of repo.
func NewTaskService(repo Repository[Task], opts ...ServiceOption) *TaskService {
	return &TaskService{repo: repo, opts: buildServiceOptions(opts)}
}

// List returns every task in stored (creation) order.
func (s *TaskService) List(ctx context.Context) (tasks []Task, err error) {
	defer s.track("list", time.Now(), &err)

	tasks, err = s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	s.opts.metrics.setRecords(TasksCollection, len(tasks))
	return tasks, nil
}

// Get retrieves a task by id.
func (s *TaskService) Get(ctx context.Context, id string) (task Task, err error) {
	defer s.track("get", time.Now(), &err)

	if err := requireID(id); err != nil {
		return Task{}, err
	}
	return s.repo.Get(ctx, id)
}

// Create adds a task in the todo column.
func (s *TaskService) Create(ctx context.Context, in TaskInput) (task Task, err error) {
	defer s.track("create", time.Now(), &err)

	if err := in.Validate(); err != nil {
		return Task{}, err
	}

	description := ""
	if in.Description != nil {
		description = *in.Description
	}

	task, err = insertWithFreshID(ctx, s.opts, s.repo, "task", Append, func(id string) Task {
		now := s.opts.clock.Now()
		return Task{
			ID:          id,
			Title:       in.Title,
			Description: description,
			Status:      StatusTodo,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
	})
	if err != nil {
		return Task{}, err
	}

	s.opts.publish(TasksCollection, EventCreate, task.ID)
	return task, nil
}

// Update applies a merge-patch to the title and description.
func (s *TaskService) Update(ctx context.Context, id string, patch TaskPatch) (task Task, err error) {
	defer s.track("update", time.Now(), &err)

	if err := requireID(id); err != nil {
		return Task{}, err
	}
	if err := patch.Validate(); err != nil {
		return Task{}, err
	}

	ctx = defaultReason(ctx, fmt.Sprintf("update task %s", id))
	task, err = s.repo.Modify(ctx, id, func(t *Task) error {
		if patch.Title != nil {
			t.Title = *patch.Title
		}
		if patch.Description != nil {
			t.Description = *patch.Description
		}
		t.UpdatedAt = later(s.opts.clock, t.UpdatedAt)
		return nil
	})
	if err != nil {
		return Task{}, err
	}

	s.opts.publish(TasksCollection, EventModify, task.ID)
	return task, nil
}

// UpdateStatus moves a task to another column.
func (s *TaskService) UpdateStatus(ctx context.Context, id string, status TaskStatus) (task Task, err error) {
	defer s.track("update_status", time.Now(), &err)

	if err := requireID(id); err != nil {
		return Task{}, err
	}
	if err := ValidateStatus(status); err != nil {
		return Task{}, err
	}

	ctx = defaultReason(ctx, fmt.Sprintf("move task %s to %s", id, status))
	task, err = s.repo.Modify(ctx, id, func(t *Task) error {
		t.Status = status
		t.UpdatedAt = later(s.opts.clock, t.UpdatedAt)
		return nil
	})
	if err != nil {
		return Task{}, err
	}

	s.opts.publish(TasksCollection, EventModify, task.ID)
	return task, nil
}

// Delete removes a task. Deleting an unknown id succeeds.
func (s *TaskService) Delete(ctx context.Context, id string) (err error) {
	defer s.track("delete", time.Now(), &err)

	if err := requireID(id); err != nil {
		return err
	}

	ctx = defaultReason(ctx, fmt.Sprintf("delete task %s", id))
	existed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if existed {
		s.opts.publish(TasksCollection, EventDelete, id)
	}
	return nil
}

// Board groups the tasks into their status columns.
func (s *TaskService) Board(ctx context.Context) (Board, error) {
	tasks, err := s.List(ctx)
	if err != nil {
		return Board{}, err
	}

	board := Board{Todo: []Task{}, InProgress: []Task{}, Done: []Task{}}
	for _, t := range tasks {
		switch t.Status {
		case StatusInProgress:
			board.InProgress = append(board.InProgress, t)
		case StatusDone:
			board.Done = append(board.Done, t)
		default:
			board.Todo = append(board.Todo, t)
		}
	}
	return board, nil
}

func (s *TaskService) track(op string, start time.Time, err *error) {
	s.opts.metrics.observe(TasksCollection, op, start, *err)
}
