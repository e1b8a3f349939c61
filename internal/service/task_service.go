package service

import (
	"context"
	"fmt"
	"strings"

	"alertify/internal/domain"
	"alertify/internal/repository"
)

// TaskService coordinates task level operations backed by repositories.
type TaskService interface {
	CreateTask(ctx context.Context, in domain.TaskInput) (*domain.Task, error)
	GetTaskByID(ctx context.Context, id int64) (*domain.Task, error)
	GetAllTasks(ctx context.Context) ([]domain.Task, error)
	GetTasksByUser(ctx context.Context, userID int64) ([]domain.Task, error)
	GetTasksByStatus(ctx context.Context, status domain.TaskStatus) ([]domain.Task, error)
	UpdateTask(ctx context.Context, id int64, in domain.TaskInput) (*domain.Task, error)
	DeleteTask(ctx context.Context, id int64) error
	AssignTaskToUser(ctx context.Context, taskID, userID int64) (*domain.Task, error)
}

type taskService struct {
	tasks repository.TaskRepository
	users repository.UserRepository
	tx    repository.Transactor
}

func NewTaskService(tasks repository.TaskRepository, users repository.UserRepository, tx repository.Transactor) TaskService {
	return &taskService{
		tasks: tasks,
		users: users,
		tx:    tx,
	}
}

func (s *taskService) CreateTask(ctx context.Context, in domain.TaskInput) (*domain.Task, error) {
	if in.UserID == nil {
		return nil, fmt.Errorf("%w: userId is required", domain.ErrInvalidInput)
	}
	task := &domain.Task{UserID: *in.UserID}
	if err := applyTaskFields(task, in); err != nil {
		return nil, err
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.users.GetByID(ctx, task.UserID); err != nil {
			return withID(err, task.UserID)
		}
		if _, err := s.tasks.Create(ctx, task); err != nil {
			return withID(err, task.UserID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *taskService) GetTaskByID(ctx context.Context, id int64) (*domain.Task, error) {
	task, err := s.tasks.Get(ctx, id)
	if err != nil {
		return nil, withID(err, id)
	}
	return task, nil
}

func (s *taskService) GetAllTasks(ctx context.Context) ([]domain.Task, error) {
	return s.tasks.List(ctx)
}

func (s *taskService) GetTasksByUser(ctx context.Context, userID int64) ([]domain.Task, error) {
	var tasks []domain.Task
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.users.GetByID(ctx, userID); err != nil {
			return withID(err, userID)
		}
		var err error
		tasks, err = s.tasks.ListByUser(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s *taskService) GetTasksByStatus(ctx context.Context, status domain.TaskStatus) ([]domain.Task, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, status)
	}
	return s.tasks.ListByStatus(ctx, status)
}

func (s *taskService) UpdateTask(ctx context.Context, id int64, in domain.TaskInput) (*domain.Task, error) {
	var task *domain.Task
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		found, err := s.tasks.Get(ctx, id)
		if err != nil {
			return withID(err, id)
		}
		if err := applyTaskFields(found, in); err != nil {
			return err
		}

		if in.UserID != nil {
			if _, err := s.users.GetByID(ctx, *in.UserID); err != nil {
				return withID(err, *in.UserID)
			}
			found.UserID = *in.UserID
		}

		if err := s.tasks.Update(ctx, found); err != nil {
			return withID(err, id)
		}
		task = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *taskService) DeleteTask(ctx context.Context, id int64) error {
	if err := s.tasks.Delete(ctx, id); err != nil {
		return withID(err, id)
	}
	return nil
}

func (s *taskService) AssignTaskToUser(ctx context.Context, taskID, userID int64) (*domain.Task, error) {
	var task *domain.Task
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		found, err := s.tasks.Get(ctx, taskID)
		if err != nil {
			return withID(err, taskID)
		}
		if _, err := s.users.GetByID(ctx, userID); err != nil {
			return withID(err, userID)
		}

		found.UserID = userID
		if err := s.tasks.Update(ctx, found); err != nil {
			return withID(err, taskID)
		}
		task = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// applyTaskFields overwrites every writable field except the owner.
func applyTaskFields(task *domain.Task, in domain.TaskInput) error {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}

	priority := in.Priority
	if priority == "" {
		priority = domain.TaskPriorityMedium
	}
	if !priority.Valid() {
		return fmt.Errorf("%w: unknown priority %q", domain.ErrInvalidInput, in.Priority)
	}

	status := in.Status
	if status == "" {
		status = domain.TaskStatusTodo
	}
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, in.Status)
	}

	task.Title = title
	task.Description = in.Description
	task.Priority = priority
	task.Status = status
	task.DueDate = in.DueDate
	return nil
}
