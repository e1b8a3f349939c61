package repository

import (
	"context"

	"alertify/internal/domain"
)

// TaskRepository exposes persistence operations for Task aggregates.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) (int64, error)
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*domain.Task, error)
	List(ctx context.Context) ([]domain.Task, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Task, error)
	ListByStatus(ctx context.Context, status domain.TaskStatus) ([]domain.Task, error)
}
