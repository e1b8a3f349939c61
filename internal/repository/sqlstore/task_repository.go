package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"alertify/internal/domain"
	"alertify/internal/repository"
)

var taskColumns = []string{"id", "title", "description", "priority", "status", "due_date", "user_id", "created_at", "updated_at"}

type TaskRepository struct {
	db *DB
}

func NewTaskRepository(db *DB) repository.TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) (int64, error) {
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now

	query, args, err := r.db.builder.
		Insert("tasks").
		Columns("title", "description", "priority", "status", "due_date", "user_id", "created_at", "updated_at").
		Values(
			task.Title,
			task.Description,
			string(task.Priority),
			string(task.Status),
			dateValue(task.DueDate),
			task.UserID,
			task.CreatedAt,
			task.UpdatedAt,
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert task: %w", err)
	}

	var id int64
	if err := r.db.conn(ctx).QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		if isForeignKeyViolation(err) {
			return 0, domain.ErrUserNotFound
		}
		return 0, fmt.Errorf("insert task: %w", err)
	}
	task.ID = id
	return id, nil
}

func (r *TaskRepository) Update(ctx context.Context, task *domain.Task) error {
	task.UpdatedAt = time.Now().UTC()

	query, args, err := r.db.builder.
		Update("tasks").
		Set("title", task.Title).
		Set("description", task.Description).
		Set("priority", string(task.Priority)).
		Set("status", string(task.Status)).
		Set("due_date", dateValue(task.DueDate)).
		Set("user_id", task.UserID).
		Set("updated_at", task.UpdatedAt).
		Where(sq.Eq{"id": task.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update task: %w", err)
	}

	res, err := r.db.conn(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("update task: %w", err)
	}
	return expectAffected(res, domain.ErrTaskNotFound)
}

func (r *TaskRepository) Delete(ctx context.Context, id int64) error {
	query, args, err := r.db.builder.Delete("tasks").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete task: %w", err)
	}

	res, err := r.db.conn(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return expectAffected(res, domain.ErrTaskNotFound)
}

func (r *TaskRepository) Get(ctx context.Context, id int64) (*domain.Task, error) {
	query, args, err := r.db.builder.Select(taskColumns...).From("tasks").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select task: %w", err)
	}
	return scanTask(r.db.conn(ctx).QueryRowContext(ctx, query, args...))
}

func (r *TaskRepository) List(ctx context.Context) ([]domain.Task, error) {
	return r.list(ctx, r.db.builder.Select(taskColumns...).From("tasks").OrderBy("id ASC"))
}

func (r *TaskRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Task, error) {
	return r.list(ctx, r.db.builder.Select(taskColumns...).From("tasks").Where(sq.Eq{"user_id": userID}).OrderBy("id ASC"))
}

func (r *TaskRepository) ListByStatus(ctx context.Context, status domain.TaskStatus) ([]domain.Task, error) {
	return r.list(ctx, r.db.builder.Select(taskColumns...).From("tasks").Where(sq.Eq{"status": string(status)}).OrderBy("id ASC"))
}

func (r *TaskRepository) list(ctx context.Context, sel sq.SelectBuilder) ([]domain.Task, error) {
	query, args, err := sel.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select tasks: %w", err)
	}

	rows, err := r.db.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}

	return tasks, rows.Err()
}

func scanTask(scanner interface {
	Scan(dest ...any) error
}) (*domain.Task, error) {
	var (
		task     domain.Task
		priority string
		status   string
		dueDate  nullDate
	)

	if err := scanner.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&priority,
		&status,
		&dueDate,
		&task.UserID,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}

	task.Priority = domain.TaskPriority(priority)
	task.Status = domain.TaskStatus(status)
	if dueDate.Valid {
		d := dueDate.Date
		task.DueDate = &d
	}

	return &task, nil
}
