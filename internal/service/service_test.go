package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"alertify/internal/domain"
	"alertify/internal/repository"
	"alertify/internal/repository/sqlstore"
)

type testEnv struct {
	db    *sqlstore.DB
	users repository.UserRepository
	tasks repository.TaskRepository

	userService UserService
	taskService TaskService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := sqlstore.Open(context.Background(), sqlstore.DriverSQLite, filepath.Join(t.TempDir(), "service.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate())

	users := sqlstore.NewUserRepository(db)
	tasks := sqlstore.NewTaskRepository(db)
	return &testEnv{
		db:          db,
		users:       users,
		tasks:       tasks,
		userService: NewUserService(users, tasks, db, bcrypt.MinCost),
		taskService: NewTaskService(tasks, users, db),
	}
}

func (e *testEnv) createUser(t *testing.T, username string) *domain.User {
	t.Helper()
	user, err := e.userService.CreateUser(context.Background(), domain.UserInput{
		Username: username,
		Email:    username + "@x.com",
		Password: "secret",
	})
	require.NoError(t, err)
	return user
}

func (e *testEnv) createTask(t *testing.T, title string, owner int64) *domain.Task {
	t.Helper()
	task, err := e.taskService.CreateTask(context.Background(), domain.TaskInput{
		Title:    title,
		Priority: domain.TaskPriorityHigh,
		Status:   domain.TaskStatusTodo,
		UserID:   &owner,
	})
	require.NoError(t, err)
	return task
}

func ptr[T any](v T) *T { return &v }
