package sqlstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alertify/internal/domain"
)

func openSQLite(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), DriverSQLite, filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate())
	return db
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), "oracle", "whatever")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestSQLite_TaskRoundTrip(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()
	users := NewUserRepository(db)
	tasks := NewTaskRepository(db)

	owner := &domain.User{Username: "alice", Email: "a@x.com", PasswordHash: "hash"}
	_, err := users.Create(ctx, owner)
	require.NoError(t, err)

	due := domain.Date{Year: 2025, Month: time.July, Day: 4}
	task := &domain.Task{
		Title:       "T1",
		Description: "first",
		Priority:    domain.TaskPriorityHigh,
		Status:      domain.TaskStatusInProgress,
		DueDate:     &due,
		UserID:      owner.ID,
	}
	_, err = tasks.Create(ctx, task)
	require.NoError(t, err)

	got, err := tasks.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.Title, got.Title)
	assert.Equal(t, task.Description, got.Description)
	assert.Equal(t, task.Priority, got.Priority)
	assert.Equal(t, task.Status, got.Status)
	require.NotNil(t, got.DueDate)
	assert.Equal(t, due, *got.DueDate)
	assert.Equal(t, owner.ID, got.UserID)
}

func TestSQLite_UniqueUsernameAndEmail(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()
	users := NewUserRepository(db)

	_, err := users.Create(ctx, &domain.User{Username: "alice", Email: "a@x.com", PasswordHash: "h"})
	require.NoError(t, err)

	_, err = users.Create(ctx, &domain.User{Username: "alice", Email: "other@x.com", PasswordHash: "h"})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	_, err = users.Create(ctx, &domain.User{Username: "bob", Email: "a@x.com", PasswordHash: "h"})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestSQLite_TaskRequiresExistingOwner(t *testing.T) {
	db := openSQLite(t)

	_, err := NewTaskRepository(db).Create(context.Background(), &domain.Task{
		Title:    "orphan",
		Priority: domain.TaskPriorityLow,
		Status:   domain.TaskStatusTodo,
		UserID:   404,
	})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestSQLite_DeleteUserCascadesToTasks(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()
	users := NewUserRepository(db)
	tasks := NewTaskRepository(db)

	alice := &domain.User{Username: "alice", Email: "a@x.com", PasswordHash: "h"}
	bob := &domain.User{Username: "bob", Email: "b@x.com", PasswordHash: "h"}
	_, err := users.Create(ctx, alice)
	require.NoError(t, err)
	_, err = users.Create(ctx, bob)
	require.NoError(t, err)

	for _, owner := range []int64{alice.ID, alice.ID, bob.ID} {
		_, err := tasks.Create(ctx, &domain.Task{Title: "t", Priority: domain.TaskPriorityLow, Status: domain.TaskStatusTodo, UserID: owner})
		require.NoError(t, err)
	}

	require.NoError(t, users.Delete(ctx, alice.ID))

	remaining, err := tasks.List(ctx)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, bob.ID, remaining[0].UserID)

	owned, err := tasks.ListByUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, owned)
}

func TestSQLite_WithinTxRollsBack(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()
	users := NewUserRepository(db)

	err := db.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := users.Create(ctx, &domain.User{Username: "ghost", Email: "g@x.com", PasswordHash: "h"}); err != nil {
			return err
		}
		return domain.ErrInvalidInput
	})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = users.GetByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestStatsCollector(t *testing.T) {
	db := openSQLite(t)

	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(db.StatsCollector()))

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["go_sql_max_open_connections"])
	assert.True(t, names["go_sql_open_connections"])
}
