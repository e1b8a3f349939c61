package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"alertify/internal/domain"
	"alertify/internal/repository"
)

func TestCreateUser_HashesPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.userService.CreateUser(ctx, domain.UserInput{
		Username: "alice",
		Email:    "a@x.com",
		Password: "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, "alice", created.Username)
	assert.Equal(t, "a@x.com", created.Email)
	assert.Empty(t, created.PasswordHash, "returned user must not carry the hash")

	stored, err := env.users.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, stored.PasswordHash)
	assert.NotEqual(t, "secret", stored.PasswordHash)
	assert.NotContains(t, stored.PasswordHash, "secret")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secret")))
}

func TestCreateUser_SamePasswordDifferentSalt(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.createUser(t, "alice")
	b := env.createUser(t, "bob")

	sa, err := env.users.GetByID(ctx, a.ID)
	require.NoError(t, err)
	sb, err := env.users.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.NotEqual(t, sa.PasswordHash, sb.PasswordHash)
}

func TestCreateUser_InvalidInputPersistsNothing(t *testing.T) {
	tests := []struct {
		name string
		in   domain.UserInput
	}{
		{"empty password", domain.UserInput{Username: "alice", Email: "a@x.com"}},
		{"empty username", domain.UserInput{Email: "a@x.com", Password: "secret"}},
		{"blank email", domain.UserInput{Username: "alice", Email: "  ", Password: "secret"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			ctx := context.Background()

			_, err := env.userService.CreateUser(ctx, tt.in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)

			users, err := env.users.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, users)
		})
	}
}

func TestCreateUser_Duplicate(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "alice")

	_, err := env.userService.CreateUser(context.Background(), domain.UserInput{
		Username: "alice",
		Email:    "new@x.com",
		Password: "secret",
	})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestUserOperations_NotFound(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.userService.GetUserByID(ctx, 42)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.Contains(t, err.Error(), "with id 42")

	_, err = env.userService.UpdateUser(ctx, 42, domain.UserInput{Username: "x", Email: "x@x.com"})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	err = env.userService.DeleteUser(ctx, 42)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestGetAllUsers_NoPasswordData(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "alice")
	env.createUser(t, "bob")

	users, err := env.userService.GetAllUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	for _, u := range users {
		assert.Empty(t, u.PasswordHash)
	}
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, "bob", users[1].Username)
}

func TestUpdateUser_KeepsHashWithoutNewPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice")

	before, err := env.users.GetByID(ctx, alice.ID)
	require.NoError(t, err)

	updated, err := env.userService.UpdateUser(ctx, alice.ID, domain.UserInput{
		Username: "alice2",
		Email:    "alice2@x.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice2", updated.Username)
	assert.Equal(t, "alice2@x.com", updated.Email)
	assert.Empty(t, updated.PasswordHash)

	after, err := env.users.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, before.PasswordHash, after.PasswordHash)
}

func TestUpdateUser_RehashesNewPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice")

	_, err := env.userService.UpdateUser(ctx, alice.ID, domain.UserInput{
		Username: "alice",
		Email:    "alice@x.com",
		Password: "n3w-secret",
	})
	require.NoError(t, err)

	after, err := env.users.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(after.PasswordHash), []byte("n3w-secret")))
	assert.Error(t, bcrypt.CompareHashAndPassword([]byte(after.PasswordHash), []byte("secret")))
}

func TestDeleteUser_CascadesToTasks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	t1 := env.createTask(t, "T1", alice.ID)
	t2 := env.createTask(t, "T2", alice.ID)
	t3 := env.createTask(t, "T3", bob.ID)

	require.NoError(t, env.userService.DeleteUser(ctx, alice.ID))

	for _, id := range []int64{t1.ID, t2.ID} {
		_, err := env.taskService.GetTaskByID(ctx, id)
		assert.ErrorIs(t, err, domain.ErrTaskNotFound)
	}
	_, err := env.taskService.GetTaskByID(ctx, t3.ID)
	assert.NoError(t, err)
}

func TestGetUsersWithTasks(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	env.createUser(t, "bob")
	env.createTask(t, "T1", alice.ID)
	env.createTask(t, "T2", alice.ID)

	result, err := env.userService.GetUsersWithTasks(context.Background())
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "alice", result[0].User.Username)
	assert.Len(t, result[0].Tasks, 2)
	assert.Empty(t, result[0].User.PasswordHash)
	assert.Equal(t, "bob", result[1].User.Username)
	assert.Empty(t, result[1].Tasks)
}

func TestAuthenticate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createUser(t, "alice")

	user, err := env.userService.Authenticate(ctx, "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Empty(t, user.PasswordHash)

	_, err = env.userService.Authenticate(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = env.userService.Authenticate(ctx, "mallory", "secret")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = env.userService.Authenticate(ctx, "", "")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

// trackingTx reports whether a transaction body is currently running.
type trackingTx struct {
	inner  repository.Transactor
	active bool
}

func (tx *trackingTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return tx.inner.WithinTx(ctx, func(ctx context.Context) error {
		tx.active = true
		defer func() { tx.active = false }()
		return fn(ctx)
	})
}

func TestUpdateUser_HashesOutsideTransaction(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice")

	tx := &trackingTx{inner: env.db}
	svc := NewUserService(env.users, env.tasks, tx, bcrypt.MinCost).(*userService)

	var calls int
	var hashedInTx bool
	svc.generate = func(password []byte, cost int) ([]byte, error) {
		calls++
		hashedInTx = hashedInTx || tx.active
		return bcrypt.GenerateFromPassword(password, cost)
	}

	_, err := svc.UpdateUser(ctx, alice.ID, domain.UserInput{
		Username: "alice",
		Email:    "alice@x.com",
		Password: "n3w-secret",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.False(t, hashedInTx, "bcrypt must not run while the transaction holds the connection")

	stored, err := env.users.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("n3w-secret")))
}

func TestAuthenticate_UnknownUserComparesDummyHash(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "alice")
	svc := env.userService.(*userService)

	var compared [][]byte
	svc.compare = func(hash, password []byte) error {
		compared = append(compared, hash)
		return bcrypt.CompareHashAndPassword(hash, password)
	}

	_, err := svc.Authenticate(context.Background(), "mallory", "secret")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	require.Len(t, compared, 1)
	assert.Equal(t, svc.dummyHash, compared[0])

	cost, err := bcrypt.Cost(svc.dummyHash)
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost, "dummy hash uses the configured cost")

	_, err = svc.Authenticate(context.Background(), "alice", "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	assert.Len(t, compared, 2)
}
