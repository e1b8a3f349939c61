package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"alertify/internal/domain"
	"alertify/internal/repository"
)

// UserService describes user lifecycle operations.
type UserService interface {
	CreateUser(ctx context.Context, in domain.UserInput) (*domain.User, error)
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
	GetAllUsers(ctx context.Context) ([]domain.User, error)
	GetUsersWithTasks(ctx context.Context) ([]domain.UserWithTasks, error)
	UpdateUser(ctx context.Context, id int64, in domain.UserInput) (*domain.User, error)
	DeleteUser(ctx context.Context, id int64) error
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
}

type userService struct {
	users      repository.UserRepository
	tasks      repository.TaskRepository
	tx         repository.Transactor
	bcryptCost int

	// dummyHash is compared against when the username is unknown so both
	// login failures cost one bcrypt comparison.
	dummyHash []byte
	generate  func(password []byte, cost int) ([]byte, error)
	compare   func(hash, password []byte) error
}

func NewUserService(users repository.UserRepository, tasks repository.TaskRepository, tx repository.Transactor, bcryptCost int) UserService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	dummyHash, err := bcrypt.GenerateFromPassword([]byte("alertify-unknown-user"), bcryptCost)
	if err != nil {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("alertify-unknown-user"), bcrypt.DefaultCost)
	}
	return &userService{
		users:      users,
		tasks:      tasks,
		tx:         tx,
		bcryptCost: bcryptCost,
		dummyHash:  dummyHash,
		generate:   bcrypt.GenerateFromPassword,
		compare:    bcrypt.CompareHashAndPassword,
	}
}

func (s *userService) CreateUser(ctx context.Context, in domain.UserInput) (*domain.User, error) {
	if in.Password == "" {
		return nil, fmt.Errorf("%w: password cannot be null or empty", domain.ErrInvalidInput)
	}
	username, email, err := normalizeIdentity(in)
	if err != nil {
		return nil, err
	}

	hash, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	if _, err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	return sanitizeUser(user), nil
}

func (s *userService) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, withID(err, id)
	}
	return sanitizeUser(user), nil
}

func (s *userService) GetAllUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i] = *sanitizeUser(&users[i])
	}
	return users, nil
}

func (s *userService) GetUsersWithTasks(ctx context.Context) ([]domain.UserWithTasks, error) {
	var result []domain.UserWithTasks
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		users, err := s.users.List(ctx)
		if err != nil {
			return err
		}

		result = make([]domain.UserWithTasks, 0, len(users))
		for i := range users {
			tasks, err := s.tasks.ListByUser(ctx, users[i].ID)
			if err != nil {
				return err
			}
			result = append(result, domain.UserWithTasks{
				User:  *sanitizeUser(&users[i]),
				Tasks: tasks,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *userService) UpdateUser(ctx context.Context, id int64, in domain.UserInput) (*domain.User, error) {
	username, email, err := normalizeIdentity(in)
	if err != nil {
		return nil, err
	}

	// an empty password keeps the stored hash untouched
	var hash string
	if in.Password != "" {
		if hash, err = s.hashPassword(in.Password); err != nil {
			return nil, err
		}
	}

	var user *domain.User
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		found, err := s.users.GetByID(ctx, id)
		if err != nil {
			return withID(err, id)
		}

		found.Username = username
		found.Email = email
		if hash != "" {
			found.PasswordHash = hash
		}

		if err := s.users.Update(ctx, found); err != nil {
			return withID(err, id)
		}
		user = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	return sanitizeUser(user), nil
}

func (s *userService) DeleteUser(ctx context.Context, id int64) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return withID(err, id)
	}
	return nil
}

func (s *userService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			_ = s.compare(s.dummyHash, []byte(password))
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := s.compare([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	return sanitizeUser(user), nil
}

func (s *userService) hashPassword(password string) (string, error) {
	hash, err := s.generate([]byte(password), s.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func normalizeIdentity(in domain.UserInput) (string, string, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)
	if username == "" {
		return "", "", fmt.Errorf("%w: username is required", domain.ErrInvalidInput)
	}
	if email == "" {
		return "", "", fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}
	return username, email, nil
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

// withID annotates a not-found error with the id that was looked up.
func withID(err error, id int64) error {
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%w with id %d", err, id)
	}
	return err
}
