package domain

import "time"

// User represents an account that owns tasks.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserInput carries the writable fields of a user. Password is plaintext and
// never persisted as-is.
type UserInput struct {
	Username string
	Email    string
	Password string
}

// UserWithTasks is a user together with every task it owns.
type UserWithTasks struct {
	User  User
	Tasks []Task
}
