package store

import (
	"context"
	"errors"

	"learnscope/api/models"
)

var (
	ErrUserExists   = errors.New("user already exists")
	ErrUserNotFound = errors.New("user not found")
)

// UserStore persists user records. GetUserByUsername returns the record
// with its password hash populated.
type UserStore interface {
	CreateUser(ctx context.Context, username, email string, hashedPassword []byte) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	Count(ctx context.Context) (int, error)
}
