package repository

import (
	"context"

	"github.com/SENG-401-Lesson-Planner/Backend/internal/domain"
)

// UserRepository persists user accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
}

// ResponseRepository persists completion records per user.
type ResponseRepository interface {
	InsertResponse(ctx context.Context, response *domain.Response) error
	ListResponsesByUsername(ctx context.Context, username string) ([]domain.Response, error)
	DeleteResponse(ctx context.Context, username, id string) error
}
