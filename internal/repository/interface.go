package repository

import (
	"context"
	"errors"

	"github.com/liqtags/relaychat/internal/domain"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrEmailExists    = errors.New("email already exists")
	ErrUsernameExists = errors.New("username already exists")
	ErrTodoNotFound   = errors.New("todo not found")
	ErrFileNotFound   = errors.New("file not found")
)

// UserRepository persists user accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// TodoRepository persists todo items, scoped to their owner.
type TodoRepository interface {
	Create(ctx context.Context, todo *domain.TodoModel) error
	GetByID(ctx context.Context, userID string, id uint) (*domain.TodoModel, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.TodoModel, error)
	Update(ctx context.Context, userID string, id uint, req *domain.UpdateTodoRequest) (*domain.TodoModel, error)
	Delete(ctx context.Context, userID string, id uint) error
}

// FileRepository persists upload metadata.
type FileRepository interface {
	Create(ctx context.Context, file *domain.FileModel) error
	GetByID(ctx context.Context, id string) (*domain.FileModel, error)
}
