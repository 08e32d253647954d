package service

import (
	"context"

	"github.com/liqtags/relaychat/internal/domain"
	"github.com/liqtags/relaychat/internal/repository"
)

// TodoService handles todo CRUD on behalf of an authenticated user.
type TodoService interface {
	Create(ctx context.Context, userID string, req *domain.CreateTodoRequest) (*domain.Todo, error)
	Get(ctx context.Context, userID string, id uint) (*domain.Todo, error)
	List(ctx context.Context, userID string) ([]*domain.Todo, error)
	Update(ctx context.Context, userID string, id uint, req *domain.UpdateTodoRequest) (*domain.Todo, error)
	Delete(ctx context.Context, userID string, id uint) error
}

type todoService struct {
	todos repository.TodoRepository
}

// NewTodoService creates a new todo service.
func NewTodoService(todos repository.TodoRepository) TodoService {
	return &todoService{todos: todos}
}

func (s *todoService) Create(ctx context.Context, userID string, req *domain.CreateTodoRequest) (*domain.Todo, error) {
	model := &domain.TodoModel{
		Title:  req.Title,
		UserID: userID,
	}
	if err := s.todos.Create(ctx, model); err != nil {
		return nil, err
	}
	return model.ToTodo(), nil
}

func (s *todoService) Get(ctx context.Context, userID string, id uint) (*domain.Todo, error) {
	model, err := s.todos.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return model.ToTodo(), nil
}

func (s *todoService) List(ctx context.Context, userID string) ([]*domain.Todo, error) {
	models, err := s.todos.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	todos := make([]*domain.Todo, 0, len(models))
	for _, m := range models {
		todos = append(todos, m.ToTodo())
	}
	return todos, nil
}

func (s *todoService) Update(ctx context.Context, userID string, id uint, req *domain.UpdateTodoRequest) (*domain.Todo, error) {
	model, err := s.todos.Update(ctx, userID, id, req)
	if err != nil {
		return nil, err
	}
	return model.ToTodo(), nil
}

func (s *todoService) Delete(ctx context.Context, userID string, id uint) error {
	return s.todos.Delete(ctx, userID, id)
}
