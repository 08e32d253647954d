package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/liqtags/relaychat/internal/domain"
)

// GormTodoRepository implements TodoRepository using GORM.
type GormTodoRepository struct {
	db *gorm.DB
}

// NewGormTodoRepository creates a new GORM-based todo repository.
func NewGormTodoRepository(db *gorm.DB) *GormTodoRepository {
	return &GormTodoRepository{db: db}
}

// Create inserts a new todo item.
func (r *GormTodoRepository) Create(ctx context.Context, todo *domain.TodoModel) error {
	return r.db.WithContext(ctx).Create(todo).Error
}

// GetByID retrieves a todo by ID. A todo owned by another user is
// indistinguishable from one that does not exist.
func (r *GormTodoRepository) GetByID(ctx context.Context, userID string, id uint) (*domain.TodoModel, error) {
	var model domain.TodoModel
	result := r.db.WithContext(ctx).First(&model, "id = ? AND user_id = ?", id, userID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTodoNotFound
		}
		return nil, result.Error
	}
	return &model, nil
}

// ListByUser retrieves all todos owned by a user, newest first.
func (r *GormTodoRepository) ListByUser(ctx context.Context, userID string) ([]*domain.TodoModel, error) {
	var models []*domain.TodoModel
	result := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}
	return models, nil
}

// Update applies the non-nil fields of req to the stored todo.
func (r *GormTodoRepository) Update(ctx context.Context, userID string, id uint, req *domain.UpdateTodoRequest) (*domain.TodoModel, error) {
	model, err := r.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Completed != nil {
		updates["completed"] = *req.Completed
	}
	if len(updates) == 0 {
		return model, nil
	}

	result := r.db.WithContext(ctx).Model(model).Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	return model, nil
}

// Delete removes a todo owned by the user.
func (r *GormTodoRepository) Delete(ctx context.Context, userID string, id uint) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&domain.TodoModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTodoNotFound
	}
	return nil
}
