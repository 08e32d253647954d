package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/liqtags/relaychat/internal/domain"
)

// GormFileRepository implements FileRepository using GORM.
type GormFileRepository struct {
	db *gorm.DB
}

// NewGormFileRepository creates a new GORM-based file repository.
func NewGormFileRepository(db *gorm.DB) *GormFileRepository {
	return &GormFileRepository{db: db}
}

// Create inserts upload metadata.
func (r *GormFileRepository) Create(ctx context.Context, file *domain.FileModel) error {
	return r.db.WithContext(ctx).Create(file).Error
}

// GetByID retrieves upload metadata by ID.
func (r *GormFileRepository) GetByID(ctx context.Context, id string) (*domain.FileModel, error) {
	var model domain.FileModel
	result := r.db.WithContext(ctx).First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrFileNotFound
		}
		return nil, result.Error
	}
	return &model, nil
}
