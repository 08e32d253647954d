package service

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/google/uuid"

	"github.com/liqtags/relaychat/internal/audit"
	"github.com/liqtags/relaychat/internal/domain"
	"github.com/liqtags/relaychat/internal/repository"
	"github.com/liqtags/relaychat/pkg/storage"
)

// FileService stores uploaded files and their metadata.
type FileService interface {
	Upload(ctx context.Context, userID, filename, contentType string, size int64, r io.Reader) (*domain.FileMetadata, error)
	Get(ctx context.Context, id string) (*domain.FileMetadata, io.ReadCloser, error)
}

type fileService struct {
	files repository.FileRepository
	store storage.Storage
}

// NewFileService creates a new file service.
func NewFileService(files repository.FileRepository, store storage.Storage) FileService {
	return &fileService{files: files, store: store}
}

// Upload writes the file body to storage under a fresh ID and records
// its metadata. The stored key keeps the original extension so the
// content can be served with a sensible name.
func (s *fileService) Upload(ctx context.Context, userID, filename, contentType string, size int64, r io.Reader) (*domain.FileMetadata, error) {
	id := uuid.New().String()
	key := id + path.Ext(filename)

	if err := s.store.Write(ctx, key, r, size, contentType); err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	model := &domain.FileModel{
		ID:          id,
		Filename:    filename,
		ContentType: contentType,
		Size:        size,
	}
	if err := s.files.Create(ctx, model); err != nil {
		// Best effort: do not leave an orphaned blob behind.
		_ = s.store.Delete(ctx, key)
		return nil, err
	}

	audit.LogWithDetail(ctx, audit.ActionUpload, userID, "file_id", id)
	return model.ToMetadata(), nil
}

// Get returns metadata and an open reader for the stored content.
// The caller owns closing the reader.
func (s *fileService) Get(ctx context.Context, id string) (*domain.FileMetadata, io.ReadCloser, error) {
	model, err := s.files.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	rc, err := s.store.Read(ctx, id+path.Ext(model.Filename))
	if err != nil {
		return nil, nil, fmt.Errorf("read upload: %w", err)
	}
	return model.ToMetadata(), rc, nil
}
