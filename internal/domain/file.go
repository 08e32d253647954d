package domain

import "time"

// FileModel is the GORM model for the files table.
type FileModel struct {
	ID          string    `gorm:"type:varchar(36);primaryKey"`
	Filename    string    `gorm:"type:varchar(255);not null"`
	ContentType string    `gorm:"type:varchar(127);not null"`
	Size        int64     `gorm:"not null"`
	UploadedAt  time.Time `gorm:"autoCreateTime"`
}

// TableName specifies the table name for FileModel.
func (FileModel) TableName() string {
	return "files"
}

// FileMetadata is the API view of an uploaded file.
type FileMetadata struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// ToMetadata converts the model to its API view.
func (m *FileModel) ToMetadata() *FileMetadata {
	return &FileMetadata{
		ID:          m.ID,
		Filename:    m.Filename,
		ContentType: m.ContentType,
		Size:        m.Size,
		UploadedAt:  m.UploadedAt,
	}
}
