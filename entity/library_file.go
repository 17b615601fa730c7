package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	DocumentsTable    = "documents"
	CompanyFilesTable = "company_files"
)

// LibraryFile is a row of either the documents or the company_files table.
// Category is only populated for company files.
type LibraryFile struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name       string    `json:"name" gorm:"type:varchar(512);not null"`
	Path       string    `json:"path" gorm:"type:varchar(1024);not null"`
	FolderPath string    `json:"folder_path" gorm:"type:varchar(1024);not null;index"`
	Category   string    `json:"category,omitempty" gorm:"type:varchar(64)"`
	FileURL    string    `json:"file_url" gorm:"type:text"`
	FileSize   int64     `json:"file_size"`
	MimeType   string    `json:"mime_type" gorm:"type:varchar(255)"`
	OwnerID    uuid.UUID `json:"owner_id" gorm:"type:uuid;not null;index"`
	CreatedAt  time.Time `json:"created_at" gorm:"not null;autoCreateTime"`
	UpdatedAt  time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
