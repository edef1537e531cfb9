package models

import (
	"time"

	"github.com/google/uuid"
)

// Media is an uploaded file stored under the configured storage root.
type Media struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	FileName    string     `gorm:"column:file_name;not null"`
	StorageKey  string     `gorm:"column:storage_key;not null;uniqueIndex"`
	ContentType string     `gorm:"column:content_type;not null"`
	SizeBytes   int64      `gorm:"column:size_bytes;not null"`
	URL         string     `gorm:"column:url;not null"`
	UploadedBy  *uuid.UUID `gorm:"column:uploaded_by;type:uuid"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
}
