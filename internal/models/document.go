package models

import (
	"time"

	"github.com/google/uuid"
)

// Document is a verification file a cleaner uploaded during onboarding.
type Document struct {
	ID        uuid.UUID `db:"id" json:"id"`
	CleanerID uuid.UUID `db:"cleaner_id" json:"cleaner_id"`
	FilePath  string    `db:"file_path" json:"file_path"`
	MimeType  string    `db:"mime_type" json:"mime_type"`
	SizeBytes int64     `db:"size_bytes" json:"size_bytes"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
