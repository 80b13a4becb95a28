package model

import (
	"time"
)

// Upload records one simple-mode file ingestion. StorageKey is the blob key
// of the form uploads/{timestamp}-{filename}.
type Upload struct {
	ID          string    `db:"id"`
	Filename    string    `db:"filename"`
	StorageKey  string    `db:"storage_key"`
	ContentType string    `db:"content_type"`
	Size        int64     `db:"size"`
	Source      string    `db:"source"`
	CreatedAt   time.Time `db:"created_at"`
}
