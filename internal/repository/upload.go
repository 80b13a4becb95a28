package repository

import (
	"github.com/jmoiron/sqlx"

	"github.com/edgehub/ingestd/internal/model"
)

type UploadRepository interface {
	Create(upload *model.Upload) error
	Recent(limit int) ([]*model.Upload, error)
}

type uploadRepository struct {
	db *sqlx.DB
}

func NewUploadRepository(db *sqlx.DB) *uploadRepository {
	return &uploadRepository{db: db}
}

func (r *uploadRepository) Create(upload *model.Upload) error {
	query := `INSERT INTO uploads (id, filename, storage_key, content_type, size, source, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(query,
		upload.ID,
		upload.Filename,
		upload.StorageKey,
		upload.ContentType,
		upload.Size,
		upload.Source,
		upload.CreatedAt,
	)

	return err
}

func (r *uploadRepository) Recent(limit int) ([]*model.Upload, error) {
	var uploads []*model.Upload
	query := `SELECT * FROM uploads ORDER BY created_at DESC LIMIT $1`

	err := r.db.Select(&uploads, query, limit)
	if err != nil {
		return nil, err
	}

	return uploads, nil
}
