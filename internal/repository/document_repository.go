package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nathanieluriri/marcus-cleaning-backend/internal/models"
)

var ErrDocumentNotFound = errors.New("document not found")

// DocumentRepository persists cleaner verification document records.
type DocumentRepository struct {
	db *sqlx.DB
}

func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	query := `
		INSERT INTO documents (id, cleaner_id, file_path, mime_type, size_bytes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	err := r.db.QueryRowxContext(
		ctx, query, doc.ID, doc.CleanerID, doc.FilePath, doc.MimeType, doc.SizeBytes,
	).Scan(&doc.CreatedAt)
	if err != nil {
		return fmt.Errorf("document repository: insert: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	var doc models.Document
	query := `SELECT id, cleaner_id, file_path, mime_type, size_bytes, created_at FROM documents WHERE id = $1`
	if err := r.db.GetContext(ctx, &doc, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("document repository: get: %w", err)
	}
	return &doc, nil
}

func (r *DocumentRepository) ListByCleaner(ctx context.Context, cleanerID uuid.UUID) ([]models.Document, error) {
	docs := []models.Document{}
	query := `SELECT id, cleaner_id, file_path, mime_type, size_bytes, created_at FROM documents WHERE cleaner_id = $1 ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &docs, query, cleanerID); err != nil {
		return nil, fmt.Errorf("document repository: list: %w", err)
	}
	return docs, nil
}

func (r *DocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("document repository: delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrDocumentNotFound
	}
	return nil
}
