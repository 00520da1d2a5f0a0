package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rezonia/docingest/internal/model"
)

// PostgresDocumentRepository is the pgx-backed DocumentRepository.
type PostgresDocumentRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresDocumentRepository(pool *pgxpool.Pool) *PostgresDocumentRepository {
	return &PostgresDocumentRepository{pool: pool}
}

func (r *PostgresDocumentRepository) Create(ctx context.Context, doc *model.Document) error {
	const q = `
		INSERT INTO documents (id, filename, content_hash, file_size_bytes, file_type, blob_uri, status, method, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.pool.Exec(ctx, q,
		doc.ID, doc.Filename, doc.ContentHash, doc.FileSizeBytes, doc.FileType,
		doc.BlobURI, doc.Status, doc.Method, doc.CreatedAt)
	if err != nil {
		return &model.StorageError{Op: "insert document", Cause: err}
	}
	return nil
}

func (r *PostgresDocumentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Document, error) {
	const q = `
		SELECT id, filename, content_hash, file_size_bytes, file_type, blob_uri, status, method,
		       page_count, error_message, extraction_method, ocr_processed, created_at
		FROM documents WHERE id = $1`
	return r.scanOne(r.pool.QueryRow(ctx, q, id))
}

func (r *PostgresDocumentRepository) GetByContentHash(ctx context.Context, contentHash string) (*model.Document, error) {
	const q = `
		SELECT id, filename, content_hash, file_size_bytes, file_type, blob_uri, status, method,
		       page_count, error_message, extraction_method, ocr_processed, created_at
		FROM documents WHERE content_hash = $1`
	return r.scanOne(r.pool.QueryRow(ctx, q, contentHash))
}

func (r *PostgresDocumentRepository) scanOne(row pgx.Row) (*model.Document, error) {
	var d model.Document
	err := row.Scan(&d.ID, &d.Filename, &d.ContentHash, &d.FileSizeBytes, &d.FileType,
		&d.BlobURI, &d.Status, &d.Method, &d.PageCount, &d.ErrorMessage,
		&d.ExtractionMethod, &d.OCRProcessed, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, &model.StorageError{Op: "select document", Cause: err}
	}
	return &d, nil
}

func (r *PostgresDocumentRepository) List(ctx context.Context, limit, offset int) ([]model.Document, error) {
	const q = `
		SELECT id, filename, content_hash, file_size_bytes, file_type, blob_uri, status, method,
		       page_count, error_message, extraction_method, ocr_processed, created_at
		FROM documents ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, &model.StorageError{Op: "list documents", Cause: err}
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		var d model.Document
		if err := rows.Scan(&d.ID, &d.Filename, &d.ContentHash, &d.FileSizeBytes, &d.FileType,
			&d.BlobURI, &d.Status, &d.Method, &d.PageCount, &d.ErrorMessage,
			&d.ExtractionMethod, &d.OCRProcessed, &d.CreatedAt); err != nil {
			return nil, &model.StorageError{Op: "scan document row", Cause: err}
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (r *PostgresDocumentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.DocumentStatus, errorMessage *string) error {
	const q = `UPDATE documents SET status = $2, error_message = $3 WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id, status, errorMessage)
	if err != nil {
		return &model.StorageError{Op: "update document status", Cause: err}
	}
	return nil
}

func (r *PostgresDocumentRepository) Complete(ctx context.Context, id uuid.UUID, pageCount int, method model.ExtractionMethod, ocrProcessed bool) error {
	const q = `
		UPDATE documents
		SET status = $2, page_count = $3, extraction_method = $4, ocr_processed = $5
		WHERE id = $1`
	methodStr := string(method)
	_, err := r.pool.Exec(ctx, q, id, model.DocumentCompleted, pageCount, methodStr, ocrProcessed)
	if err != nil {
		return &model.StorageError{Op: "complete document", Cause: err}
	}
	return nil
}
