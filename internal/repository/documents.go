package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"legal-case-intelligence/models"
)

// DocumentRepository handles uploaded document rows and their extraction
// results.
type DocumentRepository struct {
	db *pgxpool.Pool
}

func NewDocumentRepository(db *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{db: db}
}

const documentSelect = `
	SELECT id, case_id, file_name, file_path, status, extracted_text,
		confidence, error_message, uploaded_at, processed_at
	FROM documents`

func (r *DocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	doc, err := scanDocument(r.db.QueryRow(ctx, documentSelect+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("document %s: %w", id, ErrNotFound)
	}
	return doc, err
}

// ListProcessedByCase returns every document of the case whose text
// extraction succeeded, oldest first.
func (r *DocumentRepository) ListProcessedByCase(ctx context.Context, caseID uuid.UUID) ([]models.Document, error) {
	query := documentSelect + `
		WHERE case_id = $1 AND status = $2
		ORDER BY uploaded_at ASC`

	rows, err := r.db.Query(ctx, query, caseID, models.DocumentProcessed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

// UpdateExtraction records the outcome of text extraction on the row.
func (r *DocumentRepository) UpdateExtraction(ctx context.Context, id uuid.UUID, result *models.TextExtractionResult) error {
	status := models.DocumentProcessed
	errorMessage := ""
	if !result.Success {
		status = models.DocumentFailed
		if msg, ok := result.Metadata["error"].(string); ok {
			errorMessage = msg
		}
	}

	query := `
		UPDATE documents SET
			status = $2,
			extracted_text = $3,
			confidence = $4,
			error_message = $5,
			processed_at = $6
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, status, result.ExtractedText,
		result.ConfidenceScore, errorMessage, time.Now())
	return err
}

func scanDocument(row rowScanner) (*models.Document, error) {
	doc := &models.Document{}
	err := row.Scan(
		&doc.ID,
		&doc.CaseID,
		&doc.FileName,
		&doc.FilePath,
		&doc.Status,
		&doc.ExtractedText,
		&doc.Confidence,
		&doc.ErrorMessage,
		&doc.UploadedAt,
		&doc.ProcessedAt,
	)
	if err != nil {
		return nil, err
	}
	return doc, nil
}
