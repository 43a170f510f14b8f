package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"legal-case-intelligence/models"
)

// AnalysisRepository handles the relational analysis tracking rows.
type AnalysisRepository struct {
	db *pgxpool.Pool
}

func NewAnalysisRepository(db *pgxpool.Pool) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// Create inserts the tracking row. Only lifecycle fields are set at this
// point; the structured results are filled in by Update.
func (r *AnalysisRepository) Create(ctx context.Context, a *models.CaseAnalysis) error {
	query := `
		INSERT INTO case_analyses (
			id, case_id, document_id, status, created_at
		) VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.Exec(ctx, query, a.ID, a.CaseID, a.DocumentID, a.Status, a.CreatedAt)
	return err
}

// Update writes the terminal state of an analysis in place.
func (r *AnalysisRepository) Update(ctx context.Context, a *models.CaseAnalysis) error {
	evidence, err := json.Marshal(a.EvidenceEvaluation)
	if err != nil {
		return fmt.Errorf("failed to encode evidence evaluation: %w", err)
	}
	recommendations, err := json.Marshal(a.Recommendations)
	if err != nil {
		return fmt.Errorf("failed to encode recommendations: %w", err)
	}

	query := `
		UPDATE case_analyses SET
			status = $2,
			viability_score = $3,
			confidence_score = $4,
			analysis_text = $5,
			key_legal_issues = $6,
			potential_defenses = $7,
			evidence_evaluation = $8,
			recommendations = $9,
			tokens_used = $10,
			error_message = $11,
			completed_at = $12,
			processing_time_ms = $13
		WHERE id = $1`

	_, err = r.db.Exec(ctx, query,
		a.ID,
		a.Status,
		a.ViabilityScore,
		a.ConfidenceScore,
		a.AnalysisText,
		a.KeyLegalIssues,
		a.PotentialDefenses,
		evidence,
		recommendations,
		a.TokensUsed,
		a.ErrorMessage,
		a.CompletedAt,
		a.ProcessingTime.Milliseconds(),
	)
	return err
}

// SetDetailWritePending flags or clears a row whose document-store write
// still needs to be replayed.
func (r *AnalysisRepository) SetDetailWritePending(ctx context.Context, id uuid.UUID, pending bool) error {
	query := `UPDATE case_analyses SET detail_write_pending = $2 WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id, pending)
	return err
}

// GetByID loads one tracking row.
func (r *AnalysisRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.CaseAnalysis, error) {
	query := analysisSelect + ` WHERE id = $1`
	return scanAnalysis(r.db.QueryRow(ctx, query, id))
}

// ListStuckProcessing returns rows still in processing state that started
// before the cutoff. These are crash leftovers for the reconciler.
func (r *AnalysisRepository) ListStuckProcessing(ctx context.Context, cutoff time.Time) ([]models.CaseAnalysis, error) {
	query := analysisSelect + `
		WHERE status = $1 AND created_at < $2
		ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query, models.AnalysisProcessing, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAnalyses(rows)
}

// ListDetailWritePending returns completed rows whose document-store write
// failed and is waiting for a replay.
func (r *AnalysisRepository) ListDetailWritePending(ctx context.Context, limit int) ([]models.CaseAnalysis, error) {
	query := analysisSelect + `
		WHERE detail_write_pending AND status = $1
		ORDER BY created_at ASC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, models.AnalysisCompleted, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAnalyses(rows)
}

const analysisSelect = `
	SELECT id, case_id, document_id, status, viability_score, confidence_score,
		analysis_text, key_legal_issues, potential_defenses, evidence_evaluation,
		recommendations, tokens_used, error_message, detail_write_pending,
		created_at, completed_at, processing_time_ms
	FROM case_analyses`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(row rowScanner) (*models.CaseAnalysis, error) {
	a := &models.CaseAnalysis{}
	var evidence, recommendations []byte
	var processingMs int64

	err := row.Scan(
		&a.ID,
		&a.CaseID,
		&a.DocumentID,
		&a.Status,
		&a.ViabilityScore,
		&a.ConfidenceScore,
		&a.AnalysisText,
		&a.KeyLegalIssues,
		&a.PotentialDefenses,
		&evidence,
		&recommendations,
		&a.TokensUsed,
		&a.ErrorMessage,
		&a.DetailWritePending,
		&a.CreatedAt,
		&a.CompletedAt,
		&processingMs,
	)
	if err != nil {
		return nil, err
	}

	if len(evidence) > 0 {
		if err := json.Unmarshal(evidence, &a.EvidenceEvaluation); err != nil {
			return nil, fmt.Errorf("failed to decode evidence evaluation: %w", err)
		}
	}
	if len(recommendations) > 0 {
		if err := json.Unmarshal(recommendations, &a.Recommendations); err != nil {
			return nil, fmt.Errorf("failed to decode recommendations: %w", err)
		}
	}
	a.ProcessingTime = time.Duration(processingMs) * time.Millisecond
	return a, nil
}

func collectAnalyses(rows pgx.Rows) ([]models.CaseAnalysis, error) {
	var analyses []models.CaseAnalysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		analyses = append(analyses, *a)
	}
	return analyses, rows.Err()
}
