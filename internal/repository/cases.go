package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"legal-case-intelligence/models"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("record not found")

// CaseRepository handles the relational case rows.
type CaseRepository struct {
	db *pgxpool.Pool
}

func NewCaseRepository(db *pgxpool.Pool) *CaseRepository {
	return &CaseRepository{db: db}
}

func (r *CaseRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Case, error) {
	kase := &models.Case{}
	query := `
		SELECT id, owner_id, title, description, jurisdiction,
			probability_of_success, created_at, updated_at
		FROM cases
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&kase.ID,
		&kase.OwnerID,
		&kase.Title,
		&kase.Description,
		&kase.Jurisdiction,
		&kase.ProbabilityOfSuccess,
		&kase.CreatedAt,
		&kase.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("case %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return kase, nil
}

// UpdateAnalysisSummary back-propagates the latest analysis outcome onto
// the case row.
func (r *CaseRepository) UpdateAnalysisSummary(ctx context.Context, id uuid.UUID, description string, probability float64) error {
	query := `
		UPDATE cases SET
			description = $2,
			probability_of_success = $3,
			updated_at = NOW()
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, description, probability)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("case %s: %w", id, ErrNotFound)
	}
	return nil
}
