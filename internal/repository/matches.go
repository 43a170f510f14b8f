package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"legal-case-intelligence/models"
)

// MatchRepository stores the similarity match set per case.
type MatchRepository struct {
	db *pgxpool.Pool
}

func NewMatchRepository(db *pgxpool.Pool) *MatchRepository {
	return &MatchRepository{db: db}
}

// ReplaceForCase swaps the case's match set atomically: old matches go,
// the freshly ranked set takes their place.
func (r *MatchRepository) ReplaceForCase(ctx context.Context, caseID uuid.UUID, matches []models.CaseMatch) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM case_matches WHERE source_case_id = $1`, caseID); err != nil {
		return fmt.Errorf("failed to clear old matches: %w", err)
	}

	if len(matches) > 0 {
		rows := make([][]any, 0, len(matches))
		for _, m := range matches {
			rows = append(rows, []any{
				m.ID, m.SourceCaseID, m.MatchedCaseID, m.Citation, m.Title,
				m.SimilarityScore, m.IsPrecedent, m.ConfidenceLevel, m.CreatedAt,
			})
		}

		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"case_matches"},
			[]string{"id", "source_case_id", "matched_case_id", "citation", "title",
				"similarity_score", "is_precedent", "confidence_level", "created_at"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return fmt.Errorf("failed to insert matches: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// ListByCase returns the stored match set, best first.
func (r *MatchRepository) ListByCase(ctx context.Context, caseID uuid.UUID) ([]models.CaseMatch, error) {
	query := `
		SELECT id, source_case_id, matched_case_id, citation, title,
			similarity_score, is_precedent, confidence_level, created_at
		FROM case_matches
		WHERE source_case_id = $1
		ORDER BY similarity_score DESC`

	rows, err := r.db.Query(ctx, query, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []models.CaseMatch
	for rows.Next() {
		var m models.CaseMatch
		err := rows.Scan(
			&m.ID, &m.SourceCaseID, &m.MatchedCaseID, &m.Citation, &m.Title,
			&m.SimilarityScore, &m.IsPrecedent, &m.ConfidenceLevel, &m.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}
