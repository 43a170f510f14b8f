package models

import (
	"time"

	"github.com/google/uuid"
)

// CaseMatch links a source case to an externally found similar case. Only
// matches that clear the caller's minimum similarity threshold are persisted.
type CaseMatch struct {
	ID              uuid.UUID `json:"id"`
	SourceCaseID    uuid.UUID `json:"source_case_id"`
	MatchedCaseID   string    `json:"matched_case_id"`
	Citation        string    `json:"citation"`
	Title           string    `json:"title"`
	SimilarityScore float64   `json:"similarity_score"` // 0..1
	IsPrecedent     bool      `json:"is_precedent"`
	ConfidenceLevel float64   `json:"confidence_level"` // 0..1
	CreatedAt       time.Time `json:"created_at"`
}

// PrecedentCandidate is one result returned by the external precedent search.
type PrecedentCandidate struct {
	CaseID       string    `json:"case_id"`
	Citation     string    `json:"citation"`
	Title        string    `json:"title"`
	Summary      string    `json:"summary"`
	FullText     string    `json:"full_text"`
	Jurisdiction string    `json:"jurisdiction"`
	CourtName    string    `json:"court_name"`
	DecisionDate time.Time `json:"decision_date"`
}

// MatchingCriteria is an operator-configurable rule used to bias similarity
// matching. It is configuration, not pipeline output.
type MatchingCriteria struct {
	ID        uuid.UUID `json:"id"`
	Field     string    `json:"field"`
	Operator  string    `json:"operator"`
	Threshold float64   `json:"threshold"`
	Weight    float64   `json:"weight"`
	Priority  int       `json:"priority"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
