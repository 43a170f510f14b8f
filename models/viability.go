package models

import (
	"time"

	"github.com/google/uuid"
)

// ViabilityAssessment is the structured output of a one-shot facts/charges/
// evidence assessment. It is tied to a case but not to any document.
type ViabilityAssessment struct {
	ID                  uuid.UUID `json:"id"`
	CaseID              uuid.UUID `json:"case_id"`
	ViabilityScore      int       `json:"viability_score"` // 0..100
	StrengthFactors     []string  `json:"strength_factors"`
	WeaknessFactors     []string  `json:"weakness_factors"`
	EvidenceStrength    float64   `json:"evidence_strength"` // 0..1
	Reasoning           string    `json:"reasoning"`
	RecommendedStrategy string    `json:"recommended_strategy"`
	RawText             string    `json:"raw_text"`
	CreatedAt           time.Time `json:"created_at"`
}
