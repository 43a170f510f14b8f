package models

import (
	"time"

	"github.com/google/uuid"
)

// Analysis lifecycle status constants
const (
	AnalysisProcessing = "processing"
	AnalysisCompleted  = "completed"
	AnalysisFailed     = "failed"
)

// Recommendation priority constants
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// CaseAnalysis is the relational tracking record for one analysis attempt.
// A row is created in processing state before the AI call starts and is
// updated in place to a terminal state; rows are never deleted.
type CaseAnalysis struct {
	ID                 uuid.UUID          `json:"id"`
	CaseID             uuid.UUID          `json:"case_id"`
	DocumentID         uuid.UUID          `json:"document_id"`
	Status             string             `json:"status"`
	ViabilityScore     int                `json:"viability_score"`  // 0..100
	ConfidenceScore    float64            `json:"confidence_score"` // 0..1
	AnalysisText       string             `json:"analysis_text"`
	KeyLegalIssues     []string           `json:"key_legal_issues"`
	PotentialDefenses  []string           `json:"potential_defenses"`
	EvidenceEvaluation EvidenceEvaluation `json:"evidence_evaluation"`
	Recommendations    []Recommendation   `json:"recommendations"`
	TokensUsed         int                `json:"tokens_used"`
	ErrorMessage       string             `json:"error_message,omitempty"`
	DetailWritePending bool               `json:"detail_write_pending"`
	CreatedAt          time.Time          `json:"created_at"`
	CompletedAt        *time.Time         `json:"completed_at,omitempty"`
	ProcessingTime     time.Duration      `json:"processing_time"`
}

// EvidenceEvaluation summarizes how well the available evidence holds up.
type EvidenceEvaluation struct {
	StrengthScore            float64  `json:"strength_score" bson:"strength_score"` // 0..1
	StrongEvidence           []string `json:"strong_evidence" bson:"strong_evidence"`
	WeakEvidence             []string `json:"weak_evidence" bson:"weak_evidence"`
	EvidenceGaps             []string `json:"evidence_gaps" bson:"evidence_gaps"`
	AdditionalEvidenceNeeded []string `json:"additional_evidence_needed" bson:"additional_evidence_needed"`
}

// Recommendation is a single suggested action for the case team.
type Recommendation struct {
	Action      string  `json:"action" bson:"action"`
	Rationale   string  `json:"rationale" bson:"rationale"`
	Priority    string  `json:"priority" bson:"priority"`
	ImpactScore float64 `json:"impact_score" bson:"impact_score"` // 0..1
}
