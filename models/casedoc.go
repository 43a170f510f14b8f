package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CaseDocument is the per-case aggregate stored in the document store. It
// holds the full denormalized analysis history for rich retrieval; the
// relational tracking rows remain the source of truth for lifecycle state.
type CaseDocument struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	CaseID         string               `bson:"case_id" json:"case_id"`
	OwnerID        string               `bson:"owner_id" json:"owner_id"`
	Analyses       []CaseAnalysisResult `bson:"analyses" json:"analyses"`
	TotalAnalyses  int                  `bson:"total_analyses" json:"total_analyses"`
	LastAnalyzedAt *time.Time           `bson:"last_analyzed_at,omitempty" json:"last_analyzed_at,omitempty"`
	CreatedAt      time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time            `bson:"updated_at" json:"updated_at"`
}

// CaseAnalysisResult is the detailed denormalized copy of a completed
// CaseAnalysis kept inside the case aggregate.
type CaseAnalysisResult struct {
	AnalysisID         string             `bson:"analysis_id" json:"analysis_id"`
	DocumentID         string             `bson:"document_id" json:"document_id"`
	Status             string             `bson:"status" json:"status"`
	ViabilityScore     int                `bson:"viability_score" json:"viability_score"`
	ConfidenceScore    float64            `bson:"confidence_score" json:"confidence_score"`
	AnalysisText       string             `bson:"analysis_text" json:"analysis_text"`
	KeyLegalIssues     []string           `bson:"key_legal_issues" json:"key_legal_issues"`
	PotentialDefenses  []string           `bson:"potential_defenses" json:"potential_defenses"`
	EvidenceEvaluation EvidenceEvaluation `bson:"evidence_evaluation" json:"evidence_evaluation"`
	Recommendations    []Recommendation   `bson:"recommendations" json:"recommendations"`
	CompletedAt        time.Time          `bson:"completed_at" json:"completed_at"`
}

// UpsertAnalysis inserts the result into the aggregate's analysis list,
// replacing any existing entry with the same analysis id so repeated
// persistence of one analysis never duplicates it.
func (d *CaseDocument) UpsertAnalysis(result CaseAnalysisResult, now time.Time) {
	for i := range d.Analyses {
		if d.Analyses[i].AnalysisID == result.AnalysisID {
			d.Analyses[i] = result
			d.UpdatedAt = now
			d.LastAnalyzedAt = &now
			return
		}
	}
	d.Analyses = append(d.Analyses, result)
	d.TotalAnalyses = len(d.Analyses)
	d.LastAnalyzedAt = &now
	d.UpdatedAt = now
}

// ResultFromAnalysis projects a tracking record into its detailed form.
func ResultFromAnalysis(a *CaseAnalysis, completedAt time.Time) CaseAnalysisResult {
	return CaseAnalysisResult{
		AnalysisID:         a.ID.String(),
		DocumentID:         a.DocumentID.String(),
		Status:             a.Status,
		ViabilityScore:     a.ViabilityScore,
		ConfidenceScore:    a.ConfidenceScore,
		AnalysisText:       a.AnalysisText,
		KeyLegalIssues:     a.KeyLegalIssues,
		PotentialDefenses:  a.PotentialDefenses,
		EvidenceEvaluation: a.EvidenceEvaluation,
		Recommendations:    a.Recommendations,
		CompletedAt:        completedAt,
	}
}
