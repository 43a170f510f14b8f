package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestUpsertAnalysisIdempotent(t *testing.T) {
	doc := &CaseDocument{CaseID: uuid.NewString(), OwnerID: uuid.NewString()}
	analysisID := uuid.NewString()
	t0 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Minute)

	doc.UpsertAnalysis(CaseAnalysisResult{AnalysisID: analysisID, ViabilityScore: 40}, t0)
	doc.UpsertAnalysis(CaseAnalysisResult{AnalysisID: analysisID, ViabilityScore: 72}, t1)

	if len(doc.Analyses) != 1 {
		t.Fatalf("repeated upsert of one analysis must not duplicate it, got %d entries", len(doc.Analyses))
	}
	if doc.Analyses[0].ViabilityScore != 72 {
		t.Fatalf("replacement should keep the newest result, got score %d", doc.Analyses[0].ViabilityScore)
	}
	if doc.TotalAnalyses != 1 {
		t.Fatalf("total = %d, want 1", doc.TotalAnalyses)
	}
	if doc.LastAnalyzedAt == nil || !doc.LastAnalyzedAt.Equal(t1) {
		t.Fatalf("last analyzed at not advanced: %v", doc.LastAnalyzedAt)
	}
}

func TestUpsertAnalysisAppendsDistinct(t *testing.T) {
	doc := &CaseDocument{CaseID: uuid.NewString()}
	now := time.Now()

	doc.UpsertAnalysis(CaseAnalysisResult{AnalysisID: uuid.NewString()}, now)
	doc.UpsertAnalysis(CaseAnalysisResult{AnalysisID: uuid.NewString()}, now)

	if len(doc.Analyses) != 2 || doc.TotalAnalyses != 2 {
		t.Fatalf("distinct analyses should accumulate, got %d entries total=%d", len(doc.Analyses), doc.TotalAnalyses)
	}
}
