package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"legal-case-intelligence/internal/ai"
	"legal-case-intelligence/internal/logger"
	"legal-case-intelligence/models"
)

// AnalysisStore is the relational tracking-record store. Tracking writes
// are fatal to the operation; they are the source of truth for lifecycle
// state.
type AnalysisStore interface {
	Create(ctx context.Context, analysis *models.CaseAnalysis) error
	Update(ctx context.Context, analysis *models.CaseAnalysis) error
	SetDetailWritePending(ctx context.Context, id uuid.UUID, pending bool) error
}

// CaseStore reads case metadata and receives back-propagated summaries.
type CaseStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Case, error)
	UpdateAnalysisSummary(ctx context.Context, id uuid.UUID, description string, probability float64) error
}

// DocumentStore reads uploaded documents and their extracted text.
type DocumentStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error)
	ListProcessedByCase(ctx context.Context, caseID uuid.UUID) ([]models.Document, error)
}

// CaseDocumentStore is the document-oriented aggregate store. Writes here
// are an enrichment layer: best-effort, never fatal.
type CaseDocumentStore interface {
	UpsertAnalysisResult(ctx context.Context, caseID, ownerID uuid.UUID, result models.CaseAnalysisResult) error
}

// Generator produces analysis text from a prompt.
type Generator interface {
	Invoke(ctx context.Context, prompt string) (*ai.AIResponse, error)
}

// Service drives one document through analysis: tracking row first, then
// the AI call, then the terminal update and the detailed-store write. That
// order is the only cross-store consistency mechanism, so it is fixed.
type Service struct {
	analyses AnalysisStore
	cases    CaseStore
	docs     DocumentStore
	caseDocs CaseDocumentStore
	invoker  Generator
	parser   Parser
	now      func() time.Time
}

func NewService(analyses AnalysisStore, cases CaseStore, docs DocumentStore, caseDocs CaseDocumentStore, invoker Generator) *Service {
	return &Service{
		analyses: analyses,
		cases:    cases,
		docs:     docs,
		caseDocs: caseDocs,
		invoker:  invoker,
		parser:   NewParser(),
		now:      time.Now,
	}
}

// WithClock overrides the service clock; used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// AnalyzeDocument runs the full pipeline for one document. The returned
// CaseAnalysis always reflects what was persisted; the error is non-nil
// only for failures worth retrying (tracking-store writes, AI transport).
func (s *Service) AnalyzeDocument(ctx context.Context, caseID, documentID uuid.UUID) (*models.CaseAnalysis, error) {
	kase, err := s.cases.GetByID(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load case %s: %w", caseID, err)
	}

	doc, err := s.docs.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load document %s: %w", documentID, err)
	}

	started := s.now()
	analysis := &models.CaseAnalysis{
		ID:         uuid.New(),
		CaseID:     caseID,
		DocumentID: documentID,
		Status:     models.AnalysisProcessing,
		CreatedAt:  started,
	}

	// The tracking row must exist before the AI call so a crash mid-flight
	// leaves a recoverable stuck record instead of a silent loss.
	if err := s.analyses.Create(ctx, analysis); err != nil {
		return nil, fmt.Errorf("failed to create tracking record: %w", err)
	}

	if strings.TrimSpace(doc.ExtractedText) == "" {
		s.finalizeFailure(ctx, analysis, "document has no extractable text", started)
		return analysis, nil
	}

	prompt := ai.BuildAnalysisPrompt(kase.Title, doc.ExtractedText)
	resp, err := s.invoker.Invoke(ctx, prompt)
	if err != nil {
		msg := "AI analysis failed"
		if resp != nil && resp.ErrorMessage != "" {
			msg = resp.ErrorMessage
		}
		s.finalizeFailure(ctx, analysis, msg, started)
		return analysis, err
	}

	fields := s.parser.ParseCaseAnalysis(resp.GeneratedText)
	completed := s.now()

	analysis.Status = models.AnalysisCompleted
	analysis.ViabilityScore = fields.ViabilityScore
	analysis.ConfidenceScore = resp.ConfidenceScore
	analysis.TokensUsed = resp.TokensUsed
	analysis.AnalysisText = resp.GeneratedText
	analysis.KeyLegalIssues = fields.KeyLegalIssues
	analysis.PotentialDefenses = fields.PotentialDefenses
	analysis.EvidenceEvaluation = fields.Evidence
	analysis.Recommendations = fields.Recommendations
	analysis.CompletedAt = &completed
	analysis.ProcessingTime = completed.Sub(started)

	if err := s.analyses.Update(ctx, analysis); err != nil {
		return analysis, fmt.Errorf("failed to update tracking record %s: %w", analysis.ID, err)
	}

	s.persistDetail(ctx, kase.OwnerID, analysis, completed)
	return analysis, nil
}

// finalizeFailure moves the tracking row to its terminal failed state. The
// row itself is the user-visible failure; no error escapes from here.
func (s *Service) finalizeFailure(ctx context.Context, analysis *models.CaseAnalysis, message string, started time.Time) {
	completed := s.now()
	analysis.Status = models.AnalysisFailed
	analysis.ViabilityScore = 0
	analysis.ErrorMessage = message
	analysis.CompletedAt = &completed
	analysis.ProcessingTime = completed.Sub(started)

	if err := s.analyses.Update(ctx, analysis); err != nil {
		logger.Error("failed to persist failed analysis state",
			"analysis_id", analysis.ID, "error", err)
	}
}

// persistDetail upserts the denormalized result into the case aggregate.
// Failures are logged and flagged for the reconciler, never propagated:
// the tracking row already holds the authoritative state.
func (s *Service) persistDetail(ctx context.Context, ownerID uuid.UUID, analysis *models.CaseAnalysis, completedAt time.Time) {
	result := models.ResultFromAnalysis(analysis, completedAt)
	if err := s.caseDocs.UpsertAnalysisResult(ctx, analysis.CaseID, ownerID, result); err != nil {
		logger.Error("detailed analysis write failed, flagging for retry",
			"analysis_id", analysis.ID, "case_id", analysis.CaseID, "error", err)
		if flagErr := s.analyses.SetDetailWritePending(ctx, analysis.ID, true); flagErr != nil {
			logger.Error("failed to flag pending detail write",
				"analysis_id", analysis.ID, "error", flagErr)
		}
		return
	}

	// Clear any stale flag from an earlier failed attempt.
	if analysis.DetailWritePending {
		if err := s.analyses.SetDetailWritePending(ctx, analysis.ID, false); err != nil {
			logger.Warn("failed to clear detail write flag", "analysis_id", analysis.ID, "error", err)
		}
		analysis.DetailWritePending = false
	}
}

// RetryDetailWrite replays a previously failed aggregate write from the
// tracking row. Used by the reconciler.
func (s *Service) RetryDetailWrite(ctx context.Context, analysis *models.CaseAnalysis) error {
	kase, err := s.cases.GetByID(ctx, analysis.CaseID)
	if err != nil {
		return fmt.Errorf("failed to load case %s: %w", analysis.CaseID, err)
	}

	completedAt := s.now()
	if analysis.CompletedAt != nil {
		completedAt = *analysis.CompletedAt
	}

	result := models.ResultFromAnalysis(analysis, completedAt)
	if err := s.caseDocs.UpsertAnalysisResult(ctx, analysis.CaseID, kase.OwnerID, result); err != nil {
		return err
	}
	return s.analyses.SetDetailWritePending(ctx, analysis.ID, false)
}

// UpdateCaseSummary back-propagates the latest successful analysis onto the
// case record.
func (s *Service) UpdateCaseSummary(ctx context.Context, analysis *models.CaseAnalysis) error {
	summary := summaryFromAnalysis(analysis)
	probability := float64(analysis.ViabilityScore) / 100.0
	return s.cases.UpdateAnalysisSummary(ctx, analysis.CaseID, summary, probability)
}

func summaryFromAnalysis(analysis *models.CaseAnalysis) string {
	if len(analysis.KeyLegalIssues) > 0 {
		return fmt.Sprintf("Key issues: %s", strings.Join(analysis.KeyLegalIssues, "; "))
	}

	text := strings.TrimSpace(analysis.AnalysisText)
	if len(text) > 280 {
		text = text[:280]
	}
	return text
}

// AssessViability runs the standalone facts/charges/evidence assessment.
// It is tied to the case but not to any document and is returned to the
// caller rather than entering the tracking store.
func (s *Service) AssessViability(ctx context.Context, caseID uuid.UUID, facts, charges string, evidence []string) (*models.ViabilityAssessment, error) {
	if _, err := s.cases.GetByID(ctx, caseID); err != nil {
		return nil, fmt.Errorf("failed to load case %s: %w", caseID, err)
	}

	prompt := ai.BuildViabilityPrompt(facts, charges, evidence)
	resp, err := s.invoker.Invoke(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("viability assessment failed: %w", err)
	}

	fields := s.parser.ParseViabilityAssessment(resp.GeneratedText)
	return &models.ViabilityAssessment{
		ID:                  uuid.New(),
		CaseID:              caseID,
		ViabilityScore:      fields.ViabilityScore,
		StrengthFactors:     fields.StrengthFactors,
		WeaknessFactors:     fields.WeaknessFactors,
		EvidenceStrength:    fields.EvidenceStrength,
		Reasoning:           fields.Reasoning,
		RecommendedStrategy: fields.RecommendedStrategy,
		RawText:             resp.GeneratedText,
		CreatedAt:           s.now(),
	}, nil
}
