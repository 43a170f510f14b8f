package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"legal-case-intelligence/internal/analysis"
	"legal-case-intelligence/internal/extraction"
	"legal-case-intelligence/internal/logger"
	"legal-case-intelligence/internal/similarity"
	"legal-case-intelligence/internal/telemetry"
	"legal-case-intelligence/models"
)

const (
	TaskExtractDocument = "document:extract"
	TaskAnalyzeCase     = "analysis:case"
)

type ExtractDocumentPayload struct {
	CaseID     string `json:"case_id"`
	DocumentID string `json:"document_id"`
	FilePath   string `json:"file_path"`
	FileName   string `json:"file_name"`
}

type AnalyzeCasePayload struct {
	CaseID string `json:"case_id"`
}

// NewExtractDocumentTask queues text extraction for one uploaded file.
func NewExtractDocumentTask(caseID, documentID uuid.UUID, filePath, fileName string, maxRetry int) (*asynq.Task, error) {
	payload, err := json.Marshal(ExtractDocumentPayload{
		CaseID:     caseID.String(),
		DocumentID: documentID.String(),
		FilePath:   filePath,
		FileName:   fileName,
	})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskExtractDocument,
		payload,
		asynq.MaxRetry(maxRetry),
		asynq.Timeout(10*time.Minute),
		asynq.Queue("critical"),
	), nil
}

// NewAnalyzeCaseTask queues AI analysis over a case's processed documents.
func NewAnalyzeCaseTask(caseID uuid.UUID, maxRetry int) (*asynq.Task, error) {
	payload, err := json.Marshal(AnalyzeCasePayload{CaseID: caseID.String()})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskAnalyzeCase,
		payload,
		asynq.MaxRetry(maxRetry),
		asynq.Timeout(15*time.Minute),
		asynq.Queue("default"),
	), nil
}

// DocumentUpdater records extraction outcomes and lists analyzable docs.
type DocumentUpdater interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error)
	ListProcessedByCase(ctx context.Context, caseID uuid.UUID) ([]models.Document, error)
	UpdateExtraction(ctx context.Context, id uuid.UUID, result *models.TextExtractionResult) error
}

// TaskProcessor handles the pipeline's queued work.
type TaskProcessor struct {
	extractor *extraction.Orchestrator
	docs      DocumentUpdater
	service   *analysis.Service
	matcher   *similarity.Engine
	enqueuer  *Enqueuer
	metrics   *telemetry.Metrics
}

func NewTaskProcessor(extractor *extraction.Orchestrator, docs DocumentUpdater, service *analysis.Service, matcher *similarity.Engine, enqueuer *Enqueuer) *TaskProcessor {
	return &TaskProcessor{
		extractor: extractor,
		docs:      docs,
		service:   service,
		matcher:   matcher,
		enqueuer:  enqueuer,
	}
}

// WithMetrics attaches pipeline instruments.
func (p *TaskProcessor) WithMetrics(m *telemetry.Metrics) *TaskProcessor {
	p.metrics = m
	return p
}

// ProcessExtraction runs text extraction and, on success, schedules the
// case analysis after the configured settle delay.
func (p *TaskProcessor) ProcessExtraction(ctx context.Context, t *asynq.Task) error {
	var payload ExtractDocumentPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %w", asynq.SkipRetry)
	}

	caseID, err := uuid.Parse(payload.CaseID)
	if err != nil {
		return fmt.Errorf("bad case id %q: %w", payload.CaseID, asynq.SkipRetry)
	}
	documentID, err := uuid.Parse(payload.DocumentID)
	if err != nil {
		return fmt.Errorf("bad document id %q: %w", payload.DocumentID, asynq.SkipRetry)
	}

	logger.Info("extracting document text",
		"case_id", caseID, "document_id", documentID, "file", payload.FileName)

	started := time.Now()
	result := p.extractor.Extract(ctx, payload.FilePath, payload.FileName)
	p.metrics.RecordExtraction(ctx, result.Status, time.Since(started).Seconds())

	if err := p.docs.UpdateExtraction(ctx, documentID, result); err != nil {
		return fmt.Errorf("failed to record extraction result: %w", err)
	}

	if !result.Success {
		// The document row carries the failure; nothing left to retry.
		logger.Warn("extraction failed",
			"document_id", documentID, "status", result.Status)
		return nil
	}

	if err := p.enqueuer.ScheduleAnalysis(ctx, caseID); err != nil {
		return fmt.Errorf("failed to schedule analysis: %w", err)
	}
	return nil
}

// ProcessAnalysis analyzes every processed document of the case and
// back-propagates the latest result onto the case record.
func (p *TaskProcessor) ProcessAnalysis(ctx context.Context, t *asynq.Task) error {
	var payload AnalyzeCasePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %w", asynq.SkipRetry)
	}

	caseID, err := uuid.Parse(payload.CaseID)
	if err != nil {
		return fmt.Errorf("bad case id %q: %w", payload.CaseID, asynq.SkipRetry)
	}

	docs, err := p.docs.ListProcessedByCase(ctx, caseID)
	if err != nil {
		return fmt.Errorf("failed to list documents for case %s: %w", caseID, err)
	}
	if len(docs) == 0 {
		// Extraction may still be in flight; let the retry backoff wait it out.
		return fmt.Errorf("case %s has no processed documents yet", caseID)
	}

	var last *models.CaseAnalysis
	for _, doc := range docs {
		a, err := p.service.AnalyzeDocument(ctx, caseID, doc.ID)
		if err != nil {
			return fmt.Errorf("analysis of document %s failed: %w", doc.ID, err)
		}
		p.metrics.RecordAnalysis(ctx, a.Status, a.ProcessingTime.Seconds(), a.TokensUsed)
		if a.Status == models.AnalysisCompleted {
			last = a
		}
	}

	if last != nil {
		if err := p.service.UpdateCaseSummary(ctx, last); err != nil {
			logger.Error("failed to back-propagate case summary",
				"case_id", caseID, "error", err)
		}

		// Refresh the similar-case set now that the analysis changed the
		// case description. Match failures never fail the analysis task.
		if p.matcher != nil {
			if _, err := p.matcher.FindSimilar(ctx, caseID, "", 5, 0); err != nil {
				logger.Warn("similar-case refresh failed", "case_id", caseID, "error", err)
			}
		}
	}

	logger.Info("case analysis completed", "case_id", caseID, "documents", len(docs))
	return nil
}
