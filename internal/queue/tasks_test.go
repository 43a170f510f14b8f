package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"legal-case-intelligence/internal/extraction"
	"legal-case-intelligence/models"
)

type fakeDocStore struct {
	processed []models.Document
	updated   []models.TextExtractionResult
}

func (f *fakeDocStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeDocStore) ListProcessedByCase(ctx context.Context, caseID uuid.UUID) ([]models.Document, error) {
	return f.processed, nil
}

func (f *fakeDocStore) UpdateExtraction(ctx context.Context, id uuid.UUID, result *models.TextExtractionResult) error {
	f.updated = append(f.updated, *result)
	return nil
}

func TestProcessAnalysisBadPayloadSkipsRetry(t *testing.T) {
	p := NewTaskProcessor(nil, &fakeDocStore{}, nil, nil, nil)

	task := asynq.NewTask(TaskAnalyzeCase, []byte("{not json"))
	err := p.ProcessAnalysis(context.Background(), task)
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("malformed payload should skip retry, got %v", err)
	}
}

func TestProcessAnalysisWaitsForDocuments(t *testing.T) {
	p := NewTaskProcessor(nil, &fakeDocStore{}, nil, nil, nil)

	payload, _ := json.Marshal(AnalyzeCasePayload{CaseID: uuid.NewString()})
	task := asynq.NewTask(TaskAnalyzeCase, payload)

	err := p.ProcessAnalysis(context.Background(), task)
	if err == nil {
		t.Fatalf("no processed documents must be retryable, got nil")
	}
	if errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("empty case should retry on backoff, not skip: %v", err)
	}
}

func TestProcessExtractionTerminalFailure(t *testing.T) {
	docs := &fakeDocStore{}
	extractor := extraction.NewOrchestratorWithAdapters(
		extraction.NewTextAdapter(), nil, nil, nil, 0.5)
	p := NewTaskProcessor(extractor, docs, nil, nil, nil)

	payload, _ := json.Marshal(ExtractDocumentPayload{
		CaseID:     uuid.NewString(),
		DocumentID: uuid.NewString(),
		FilePath:   "/nonexistent/contract.txt",
		FileName:   "contract.txt",
	})
	task := asynq.NewTask(TaskExtractDocument, payload)

	if err := p.ProcessExtraction(context.Background(), task); err != nil {
		t.Fatalf("extraction failure ends in the document row, not a retry: %v", err)
	}
	if len(docs.updated) != 1 {
		t.Fatalf("extraction result should be recorded, got %d updates", len(docs.updated))
	}
	if docs.updated[0].Success {
		t.Fatalf("missing file should record a failed extraction")
	}
}
