package extraction

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"legal-case-intelligence/models"
)

type fakeAdapter struct {
	name   string
	result *models.TextExtractionResult
	err    error
	calls  int
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) Extract(ctx context.Context, filePath, fileName string) (*models.TextExtractionResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	// Shallow copy so callers can mutate freely.
	r := *f.result
	return &r, nil
}

func newTestOrchestrator(text, office, ocr, pdfFallback Adapter) *Orchestrator {
	return NewOrchestratorWithAdapters(text, office, ocr, pdfFallback, 0.5)
}

func tempFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("placeholder content"), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestExtractUnsupportedExtension(t *testing.T) {
	ocr := &fakeAdapter{name: "ocr"}
	o := newTestOrchestrator(&fakeAdapter{name: "text"}, &fakeAdapter{name: "office"}, ocr, &fakeAdapter{name: "pdf"})

	result := o.Extract(context.Background(), "/tmp/whatever.xyz", "whatever.xyz")

	if result.Status != models.ExtractionUnsupportedFormat {
		t.Fatalf("expected unsupported_format, got %s", result.Status)
	}
	if result.Success {
		t.Fatalf("unsupported format must not be a success")
	}
	if ocr.calls != 0 {
		t.Fatalf("no adapter should run for unsupported extensions, ocr ran %d times", ocr.calls)
	}
}

func TestExtractTextFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("plaintiff filed a motion"), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	o := NewOrchestratorWithAdapters(NewTextAdapter(), NewOfficeAdapter(), &fakeAdapter{name: "ocr"}, NewPDFAdapter(), 0.5)
	result := o.Extract(context.Background(), path, "notes.txt")

	if !result.Success || result.Status != models.ExtractionSuccess {
		t.Fatalf("expected success, got status=%s metadata=%v", result.Status, result.Metadata)
	}
	if result.ConfidenceScore != 1.0 {
		t.Fatalf("plain text confidence should be fixed at 1.0, got %f", result.ConfidenceScore)
	}
	if result.ExtractedText != "plaintiff filed a motion" {
		t.Fatalf("unexpected text: %q", result.ExtractedText)
	}
}

func TestExtractMissingTextFile(t *testing.T) {
	o := NewOrchestratorWithAdapters(NewTextAdapter(), NewOfficeAdapter(), &fakeAdapter{name: "ocr"}, NewPDFAdapter(), 0.5)
	result := o.Extract(context.Background(), "/nonexistent/notes.txt", "notes.txt")

	if result.Status != models.ExtractionFailed {
		t.Fatalf("missing file should be failed, got %s", result.Status)
	}
}

func TestExtractMissingFileSkipsAdapters(t *testing.T) {
	ocr := &fakeAdapter{name: "ocr"}
	fallback := &fakeAdapter{name: "pdf-local"}
	o := newTestOrchestrator(&fakeAdapter{name: "text"}, &fakeAdapter{name: "office"}, ocr, fallback)

	result := o.Extract(context.Background(), "/nonexistent/brief.pdf", "brief.pdf")

	if result.Status != models.ExtractionFailed {
		t.Fatalf("missing file should be failed, got %s", result.Status)
	}
	if ocr.calls != 0 || fallback.calls != 0 {
		t.Fatalf("no adapter should run for a missing file: ocr=%d fallback=%d", ocr.calls, fallback.calls)
	}
}

func TestPDFFallbackAfterOCRFailure(t *testing.T) {
	ocr := &fakeAdapter{name: "ocr", err: ErrProvider}
	fallback := &fakeAdapter{
		name: "pdf-local",
		result: &models.TextExtractionResult{
			Success:         true,
			ExtractedText:   "recovered from text layer",
			ConfidenceScore: 0.7,
			Status:          models.ExtractionSuccess,
			Pages:           []models.TextPage{{PageNumber: 1, Text: "recovered from text layer", Confidence: 0.7}},
		},
	}
	o := newTestOrchestrator(&fakeAdapter{name: "text"}, &fakeAdapter{name: "office"}, ocr, fallback)

	result := o.Extract(context.Background(), tempFile(t, "brief.pdf"), "brief.pdf")

	if !result.Success {
		t.Fatalf("fallback success should surface as success, got status=%s", result.Status)
	}
	if result.ConfidenceScore != 0.7 {
		t.Fatalf("fallback confidence should be 0.7, got %f", result.ConfidenceScore)
	}
	if used, _ := result.Metadata["fallback_used"].(bool); !used {
		t.Fatalf("fallback_used metadata not set: %v", result.Metadata)
	}
	if fallback.calls != 1 {
		t.Fatalf("fallback should run exactly once, ran %d times", fallback.calls)
	}
}

func TestPDFFallbackEmptyIsFailed(t *testing.T) {
	ocr := &fakeAdapter{name: "ocr", err: ErrProvider}
	fallback := &fakeAdapter{name: "pdf-local", err: ErrEmptyResult}
	o := newTestOrchestrator(&fakeAdapter{name: "text"}, &fakeAdapter{name: "office"}, ocr, fallback)

	result := o.Extract(context.Background(), tempFile(t, "scan.pdf"), "scan.pdf")

	if result.Status != models.ExtractionFailed {
		t.Fatalf("empty fallback should be failed, got %s", result.Status)
	}
	if used, _ := result.Metadata["fallback_used"].(bool); !used {
		t.Fatalf("fallback_used metadata not set: %v", result.Metadata)
	}
}

func TestNoFallbackForImages(t *testing.T) {
	ocr := &fakeAdapter{name: "ocr", err: ErrProvider}
	fallback := &fakeAdapter{name: "pdf-local"}
	o := newTestOrchestrator(&fakeAdapter{name: "text"}, &fakeAdapter{name: "office"}, ocr, fallback)

	result := o.Extract(context.Background(), tempFile(t, "photo.png"), "photo.png")

	if result.Status != models.ExtractionProcessingError {
		t.Fatalf("image provider failure should be processing_error, got %s", result.Status)
	}
	if fallback.calls != 0 {
		t.Fatalf("the local PDF parser must not run for images")
	}
}

func TestNormalizeOrdersPagesAndFillsConfidence(t *testing.T) {
	ocr := &fakeAdapter{
		name: "ocr",
		result: &models.TextExtractionResult{
			Success:       true,
			ExtractedText: "body",
			Status:        models.ExtractionSuccess,
			Pages: []models.TextPage{
				{PageNumber: 3, Text: "third", Confidence: 0.9},
				{PageNumber: 1, Text: "first"}, // no native confidence
				{PageNumber: 2, Text: "second", Confidence: 0.8},
			},
		},
	}
	o := newTestOrchestrator(&fakeAdapter{name: "text"}, &fakeAdapter{name: "office"}, ocr, &fakeAdapter{name: "pdf"})

	result := o.Extract(context.Background(), tempFile(t, "brief.pdf"), "brief.pdf")

	for i, page := range result.Pages {
		if page.PageNumber != i+1 {
			t.Fatalf("pages not sorted ascending: %+v", result.Pages)
		}
		if page.Confidence < 0 || page.Confidence > 1 {
			t.Fatalf("page %d confidence out of range: %f", page.PageNumber, page.Confidence)
		}
	}
	if result.Pages[0].Confidence != 0.5 {
		t.Fatalf("missing confidence should take the configured default, got %f", result.Pages[0].Confidence)
	}
	if result.ConfidenceScore < 0 || result.ConfidenceScore > 1 {
		t.Fatalf("result confidence out of range: %f", result.ConfidenceScore)
	}
}
