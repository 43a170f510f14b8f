package extraction

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func floatPtr(v float64) *float64 { return &v }

func TestOCREmptyProviderResultIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success": true, "text": "", "blocks": []}`))
	}))
	defer srv.Close()

	adapter := &OCRAdapter{httpClient: srv.Client(), baseURL: srv.URL, defaultConfidence: 0.5}

	path := filepath.Join(t.TempDir(), "scan.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	_, err := adapter.Extract(context.Background(), path, "scan.pdf")
	if !errors.Is(err, ErrEmptyResult) {
		t.Fatalf("provider success with no recognized text must map to ErrEmptyResult, got %v", err)
	}
}

func TestOCRResultReadingOrder(t *testing.T) {
	adapter := &OCRAdapter{defaultConfidence: 0.5}

	// Blocks arrive out of emission order: page 2 first, and within page 1
	// the lower block before the upper one.
	resp := &ocrResponse{
		Success: true,
		Blocks: []ocrBlock{
			{Text: "page two line", Confidence: floatPtr(0.9), Page: 2, Bbox: []float64{0, 10, 100, 12}},
			{Text: "signature block", Confidence: floatPtr(0.8), Page: 1, Bbox: []float64{0, 700, 100, 12}},
			{Text: "CASE CAPTION", Confidence: floatPtr(0.95), Page: 1, Bbox: []float64{0, 20, 100, 12}},
		},
	}

	result := adapter.toResult(resp)

	if len(result.Pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(result.Pages))
	}
	if result.Pages[0].PageNumber != 1 || result.Pages[1].PageNumber != 2 {
		t.Fatalf("pages not ordered: %+v", result.Pages)
	}

	blocks := result.Pages[0].TextBlocks
	if blocks[0].Text != "CASE CAPTION" || blocks[1].Text != "signature block" {
		t.Fatalf("blocks not ordered by vertical position: %+v", blocks)
	}
}

func TestOCRResultDefaultsPageAndConfidence(t *testing.T) {
	adapter := &OCRAdapter{defaultConfidence: 0.5}

	resp := &ocrResponse{
		Success: true,
		Blocks: []ocrBlock{
			// No page, no confidence reported by the engine.
			{Text: "orphan line", Bbox: []float64{0, 5, 50, 10}},
		},
	}

	result := adapter.toResult(resp)

	if len(result.Pages) != 1 || result.Pages[0].PageNumber != 1 {
		t.Fatalf("unpaged block should land on page 1: %+v", result.Pages)
	}
	if got := result.Pages[0].TextBlocks[0].Confidence; got != 0.5 {
		t.Fatalf("missing confidence should take the configured default, got %f", got)
	}
}
