package extraction

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"legal-case-intelligence/internal/config"
	"legal-case-intelligence/internal/logger"
	"legal-case-intelligence/models"
)

var (
	textExtensions   = map[string]bool{".txt": true}
	officeExtensions = map[string]bool{".docx": true}
	ocrExtensions    = map[string]bool{
		".pdf": true, ".png": true, ".jpg": true, ".jpeg": true,
		".gif": true, ".bmp": true, ".tiff": true, ".tif": true,
	}
)

// Orchestrator picks the adapter for a file by extension, runs the
// fallback chain and normalizes the outcome. It never returns an error:
// every failure mode resolves to a TextExtractionResult with a status.
type Orchestrator struct {
	text              Adapter
	office            Adapter
	ocr               Adapter
	pdfFallback       Adapter
	defaultConfidence float64
}

func NewOrchestrator(cfg *config.Config) *Orchestrator {
	return &Orchestrator{
		text:              NewTextAdapter(),
		office:            NewOfficeAdapter(),
		ocr:               NewOCRAdapter(cfg),
		pdfFallback:       NewPDFAdapter(),
		defaultConfidence: cfg.DefaultConfidence,
	}
}

// NewOrchestratorWithAdapters wires explicit adapters; used by tests.
func NewOrchestratorWithAdapters(text, office, ocr, pdfFallback Adapter, defaultConfidence float64) *Orchestrator {
	return &Orchestrator{
		text:              text,
		office:            office,
		ocr:               ocr,
		pdfFallback:       pdfFallback,
		defaultConfidence: defaultConfidence,
	}
}

// Extract runs the extraction chain for one file.
func (o *Orchestrator) Extract(ctx context.Context, filePath, fileName string) *models.TextExtractionResult {
	start := time.Now()
	ext := strings.ToLower(filepath.Ext(fileName))

	if !textExtensions[ext] && !officeExtensions[ext] && !ocrExtensions[ext] {
		result := &models.TextExtractionResult{
			Status: models.ExtractionUnsupportedFormat,
		}
		result.SetMetadata("extension", ext)
		return result
	}

	if err := Stat(filePath); err != nil {
		result := &models.TextExtractionResult{Status: models.ExtractionFailed}
		result.SetMetadata("error", err.Error())
		return result
	}

	var result *models.TextExtractionResult
	switch {
	case textExtensions[ext]:
		result = o.runAdapter(ctx, o.text, filePath, fileName)
	case officeExtensions[ext]:
		result = o.runAdapter(ctx, o.office, filePath, fileName)
	default:
		result = o.extractWithOCR(ctx, filePath, fileName, ext)
	}

	o.normalize(result)
	result.SetMetadata("processing_ms", time.Since(start).Milliseconds())
	return result
}

// extractWithOCR tries the cloud provider first. Provider-level failures on
// PDFs fall back to the local text-layer parser; images have no fallback.
func (o *Orchestrator) extractWithOCR(ctx context.Context, filePath, fileName, ext string) *models.TextExtractionResult {
	result := o.runAdapter(ctx, o.ocr, filePath, fileName)
	if result.Success || ext != ".pdf" {
		return result
	}
	if result.Status == models.ExtractionUnsupportedFormat {
		return result
	}
	// File-not-found is not a provider problem; retrying locally won't help.
	if msg, ok := result.Metadata["error"].(string); ok && strings.Contains(msg, "file not found") {
		return result
	}

	logger.Warn("cloud OCR failed for PDF, trying local text-layer fallback",
		"file", fileName, "status", result.Status)

	fallback := o.runAdapter(ctx, o.pdfFallback, filePath, fileName)
	fallback.SetMetadata("fallback_used", true)
	if fallback.Success {
		fallback.ConfidenceScore = pdfFallbackConfidence
	}
	return fallback
}

// runAdapter translates adapter errors into the failure taxonomy.
func (o *Orchestrator) runAdapter(ctx context.Context, adapter Adapter, filePath, fileName string) *models.TextExtractionResult {
	result, err := adapter.Extract(ctx, filePath, fileName)
	if err == nil {
		result.SetMetadata("adapter", adapter.Name())
		return result
	}

	status := models.ExtractionProcessingError
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrEmptyResult):
		status = models.ExtractionFailed
	case errors.Is(err, ErrUnsupportedFormat):
		status = models.ExtractionUnsupportedFormat
	}

	logger.Warn("extraction adapter failed",
		"adapter", adapter.Name(), "file", fileName, "status", status, "error", err)

	failed := &models.TextExtractionResult{Status: status}
	failed.SetMetadata("adapter", adapter.Name())
	failed.SetMetadata("error", err.Error())
	return failed
}

// normalize enforces the downstream contract: confidence in [0,1] on the
// result and every page, pages in ascending order, and a quality score for
// operator diagnostics.
func (o *Orchestrator) normalize(result *models.TextExtractionResult) {
	if !result.Success {
		return
	}

	if result.ConfidenceScore <= 0 {
		result.ConfidenceScore = o.defaultConfidence
	}
	result.ConfidenceScore = clamp01(result.ConfidenceScore)

	for i := range result.Pages {
		if result.Pages[i].Confidence <= 0 {
			result.Pages[i].Confidence = o.defaultConfidence
		}
		result.Pages[i].Confidence = clamp01(result.Pages[i].Confidence)
	}
	result.SortPages()

	result.SetMetadata("quality_score", evaluateTextQuality(result.ExtractedText))
}

// Stat reports whether the file exists before any adapter is invoked.
func Stat(filePath string) error {
	if _, err := os.Stat(filePath); err != nil {
		return fmt.Errorf("%w: %s", ErrNotFound, filePath)
	}
	return nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// evaluateTextQuality is a rough signal for how clean an extraction came
// out. It only feeds metadata, never the status decision.
func evaluateTextQuality(text string) float64 {
	text = strings.TrimSpace(text)
	if len(text) < 10 {
		return 0.1
	}

	var alphanumeric, printable, corrupted int
	runes := []rune(text)
	for _, r := range runes {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			alphanumeric++
			printable++
		case r == '�':
			corrupted++
		case r >= 32 || r == '\n' || r == '\t':
			printable++
		}
	}

	total := float64(len(runes))
	score := float64(printable)/total*0.5 + float64(alphanumeric)/total*0.5 - float64(corrupted)/total*2.0
	return clamp01(score)
}
