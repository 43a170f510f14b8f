package extraction

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"

	"legal-case-intelligence/internal/logger"
	"legal-case-intelligence/models"
)

// Fixed confidence for the local text-layer parser. It recovers whatever
// the PDF embeds but cannot see scanned content, so it sits well below the
// cloud OCR provider.
const pdfFallbackConfidence = 0.7

// PDFAdapter reads the embedded text layer of a PDF. It is the local
// fallback used when the cloud OCR provider fails.
type PDFAdapter struct{}

func NewPDFAdapter() *PDFAdapter {
	return &PDFAdapter{}
}

func (a *PDFAdapter) Name() string {
	return "pdf-local"
}

func (a *PDFAdapter) Extract(ctx context.Context, filePath, fileName string) (*models.TextExtractionResult, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read PDF file: %w", err)
	}

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create PDF reader: %v", ErrProvider, err)
	}

	var textBuilder strings.Builder
	var pages []models.TextPage

	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		fonts := make(map[string]*pdf.Font)
		text, err := page.GetPlainText(fonts)
		if err != nil {
			logger.Warn("failed to extract text from PDF page", "page", i, "error", err)
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		pages = append(pages, models.TextPage{
			PageNumber: i,
			Text:       text,
			Confidence: pdfFallbackConfidence,
		})
		textBuilder.WriteString(text)
		textBuilder.WriteString("\n")
	}

	extracted := textBuilder.String()
	if strings.TrimSpace(extracted) == "" {
		return nil, ErrEmptyResult
	}

	return &models.TextExtractionResult{
		Success:         true,
		ExtractedText:   extracted,
		ConfidenceScore: pdfFallbackConfidence,
		Status:          models.ExtractionSuccess,
		Pages:           pages,
	}, nil
}
