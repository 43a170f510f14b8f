package extraction

import (
	"context"
	"fmt"
	"os"
	"strings"

	"legal-case-intelligence/models"
)

// TextAdapter reads plain-text files verbatim. Nothing can be lost in
// transit, so confidence is fixed at 1.0.
type TextAdapter struct{}

func NewTextAdapter() *TextAdapter {
	return &TextAdapter{}
}

func (a *TextAdapter) Name() string {
	return "text"
}

func (a *TextAdapter) Extract(ctx context.Context, filePath, fileName string) (*models.TextExtractionResult, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read text file: %w", err)
	}

	text := string(content)
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyResult
	}

	return &models.TextExtractionResult{
		Success:         true,
		ExtractedText:   text,
		ConfidenceScore: 1.0,
		Status:          models.ExtractionSuccess,
		Pages: []models.TextPage{
			{PageNumber: 1, Text: text, Confidence: 1.0},
		},
	}, nil
}
