package extraction

import (
	"context"
	"errors"

	"legal-case-intelligence/models"
)

// Failure sentinels for callers that need to branch on extraction outcome.
// The orchestrator itself never returns them - every branch resolves to a
// TextExtractionResult - but adapters use them internally.
var (
	ErrNotFound          = errors.New("extraction: file not found")
	ErrEmptyResult       = errors.New("extraction: no text extracted")
	ErrUnsupportedFormat = errors.New("extraction: unsupported file format")
	ErrProvider          = errors.New("extraction: provider error")
)

// Adapter converts one file shape into normalized text, pages and
// confidence. Implementations must be safe for concurrent use.
type Adapter interface {
	Name() string
	Extract(ctx context.Context, filePath, fileName string) (*models.TextExtractionResult, error)
}
