package models

import "sort"

// Extraction status constants
const (
	ExtractionSuccess           = "success"
	ExtractionFailed            = "failed"
	ExtractionUnsupportedFormat = "unsupported_format"
	ExtractionProcessingError   = "processing_error"
)

// TextExtractionResult is the normalized output of one extraction attempt,
// regardless of which adapter produced it.
type TextExtractionResult struct {
	Success         bool                   `json:"success"`
	ExtractedText   string                 `json:"extracted_text"`
	ConfidenceScore float64                `json:"confidence_score"` // 0..1
	Status          string                 `json:"status"`
	Pages           []TextPage             `json:"pages,omitempty"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
}

// TextPage holds the text recovered from a single page.
type TextPage struct {
	PageNumber int         `json:"page_number"` // 1-based
	Text       string      `json:"text"`
	Confidence float64     `json:"confidence"` // 0..1
	TextBlocks []TextBlock `json:"text_blocks,omitempty"`
}

// TextBlock is a positioned fragment of text within a page.
type TextBlock struct {
	Text        string      `json:"text"`
	Confidence  float64     `json:"confidence"`
	BoundingBox BoundingBox `json:"bounding_box"`
}

// BoundingBox locates a text block on its page.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// SortPages orders pages ascending by page number and, within each page,
// orders blocks top to bottom so text reads in natural order.
func (r *TextExtractionResult) SortPages() {
	sort.SliceStable(r.Pages, func(i, j int) bool {
		return r.Pages[i].PageNumber < r.Pages[j].PageNumber
	})
	for p := range r.Pages {
		blocks := r.Pages[p].TextBlocks
		sort.SliceStable(blocks, func(i, j int) bool {
			return blocks[i].BoundingBox.Y < blocks[j].BoundingBox.Y
		})
	}
}

// SetMetadata initializes the metadata map on first use.
func (r *TextExtractionResult) SetMetadata(key string, value interface{}) {
	if r.Metadata == nil {
		r.Metadata = make(map[string]interface{})
	}
	r.Metadata[key] = value
}
