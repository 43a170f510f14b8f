package models

import (
	"time"

	"github.com/google/uuid"
)

// Document processing status constants
const (
	DocumentPending    = "pending"
	DocumentProcessing = "processing"
	DocumentProcessed  = "processed"
	DocumentFailed     = "failed"
)

// Case is the relational case record. Only the fields the analysis pipeline
// reads or back-propagates live here; full case CRUD belongs to the
// application layer.
type Case struct {
	ID                   uuid.UUID `json:"id"`
	OwnerID              uuid.UUID `json:"owner_id"`
	Title                string    `json:"title"`
	Description          string    `json:"description"`
	Jurisdiction         string    `json:"jurisdiction"`
	ProbabilityOfSuccess float64   `json:"probability_of_success"` // 0..1
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// Document is an uploaded case file plus the outcome of its extraction.
type Document struct {
	ID            uuid.UUID  `json:"id"`
	CaseID        uuid.UUID  `json:"case_id"`
	FileName      string     `json:"file_name"`
	FilePath      string     `json:"file_path"`
	Status        string     `json:"status"`
	ExtractedText string     `json:"extracted_text"`
	Confidence    float64    `json:"confidence"`
	ErrorMessage  string     `json:"error_message,omitempty"`
	UploadedAt    time.Time  `json:"uploaded_at"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
}
