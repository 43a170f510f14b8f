package extraction

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"legal-case-intelligence/models"
)

func writeDocx(t *testing.T, documentXML string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "contract.docx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create docx: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	if documentXML != "" {
		part, err := zw.Create("word/document.xml")
		if err != nil {
			t.Fatalf("create document part: %v", err)
		}
		if _, err := part.Write([]byte(documentXML)); err != nil {
			t.Fatalf("write document part: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return path
}

func TestOfficeAdapterStripsMarkup(t *testing.T) {
	xml := `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>TERMS   OF</w:t></w:r><w:r><w:t xml:space="preserve"> SERVICE</w:t></w:r></w:p>
    <w:p><w:r><w:t>Section 1. Liability</w:t></w:r></w:p>
  </w:body>
</w:document>`
	path := writeDocx(t, xml)

	result, err := NewOfficeAdapter().Extract(context.Background(), path, "contract.docx")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	want := "TERMS OF SERVICE\nSection 1. Liability"
	if result.ExtractedText != want {
		t.Fatalf("got %q, want %q", result.ExtractedText, want)
	}
	if result.ConfidenceScore != 0.95 {
		t.Fatalf("office confidence should be fixed at 0.95, got %f", result.ConfidenceScore)
	}
	if result.Status != models.ExtractionSuccess {
		t.Fatalf("unexpected status %s", result.Status)
	}
}

func TestOfficeAdapterEmptyDocument(t *testing.T) {
	xml := `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p></w:p></w:body></w:document>`
	path := writeDocx(t, xml)

	_, err := NewOfficeAdapter().Extract(context.Background(), path, "contract.docx")
	if err != ErrEmptyResult {
		t.Fatalf("expected ErrEmptyResult, got %v", err)
	}
}

func TestOfficeAdapterMissingDocumentPart(t *testing.T) {
	path := writeDocx(t, "")

	_, err := NewOfficeAdapter().Extract(context.Background(), path, "contract.docx")
	if err == nil {
		t.Fatalf("expected an error for a container without a document part")
	}
}
