package extraction

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"

	"legal-case-intelligence/models"
)

const docxConfidence = 0.95

// OfficeAdapter extracts text from office documents: unzip the container,
// locate the main document XML part, strip markup and collapse whitespace.
type OfficeAdapter struct{}

func NewOfficeAdapter() *OfficeAdapter {
	return &OfficeAdapter{}
}

func (a *OfficeAdapter) Name() string {
	return "office"
}

func (a *OfficeAdapter) Extract(ctx context.Context, filePath, fileName string) (*models.TextExtractionResult, error) {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, ErrNotFound
	}

	archive, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open document container: %w", err)
	}
	defer archive.Close()

	var docPart *zip.File
	for _, f := range archive.File {
		if f.Name == "word/document.xml" {
			docPart = f
			break
		}
	}
	if docPart == nil {
		return nil, fmt.Errorf("%w: no document part in container", ErrProvider)
	}

	rc, err := docPart.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open document part: %w", err)
	}
	defer rc.Close()

	text, err := stripDocumentXML(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document XML: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyResult
	}

	return &models.TextExtractionResult{
		Success:         true,
		ExtractedText:   text,
		ConfidenceScore: docxConfidence,
		Status:          models.ExtractionSuccess,
		Pages: []models.TextPage{
			{PageNumber: 1, Text: text, Confidence: docxConfidence},
		},
	}, nil
}

// stripDocumentXML walks the XML token stream, keeping character data and
// turning paragraph boundaries into newlines. Runs of whitespace collapse
// to a single space within lines.
func stripDocumentXML(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)

	var sb strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.EndElement:
			if t.Name.Local == "p" {
				sb.WriteString("\n")
			}
		}
	}

	return collapseWhitespace(sb.String()), nil
}

func collapseWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
