package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"

	"legal-case-intelligence/internal/config"
	"legal-case-intelligence/models"
)

// OCRAdapter talks to the cloud document-intelligence service. The provider
// returns line/block text with page numbers, bounding boxes and per-block
// confidence.
type OCRAdapter struct {
	httpClient          *http.Client
	baseURL             string
	confidenceThreshold float64
	defaultConfidence   float64
}

// ocrResponse is the provider's wire shape.
type ocrResponse struct {
	Success bool       `json:"success"`
	Text    string     `json:"text"`
	Blocks  []ocrBlock `json:"blocks"`
	Pages   int        `json:"pages"`
	Error   string     `json:"error,omitempty"`
}

type ocrBlock struct {
	Text       string    `json:"text"`
	Confidence *float64  `json:"confidence"` // nil when the engine reports none
	Page       int       `json:"page"`
	Bbox       []float64 `json:"bbox"` // x, y, w, h
}

type ocrHealthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
}

func NewOCRAdapter(cfg *config.Config) *OCRAdapter {
	baseURL := cfg.OCRServiceURL
	if baseURL == "" {
		baseURL = "http://localhost:8001"
	}

	return &OCRAdapter{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.OCRTimeout) * time.Second,
		},
		baseURL:             baseURL,
		confidenceThreshold: cfg.OCRConfidenceThreshold,
		defaultConfidence:   cfg.DefaultConfidence,
	}
}

func (a *OCRAdapter) Name() string {
	return "cloud-ocr"
}

// IsHealthy checks if the OCR service is up and its model is loaded.
func (a *OCRAdapter) IsHealthy(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", a.baseURL+"/health", nil)
	if err != nil {
		return false, fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("health check request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("OCR service unhealthy: status %d", resp.StatusCode)
	}

	var health ocrHealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return false, fmt.Errorf("failed to decode health response: %w", err)
	}

	return health.Status == "healthy" && health.ModelLoaded, nil
}

func (a *OCRAdapter) Extract(ctx context.Context, filePath, fileName string) (*models.TextExtractionResult, error) {
	fileData, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	ocrResp, err := a.submit(ctx, fileData, fileName)
	if err != nil {
		return nil, err
	}

	result := a.toResult(ocrResp)
	// The provider can report success with nothing recognized; an empty
	// extraction is a failure, not a success with no text.
	if strings.TrimSpace(result.ExtractedText) == "" {
		return nil, fmt.Errorf("%w: provider recognized no text in %s", ErrEmptyResult, fileName)
	}
	return result, nil
}

func (a *OCRAdapter) submit(ctx context.Context, fileData []byte, fileName string) (*ocrResponse, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	fileWriter, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(fileWriter, bytes.NewReader(fileData)); err != nil {
		return nil, fmt.Errorf("failed to copy file data: %w", err)
	}
	writer.WriteField("confidence_threshold", fmt.Sprintf("%.2f", a.confidenceThreshold))
	writer.Close()

	httpReq, err := http.NewRequestWithContext(ctx, "POST", a.baseURL+"/ocr/extract", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create OCR request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: OCR request failed: %v", ErrProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: OCR request failed with status %d: %s", ErrProvider, resp.StatusCode, string(body))
	}

	var ocrResp ocrResponse
	if err := json.NewDecoder(resp.Body).Decode(&ocrResp); err != nil {
		return nil, fmt.Errorf("%w: failed to decode OCR response: %v", ErrProvider, err)
	}

	if !ocrResp.Success {
		return nil, fmt.Errorf("%w: OCR processing failed: %s", ErrProvider, ocrResp.Error)
	}

	return &ocrResp, nil
}

// toResult groups blocks by page number (page 1 when the engine reports
// none), orders blocks top to bottom by bounding box, and fills in the
// configured default confidence where the engine reported no score.
func (a *OCRAdapter) toResult(resp *ocrResponse) *models.TextExtractionResult {
	byPage := make(map[int][]models.TextBlock)
	for _, block := range resp.Blocks {
		pageNum := block.Page
		if pageNum < 1 {
			pageNum = 1
		}

		confidence := a.defaultConfidence
		if block.Confidence != nil {
			confidence = *block.Confidence
		}

		box := models.BoundingBox{}
		if len(block.Bbox) >= 4 {
			box = models.BoundingBox{X: block.Bbox[0], Y: block.Bbox[1], Width: block.Bbox[2], Height: block.Bbox[3]}
		}

		byPage[pageNum] = append(byPage[pageNum], models.TextBlock{
			Text:        block.Text,
			Confidence:  confidence,
			BoundingBox: box,
		})
	}

	result := &models.TextExtractionResult{
		Success: true,
		Status:  models.ExtractionSuccess,
	}

	for pageNum, blocks := range byPage {
		result.Pages = append(result.Pages, models.TextPage{
			PageNumber: pageNum,
			Confidence: averageConfidence(blocks),
			TextBlocks: blocks,
		})
	}
	result.SortPages()

	// Rebuild page text from ordered blocks so the reading order survives
	// regardless of the engine's emission order.
	var all bytes.Buffer
	for p := range result.Pages {
		var pageText bytes.Buffer
		for _, b := range result.Pages[p].TextBlocks {
			pageText.WriteString(b.Text)
			pageText.WriteString("\n")
		}
		result.Pages[p].Text = pageText.String()
		all.WriteString(result.Pages[p].Text)
	}

	result.ExtractedText = all.String()
	if result.ExtractedText == "" {
		result.ExtractedText = resp.Text
	}
	result.ConfidenceScore = pageAverageConfidence(result.Pages)
	if len(result.Pages) == 0 {
		result.ConfidenceScore = a.defaultConfidence
		if resp.Text != "" {
			result.Pages = []models.TextPage{
				{PageNumber: 1, Text: resp.Text, Confidence: a.defaultConfidence},
			}
		}
	}

	return result
}

func averageConfidence(blocks []models.TextBlock) float64 {
	if len(blocks) == 0 {
		return 0
	}
	total := 0.0
	for _, b := range blocks {
		total += b.Confidence
	}
	return total / float64(len(blocks))
}

func pageAverageConfidence(pages []models.TextPage) float64 {
	if len(pages) == 0 {
		return 0
	}
	total := 0.0
	for _, p := range pages {
		total += p.Confidence
	}
	return total / float64(len(pages))
}
