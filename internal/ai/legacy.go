package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// LegacyClient speaks the older single-prompt REST envelope directly. It is
// the last entry in the fallback chain, for deployments pinned to a model
// generation the SDK no longer targets.
type LegacyClient struct {
	apiKey     string
	apiURL     string
	httpClient *http.Client
}

type legacyRequest struct {
	Contents []legacyContent `json:"contents"`
}

type legacyContent struct {
	Parts []legacyPart `json:"parts"`
}

type legacyPart struct {
	Text string `json:"text"`
}

type legacyResponse struct {
	Candidates []legacyCandidate `json:"candidates"`
	Error      *legacyAPIError   `json:"error,omitempty"`
}

type legacyCandidate struct {
	Content legacyContent `json:"content"`
	// Older completion-style models return a bare string instead of a
	// content part list.
	Output string `json:"output"`
}

type legacyAPIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

func NewLegacyClient(apiKey, apiURL string) *LegacyClient {
	return &LegacyClient{
		apiKey: apiKey,
		apiURL: apiURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *LegacyClient) Model() string { return "legacy-rest" }

func (c *LegacyClient) Invoke(ctx context.Context, req Request) (*AIResponse, error) {
	payload := legacyRequest{
		Contents: []legacyContent{
			{Parts: []legacyPart{{Text: req.Prompt}}},
		},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %v", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.apiURL+"?key="+c.apiKey, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %v", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusForbidden, http.StatusUnauthorized:
		return nil, fmt.Errorf("%w: status %d: %s", ErrAccessDenied, resp.StatusCode, string(body))
	case http.StatusBadRequest:
		return nil, fmt.Errorf("%w: status %d: %s", ErrValidation, resp.StatusCode, string(body))
	default:
		return nil, fmt.Errorf("%w: status %d: %s", ErrTransport, resp.StatusCode, string(body))
	}

	text, tokens, err := decodeLegacyBody(body)
	if err != nil {
		return nil, err
	}

	return &AIResponse{
		Success:         true,
		GeneratedText:   text,
		ConfidenceScore: 0.7,
		TokensUsed:      tokens,
	}, nil
}

// decodeLegacyBody decodes a successful payload leniently: the structured
// content-array shape first, then the legacy completion string, and finally
// the raw payload as plain text. A parse failure never discards an
// otherwise-successful provider call.
func decodeLegacyBody(body []byte) (string, int, error) {
	var parsed legacyResponse
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Error != nil {
			return "", 0, classifyLegacyAPIError(parsed.Error)
		}

		for _, candidate := range parsed.Candidates {
			var sb strings.Builder
			for _, part := range candidate.Content.Parts {
				sb.WriteString(part.Text)
			}
			if text := sb.String(); strings.TrimSpace(text) != "" {
				return text, estimateTokens(text), nil
			}
			if strings.TrimSpace(candidate.Output) != "" {
				return candidate.Output, estimateTokens(candidate.Output), nil
			}
		}
	}

	raw := string(body)
	if strings.TrimSpace(raw) == "" {
		return "", 0, ErrEmptyResponse
	}
	return raw, estimateTokens(raw), nil
}

func classifyLegacyAPIError(apiErr *legacyAPIError) error {
	switch apiErr.Code {
	case http.StatusForbidden, http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrAccessDenied, apiErr.Message)
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", ErrValidation, apiErr.Message)
	default:
		return fmt.Errorf("%w: %s (code %d)", ErrTransport, apiErr.Message, apiErr.Code)
	}
}

// estimateTokens is a rough approximation: ~4 characters per token.
func estimateTokens(text string) int {
	estimated := len(text) / 4
	if estimated < 1 {
		estimated = 1
	}
	return estimated
}
