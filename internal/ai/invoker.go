package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	genai "github.com/google/generative-ai-go/genai"

	"legal-case-intelligence/internal/config"
	"legal-case-intelligence/internal/logger"
)

// Invocation failure taxonomy. Downstream operators need different
// remediation for each class, so the aggregate error keeps them apart.
var (
	ErrAllModelsExhausted = errors.New("ai: all models exhausted")
	ErrAccessDenied       = errors.New("ai: access denied")
	ErrValidation         = errors.New("ai: request validation failed")
	ErrTransport          = errors.New("ai: provider transport error")
	ErrEmptyResponse      = errors.New("ai: empty response")
)

// Request is one generation request, provider-agnostic.
type Request struct {
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// AIResponse is the normalized outcome of a generation attempt.
type AIResponse struct {
	Success         bool    `json:"success"`
	GeneratedText   string  `json:"generated_text,omitempty"`
	ConfidenceScore float64 `json:"confidence_score"`
	TokensUsed      int     `json:"tokens_used"`
	Model           string  `json:"model"`
	ErrorMessage    string  `json:"error_message,omitempty"`
}

// ModelInvoker is one entry in the fallback chain: a single model behind a
// single request envelope.
type ModelInvoker interface {
	Model() string
	Invoke(ctx context.Context, req Request) (*AIResponse, error)
}

// Invoker walks an ordered list of models, stopping at the first success.
// Newer structured-message models go first, the legacy single-prompt REST
// model last.
type Invoker struct {
	attempts    []ModelInvoker
	maxTokens   int
	temperature float64
}

func NewInvoker(cfg *config.Config, client *GeminiClient) *Invoker {
	attempts := make([]ModelInvoker, 0, len(cfg.GeminiModels)+1)
	for _, name := range cfg.GeminiModels {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		attempts = append(attempts, &sdkModel{client: client, model: name})
	}
	if cfg.GeminiAPIURL != "" {
		attempts = append(attempts, NewLegacyClient(cfg.GeminiAPIKey, cfg.GeminiAPIURL))
	}

	return &Invoker{
		attempts:    attempts,
		maxTokens:   cfg.MaxOutputTokens,
		temperature: cfg.Temperature,
	}
}

// NewInvokerWithModels wires explicit model invokers; used by tests.
func NewInvokerWithModels(maxTokens int, temperature float64, attempts ...ModelInvoker) *Invoker {
	return &Invoker{attempts: attempts, maxTokens: maxTokens, temperature: temperature}
}

// Invoke tries each configured model in order. Every failed attempt is
// logged with its classified reason; only after the last model fails does
// the caller see an aggregate failure.
func (inv *Invoker) Invoke(ctx context.Context, prompt string) (*AIResponse, error) {
	req := Request{
		Prompt:      prompt,
		MaxTokens:   inv.maxTokens,
		Temperature: inv.temperature,
	}

	var failures []string
	var lastClass error

	for _, attempt := range inv.attempts {
		resp, err := attempt.Invoke(ctx, req)
		if err == nil && resp != nil && resp.Success {
			resp.Model = attempt.Model()
			return resp, nil
		}
		if err == nil {
			err = ErrEmptyResponse
		}

		class := classifyProviderError(err)
		lastClass = class
		failures = append(failures, fmt.Sprintf("%s: %s (%v)", attempt.Model(), err, class))
		logger.Warn("AI model attempt failed",
			"model", attempt.Model(), "class", class.Error(), "error", err)
	}

	message := fmt.Sprintf("all %d models failed: %s", len(inv.attempts), strings.Join(failures, "; "))
	return &AIResponse{
		Success:      false,
		ErrorMessage: message,
	}, fmt.Errorf("%w: %w: %s", ErrAllModelsExhausted, lastClassOrTransport(lastClass), message)
}

func lastClassOrTransport(class error) error {
	if class == nil {
		return ErrTransport
	}
	return class
}

// classifyProviderError buckets a provider failure so operators know
// whether to fix credentials, fix the request, or just retry.
func classifyProviderError(err error) error {
	if errors.Is(err, ErrAccessDenied) || errors.Is(err, ErrValidation) {
		return err
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "permission"),
		strings.Contains(msg, "api key"),
		strings.Contains(msg, "unauthorized"),
		strings.Contains(msg, "access denied"),
		strings.Contains(msg, "403"):
		return ErrAccessDenied
	case strings.Contains(msg, "invalid argument"),
		strings.Contains(msg, "invalid request"),
		strings.Contains(msg, "validation"),
		strings.Contains(msg, "400"):
		return ErrValidation
	default:
		return ErrTransport
	}
}

// sdkModel invokes one structured-message Gemini model through the SDK.
type sdkModel struct {
	client *GeminiClient
	model  string
}

func (m *sdkModel) Model() string { return m.model }

func (m *sdkModel) Invoke(ctx context.Context, req Request) (*AIResponse, error) {
	resp, err := m.client.Generate(ctx, m.model, req.Prompt, req.MaxTokens, float32(req.Temperature))
	if err != nil {
		return nil, err
	}

	text := joinParts(resp)
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyResponse
	}

	return &AIResponse{
		Success:         true,
		GeneratedText:   text,
		ConfidenceScore: 0.85,
		TokensUsed:      extractTokenUsage(resp),
	}, nil
}

func joinParts(resp *genai.GenerateContentResponse) string {
	var sb strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
	}
	return sb.String()
}
