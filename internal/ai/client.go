package ai

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	genai "github.com/google/generative-ai-go/genai"

	"legal-case-intelligence/internal/logger"
)

// GeminiClient wraps the genai SDK with a circuit breaker and request rate
// limiting so a misbehaving provider degrades instead of cascading.
type GeminiClient struct {
	breaker     *gobreaker.CircuitBreaker
	rateLimiter *rate.Limiter
	client      *genai.Client
}

func NewGeminiClient(apiKey string) (*GeminiClient, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "GeminiAPI",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	// Conservative request rate; the provider enforces its own hard caps.
	rateLimiter := rate.NewLimiter(rate.Limit(0.15), 2)

	return &GeminiClient{
		breaker:     breaker,
		rateLimiter: rateLimiter,
		client:      client,
	}, nil
}

// Generate sends one prompt to the named model and returns the raw SDK
// response. Rate limiting and the circuit breaker apply to every call.
func (gc *GeminiClient) Generate(ctx context.Context, modelName, prompt string, maxTokens int, temperature float32) (*genai.GenerateContentResponse, error) {
	tracer := otel.Tracer("gemini-client")
	ctx, span := tracer.Start(ctx, "gemini.generate_content")
	defer span.End()

	span.SetAttributes(
		attribute.String("gemini.model", modelName),
		attribute.Int("gemini.max_tokens", maxTokens),
	)

	if err := gc.rateLimiter.Wait(ctx); err != nil {
		span.SetAttributes(attribute.Bool("gemini.rate_limited", true))
		return nil, err
	}

	result, err := gc.breaker.Execute(func() (interface{}, error) {
		model := gc.client.GenerativeModel(modelName)
		model.SetTemperature(temperature)
		model.SetMaxOutputTokens(int32(maxTokens))

		resp, err := model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			span.SetAttributes(attribute.Bool("gemini.error", true))
			span.SetAttributes(attribute.String("gemini.error_message", err.Error()))
			return nil, err
		}
		return resp, nil
	})
	if err != nil {
		span.SetAttributes(attribute.Bool("gemini.error", true))
		return nil, err
	}

	resp := result.(*genai.GenerateContentResponse)
	span.SetAttributes(
		attribute.Bool("gemini.success", true),
		attribute.Int("gemini.tokens_used", extractTokenUsage(resp)),
	)
	return resp, nil
}

// Embed returns an embedding vector for the given text.
func (gc *GeminiClient) Embed(ctx context.Context, modelName, text string) ([]float32, error) {
	model := gc.client.EmbeddingModel(modelName)
	resp, err := model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, err
	}
	if resp.Embedding == nil {
		return nil, ErrEmptyResponse
	}
	return resp.Embedding.Values, nil
}

// extractTokenUsage reads actual usage from response metadata, estimating
// from the response text when the provider omits it.
func extractTokenUsage(resp *genai.GenerateContentResponse) int {
	if resp.UsageMetadata != nil {
		return int(resp.UsageMetadata.TotalTokenCount)
	}

	totalText := ""
	for _, candidate := range resp.Candidates {
		if candidate.Content != nil {
			for _, part := range candidate.Content.Parts {
				if text, ok := part.(genai.Text); ok {
					totalText += string(text)
				}
			}
		}
	}

	// Average is ~4 characters per token for Gemini
	estimated := len(totalText) / 4
	if estimated < 1 {
		estimated = 1
	}
	return estimated
}

// Close the client
func (gc *GeminiClient) Close() error {
	if gc.client != nil {
		return gc.client.Close()
	}
	return nil
}
