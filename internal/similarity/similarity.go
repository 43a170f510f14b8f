package similarity

import (
	"context"
	"math"
	"strings"

	"legal-case-intelligence/internal/ai"
	"legal-case-intelligence/internal/logger"
)

// TextSimilarity scores how alike two legal texts are, 0..1.
type TextSimilarity interface {
	Score(ctx context.Context, a, b string) (float64, error)
}

// EmbeddingSimilarity scores with Gemini embeddings and falls back to
// token overlap when the embedding call fails. A degraded score is still a
// score; the pipeline keeps moving.
type EmbeddingSimilarity struct {
	client *ai.GeminiClient
	model  string
}

func NewEmbeddingSimilarity(client *ai.GeminiClient, model string) *EmbeddingSimilarity {
	return &EmbeddingSimilarity{client: client, model: model}
}

func (s *EmbeddingSimilarity) Score(ctx context.Context, a, b string) (float64, error) {
	va, err := s.client.Embed(ctx, s.model, a)
	if err != nil {
		logger.Warn("embedding failed, using token overlap", "error", err)
		return TokenOverlap(a, b), nil
	}
	vb, err := s.client.Embed(ctx, s.model, b)
	if err != nil {
		logger.Warn("embedding failed, using token overlap", "error", err)
		return TokenOverlap(a, b), nil
	}
	return cosine(va, vb), nil
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// TokenOverlap is a Jaccard similarity over lowercased word sets. Crude,
// but it orders candidates sensibly when embeddings are unavailable.
func TokenOverlap(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

func tokenSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		tok = strings.Trim(tok, ".,;:!?()[]\"'")
		if len(tok) > 2 {
			set[tok] = struct{}{}
		}
	}
	return set
}
