package similarity

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"legal-case-intelligence/internal/logger"
	"legal-case-intelligence/models"
)

const (
	maxQueryKeywords = 10
	minKeywordLength = 5

	supremeCourtWeight = 0.2
	defaultCourtWeight = 0.1
	recentDecadeYears  = 10
	recentHalfYears    = 5
)

// CaseReader loads the source case whose matches are being computed.
type CaseReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Case, error)
}

// DocumentReader loads the processed documents whose extracted text joins
// the case description as matching input.
type DocumentReader interface {
	ListProcessedByCase(ctx context.Context, caseID uuid.UUID) ([]models.Document, error)
}

// MatchStore persists the computed match set for a case, replacing any
// earlier set.
type MatchStore interface {
	ReplaceForCase(ctx context.Context, caseID uuid.UUID, matches []models.CaseMatch) error
}

// Engine finds decided cases similar to a source case, scores them, and
// keeps the ranked result cached and persisted.
type Engine struct {
	cases    CaseReader
	docs     DocumentReader
	matches  MatchStore
	searcher Searcher
	scorer   TextSimilarity
	cache    Cache

	cacheTTL      time.Duration
	minSimilarity float64
	now           func() time.Time
}

func NewEngine(cases CaseReader, docs DocumentReader, matches MatchStore, searcher Searcher, scorer TextSimilarity, cache Cache, cacheTTL time.Duration, minSimilarity float64) *Engine {
	return &Engine{
		cases:         cases,
		docs:          docs,
		matches:       matches,
		searcher:      searcher,
		scorer:        scorer,
		cache:         cache,
		cacheTTL:      cacheTTL,
		minSimilarity: minSimilarity,
		now:           time.Now,
	}
}

// WithClock overrides the engine clock; used by tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// FindSimilar returns up to limit matches above minSimilarity, ranked by
// similarity descending. An empty jurisdiction falls back to the source
// case's own jurisdiction. A missing source case is fatal; an unavailable
// search provider degrades to an empty match set.
func (e *Engine) FindSimilar(ctx context.Context, caseID uuid.UUID, jurisdiction string, limit int, minSimilarity float64) ([]models.CaseMatch, error) {
	if limit <= 0 {
		limit = 5
	}
	if minSimilarity <= 0 {
		minSimilarity = e.minSimilarity
	}

	kase, err := e.cases.GetByID(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load case %s: %w", caseID, err)
	}

	if jurisdiction == "" {
		jurisdiction = kase.Jurisdiction
	}

	sourceText := e.combinedText(ctx, kase)

	key := CacheKey(sourceText, jurisdiction, limit, minSimilarity)
	if cached, found := e.cache.Get(ctx, key); found {
		var matches []models.CaseMatch
		if err := json.Unmarshal(cached, &matches); err == nil {
			return matches, nil
		}
		_ = e.cache.Delete(ctx, key)
	}

	query := buildQuery(sourceText)
	candidates, err := e.searcher.Search(ctx, query, jurisdiction, limit*2)
	if err != nil {
		logger.Warn("precedent search failed, returning no matches",
			"case_id", caseID, "error", err)
		return []models.CaseMatch{}, nil
	}

	matches := e.rank(ctx, kase, sourceText, candidates, limit, minSimilarity)

	if err := e.matches.ReplaceForCase(ctx, caseID, matches); err != nil {
		logger.Error("failed to persist case matches", "case_id", caseID, "error", err)
	}

	if payload, err := json.Marshal(matches); err == nil {
		if err := e.cache.Set(ctx, key, payload, e.cacheTTL); err != nil {
			logger.Warn("failed to cache match set", "case_id", caseID, "error", err)
		}
	}
	return matches, nil
}

// BestMatch returns the single highest-similarity match, or nil when the
// case has none.
func (e *Engine) BestMatch(ctx context.Context, caseID uuid.UUID) (*models.CaseMatch, error) {
	matches, err := e.FindSimilar(ctx, caseID, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return &matches[0], nil
}

// Precedents returns only the matches flagged as precedent-grade.
func (e *Engine) Precedents(ctx context.Context, caseID uuid.UUID, limit int) ([]models.CaseMatch, error) {
	matches, err := e.FindSimilar(ctx, caseID, "", limit, 0)
	if err != nil {
		return nil, err
	}

	precedents := make([]models.CaseMatch, 0, len(matches))
	for _, m := range matches {
		if m.IsPrecedent {
			precedents = append(precedents, m)
		}
	}
	return precedents, nil
}

// combinedText assembles the matching input: the case description followed
// by the extracted text of every processed document. A document-store
// failure degrades to the description alone.
func (e *Engine) combinedText(ctx context.Context, kase *models.Case) string {
	var sb strings.Builder
	sb.WriteString(kase.Description)

	docs, err := e.docs.ListProcessedByCase(ctx, kase.ID)
	if err != nil {
		logger.Warn("failed to load processed documents for matching",
			"case_id", kase.ID, "error", err)
		return sb.String()
	}
	for _, doc := range docs {
		if strings.TrimSpace(doc.ExtractedText) == "" {
			continue
		}
		sb.WriteString("\n")
		sb.WriteString(doc.ExtractedText)
	}
	return sb.String()
}

func (e *Engine) rank(ctx context.Context, kase *models.Case, sourceText string, candidates []models.PrecedentCandidate, limit int, minSimilarity float64) []models.CaseMatch {
	now := e.now()

	matches := make([]models.CaseMatch, 0, len(candidates))
	for _, candidate := range candidates {
		candidateText := candidate.Title + "\n" + candidate.Summary + "\n" + candidate.FullText

		score, err := e.scorer.Score(ctx, sourceText, candidateText)
		if err != nil {
			logger.Warn("similarity scoring failed, skipping candidate",
				"candidate_id", candidate.CaseID, "error", err)
			continue
		}
		if score < minSimilarity {
			continue
		}

		precedent := isPrecedent(candidate, now)
		matches = append(matches, models.CaseMatch{
			ID:              uuid.New(),
			SourceCaseID:    kase.ID,
			MatchedCaseID:   candidate.CaseID,
			Citation:        candidate.Citation,
			Title:           candidate.Title,
			SimilarityScore: score,
			IsPrecedent:     precedent,
			ConfidenceLevel: confidence(score, candidate, now),
			CreatedAt:       now,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].SimilarityScore > matches[j].SimilarityScore
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// buildQuery distills the combined case text into a keyword query:
// distinct words of five characters or more, capped at ten, in
// first-seen order.
func buildQuery(text string) string {
	seen := make(map[string]struct{})
	keywords := make([]string, 0, maxQueryKeywords)

	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,;:!?()[]\"'")
		if len(word) < minKeywordLength {
			continue
		}
		if _, ok := seen[word]; ok {
			continue
		}
		seen[word] = struct{}{}
		keywords = append(keywords, word)
		if len(keywords) == maxQueryKeywords {
			break
		}
	}
	return strings.Join(keywords, " ")
}

// isPrecedent marks candidates worth citing: federal cases, supreme-court
// decisions, and anything decided within the last decade.
func isPrecedent(candidate models.PrecedentCandidate, now time.Time) bool {
	if strings.EqualFold(candidate.Jurisdiction, "federal") {
		return true
	}
	if strings.Contains(strings.ToLower(candidate.CourtName), "supreme") {
		return true
	}
	return !candidate.DecisionDate.IsZero() &&
		candidate.DecisionDate.After(now.AddDate(-recentDecadeYears, 0, 0))
}

// confidence blends similarity with court standing and recency.
func confidence(score float64, candidate models.PrecedentCandidate, now time.Time) float64 {
	courtWeight := defaultCourtWeight
	if strings.Contains(strings.ToLower(candidate.CourtName), "supreme") {
		courtWeight = supremeCourtWeight
	}

	recencyWeight := 0.05
	if !candidate.DecisionDate.IsZero() &&
		candidate.DecisionDate.After(now.AddDate(-recentHalfYears, 0, 0)) {
		recencyWeight = 0.1
	}

	c := score*0.7 + courtWeight + recencyWeight
	if c > 1 {
		c = 1
	}
	return c
}
