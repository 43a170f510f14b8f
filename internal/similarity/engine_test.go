package similarity

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"legal-case-intelligence/models"
)

type fakeCaseReader struct {
	kase *models.Case
}

func (f *fakeCaseReader) GetByID(ctx context.Context, id uuid.UUID) (*models.Case, error) {
	if f.kase == nil {
		return nil, errors.New("case not found")
	}
	return f.kase, nil
}

type fakeDocReader struct {
	docs []models.Document
	err  error
}

func (f *fakeDocReader) ListProcessedByCase(ctx context.Context, caseID uuid.UUID) ([]models.Document, error) {
	return f.docs, f.err
}

type fakeMatchStore struct {
	replaced [][]models.CaseMatch
}

func (f *fakeMatchStore) ReplaceForCase(ctx context.Context, caseID uuid.UUID, matches []models.CaseMatch) error {
	f.replaced = append(f.replaced, matches)
	return nil
}

type fakeSearcher struct {
	candidates    []models.PrecedentCandidate
	err           error
	calls         int
	queries       []string
	jurisdictions []string
}

func (f *fakeSearcher) Search(ctx context.Context, query, jurisdiction string, limit int) ([]models.PrecedentCandidate, error) {
	f.calls++
	f.queries = append(f.queries, query)
	f.jurisdictions = append(f.jurisdictions, jurisdiction)
	return f.candidates, f.err
}

// fakeScorer returns a fixed score per candidate case id.
type fakeScorer struct {
	scores map[string]float64
	calls  int
}

func (f *fakeScorer) Score(ctx context.Context, a, b string) (float64, error) {
	f.calls++
	for id, score := range f.scores {
		if strings.Contains(b, id) {
			return score, nil
		}
	}
	return 0, nil
}

func newEngineFixture(searcher *fakeSearcher, scorer TextSimilarity) (*Engine, *fakeCaseReader, *fakeDocReader, *fakeMatchStore) {
	cases := &fakeCaseReader{kase: &models.Case{
		ID:          uuid.New(),
		Title:       "Contract dispute over software licensing",
		Description: "Defendant breached exclusive licensing agreement terms",
	}}
	docs := &fakeDocReader{}
	matches := &fakeMatchStore{}
	cache := NewMemoryCache(30*time.Minute, time.Minute)
	engine := NewEngine(cases, docs, matches, searcher, scorer, cache, 30*time.Minute, 0.3).
		WithClock(func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) })
	return engine, cases, docs, matches
}

func TestFindSimilarRanking(t *testing.T) {
	searcher := &fakeSearcher{candidates: []models.PrecedentCandidate{
		{CaseID: "weak", Title: "weak", Summary: "weak"},
		{CaseID: "best", Title: "best", Summary: "best"},
		{CaseID: "good", Title: "good", Summary: "good"},
	}}
	scorer := &fakeScorer{scores: map[string]float64{"weak": 0.2, "best": 0.95, "good": 0.9}}
	engine, cases, _, store := newEngineFixture(searcher, scorer)

	matches, err := engine.FindSimilar(context.Background(), cases.kase.ID, "", 5, 0.3)
	if err != nil {
		t.Fatalf("find similar: %v", err)
	}

	if len(matches) != 2 {
		t.Fatalf("below-threshold candidate should be filtered, got %d matches", len(matches))
	}
	if matches[0].SimilarityScore != 0.95 || matches[1].SimilarityScore != 0.9 {
		t.Fatalf("matches must be ranked by similarity descending: %v, %v",
			matches[0].SimilarityScore, matches[1].SimilarityScore)
	}
	if len(store.replaced) != 1 || len(store.replaced[0]) != 2 {
		t.Fatalf("ranked set should be persisted once: %v", store.replaced)
	}
}

// recordingScorer keeps every text pair it is asked to score.
type recordingScorer struct {
	sources    []string
	candidates []string
}

func (r *recordingScorer) Score(ctx context.Context, a, b string) (float64, error) {
	r.sources = append(r.sources, a)
	r.candidates = append(r.candidates, b)
	return 0.9, nil
}

func TestFindSimilarUsesDocumentText(t *testing.T) {
	searcher := &fakeSearcher{candidates: []models.PrecedentCandidate{
		{CaseID: "c1", Title: "Licensing precedent", Summary: "summary text", FullText: "full body"},
	}}
	scorer := &recordingScorer{}
	engine, cases, docs, _ := newEngineFixture(searcher, scorer)
	cases.kase.Description = "short description"
	docs.docs = []models.Document{
		{ExtractedText: "exclusive licensing agreement breached through unauthorized sublicensing"},
	}

	if _, err := engine.FindSimilar(context.Background(), cases.kase.ID, "", 5, 0.3); err != nil {
		t.Fatalf("find similar: %v", err)
	}

	if len(scorer.sources) != 1 {
		t.Fatalf("expected one scored candidate, got %d", len(scorer.sources))
	}
	src := scorer.sources[0]
	if !strings.Contains(src, "short description") || !strings.Contains(src, "unauthorized sublicensing") {
		t.Fatalf("scorer source text must combine description and document text: %q", src)
	}
	if scorer.candidates[0] != "Licensing precedent\nsummary text\nfull body" {
		t.Fatalf("candidate text must concatenate title, summary and full text: %q", scorer.candidates[0])
	}
	if len(searcher.queries) != 1 || !strings.Contains(searcher.queries[0], "sublicensing") {
		t.Fatalf("keyword query must draw on document text: %v", searcher.queries)
	}

	// A newly processed document changes the combined text, so the cached
	// match set for the old text must not be served.
	docs.docs = append(docs.docs, models.Document{ExtractedText: "expert report on lost royalties"})
	if _, err := engine.FindSimilar(context.Background(), cases.kase.ID, "", 5, 0.3); err != nil {
		t.Fatalf("find similar after new document: %v", err)
	}
	if searcher.calls != 2 {
		t.Fatalf("new document text should miss the cache and search again, calls=%d", searcher.calls)
	}
}

func TestFindSimilarJurisdictionFallback(t *testing.T) {
	searcher := &fakeSearcher{}
	engine, cases, _, _ := newEngineFixture(searcher, &fakeScorer{})
	cases.kase.Jurisdiction = "california"

	if _, err := engine.FindSimilar(context.Background(), cases.kase.ID, "", 5, 0.3); err != nil {
		t.Fatalf("find similar: %v", err)
	}
	if _, err := engine.FindSimilar(context.Background(), cases.kase.ID, "federal", 5, 0.3); err != nil {
		t.Fatalf("find similar: %v", err)
	}

	if len(searcher.jurisdictions) != 2 ||
		searcher.jurisdictions[0] != "california" || searcher.jurisdictions[1] != "federal" {
		t.Fatalf("jurisdiction filter not forwarded: %v", searcher.jurisdictions)
	}
}

func TestFindSimilarCacheHit(t *testing.T) {
	searcher := &fakeSearcher{candidates: []models.PrecedentCandidate{
		{CaseID: "best", Title: "best", Summary: "best"},
	}}
	scorer := &fakeScorer{scores: map[string]float64{"best": 0.9}}
	engine, cases, _, _ := newEngineFixture(searcher, scorer)

	first, err := engine.FindSimilar(context.Background(), cases.kase.ID, "", 5, 0.3)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := engine.FindSimilar(context.Background(), cases.kase.ID, "", 5, 0.3)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}

	if searcher.calls != 1 || scorer.calls != 1 {
		t.Fatalf("cache hit must bypass search and scoring: search=%d score=%d", searcher.calls, scorer.calls)
	}
	if len(first) != len(second) || first[0].MatchedCaseID != second[0].MatchedCaseID {
		t.Fatalf("cached result differs: %v vs %v", first, second)
	}
}

func TestFindSimilarSearchFailureDegrades(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("search service down")}
	engine, cases, _, _ := newEngineFixture(searcher, &fakeScorer{})

	matches, err := engine.FindSimilar(context.Background(), cases.kase.ID, "", 5, 0.3)
	if err != nil {
		t.Fatalf("search outage should degrade, not fail: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("expected empty match set, got %d", len(matches))
	}
}

func TestFindSimilarMissingCaseIsFatal(t *testing.T) {
	engine, cases, _, _ := newEngineFixture(&fakeSearcher{}, &fakeScorer{})
	cases.kase = nil

	if _, err := engine.FindSimilar(context.Background(), uuid.New(), "", 5, 0.3); err == nil {
		t.Fatalf("missing source case must be an error")
	}
}

func TestPrecedentFlagging(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name      string
		candidate models.PrecedentCandidate
		want      bool
	}{
		{"federal jurisdiction", models.PrecedentCandidate{Jurisdiction: "Federal", DecisionDate: now.AddDate(-20, 0, 0)}, true},
		{"supreme court", models.PrecedentCandidate{CourtName: "State Supreme Court", DecisionDate: now.AddDate(-20, 0, 0)}, true},
		{"recent decision", models.PrecedentCandidate{Jurisdiction: "state", CourtName: "District Court", DecisionDate: now.AddDate(-3, 0, 0)}, true},
		{"old state case", models.PrecedentCandidate{Jurisdiction: "state", CourtName: "District Court", DecisionDate: now.AddDate(-15, 0, 0)}, false},
	}
	for _, tt := range tests {
		if got := isPrecedent(tt.candidate, now); got != tt.want {
			t.Errorf("%s: isPrecedent = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestConfidenceBlend(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	supreme := models.PrecedentCandidate{CourtName: "Supreme Court", DecisionDate: now.AddDate(-2, 0, 0)}
	got := confidence(0.9, supreme, now)
	want := 0.9*0.7 + 0.2 + 0.1
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("supreme confidence = %f, want %f", got, want)
	}

	old := models.PrecedentCandidate{CourtName: "District Court", DecisionDate: now.AddDate(-8, 0, 0)}
	got = confidence(0.5, old, now)
	want = 0.5*0.7 + 0.1 + 0.05
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("district confidence = %f, want %f", got, want)
	}
}

func TestBuildQueryKeywords(t *testing.T) {
	text := "Breach of contract claim against Acme.\n" +
		"Breach involved delayed delivery and defective goods under contract terms"
	query := buildQuery(text)

	want := "breach contract claim against involved delayed delivery defective goods under"
	if query != want {
		t.Fatalf("query = %q, want %q", query, want)
	}
}

func TestTokenOverlap(t *testing.T) {
	if got := TokenOverlap("breach of contract", "breach of contract"); got != 1.0 {
		t.Fatalf("identical texts = %f, want 1.0", got)
	}
	if got := TokenOverlap("breach of contract", "patent infringement suit"); got != 0 {
		t.Fatalf("disjoint texts = %f, want 0", got)
	}
	if got := TokenOverlap("", "anything"); got != 0 {
		t.Fatalf("empty text = %f, want 0", got)
	}
}
