package analysis

import (
	"regexp"
	"strconv"
	"strings"

	"legal-case-intelligence/models"
)

// Parser mines structured fields out of freeform model output. Every
// extraction is best-effort and independent: a failed pattern leaves its
// field at the zero value and never disturbs the others.
//
// The interface exists so the rule sets can be swapped when the provider
// moves to structured output, without touching callers.
type Parser interface {
	ParseCaseAnalysis(raw string) CaseAnalysisFields
	ParseViabilityAssessment(raw string) AssessmentFields
}

// CaseAnalysisFields is the partial CaseAnalysis recovered from raw text.
type CaseAnalysisFields struct {
	ViabilityScore    int
	KeyLegalIssues    []string
	PotentialDefenses []string
	Evidence          models.EvidenceEvaluation
	Recommendations   []models.Recommendation
}

// AssessmentFields is the partial ViabilityAssessment recovered from raw text.
type AssessmentFields struct {
	ViabilityScore      int
	StrengthFactors     []string
	WeaknessFactors     []string
	EvidenceStrength    float64
	Reasoning           string
	RecommendedStrategy string
}

// regexParser is the shipped pattern-rule implementation.
type regexParser struct{}

func NewParser() Parser {
	return &regexParser{}
}

// Headings the section scanner recognizes as boundaries. Lowercase;
// matching is case-insensitive.
var knownHeadings = []string{
	"case viability assessment",
	"viability score",
	"key legal issues",
	"potential defenses",
	"evidence assessment",
	"evidence strength",
	"strong evidence",
	"weak evidence",
	"evidence gaps",
	"additional evidence needed",
	"strength factors",
	"weakness factors",
	"recommendations",
	"recommended strategy",
	"reasoning",
}

var (
	percentScoreRe = regexp.MustCompile(`(\d{1,3})\s*%`)
	labeledScoreRe = regexp.MustCompile(`(?i)viability\s+score\s*:\s*(\d{1,3})`)
	bulletRe       = regexp.MustCompile(`^\s*(?:[-•*]|\d+[.)])\s*`)
	strengthRe     = regexp.MustCompile(`(?i)\b(excellent|strong|moderate|weak|poor)\b`)
)

func (p *regexParser) ParseCaseAnalysis(raw string) CaseAnalysisFields {
	fields := CaseAnalysisFields{
		ViabilityScore:    viabilityScoreFromLine(raw),
		KeyLegalIssues:    sectionItems(raw, "key legal issues"),
		PotentialDefenses: sectionItems(raw, "potential defenses"),
	}

	fields.Evidence = models.EvidenceEvaluation{
		StrengthScore:            evidenceStrength(raw),
		StrongEvidence:           sectionItems(raw, "strong evidence"),
		WeakEvidence:             sectionItems(raw, "weak evidence"),
		EvidenceGaps:             sectionItems(raw, "evidence gaps"),
		AdditionalEvidenceNeeded: sectionItems(raw, "additional evidence needed"),
	}

	for _, line := range sectionItems(raw, "recommendations") {
		fields.Recommendations = append(fields.Recommendations, recommendationFromLine(line))
	}

	return fields
}

func (p *regexParser) ParseViabilityAssessment(raw string) AssessmentFields {
	return AssessmentFields{
		ViabilityScore:      labeledViabilityScore(raw),
		StrengthFactors:     sectionItems(raw, "strength factors"),
		WeaknessFactors:     sectionItems(raw, "weakness factors"),
		EvidenceStrength:    evidenceStrength(raw),
		Reasoning:           sectionText(raw, "reasoning"),
		RecommendedStrategy: sectionText(raw, "recommended strategy"),
	}
}

// viabilityScoreFromLine finds the first integer immediately preceding a %
// within a line that mentions viability.
func viabilityScoreFromLine(raw string) int {
	for _, line := range strings.Split(raw, "\n") {
		if !strings.Contains(strings.ToLower(line), "viability") {
			continue
		}
		if m := percentScoreRe.FindStringSubmatch(line); m != nil {
			return clampScore(atoi(m[1]))
		}
	}
	return 0
}

// labeledViabilityScore reads the assessment form's explicit label.
func labeledViabilityScore(raw string) int {
	if m := labeledScoreRe.FindStringSubmatch(raw); m != nil {
		return clampScore(atoi(m[1]))
	}
	return 0
}

// sectionItems captures all lines between the heading and the next known
// heading, strips bullet markers and drops empties.
func sectionItems(raw, heading string) []string {
	body := sectionBody(raw, heading)
	if body == "" {
		return nil
	}

	var items []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(bulletRe.ReplaceAllString(line, ""))
		if line != "" {
			items = append(items, line)
		}
	}
	return items
}

// sectionText returns the verbatim text between the label and the next
// known heading, including any remainder on the label's own line.
func sectionText(raw, heading string) string {
	return strings.TrimSpace(sectionBody(raw, heading))
}

func sectionBody(raw, heading string) string {
	lines := strings.Split(raw, "\n")

	start := -1
	var remainder string
	for i, line := range lines {
		if h, rest := headingOf(line); h == heading {
			start = i + 1
			remainder = rest
			break
		}
	}
	if start == -1 {
		return ""
	}

	var body []string
	if remainder != "" {
		body = append(body, remainder)
	}
	for _, line := range lines[start:] {
		if h, _ := headingOf(line); h != "" {
			break
		}
		body = append(body, line)
	}
	return strings.Join(body, "\n")
}

// headingOf reports which known heading a line opens, if any, plus the
// text following the heading's colon on the same line.
func headingOf(line string) (string, string) {
	trimmed := strings.ToLower(strings.TrimSpace(line))
	trimmed = strings.TrimLeft(trimmed, "#* ")
	for _, h := range knownHeadings {
		if !strings.HasPrefix(trimmed, h) {
			continue
		}
		tail := strings.TrimSpace(trimmed[len(h):])
		if tail == "" || strings.HasPrefix(tail, ":") {
			rest := ""
			if idx := strings.Index(strings.ToLower(line), h) + len(h); idx < len(line) {
				rest = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line[idx:]), ":"))
			}
			return h, rest
		}
	}
	return "", ""
}

// evidenceStrength maps the first qualitative adjective in the evidence
// narrative to a fixed numeric scale.
func evidenceStrength(raw string) float64 {
	// Prefer the evidence narrative so adjectives elsewhere in the text
	// don't win; fall back to scanning the whole text.
	search := sectionText(raw, "evidence strength")
	if search == "" {
		search = sectionText(raw, "evidence assessment")
	}
	if search == "" {
		search = raw
	}

	m := strengthRe.FindStringSubmatch(search)
	if m == nil {
		return 0.5
	}
	switch strings.ToLower(m[1]) {
	case "excellent", "strong":
		return 0.8
	case "moderate":
		return 0.5
	case "weak", "poor":
		return 0.2
	default:
		return 0.5
	}
}

func recommendationFromLine(line string) models.Recommendation {
	priority := models.PriorityMedium
	impact := 0.5

	lower := strings.ToLower(line)
	switch {
	case strings.Contains(lower, "immediate") || strings.Contains(lower, "urgent"):
		priority = models.PriorityHigh
		impact = 0.8
	case strings.Contains(lower, "consider") || strings.Contains(lower, "optional"):
		priority = models.PriorityLow
		impact = 0.3
	}

	action := line
	rationale := ""
	if idx := strings.Index(line, " - "); idx > 0 {
		action = strings.TrimSpace(line[:idx])
		rationale = strings.TrimSpace(line[idx+3:])
	}

	return models.Recommendation{
		Action:      action,
		Rationale:   rationale,
		Priority:    priority,
		ImpactScore: impact,
	}
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func clampScore(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}
