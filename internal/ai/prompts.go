package ai

import (
	"fmt"
	"strings"
)

// Prompt text for document analysis. The response parser's rule sets are
// keyed to these section headings; change both together.
const analysisPromptTemplate = `You are an experienced litigation attorney reviewing case materials.

Case: %s

Document text:
%s

Provide a legal viability analysis with exactly these sections:

Case Viability Assessment: <percentage>%%

Key Legal Issues:
- one issue per line

Potential Defenses:
- one defense per line

Evidence Assessment:
Describe the evidence as excellent, strong, moderate, weak, or poor, then list:
Strong Evidence:
- items
Weak Evidence:
- items
Evidence Gaps:
- items

Recommendations:
- one recommended action per line`

const viabilityPromptTemplate = `You are an experienced litigation attorney assessing case viability.

Facts:
%s

Charges:
%s

Available Evidence:
%s

Respond with exactly these sections:

VIABILITY SCORE: <number>%%

Strength Factors:
- one per line

Weakness Factors:
- one per line

Evidence Strength: one of excellent, strong, moderate, weak, poor

Reasoning: a short paragraph

Recommended Strategy: a short paragraph`

// BuildAnalysisPrompt renders the document-analysis prompt.
func BuildAnalysisPrompt(caseTitle, documentText string) string {
	return fmt.Sprintf(analysisPromptTemplate, caseTitle, documentText)
}

// BuildViabilityPrompt renders the standalone assessment prompt.
func BuildViabilityPrompt(facts, charges string, evidence []string) string {
	evidenceText := "(none provided)"
	if len(evidence) > 0 {
		evidenceText = "- " + strings.Join(evidence, "\n- ")
	}
	return fmt.Sprintf(viabilityPromptTemplate, facts, charges, evidenceText)
}
