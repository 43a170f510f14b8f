package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the pipeline instruments.
type Metrics struct {
	ExtractionsTotal   metric.Int64Counter
	ExtractionDuration metric.Float64Histogram
	AnalysesTotal      metric.Int64Counter
	AnalysisDuration   metric.Float64Histogram
	TokensUsed         metric.Int64Counter
	DetailWriteReplays metric.Int64Counter
}

func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("legal-case-intelligence")

	extractionsTotal, err := meter.Int64Counter(
		"extraction.documents.total",
		metric.WithDescription("Documents processed by text extraction"),
	)
	if err != nil {
		return nil, err
	}

	extractionDuration, err := meter.Float64Histogram(
		"extraction.duration",
		metric.WithDescription("Text extraction duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	analysesTotal, err := meter.Int64Counter(
		"analysis.runs.total",
		metric.WithDescription("Case analyses by terminal status"),
	)
	if err != nil {
		return nil, err
	}

	analysisDuration, err := meter.Float64Histogram(
		"analysis.duration",
		metric.WithDescription("Document analysis duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	tokensUsed, err := meter.Int64Counter(
		"ai.tokens.used",
		metric.WithDescription("Tokens consumed by AI calls"),
	)
	if err != nil {
		return nil, err
	}

	detailWriteReplays, err := meter.Int64Counter(
		"analysis.detail_write.replays",
		metric.WithDescription("Aggregate writes replayed by the reconciler"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		ExtractionsTotal:   extractionsTotal,
		ExtractionDuration: extractionDuration,
		AnalysesTotal:      analysesTotal,
		AnalysisDuration:   analysisDuration,
		TokensUsed:         tokensUsed,
		DetailWriteReplays: detailWriteReplays,
	}, nil
}

// RecordExtraction counts one extraction with its terminal status.
func (m *Metrics) RecordExtraction(ctx context.Context, status string, seconds float64) {
	if m == nil {
		return
	}
	m.ExtractionsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	m.ExtractionDuration.Record(ctx, seconds)
}

// RecordAnalysis counts one analysis run with its terminal status.
func (m *Metrics) RecordAnalysis(ctx context.Context, status string, seconds float64, tokens int) {
	if m == nil {
		return
	}
	m.AnalysesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	m.AnalysisDuration.Record(ctx, seconds)
	if tokens > 0 {
		m.TokensUsed.Add(ctx, int64(tokens))
	}
}
