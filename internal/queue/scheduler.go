package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"legal-case-intelligence/internal/config"
	"legal-case-intelligence/internal/logger"
)

// Enqueuer puts pipeline work on the durable queue. Every enqueue survives
// a process restart: Redis holds the task until a worker takes it.
type Enqueuer struct {
	client        *asynq.Client
	analysisDelay time.Duration
	maxRetry      int
}

func NewEnqueuer(redisOpt asynq.RedisClientOpt, cfg *config.Config) *Enqueuer {
	return &Enqueuer{
		client:        asynq.NewClient(redisOpt),
		analysisDelay: time.Duration(cfg.AnalysisDelay) * time.Second,
		maxRetry:      cfg.AnalysisMaxRetry,
	}
}

func (e *Enqueuer) Close() error {
	return e.client.Close()
}

// ScheduleExtraction queues text extraction for an uploaded document.
func (e *Enqueuer) ScheduleExtraction(ctx context.Context, caseID, documentID uuid.UUID, filePath, fileName string) error {
	task, err := NewExtractDocumentTask(caseID, documentID, filePath, fileName, e.maxRetry)
	if err != nil {
		return fmt.Errorf("failed to build extraction task: %w", err)
	}

	info, err := e.client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("failed to enqueue extraction: %w", err)
	}
	logger.Info("extraction queued",
		"task_id", info.ID, "document_id", documentID, "queue", info.Queue)
	return nil
}

// ScheduleAnalysis queues case analysis after the settle delay, giving
// sibling document extractions time to land so one analysis run covers
// them all.
func (e *Enqueuer) ScheduleAnalysis(ctx context.Context, caseID uuid.UUID) error {
	return e.scheduleAnalysisIn(ctx, caseID, e.analysisDelay)
}

// ScheduleAnalysisNow queues case analysis with no delay. Used by the
// reconciler when re-driving stuck work.
func (e *Enqueuer) ScheduleAnalysisNow(ctx context.Context, caseID uuid.UUID) error {
	return e.scheduleAnalysisIn(ctx, caseID, 0)
}

func (e *Enqueuer) scheduleAnalysisIn(ctx context.Context, caseID uuid.UUID, delay time.Duration) error {
	task, err := NewAnalyzeCaseTask(caseID, e.maxRetry)
	if err != nil {
		return fmt.Errorf("failed to build analysis task: %w", err)
	}

	opts := []asynq.Option{}
	if delay > 0 {
		opts = append(opts, asynq.ProcessIn(delay))
	}

	info, err := e.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return fmt.Errorf("failed to enqueue analysis: %w", err)
	}
	logger.Info("analysis queued",
		"task_id", info.ID, "case_id", caseID, "delay", delay.String())
	return nil
}
