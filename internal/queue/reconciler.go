package queue

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"

	"legal-case-intelligence/internal/analysis"
	"legal-case-intelligence/internal/config"
	"legal-case-intelligence/internal/logger"
	"legal-case-intelligence/internal/telemetry"
	"legal-case-intelligence/models"
)

// AnalysisLister exposes the tracking-store queries the reconciler sweeps.
type AnalysisLister interface {
	ListStuckProcessing(ctx context.Context, cutoff time.Time) ([]models.CaseAnalysis, error)
	ListDetailWritePending(ctx context.Context, limit int) ([]models.CaseAnalysis, error)
	Update(ctx context.Context, a *models.CaseAnalysis) error
}

// Reconciler periodically repairs what crashes left behind: analyses stuck
// in processing state and aggregate writes that never landed. The queue
// guarantees delivery of accepted tasks; the reconciler covers the gaps
// around them.
type Reconciler struct {
	scheduler *gocron.Scheduler
	analyses  AnalysisLister
	service   *analysis.Service
	enqueuer  *Enqueuer

	stuckAfter time.Duration
	batchSize  int
	metrics    *telemetry.Metrics
}

func NewReconciler(analyses AnalysisLister, service *analysis.Service, enqueuer *Enqueuer, cfg *config.Config) *Reconciler {
	s := gocron.NewScheduler(time.UTC)
	s.TagsUnique()

	return &Reconciler{
		scheduler:  s,
		analyses:   analyses,
		service:    service,
		enqueuer:   enqueuer,
		stuckAfter: time.Duration(cfg.StuckAnalysisMinutes) * time.Minute,
		batchSize:  50,
	}
}

// WithMetrics attaches pipeline instruments.
func (r *Reconciler) WithMetrics(m *telemetry.Metrics) *Reconciler {
	r.metrics = m
	return r
}

// Start registers the sweep jobs and runs them in the background.
func (r *Reconciler) Start() error {
	if _, err := r.scheduler.Every(5 * time.Minute).Tag("stuck-analyses").Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		r.sweepStuck(ctx)
	}); err != nil {
		return err
	}

	if _, err := r.scheduler.Every(2 * time.Minute).Tag("pending-detail-writes").Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		r.sweepPendingDetailWrites(ctx)
	}); err != nil {
		return err
	}

	r.scheduler.StartAsync()
	return nil
}

func (r *Reconciler) Stop() {
	r.scheduler.Stop()
}

// sweepStuck fails analyses abandoned mid-flight and queues a fresh run
// for their cases.
func (r *Reconciler) sweepStuck(ctx context.Context) {
	cutoff := time.Now().Add(-r.stuckAfter)
	stuck, err := r.analyses.ListStuckProcessing(ctx, cutoff)
	if err != nil {
		logger.Error("failed to list stuck analyses", "error", err)
		return
	}

	for _, a := range stuck {
		now := time.Now()
		a.Status = models.AnalysisFailed
		a.ErrorMessage = "analysis abandoned, worker did not finish"
		a.CompletedAt = &now
		if err := r.analyses.Update(ctx, &a); err != nil {
			logger.Error("failed to fail stuck analysis", "analysis_id", a.ID, "error", err)
			continue
		}

		if err := r.enqueuer.ScheduleAnalysisNow(ctx, a.CaseID); err != nil {
			logger.Error("failed to requeue analysis for stuck case",
				"case_id", a.CaseID, "error", err)
			continue
		}
		logger.Info("requeued stuck analysis", "analysis_id", a.ID, "case_id", a.CaseID)
	}
}

// sweepPendingDetailWrites replays aggregate writes that failed after their
// tracking row completed.
func (r *Reconciler) sweepPendingDetailWrites(ctx context.Context) {
	pending, err := r.analyses.ListDetailWritePending(ctx, r.batchSize)
	if err != nil {
		logger.Error("failed to list pending detail writes", "error", err)
		return
	}

	for _, a := range pending {
		if err := r.service.RetryDetailWrite(ctx, &a); err != nil {
			logger.Warn("detail write replay failed, will retry next sweep",
				"analysis_id", a.ID, "error", err)
			continue
		}
		if r.metrics != nil {
			r.metrics.DetailWriteReplays.Add(ctx, 1)
		}
		logger.Info("detail write replayed", "analysis_id", a.ID, "case_id", a.CaseID)
	}
}
