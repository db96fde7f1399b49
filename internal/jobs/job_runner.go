package jobs

import (
	"rentvault/internal/config"
	"rentvault/internal/escrow"
	"rentvault/internal/logger"
	"rentvault/internal/metrics"
	"rentvault/internal/notify"
	"rentvault/internal/repository"
	"rentvault/internal/service"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	gate     *service.Gate
	rentals  repository.RentalRepository
	events   repository.EventRepository
	vault    escrow.Ledger
	notifier notify.Notifier
	metrics  *metrics.Metrics
	config   *config.Config
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(gate *service.Gate, rentals repository.RentalRepository, events repository.EventRepository, vault escrow.Ledger, notifier notify.Notifier, m *metrics.Metrics, cfg *config.Config) *JobRunner {
	return &JobRunner{
		gate:     gate,
		rentals:  rentals,
		events:   events,
		vault:    vault,
		notifier: notifier,
		metrics:  m,
		config:   cfg,
	}
}

// Config exposes the runner's configuration to the scheduler
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	logger.Info("Starting job", "job", jobName)
	jobFunc()
	logger.Info("Job completed", "job", jobName)
}

// RunAll runs every scheduled job once (for manual execution)
func (jr *JobRunner) RunAll() {
	jr.ReconcileEscrow()
	jr.SendDisputeReminders()
}
