package jobs

import (
	"context"
	"log/slog"

	"coordinator/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
)

// SupervisorJob runs the reconciliation sweep on a fixed schedule.
// Each run scans for stalled orders, retries payment reconciliation
// and issues compensations when recovery is no longer possible.
type SupervisorJob struct {
	handler commands.ReconcileStalledOrdersCommandHandler
	cron    *cron.Cron
	logger  *slog.Logger
}

// NewSupervisorJob creates a new job for the stalled-order sweep.
func NewSupervisorJob(handler commands.ReconcileStalledOrdersCommandHandler, logger *slog.Logger) *SupervisorJob {
	return &SupervisorJob{
		handler: handler,
		cron:    cron.New(cron.WithSeconds()),
		logger:  logger.With("component", "supervisor_job"),
	}
}

// Start begins the sweep, running every 30 seconds.
func (j *SupervisorJob) Start() error {
	_, err := j.cron.AddFunc("*/30 * * * * *", func() {
		ctx := context.Background()
		cmd := commands.NewReconcileStalledOrdersCommand()

		if err := j.handler.Handle(ctx, cmd); err != nil {
			j.logger.ErrorContext(ctx, "Supervisor sweep failed", "error", err)
		}
	})

	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Supervisor job started (running every 30 seconds)")
	return nil
}

// Stop stops the supervisor job.
func (j *SupervisorJob) Stop() {
	j.cron.Stop()
	j.logger.InfoContext(context.Background(), "Supervisor job stopped")
}
