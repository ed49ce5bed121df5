package jobs

import (
	"fmt"
	"log/slog"

	"coordinator/internal/core/application/usecases/commands"
)

// JobManager coordinates all scheduled jobs in the application.
// Provides a unified interface to start and stop all background jobs.
type JobManager struct {
	supervisorJob *SupervisorJob
}

// NewJobManager creates a new job manager with all required jobs.
func NewJobManager(
	reconcileHandler commands.ReconcileStalledOrdersCommandHandler,
	logger *slog.Logger,
) *JobManager {
	return &JobManager{
		supervisorJob: NewSupervisorJob(reconcileHandler, logger),
	}
}

// StartAll starts all scheduled jobs.
// Returns an error if any job fails to start.
func (jm *JobManager) StartAll() error {
	if err := jm.supervisorJob.Start(); err != nil {
		return fmt.Errorf("failed to start supervisor job: %w", err)
	}

	return nil
}

// StopAll stops all scheduled jobs gracefully.
func (jm *JobManager) StopAll() {
	jm.supervisorJob.Stop()
}
