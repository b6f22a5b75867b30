package pidtable

import (
	"log/slog"

	"golang.org/x/sys/unix"

	"sluice/internal/logging"
)

// TerminateAll delivers SIGTERM to every tracked worker, best effort. Each
// failure is logged individually and never blocks the remaining workers. The
// table is left intact so a later inspection can still see what was signaled.
func (t *Table) TerminateAll(logger *slog.Logger) {
	if logger == nil {
		logger = logging.NewNop()
	}
	for workerID, pid := range t.Snapshot() {
		if pid <= 0 {
			logger.Warn("skipping worker with invalid pid",
				logging.String("worker_id", workerID), logging.Int("pid", pid))
			continue
		}
		if err := unix.Kill(pid, unix.SIGTERM); err != nil {
			logger.Warn("failed to signal worker",
				logging.String("worker_id", workerID), logging.Int("pid", pid), logging.Error(err))
			continue
		}
		logger.Info("signaled worker to terminate",
			logging.String("worker_id", workerID), logging.Int("pid", pid))
	}
}
