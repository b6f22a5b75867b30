package supervisor

import (
	"context"
	"encoding/json"
	"fmt"

	"sluice/internal/events"
	"sluice/internal/localstate"
	"sluice/internal/logging"
)

// defaultSupervisorSync is the supervisor-sync shell: read the cluster-desired
// assignment, persist the snapshot for crash recovery, refresh the heartbeat
// out of band, and hand reconciliation to the process-sync queue. The
// reconciliation body itself stays injected.
func (m *Manager) defaultSupervisorSync(processSync events.Callback) events.Callback {
	logger := logging.NewComponentLogger(m.logger, "supervisor-sync")

	return func(ctx context.Context) error {
		assignment, err := m.client.ReadAssignment(ctx, m.nodeID)
		if err != nil {
			return fmt.Errorf("read assignment: %w", err)
		}

		payload, err := json.Marshal(assignment)
		if err != nil {
			return fmt.Errorf("encode assignment snapshot: %w", err)
		}
		if err := m.state.Put(ctx, localstate.KeyAssignment, payload); err != nil {
			return fmt.Errorf("persist assignment snapshot: %w", err)
		}

		previous := m.lastAssignment.Swap(assignment)
		if previous == nil || previous.Version != assignment.Version {
			logger.Info("assignment updated",
				logging.Int64("version", assignment.Version),
				logging.Int("workers", len(assignment.Workers)))
		}

		// Out-of-band liveness refresh; the periodic loop retries failures.
		if err := m.hb.Update(ctx); err != nil {
			logger.Warn("heartbeat refresh failed", logging.Error(err))
		}

		if processSync != nil {
			m.processQueue.Enqueue(processSync)
		}
		return nil
	}
}
