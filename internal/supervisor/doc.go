// Package supervisor bootstraps the per-node supervisor and owns its
// lifecycle.
//
// Bootstrap performs one-time setup (scratch directory, coordination client,
// durable state, node identity) and then starts every background loop in
// dependency order: heartbeat, container heartbeat bridge, the process-sync
// and supervisor-sync event queues, the supervisor-sync trigger, and the
// monitoring server. The returned Manager is the single shutdown authority:
// once shutdown begins nothing restarts, every owned resource gets a
// best-effort termination attempt, and the finished flag only ever moves from
// false to true.
//
// The reconciliation logic that decides which worker processes to start or
// kill is supplied by the caller as callbacks; this package only schedules it.
package supervisor
