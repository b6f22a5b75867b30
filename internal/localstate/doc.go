// Package localstate provides the per-node durable key-value store backing
// the supervisor.
//
// The store persists the node identity and the last-known assignment snapshot
// across daemon restarts. It is backed by SQLite in WAL mode; concurrent
// per-key access from the heartbeat loop and sync callbacks is serialized by
// the database, with a short busy-retry loop smoothing over writer contention.
package localstate
