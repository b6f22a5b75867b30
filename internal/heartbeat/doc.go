// Package heartbeat publishes node liveness records to the coordination
// service.
//
// The loop publishes on a fixed interval; a failed publish is logged and
// retried on the next tick, never treated as fatal. Update is also callable
// synchronously, which bootstrap uses once so the node is visible to the
// cluster before the first periodic tick, and sync callbacks may use for an
// out-of-band refresh.
package heartbeat
