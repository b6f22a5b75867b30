// Package monitor exposes the supervisor's monitoring HTTP server and
// Prometheus collectors.
//
// The server serves liveness, node status, the last-known assignment, and
// /metrics. It is skipped entirely in local mode and stops implicitly when
// the lifecycle owner shuts down. Collectors observe heartbeat publishes and
// event-queue activity without the observed packages importing Prometheus
// themselves.
package monitor
