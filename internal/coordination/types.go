package coordination

import "time"

// NodeInfo is the liveness/info record a supervisor publishes for its node.
type NodeInfo struct {
	NodeID        string    `json:"node_id"`
	Hostname      string    `json:"hostname"`
	Time          time.Time `json:"time"`
	UptimeSeconds int64     `json:"uptime_seconds"`
	WorkerCount   int       `json:"worker_count"`
}

// WorkerSpec describes one worker process the cluster wants running on a node.
type WorkerSpec struct {
	WorkerID string `json:"worker_id"`
	Topology string `json:"topology"`
	Port     int    `json:"port"`
}

// Assignment is the cluster-desired worker set for a node.
type Assignment struct {
	Version int64        `json:"version"`
	Workers []WorkerSpec `json:"workers"`
}
