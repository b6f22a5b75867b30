// Package containerhb relays supervisor liveness to an external container
// manager through the filesystem.
//
// When a container directory is configured, the bridge touches a heartbeat
// file there on every interval so the container manager can detect a hung
// supervisor. Platforms and deployments without a container manager simply
// leave the directory unset; the bridge is then absent, which is not an error.
package containerhb
