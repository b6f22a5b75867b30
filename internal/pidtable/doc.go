// Package pidtable tracks the OS process identifiers of worker processes
// hosted on this node.
//
// The process-sync callback records PIDs as it starts and reaps workers; the
// lifecycle owner reads the table at shutdown to deliver a best-effort
// SIGTERM to every remaining worker. The table is safe for concurrent use
// without external locking.
package pidtable
