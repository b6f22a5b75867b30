// Package supervisorrun hosts the sluiced process runtime: signal wiring, the
// pid file, bootstrap, and the completion poll that keeps the main goroutine
// alive until shutdown finishes.
package supervisorrun
