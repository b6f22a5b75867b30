// Package events provides the serialized event queues and periodic triggers
// that drive supervisor synchronization.
//
// A Queue owns one worker goroutine that drains zero-argument synchronization
// callbacks strictly in FIFO order; callbacks of the same queue never overlap,
// while separate queues run fully in parallel. A Trigger enqueues a callback
// onto its queue at a fixed interval. A tick always joins the FIFO tail even
// when the previous invocation is still running, so sustained slow
// synchronization grows the backlog rather than dropping or coalescing work.
// That unbounded backlog is a deliberate, documented tradeoff.
package events
