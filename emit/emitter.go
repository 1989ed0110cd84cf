// Package emit provides pluggable observability for the ingestion runtime:
// connect/disconnect, write, checkpoint, and error events, emitted to
// whichever backend the pipeline is configured with.
package emit

import "context"

// Emitter receives and processes observability events from a running
// pipeline.
//
// Implementations should be non-blocking and thread-safe: Emit may be
// called concurrently by the run loop and the event processor's worker
// goroutine for distinct pipelines, and must never panic.
type Emitter interface {
	// Emit sends a single observability event to the configured backend.
	Emit(event Event)

	// EmitBatch sends multiple events in one operation. Implementations
	// should process events in order and return an error only for
	// catastrophic, non-per-event failures.
	EmitBatch(ctx context.Context, events []Event) error

	// Flush blocks until all buffered events are sent to the backend, or
	// ctx is done. Safe to call more than once.
	Flush(ctx context.Context) error
}
