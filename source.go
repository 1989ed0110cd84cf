package ingestrt

import (
	"context"

	"github.com/corestream/ingestrt/checkpoint"
)

// StartContext is everything a Source needs to begin a single connection
// attempt (§6 Source contract).
//
// EmitRaw enqueues raw into the attempt's event processor and returns a
// channel that closes once that message (and everything it triggers —
// parse, process, writes, checkpoint save) has finished. A source that
// wants backpressure awaits the channel before calling EmitRaw again;
// the runtime never requires it to.
type StartContext struct {
	Resources      []string
	FromCheckpoint checkpoint.Checkpoint
	Ctx            context.Context
	OnDisconnect   func(err error)
	EmitRaw        func(raw any) <-chan struct{}
}

// SourceHandle is what Source.Start returns: a live connection attempt
// that can be asked to stop.
type SourceHandle interface {
	Stop(ctx context.Context) error
}

// Source is the external-facing adapter the runtime drives (§6). One
// Source instance is reused across reconnects; Start is called once per
// attempt and must return a fresh handle each time.
type Source interface {
	Start(sc StartContext) (SourceHandle, error)
}

// PipelineControl is the public control surface returned to callers that
// start a pipeline (§4.6, §6): a cooperative stop and a completion signal.
type PipelineControl struct {
	// Stop initiates cooperative shutdown and blocks until the run loop
	// has exited and the current source handle has been stopped. Safe to
	// call more than once; the second call observes the same exit.
	Stop func(ctx context.Context) error
	// Done is closed when the run loop exits for any reason.
	Done <-chan struct{}
}
