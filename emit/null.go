package emit

import "context"

// NullEmitter discards every event. Useful when observability overhead is
// unwanted, or for tests that don't care about emitted events.
type NullEmitter struct{}

// NewNullEmitter returns a NullEmitter. Safe for concurrent use, zero
// overhead.
func NewNullEmitter() *NullEmitter { return &NullEmitter{} }

func (n *NullEmitter) Emit(Event) {}

func (n *NullEmitter) EmitBatch(context.Context, []Event) error { return nil }

func (n *NullEmitter) Flush(context.Context) error { return nil }
