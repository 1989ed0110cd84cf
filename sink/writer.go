package sink

import (
	"context"

	"github.com/corestream/ingestrt/ingesterr"
)

// Writer is the sink writer (C3): a single write contract dispatched over
// whichever capability a destination exposes.
//
// Writer never mutates the records it is given; table destinations may
// shallow-copy during validation.
type Writer struct{}

// NewWriter returns a ready-to-use Writer. Writer holds no state of its
// own — destinations carry their own connections/buffers — so a single
// instance may be shared across resources and pipelines.
func NewWriter() *Writer { return &Writer{} }

// Write sends records to destination on behalf of resourceName.
//
// records is intentionally loosely typed ([]any): Write is the last line
// of shape validation before any I/O happens, for callers that didn't go
// through the event processor's own normalization (e.g. a destination
// exercised directly in a test, or a resource built from raw JSON).
// Every element must be a plain keyed container (map[string]any); the
// first one that isn't fails the whole call with InvalidRecordShape
// before anything is written.
//
// Empty input returns immediately without touching destination.
// Capability discovery happens on every call (no memoized dispatch): a
// destination implementing both TableDestination and StreamDestination is
// treated as a table, since table semantics (validate-then-batch) are the
// stricter contract.
func (w *Writer) Write(ctx context.Context, resourceName string, destination any, records []any) error {
	if len(records) == 0 {
		return nil
	}

	shaped := make([]Record, len(records))
	for i, r := range records {
		m, ok := r.(map[string]any)
		if !ok {
			if rec, ok := r.(Record); ok {
				m = rec
			} else {
				return ingesterr.NewInvalidRecordShape(resourceName, i)
			}
		}
		shaped[i] = Record(m)
	}

	if table, ok := destination.(TableDestination); ok {
		return w.writeTable(ctx, resourceName, table, shaped)
	}
	if stream, ok := destination.(StreamDestination); ok {
		return w.writeStream(ctx, resourceName, stream, shaped)
	}
	return ingesterr.NewUnsupportedDestination(resourceName)
}

func (w *Writer) writeTable(ctx context.Context, resourceName string, table TableDestination, records []Record) error {
	validated := make([]Record, 0, len(records))
	for _, r := range records {
		v, err := table.AssertValidRecord(r)
		if err != nil {
			return ingesterr.NewTableWriteFailed(resourceName, err)
		}
		validated = append(validated, v)
	}

	if err := table.Insert(ctx, validated); err != nil {
		return ingesterr.NewTableWriteFailed(resourceName, err)
	}
	return nil
}

func (w *Writer) writeStream(ctx context.Context, resourceName string, stream StreamDestination, records []Record) error {
	for _, r := range records {
		if err := stream.Send(ctx, r); err != nil {
			return ingesterr.NewStreamWriteFailed(resourceName, err)
		}
	}
	return nil
}
