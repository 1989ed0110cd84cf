// Package sink implements the sink writer (C3): one write contract over
// two destination shapes, selected by capability discovery rather than a
// type tag.
package sink

import "context"

// Record is a plain keyed container accepted by a destination. Arrays of
// records preserve insertion order; an empty slice is legal and causes no
// I/O.
type Record map[string]any

// TableDestination supports validated batch inserts.
//
// AssertValidRecord must return an error (not panic) for a malformed
// record, and may return a shallow-copied, normalized form of the input.
// Insert receives only records that have already passed
// AssertValidRecord, in the same order they were given to Writer.Write.
type TableDestination interface {
	AssertValidRecord(r Record) (Record, error)
	Insert(ctx context.Context, records []Record) error
}

// StreamDestination supports sending one record at a time.
type StreamDestination interface {
	Send(ctx context.Context, r Record) error
}
