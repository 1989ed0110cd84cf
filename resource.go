package ingestrt

import (
	"time"

	"github.com/corestream/ingestrt/checkpoint"
)

// Payload carries one parsed, resource-typed value derived from a raw
// message, paired with the wall-clock time the runtime observed it at
// parse time.
type Payload struct {
	Value      any
	ReceivedAt time.Time
}

// ProcessResult is what a resource's Process function returns for one
// payload: zero or more records to write, and an optional checkpoint to
// persist once those records have been durably written.
//
// Records is intentionally []any rather than []sink.Record: Process is
// implementer-supplied code, and the runtime validates its output shape
// explicitly (raising InvalidProcessOutput on a bad element) rather than
// leaning on the compiler to rule out malformed records.
type ProcessResult struct {
	Records    []any
	Checkpoint checkpoint.Checkpoint
}

// Resource is the resource contract (C4 member, §6): a named routing unit
// that demultiplexes raw provider messages into typed payloads, transforms
// each into zero or more records, and names the destination those records
// are written to.
//
// Parse returns nil, a single payload, or a slice of payloads; the
// processor normalizes all three (see normalizePayloads). Returning an
// empty result for an irrelevant raw message is the expected, common case
// — Parse is the primary filter.
//
// Process receives one payload at a time, in the order Parse produced
// them, and returns nil to skip (no write, no checkpoint advance) or a
// *ProcessResult.
type Resource interface {
	Name() string
	Destination() any
	Parse(raw any) (any, error)
	Process(p Payload) (*ProcessResult, error)
}

// normalizePayloads folds Parse's nil | single | slice contract into a
// flat slice. A nil value yields no payloads. A []any value is treated as
// a list of payloads in order. Anything else is a single payload.
func normalizePayloads(v any) []any {
	if v == nil {
		return nil
	}
	if list, ok := v.([]any); ok {
		return list
	}
	return []any{v}
}

// resourceFunc adapts two plain functions into a Resource, the functional
// counterpart to implementing the interface directly by hand — mirrors
// the teacher's NodeFunc adapter for turning a function into a node.
type resourceFunc struct {
	name        string
	destination any
	parse       func(raw any) (any, error)
	process     func(p Payload) (*ProcessResult, error)
}

// NewResource builds a Resource from plain functions, for callers who
// don't want to define a named type per resource.
func NewResource(
	name string,
	destination any,
	parse func(raw any) (any, error),
	process func(p Payload) (*ProcessResult, error),
) Resource {
	return &resourceFunc{
		name:        name,
		destination: destination,
		parse:       parse,
		process:     process,
	}
}

func (r *resourceFunc) Name() string        { return r.name }
func (r *resourceFunc) Destination() any    { return r.destination }
func (r *resourceFunc) Parse(raw any) (any, error) {
	if r.parse == nil {
		return nil, nil
	}
	return r.parse(raw)
}
func (r *resourceFunc) Process(p Payload) (*ProcessResult, error) {
	if r.process == nil {
		return nil, nil
	}
	return r.process(p)
}
