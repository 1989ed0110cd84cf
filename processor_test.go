package ingestrt

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/corestream/ingestrt/checkpoint"
	"github.com/corestream/ingestrt/emit"
	"github.com/corestream/ingestrt/ingesterr"
	"github.com/corestream/ingestrt/sink"
)

type recordingTable struct {
	mu      sync.Mutex
	batches [][]sink.Record
	failOn  int // batch index that fails Insert, -1 = never
}

func (t *recordingTable) AssertValidRecord(r sink.Record) (sink.Record, error) { return r, nil }

func (t *recordingTable) Insert(_ context.Context, records []sink.Record) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.failOn == len(t.batches) {
		t.batches = append(t.batches, records) // count it even though it "fails"
		return errors.New("insert failed")
	}
	t.batches = append(t.batches, records)
	return nil
}

func (t *recordingTable) snapshot() [][]sink.Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([][]sink.Record, len(t.batches))
	copy(out, t.batches)
	return out
}

func newTestProcessor(reg *registry, table *recordingTable, store checkpoint.Store, onError func(error)) *eventProcessor {
	return newEventProcessor("test-pipeline", reg, sink.NewWriter(), store, emit.NewNullEmitter(), nil, onError, nil)
}

func seqResource(name string, table *recordingTable) Resource {
	return NewResource(name, table,
		func(raw any) (any, error) { return raw, nil },
		func(p Payload) (*ProcessResult, error) {
			m := p.Value.(map[string]any)
			seq := m["seq"]
			return &ProcessResult{
				Records:    []any{map[string]any{"seq": seq}},
				Checkpoint: checkpoint.Checkpoint{"seq": seq},
			}, nil
		},
	)
}

// Scenario 1: happy path, single resource, table sink.
func TestEventProcessor_HappyPathSingleResource(t *testing.T) {
	table := &recordingTable{failOn: -1}
	reg, err := newRegistry([]Resource{seqResource("events", table)})
	if err != nil {
		t.Fatalf("newRegistry: %v", err)
	}

	store := checkpoint.NewMemoryStore()
	proc := newTestProcessor(reg, table, store, func(err error) { t.Errorf("unexpected error: %v", err) })

	<-proc.onRawMessage(map[string]any{"seq": 1})
	<-proc.onRawMessage(map[string]any{"seq": 2})
	proc.drain()

	batches := table.snapshot()
	if len(batches) != 2 {
		t.Fatalf("expected 2 insert batches, got %d", len(batches))
	}
	if len(batches[0]) != 1 || batches[0][0]["seq"] != 1 {
		t.Errorf("batch 0: unexpected content %v", batches[0])
	}
	if len(batches[1]) != 1 || batches[1][0]["seq"] != 2 {
		t.Errorf("batch 1: unexpected content %v", batches[1])
	}

	got, err := store.Load(context.Background(), "test-pipeline")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got["seq"] != 2 {
		t.Errorf("want final saved checkpoint seq=2, got %v", got["seq"])
	}
	if proc.currentCheckpoint()["seq"] != 2 {
		t.Errorf("want currentCheckpoint seq=2, got %v", proc.currentCheckpoint()["seq"])
	}
}

// Scenario 2: a single raw message parses into three payloads, each
// producing one write and one checkpoint save, in order.
func TestEventProcessor_MultiPayloadParse(t *testing.T) {
	table := &recordingTable{failOn: -1}

	resource := NewResource("events", table,
		func(raw any) (any, error) {
			m := raw.(map[string]any)
			seqs := m["seqs"].([]int)
			out := make([]any, len(seqs))
			for i, s := range seqs {
				out[i] = map[string]any{"seq": s}
			}
			return out, nil
		},
		func(p Payload) (*ProcessResult, error) {
			m := p.Value.(map[string]any)
			seq := m["seq"]
			return &ProcessResult{
				Records:    []any{map[string]any{"seq": seq}},
				Checkpoint: checkpoint.Checkpoint{"seq": seq},
			}, nil
		},
	)

	reg, err := newRegistry([]Resource{resource})
	if err != nil {
		t.Fatalf("newRegistry: %v", err)
	}

	store := checkpoint.NewMemoryStore()
	proc := newTestProcessor(reg, table, store, func(err error) { t.Errorf("unexpected error: %v", err) })

	<-proc.onRawMessage(map[string]any{"seqs": []int{1, 2, 3}})
	proc.drain()

	batches := table.snapshot()
	if len(batches) != 3 {
		t.Fatalf("expected 3 writes, got %d", len(batches))
	}
	for i, want := range []int{1, 2, 3} {
		if batches[i][0]["seq"] != want {
			t.Errorf("write %d: want seq=%d, got %v", i, want, batches[i][0]["seq"])
		}
	}
	if proc.currentCheckpoint()["seq"] != 3 {
		t.Errorf("want currentCheckpoint seq=3, got %v", proc.currentCheckpoint()["seq"])
	}
}

// Scenario 4: a write failure on the second raw message reports an error
// and leaves the first checkpoint intact (no checkpoint advance for the
// failed message).
func TestEventProcessor_WriteFailureReportsErrorAndStopsAtLastGoodCheckpoint(t *testing.T) {
	table := &recordingTable{failOn: 1} // second Insert call fails
	reg, err := newRegistry([]Resource{seqResource("events", table)})
	if err != nil {
		t.Fatalf("newRegistry: %v", err)
	}

	var gotErr error
	var mu sync.Mutex
	store := checkpoint.NewMemoryStore()
	proc := newTestProcessor(reg, table, store, func(err error) {
		mu.Lock()
		gotErr = err
		mu.Unlock()
	})

	<-proc.onRawMessage(map[string]any{"seq": 1})
	<-proc.onRawMessage(map[string]any{"seq": 2})
	proc.drain()

	mu.Lock()
	defer mu.Unlock()
	if gotErr == nil {
		t.Fatal("expected a reported error for the failing write")
	}
	var twf *ingesterr.TableWriteFailedError
	if !errors.As(gotErr, &twf) {
		t.Fatalf("expected TableWriteFailedError, got %T: %v", gotErr, gotErr)
	}

	if proc.currentCheckpoint()["seq"] != 1 {
		t.Errorf("want checkpoint to remain at seq=1 after failed second write, got %v", proc.currentCheckpoint()["seq"])
	}
}

// process returning nil (skip) causes no write and no checkpoint advance.
func TestEventProcessor_ProcessReturningNilSkipsSilently(t *testing.T) {
	table := &recordingTable{failOn: -1}
	resource := NewResource("events", table,
		func(raw any) (any, error) { return raw, nil },
		func(p Payload) (*ProcessResult, error) { return nil, nil },
	)
	reg, err := newRegistry([]Resource{resource})
	if err != nil {
		t.Fatalf("newRegistry: %v", err)
	}

	store := checkpoint.NewMemoryStore()
	proc := newTestProcessor(reg, table, store, func(err error) { t.Errorf("unexpected error: %v", err) })

	<-proc.onRawMessage(map[string]any{"seq": 1})
	proc.drain()

	if len(table.snapshot()) != 0 {
		t.Errorf("expected no writes, got %d", len(table.snapshot()))
	}
	if proc.currentCheckpoint() != nil {
		t.Errorf("expected no checkpoint advance, got %v", proc.currentCheckpoint())
	}
}

// process returning {records: []} causes no write and no checkpoint
// advance even if a checkpoint value is present.
func TestEventProcessor_EmptyRecordsSkipsWriteAndCheckpoint(t *testing.T) {
	table := &recordingTable{failOn: -1}
	resource := NewResource("events", table,
		func(raw any) (any, error) { return raw, nil },
		func(p Payload) (*ProcessResult, error) {
			return &ProcessResult{Records: nil, Checkpoint: checkpoint.Checkpoint{"seq": 99}}, nil
		},
	)
	reg, err := newRegistry([]Resource{resource})
	if err != nil {
		t.Fatalf("newRegistry: %v", err)
	}

	store := checkpoint.NewMemoryStore()
	proc := newTestProcessor(reg, table, store, func(err error) { t.Errorf("unexpected error: %v", err) })

	<-proc.onRawMessage(map[string]any{"seq": 1})
	proc.drain()

	if len(table.snapshot()) != 0 {
		t.Errorf("expected no writes for empty records, got %d", len(table.snapshot()))
	}
	if proc.currentCheckpoint() != nil {
		t.Errorf("expected no checkpoint advance for empty records, got %v", proc.currentCheckpoint())
	}
}

// InvalidProcessOutput: a malformed record shape from Process aborts this
// resource's handling of the raw message and is reported via onError.
func TestEventProcessor_InvalidProcessOutputReportsTypedError(t *testing.T) {
	table := &recordingTable{failOn: -1}
	resource := NewResource("events", table,
		func(raw any) (any, error) { return raw, nil },
		func(p Payload) (*ProcessResult, error) {
			return &ProcessResult{Records: []any{"not-a-keyed-container"}}, nil
		},
	)
	reg, err := newRegistry([]Resource{resource})
	if err != nil {
		t.Fatalf("newRegistry: %v", err)
	}

	var gotErr error
	store := checkpoint.NewMemoryStore()
	proc := newTestProcessor(reg, table, store, func(err error) { gotErr = err })

	<-proc.onRawMessage(map[string]any{"seq": 1})
	proc.drain()

	var ipo *ingesterr.InvalidProcessOutputError
	if !errors.As(gotErr, &ipo) {
		t.Fatalf("expected InvalidProcessOutputError, got %T: %v", gotErr, gotErr)
	}
	if len(table.snapshot()) != 0 {
		t.Errorf("expected no writes for invalid process output, got %d", len(table.snapshot()))
	}
}

// A successful checkpoint save emits an EventCheckpoint alongside the
// metric increment.
func TestEventProcessor_SuccessfulSaveEmitsCheckpointEvent(t *testing.T) {
	table := &recordingTable{failOn: -1}
	reg, err := newRegistry([]Resource{seqResource("events", table)})
	if err != nil {
		t.Fatalf("newRegistry: %v", err)
	}

	store := checkpoint.NewMemoryStore()
	buffered := emit.NewBufferedEmitter()
	proc := newEventProcessor("test-pipeline", reg, sink.NewWriter(), store, buffered, nil,
		func(err error) { t.Errorf("unexpected error: %v", err) }, nil)

	<-proc.onRawMessage(map[string]any{"seq": 1})
	proc.drain()

	var sawCheckpoint bool
	for _, event := range buffered.History("test-pipeline") {
		if event.Kind == emit.EventCheckpoint {
			sawCheckpoint = true
			if event.ResourceName != "events" {
				t.Errorf("want ResourceName=events, got %q", event.ResourceName)
			}
		}
	}
	if !sawCheckpoint {
		t.Error("expected an EventCheckpoint event after a successful save")
	}
}
