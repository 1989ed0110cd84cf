package ingestrt

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/corestream/ingestrt/checkpoint"
	"github.com/corestream/ingestrt/emit"
	"github.com/corestream/ingestrt/ingesterr"
	"github.com/corestream/ingestrt/metrics"
	"github.com/corestream/ingestrt/sink"
)

// processorTask is one onRawMessage call, queued onto the single-writer
// chain described in spec.md §4.5.
type processorTask struct {
	raw  any
	done chan struct{}
}

// eventProcessor is the event processor (C5): one instance per connection
// attempt, seeded with the checkpoint carried forward from the previous
// attempt (or loaded from the store on the very first iteration).
//
// All onRawMessage calls are processed by a single worker goroutine
// draining a FIFO channel buffered to 256 tasks (the queue is bounded:
// onRawMessage blocks while that buffer is full). The single worker is
// what gives the runtime its write-then-checkpoint ordering guarantee: message k's writes and
// checkpoint save complete before message k+1's handling begins.
type eventProcessor struct {
	pipelineID string
	reg        *registry
	writer     *sink.Writer
	store      checkpoint.Store
	emitter    emit.Emitter
	metrics    *metrics.Metrics
	onError    func(error)

	queue chan *processorTask

	mu   sync.Mutex
	cp   checkpoint.Checkpoint
	last chan struct{}

	stopped chan struct{}
	stopOnce sync.Once
}

func newEventProcessor(
	pipelineID string,
	reg *registry,
	writer *sink.Writer,
	store checkpoint.Store,
	emitter emit.Emitter,
	m *metrics.Metrics,
	onError func(error),
	seed checkpoint.Checkpoint,
) *eventProcessor {
	p := &eventProcessor{
		pipelineID: pipelineID,
		reg:        reg,
		writer:     writer,
		store:      store,
		emitter:    emitter,
		metrics:    m,
		onError:    onError,
		cp:         seed,
		queue:      make(chan *processorTask, 256),
		stopped:    make(chan struct{}),
	}
	go p.run()
	return p
}

// onRawMessage enqueues raw and returns a channel that closes once that
// message has finished processing (successfully or not). This is the
// completion handle a Source may await for EmitRaw backpressure (§6, §9).
func (p *eventProcessor) onRawMessage(raw any) <-chan struct{} {
	t := &processorTask{raw: raw, done: make(chan struct{})}

	p.mu.Lock()
	p.last = t.done
	p.mu.Unlock()

	if p.metrics != nil {
		p.metrics.ProcessorQueueDepth.WithLabelValues(p.pipelineID).Inc()
	}
	p.queue <- t
	return t.done
}

// drain awaits completion of every message accepted so far. If no message
// has ever been accepted, it returns immediately.
func (p *eventProcessor) drain() {
	p.mu.Lock()
	last := p.last
	p.mu.Unlock()
	if last == nil {
		return
	}
	<-last
}

// currentCheckpoint returns a snapshot of the most recently persisted
// checkpoint.
func (p *eventProcessor) currentCheckpoint() checkpoint.Checkpoint {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cp
}

// close stops the worker goroutine. Safe to call more than once; must
// only be called after drain() has returned (i.e. the queue is empty) so
// no task is lost.
func (p *eventProcessor) close() {
	p.stopOnce.Do(func() { close(p.stopped) })
}

func (p *eventProcessor) run() {
	for {
		select {
		case t := <-p.queue:
			if p.metrics != nil {
				p.metrics.ProcessorQueueDepth.WithLabelValues(p.pipelineID).Dec()
			}
			p.handle(t.raw)
			close(t.done)
		case <-p.stopped:
			return
		}
	}
}

// handle runs the per-message algorithm from spec.md §4.5: for each
// resource in declaration order, parse the raw message into payloads,
// then process each payload, writing its records and saving its
// checkpoint before moving on. Any error aborts this message's handling
// (for every remaining resource/payload) and is reported via onError;
// the worker then moves on to the next queued message.
func (p *eventProcessor) handle(raw any) {
	ctx := context.Background()

	for _, res := range p.reg.ordered {
		payloadVals, err := res.Parse(raw)
		if err != nil {
			p.reportError(fmt.Errorf("ingestrt: resource %q: parse: %w", res.Name(), err))
			return
		}

		for _, v := range normalizePayloads(payloadVals) {
			if err := p.handlePayload(ctx, res, v); err != nil {
				p.reportError(err)
				return
			}
		}
	}
}

func (p *eventProcessor) handlePayload(ctx context.Context, res Resource, v any) error {
	result, err := res.Process(Payload{Value: v, ReceivedAt: time.Now()})
	if err != nil {
		return fmt.Errorf("ingestrt: resource %q: process: %w", res.Name(), err)
	}
	if result == nil || len(result.Records) == 0 {
		return nil
	}

	for i, r := range result.Records {
		if _, ok := r.(map[string]any); ok {
			continue
		}
		if _, ok := r.(sink.Record); ok {
			continue
		}
		return ingesterr.NewInvalidProcessOutput(res.Name(), fmt.Sprintf("record %d is not a plain keyed container", i))
	}

	if err := p.writer.Write(ctx, res.Name(), res.Destination(), result.Records); err != nil {
		return err
	}

	if p.emitter != nil {
		p.emitter.Emit(emit.Event{
			PipelineID:   p.pipelineID,
			ResourceName: res.Name(),
			Kind:         emit.EventWrite,
			Detail:       fmt.Sprintf("wrote %d record(s)", len(result.Records)),
		})
	}
	if p.metrics != nil {
		p.metrics.WritesTotal.WithLabelValues(res.Name(), destinationKind(res.Destination())).Add(float64(len(result.Records)))
	}

	if result.Checkpoint != nil {
		if err := p.store.Save(ctx, p.pipelineID, result.Checkpoint); err != nil {
			return ingesterr.NewCheckpointSaveFailed(p.pipelineID, err)
		}
		p.mu.Lock()
		p.cp = result.Checkpoint
		p.mu.Unlock()
		if p.emitter != nil {
			p.emitter.Emit(emit.Event{
				PipelineID:   p.pipelineID,
				ResourceName: res.Name(),
				Kind:         emit.EventCheckpoint,
				Detail:       "checkpoint saved",
			})
		}
		if p.metrics != nil {
			p.metrics.CheckpointSavesTotal.WithLabelValues(p.pipelineID).Inc()
		}
	}

	return nil
}

func (p *eventProcessor) reportError(err error) {
	if p.emitter != nil {
		p.emitter.Emit(emit.Event{
			PipelineID: p.pipelineID,
			Kind:       emit.EventError,
			Detail:     err.Error(),
		})
	}
	if p.onError != nil {
		p.onError(err)
	}
}

// destinationKind labels a destination for metrics without importing the
// sink package's interfaces into the hot path twice.
func destinationKind(dest any) string {
	if _, ok := dest.(sink.TableDestination); ok {
		return "table"
	}
	if _, ok := dest.(sink.StreamDestination); ok {
		return "stream"
	}
	return "unknown"
}
