package ingestrt

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/corestream/ingestrt/checkpoint"
	"github.com/corestream/ingestrt/emit"
	"github.com/corestream/ingestrt/ingesterr"
)

// Start begins the run loop (C6) and returns the caller's control
// surface. The loop owns the source lifecycle exclusively: no two
// goroutines ever hold the current source handle or event processor at
// once.
func (p *Pipeline) Start(ctx context.Context) PipelineControl {
	done := make(chan struct{})
	stopRequested := make(chan struct{})
	var stopOnce sync.Once

	stop := func(ctx context.Context) error {
		stopOnce.Do(func() {
			close(stopRequested)
		})
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	go func() {
		defer close(done)
		p.run(ctx, stopRequested)
	}()

	return PipelineControl{
		Stop: stop,
		Done: done,
	}
}

// run drives the per-attempt procedure of §4.6 — Connecting → Connected →
// Draining → Cooldown → (exit | Connecting) — until stop is requested.
func (p *Pipeline) run(parentCtx context.Context, stopRequested <-chan struct{}) {
	attempt := 0
	var cp checkpoint.Checkpoint
	firstIteration := true

	rng := rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // jitter timing, not security

	for {
		// Connecting: on the very first iteration, restore the last
		// persisted checkpoint; every later iteration carries forward the
		// in-memory value from the previous attempt's drained processor.
		if firstIteration {
			loaded, err := p.store.Load(parentCtx, p.checkpointKey())
			if err != nil {
				p.reportError(err)
			} else {
				cp = loaded
			}
			firstIteration = false
		}

		disconnect := newDisconnectSignal()
		attemptCtx, cancelAttempt := context.WithCancel(parentCtx)

		proc := newEventProcessor(p.id, p.reg, p.writer, p.store, p.cfg.emitter, p.cfg.metrics,
			func(err error) { disconnect.resolve(err) }, cp)

		p.emit(emit.EventConnect, "connecting")
		if p.cfg.metrics != nil {
			p.cfg.metrics.RecordReconnect(p.id)
		}

		handle, startErr := p.source.Start(StartContext{
			Resources:      p.reg.names(),
			FromCheckpoint: cp,
			Ctx:            attemptCtx,
			OnDisconnect:   func(err error) { disconnect.resolve(err) },
			EmitRaw:        proc.onRawMessage,
		})

		// Connected (or a synchronous start failure, which is handled
		// identically to a disconnect: skip straight to draining). A start
		// failure is reported here, once; it must not also surface as a
		// Disconnect below, since both trace back to the same cause.
		startFailed := startErr != nil
		if startFailed {
			p.reportError(ingesterr.NewConnectFailed(startErr))
			disconnect.resolve(startErr)
		} else {
			attempt = 0
		}

		select {
		case <-disconnect.wait():
		case <-stopRequested:
			disconnect.resolve(nil)
		}

		// Cancel the attempt's context as soon as the disconnect/stop is
		// observed, ahead of drain and the explicit handle.Stop below, so a
		// source watching ctx.Done() can start releasing its network
		// handles concurrently with teardown rather than only after it.
		cancelAttempt()

		// Draining.
		proc.drain()
		proc.close()
		cp = proc.currentCheckpoint()

		stopWasRequested := isClosed(stopRequested)

		if !stopWasRequested {
			if cause := disconnect.cause(); cause != nil && !startFailed {
				p.reportError(ingesterr.NewDisconnect(cause))
			}
			p.emit(emit.EventDisconnect, "disconnected")
		}

		if handle != nil {
			stopCtx, cancelStop := context.WithTimeout(context.Background(), 30*time.Second)
			if err := handle.Stop(stopCtx); err != nil {
				p.reportError(err)
			}
			cancelStop()
		}

		// Cooldown.
		if stopWasRequested {
			p.emit(emit.EventStop, "stopped")
			return
		}

		delay := p.cfg.reconnectPolicy.Compute(attempt, rng)
		if p.cfg.metrics != nil {
			p.cfg.metrics.RecordBackoffDelay(p.id, delay)
		}
		attempt++

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-stopRequested:
			timer.Stop()
			p.emit(emit.EventStop, "stopped during backoff")
			return
		}
	}
}

func (p *Pipeline) emit(kind emit.Kind, detail string) {
	if p.cfg.emitter == nil {
		return
	}
	p.cfg.emitter.Emit(emit.Event{PipelineID: p.id, Kind: kind, Detail: detail})
}

func isClosed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}
