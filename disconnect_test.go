package ingestrt

import (
	"errors"
	"sync"
	"testing"
)

func TestDisconnectSignal_ResolveIsIdempotent(t *testing.T) {
	d := newDisconnectSignal()
	first := errors.New("first")
	second := errors.New("second")

	d.resolve(first)
	d.resolve(second)

	select {
	case <-d.wait():
	default:
		t.Fatal("expected wait() channel to be closed after resolve")
	}
	if d.cause() != first {
		t.Errorf("want cause=%v (first resolve wins), got %v", first, d.cause())
	}
}

func TestDisconnectSignal_NilCauseIsValid(t *testing.T) {
	d := newDisconnectSignal()
	d.resolve(nil)
	<-d.wait()
	if d.cause() != nil {
		t.Errorf("want nil cause, got %v", d.cause())
	}
}

func TestDisconnectSignal_ConcurrentResolveOnlyFirstWins(t *testing.T) {
	d := newDisconnectSignal()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d.resolve(errors.New("err"))
		}(i)
	}
	wg.Wait()

	<-d.wait()
	if d.cause() == nil {
		t.Error("expected a non-nil cause from one of the concurrent resolves")
	}
}
