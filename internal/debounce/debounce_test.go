package debounce

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestBurstCollapsesToOneInvocation(t *testing.T) {
	var calls atomic.Int32
	d := New(30*time.Millisecond, func() { calls.Add(1) })
	defer d.Stop()

	for i := 0; i < 10; i++ {
		d.Trigger()
		time.Sleep(2 * time.Millisecond)
	}

	time.Sleep(100 * time.Millisecond)
	if n := calls.Load(); n != 1 {
		t.Fatalf("expected exactly one invocation, got %d", n)
	}
}

func TestFlushFiresImmediatelyAndCancelsPending(t *testing.T) {
	var calls atomic.Int32
	d := New(time.Hour, func() { calls.Add(1) })
	defer d.Stop()

	d.Trigger()
	d.Flush()
	if n := calls.Load(); n != 1 {
		t.Fatalf("flush must run the function synchronously, got %d calls", n)
	}

	time.Sleep(20 * time.Millisecond)
	if n := calls.Load(); n != 1 {
		t.Fatalf("pending timer must be cancelled by flush, got %d calls", n)
	}
}

func TestSupersededTimerCallbackBacksOut(t *testing.T) {
	var calls atomic.Int32
	d := New(time.Hour, func() { calls.Add(1) })
	defer d.Stop()

	// A timer can fire in the instant before Flush stops it; its callback
	// then runs after Flush with the generation it was armed for.
	d.Trigger()
	d.Flush()
	d.fire(1)

	if n := calls.Load(); n != 1 {
		t.Fatalf("one burst must run the function once, got %d calls", n)
	}
}

func TestStopPreventsFurtherRuns(t *testing.T) {
	var calls atomic.Int32
	d := New(10*time.Millisecond, func() { calls.Add(1) })

	d.Trigger()
	d.Stop()
	d.Trigger()
	d.Flush()

	time.Sleep(40 * time.Millisecond)
	if n := calls.Load(); n != 0 {
		t.Fatalf("stopped debouncer must not run, got %d calls", n)
	}
}
