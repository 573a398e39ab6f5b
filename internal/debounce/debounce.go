// Package debounce provides the quiet-period coalescing used for search
// input: rapid consecutive triggers collapse into a single invocation that
// fires only after the input has been quiet for the configured period.
package debounce

import (
	"sync"
	"time"
)

// Debouncer schedules fn after a quiet period. Every Trigger cancels the
// pending timer and re-arms it, so fn runs once per burst of triggers.
// The generation counter invalidates a timer callback that already fired
// when Trigger or Flush supersedes it, keeping fn at one run per burst.
type Debouncer struct {
	mu    sync.Mutex
	d     time.Duration
	fn    func()
	timer *time.Timer
	gen   uint64
	done  bool
}

// New returns a debouncer that runs fn d after the last Trigger.
func New(d time.Duration, fn func()) *Debouncer {
	return &Debouncer{d: d, fn: fn}
}

// Trigger (re)arms the timer. Safe to call from any goroutine.
func (b *Debouncer) Trigger() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.done {
		return
	}
	if b.timer != nil {
		b.timer.Stop()
	}
	b.gen++
	gen := b.gen
	b.timer = time.AfterFunc(b.d, func() { b.fire(gen) })
}

// fire is the timer callback. A callback armed for an older generation
// lost a race with Trigger, Flush or Stop and must not run fn.
func (b *Debouncer) fire(gen uint64) {
	b.mu.Lock()
	if b.done || gen != b.gen {
		b.mu.Unlock()
		return
	}
	b.gen++
	b.timer = nil
	fn := b.fn
	b.mu.Unlock()
	fn()
}

// Flush cancels any pending timer and runs fn immediately, synchronously.
func (b *Debouncer) Flush() {
	b.mu.Lock()
	if b.done {
		b.mu.Unlock()
		return
	}
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.gen++
	fn := b.fn
	b.mu.Unlock()
	fn()
}

// Stop cancels any pending invocation for good.
func (b *Debouncer) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.done = true
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}
