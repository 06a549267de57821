package daemon

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of triggers into single fires: a fire
// happens once the quiet window elapses without a new trigger, or at the
// max delay after the first trigger of a burst, whichever comes first.
type Debouncer struct {
	quietWindow time.Duration
	maxDelay    time.Duration

	mu      sync.Mutex
	fire    chan struct{}
	quiet   *time.Timer
	maxWait *time.Timer
	pending bool
}

// NewDebouncer creates a debouncer. maxDelay caps how long a steady
// stream of triggers can postpone the fire.
func NewDebouncer(quietWindow, maxDelay time.Duration) *Debouncer {
	return &Debouncer{
		quietWindow: quietWindow,
		maxDelay:    maxDelay,
		fire:        make(chan struct{}, 1),
	}
}

// Trigger notes an event. Safe for concurrent use.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.quietWindow == 0 {
		d.emit()
		return
	}
	if d.quiet == nil {
		d.quiet = time.AfterFunc(d.quietWindow, d.onTimer)
	} else {
		d.quiet.Reset(d.quietWindow)
	}
	if !d.pending {
		d.pending = true
		if d.maxDelay > 0 {
			d.maxWait = time.AfterFunc(d.maxDelay, d.onTimer)
		}
	}
}

// C fires once per coalesced burst.
func (d *Debouncer) C() <-chan struct{} { return d.fire }

// Stop cancels any pending fire.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reset()
}

func (d *Debouncer) onTimer() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.pending {
		return
	}
	d.reset()
	d.emit()
}

func (d *Debouncer) reset() {
	d.pending = false
	if d.quiet != nil {
		d.quiet.Stop()
		d.quiet = nil
	}
	if d.maxWait != nil {
		d.maxWait.Stop()
		d.maxWait = nil
	}
}

// emit never blocks; a fire already waiting to be consumed absorbs the
// new one.
func (d *Debouncer) emit() {
	select {
	case d.fire <- struct{}{}:
	default:
	}
}
