// Package silence implements the quiet-period countdown that auto-submits a
// spoken answer.
package silence

import (
	"sync"
	"time"
)

const DefaultTimeout = 4000 * time.Millisecond

// Detector restarts a countdown on every Notify and calls onSilence once the
// countdown expires. onSilence runs with the detector locked so that Cancel
// wins any race with expiry; it must not call back into the Detector.
type Detector struct {
	timeout   time.Duration
	onSilence func()

	mu    sync.Mutex
	timer *time.Timer
	gen   uint64
}

func New(timeout time.Duration, onSilence func()) *Detector {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Detector{timeout: timeout, onSilence: onSilence}
}

func (d *Detector) Timeout() time.Duration { return d.timeout }

// Notify (re)arms the countdown.
func (d *Detector) Notify() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.timeout, func() { d.fire(gen) })
}

// Cancel disarms any pending countdown. Once it returns, no callback for that
// countdown will start.
func (d *Detector) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *Detector) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

func (d *Detector) fire(gen uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	// A stale timer that lost the race with Notify or Cancel.
	if gen != d.gen || d.timer == nil {
		return
	}
	d.timer = nil
	if d.onSilence != nil {
		d.onSilence()
	}
}
