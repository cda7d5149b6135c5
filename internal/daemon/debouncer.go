package daemon

import (
	"context"
	"time"
)

// Request asks for one rebuild.
type Request struct {
	Trigger string
	Path    string
	// Count is the number of raw requests coalesced into this one.
	Count int
}

// Debouncer coalesces bursts of requests into one. A burst fires after the
// quiet window has passed without new requests, or once MaxDelay has passed
// since its first request, whichever comes first.
type Debouncer struct {
	quiet    time.Duration
	maxDelay time.Duration
	in       chan Request
}

// NewDebouncer creates a debouncer. maxDelay defaults to ten quiet windows.
func NewDebouncer(quiet, maxDelay time.Duration) *Debouncer {
	if quiet <= 0 {
		quiet = 500 * time.Millisecond
	}
	if maxDelay < quiet {
		maxDelay = 10 * quiet
	}
	return &Debouncer{quiet: quiet, maxDelay: maxDelay, in: make(chan Request, 64)}
}

// Request records a change. It never blocks; a full buffer means a burst is
// already pending.
func (d *Debouncer) Request(r Request) {
	select {
	case d.in <- r:
	default:
	}
}

// Run emits coalesced requests to fire until ctx is done.
func (d *Debouncer) Run(ctx context.Context, fire func(Request)) error {
	quietTimer := newStoppedTimer()
	maxTimer := newStoppedTimer()
	var (
		quietC  <-chan time.Time
		maxC    <-chan time.Time
		pending *Request
	)

	emit := func() {
		if pending != nil {
			fire(*pending)
		}
		pending = nil
		quietC, maxC = nil, nil
		stopTimer(quietTimer)
		stopTimer(maxTimer)
	}

	for {
		select {
		case <-ctx.Done():
			stopTimer(quietTimer)
			stopTimer(maxTimer)
			return nil
		case r := <-d.in:
			if pending == nil {
				r.Count = 1
				pending = &r
				resetTimer(maxTimer, d.maxDelay)
				maxC = maxTimer.C
			} else {
				count := pending.Count + 1
				*pending = r
				pending.Count = count
			}
			resetTimer(quietTimer, d.quiet)
			quietC = quietTimer.C
		case <-quietC:
			emit()
		case <-maxC:
			emit()
		}
	}
}

func newStoppedTimer() *time.Timer {
	t := time.NewTimer(time.Hour)
	stopTimer(t)
	return t
}

func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}

func resetTimer(t *time.Timer, after time.Duration) {
	stopTimer(t)
	t.Reset(after)
}
