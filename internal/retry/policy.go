// Package retry repeats operations that fail transiently, such as pushes to
// the deploy remote.
package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// Mode selects how the delay grows between attempts.
type Mode string

const (
	ModeFixed       Mode = "fixed"
	ModeLinear      Mode = "linear"
	ModeExponential Mode = "exponential"
)

// Policy bounds the number of retries and the wait before each.
type Policy struct {
	Mode       Mode
	Initial    time.Duration
	Max        time.Duration
	MaxRetries int
}

// NewPolicy fills unset or invalid fields with linear, 1s, 30s and 2
// retries. Initial is clamped to Max.
func NewPolicy(mode Mode, initial, maxDelay time.Duration, maxRetries int) Policy {
	p := Policy{Mode: ModeLinear, Initial: time.Second, Max: 30 * time.Second, MaxRetries: 2}
	switch mode {
	case ModeFixed, ModeLinear, ModeExponential:
		p.Mode = mode
	}
	if initial > 0 {
		p.Initial = initial
	}
	if maxDelay > 0 {
		p.Max = maxDelay
	}
	if maxRetries >= 0 {
		p.MaxRetries = maxRetries
	}
	p.Initial = min(p.Initial, p.Max)
	return p
}

// Delay is the wait before retry n, counting from 1.
func (p Policy) Delay(n int) time.Duration {
	var d time.Duration
	switch {
	case n <= 0:
		return 0
	case p.Mode == ModeFixed:
		d = p.Initial
	case p.Mode == ModeExponential && n < 32:
		d = p.Initial << (n - 1)
	case p.Mode == ModeExponential:
		d = p.Max
	default:
		d = p.Initial * time.Duration(n)
	}
	if d <= 0 || d > p.Max {
		return p.Max
	}
	return d
}

// Do calls fn until it succeeds, permanent reports true for its error, or the
// retries are spent. A nil permanent retries every error.
func (p Policy) Do(ctx context.Context, op string, fn func(context.Context) error, permanent func(error) bool) error {
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		switch {
		case err == nil:
			return nil
		case permanent != nil && permanent(err):
			return err
		case attempt >= p.MaxRetries:
			return fmt.Errorf("%s failed after %d attempts: %w", op, attempt+1, err)
		}

		delay := p.Delay(attempt + 1)
		slog.WarnContext(ctx, "Retrying after transient failure",
			logfields.Stage(op),
			slog.Int("retry", attempt+1),
			slog.Duration("delay", delay),
			logfields.Error(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}
