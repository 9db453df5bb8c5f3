// Package throttle implements a token-bucket rate limiter that admits
// requests sized to a block's byte count, suspending the caller
// asynchronously until capacity exists. Built directly on
// golang.org/x/time/rate, which already provides the cancellation-safe,
// issuance-ordered WaitN primitive this needs.
package throttle

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/NVIDIA/aisloadgen/cmn/cos"
)

// Config holds the throttle's inputs: bytes_per_second (the refill rate)
// and an implementation-defined burst capacity (the bucket's peak size,
// needed so a single large request is never permanently denied).
type Config struct {
	BytesPerSecond uint32
	Burst          int // peak bucket capacity in tokens (bytes); 0 means "use BytesPerSecond"
}

// Throttle wraps a rate.Limiter configured in bytes-as-tokens.
type Throttle struct {
	lim *rate.Limiter
}

// New constructs a Throttle. bytes_per_second is a required nonzero
// field; a zero rate is a configuration error, not an "unthrottled"
// shorthand, and is fatal at construction.
func New(cfg Config) (*Throttle, error) {
	if cfg.BytesPerSecond == 0 {
		return nil, fmt.Errorf("throttle: bytes_per_second: %w", cos.ErrZeroQuantity)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = int(cfg.BytesPerSecond)
	}
	return &Throttle{lim: rate.NewLimiter(rate.Limit(cfg.BytesPerSecond), burst)}, nil
}

// WaitFor suspends the caller until amount tokens are available and
// deducts them atomically, or returns ctx.Err() if ctx is canceled first.
// Large requests (amount exceeding the bucket's burst size) are widened to
// fit rather than rejected — the caller is never permanently denied.
func (t *Throttle) WaitFor(ctx context.Context, amount uint32) error {
	n := int(amount)
	if n > t.lim.Burst() {
		// WaitN refuses any n exceeding Burst outright; rather than
		// permanently deny the caller, widen the bucket to admit this
		// request size once and for all.
		t.lim.SetBurst(n)
	}
	if err := t.lim.WaitN(ctx, n); err != nil {
		return fmt.Errorf("throttle: wait for %d bytes: %w", amount, err)
	}
	return nil
}
