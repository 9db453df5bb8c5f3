// Package sendloop implements the send loop: the per-child orchestration
// that couples a Block Cache (via a Peekable Receiver or a Fixed cursor),
// a Throttle, the shutdown broadcast, and a transport-specific write
// primitive into one rate-limited peek→throttle→commit cycle. Connect
// once, loop send-and-account, reconnect on a stream write error.
package sendloop

import (
	"context"
	"time"

	"github.com/NVIDIA/aisloadgen/block"
	"github.com/NVIDIA/aisloadgen/cmn/cos"
	"github.com/NVIDIA/aisloadgen/cmn/nlog"
	"github.com/NVIDIA/aisloadgen/genmetrics"
	"github.com/NVIDIA/aisloadgen/throttle"
)

// State is the child's position in the loop's state machine:
// Starting → Connecting → Running → Draining → Terminated, with
// Running → Connecting on a stream write error.
type State int

const (
	Starting State = iota
	Connecting
	Running
	Draining
	Terminated
)

func (s State) String() string {
	switch s {
	case Starting:
		return "Starting"
	case Connecting:
		return "Connecting"
	case Running:
		return "Running"
	case Draining:
		return "Draining"
	case Terminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

// BlockSource abstracts over the two Block Cache variants (cache.Fixed's
// cyclic cursor, or a peek.Receiver fed by cache.Stream's channel) behind
// the single peek/advance shape the Send Loop needs. Peek must be
// idempotent: repeated calls with no intervening Advance return the same
// block, which both cache.Fixed and
// peek.Receiver already satisfy by construction.
type BlockSource interface {
	Peek(ctx context.Context) (block.Block, error)
	Advance(ctx context.Context) (block.Block, error)
}

// Transport is the minimal per-connection write primitive each wire
// adaptor implements. IsDatagram tells the loop whether a write error
// should be treated as "shear the whole block" (datagram) or retried at
// the transport's own discretion via reconnect (stream).
type Transport interface {
	Connect(ctx context.Context) error
	Write(ctx context.Context, p []byte) (n int, err error)
	Close() error
	IsDatagram() bool
	Name() string
}

// Config bundles everything one child needs to run the loop.
type Config struct {
	Source    BlockSource
	Throttle  *throttle.Throttle
	Transport Transport
	Shutdown  *cos.StopCh
	Metrics   *genmetrics.Registry
	Labels    genmetrics.Labels

	// ReconnectDelay is the sleep between reconnect attempts for stream
	// transports; defaults to 1s when zero so tests can override it with
	// something faster.
	ReconnectDelay time.Duration
}

// Loop runs one generator child to completion: connect, then peek →
// throttle → commit forever until Shutdown fires or a Transport.Connect
// retry loop is itself interrupted by Shutdown. Loop always returns nil on
// a clean shutdown; it returns a non-nil error if ctx itself is canceled
// (a condition distinct from the Shutdown broadcast, reserved for callers
// that also want a hard deadline) or if a stream transport's write fails
// with an error that cos.IsRetriableConnErr does not classify as a
// connection error (that write error is returned as is).
func Loop(ctx context.Context, cfg Config) error {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = time.Second
	}

	state := Starting
	var maxDetectedBytes uint32 = ^uint32(0) // no ceiling learned yet

	state = Connecting
	if err := connectWithRetry(ctx, cfg, &state); err != nil {
		return err
	}
	defer cfg.Transport.Close()
	state = Running

	for {
		blk, err := cfg.Source.Peek(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// A live cache should never exhaust, but if it happens treat
			// it as a clean stop rather than propagating the error.
			state = Terminated
			return nil
		}

		select {
		case <-cfg.Shutdown.Listen():
			state = Draining
			state = Terminated
			return nil
		default:
		}

		sz := blk.TotalBytes()
		if sz > maxDetectedBytes {
			if _, err := cfg.Source.Advance(ctx); err != nil && ctx.Err() != nil {
				return ctx.Err()
			}
			nlog.Infof("sendloop[%s]: skipped oversized block (%d > %d)", cfg.Labels.ID, sz, maxDetectedBytes)
			continue
		}

		waitCtx, cancel := context.WithCancel(ctx)
		waitDone := make(chan error, 1)
		go func() { waitDone <- cfg.Throttle.WaitFor(waitCtx, sz) }()

		select {
		case <-cfg.Shutdown.Listen():
			cancel() // cancellation-safe: no tokens are consumed
			<-waitDone
			state = Draining
			state = Terminated
			return nil
		case werr := <-waitDone:
			cancel()
			if werr != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				// Throttle wait itself failed only if ctx was canceled;
				// treat anything else as a transient retry of the same
				// peeked block on the next loop iteration.
				continue
			}
		}

		// Commit: peek-then-take. The block is removed from the cache only
		// now, after throttle admission and before the write is attempted.
		committed, err := cfg.Source.Advance(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			state = Terminated
			return nil
		}

		n, werr := cfg.Transport.Write(ctx, committed.Bytes())
		if werr == nil {
			cfg.Metrics.BytesWrittenAdd(cfg.Labels, n, cfg.Transport.IsDatagram())
			continue
		}

		cfg.Metrics.RequestFailureWithReason(cfg.Labels, werr.Error())

		if cfg.Transport.IsDatagram() {
			// Learn the kernel ceiling below the failing size; never
			// re-raised for the lifetime of this child.
			if n > 0 {
				maxDetectedBytes = uint32(n - 1)
			} else if int(committed.TotalBytes()) > 0 {
				maxDetectedBytes = committed.TotalBytes() - 1
			}
			cfg.Metrics.SetMaxTransportBytes(cfg.Labels, cfg.Transport.Name(), maxDetectedBytes)
			continue
		}

		// Stream transport: reconnect only on errors the connection itself
		// can explain (refused, reset, broken pipe); anything else is a
		// write-path failure reconnecting would not fix.
		if !cos.IsRetriableConnErr(werr) {
			return werr
		}

		cfg.Transport.Close()
		state = Connecting
		if err := connectWithRetry(ctx, cfg, &state); err != nil {
			return err
		}
		state = Running
	}
}

// connectWithRetry loops Connect with a fixed delay on failure, recording
// connection_failure each attempt, until it succeeds or Shutdown fires.
func connectWithRetry(ctx context.Context, cfg Config, state *State) error {
	for {
		select {
		case <-cfg.Shutdown.Listen():
			*state = Terminated
			return nil
		default:
		}

		err := cfg.Transport.Connect(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		cfg.Metrics.ConnectionFailureWithReason(cfg.Labels, err.Error())
		nlog.Warningf("sendloop[%s]: connect failed: %v", cfg.Labels.ID, err)

		select {
		case <-cfg.Shutdown.Listen():
			*state = Terminated
			return nil
		case <-time.After(cfg.ReconnectDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
