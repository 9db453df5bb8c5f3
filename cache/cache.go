// Package cache implements the Block Cache: the pre-computed,
// byte-budgeted source of blocks the Send Loop consumes, offered either
// as an eagerly built Fixed pool with cyclic reuse or as a Stream backed
// by a dedicated producer goroutine and a bounded channel.
package cache

import (
	"math/rand"

	"github.com/NVIDIA/aisloadgen/block"
	"github.com/NVIDIA/aisloadgen/blockgen"
	"github.com/NVIDIA/aisloadgen/cmn/xoshiro256"
	"github.com/NVIDIA/aisloadgen/payload"
)

// Config mirrors blockgen.Config; it is the shared input both cache
// variants build from. Seed is the raw 32-byte key expanded into
// xoshiro256's 256 bits of state by each variant independently (Fixed
// once at construction, Stream once per producer goroutine): parallel
// children built from the same seed are not guaranteed to diverge unless
// the caller folds the child index into Seed itself.
type Config struct {
	Seed      [32]byte
	Sizes     []uint32
	Payload   payload.Serializer
	TotalSize uint32
}

// StreamChannelCapacity is the bounded channel capacity every Stream cache
// uses.
const StreamChannelCapacity = 1024

// Fixed is the eagerly-materialized cache variant: the full block sequence
// is built once at construction time and served thereafter by a cyclic
// cursor. Not safe for concurrent use by multiple consumers — one
// generator child owns each cache instance.
type Fixed struct {
	blocks []block.Block
	idx    int
}

// NewFixed builds the block sequence up front via blockgen.Build.
func NewFixed(cfg Config) (*Fixed, error) {
	rnd := rand.New(xoshiro256.New(cfg.Seed))
	blocks, err := blockgen.Build(rnd, blockgen.Config{
		Sizes:     cfg.Sizes,
		Payload:   cfg.Payload,
		TotalSize: cfg.TotalSize,
	})
	if err != nil {
		return nil, err
	}
	return &Fixed{blocks: blocks}, nil
}

// Len reports how many blocks the cache holds.
func (f *Fixed) Len() int { return len(f.blocks) }

// Peek returns the block the cursor currently points at without advancing.
func (f *Fixed) Peek() block.Block {
	return f.blocks[f.idx]
}

// Advance returns the block the cursor currently points at and moves the
// cursor to the next position, wrapping modulo len(blocks).
func (f *Fixed) Advance() block.Block {
	b := f.blocks[f.idx]
	f.idx = (f.idx + 1) % len(f.blocks)
	return b
}

// Stream is the lazily-produced cache variant: a dedicated goroutine owns
// its own rng (seeded from cfg.Seed) and feeds freshly generated blocks
// into a bounded channel forever, blocking on send when the channel is
// full (backpressure) and exiting cleanly once Stop is called, including
// while blocked on a send.
type Stream struct {
	ch   chan block.Block
	done chan struct{}
}

// NewStream spawns the producer goroutine and returns a Stream whose
// Blocks channel the Send Loop (via a peek.Receiver) consumes from.
func NewStream(cfg Config) *Stream {
	s := &Stream{
		ch:   make(chan block.Block, StreamChannelCapacity),
		done: make(chan struct{}),
	}
	go s.produce(cfg)
	return s
}

// Blocks returns the receive-only channel of produced blocks.
func (s *Stream) Blocks() <-chan block.Block { return s.ch }

// Stop signals the producer to exit once it next tries to send; it does
// not drain or close the channel itself, since a blocked send is the
// producer's own job to notice.
func (s *Stream) Stop() { close(s.done) }

// produce is the goroutine body. total_bytes_budget only informs the size
// distribution the producer scales toward (it targets one "budget's worth"
// of blocks per batch before starting a fresh batch with the same rng
// state); it is advisory, not an upper bound across the unbounded stream.
func (s *Stream) produce(cfg Config) {
	rnd := rand.New(xoshiro256.New(cfg.Seed))
	for {
		batch, err := blockgen.Build(rnd, blockgen.Config{
			Sizes:     cfg.Sizes,
			Payload:   cfg.Payload,
			TotalSize: cfg.TotalSize,
		})
		if err != nil {
			// A config Build rejects (an empty size set, a smallest size
			// above the budget, a serializer error) fails the same way on
			// every batch and would spin the producer hot; surface nothing
			// further and stop.
			return
		}
		for _, b := range batch {
			select {
			case s.ch <- b:
			case <-s.done:
				return
			}
		}
	}
}
