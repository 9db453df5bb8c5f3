// Package blockgen implements Block Construction: turning a
// byte budget and a payload configuration into a deterministic sequence of
// pre-serialized block.Block values, the raw material the Block Cache
// variants in package cache serve to the Send Loop.
package blockgen

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand"

	"github.com/NVIDIA/aisloadgen/block"
	"github.com/NVIDIA/aisloadgen/payload"
)

// ErrEmptyBlockSet is returned by Build when even the smallest configured
// block size exceeds the total byte budget, so no block could ever be
// produced.
var ErrEmptyBlockSet = errors.New("blockgen: smallest block size exceeds budget")

// Config bundles the inputs to Build. Sizes must be non-empty and are
// interpreted as a flat, uniform-random candidate set rather than a
// weighted distribution.
type Config struct {
	Sizes     []uint32
	Payload   payload.Serializer
	TotalSize uint32 // total_bytes_budget, nonzero
}

// Build runs the Block Construction algorithm: repeatedly pick a candidate
// size from Sizes uniformly at random, reject it outright if it would
// overrun the remaining budget, serialize a block of at most that size, and
// append it, until the budget is exhausted. Build is deterministic given
// (rnd's seed, cfg.Sizes, cfg.TotalSize, cfg.Payload's own determinism).
func Build(rnd *rand.Rand, cfg Config) ([]block.Block, error) {
	if len(cfg.Sizes) == 0 {
		return nil, fmt.Errorf("blockgen: empty block-size set")
	}
	minSize := cfg.Sizes[0]
	for _, s := range cfg.Sizes[1:] {
		if s < minSize {
			minSize = s
		}
	}
	if minSize > cfg.TotalSize {
		return nil, ErrEmptyBlockSet
	}

	var blocks []block.Block
	remaining := cfg.TotalSize
	for remaining >= minSize {
		size := cfg.Sizes[rnd.Intn(len(cfg.Sizes))]
		if size > remaining {
			continue
		}

		var buf bytes.Buffer
		buf.Grow(int(size))
		n, err := cfg.Payload.Serialize(rnd, int(size), &buf)
		if err != nil {
			return nil, fmt.Errorf("blockgen: serialize: %w", err)
		}
		if n == 0 {
			// Abandon this candidate; do not spin forever on one attempt.
			continue
		}

		blk, err := block.From(buf.Bytes())
		if err != nil {
			return nil, fmt.Errorf("blockgen: %w", err)
		}
		blocks = append(blocks, blk)
		remaining -= blk.TotalBytes()
	}
	return blocks, nil
}
