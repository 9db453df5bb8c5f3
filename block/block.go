// Package block defines the immutable unit of pre-serialized payload bytes
// that flows from Block Construction, through the Block Cache, to the Send
// Loop: a buffer plus its size, stripped of any inter-node streaming
// machinery since this is a single in-process handoff.
package block

import "errors"

// ErrEmpty is returned by From when handed a zero-length buffer;
// total_bytes must be positive.
var ErrEmpty = errors.New("block: empty buffer")

// Block is an immutable, pre-serialized payload chunk. Once constructed its
// bytes are never mutated, so it is safe to share read-only across however
// many Fixed-cache consumers hold a reference to the same underlying cache.
type Block struct {
	bytes      []byte
	totalBytes uint32
}

// From takes ownership of buf and returns a Block recording its length.
// Fails if buf is empty.
func From(buf []byte) (Block, error) {
	if len(buf) == 0 {
		return Block{}, ErrEmpty
	}
	return Block{bytes: buf, totalBytes: uint32(len(buf))}, nil
}

// Bytes returns the block's payload. Callers must not mutate the returned
// slice; it may be shared across many goroutines (Fixed cache).
func (b Block) Bytes() []byte { return b.bytes }

// TotalBytes is the block's length as a nonzero 32-bit quantity.
func (b Block) TotalBytes() uint32 { return b.totalBytes }
