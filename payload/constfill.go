package payload

import (
	"bytes"
	"io"
	"math/rand"
)

// ConstFill is a serializer that fills its entire budget with one repeated
// byte. Useful for asserting Block Construction's packing behavior in
// isolation from any particular wire format.
type ConstFill struct {
	Byte byte
}

// Serialize never rejects a budget: it always writes exactly maxBytes
// (the Byte repeated), the degenerate "approach the budget as closely as
// possible" case of the contract.
func (c ConstFill) Serialize(_ *rand.Rand, maxBytes int, w io.Writer) (int, error) {
	if maxBytes <= 0 {
		return 0, nil
	}
	buf := bytes.Repeat([]byte{c.Byte}, maxBytes)
	n, err := w.Write(buf)
	return n, err
}
