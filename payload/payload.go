// Package payload defines the Serializer contract and a handful of
// concrete payload shapes used by Block Construction and by the
// test/verification tooling. Any wire format can plug in by implementing
// Serializer; the payloads here exist to exercise that contract end to
// end and to give Block Construction something real to budget against.
package payload

import (
	"io"
	"math/rand"
)

// Serializer appends one payload "document" (one or more messages) to w,
// consuming entropy from rnd, such that the total bytes written never
// exceeds maxBytes. Implementations must not exceed maxBytes but should
// approach it; returning zero bytes written (and a nil error) is valid when
// even the smallest message would overflow the budget.
type Serializer interface {
	Serialize(rnd *rand.Rand, maxBytes int, w io.Writer) (written int, err error)
}

// countingWriter tracks bytes written so a Serialize implementation can
// check its running total against maxBytes without threading a counter
// through every call site.
type countingWriter struct {
	w io.Writer
	n int
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += n
	return n, err
}
