package payload

import (
	"io"
	"math/rand"

	"github.com/tinylib/msgp/msgp"
)

// TraceSpan serializes a sequence of Datadog-APM-shaped trace spans as a
// msgpack array-of-arrays, one inner array per span, written directly
// through msgp's low-level Writer (no codegen'd struct: the wire shape is
// fixed and small enough that hand-written field order is clearer than a
// generated (Un)MarshalMsg pair). Each span carries service, name, resource,
// trace_id, span_id, parent_id, start, duration, error, meta, metrics, type.
type TraceSpan struct {
	Service string
}

const traceSpanFields = 12

func (t TraceSpan) span(rnd *rand.Rand) (service, name, resource string, traceID, spanID, parentID uint64, start, duration int64, errFlag int32, meta map[string]string, metrics map[string]float64, typ string) {
	service = t.Service
	if service == "" {
		service = "aisloadgen"
	}
	name = "http.request"
	resource = "GET /generated"
	traceID = rnd.Uint64()
	spanID = rnd.Uint64()
	parentID = rnd.Uint64()
	start = rnd.Int63()
	duration = int64(rnd.Intn(1_000_000_000))
	if rnd.Intn(100) == 0 {
		errFlag = 1
	}
	meta = map[string]string{"env": "loadtest"}
	metrics = map[string]float64{"_sampling_priority_v1": 1}
	typ = "web"
	return
}

// writeSpan emits one span as a msgpack array of the 12 fixed fields above,
// in the order trace_agent.rs's serializer emits them.
func writeSpan(w *msgp.Writer, rnd *rand.Rand, service string) error {
	svc, name, resource, traceID, spanID, parentID, start, duration, errFlag, meta, metrics, typ := (TraceSpan{Service: service}).span(rnd)

	if err := w.WriteArrayHeader(traceSpanFields); err != nil {
		return err
	}
	if err := w.WriteString(svc); err != nil {
		return err
	}
	if err := w.WriteString(name); err != nil {
		return err
	}
	if err := w.WriteString(resource); err != nil {
		return err
	}
	if err := w.WriteUint64(traceID); err != nil {
		return err
	}
	if err := w.WriteUint64(spanID); err != nil {
		return err
	}
	if err := w.WriteUint64(parentID); err != nil {
		return err
	}
	if err := w.WriteInt64(start); err != nil {
		return err
	}
	if err := w.WriteInt64(duration); err != nil {
		return err
	}
	if err := w.WriteInt32(errFlag); err != nil {
		return err
	}
	if err := w.WriteMapHeader(uint32(len(meta))); err != nil {
		return err
	}
	for k, v := range meta {
		if err := w.WriteString(k); err != nil {
			return err
		}
		if err := w.WriteString(v); err != nil {
			return err
		}
	}
	if err := w.WriteMapHeader(uint32(len(metrics))); err != nil {
		return err
	}
	for k, v := range metrics {
		if err := w.WriteString(k); err != nil {
			return err
		}
		if err := w.WriteFloat64(v); err != nil {
			return err
		}
	}
	return w.WriteString(typ)
}

// Serialize packs as many spans as fit within maxBytes into one msgpack
// array-of-spans. It over-builds one span into a scratch buffer to measure
// its encoded size before committing it to w, so a span that would overflow
// the budget is dropped rather than partially written.
func (t TraceSpan) Serialize(rnd *rand.Rand, maxBytes int, w io.Writer) (int, error) {
	var spans [][]byte
	total := 0
	for {
		scratch := &countingBuffer{}
		mw := msgp.NewWriter(scratch)
		if err := writeSpan(mw, rnd, t.Service); err != nil {
			return total, err
		}
		if err := mw.Flush(); err != nil {
			return total, err
		}
		encoded := scratch.buf

		// Account for the outer array header once spans is non-empty; msgp
		// array headers are at most 5 bytes (array32 prefix).
		headerOverhead := 0
		if len(spans) == 0 {
			headerOverhead = 5
		}
		if total+headerOverhead+len(encoded) > maxBytes {
			break
		}
		spans = append(spans, encoded)
		total += len(encoded)
		if len(spans) == 1 {
			total += headerOverhead
		}
	}

	if len(spans) == 0 {
		return 0, nil
	}

	// Count at the underlying writer so the array header's bytes are
	// included in the total reported to the caller.
	cw := &countingWriter{w: w}
	out := msgp.NewWriter(cw)
	if err := out.WriteArrayHeader(uint32(len(spans))); err != nil {
		return cw.n, err
	}
	for _, s := range spans {
		if _, err := out.Write(s); err != nil {
			return cw.n, err
		}
	}
	if err := out.Flush(); err != nil {
		return cw.n, err
	}
	return cw.n, nil
}

// countingBuffer is a minimal io.Writer sink used to measure one span's
// encoded size before deciding whether it fits the remaining budget.
type countingBuffer struct {
	buf []byte
}

func (c *countingBuffer) Write(p []byte) (int, error) {
	c.buf = append(c.buf, p...)
	return len(p), nil
}
