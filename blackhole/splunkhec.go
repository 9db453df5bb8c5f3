// Package blackhole implements the blackhole side of the harness: passive
// HTTP servers that absorb traffic a generator (or the target under test)
// emits and count what they received. Splunk HEC is the one concrete
// blackhole this core carries, modeling the HTTP Event Collector's
// ingestion and ack-polling routes. Served over github.com/valyala/fasthttp.
package blackhole

import (
	"sync/atomic"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"

	"github.com/NVIDIA/aisloadgen/genmetrics"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// SplunkHEC serves the Splunk HTTP Event Collector protocol's ingestion
// and ack-polling routes. Acks are assigned from one process-wide
// monotonic counter, matching the Rust original's file-scoped `static
// ACK_ID: AtomicU64`.
type SplunkHEC struct {
	Metrics *genmetrics.Registry
	Labels  genmetrics.Labels
}

var ackID uint64

type hecResponse struct {
	Text  string `json:"text"`
	Code  int    `json:"code"`
	AckID uint64 `json:"ackId"`
}

type hecAckRequest struct {
	Acks []uint64 `json:"acks"`
}

type hecAckResponse struct {
	Acks map[uint64]bool `json:"acks"`
}

// Handler returns a fasthttp.RequestHandler exposing
// /services/collector(/event|/raw) and /services/collector/ack. The bare
// /services/collector path accounts the request but returns an empty 200,
// matching the original's split between the event routes (which carry an
// ackId body) and the bare collector root (which does not).
func (s *SplunkHEC) Handler() fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		switch string(ctx.Path()) {
		case "/services/collector":
			s.serveCollectorRoot(ctx)
		case "/services/collector/event", "/services/collector/raw":
			s.serveEvent(ctx)
		case "/services/collector/ack":
			s.serveAck(ctx)
		default:
			ctx.SetStatusCode(fasthttp.StatusNotFound)
		}
	}
}

// ListenAndServe runs the blackhole's fasthttp.Server on addr until the
// listener is closed or a fatal accept error occurs.
func (s *SplunkHEC) ListenAndServe(addr string) error {
	srv := &fasthttp.Server{Handler: s.Handler()}
	return srv.ListenAndServe(addr)
}

// accountRequest reads the whole body and records requests_received,
// bytes_received, and decoded_bytes_received. This core does not
// implement the Content-Encoding-aware decode step the original performs
// (gzip/deflate framing); every accepted body is already "decoded" from
// the caller's perspective, so decoded_bytes_received mirrors
// bytes_received. It does not itself reject malformed bodies — the event
// route accepts any bytes, matching the original's behavior of only
// validating JSON on the ack route.
func (s *SplunkHEC) accountRequest(ctx *fasthttp.RequestCtx) []byte {
	s.Metrics.RequestsReceivedInc(s.Labels)
	body := ctx.PostBody()
	s.Metrics.BytesReceivedAdd(s.Labels, len(body))
	s.Metrics.DecodedBytesReceivedAdd(s.Labels, len(body))
	return body
}

func (s *SplunkHEC) serveCollectorRoot(ctx *fasthttp.RequestCtx) {
	if !ctx.IsPost() {
		ctx.SetStatusCode(fasthttp.StatusMethodNotAllowed)
		return
	}
	s.accountRequest(ctx)
	ctx.SetStatusCode(fasthttp.StatusOK)
}

func (s *SplunkHEC) serveEvent(ctx *fasthttp.RequestCtx) {
	if !ctx.IsPost() {
		ctx.SetStatusCode(fasthttp.StatusMethodNotAllowed)
		return
	}
	s.accountRequest(ctx)

	id := atomic.AddUint64(&ackID, 1) - 1
	body, err := jsonAPI.Marshal(hecResponse{Text: "Success", Code: 0, AckID: id})
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetBody(body)
}

func (s *SplunkHEC) serveAck(ctx *fasthttp.RequestCtx) {
	if !ctx.IsPost() {
		ctx.SetStatusCode(fasthttp.StatusMethodNotAllowed)
		return
	}
	body := s.accountRequest(ctx)

	var req hecAckRequest
	if err := jsonAPI.Unmarshal(body, &req); err != nil {
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
		return
	}

	acks := make(map[uint64]bool, len(req.Acks))
	for _, id := range req.Acks {
		acks[id] = true
	}
	respBody, err := jsonAPI.Marshal(hecAckResponse{Acks: acks})
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetBody(respBody)
}
