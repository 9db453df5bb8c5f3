// Package genmetrics implements the metric surface on top of
// github.com/prometheus/client_golang. Every metric is labeled
// {component, component_name, id} so a single process hosting many
// generator/blackhole instances keeps each instance's counters distinct.
package genmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Labels identifies one component instance for metric attribution.
type Labels struct {
	Component     string // e.g. "generator", "blackhole"
	ComponentName string // e.g. the transport/payload variant name
	ID            string // the per-child ID (cmd/loadgen uses "<generator>-<index>")
}

func (l Labels) prom() prometheus.Labels {
	return prometheus.Labels{
		"component":      l.Component,
		"component_name": l.ComponentName,
		"id":             l.ID,
	}
}

// Registry bundles the full set of counters and gauges this harness emits,
// registered against a caller-supplied prometheus.Registerer so tests and
// the driver can each use their own registry instance instead of fighting
// over the global default one.
type Registry struct {
	BytesWritten         *prometheus.CounterVec
	PacketsSent          *prometheus.CounterVec
	RequestFailure       *prometheus.CounterVec
	ConnectionFailure    *prometheus.CounterVec
	BytesReceived        *prometheus.CounterVec
	RequestsReceived     *prometheus.CounterVec
	DecodedBytesReceived *prometheus.CounterVec

	BytesPerSecond  *prometheus.GaugeVec
	MaxTransportCap *prometheus.GaugeVec // "max_<transport>_bytes", transport named via an extra label
}

const namespace = "aisloadgen"

var instanceLabels = []string{"component", "component_name", "id"}

// New creates and registers every metric against reg.
func New(reg prometheus.Registerer) *Registry {
	counter := func(name, help string, extraLabels ...string) *prometheus.CounterVec {
		cv := prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, append(append([]string{}, instanceLabels...), extraLabels...))
		reg.MustRegister(cv)
		return cv
	}

	r := &Registry{
		BytesWritten:         counter("bytes_written_total", "Total bytes written to the wire."),
		PacketsSent:          counter("packets_sent_total", "Total datagrams sent."),
		RequestFailure:       counter("request_failure_total", "Total write/request failures.", "reason"),
		ConnectionFailure:    counter("connection_failure_total", "Total connection-establishment failures.", "reason"),
		BytesReceived:        counter("bytes_received_total", "Total bytes received by a blackhole."),
		RequestsReceived:     counter("requests_received_total", "Total requests accepted by a blackhole."),
		DecodedBytesReceived: counter("decoded_bytes_received_total", "Total decoded payload bytes received."),

		BytesPerSecond: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "bytes_per_second",
			Help:      "Instantaneous observed throughput.",
		}, instanceLabels),
		MaxTransportCap: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "max_transport_bytes",
			Help:      "Learned transport datagram ceiling (max_detected_bytes).",
		}, append(append([]string{}, instanceLabels...), "transport")),
	}
	reg.MustRegister(r.BytesPerSecond, r.MaxTransportCap)
	return r
}

// RequestFailureWithReason increments request_failure for lbl, labeled with
// the stringified error.
func (r *Registry) RequestFailureWithReason(lbl Labels, reason string) {
	labels := lbl.prom()
	labels["reason"] = reason
	r.RequestFailure.With(labels).Inc()
}

// ConnectionFailureWithReason increments connection_failure for lbl,
// labeled with the stringified connect error.
func (r *Registry) ConnectionFailureWithReason(lbl Labels, reason string) {
	labels := lbl.prom()
	labels["reason"] = reason
	r.ConnectionFailure.With(labels).Inc()
}

// BytesWrittenAdd records n bytes written for lbl and increments
// packets_sent when isDatagram is true.
func (r *Registry) BytesWrittenAdd(lbl Labels, n int, isDatagram bool) {
	labels := lbl.prom()
	r.BytesWritten.With(labels).Add(float64(n))
	if isDatagram {
		r.PacketsSent.With(labels).Inc()
	}
}

// SetMaxTransportBytes records the learned adaptive datagram ceiling for
// a datagram transport.
func (r *Registry) SetMaxTransportBytes(lbl Labels, transport string, max uint32) {
	labels := lbl.prom()
	labels["transport"] = transport
	r.MaxTransportCap.With(labels).Set(float64(max))
}

// SetBytesPerSecond records an instantaneous throughput sample for lbl.
func (r *Registry) SetBytesPerSecond(lbl Labels, bps float64) {
	r.BytesPerSecond.With(lbl.prom()).Set(bps)
}

// BytesReceivedAdd and RequestsReceivedInc serve the blackhole side of the
// Metric Surface.
func (r *Registry) BytesReceivedAdd(lbl Labels, n int) {
	r.BytesReceived.With(lbl.prom()).Add(float64(n))
}

func (r *Registry) RequestsReceivedInc(lbl Labels) {
	r.RequestsReceived.With(lbl.prom()).Inc()
}

func (r *Registry) DecodedBytesReceivedAdd(lbl Labels, n int) {
	r.DecodedBytesReceived.With(lbl.prom()).Add(float64(n))
}
