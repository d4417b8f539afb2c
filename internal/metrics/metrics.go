// Package metrics exposes stage-level Prometheus counters and gauges for
// the media-plane engine: frame throughput, discontinuities, backpressure
// drops, SCTE-35 event counts, and NIC link state.
//
// Grounded on USA-RedDragon-DMRHub's internal/metrics/prometheus.go
// (struct of CounterVec/GaugeVec fields built once in a constructor and
// registered together) and server.go (a dedicated metrics HTTP server
// wrapping promhttp.Handler).
package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const readHeaderTimeout = 3 * time.Second

// Metrics holds every counter/gauge the engine publishes. A single
// instance is created at startup and threaded into every stage/NIC that
// needs to record something.
type Metrics struct {
	FramesIn  *prometheus.CounterVec
	FramesOut *prometheus.CounterVec

	Discontinuities   *prometheus.CounterVec
	BackpressureDrops *prometheus.CounterVec
	QueueDepth        *prometheus.GaugeVec

	SCTE35Events *prometheus.CounterVec

	NICLinkUp    *prometheus.GaugeVec
	NICPacketsTx *prometheus.CounterVec
	NICPadsTx    *prometheus.CounterVec
	NICResyncs   *prometheus.CounterVec
}

// New builds and registers every metric against the default Prometheus
// registry.
func New() *Metrics {
	m := &Metrics{
		FramesIn: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sdiip_stage_frames_in_total",
			Help: "Frames accepted by a stage via push_frame.",
		}, []string{"stage"}),
		FramesOut: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sdiip_stage_frames_out_total",
			Help: "Frames emitted downstream by a stage.",
		}, []string{"stage"}),
		Discontinuities: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sdiip_discontinuities_total",
			Help: "Discontinuity events raised by a stage (sequence gap, parse failure, resync).",
		}, []string{"stage"}),
		BackpressureDrops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sdiip_backpressure_drops_total",
			Help: "Frames dropped from a bounded stage queue on overflow.",
		}, []string{"stage"}),
		QueueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sdiip_queue_depth",
			Help: "Current depth of a stage's bounded input queue.",
		}, []string{"stage"}),
		SCTE35Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sdiip_scte35_events_total",
			Help: "SCTE-35 events observed by the probe stage, by kind.",
		}, []string{"kind"}),
		NICLinkUp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sdiip_nic_link_up",
			Help: "1 if the NIC's link is up, 0 otherwise.",
		}, []string{"nic"}),
		NICPacketsTx: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sdiip_nic_packets_tx_total",
			Help: "Real (non-pad) packets transmitted on a NIC.",
		}, []string{"nic"}),
		NICPadsTx: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sdiip_nic_pad_packets_tx_total",
			Help: "Pad packets transmitted on a NIC for pacing or resync.",
		}, []string{"nic"}),
		NICResyncs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sdiip_nic_resyncs_total",
			Help: "DOWN to UP resync cycles completed on a NIC.",
		}, []string{"nic"}),
	}
	m.register()
	return m
}

func (m *Metrics) register() {
	prometheus.MustRegister(
		m.FramesIn, m.FramesOut,
		m.Discontinuities, m.BackpressureDrops, m.QueueDepth,
		m.SCTE35Events,
		m.NICLinkUp, m.NICPacketsTx, m.NICPadsTx, m.NICResyncs,
	)
}

// Serve starts a dedicated metrics HTTP server exposing /metrics via
// promhttp, blocking until the server stops or the context is done.
func (m *Metrics) Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics: serve %q: %w", addr, err)
	}
	return nil
}
