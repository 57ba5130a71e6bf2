// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package routecheck

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/telekom/routecheck/internal/traceroute"
)

const (
	probeResultReply   = "reply"
	probeResultTimeout = "timeout"
	probeResultError   = "error"
)

var _ traceroute.ProbeObserver = (*runMetrics)(nil)

// runMetrics defines the metric collectors of a run
type runMetrics struct {
	reachable *prometheus.GaugeVec
	replied   *prometheus.GaugeVec
	hop       *prometheus.GaugeVec
	probes    *prometheus.CounterVec
	duration  prometheus.Histogram
}

// newRunMetrics initializes the metric collectors of a run
func newRunMetrics() *runMetrics {
	return &runMetrics{
		reachable: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "routecheck_destination_reachable",
				Help: "Specifies if the destination replied to the reachability probe.",
			},
			[]string{"destination"},
		),
		replied: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "routecheck_gateway_replied",
				Help: "Specifies if the gateway replied to any probe.",
			},
			[]string{"gateway", "address"},
		),
		hop: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "routecheck_gateway_hop",
				Help: "Lowest TTL at which the gateway replied, 0 if it never replied.",
			},
			[]string{"gateway", "address"},
		),
		probes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "routecheck_probes_total",
				Help: "Total number of echo requests sent, by result.",
			},
			[]string{"result"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "routecheck_probe_duration_seconds",
				Help:    "Histogram of round trip times of answered probes in seconds.",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
			},
		),
	}
}

// GetCollectors returns all metric collectors
func (m *runMetrics) GetCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.reachable,
		m.replied,
		m.hop,
		m.probes,
		m.duration,
	}
}

// ObserveProbe counts a sent probe by its result
func (m *runMetrics) ObserveProbe(_ int, res traceroute.EchoResult, err error) {
	switch {
	case err != nil:
		m.probes.WithLabelValues(probeResultError).Inc()
	case !res.Succeeded:
		m.probes.WithLabelValues(probeResultTimeout).Inc()
	default:
		m.probes.WithLabelValues(probeResultReply).Inc()
		m.duration.Observe(res.RTT.Seconds())
	}
}

// SetResult sets the metrics of the final result
func (m *runMetrics) SetResult(res *traceroute.Result) {
	m.reachable.WithLabelValues(res.Destination.ID).Set(boolToFloat(res.Destination.Replied))
	for _, gw := range res.Gateways {
		addr := gw.Addr.String()
		m.replied.WithLabelValues(gw.ID, addr).Set(boolToFloat(gw.Replied))
		m.hop.WithLabelValues(gw.ID, addr).Set(float64(res.FirstHop(gw.Addr)))
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
