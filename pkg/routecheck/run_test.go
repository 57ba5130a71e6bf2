// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package routecheck

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/telekom/routecheck/internal/logger"
	"github.com/telekom/routecheck/internal/traceroute"
	"github.com/telekom/routecheck/pkg/config"
	"github.com/telekom/routecheck/pkg/metrics"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// path returns a transport for a path whose routers answer at TTL
// 1..len(routers). Every probe with a larger TTL reaches the destination.
func path(dst string, routers ...string) *traceroute.TransportMock {
	return &traceroute.TransportMock{
		SendEchoFunc: func(_ context.Context, _ netip.Addr, ttl int, _ time.Duration) (traceroute.EchoResult, error) {
			if ttl > len(routers) {
				return traceroute.EchoResult{Succeeded: true, Responder: netip.MustParseAddr(dst), Kind: traceroute.ReplyEcho, RTT: 2 * time.Millisecond}, nil
			}
			if routers[ttl-1] == "" {
				return traceroute.EchoResult{}, nil
			}
			return traceroute.EchoResult{Succeeded: true, Responder: netip.MustParseAddr(routers[ttl-1]), Kind: traceroute.ReplyTimeExceeded, RTT: time.Millisecond}, nil
		},
		CloseFunc: func() error { return nil },
	}
}

func silent() *traceroute.TransportMock {
	return &traceroute.TransportMock{
		SendEchoFunc: func(context.Context, netip.Addr, int, time.Duration) (traceroute.EchoResult, error) {
			return traceroute.EchoResult{}, nil
		},
		CloseFunc: func() error { return nil },
	}
}

func newConfig(dst string, gateways ...string) *config.Config {
	cfg := &config.Config{
		Gateways: gateways,
		MaxHops:  5,
		Timeout:  100,
	}
	if dst != "" {
		cfg.Destinations = []string{dst}
	}
	return cfg
}

// newTestRun returns a run using the given transport.
// The returned counter is incremented whenever the transport is opened.
func newTestRun(cfg *config.Config, out *bytes.Buffer, tr traceroute.Transport, openErr error) (*Routecheck, *int) {
	r := New(cfg, out)
	opened := 0
	r.openTransport = func(context.Context, traceroute.Mode) (traceroute.Transport, error) {
		opened++
		if openErr != nil {
			return nil, openErr
		}
		return tr, nil
	}
	return r, &opened
}

func TestRoutecheck_Run(t *testing.T) {
	errICMP := fmt.Errorf("%w: operation not permitted", traceroute.ErrICMPNotAvailable)

	tests := []struct {
		name       string
		config     *config.Config
		transport  *traceroute.TransportMock
		openErr    error
		wantOut    string
		wantErr    error
		wantOpened int
		wantProbes int
	}{
		{
			name:      "gateway on the path replied",
			config:    newConfig("10.0.0.5", "192.168.1.1", "192.168.2.1"),
			transport: path("10.0.0.5", "10.0.0.1", "192.168.1.1"),
			wantOut: "Destination:10.0.0.5:replied\n" +
				"Gateway:192.168.1.1:replied\n" +
				"Gateway:192.168.2.1:no reply\n",
			wantOpened: 1,
			wantProbes: 5,
		},
		{
			name:      "no gateways probes the destination only",
			config:    newConfig("10.0.0.5"),
			transport: path("10.0.0.5", "10.0.0.1"),
			wantOut: "No gateways specified\n" +
				"Destination:10.0.0.5:replied\n",
			wantOpened: 1,
			wantProbes: 1,
		},
		{
			name:       "no destination",
			config:     newConfig("", "192.168.1.1"),
			transport:  silent(),
			wantOut:    "No destination specified\n",
			wantErr:    config.ErrNoDestination,
			wantOpened: 0,
		},
		{
			name:      "invalid destination only",
			config:    &config.Config{Destinations: []string{"example.com"}, MaxHops: 5},
			transport: silent(),
			wantOut:   "No destination specified\n",
			wantErr:   config.ErrNoDestination,
		},
		{
			name: "invalid configuration",
			config: func() *config.Config {
				c := newConfig("10.0.0.5", "192.168.1.1")
				c.MaxHops = 0
				return c
			}(),
			transport: silent(),
			wantErr:   config.ErrInvalidMaxHops,
		},
		{
			name:       "ICMP not available",
			config:     newConfig("10.0.0.5", "192.168.1.1"),
			openErr:    errICMP,
			wantErr:    traceroute.ErrICMPNotAvailable,
			wantOpened: 1,
		},
		{
			name:      "destination did not reply",
			config:    newConfig("10.0.0.5", "192.168.1.1"),
			transport: silent(),
			wantOut: "Destination:10.0.0.5:no reply\n" +
				"Gateway:192.168.1.1:no reply\n",
			wantErr:    traceroute.ErrDestinationUnreachable,
			wantOpened: 1,
			wantProbes: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			var tr traceroute.Transport
			if tt.transport != nil {
				tr = tt.transport
			}
			r, opened := newTestRun(tt.config, &out, tr, tt.openErr)

			err := r.Run(t.Context())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}

			assert.Equal(t, tt.wantOut, out.String())
			assert.Equal(t, tt.wantOpened, *opened)
			if tt.transport != nil {
				assert.Len(t, tt.transport.SendEchoCalls(), tt.wantProbes)
				assert.Len(t, tt.transport.CloseCalls(), tt.wantOpened, "transport is closed once it was opened")
			}
		})
	}
}

func TestRoutecheck_Run_contextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	tr := path("10.0.0.5")
	tr.SendEchoFunc = func(context.Context, netip.Addr, int, time.Duration) (traceroute.EchoResult, error) {
		cancel()
		return traceroute.EchoResult{}, context.Canceled
	}

	var out bytes.Buffer
	r, _ := newTestRun(newConfig("10.0.0.5", "192.168.1.1"), &out, tr, nil)

	err := r.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, tr.CloseCalls(), 1)
	assert.Empty(t, out.String(), "no report for an aborted run")
}

func TestRoutecheck_Run_jsonReport(t *testing.T) {
	cfg := newConfig("10.0.0.5", "192.168.1.1")
	cfg.Output = "json"

	var out bytes.Buffer
	r, _ := newTestRun(cfg, &out, path("10.0.0.5", "192.168.1.1"), nil)
	require.NoError(t, r.Run(t.Context()))

	var doc struct {
		Destination struct {
			Replied bool `json:"replied"`
		} `json:"destination"`
		Gateways []struct {
			ID      string `json:"id"`
			Replied bool   `json:"replied"`
			Hop     int    `json:"hop"`
		} `json:"gateways"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
	assert.True(t, doc.Destination.Replied)
	require.Len(t, doc.Gateways, 1)
	assert.Equal(t, "192.168.1.1", doc.Gateways[0].ID)
	assert.True(t, doc.Gateways[0].Replied)
	assert.Equal(t, 1, doc.Gateways[0].Hop)
}

func TestRoutecheck_Run_metrics(t *testing.T) {
	cfg := newConfig("10.0.0.5", "192.168.1.1", "192.168.2.1")
	cfg.MetricsFile = filepath.Join(t.TempDir(), "routecheck.prom")

	tr := path("10.0.0.5", "", "192.168.1.1", "10.0.0.3")
	var out bytes.Buffer
	r, _ := newTestRun(cfg, &out, tr, nil)
	require.NoError(t, r.Run(t.Context()))

	m := r.runMetrics
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reachable.WithLabelValues("10.0.0.5")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.replied.WithLabelValues("192.168.1.1", "192.168.1.1")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.hop.WithLabelValues("192.168.1.1", "192.168.1.1")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.replied.WithLabelValues("192.168.2.1", "192.168.2.1")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.hop.WithLabelValues("192.168.2.1", "192.168.2.1")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.probes.WithLabelValues(probeResultReply)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.probes.WithLabelValues(probeResultTimeout)))

	b, err := os.ReadFile(cfg.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(b), `routecheck_gateway_replied{address="192.168.1.1",gateway="192.168.1.1"} 1`)
	assert.Contains(t, string(b), `routecheck_destination_reachable{destination="10.0.0.5"} 1`)
	assert.Contains(t, string(b), "routecheck_probe_duration_seconds_count 4")
}

func TestRoutecheck_Run_shutdownErrors(t *testing.T) {
	errTextfile := errors.New("permission denied")
	errClose := errors.New("bad file descriptor")

	provider := &metrics.ProviderMock{
		TracerProviderFunc: func() trace.TracerProvider { return noop.NewTracerProvider() },
		InitTracingFunc:    func(context.Context) error { return nil },
		WriteTextfileFunc:  func(string) error { return errTextfile },
		ShutdownFunc:       func(context.Context) error { return nil },
	}
	tr := silent()
	tr.CloseFunc = func() error { return errClose }

	cfg := newConfig("10.0.0.5")
	cfg.MetricsFile = "/var/lib/node_exporter/routecheck.prom"
	var out bytes.Buffer
	r := &Routecheck{
		config:     cfg,
		out:        &out,
		metrics:    provider,
		runMetrics: newRunMetrics(),
		openTransport: func(context.Context, traceroute.Mode) (traceroute.Transport, error) {
			return tr, nil
		},
	}

	err := r.Run(t.Context())
	assert.ErrorIs(t, err, traceroute.ErrDestinationUnreachable)
	assert.ErrorIs(t, err, errTextfile)
	assert.ErrorIs(t, err, errClose)

	var sErr ErrShutdown
	require.ErrorAs(t, err, &sErr)
	assert.True(t, sErr.HasError())

	assert.Len(t, provider.InitTracingCalls(), 1)
	assert.Len(t, provider.ShutdownCalls(), 1)
	require.Len(t, provider.WriteTextfileCalls(), 1)
	assert.Equal(t, cfg.MetricsFile, provider.WriteTextfileCalls()[0].Path)
}

func TestRoutecheck_Run_tracingFails(t *testing.T) {
	provider := &metrics.ProviderMock{
		InitTracingFunc: func(context.Context) error { return errors.New("failed to read certificate") },
	}
	cfg := newConfig("10.0.0.5")
	var out bytes.Buffer
	opened := false
	r := &Routecheck{
		config:     cfg,
		out:        &out,
		metrics:    provider,
		runMetrics: newRunMetrics(),
		openTransport: func(context.Context, traceroute.Mode) (traceroute.Transport, error) {
			opened = true
			return silent(), nil
		},
	}

	err := r.Run(t.Context())
	assert.ErrorIs(t, err, config.ErrInvalidTelemetry)
	assert.False(t, opened)
}

func TestErrShutdown(t *testing.T) {
	assert.False(t, ErrShutdown{}.HasError())
	assert.Empty(t, ErrShutdown{}.Unwrap())

	errMetrics := errors.New("exporter unavailable")
	e := ErrShutdown{errMetrics: errMetrics}
	assert.True(t, e.HasError())
	assert.ErrorIs(t, e, errMetrics)
	assert.EqualError(t, e, "shutdown failed: exporter unavailable")
}

func TestRoutecheck_Run_usesContextLogger(t *testing.T) {
	var logs bytes.Buffer
	ctx := logger.IntoContext(t.Context(), logger.NewLogger(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})))

	var out bytes.Buffer
	r, _ := newTestRun(newConfig("10.0.0.5", "192.168.1.1"), &out, path("10.0.0.5", "192.168.1.1"), nil)
	require.NoError(t, r.Run(ctx))

	assert.Contains(t, logs.String(), "Destination replied")
	assert.Contains(t, logs.String(), "Gateway 192.168.1.1 replied at hop 1")
	assert.NotContains(t, out.String(), "Destination replied", "diagnostics stay out of the report")
}
