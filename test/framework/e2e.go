// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

// Package framework runs routecheck end-to-end against real ICMP sockets.
package framework

import (
	"bytes"
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/telekom/routecheck/internal/traceroute"
	"github.com/telekom/routecheck/pkg/config"
	"github.com/telekom/routecheck/pkg/report"
	"github.com/telekom/routecheck/pkg/routecheck"
)

// E2E is an end-to-end test of a single run.
type E2E struct {
	config config.Config
	t      *testing.T

	out bytes.Buffer
	err error

	running int32
}

// New returns an end-to-end test with the default configuration.
// The report is always written as JSON so it can be asserted.
func New(t *testing.T) *E2E {
	return &E2E{
		t: t,
		config: config.Config{
			MaxHops: 3,
			Timeout: 1000,
			Mode:    traceroute.ModeAuto,
			Output:  report.JSON,
		},
	}
}

// WithDestination sets the destination address literal.
func (e *E2E) WithDestination(dst string) *E2E {
	e.config.Destinations = append(e.config.Destinations, dst)
	return e
}

// WithGateways appends gateway address literals.
func (e *E2E) WithGateways(gws ...string) *E2E {
	e.config.Gateways = append(e.config.Gateways, gws...)
	return e
}

// WithMaxHops sets the maximum number of hops.
func (e *E2E) WithMaxHops(n int) *E2E {
	e.config.MaxHops = n
	return e
}

// WithMode sets the ICMP socket mode.
func (e *E2E) WithMode(m traceroute.Mode) *E2E {
	e.config.Mode = m
	return e
}

// WithMetricsFile writes the metrics of the run into the test's temp dir.
func (e *E2E) WithMetricsFile() *E2E {
	e.config.MetricsFile = filepath.Join(e.t.TempDir(), "routecheck.prom")
	return e
}

// Run executes the run. It must be called once.
func (e *E2E) Run(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&e.running, 0, 1) {
		e.t.Fatal("E2E.Run must be called once")
	}

	cfg := e.config
	e.err = routecheck.New(&cfg, &e.out).Run(ctx)
	e.t.Logf("Run finished with error %v and output:\n%s", e.err, e.out.String())
	return e.err
}

// isRunning returns true if the test has been run.
func (e *E2E) isRunning() bool {
	return atomic.LoadInt32(&e.running) == 1
}
