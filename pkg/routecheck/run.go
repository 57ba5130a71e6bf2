// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

// Package routecheck runs a single check of the gateways on the path to a
// destination and reports the outcome.
package routecheck

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/telekom/routecheck/internal/logger"
	"github.com/telekom/routecheck/internal/traceroute"
	"github.com/telekom/routecheck/pkg/config"
	"github.com/telekom/routecheck/pkg/metrics"
	"github.com/telekom/routecheck/pkg/report"
)

const shutdownTimeout = 30 * time.Second

// Routecheck is a single probe run
type Routecheck struct {
	// config is the startup configuration of the run
	config *config.Config
	// out receives the notices and the report
	out io.Writer
	// metrics holds the prometheus registry and the tracer provider
	metrics metrics.Provider
	// runMetrics are the collectors describing the outcome of the run
	runMetrics *runMetrics
	// openTransport acquires the ICMP transport
	openTransport func(ctx context.Context, mode traceroute.Mode) (traceroute.Transport, error)
}

// New creates a new run from the given configuration.
// The report is written to out.
func New(cfg *config.Config, out io.Writer) *Routecheck {
	m := metrics.New(cfg.Telemetry)
	rm := newRunMetrics()
	m.GetRegistry().MustRegister(rm.GetCollectors()...)

	return &Routecheck{
		config:        cfg,
		out:           out,
		metrics:       m,
		runMetrics:    rm,
		openTransport: traceroute.NewTransport,
	}
}

// Run resolves the configuration, probes the destination and its gateways
// and writes the report. The report is also written if the destination
// did not reply, in which case [traceroute.ErrDestinationUnreachable] is returned.
func (r *Routecheck) Run(ctx context.Context) (err error) {
	ctx, cancel := logger.NewContextWithLogger(ctx)
	defer cancel()
	log := logger.FromContext(ctx)

	opts, err := r.config.Resolve(ctx)
	if err != nil {
		if errors.Is(err, config.ErrNoDestination) {
			r.notice("No destination specified")
		}
		return err
	}
	if err = r.config.Validate(ctx); err != nil {
		return err
	}
	if len(opts.Gateways) == 0 {
		r.notice("No gateways specified")
	}

	if err = r.metrics.InitTracing(ctx); err != nil {
		return fmt.Errorf("%w: failed to initialize tracing: %w", config.ErrInvalidTelemetry, err)
	}

	var sErrs ErrShutdown
	defer func() {
		r.shutdown(ctx, &sErrs)
		if sErrs.HasError() {
			err = errors.Join(err, sErrs)
		}
	}()

	t, err := r.openTransport(ctx, r.config.Mode)
	if err != nil {
		log.ErrorContext(ctx, "Failed to open ICMP transport", "mode", r.config.Mode, "error", err)
		return err
	}
	defer func() {
		sErrs.errTransport = t.Close()
	}()

	prober := traceroute.NewProber(t, opts,
		traceroute.WithTracerProvider(r.metrics.TracerProvider()),
		traceroute.WithObserver(r.runMetrics),
	)
	res, err := prober.Run(ctx)
	if res == nil {
		return err
	}

	r.runMetrics.SetResult(res)
	if wErr := report.Write(r.out, r.config.Output, res); wErr != nil {
		log.ErrorContext(ctx, "Failed to write report", "error", wErr)
		return errors.Join(err, wErr)
	}
	return err
}

// notice writes a line to the output regardless of the log level.
func (r *Routecheck) notice(msg string) {
	_, _ = fmt.Fprintln(r.out, msg)
}

// shutdown writes the metrics textfile and flushes the tracing.
// It runs even if ctx is already canceled.
func (r *Routecheck) shutdown(ctx context.Context, sErrs *ErrShutdown) {
	log := logger.FromContext(ctx)
	errC := ctx.Err()
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if r.config.HasMetricsFile() {
		sErrs.errTextfile = r.metrics.WriteTextfile(r.config.MetricsFile)
		if sErrs.errTextfile == nil {
			log.DebugContext(ctx, "Metrics written", "path", r.config.MetricsFile)
		}
	}
	sErrs.errMetrics = r.metrics.Shutdown(ctx)

	if sErrs.HasError() {
		log.ErrorContext(ctx, "Failed to shutdown gracefully", "contextError", errC, "errors", sErrs)
	}
}
