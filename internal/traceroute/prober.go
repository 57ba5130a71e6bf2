// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"context"
	"fmt"

	"github.com/telekom/routecheck/internal/helper"
	"github.com/telekom/routecheck/internal/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ProbeObserver is notified about every echo request sent by a [Prober].
type ProbeObserver interface {
	// ObserveProbe is called once per attempt with the outcome of the attempt.
	ObserveProbe(ttl int, res EchoResult, err error)
}

// ProberOption configures a [Prober].
type ProberOption func(*Prober)

// WithTracerProvider sets the OpenTelemetry tracer provider.
// The global provider is used by default.
func WithTracerProvider(tp trace.TracerProvider) ProberOption {
	return func(p *Prober) {
		p.tracer = tp.Tracer(tracerName)
	}
}

// WithObserver registers an observer for every sent probe.
func WithObserver(o ProbeObserver) ProberOption {
	return func(p *Prober) {
		p.observer = o
	}
}

const tracerName = "github.com/telekom/routecheck/internal/traceroute"

// Prober runs the reachability probe and the hop sweep strictly sequentially.
type Prober struct {
	transport Transport
	matcher   *GatewayMatcher
	opts      Options
	tracer    trace.Tracer
	observer  ProbeObserver
}

// NewProber returns a prober sending its probes through t.
func NewProber(t Transport, opts Options, options ...ProberOption) *Prober {
	p := &Prober{
		transport: t,
		matcher:   NewGatewayMatcher(opts.Gateways),
		opts:      opts,
		tracer:    otel.GetTracerProvider().Tracer(tracerName),
	}
	for _, o := range options {
		o(p)
	}
	return p
}

// Run probes the destination with TTL set to the maximum hop count. If the
// destination replies and gateways are configured, every TTL from 1 to
// MaxHops-1 is probed once and each responder is matched against the gateways.
//
// If the destination does not reply, the returned result has no gateway
// marked as replied and the error is [ErrDestinationUnreachable].
// Probes without a reply during the sweep are skipped.
func (p *Prober) Run(ctx context.Context) (*Result, error) {
	log := logger.FromContext(ctx).With("destination", p.opts.Destination.ID)
	ctx = logger.IntoContext(ctx, log)

	ctx, span := p.tracer.Start(ctx, "routecheck.run", trace.WithAttributes(
		attribute.String("routecheck.destination", p.opts.Destination.Addr.String()),
		attribute.Int("routecheck.gateways.count", p.matcher.Len()),
		attribute.Int("routecheck.options.max_hops", p.opts.MaxHops),
		attribute.Stringer("routecheck.options.timeout", p.opts.Timeout),
	))
	defer span.End()

	if p.opts.MaxHops < 1 || p.opts.MaxHops > MaxTTL {
		return nil, wrapError(ctx, fmt.Errorf("%w: %d", ErrInvalidMaxHops, p.opts.MaxHops), "invalid options")
	}

	res := &Result{Destination: p.opts.Destination, Hops: []Hop{}}

	reply, err := p.probe(ctx, p.opts.MaxHops)
	if err != nil {
		return nil, wrapError(ctx, err, "reachability probe aborted")
	}
	if !reply.Succeeded {
		log.InfoContext(ctx, "Destination did not reply", "timeout", p.opts.Timeout)
		span.SetStatus(codes.Error, "Destination did not reply")
		res.Gateways = p.gateways()
		return res, ErrDestinationUnreachable
	}

	res.Destination.Replied = true
	log.InfoContext(ctx, "Destination replied", "responder", reply.Responder, "kind", reply.Kind, "rtt", reply.RTT)
	res.Hops = append(res.Hops, p.record(ctx, p.opts.MaxHops, reply))

	if p.matcher.Len() > 0 {
		for ttl := 1; ttl < p.opts.MaxHops; ttl++ {
			reply, err := p.probe(ctx, ttl)
			if err != nil {
				return nil, wrapError(ctx, err, "hop sweep aborted", "ttl", ttl)
			}
			if !reply.Succeeded {
				log.DebugContext(ctx, "No reply", "ttl", ttl)
				continue
			}
			res.Hops = append(res.Hops, p.record(ctx, ttl, reply))
		}
	}

	res.Hops = sortHops(res.Hops)
	res.Gateways = p.gateways()
	logHops(ctx, res.Hops)
	return res, nil
}

// probe sends one echo request with the given TTL, retrying probes without
// a reply as configured. Transport failures are treated like a missing reply;
// only a canceled context is returned as error.
func (p *Prober) probe(ctx context.Context, ttl int) (EchoResult, error) {
	log := logger.FromContext(ctx)
	ctx, span := p.tracer.Start(ctx, "routecheck.probe", trace.WithAttributes(
		attribute.String("routecheck.destination", p.opts.Destination.Addr.String()),
		attribute.Int("routecheck.ttl", ttl),
	))
	defer span.End()

	var res EchoResult
	attempt := helper.Retry(func(ctx context.Context) error {
		r, err := p.transport.SendEcho(ctx, p.opts.Destination.Addr, ttl, p.opts.Timeout)
		if p.observer != nil {
			p.observer.ObserveProbe(ttl, r, err)
		}
		if err != nil {
			if ctx.Err() == nil {
				log.WarnContext(ctx, "Failed to send probe", "ttl", ttl, "error", err)
				span.RecordError(err)
			}
			res = EchoResult{}
			return err
		}
		res = r
		if !r.Succeeded {
			return errNoReply
		}
		return nil
	}, p.opts.Retry)

	err := attempt(ctx)
	if cErr := ctx.Err(); cErr != nil {
		span.SetStatus(codes.Error, "Probe canceled")
		return EchoResult{}, cErr
	}
	if err != nil && !isTransientError(err) {
		span.SetStatus(codes.Error, "Probe failed")
	}

	if res.Succeeded {
		span.SetAttributes(
			attribute.String("routecheck.responder", res.Responder.String()),
			attribute.Stringer("routecheck.reply", res.Kind),
		)
	}
	return res, nil
}

// record feeds the responder of a successful probe to the gateway matcher
// and returns the observed hop.
func (p *Prober) record(ctx context.Context, ttl int, reply EchoResult) Hop {
	log := logger.FromContext(ctx)
	span := trace.SpanFromContext(ctx)

	for _, i := range p.matcher.Observe(reply.Responder) {
		gw := p.matcher.Gateway(i)
		log.InfoContext(ctx, fmt.Sprintf("Gateway %s replied at hop %d", gw.ID, ttl))
		span.AddEvent("gateway replied", trace.WithAttributes(
			attribute.String("routecheck.gateway", gw.ID),
			attribute.Int("routecheck.ttl", ttl),
		))
	}

	return Hop{TTL: ttl, Addr: reply.Responder, Kind: reply.Kind, RTT: reply.RTT}
}

// gateways returns the gateways in input order, never nil.
func (p *Prober) gateways() []NetworkNode {
	gws := p.matcher.Gateways()
	if gws == nil {
		return []NetworkNode{}
	}
	return gws
}
