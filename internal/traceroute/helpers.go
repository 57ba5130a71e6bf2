// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"os"
	"slices"
	"time"

	"github.com/telekom/routecheck/internal/logger"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// addrFromNet extracts the IPv4 address from a [net.Addr].
// It returns the zero [netip.Addr] for anything else.
func addrFromNet(addr net.Addr) netip.Addr {
	var ip net.IP
	switch a := addr.(type) {
	case *net.UDPAddr:
		ip = a.IP
	case *net.TCPAddr:
		ip = a.IP
	case *net.IPAddr:
		ip = a.IP
	default:
		return netip.Addr{}
	}

	ip4 := ip.To4()
	if ip4 == nil {
		return netip.Addr{}
	}
	a, _ := netip.AddrFromSlice(ip4)
	return a
}

// probeDeadline returns the point in time a probe stops waiting for a reply.
// A context deadline that expires earlier takes precedence.
func probeDeadline(ctx context.Context, timeout time.Duration) time.Time {
	deadline := time.Now().Add(max(timeout, 0))
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		return d
	}
	return deadline
}

// isTimeout reports whether err is a read deadline expiry.
func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var nErr net.Error
	return errors.As(err, &nErr) && nErr.Timeout()
}

// sortHops sorts the hops by TTL in ascending order and removes duplicates,
// keeping only the first occurrence of each TTL.
func sortHops(hops []Hop) []Hop {
	if len(hops) == 0 {
		return []Hop{}
	}

	sorted := slices.Clone(hops)
	slices.SortStableFunc(sorted, func(a, b Hop) int {
		return a.TTL - b.TTL
	})

	return slices.CompactFunc(sorted, func(a, b Hop) bool {
		return a.TTL == b.TTL
	})
}

// logHops logs the hops in a tabular format.
func logHops(ctx context.Context, hops []Hop) {
	log := logger.FromContext(ctx)
	for _, hop := range hops {
		log.DebugContext(ctx, hop.String())
	}
}

// wrapError wraps an error with a message and logs it.
// It also records the error in the current OpenTelemetry span.
func wrapError(ctx context.Context, err error, msg string, args ...any) error {
	if err == nil {
		return nil
	}
	log := logger.FromContext(ctx)
	span := trace.SpanFromContext(ctx)
	caser := cases.Title(language.English)

	log.ErrorContext(ctx, caser.String(msg), append([]any{"error", err}, args...)...)
	span.SetStatus(codes.Error, caser.String(msg))
	span.RecordError(err)
	return fmt.Errorf("%s: %w", msg, err)
}
