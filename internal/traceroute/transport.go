// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"slices"
	"time"

	"github.com/telekom/routecheck/internal/logger"
	"golang.org/x/sys/unix"
)

// Transport sends ICMP echo requests and waits for the matching reply.
//
//go:generate go tool moq -out transport_moq.go . Transport
type Transport interface {
	// SendEcho sends exactly one echo request with the given TTL to dst and
	// blocks until a reply arrives or the timeout elapses.
	// A timeout is not an error: it yields an [EchoResult] with Succeeded set to false.
	SendEcho(ctx context.Context, dst netip.Addr, ttl int, timeout time.Duration) (EchoResult, error)
	// Close releases the underlying socket.
	Close() error
}

// Mode selects the socket used by the transport.
type Mode string

const (
	// ModeAuto tries a raw socket first and falls back to a datagram socket.
	ModeAuto Mode = "auto"
	// ModeRaw uses a raw "ip4:icmp" socket. It requires CAP_NET_RAW.
	ModeRaw Mode = "raw"
	// ModeDatagram uses an unprivileged ICMP datagram socket.
	ModeDatagram Mode = "datagram"
)

func (m Mode) String() string {
	return string(m)
}

func (m Mode) IsValid() bool {
	return slices.Contains([]Mode{ModeAuto, ModeRaw, ModeDatagram}, m)
}

var (
	// openRaw and openDatagram open the socket transports.
	// They are variables to replace them in tests.
	openRaw      = newRawTransport
	openDatagram = newDatagramTransport
)

// NewTransport opens the ICMP transport for the given mode.
// Any failure to open a socket is reported as [ErrICMPNotAvailable].
func NewTransport(ctx context.Context, mode Mode) (Transport, error) {
	log := logger.FromContext(ctx)

	switch mode {
	case ModeRaw:
		t, err := openRaw(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrICMPNotAvailable, err)
		}
		return t, nil
	case ModeDatagram:
		t, err := openDatagram(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrICMPNotAvailable, err)
		}
		return t, nil
	case ModeAuto, "":
		t, err := openRaw(ctx)
		if err == nil {
			log.DebugContext(ctx, "Using raw ICMP socket")
			return t, nil
		}
		if !isPermissionError(err) {
			return nil, fmt.Errorf("%w: %w", ErrICMPNotAvailable, err)
		}

		log.DebugContext(ctx, "No NET_RAW capabilities, falling back to ICMP datagram socket", "error", err)
		t, dErr := openDatagram(ctx)
		if dErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrICMPNotAvailable, errors.Join(err, dErr))
		}
		return t, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
}

// isPermissionError reports whether err was caused by missing privileges.
func isPermissionError(err error) bool {
	return errors.Is(err, unix.EPERM) || errors.Is(err, unix.EACCES)
}
