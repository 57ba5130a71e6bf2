// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"context"
	"errors"
)

var (
	// ErrICMPNotAvailable is returned when no ICMP socket could be opened.
	// This typically occurs when the process lacks NET_RAW capabilities and
	// unprivileged ICMP sockets are disabled (net.ipv4.ping_group_range).
	ErrICMPNotAvailable = errors.New("ICMP not available")
	// ErrDestinationUnreachable is returned when the destination did not
	// answer the reachability probe within the timeout.
	ErrDestinationUnreachable = errors.New("destination did not reply")
	// ErrInvalidMaxHops is returned when the maximum hop count is outside [1, 255].
	ErrInvalidMaxHops = errors.New("max hops must be between 1 and 255")
	// ErrInvalidTTL is returned when a probe is sent with a TTL outside [1, 255].
	ErrInvalidTTL = errors.New("ttl must be between 1 and 255")
	// ErrInvalidAddress is returned when a probe is sent to an address that is not IPv4.
	ErrInvalidAddress = errors.New("address must be a valid IPv4 address")
	// ErrInvalidMode is returned for an unknown transport mode.
	ErrInvalidMode = errors.New("invalid transport mode")
)

// errNoReply signals a probe that timed out. It never leaves the package.
var errNoReply = errors.New("no reply within timeout")

// errUnexpectedMessage is returned when an ICMP message does not answer an echo request.
var errUnexpectedMessage = errors.New("unexpected ICMP message")

// isTransientError checks if the error is one of the expected outcomes
// of a single probe that must not abort a sweep.
func isTransientError(err error) bool {
	return errors.Is(err, errNoReply) ||
		errors.Is(err, context.DeadlineExceeded)
}
