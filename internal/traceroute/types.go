// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"fmt"
	"net/netip"
	"time"

	"github.com/telekom/routecheck/internal/helper"
)

// MaxTTL is the largest TTL an IPv4 packet can carry.
const MaxTTL = 255

// NetworkNode is either the destination or a candidate gateway.
type NetworkNode struct {
	// ID identifies the node in reports. It is the address literal
	// the node was configured with or a name from an inventory.
	ID string
	// Addr is the IPv4 address of the node.
	Addr netip.Addr
	// Replied is set once a reply from Addr was seen. It is never reset.
	Replied bool
}

// NewNetworkNode parses the IPv4 literal and returns a node identified by id.
// If id is empty, the literal itself is used.
func NewNetworkNode(id, literal string) (NetworkNode, error) {
	addr, err := netip.ParseAddr(literal)
	if err != nil {
		return NetworkNode{}, fmt.Errorf("%w: %q", ErrInvalidAddress, literal)
	}
	if !addr.Is4() {
		return NetworkNode{}, fmt.Errorf("%w: %q", ErrInvalidAddress, literal)
	}
	if id == "" {
		id = literal
	}
	return NetworkNode{ID: id, Addr: addr}, nil
}

func (n NetworkNode) String() string {
	if n.ID == n.Addr.String() {
		return n.ID
	}
	return fmt.Sprintf("%s (%s)", n.ID, n.Addr)
}

// Options contains the configuration of a single probe run.
type Options struct {
	// Destination is the host to probe.
	Destination NetworkNode
	// Gateways are the candidate gateways in input order.
	Gateways []NetworkNode
	// MaxHops is the TTL of the reachability probe and the
	// exclusive upper bound of the hop sweep.
	MaxHops int
	// Timeout is the time to wait for a reply to a single probe.
	Timeout time.Duration
	// Retry configures additional attempts for probes without a reply.
	Retry helper.RetryConfig
}

// ReplyKind is the kind of ICMP message that answered a probe.
type ReplyKind int

const (
	// ReplyNone means no reply arrived within the timeout.
	ReplyNone ReplyKind = iota
	// ReplyEcho is an echo reply from the destination.
	ReplyEcho
	// ReplyTimeExceeded is a time exceeded message from a router on the path.
	ReplyTimeExceeded
	// ReplyUnreachable is a destination unreachable message.
	ReplyUnreachable
)

func (k ReplyKind) String() string {
	switch k {
	case ReplyEcho:
		return "echo-reply"
	case ReplyTimeExceeded:
		return "time-exceeded"
	case ReplyUnreachable:
		return "unreachable"
	default:
		return "none"
	}
}

// MarshalText encodes the kind as its string form.
func (k ReplyKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// EchoResult is the outcome of a single echo request.
type EchoResult struct {
	// Succeeded is true if any reply arrived within the timeout.
	Succeeded bool
	// Responder is the source address of the reply.
	// It is the zero [netip.Addr] if no reply arrived.
	Responder netip.Addr
	// Kind is the kind of the reply.
	Kind ReplyKind
	// RTT is the time between sending the request and receiving the reply.
	RTT time.Duration
}

// Hop is a reply observed at a given TTL.
type Hop struct {
	TTL  int
	Addr netip.Addr
	Kind ReplyKind
	RTT  time.Duration
}

func (h Hop) String() string {
	return fmt.Sprintf("%-3d  %-15s  %-13s  %s", h.TTL, h.Addr, h.Kind, h.RTT)
}

// Result is the final state of a probe run.
type Result struct {
	// Destination is the destination node; Replied tells whether it answered
	// the reachability probe.
	Destination NetworkNode
	// Gateways are the candidate gateways in input order.
	Gateways []NetworkNode
	// Hops are the replies observed, sorted by TTL.
	Hops []Hop
}

// FirstHop returns the lowest TTL at which addr replied, or 0 if it never did.
func (r *Result) FirstHop(addr netip.Addr) int {
	for _, h := range r.Hops {
		if h.Addr == addr {
			return h.TTL
		}
	}
	return 0
}
