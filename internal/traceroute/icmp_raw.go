// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"os"
	"time"

	"github.com/telekom/routecheck/internal/logger"
	"golang.org/x/net/ipv4"
)

var _ Transport = (*rawTransport)(nil)

// rawTransport sends echo requests over a raw ICMP socket.
// It requires NET_RAW capabilities to be created successfully.
type rawTransport struct {
	// conn is the raw socket. Reads return the ICMP message without IP header.
	conn net.PacketConn
	// ttl sets the TTL of outgoing packets on conn.
	ttl ttlSetter
	// id is the echo identifier used to recognize our replies,
	// since a raw socket receives every ICMP message of the host.
	id int
	// seq is the sequence number of the last echo request.
	seq int
	buf []byte
}

// ttlSetter sets the TTL of outgoing packets.
type ttlSetter interface {
	SetTTL(ttl int) error
}

// newRawTransport opens a raw ICMP socket with the don't fragment flag set.
func newRawTransport(ctx context.Context) (Transport, error) {
	lc := net.ListenConfig{Control: controlDontFragment}
	conn, err := lc.ListenPacket(ctx, "ip4:icmp", "0.0.0.0")
	if err != nil {
		return nil, fmt.Errorf("failed to create raw ICMP socket: %w", err)
	}

	return &rawTransport{
		conn: conn,
		ttl:  ipv4.NewPacketConn(conn),
		id:   os.Getpid() & 0xffff,
		buf:  make([]byte, mtuSize),
	}, nil
}

// SendEcho sends one echo request and reads ICMP messages until one of them
// answers the request or the timeout is exceeded.
func (t *rawTransport) SendEcho(ctx context.Context, dst netip.Addr, ttl int, timeout time.Duration) (EchoResult, error) {
	if err := validateProbe(dst, ttl); err != nil {
		return EchoResult{}, err
	}
	log := logger.FromContext(ctx)

	t.seq = (t.seq + 1) & 0xffff
	req, err := newEchoRequest(t.id, t.seq)
	if err != nil {
		return EchoResult{}, err
	}

	if err = t.ttl.SetTTL(ttl); err != nil {
		return EchoResult{}, fmt.Errorf("failed to set ttl: %w", err)
	}
	if err = t.conn.SetReadDeadline(probeDeadline(ctx, timeout)); err != nil {
		return EchoResult{}, fmt.Errorf("failed to set read deadline: %w", err)
	}
	// Unblock the read below as soon as the context is canceled.
	stop := context.AfterFunc(ctx, func() {
		_ = t.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	start := time.Now()
	if _, err = t.conn.WriteTo(req, &net.IPAddr{IP: dst.AsSlice()}); err != nil {
		return EchoResult{}, fmt.Errorf("failed to send echo request: %w", err)
	}

	for {
		n, src, err := t.conn.ReadFrom(t.buf)
		if err != nil {
			if isTimeout(err) {
				if cErr := ctx.Err(); cErr != nil {
					return EchoResult{}, cErr
				}
				return EchoResult{Kind: ReplyNone}, nil
			}
			return EchoResult{}, fmt.Errorf("failed to read from ICMP socket: %w", err)
		}

		reply, err := parseReply(t.buf[:n])
		if err != nil {
			log.DebugContext(ctx, "Ignoring ICMP message", "from", src, "error", err)
			continue
		}
		if reply.id != t.id || reply.seq != t.seq {
			log.DebugContext(ctx, "Ignoring ICMP message for another probe",
				"from", src, "id", reply.id, "seq", reply.seq)
			continue
		}

		return EchoResult{
			Succeeded: true,
			Responder: addrFromNet(src),
			Kind:      reply.kind,
			RTT:       time.Since(start),
		}, nil
	}
}

// Close closes the raw socket.
func (t *rawTransport) Close() error {
	return t.conn.Close()
}
