// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"encoding/binary"
	"fmt"
	"net/netip"
	"syscall"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
	"golang.org/x/sys/unix"
)

const (
	// protocolICMP is the IANA protocol number of ICMP for IPv4.
	protocolICMP = 1
	// mtuSize is the size of the receive buffer.
	mtuSize = 1500
	// echoPayload is the single payload byte carried by every echo request.
	echoPayload byte = 42
	// echoHeaderLen is the length of an ICMP echo header.
	echoHeaderLen = 8
)

// echoReply is an ICMP message answering one of our echo requests.
type echoReply struct {
	kind ReplyKind
	// id and seq are the identifier and sequence number of the echo
	// request the message refers to.
	id  int
	seq int
}

// newEchoRequest marshals an ICMP echo request with the fixed one byte payload.
func newEchoRequest(id, seq int) ([]byte, error) {
	msg := icmp.Message{
		Type: ipv4.ICMPTypeEcho,
		Code: 0,
		Body: &icmp.Echo{
			ID:   id & 0xffff,
			Seq:  seq & 0xffff,
			Data: []byte{echoPayload},
		},
	}
	b, err := msg.Marshal(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal echo request: %w", err)
	}
	return b, nil
}

// parseReply decodes an ICMP message (without IP header) and returns the
// identifier and sequence number of the echo request it answers.
func parseReply(b []byte) (echoReply, error) {
	msg, err := icmp.ParseMessage(protocolICMP, b)
	if err != nil {
		return echoReply{}, fmt.Errorf("failed to parse ICMP message: %w", err)
	}

	var (
		kind   ReplyKind
		quoted []byte
	)
	switch msg.Type {
	case ipv4.ICMPTypeEchoReply:
		echo, ok := msg.Body.(*icmp.Echo)
		if !ok {
			return echoReply{}, fmt.Errorf("%w: malformed echo reply", errUnexpectedMessage)
		}
		return echoReply{kind: ReplyEcho, id: echo.ID, seq: echo.Seq}, nil
	case ipv4.ICMPTypeTimeExceeded:
		body, ok := msg.Body.(*icmp.TimeExceeded)
		if !ok {
			return echoReply{}, fmt.Errorf("%w: malformed time exceeded message", errUnexpectedMessage)
		}
		kind, quoted = ReplyTimeExceeded, body.Data
	case ipv4.ICMPTypeDestinationUnreachable:
		body, ok := msg.Body.(*icmp.DstUnreach)
		if !ok {
			return echoReply{}, fmt.Errorf("%w: malformed destination unreachable message", errUnexpectedMessage)
		}
		kind, quoted = ReplyUnreachable, body.Data
	default:
		return echoReply{}, fmt.Errorf("%w: type %v", errUnexpectedMessage, msg.Type)
	}

	id, seq, err := quotedEcho(quoted)
	if err != nil {
		return echoReply{}, err
	}
	return echoReply{kind: kind, id: id, seq: seq}, nil
}

// quotedEcho extracts identifier and sequence number from the original
// datagram quoted in an ICMP error message: an IPv4 header followed by at
// least the first 8 bytes of our echo request.
func quotedEcho(data []byte) (id, seq int, err error) {
	hdr, err := ipv4.ParseHeader(data)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to parse quoted IP header: %w", err)
	}
	if hdr.Protocol != protocolICMP {
		return 0, 0, fmt.Errorf("%w: quoted protocol %d", errUnexpectedMessage, hdr.Protocol)
	}
	return echoHeader(data[hdr.Len:])
}

// echoHeader returns identifier and sequence number of an ICMP echo request header.
func echoHeader(b []byte) (id, seq int, err error) {
	if len(b) < echoHeaderLen {
		return 0, 0, fmt.Errorf("%w: echo header too short: %d bytes", errUnexpectedMessage, len(b))
	}
	if b[0] != byte(ipv4.ICMPTypeEcho) {
		return 0, 0, fmt.Errorf("%w: quoted ICMP type %d", errUnexpectedMessage, b[0])
	}
	return int(binary.BigEndian.Uint16(b[4:6])), int(binary.BigEndian.Uint16(b[6:8])), nil
}

// setDontFragment sets the DF flag on every packet sent through the socket.
func setDontFragment(fd uintptr) error {
	if err := unix.SetsockoptInt(int(fd), unix.IPPROTO_IP, unix.IP_MTU_DISCOVER, unix.IP_PMTUDISC_DO); err != nil {
		return fmt.Errorf("failed to set don't fragment flag: %w", err)
	}
	return nil
}

// controlDontFragment adapts [setDontFragment] to [net.ListenConfig.Control].
func controlDontFragment(_, _ string, c syscall.RawConn) error {
	var serr error
	if err := c.Control(func(fd uintptr) {
		serr = setDontFragment(fd)
	}); err != nil {
		return err
	}
	return serr
}

// validateProbe checks the arguments of a single echo request.
func validateProbe(dst netip.Addr, ttl int) error {
	if !dst.Is4() {
		return fmt.Errorf("%w: %s", ErrInvalidAddress, dst)
	}
	if ttl < 1 || ttl > MaxTTL {
		return fmt.Errorf("%w: %d", ErrInvalidTTL, ttl)
	}
	return nil
}
