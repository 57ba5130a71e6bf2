// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"os"
	"syscall"
	"time"

	"github.com/telekom/routecheck/internal/logger"
	"golang.org/x/net/ipv4"
	"golang.org/x/sys/unix"
)

var _ Transport = (*datagramTransport)(nil)

// datagramTransport sends echo requests over an unprivileged ICMP datagram
// ("ping") socket. Echo replies are read as regular datagrams, while time
// exceeded and destination unreachable messages are read from the socket
// error queue, which requires IP_RECVERR to be enabled.
type datagramTransport struct {
	conn    net.PacketConn
	rawConn syscall.RawConn
	ttl     ttlSetter
	// seq is the sequence number of the last echo request. The kernel
	// replaces the echo identifier and only delivers replies for this socket.
	seq     int
	buf     []byte
	dataBuf []byte
	oobBuf  []byte
}

const (
	// oobBufSize is the size of the out-of-band buffer used for receiving extended error messages.
	oobBufSize = 512
	// dataBufSize is the size of the buffer receiving the original datagram from the error queue.
	dataBufSize = 64
	// minExtendedErrSize is the size of struct sock_extended_err
	// as defined in the Linux kernel documentation:
	// https://man7.org/linux/man-pages/man7/ip.7.html
	minExtendedErrSize = 16
	// minOffenderSize is the part of the offender sockaddr_in we need:
	// family, port and the IPv4 address.
	minOffenderSize = 8
)

// newDatagramTransport opens an ICMP datagram socket with the don't fragment
// flag and IP_RECVERR set.
func newDatagramTransport(_ context.Context) (Transport, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM|unix.SOCK_CLOEXEC, unix.IPPROTO_ICMP)
	if err != nil {
		return nil, fmt.Errorf("failed to create ICMP datagram socket: %w", err)
	}

	if err = configureDatagramSocket(fd); err != nil {
		_ = unix.Close(fd)
		return nil, err
	}

	f := os.NewFile(uintptr(fd), "icmp")
	// FilePacketConn duplicates the descriptor, f can be closed right away.
	conn, err := net.FilePacketConn(f)
	_ = f.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to wrap ICMP datagram socket: %w", err)
	}

	sc, ok := conn.(syscall.Conn)
	if !ok {
		_ = conn.Close()
		return nil, fmt.Errorf("the ICMP datagram socket does not implement syscall.Conn: %T", conn)
	}
	rc, err := sc.SyscallConn()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to get RawConn: %w", err)
	}

	return &datagramTransport{
		conn:    conn,
		rawConn: rc,
		ttl:     ipv4.NewPacketConn(conn),
		buf:     make([]byte, mtuSize),
		dataBuf: make([]byte, dataBufSize),
		oobBuf:  make([]byte, oobBufSize),
	}, nil
}

// configureDatagramSocket sets the socket options and binds the socket.
func configureDatagramSocket(fd int) error {
	if err := setDontFragment(uintptr(fd)); err != nil {
		return err
	}
	if err := unix.SetsockoptInt(fd, unix.IPPROTO_IP, unix.IP_RECVERR, 1); err != nil {
		return fmt.Errorf("failed to enable IP_RECVERR: %w", err)
	}
	if err := unix.Bind(fd, &unix.SockaddrInet4{}); err != nil {
		return fmt.Errorf("failed to bind ICMP datagram socket: %w", err)
	}
	return nil
}

// SendEcho sends one echo request and waits for either an echo reply or an
// ICMP error for this request.
func (t *datagramTransport) SendEcho(ctx context.Context, dst netip.Addr, ttl int, timeout time.Duration) (EchoResult, error) {
	if err := validateProbe(dst, ttl); err != nil {
		return EchoResult{}, err
	}
	log := logger.FromContext(ctx)

	t.seq = (t.seq + 1) & 0xffff
	req, err := newEchoRequest(0, t.seq)
	if err != nil {
		return EchoResult{}, err
	}

	if err = t.ttl.SetTTL(ttl); err != nil {
		return EchoResult{}, fmt.Errorf("failed to set ttl: %w", err)
	}
	if err = t.conn.SetReadDeadline(probeDeadline(ctx, timeout)); err != nil {
		return EchoResult{}, fmt.Errorf("failed to set read deadline: %w", err)
	}
	// Errors left over from earlier probes would fail the write below.
	t.drainErrQueue(ctx)
	stop := context.AfterFunc(ctx, func() {
		_ = t.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	start := time.Now()
	if _, err = t.conn.WriteTo(req, &net.UDPAddr{IP: dst.AsSlice()}); err != nil {
		return EchoResult{}, fmt.Errorf("failed to send echo request: %w", err)
	}

	for {
		n, src, err := t.conn.ReadFrom(t.buf)
		if err == nil {
			reply, pErr := parseReply(t.buf[:n])
			if pErr != nil || reply.kind != ReplyEcho || reply.seq != t.seq {
				log.DebugContext(ctx, "Ignoring ICMP datagram", "from", src, "error", pErr)
				continue
			}
			return EchoResult{
				Succeeded: true,
				Responder: addrFromNet(src),
				Kind:      ReplyEcho,
				RTT:       time.Since(start),
			}, nil
		}

		if isTimeout(err) {
			if cErr := ctx.Err(); cErr != nil {
				return EchoResult{}, cErr
			}
			return EchoResult{Kind: ReplyNone}, nil
		}

		// With IP_RECVERR the read reports the pending ICMP error,
		// its details are queued in the socket error queue.
		log.DebugContext(ctx, "Socket reported an error, reading error queue", "error", err)
		res, ok, qErr := t.readErrQueue(ctx)
		if qErr != nil {
			return EchoResult{}, qErr
		}
		if ok {
			res.RTT = time.Since(start)
			return res, nil
		}
	}
}

// readErrQueue reads the socket error queue until it finds an error caused
// by the current echo request or the queue is empty.
func (t *datagramTransport) readErrQueue(ctx context.Context) (EchoResult, bool, error) {
	log := logger.FromContext(ctx)
	for {
		var (
			msg   *errQueueMsg
			opErr error
		)
		err := t.rawConn.Read(func(fd uintptr) bool {
			msg, opErr = recvErrQueue(fd, t.dataBuf, t.oobBuf)
			return true
		})
		if err != nil {
			if isTimeout(err) {
				return EchoResult{}, false, nil
			}
			return EchoResult{}, false, fmt.Errorf("failed to read from raw connection: %w", err)
		}

		switch {
		case opErr == nil:
		case errors.Is(opErr, unix.EAGAIN), errors.Is(opErr, unix.EWOULDBLOCK):
			log.DebugContext(ctx, "Socket error queue is empty")
			return EchoResult{}, false, nil
		case errors.Is(opErr, errUnexpectedMessage):
			log.DebugContext(ctx, "Ignoring queued error", "error", opErr)
			continue
		default:
			return EchoResult{}, false, fmt.Errorf("failed to read ICMP error: %w", opErr)
		}

		if msg.seq != t.seq {
			log.DebugContext(ctx, "Ignoring queued error for another probe", "seq", msg.seq)
			continue
		}

		kind, responder, err := parseExtendedErr(msg.oob)
		if err != nil {
			log.DebugContext(ctx, "Ignoring queued error", "error", err)
			continue
		}
		return EchoResult{Succeeded: true, Responder: responder, Kind: kind}, true, nil
	}
}

// drainErrQueue discards every queued error.
func (t *datagramTransport) drainErrQueue(ctx context.Context) {
	log := logger.FromContext(ctx)
	for {
		var opErr error
		err := t.rawConn.Read(func(fd uintptr) bool {
			_, opErr = recvErrQueue(fd, t.dataBuf, t.oobBuf)
			return true
		})
		if err != nil || (opErr != nil && !errors.Is(opErr, errUnexpectedMessage)) {
			return
		}
		log.DebugContext(ctx, "Discarded stale ICMP error")
	}
}

// Close closes the datagram socket.
func (t *datagramTransport) Close() error {
	return t.conn.Close()
}

// errQueueMsg is an entry of the socket error queue.
type errQueueMsg struct {
	// seq is the sequence number of the echo request that caused the error.
	seq int
	// oob is the control data holding the extended error.
	oob []byte
}

// unixRecvMsg is a wrapper around the [unix.Recvmsg] function.
// It allows us to mock the function in tests.
var unixRecvMsg = unix.Recvmsg

// recvErrQueue reads one entry of the socket error queue without blocking.
// The payload of an entry is the echo request that caused the error.
var recvErrQueue = func(fd uintptr, data, oob []byte) (*errQueueMsg, error) {
	n, oobn, _, _, err := unixRecvMsg(int(fd), data, oob, unix.MSG_ERRQUEUE|unix.MSG_DONTWAIT)
	if err != nil {
		return nil, err
	}

	_, seq, err := echoHeader(data[:n])
	if err != nil {
		return nil, err
	}
	return &errQueueMsg{seq: seq, oob: oob[:oobn]}, nil
}

// parseExtendedErr decodes the SOL_IP / IP_RECVERR control message of an
// error queue entry into the reply kind and the address of the router that
// sent the ICMP message.
var parseExtendedErr = func(oob []byte) (ReplyKind, netip.Addr, error) {
	cms, err := unix.ParseSocketControlMessage(oob)
	if err != nil {
		return ReplyNone, netip.Addr{}, fmt.Errorf("failed to parse control messages: %w", err)
	}

	for _, cm := range cms {
		if cm.Header.Level != unix.SOL_IP || cm.Header.Type != unix.IP_RECVERR {
			continue
		}

		ee, err := newSockExtendedErr(cm.Data)
		if err != nil {
			return ReplyNone, netip.Addr{}, fmt.Errorf("failed to decode extended error: %w", err)
		}
		if ee.Origin != unix.SO_EE_ORIGIN_ICMP {
			return ReplyNone, netip.Addr{}, fmt.Errorf("unexpected error origin %d", ee.Origin)
		}

		var kind ReplyKind
		switch ee.Type {
		case uint8(ipv4.ICMPTypeTimeExceeded):
			kind = ReplyTimeExceeded
		case uint8(ipv4.ICMPTypeDestinationUnreachable):
			kind = ReplyUnreachable
		default:
			return ReplyNone, netip.Addr{}, fmt.Errorf("unexpected ICMP type %d with code %d", ee.Type, ee.Code)
		}

		offender, err := offenderAddr(cm.Data[minExtendedErrSize:])
		if err != nil {
			return ReplyNone, netip.Addr{}, err
		}
		return kind, offender, nil
	}

	return ReplyNone, netip.Addr{}, errors.New("no SOL_IP/IP_RECVERR message found")
}

// newSockExtendedErr converts the first 16 bytes of an OOB buffer into a [unix.SockExtendedErr].
func newSockExtendedErr(data []byte) (unix.SockExtendedErr, error) {
	if len(data) < minExtendedErrSize {
		return unix.SockExtendedErr{}, fmt.Errorf("extended error too short: %d bytes", len(data))
	}

	return unix.SockExtendedErr{
		Errno:  binary.NativeEndian.Uint32(data[0:4]),
		Origin: data[4],
		Type:   data[5],
		Code:   data[6],
		Info:   binary.NativeEndian.Uint32(data[8:12]),
		Data:   binary.NativeEndian.Uint32(data[12:16]),
	}, nil
}

// offenderAddr decodes the sockaddr_in following the extended error
// (SO_EE_OFFENDER), which holds the address of the sender of the ICMP message.
func offenderAddr(b []byte) (netip.Addr, error) {
	if len(b) < minOffenderSize {
		return netip.Addr{}, fmt.Errorf("offender address too short: %d bytes", len(b))
	}
	if family := binary.NativeEndian.Uint16(b[0:2]); family != unix.AF_INET {
		return netip.Addr{}, fmt.Errorf("unexpected offender address family %d", family)
	}
	return netip.AddrFrom4([4]byte(b[4:8])), nil
}
