// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

// Package traceroute provides a sequential ICMP echo traceroute that
// reports which of a set of candidate gateways answered on the path to a
// destination.
//
// A [Prober] first sends a single echo request to the destination with the
// TTL set to the configured maximum hop count. If the destination answers,
// it sweeps the TTL from 1 up to one below the maximum and hands the source
// address of every reply (echo reply, time exceeded or destination
// unreachable) to a [GatewayMatcher], which flags every gateway with a
// matching address.
//
// Probes are sent through a [Transport]. Two socket based transports exist:
//   - a raw "ip4:icmp" socket, which requires CAP_NET_RAW
//   - an unprivileged ICMP datagram ("ping") socket, which reads
//     time-exceeded messages from the socket error queue (IP_RECVERR)
//
// [NewTransport] selects one of them, falling back from raw to datagram when
// the process lacks the required capabilities.
//
// Typical usage:
//
//	t, err := traceroute.NewTransport(ctx, traceroute.ModeAuto)
//	if err != nil {
//		return err
//	}
//	defer t.Close()
//
//	p := traceroute.NewProber(t, traceroute.Options{Destination: dst, Gateways: gws, MaxHops: 30, Timeout: 10 * time.Second})
//	res, err := p.Run(ctx)
//
// Only IPv4 is supported. Probes are never in flight concurrently.
package traceroute
