// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"net/netip"
	"slices"
)

// GatewayMatcher keeps track of which candidate gateways replied.
type GatewayMatcher struct {
	gateways []NetworkNode
}

// NewGatewayMatcher returns a matcher for a copy of the given gateways.
func NewGatewayMatcher(gateways []NetworkNode) *GatewayMatcher {
	return &GatewayMatcher{gateways: slices.Clone(gateways)}
}

// Observe marks every gateway whose address equals addr as replied and
// returns the indices of those gateways in input order.
// Observing an address more than once has no further effect.
func (m *GatewayMatcher) Observe(addr netip.Addr) []int {
	if !addr.IsValid() {
		return nil
	}
	addr = addr.Unmap()

	var matched []int
	for i := range m.gateways {
		if m.gateways[i].Addr == addr {
			m.gateways[i].Replied = true
			matched = append(matched, i)
		}
	}
	return matched
}

// Gateway returns the gateway at index i.
func (m *GatewayMatcher) Gateway(i int) NetworkNode {
	return m.gateways[i]
}

// Gateways returns a copy of all gateways in input order.
func (m *GatewayMatcher) Gateways() []NetworkNode {
	return slices.Clone(m.gateways)
}

// Len returns the number of gateways.
func (m *GatewayMatcher) Len() int {
	return len(m.gateways)
}
