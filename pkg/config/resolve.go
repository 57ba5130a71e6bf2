// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"fmt"

	"github.com/telekom/routecheck/internal/logger"
	"github.com/telekom/routecheck/internal/traceroute"
)

// Resolve parses the address literals of the configuration into the
// options of a probe run. Invalid literals are skipped. The last valid
// destination wins; gateways from the inventory file follow the configured
// gateways.
//
// It returns [ErrNoDestination] if no valid destination was given and
// [ErrInvalidInventory] if the inventory file cannot be loaded.
func (c *Config) Resolve(ctx context.Context) (traceroute.Options, error) {
	log := logger.FromContext(ctx)

	var (
		dst   traceroute.NetworkNode
		found bool
	)
	for _, literal := range c.Destinations {
		n, err := traceroute.NewNetworkNode("", literal)
		if err != nil {
			log.WarnContext(ctx, "Ignoring invalid destination", "destination", literal)
			continue
		}
		dst, found = n, true
	}
	if !found {
		return traceroute.Options{}, ErrNoDestination
	}

	gws := make([]traceroute.NetworkNode, 0, len(c.Gateways))
	for _, literal := range c.Gateways {
		n, err := traceroute.NewNetworkNode("", literal)
		if err != nil {
			log.WarnContext(ctx, "Ignoring invalid gateway", "gateway", literal)
			continue
		}
		gws = append(gws, n)
	}

	if c.Inventory != "" {
		inv, err := NewInventoryLoader(c.Inventory).Load(ctx)
		if err != nil {
			return traceroute.Options{}, fmt.Errorf("%w: %w", ErrInvalidInventory, err)
		}
		gws = append(gws, inv.Nodes(ctx)...)
	}

	return traceroute.Options{
		Destination: dst,
		Gateways:    gws,
		MaxHops:     c.MaxHops,
		Timeout:     c.TimeoutDuration(),
		Retry:       c.Retry,
	}, nil
}
