// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/telekom/routecheck/internal/logger"
	"github.com/telekom/routecheck/internal/traceroute"
	"gopkg.in/yaml.v3"
)

// Inventory is a file of named candidate gateways.
type Inventory struct {
	Gateways []InventoryGateway `yaml:"gateways"`
}

// InventoryGateway is a named gateway of an [Inventory].
type InventoryGateway struct {
	// Name identifies the gateway in the report. The address is used if empty.
	Name string `yaml:"name"`
	// Address is the IPv4 address literal of the gateway.
	Address string `yaml:"address"`
}

// Nodes returns the gateways of the inventory in file order.
// Gateways with an invalid address are skipped.
func (inv Inventory) Nodes(ctx context.Context) []traceroute.NetworkNode {
	log := logger.FromContext(ctx)
	nodes := make([]traceroute.NetworkNode, 0, len(inv.Gateways))
	for _, gw := range inv.Gateways {
		n, err := traceroute.NewNetworkNode(gw.Name, gw.Address)
		if err != nil {
			log.WarnContext(ctx, "Ignoring invalid inventory gateway", "name", gw.Name, "address", gw.Address)
			continue
		}
		nodes = append(nodes, n)
	}
	return nodes
}

// InventoryLoader reads an [Inventory] from a local file.
type InventoryLoader struct {
	path string
	fsys fs.FS
}

func NewInventoryLoader(path string) *InventoryLoader {
	return &InventoryLoader{
		path: path,
		fsys: os.DirFS(filepath.Dir(path)),
	}
}

// Load reads and parses the inventory file.
func (l *InventoryLoader) Load(ctx context.Context) (inv Inventory, err error) {
	log := logger.FromContext(ctx).With("path", l.path)

	file, err := l.fsys.Open(filepath.Base(l.path))
	if err != nil {
		log.ErrorContext(ctx, "Failed to open inventory file", "error", err)
		return inv, fmt.Errorf("failed to open inventory file: %w", err)
	}
	defer func() {
		cerr := file.Close()
		if cerr != nil {
			log.ErrorContext(ctx, "Failed to close inventory file", "error", cerr)
		}
		err = errors.Join(cerr, err)
	}()

	b, err := io.ReadAll(file)
	if err != nil {
		log.ErrorContext(ctx, "Failed to read inventory file", "error", err)
		return inv, fmt.Errorf("failed to read inventory file: %w", err)
	}

	if err := yaml.Unmarshal(b, &inv); err != nil {
		log.ErrorContext(ctx, "Failed to parse inventory file", "error", err)
		return inv, fmt.Errorf("failed to parse inventory file: %w", err)
	}

	log.DebugContext(ctx, "Loaded inventory", "gateways", len(inv.Gateways))
	return inv, nil
}
