// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"time"

	"github.com/telekom/routecheck/internal/helper"
	"github.com/telekom/routecheck/internal/traceroute"
	"github.com/telekom/routecheck/pkg/metrics"
	"github.com/telekom/routecheck/pkg/report"
)

const (
	// DefaultMaxHops is the default TTL of the reachability probe.
	DefaultMaxHops = 30
	// DefaultTimeout is the default time to wait for a reply in milliseconds.
	DefaultTimeout = 10000
)

// Config is the startup configuration of a run.
type Config struct {
	// Destinations are the destination address literals in the order they
	// were given. The last valid one is probed.
	Destinations []string `yaml:"destination" mapstructure:"destination"`
	// Gateways are the candidate gateway address literals.
	Gateways []string `yaml:"gateway" mapstructure:"gateway"`
	// MaxHops is the TTL of the reachability probe
	MaxHops int `yaml:"maxHops" mapstructure:"maxHops"`
	// Timeout is the time to wait for a reply to a single probe in milliseconds
	Timeout int `yaml:"timeout" mapstructure:"timeout"`
	// Verbose enables the diagnostic output
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
	// Retry is the retry configuration for probes without a reply
	Retry helper.RetryConfig `yaml:"retry" mapstructure:"retry"`
	// Mode selects the ICMP socket
	Mode traceroute.Mode `yaml:"mode" mapstructure:"mode"`
	// Output is the format of the report
	Output report.Format `yaml:"output" mapstructure:"output"`
	// Inventory is the path to a file of named gateways
	Inventory string `yaml:"inventory" mapstructure:"inventory"`
	// MetricsFile is the path the Prometheus metrics are written to after the run
	MetricsFile string `yaml:"metricsFile" mapstructure:"metricsFile"`
	// Telemetry is the configuration for the telemetry
	Telemetry metrics.Config `yaml:"telemetry" mapstructure:"telemetry"`
}

// HasTelemetry returns true if the config has telemetry enabled
func (c *Config) HasTelemetry() bool {
	return c.Telemetry.Enabled
}

// HasMetricsFile returns true if metrics should be written after the run
func (c *Config) HasMetricsFile() bool {
	return c.MetricsFile != ""
}

// TimeoutDuration returns the per-probe timeout.
func (c *Config) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Millisecond
}
