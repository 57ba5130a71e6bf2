// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/telekom/routecheck/internal/helper"
	"github.com/telekom/routecheck/internal/logger"
	"github.com/telekom/routecheck/internal/traceroute"
	"github.com/telekom/routecheck/pkg/config"
	"github.com/telekom/routecheck/pkg/metrics"
)

// stubRun replaces the run of the command. The returned config is
// filled with the configuration the command resolved.
func stubRun(t *testing.T, err error) *config.Config {
	t.Helper()
	got := &config.Config{}
	orig := runRoutecheck
	runRoutecheck = func(ctx context.Context, cfg *config.Config, _ io.Writer) error {
		*got = *cfg
		logger.FromContext(ctx).DebugContext(ctx, "Run started")
		return err
	}
	t.Cleanup(func() { runRoutecheck = orig })
	return got
}

// isolate hides the config file and environment of the test host.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("LOG_LEVEL", "")
}

func executeCmd(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	c := NewCmdRoot("v0.0.0-test")
	c.SetOut(&out)
	c.SetErr(&errOut)
	code = execute(t.Context(), c, args, &errOut)
	return code, out.String(), errOut.String()
}

func defaultConfig() config.Config {
	return config.Config{
		MaxHops: config.DefaultMaxHops,
		Timeout: config.DefaultTimeout,
		Retry:   helper.RetryConfig{Delay: 100 * time.Millisecond},
		Mode:    traceroute.ModeAuto,
		Output:  "text",
	}
}

func TestExecute_flags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want func(c *config.Config)
	}{
		{
			name: "defaults",
			args: []string{"-d", "10.0.0.5"},
			want: func(c *config.Config) {
				c.Destinations = []string{"10.0.0.5"}
			},
		},
		{
			name: "legacy flags",
			args: []string{"-d", "10.0.0.5", "-gw", "192.168.1.1", "-gw=192.168.2.1", "-ttl", "12", "-timeout", "500"},
			want: func(c *config.Config) {
				c.Destinations = []string{"10.0.0.5"}
				c.Gateways = []string{"192.168.1.1", "192.168.2.1"}
				c.MaxHops = 12
				c.Timeout = 500
			},
		},
		{
			name: "repeated destinations are kept in order",
			args: []string{"-d", "10.0.0.5", "-d", "not-an-ip", "--destination", "10.0.0.6"},
			want: func(c *config.Config) {
				c.Destinations = []string{"10.0.0.5", "not-an-ip", "10.0.0.6"}
			},
		},
		{
			name: "address literals are taken verbatim",
			args: []string{"-d", "10.0.0.5", "-gw", `bad"gw`, "-gw", "10.0.0.1,10.0.0.2", "-gw", "192.168.1.1"},
			want: func(c *config.Config) {
				c.Destinations = []string{"10.0.0.5"}
				c.Gateways = []string{`bad"gw`, "10.0.0.1,10.0.0.2", "192.168.1.1"}
			},
		},
		{
			name: "destination with a quote is kept for resolution",
			args: []string{"-d", `"10.0.0.5`},
			want: func(c *config.Config) {
				c.Destinations = []string{`"10.0.0.5`}
			},
		},
		{
			name: "long flags",
			args: []string{
				"--destination", "10.0.0.5", "--gateway", "192.168.1.1", "--verbose",
				"--retries", "2", "--retry-delay", "1s", "--mode", "datagram", "--output", "yaml",
				"--inventory", "/etc/routecheck/gateways.yaml", "--metrics-file", "/tmp/routecheck.prom",
			},
			want: func(c *config.Config) {
				c.Destinations = []string{"10.0.0.5"}
				c.Gateways = []string{"192.168.1.1"}
				c.Verbose = true
				c.Retry = helper.RetryConfig{Count: 2, Delay: time.Second}
				c.Mode = traceroute.ModeDatagram
				c.Output = "yaml"
				c.Inventory = "/etc/routecheck/gateways.yaml"
				c.MetricsFile = "/tmp/routecheck.prom"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			got := stubRun(t, nil)

			code, _, stderr := executeCmd(t, tt.args...)
			require.Equal(t, ExitOK, code, stderr)

			want := defaultConfig()
			tt.want(&want)
			if diff := cmp.Diff(want, *got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("config mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExecute_environment(t *testing.T) {
	isolate(t)
	t.Setenv("ROUTECHECK_TIMEOUT", "250")
	t.Setenv("ROUTECHECK_MAXHOPS", "8")
	t.Setenv("ROUTECHECK_RETRY_COUNT", "3")
	t.Setenv("ROUTECHECK_TELEMETRY_ENABLED", "true")
	t.Setenv("ROUTECHECK_TELEMETRY_EXPORTER", "stdout")
	got := stubRun(t, nil)

	code, _, stderr := executeCmd(t, "-d", "10.0.0.5", "-ttl", "4")
	require.Equal(t, ExitOK, code, stderr)

	assert.Equal(t, 250, got.Timeout)
	assert.Equal(t, 4, got.MaxHops, "flags take precedence over the environment")
	assert.Equal(t, 3, got.Retry.Count)
	assert.Equal(t, metrics.Config{Enabled: true, Exporter: metrics.STDOUT}, got.Telemetry)
}

func TestExecute_configFile(t *testing.T) {
	isolate(t)
	got := stubRun(t, nil)

	path := filepath.Join(t.TempDir(), "routecheck.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`destination: [10.0.0.5]
gateway: [192.168.1.1, 192.168.2.1]
maxHops: 16
timeout: 2000
retry:
  count: 1
  delay: 50ms
output: json
metricsFile: /var/lib/node_exporter/routecheck.prom
telemetry:
  enabled: true
  exporter: grpc
  url: https://collector.example.com:4317
  tls:
    enabled: true
`), 0o600))

	code, _, stderr := executeCmd(t, "-c", path, "-timeout", "300")
	require.Equal(t, ExitOK, code, stderr)

	want := defaultConfig()
	want.Destinations = []string{"10.0.0.5"}
	want.Gateways = []string{"192.168.1.1", "192.168.2.1"}
	want.MaxHops = 16
	want.Timeout = 300
	want.Retry = helper.RetryConfig{Count: 1, Delay: 50 * time.Millisecond}
	want.Output = "json"
	want.MetricsFile = "/var/lib/node_exporter/routecheck.prom"
	want.Telemetry = metrics.Config{
		Enabled:  true,
		Exporter: metrics.GRPC,
		Url:      "https://collector.example.com:4317",
		TLS:      metrics.TLSConfig{Enabled: true},
	}
	if diff := cmp.Diff(want, *got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestExecute_missingConfigFile(t *testing.T) {
	isolate(t)
	stubRun(t, nil)

	code, _, stderr := executeCmd(t, "-c", filepath.Join(t.TempDir(), "missing.yaml"), "-d", "10.0.0.5")
	assert.Equal(t, ExitInvalidConfig, code)
	assert.Contains(t, stderr, "failed to read config file")
}

func TestExecute_exitCodes(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		runErr      error
		wantCode    int
		wantStderr  bool
		wantStdout  string
		wantHelpOut bool
	}{
		{
			name:        "no arguments prints usage",
			wantCode:    ExitFailure,
			wantHelpOut: true,
		},
		{
			name:        "help",
			args:        []string{"-help"},
			wantCode:    ExitOK,
			wantHelpOut: true,
		},
		{
			name:     "success",
			args:     []string{"-d", "10.0.0.5"},
			wantCode: ExitOK,
		},
		{
			name:     "no destination",
			args:     []string{"-gw", "192.168.1.1"},
			runErr:   config.ErrNoDestination,
			wantCode: ExitNoDestination,
		},
		{
			name:       "ICMP not available",
			args:       []string{"-d", "10.0.0.5"},
			runErr:     fmt.Errorf("%w: operation not permitted", traceroute.ErrICMPNotAvailable),
			wantCode:   ExitICMPNotAvailable,
			wantStderr: true,
		},
		{
			name:     "destination unreachable",
			args:     []string{"-d", "10.0.0.5"},
			runErr:   traceroute.ErrDestinationUnreachable,
			wantCode: ExitDestinationUnreachable,
		},
		{
			name:       "invalid configuration",
			args:       []string{"-d", "10.0.0.5", "-ttl", "0"},
			runErr:     config.ErrInvalidMaxHops,
			wantCode:   ExitInvalidConfig,
			wantStderr: true,
		},
		{
			name:       "malformed flag value",
			args:       []string{"-d", "10.0.0.5", "-ttl", "many"},
			wantCode:   ExitInvalidConfig,
			wantStderr: true,
		},
		{
			name:       "unknown flag",
			args:       []string{"-d", "10.0.0.5", "--hops", "3"},
			wantCode:   ExitInvalidConfig,
			wantStderr: true,
		},
		{
			name:       "positional arguments",
			args:       []string{"10.0.0.5"},
			wantCode:   ExitFailure,
			wantStderr: true,
		},
		{
			name:       "unexpected error",
			args:       []string{"-d", "10.0.0.5"},
			runErr:     errors.New("bad file descriptor"),
			wantCode:   ExitFailure,
			wantStderr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			stubRun(t, tt.runErr)

			code, stdout, stderr := executeCmd(t, tt.args...)
			assert.Equal(t, tt.wantCode, code)
			if tt.wantStderr {
				assert.NotEmpty(t, stderr)
			} else {
				assert.Empty(t, stderr)
			}
			if tt.wantHelpOut {
				assert.Contains(t, stdout, "Usage:")
			}
		})
	}
}

func TestExecute_verbose(t *testing.T) {
	isolate(t)
	stubRun(t, nil)

	_, stdout, _ := executeCmd(t, "-d", "10.0.0.5")
	assert.NotContains(t, stdout, "Run started")

	_, stdout, _ = executeCmd(t, "-d", "10.0.0.5", "-v")
	assert.Contains(t, stdout, "Run started")
	assert.Contains(t, stdout, "level=DEBUG")
}

// The following runs stop before the transport is opened.
func TestExecute_withoutTransport(t *testing.T) {
	isolate(t)

	code, stdout, _ := executeCmd(t, "-d", "not-an-ip", "-gw", "192.168.1.1")
	assert.Equal(t, ExitNoDestination, code)
	assert.Equal(t, "No destination specified\n", stdout)

	code, stdout, _ = executeCmd(t, "-d", `"10.0.0.5`)
	assert.Equal(t, ExitNoDestination, code)
	assert.Equal(t, "No destination specified\n", stdout)

	code, _, stderr := executeCmd(t, "-d", "10.0.0.5", "-ttl", "256")
	assert.Equal(t, ExitInvalidConfig, code)
	assert.Contains(t, stderr, "validation of configuration failed")

	code, _, stderr = executeCmd(t, "-d", "10.0.0.5", "-o", "xml")
	assert.Equal(t, ExitInvalidConfig, code)
	assert.Contains(t, stderr, "xml")
}

func TestExecute_helpStopsTheRun(t *testing.T) {
	isolate(t)
	got := stubRun(t, nil)

	code, stdout, stderr := executeCmd(t, "-d", "10.0.0.5", "-help")
	assert.Equal(t, ExitOK, code)
	assert.Empty(t, stderr)
	assert.Contains(t, stdout, "Usage:")
	assert.Empty(t, got.Destinations, "no run after the help was printed")
}
