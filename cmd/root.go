// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/telekom/routecheck/internal/logger"
	"github.com/telekom/routecheck/internal/traceroute"
	"github.com/telekom/routecheck/pkg/config"
	"github.com/telekom/routecheck/pkg/report"
	"github.com/telekom/routecheck/pkg/routecheck"
)

// runRoutecheck executes a single run with the resolved configuration
var runRoutecheck = func(ctx context.Context, cfg *config.Config, out io.Writer) error {
	return routecheck.New(cfg, out).Run(ctx)
}

// NewCmdRoot creates a new root command
func NewCmdRoot(version string) *cobra.Command {
	var cfgFile string
	v := viper.NewWithOptions(
		viper.ExperimentalBindStruct(),
		viper.EnvKeyReplacer(strings.NewReplacer(".", "_")),
	)

	rootCmd := &cobra.Command{
		Use:   "routecheck -d <destination> [-gw <gateway>]...",
		Short: "Routecheck, the gateway reachability probe",
		Long: "Routecheck sends ICMP echo requests with increasing TTL towards a destination\n" +
			"and reports which of the given gateways replied on the way.",
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return initConfig(v, cfgFile)
		},
		RunE: run(v),
	}

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: ExitInvalidConfig, Err: err}
	})

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is $HOME/.routecheck.yaml)")
	registerFlags(rootCmd.Flags())
	bindFlags(v, rootCmd.Flags())

	return rootCmd
}

// registerFlags defines the flags of the root command
func registerFlags(fs *pflag.FlagSet) {
	fs.BoolP("verbose", "v", false, "print diagnostic output to stdout")
	// one literal per occurrence, invalid literals are skipped during resolution
	fs.StringArrayP("destination", "d", nil, "destination IPv4 address, the last valid one is probed")
	fs.StringArray("gateway", nil, "candidate gateway IPv4 address, can be given multiple times (legacy: -gw)")
	fs.Int("ttl", config.DefaultMaxHops, "maximum number of hops (legacy: -ttl)")
	fs.Int("timeout", config.DefaultTimeout, "time to wait for a reply in milliseconds (legacy: -timeout)")
	fs.Int("retries", 0, "number of retries per probe without a reply")
	fs.Duration("retry-delay", 100*time.Millisecond, "initial delay between retries")
	fs.String("mode", string(traceroute.ModeAuto), "ICMP socket mode: auto, raw or datagram")
	fs.StringP("output", "o", string(report.Text), "report format: text, json or yaml")
	fs.String("inventory", "", "YAML file with named gateways")
	fs.String("metrics-file", "", "write the Prometheus metrics of the run to this file")
}

// bindFlags binds the flags to their configuration keys
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) {
	keys := map[string]string{
		"verbose":      "verbose",
		"destination":  "destination",
		"gateway":      "gateway",
		"ttl":          "maxHops",
		"timeout":      "timeout",
		"retries":      "retry.count",
		"retry-delay":  "retry.delay",
		"mode":         "mode",
		"output":       "output",
		"inventory":    "inventory",
		"metrics-file": "metricsFile",
	}
	for flag, key := range keys {
		cobra.CheckErr(v.BindPFlag(key, fs.Lookup(flag)))
	}
}

func initConfig(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		// Use config file from the flag
		v.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err == nil {
			// Search config in home directory with name ".routecheck" (without an extension)
			v.AddConfigPath(home)
		}
		v.SetConfigType("yaml")
		v.SetConfigName(".routecheck")
	}

	v.SetEnvPrefix("routecheck")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var nfErr viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &nfErr) {
			return nil
		}
		return &ExitError{Code: ExitInvalidConfig, Err: fmt.Errorf("failed to read config file: %w", err)}
	}
	return nil
}

// run is the entry point of the root command
func run(v *viper.Viper) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		cfg := &config.Config{}
		if err := v.Unmarshal(cfg); err != nil {
			return &ExitError{Code: ExitInvalidConfig, Err: fmt.Errorf("failed to parse config: %w", err)}
		}

		log := newLogger(cfg.Verbose, cmd.OutOrStdout())
		ctx := logger.IntoContext(cmd.Context(), log)
		if f := v.ConfigFileUsed(); f != "" {
			log.DebugContext(ctx, "Using config file", "path", f)
		}

		return newExitError(runRoutecheck(ctx, cfg, cmd.OutOrStdout()))
	}
}

// newLogger returns a debug logger writing to w if verbose is set.
// Otherwise diagnostics are dropped unless LOG_LEVEL is set.
func newLogger(verbose bool, w io.Writer) *slog.Logger {
	if verbose {
		return logger.NewLogger(logger.NewHandler(w, slog.LevelDebug))
	}
	return logger.NewLogger(logger.NewQuietHandler(os.Stderr))
}

// BuildCmd returns the routecheck command tree
func BuildCmd(version string) *cobra.Command {
	return NewCmdRoot(version)
}

// Execute runs the routecheck command with the process arguments
// and returns the exit code
func Execute(version string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return execute(ctx, BuildCmd(version), os.Args[1:], os.Stderr)
}

func execute(ctx context.Context, cmd *cobra.Command, args []string, stderr io.Writer) int {
	if len(args) == 0 {
		_ = cmd.Help()
		return ExitFailure
	}

	cmd.SetArgs(normalizeArgs(args))
	err := cmd.ExecuteContext(ctx)
	code := exitCode(err)
	switch code {
	case ExitOK, ExitNoDestination, ExitDestinationUnreachable:
		// the outcome is already part of the output
	default:
		_, _ = fmt.Fprintln(stderr, err)
	}
	return code
}
