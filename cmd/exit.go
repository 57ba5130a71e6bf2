// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/telekom/routecheck/internal/traceroute"
	"github.com/telekom/routecheck/pkg/config"
)

// Exit codes of the routecheck command
const (
	ExitOK = iota
	// ExitFailure is returned without arguments and on unexpected errors
	ExitFailure
	ExitNoDestination
	ExitICMPNotAvailable
	ExitDestinationUnreachable
	// ExitInvalidConfig is returned for every invalid setting but the destination
	ExitInvalidConfig
)

// invalidConfigErrors are the errors mapped to [ExitInvalidConfig]
var invalidConfigErrors = []error{
	config.ErrInvalidMaxHops,
	config.ErrInvalidTimeout,
	config.ErrInvalidRetry,
	config.ErrInvalidMode,
	config.ErrInvalidOutput,
	config.ErrInvalidInventory,
	config.ErrInvalidTelemetry,
	traceroute.ErrInvalidMaxHops,
	traceroute.ErrInvalidMode,
}

// ExitError carries the process exit code out of the command
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// newExitError wraps err with its exit code. It returns nil if err is nil.
func newExitError(err error) error {
	if err == nil {
		return nil
	}
	return &ExitError{Code: exitCode(err), Err: err}
}

// exitCode returns the exit code for err
func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var eErr *ExitError
	if errors.As(err, &eErr) {
		return eErr.Code
	}

	switch {
	case errors.Is(err, config.ErrNoDestination):
		return ExitNoDestination
	case errors.Is(err, traceroute.ErrICMPNotAvailable):
		return ExitICMPNotAvailable
	case errors.Is(err, traceroute.ErrDestinationUnreachable):
		return ExitDestinationUnreachable
	}
	for _, target := range invalidConfigErrors {
		if errors.Is(err, target) {
			return ExitInvalidConfig
		}
	}
	return ExitFailure
}
