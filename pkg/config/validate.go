// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/telekom/routecheck/internal/logger"
	"github.com/telekom/routecheck/internal/traceroute"
)

// Validate validates the startup config.
// The destination is not validated here, see [Config.Resolve].
func (c *Config) Validate(ctx context.Context) (err error) {
	log := logger.FromContext(ctx)

	if c.MaxHops < 1 || c.MaxHops > traceroute.MaxTTL {
		log.ErrorContext(ctx, "The max hops must be between 1 and 255", "maxHops", c.MaxHops)
		err = errors.Join(err, fmt.Errorf("%w: %d", ErrInvalidMaxHops, c.MaxHops))
	}

	if c.Timeout < 0 {
		log.ErrorContext(ctx, "The timeout should be equal or above 0", "timeout", c.Timeout)
		err = errors.Join(err, fmt.Errorf("%w: %d", ErrInvalidTimeout, c.Timeout))
	}

	if vErr := c.Retry.Validate(); vErr != nil {
		log.ErrorContext(ctx, "The retry configuration is invalid", "retryCount", c.Retry.Count)
		err = errors.Join(err, fmt.Errorf("%w: %w", ErrInvalidRetry, vErr))
	}

	if c.Mode != "" && !c.Mode.IsValid() {
		log.ErrorContext(ctx, "The mode must be one of auto, raw or datagram", "mode", c.Mode)
		err = errors.Join(err, fmt.Errorf("%w: %q", ErrInvalidMode, c.Mode))
	}

	if !c.Output.IsValid() {
		log.ErrorContext(ctx, "The output must be one of text, json or yaml", "output", c.Output)
		err = errors.Join(err, fmt.Errorf("%w: %q", ErrInvalidOutput, c.Output))
	}

	if c.HasTelemetry() {
		if vErr := c.Telemetry.Validate(ctx); vErr != nil {
			log.ErrorContext(ctx, "The telemetry configuration is invalid")
			err = errors.Join(err, fmt.Errorf("%w: %w", ErrInvalidTelemetry, vErr))
		}
	}

	if err != nil {
		return fmt.Errorf("validation of configuration failed: %w", err)
	}
	return nil
}
