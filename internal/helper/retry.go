// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package helper

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/telekom/routecheck/internal/logger"
)

// ErrInvalidRetryCount is returned when the retry count is negative.
var ErrInvalidRetryCount = errors.New("retry count must not be negative")

// RetryConfig configures how often and how fast an effector is retried.
type RetryConfig struct {
	// Count is the number of additional attempts after the first one.
	Count int `json:"count" yaml:"count" mapstructure:"count"`
	// Delay is the initial delay between two attempts.
	// It doubles with every further attempt.
	Delay time.Duration `json:"delay" yaml:"delay" mapstructure:"delay"`
}

// Validate checks the retry configuration for invalid values.
func (rc RetryConfig) Validate() error {
	if rc.Count < 0 {
		return ErrInvalidRetryCount
	}
	return nil
}

// Effector will be the function called by the Retry function
type Effector func(context.Context) error

// Retry will retry the run the effector function in an exponential backoff
func Retry(effector Effector, rc RetryConfig) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		log := logger.FromContext(ctx)
		for r := 1; ; r++ {
			err := effector(ctx)
			if err == nil || r > rc.Count {
				return err
			}

			delay := getExpBackoff(rc.Delay, r)
			log.DebugContext(ctx, "Effector call failed, retrying", "attempt", r, "delay", delay, "error", err)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
}

// calculate the exponential delay for a given iteration
// first iteration is 1
func getExpBackoff(initialDelay time.Duration, iteration int) time.Duration {
	if iteration <= 1 {
		return initialDelay
	}
	return time.Duration(math.Pow(2, float64(iteration-1))) * initialDelay
}
