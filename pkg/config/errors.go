// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package config

import "errors"

var (
	// ErrNoDestination is returned when no valid destination address was given
	ErrNoDestination = errors.New("no destination specified")
	// ErrInvalidMaxHops is returned when the max hops are outside [1, 255]
	ErrInvalidMaxHops = errors.New("invalid max hops")
	// ErrInvalidTimeout is returned when the timeout is negative
	ErrInvalidTimeout = errors.New("invalid timeout")
	// ErrInvalidRetry is returned when the retry configuration is invalid
	ErrInvalidRetry = errors.New("invalid retry configuration")
	// ErrInvalidMode is returned for an unknown ICMP socket mode
	ErrInvalidMode = errors.New("invalid mode")
	// ErrInvalidOutput is returned for an unknown report format
	ErrInvalidOutput = errors.New("invalid output format")
	// ErrInvalidInventory is returned when the inventory file cannot be loaded
	ErrInvalidInventory = errors.New("invalid inventory")
	// ErrInvalidTelemetry is returned when the telemetry configuration is invalid
	ErrInvalidTelemetry = errors.New("invalid telemetry configuration")
)
