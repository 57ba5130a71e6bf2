// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

// Package pkg contains metadata about routecheck.
package pkg

// Version is the current version of routecheck.
// It is set by main from the value injected at build time.
var Version string
