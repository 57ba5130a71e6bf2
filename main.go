// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"

	"github.com/telekom/routecheck/cmd"
	"github.com/telekom/routecheck/pkg"
)

// Version is the current version of routecheck
// It is set at build time by using -ldflags "-X main.version=x.x.x"
var version string

func main() {
	pkg.Version = version
	os.Exit(cmd.Execute(version))
}
