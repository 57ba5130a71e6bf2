// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

// Package test contains helpers shared by the tests of all packages.
package test

import (
	"os"
	"testing"
)

// MarkAsShort marks the test as short, so it will be
// skipped if the -short flag is not set
func MarkAsShort(t testing.TB) {
	t.Helper()
	if !testing.Short() {
		t.Skip("skipping short tests")
	}
}

// MarkAsRoot marks the test as requiring root privileges,
// so it will be skipped unless the process runs as root
func MarkAsRoot(t testing.TB) {
	t.Helper()
	if os.Geteuid() != 0 {
		t.Skip("skipping test that requires root privileges")
	}
}
