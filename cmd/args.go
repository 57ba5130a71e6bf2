// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import "strings"

// legacyFlags maps the single-dash spellings of long flags to their
// double-dash form. pflag would otherwise read them as shorthand clusters.
var legacyFlags = map[string]string{
	"-gw":      "--gateway",
	"-ttl":     "--ttl",
	"-timeout": "--timeout",
	"-help":    "--help",
}

// normalizeArgs rewrites legacy single-dash flags. Arguments after the
// "--" terminator are left untouched.
func normalizeArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for i, arg := range args {
		if arg == "--" {
			return append(out, args[i:]...)
		}
		name, value, hasValue := strings.Cut(arg, "=")
		if long, ok := legacyFlags[name]; ok {
			if hasValue {
				arg = long + "=" + value
			} else {
				arg = long
			}
		}
		out = append(out, arg)
	}
	return out
}
