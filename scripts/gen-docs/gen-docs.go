// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package main

//go:generate go run gen-docs.go gen-docs --path ../../docs
//go:generate go run gen-docs.go gen-docs --path ../../docs/man --format man

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
	routecheckcmd "github.com/telekom/routecheck/cmd"
)

var errUnknownFormat = errors.New("unknown docs format")

func main() {
	rootCmd := &cobra.Command{
		Use:   "gen-docs",
		Short: "Generates docs for routecheck",
	}
	rootCmd.AddCommand(NewCmdGenDocs())

	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// NewCmdGenDocs creates a new gen-docs command
func NewCmdGenDocs() *cobra.Command {
	var docPath, format string

	cmd := &cobra.Command{
		Use:   "gen-docs",
		Short: "Generate the command documentation",
		Long:  "Generate the markdown or man page documentation of the routecheck flags",
		RunE: func(_ *cobra.Command, _ []string) error {
			return genDocs(docPath, format)
		},
	}

	cmd.Flags().StringVar(&docPath, "path", "docs", "directory path where the files will be created")
	cmd.Flags().StringVar(&format, "format", "markdown", "output format: markdown or man")

	return cmd
}

// genDocs writes the documentation of the routecheck command to path
func genDocs(path, format string) error {
	c := routecheckcmd.BuildCmd("")
	c.DisableAutoGenTag = true

	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("failed to create docs directory: %w", err)
	}

	var err error
	switch format {
	case "markdown":
		err = doc.GenMarkdownTree(c, path)
	case "man":
		err = doc.GenManTree(c, &doc.GenManHeader{
			Title:   "ROUTECHECK",
			Section: "8",
			Source:  "Deutsche Telekom IT GmbH",
		}, path)
	default:
		err = fmt.Errorf("%w: %q", errUnknownFormat, format)
	}
	if err != nil {
		return fmt.Errorf("failed to generate docs: %w", err)
	}
	return nil
}
