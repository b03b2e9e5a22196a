// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"runtime/debug"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of label-organizer",
	Long: `Version prints the release set by mage build, the commit the binary
was built from, and the Go toolchain used.`,
	Run: func(cmd *cobra.Command, args []string) {
		info, _ := debug.ReadBuildInfo()
		printVersion(cmd.OutOrStdout(), version, info)
	},
}

func printVersion(w io.Writer, release string, info *debug.BuildInfo) {
	fmt.Fprintf(w, "label-organizer %s\n", release)
	if info == nil {
		return
	}

	var revision, built string
	modified := false
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.time":
			built = s.Value
		case "vcs.modified":
			modified = s.Value == "true"
		}
	}
	if revision != "" {
		if len(revision) > 12 {
			revision = revision[:12]
		}
		if modified {
			revision += "-dirty"
		}
		fmt.Fprintf(w, "  commit: %s\n", revision)
	}
	if built != "" {
		fmt.Fprintf(w, "  built:  %s\n", built)
	}
	fmt.Fprintf(w, "  go:     %s\n", info.GoVersion)
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
