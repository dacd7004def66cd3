// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"runtime"

	"github.com/spf13/cobra"
	"github.com/wavetermdev/specdom/pkg/democomp"
)

// set by the build
var SpecdomVersion = "0.1.0"
var BuildTime = ""

var versionVerbose bool

var versionCmd = &cobra.Command{
	Use:   "version [-v]",
	Short: "Print the version number of specdom",
	RunE:  runVersionCmd,
}

func init() {
	versionCmd.Flags().BoolVarP(&versionVerbose, "verbose", "v", false, "Display full version information")
	rootCmd.AddCommand(versionCmd)
}

func runVersionCmd(cmd *cobra.Command, args []string) error {
	if !versionVerbose {
		WriteStdout("specdom v%s\n", SpecdomVersion)
		return nil
	}
	WriteStdout("v%s (%s)\n", SpecdomVersion, BuildTime)
	WriteStdout("go:         %s\n", runtime.Version())
	WriteStdout("components: %v\n", democomp.Registry().Names())
	return nil
}
