// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/wavetermdev/specdom/pkg/target/optrace"
)

var renderMarkup bool
var renderDataFile string
var renderTrace bool
var renderTraceOut string

var renderCmd = &cobra.Command{
	Use:   "render [flags] file",
	Short: "mount a spec document and print the resulting html",
	Args:  cobra.ExactArgs(1),
	RunE:  renderRun,
}

func init() {
	renderCmd.Flags().BoolVarP(&renderMarkup, "markup", "m", false, "treat the file as markup (default for .html files)")
	renderCmd.Flags().StringVarP(&renderDataFile, "data", "d", "", "yaml/json file with data for markup bindings")
	renderCmd.Flags().BoolVarP(&renderTrace, "trace", "t", false, "print the target operations")
	renderCmd.Flags().StringVarP(&renderTraceOut, "trace-out", "o", "", "write the target operations to a file (uses trace:format)")
	rootCmd.AddCommand(renderCmd)
}

func renderRun(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	player := makePlayer(settings)
	data, err := readBindData(renderDataFile)
	if err != nil {
		return err
	}
	spec, err := readSpecFile(args[0], renderMarkup, data, player.Engine.Registry())
	if err != nil {
		return err
	}
	if spec == nil {
		return fmt.Errorf("%s has no content", args[0])
	}
	if err := player.Render(spec); err != nil {
		return fmt.Errorf("rendering %s: %w", args[0], err)
	}
	WriteStdout("%s\n", player.HTML())
	ops := player.Recorder.Reset()
	if renderTrace {
		for _, op := range ops {
			WriteStdout("  %s\n", op.String())
		}
	}
	if renderTraceOut != "" {
		fd, err := os.Create(renderTraceOut)
		if err != nil {
			return err
		}
		defer fd.Close()
		if err := optrace.Encode(fd, ops, settings.TraceFormat); err != nil {
			return fmt.Errorf("writing trace: %w", err)
		}
	}
	return player.Close()
}
