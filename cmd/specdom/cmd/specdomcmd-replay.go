// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/wavetermdev/specdom/pkg/specdoc"
	"github.com/wavetermdev/specdom/pkg/target/optrace"
)

var replayShowOps bool
var replayOut string

var replayCmd = &cobra.Command{
	Use:   "replay [flags] file",
	Short: "apply a multi-document replay script frame by frame",
	Long: `each yaml document in the file is a frame: either {spec: ...} which mounts or updates the root,
or {dispatch: {kind, index, event, data}} which sends an event to a rendered node`,
	Args: cobra.ExactArgs(1),
	RunE: replayRun,
}

func init() {
	replayCmd.Flags().BoolVar(&replayShowOps, "ops", false, "print the target operations of every frame")
	replayCmd.Flags().StringVarP(&replayOut, "out", "o", "", "write the frame results to a file (uses trace:format)")
	rootCmd.AddCommand(replayCmd)
}

func encodeResults(w io.Writer, results []*specdoc.FrameResult, format string) error {
	switch format {
	case "", optrace.Format_Json:
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	case optrace.Format_Msgpack:
		return msgpack.NewEncoder(w).Encode(results)
	}
	return fmt.Errorf("unknown trace format %q", format)
}

func replayRun(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	fd, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer fd.Close()
	frames, err := specdoc.LoadFrames(fd)
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}
	player := makePlayer(settings)
	results, playErr := player.Play(frames)
	for _, result := range results {
		WriteStdout("[%d] %s\n", result.Index, result.HTML)
		if replayShowOps {
			for _, op := range result.Ops {
				WriteStdout("    %s\n", op.String())
			}
		}
	}
	if replayOut != "" {
		outFd, err := os.Create(replayOut)
		if err != nil {
			return err
		}
		defer outFd.Close()
		if err := encodeResults(outFd, results, settings.TraceFormat); err != nil {
			return fmt.Errorf("writing results: %w", err)
		}
	}
	if playErr != nil {
		return playErr
	}
	return player.Close()
}
