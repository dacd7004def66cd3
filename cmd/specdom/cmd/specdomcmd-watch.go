// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/wavetermdev/specdom/pkg/specdoc"
	"github.com/wavetermdev/specdom/pkg/target/optrace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

var watchMarkup bool
var watchDataFile string

var watchCmd = &cobra.Command{
	Use:   "watch [flags] file",
	Short: "re-render a spec document every time it changes",
	Args:  cobra.ExactArgs(1),
	RunE:  watchRun,
}

func init() {
	watchCmd.Flags().BoolVarP(&watchMarkup, "markup", "m", false, "treat the file as markup (default for .html files)")
	watchCmd.Flags().StringVarP(&watchDataFile, "data", "d", "", "yaml/json file with data for markup bindings")
	rootCmd.AddCommand(watchCmd)
}

type specWatcher struct {
	fileName string
	player   *specdoc.Player
	clear    bool
}

// rerender reconciles the current file contents onto the mounted tree
func (w *specWatcher) rerender() error {
	data, err := readBindData(watchDataFile)
	if err != nil {
		return err
	}
	spec, err := readSpecFile(w.fileName, watchMarkup, data, w.player.Engine.Registry())
	if err != nil {
		return err
	}
	if spec == nil {
		return fmt.Errorf("%s has no content", w.fileName)
	}
	w.player.Recorder.Reset()
	if err := w.player.Render(spec); err != nil {
		return err
	}
	ops := w.player.Recorder.Reset()
	if w.clear {
		WriteStdout("\x1b[H\x1b[2J")
	}
	WriteStdout("%s\n", w.player.HTML())
	WriteStdout("-- %d ops (%d create, %d replace, %d remove)\n", len(ops),
		optrace.CountOps(ops, optrace.OpType_Create), optrace.CountOps(ops, optrace.OpType_Replace), optrace.CountOps(ops, optrace.OpType_Remove))
	return nil
}

func watchRun(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	fileName, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer watcher.Close()
	// editors often replace the file, so watch the directory
	if err := watcher.Add(filepath.Dir(fileName)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(fileName), err)
	}
	sw := &specWatcher{
		fileName: fileName,
		player:   makePlayer(settings),
		clear:    term.IsTerminal(int(os.Stdout.Fd())),
	}
	ctx, cancelFn := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancelFn()
	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		// the engine is owned by this goroutine, every render happens here
		if err := sw.rerender(); err != nil {
			log.Printf("[specdom] render error: %v\n", err)
		}
		for {
			select {
			case <-ctx.Done():
				return sw.player.Close()
			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if filepath.Clean(event.Name) != fileName {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if err := sw.rerender(); err != nil {
					log.Printf("[specdom] render error: %v\n", err)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				log.Printf("[specdom] watcher error: %v\n", err)
			}
		}
	})
	return group.Wait()
}
