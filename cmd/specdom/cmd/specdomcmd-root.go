// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
	"github.com/wavetermdev/specdom/pkg/democomp"
	"github.com/wavetermdev/specdom/pkg/rconfig"
	"github.com/wavetermdev/specdom/pkg/specdoc"
	"github.com/wavetermdev/specdom/pkg/vdom"
	"gopkg.in/yaml.v3"
)

var (
	rootCmd = &cobra.Command{
		Use:          "specdom",
		Short:        "Render and replay declarative UI specs",
		Long:         `specdom mounts spec documents (yaml, json or markup) into an in-memory target and prints the resulting tree and the mutations it took to get there`,
		SilenceUsage: true,
	}
)

var WrappedStdout io.Writer = os.Stdout
var WrappedStderr io.Writer = os.Stderr

var configFileArg string
var logOpsArg bool
var ExitCode int

func WriteStderr(fmtStr string, args ...interface{}) {
	WrappedStderr.Write([]byte(fmt.Sprintf(fmtStr, args...)))
}

func WriteStdout(fmtStr string, args ...interface{}) {
	WrappedStdout.Write([]byte(fmt.Sprintf(fmtStr, args...)))
}

func loadSettings() (rconfig.SettingsType, error) {
	settings, err := rconfig.Load(configFileArg)
	if err != nil {
		return settings, fmt.Errorf("loading settings: %w", err)
	}
	if logOpsArg {
		settings.RenderLogOps = true
		settings.TraceLogOps = true
	}
	return settings, nil
}

func makePlayer(settings rconfig.SettingsType) *specdoc.Player {
	player := specdoc.MakePlayer(settings.ToEngineOpts(democomp.Registry()))
	player.Recorder.LogOps = settings.TraceLogOps
	return player
}

func isMarkupFile(fileName string) bool {
	ext := strings.ToLower(filepath.Ext(fileName))
	return ext == ".html" || ext == ".htm"
}

func readBindData(fileName string) (map[string]any, error) {
	if fileName == "" {
		return nil, nil
	}
	barr, err := os.ReadFile(fileName)
	if err != nil {
		return nil, err
	}
	var data map[string]any
	if err := yaml.Unmarshal(barr, &data); err != nil {
		return nil, fmt.Errorf("parsing bind data %q: %w", fileName, err)
	}
	return data, nil
}

// readSpecFile loads a spec document, or binds a markup file when asMarkup is
// set or the file has an html extension
func readSpecFile(fileName string, asMarkup bool, data map[string]any, reg *vdom.Registry) (vdom.Spec, error) {
	barr, err := os.ReadFile(fileName)
	if err != nil {
		return nil, err
	}
	if asMarkup || isMarkupFile(fileName) {
		return vdom.Bind(string(barr), data, reg)
	}
	return specdoc.ParseSpec(barr, reg)
}

// Execute executes the root command.
func Execute() {
	defer func() {
		r := recover()
		if r != nil {
			WriteStderr("[panic] %v\n", r)
			debug.PrintStack()
			os.Exit(1)
		}
		os.Exit(ExitCode)
	}()
	rootCmd.PersistentFlags().StringVarP(&configFileArg, "config", "c", "", "settings file (json or yaml), defaults to $"+rconfig.ConfigFileEnvVar)
	rootCmd.PersistentFlags().BoolVar(&logOpsArg, "log-ops", false, "log every node and target operation")
	err := rootCmd.Execute()
	if err != nil {
		ExitCode = 1
	}
}
