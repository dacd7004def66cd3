// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"
	"github.com/wavetermdev/specdom/pkg/rconfig"
	"github.com/wavetermdev/specdom/pkg/specdoc"
)

var schemaCmd = &cobra.Command{
	Use:       "schema [doc|frame|settings]",
	Short:     "print the json schema of spec documents, replay frames or the settings file",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"doc", "frame", "settings"},
	RunE:      schemaRun,
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}

func schemaRun(cmd *cobra.Command, args []string) error {
	schemaName := "doc"
	if len(args) > 0 {
		schemaName = args[0]
	}
	var schema *jsonschema.Schema
	switch schemaName {
	case "doc":
		schema = specdoc.DocSchema()
	case "frame":
		schema = specdoc.FrameSchema()
	case "settings":
		schema = jsonschema.Reflect(&rconfig.SettingsType{})
	default:
		return fmt.Errorf("unknown schema %q (doc, frame or settings)", schemaName)
	}
	barr, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal schema: %v", err)
	}
	WriteStdout("%s\n", string(barr))
	return nil
}
