// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package rconfig loads engine settings from a settings file and the
// environment.
package rconfig

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/wavetermdev/specdom/pkg/target/optrace"
	"github.com/wavetermdev/specdom/pkg/vdom"
	"gopkg.in/yaml.v3"
)

const (
	ConfigFileEnvVar = "SPECDOM_CONFIG"
	DotEnvFile       = ".env"
)

type SettingsType struct {
	RenderSkipEqualState bool `json:"render:skipequalstate,omitempty" yaml:"render:skipequalstate,omitempty"`
	RenderLogOps         bool `json:"render:logops,omitempty" yaml:"render:logops,omitempty"`
	RenderAnyGoroutine   bool `json:"render:anygoroutine,omitempty" yaml:"render:anygoroutine,omitempty"`

	TraceFormat string `json:"trace:format,omitempty" yaml:"trace:format,omitempty" jsonschema:"enum=json,enum=msgpack"`
	TraceLogOps bool   `json:"trace:logops,omitempty" yaml:"trace:logops,omitempty"`
}

// env var => setting key
var envOverrides = map[string]string{
	"SPECDOM_SKIPEQUALSTATE": "render:skipequalstate",
	"SPECDOM_LOGOPS":         "render:logops",
	"SPECDOM_ANYGOROUTINE":   "render:anygoroutine",
	"SPECDOM_TRACEFORMAT":    "trace:format",
	"SPECDOM_TRACELOGOPS":    "trace:logops",
}

func DefaultSettings() SettingsType {
	return SettingsType{TraceFormat: optrace.Format_Json}
}

// ReadSettingsFile parses a .json, .yaml or .yml settings file over the defaults.
func ReadSettingsFile(fileName string) (SettingsType, error) {
	settings := DefaultSettings()
	barr, err := os.ReadFile(fileName)
	if err != nil {
		return settings, err
	}
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(barr, &settings)
	default:
		err = json.Unmarshal(barr, &settings)
	}
	if err != nil {
		return settings, fmt.Errorf("error parsing settings file %q: %w", fileName, err)
	}
	return settings, nil
}

// ApplyEnv overrides settings from SPECDOM_* environment variables.
func (s *SettingsType) ApplyEnv(getenv func(string) string) error {
	for envName, key := range envOverrides {
		val := getenv(envName)
		if val == "" {
			continue
		}
		if err := s.set(key, val); err != nil {
			return fmt.Errorf("invalid %s: %w", envName, err)
		}
	}
	return nil
}

func (s *SettingsType) set(key string, val string) error {
	if key == "trace:format" {
		if val != optrace.Format_Json && val != optrace.Format_Msgpack {
			return fmt.Errorf("unknown trace format %q", val)
		}
		s.TraceFormat = val
		return nil
	}
	bval, err := strconv.ParseBool(val)
	if err != nil {
		return err
	}
	switch key {
	case "render:skipequalstate":
		s.RenderSkipEqualState = bval
	case "render:logops":
		s.RenderLogOps = bval
	case "render:anygoroutine":
		s.RenderAnyGoroutine = bval
	case "trace:logops":
		s.TraceLogOps = bval
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	return nil
}

// Load reads .env (if present), then the file named by SPECDOM_CONFIG (if
// set), then applies env overrides. An explicit fileName wins over the env var.
func Load(fileName string) (SettingsType, error) {
	if _, err := os.Stat(DotEnvFile); err == nil {
		if err := godotenv.Load(DotEnvFile); err != nil {
			log.Printf("[specdom] error loading %s: %v\n", DotEnvFile, err)
		}
	}
	if fileName == "" {
		fileName = os.Getenv(ConfigFileEnvVar)
	}
	settings := DefaultSettings()
	if fileName != "" {
		var err error
		settings, err = ReadSettingsFile(fileName)
		if err != nil {
			return settings, err
		}
	}
	if err := settings.ApplyEnv(os.Getenv); err != nil {
		return settings, err
	}
	return settings, nil
}

func (s SettingsType) ToEngineOpts(reg *vdom.Registry) *vdom.EngineOpts {
	return &vdom.EngineOpts{
		Registry:             reg,
		SkipEqualStateNotify: s.RenderSkipEqualState,
		LogOps:               s.RenderLogOps,
		AllowAnyGoroutine:    s.RenderAnyGoroutine,
	}
}
