// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package rconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/wavetermdev/specdom/pkg/target/optrace"
)

func writeFile(t *testing.T, name string, content string) string {
	t.Helper()
	fileName := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(fileName, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return fileName
}

func TestReadSettingsFile(t *testing.T) {
	jsonFile := writeFile(t, "settings.json", `{"render:logops": true, "trace:format": "msgpack"}`)
	yamlFile := writeFile(t, "settings.yaml", "render:logops: true\ntrace:format: msgpack\n")
	want := SettingsType{RenderLogOps: true, TraceFormat: optrace.Format_Msgpack}
	for _, fileName := range []string{jsonFile, yamlFile} {
		settings, err := ReadSettingsFile(fileName)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(want, settings); diff != "" {
			t.Errorf("%s mismatch (-want +got):\n%s", filepath.Base(fileName), diff)
		}
	}
	if _, err := ReadSettingsFile(writeFile(t, "bad.json", "{")); err == nil {
		t.Errorf("expected parse error")
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"SPECDOM_SKIPEQUALSTATE": "true",
		"SPECDOM_ANYGOROUTINE":   "1",
	}
	settings := DefaultSettings()
	if err := settings.ApplyEnv(func(k string) string { return env[k] }); err != nil {
		t.Fatal(err)
	}
	want := SettingsType{RenderSkipEqualState: true, RenderAnyGoroutine: true, TraceFormat: optrace.Format_Json}
	if diff := cmp.Diff(want, settings); diff != "" {
		t.Errorf("settings mismatch (-want +got):\n%s", diff)
	}
	env = map[string]string{"SPECDOM_LOGOPS": "maybe"}
	if err := settings.ApplyEnv(func(k string) string { return env[k] }); err == nil {
		t.Errorf("expected bool parse error")
	}
	env = map[string]string{"SPECDOM_TRACEFORMAT": "xml"}
	if err := settings.ApplyEnv(func(k string) string { return env[k] }); err == nil {
		t.Errorf("expected trace format error")
	}
}

func TestLoad(t *testing.T) {
	fileName := writeFile(t, "settings.json", `{"render:skipequalstate": true}`)
	t.Setenv(ConfigFileEnvVar, fileName)
	t.Setenv("SPECDOM_LOGOPS", "true")
	settings, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	opts := settings.ToEngineOpts(nil)
	if !opts.SkipEqualStateNotify || !opts.LogOps || opts.AllowAnyGoroutine {
		t.Errorf("unexpected engine opts: %+v", opts)
	}
}
