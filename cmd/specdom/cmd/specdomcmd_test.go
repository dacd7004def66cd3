// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/wavetermdev/specdom/pkg/democomp"
	"github.com/wavetermdev/specdom/pkg/rconfig"
	"github.com/wavetermdev/specdom/pkg/specdoc"
)

func writeTemp(t *testing.T, name string, content string) string {
	t.Helper()
	fileName := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(fileName, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return fileName
}

func TestReadSpecFile(t *testing.T) {
	reg := democomp.Registry()
	yamlFile := writeTemp(t, "app.yaml", "tag: div\nchildren:\n  - tag: Greeting\n    props:\n      name: Sam\n")
	spec, err := readSpecFile(yamlFile, false, nil, reg)
	if err != nil {
		t.Fatal(err)
	}
	if got := spec.Children()[0].TypeName(); got != "Greeting" {
		t.Errorf("child type = %s", got)
	}
	markupFile := writeTemp(t, "app.html", `<div><greeting name="#bind:who"/></div>`)
	spec, err = readSpecFile(markupFile, false, map[string]any{"who": "Sam"}, reg)
	if err != nil {
		t.Fatal(err)
	}
	if got := spec.Children()[0].Props()["name"]; got != "Sam" {
		t.Errorf("bound name = %v", got)
	}
}

func TestReadBindData(t *testing.T) {
	data, err := readBindData(writeTemp(t, "data.yaml", "who: Sam\nitems: [a, b]\n"))
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]any{"who": "Sam", "items": []any{"a", "b"}}
	if diff := cmp.Diff(want, data); diff != "" {
		t.Errorf("data mismatch (-want +got):\n%s", diff)
	}
	data, err = readBindData("")
	if err != nil || data != nil {
		t.Errorf("empty file name: %v %v", data, err)
	}
}

func TestEncodeResults(t *testing.T) {
	results := []*specdoc.FrameResult{{Index: 0, HTML: "<p></p>"}, {Index: 1, HTML: "<p>x</p>"}}
	var jsonBuf bytes.Buffer
	if err := encodeResults(&jsonBuf, results, "json"); err != nil {
		t.Fatal(err)
	}
	var fromJson []*specdoc.FrameResult
	if err := json.Unmarshal(jsonBuf.Bytes(), &fromJson); err != nil {
		t.Fatal(err)
	}
	var mpBuf bytes.Buffer
	if err := encodeResults(&mpBuf, results, "msgpack"); err != nil {
		t.Fatal(err)
	}
	var fromMsgpack []*specdoc.FrameResult
	if err := msgpack.Unmarshal(mpBuf.Bytes(), &fromMsgpack); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(fromJson, fromMsgpack); diff != "" {
		t.Errorf("json and msgpack disagree (-json +msgpack):\n%s", diff)
	}
	if err := encodeResults(&bytes.Buffer{}, results, "xml"); err == nil {
		t.Errorf("expected unknown format error")
	}
}

func TestWatcherRerender(t *testing.T) {
	var out bytes.Buffer
	oldStdout := WrappedStdout
	WrappedStdout = &out
	defer func() { WrappedStdout = oldStdout }()

	fileName := writeTemp(t, "app.yaml", "tag: div\nchildren:\n  - tag: Greeting\n    props:\n      name: Sam\n")
	sw := &specWatcher{fileName: fileName, player: makePlayer(rconfig.DefaultSettings())}
	if err := sw.rerender(); err != nil {
		t.Fatal(err)
	}
	firstHTML := sw.player.HTML()
	if !strings.Contains(out.String(), "-- ") || !strings.HasPrefix(out.String(), firstHTML) {
		t.Errorf("unexpected output: %q", out.String())
	}

	// a new root tag remounts instead of failing
	if err := os.WriteFile(fileName, []byte("tag: section\nchildren:\n  - tag: Greeting\n    props:\n      name: Kim\n"), 0644); err != nil {
		t.Fatal(err)
	}
	out.Reset()
	if err := sw.rerender(); err != nil {
		t.Fatalf("rerender after root tag change: %v", err)
	}
	html := sw.player.HTML()
	if !strings.HasPrefix(html, "<section>") || !strings.Contains(html, "Kim") {
		t.Errorf("html after root change = %s", html)
	}
	if !strings.Contains(out.String(), "1 remove") {
		t.Errorf("expected one remove in %q", out.String())
	}

	if err := os.WriteFile(fileName, []byte("tag: [\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := sw.rerender(); err == nil {
		t.Errorf("expected error for a malformed file")
	}
	if sw.player.HTML() != html {
		t.Errorf("failed rerender changed the tree: %s", sw.player.HTML())
	}
}
