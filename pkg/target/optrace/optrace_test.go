// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package optrace

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/wavetermdev/specdom/pkg/target"
	"github.com/wavetermdev/specdom/pkg/target/memtarget"
)

func TestWrapRecords(t *testing.T) {
	mt := memtarget.MakeTarget()
	root := mt.MakeRoot()
	adapter, rec := Wrap(mt)
	if _, ok := adapter.(target.Inserter); !ok {
		t.Fatalf("wrapped memtarget should support InsertBefore")
	}
	div, _ := adapter.CreateNode("div")
	span, _ := adapter.CreateNode("span")
	adapter.SetProperty(div, "onclick", func() {})
	adapter.SetProperty(span, "text", "hi")
	adapter.AppendChild(root, div)
	adapter.AppendChild(div, span)
	adapter.(target.Inserter).InsertBefore(div, mustNode(adapter.CreateNode("b")), span)
	adapter.RemoveProperty(span, "text")
	adapter.RemoveChild(div, span)

	wantTypes := []string{
		OpType_Create, OpType_Create, OpType_SetProperty, OpType_SetProperty,
		OpType_Append, OpType_Append, OpType_Create, OpType_Insert,
		OpType_RemoveProperty, OpType_Remove,
	}
	var gotTypes []string
	for _, op := range rec.Ops {
		gotTypes = append(gotTypes, op.OpType)
	}
	if diff := cmp.Diff(wantTypes, gotTypes); diff != "" {
		t.Errorf("op types mismatch (-want +got):\n%s", diff)
	}
	clickOps := rec.Filter(OpType_SetProperty, "onclick")
	if len(clickOps) != 1 || clickOps[0].Value != "func:func()" {
		t.Errorf("func value not recorded by type: %v", clickOps)
	}
	if rec.Count(OpType_Create) != 3 {
		t.Errorf("create count = %d", rec.Count(OpType_Create))
	}
	ops := rec.Reset()
	if len(ops) != len(wantTypes) || len(rec.Ops) != 0 {
		t.Errorf("reset returned %d ops, %d left", len(ops), len(rec.Ops))
	}
	if got := CountOps(ops, OpType_Create); got != 3 {
		t.Errorf("CountOps create = %d", got)
	}
	if got := CountOps(nil, OpType_Remove); got != 0 {
		t.Errorf("CountOps on nil = %d", got)
	}
}

func mustNode(h target.Handle, err error) target.Handle {
	if err != nil {
		panic(err)
	}
	return h
}

func TestWrapWithoutInserter(t *testing.T) {
	inner := MakeRecorder(memtarget.MakeTarget())
	adapter, _ := Wrap(inner)
	if _, ok := adapter.(target.Inserter); ok {
		t.Errorf("wrapping an adapter without InsertBefore should not add it")
	}
}

func TestFailedOpsNotRecorded(t *testing.T) {
	mt := memtarget.MakeTarget()
	adapter, rec := Wrap(mt)
	if err := adapter.AppendChild("bad", "handle"); err == nil {
		t.Fatalf("expected error")
	}
	if len(rec.Ops) != 0 {
		t.Errorf("failed op recorded: %v", rec.Ops)
	}
}

func TestEncodeDecode(t *testing.T) {
	ops := []Op{
		{OpType: OpType_Create, Handle: "div:1234", Kind: "div"},
		{OpType: OpType_SetProperty, Handle: "div:1234", Key: "text", Value: "1"},
		{OpType: OpType_Replace, Handle: "div:1234", Ref: "p:1", Child: "h1:2"},
	}
	for _, format := range []string{Format_Json, Format_Msgpack} {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Encode(&buf, ops, format); err != nil {
				t.Fatal(err)
			}
			got, err := Decode(&buf, format)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(ops, got); diff != "" {
				t.Errorf("ops mismatch (-want +got):\n%s", diff)
			}
		})
	}
	if err := Encode(&bytes.Buffer{}, ops, "xml"); err == nil {
		t.Errorf("expected unknown format error")
	}
}

func TestOpString(t *testing.T) {
	op := Op{OpType: OpType_Insert, Handle: "ul:1", Child: "li:2", Ref: "li:3"}
	if op.String() != "insert ul:1 <- li:2 before li:3" {
		t.Errorf("unexpected string: %s", op.String())
	}
}
