// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package optrace wraps a target.Adapter and records every mutation that
// passes through it.
package optrace

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"reflect"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/wavetermdev/specdom/pkg/target"
)

const (
	OpType_Create         = "create"
	OpType_SetProperty    = "setprop"
	OpType_RemoveProperty = "removeprop"
	OpType_Append         = "append"
	OpType_Insert         = "insert"
	OpType_Replace        = "replace"
	OpType_Remove         = "remove"
)

const (
	Format_Json    = "json"
	Format_Msgpack = "msgpack"
)

type Op struct {
	OpType string `json:"optype" msgpack:"optype"`
	Handle string `json:"handle,omitempty" msgpack:"handle,omitempty"` // node handle (or parent for child ops)
	Child  string `json:"child,omitempty" msgpack:"child,omitempty"`
	Ref    string `json:"ref,omitempty" msgpack:"ref,omitempty"` // old child for replace, sibling for insert
	Kind   string `json:"kind,omitempty" msgpack:"kind,omitempty"`
	Key    string `json:"key,omitempty" msgpack:"key,omitempty"`
	Value  any    `json:"value,omitempty" msgpack:"value,omitempty"`
}

func (op Op) String() string {
	switch op.OpType {
	case OpType_Create:
		return fmt.Sprintf("create %s => %s", op.Kind, op.Handle)
	case OpType_SetProperty:
		return fmt.Sprintf("setprop %s %s=%v", op.Handle, op.Key, op.Value)
	case OpType_RemoveProperty:
		return fmt.Sprintf("removeprop %s %s", op.Handle, op.Key)
	case OpType_Append:
		return fmt.Sprintf("append %s <- %s", op.Handle, op.Child)
	case OpType_Insert:
		return fmt.Sprintf("insert %s <- %s before %s", op.Handle, op.Child, op.Ref)
	case OpType_Replace:
		return fmt.Sprintf("replace %s %s => %s", op.Handle, op.Ref, op.Child)
	case OpType_Remove:
		return fmt.Sprintf("remove %s -> %s", op.Handle, op.Child)
	}
	return op.OpType
}

// Recorder is a target.Adapter that forwards to Inner and records each op.
// InsertBefore is only offered when Inner supports it (see WithInsert).
type Recorder struct {
	Inner  target.Adapter
	Ops    []Op
	LogOps bool
}

var _ target.Adapter = (*Recorder)(nil)

func MakeRecorder(inner target.Adapter) *Recorder {
	return &Recorder{Inner: inner}
}

func (r *Recorder) record(op Op) {
	if r.LogOps {
		log.Printf("[optrace] %s\n", op.String())
	}
	r.Ops = append(r.Ops, op)
}

// recordable values: functions do not survive encoding, so they are recorded by type
func traceValue(val any) any {
	if val == nil {
		return nil
	}
	if reflect.ValueOf(val).Kind() == reflect.Func {
		return "func:" + reflect.TypeOf(val).String()
	}
	return val
}

func (r *Recorder) CreateNode(kind string) (target.Handle, error) {
	h, err := r.Inner.CreateNode(kind)
	if err != nil {
		return nil, err
	}
	r.record(Op{OpType: OpType_Create, Kind: kind, Handle: target.HandleId(h)})
	return h, nil
}

func (r *Recorder) SetProperty(h target.Handle, key string, val any) error {
	if err := r.Inner.SetProperty(h, key, val); err != nil {
		return err
	}
	r.record(Op{OpType: OpType_SetProperty, Handle: target.HandleId(h), Key: key, Value: traceValue(val)})
	return nil
}

func (r *Recorder) RemoveProperty(h target.Handle, key string) error {
	if err := r.Inner.RemoveProperty(h, key); err != nil {
		return err
	}
	r.record(Op{OpType: OpType_RemoveProperty, Handle: target.HandleId(h), Key: key})
	return nil
}

func (r *Recorder) AppendChild(parent target.Handle, child target.Handle) error {
	if err := r.Inner.AppendChild(parent, child); err != nil {
		return err
	}
	r.record(Op{OpType: OpType_Append, Handle: target.HandleId(parent), Child: target.HandleId(child)})
	return nil
}

func (r *Recorder) ReplaceChild(parent target.Handle, oldChild target.Handle, newChild target.Handle) error {
	// ids are taken first, the inner adapter may release oldChild
	parentId, oldId, newId := target.HandleId(parent), target.HandleId(oldChild), target.HandleId(newChild)
	if err := r.Inner.ReplaceChild(parent, oldChild, newChild); err != nil {
		return err
	}
	r.record(Op{OpType: OpType_Replace, Handle: parentId, Ref: oldId, Child: newId})
	return nil
}

func (r *Recorder) RemoveChild(parent target.Handle, child target.Handle) error {
	parentId, childId := target.HandleId(parent), target.HandleId(child)
	if err := r.Inner.RemoveChild(parent, child); err != nil {
		return err
	}
	r.record(Op{OpType: OpType_Remove, Handle: parentId, Child: childId})
	return nil
}

// InsertRecorder adds InsertBefore on top of Recorder.
type InsertRecorder struct {
	*Recorder
	inserter target.Inserter
}

var _ target.Inserter = (*InsertRecorder)(nil)

func (r *InsertRecorder) InsertBefore(parent target.Handle, child target.Handle, ref target.Handle) error {
	if err := r.inserter.InsertBefore(parent, child, ref); err != nil {
		return err
	}
	r.record(Op{OpType: OpType_Insert, Handle: target.HandleId(parent), Child: target.HandleId(child), Ref: target.HandleId(ref)})
	return nil
}

// Wrap returns a recording adapter for inner. The result implements
// target.Inserter iff inner does.
func Wrap(inner target.Adapter) (target.Adapter, *Recorder) {
	rec := MakeRecorder(inner)
	if ins, ok := inner.(target.Inserter); ok {
		return &InsertRecorder{Recorder: rec, inserter: ins}, rec
	}
	return rec, rec
}

// Reset clears the recorded ops and returns the ones collected so far.
func (r *Recorder) Reset() []Op {
	ops := r.Ops
	r.Ops = nil
	return ops
}

func (r *Recorder) Count(opType string) int {
	return CountOps(r.Ops, opType)
}

func CountOps(ops []Op, opType string) int {
	count := 0
	for _, op := range ops {
		if op.OpType == opType {
			count++
		}
	}
	return count
}

// Filter returns the recorded ops matching opType (and key, when key is non-empty).
func (r *Recorder) Filter(opType string, key string) []Op {
	var rtn []Op
	for _, op := range r.Ops {
		if op.OpType != opType {
			continue
		}
		if key != "" && op.Key != key {
			continue
		}
		rtn = append(rtn, op)
	}
	return rtn
}

func Encode(w io.Writer, ops []Op, format string) error {
	switch format {
	case "", Format_Json:
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(ops)
	case Format_Msgpack:
		return msgpack.NewEncoder(w).Encode(ops)
	}
	return fmt.Errorf("unknown trace format %q", format)
}

func Decode(r io.Reader, format string) ([]Op, error) {
	var ops []Op
	switch format {
	case "", Format_Json:
		if err := json.NewDecoder(r).Decode(&ops); err != nil {
			return nil, err
		}
		return ops, nil
	case Format_Msgpack:
		if err := msgpack.NewDecoder(r).Decode(&ops); err != nil {
			return nil, err
		}
		return ops, nil
	}
	return nil, fmt.Errorf("unknown trace format %q", format)
}
