// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package memtarget is an in-memory rendering surface. It keeps a plain tree
// of nodes, supports event dispatch through registered listeners and can
// dump the tree as HTML.
package memtarget

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/wavetermdev/specdom/pkg/target"
)

type MemNode struct {
	Id        string
	Kind      string
	Attrs     map[string]any
	Listeners map[string]any // event name => handler
	Text      string
	Parent    *MemNode
	Children  []*MemNode
}

func (n *MemNode) HandleId() string {
	return n.Kind + ":" + n.Id[:8]
}

func (n *MemNode) indexOf(child *MemNode) int {
	for idx, c := range n.Children {
		if c == child {
			return idx
		}
	}
	return -1
}

// Event is passed to handlers that take one argument.
type Event struct {
	Type   string
	Target *MemNode
	Data   any
}

type Target struct {
	nodes map[string]*MemNode
}

var _ target.Adapter = (*Target)(nil)
var _ target.Inserter = (*Target)(nil)

func MakeTarget() *Target {
	return &Target{nodes: make(map[string]*MemNode)}
}

func (t *Target) newNode(kind string) *MemNode {
	n := &MemNode{
		Id:        uuid.New().String(),
		Kind:      kind,
		Attrs:     make(map[string]any),
		Listeners: make(map[string]any),
	}
	t.nodes[n.Id] = n
	return n
}

// MakeRoot creates a detached container node to mount a tree into.
func (t *Target) MakeRoot() *MemNode {
	return t.newNode("#root")
}

func (t *Target) NodeById(id string) *MemNode {
	return t.nodes[id]
}

func asNode(h target.Handle) (*MemNode, error) {
	if h == nil {
		return nil, fmt.Errorf("memtarget: nil handle")
	}
	n, ok := h.(*MemNode)
	if !ok || n == nil {
		return nil, fmt.Errorf("memtarget: invalid handle type %T", h)
	}
	return n, nil
}

func (t *Target) CreateNode(kind string) (target.Handle, error) {
	if kind == "" {
		return nil, fmt.Errorf("memtarget: empty node kind")
	}
	return t.newNode(kind), nil
}

func (t *Target) SetProperty(h target.Handle, key string, val any) error {
	n, err := asNode(h)
	if err != nil {
		return err
	}
	if target.IsEventKey(key) {
		n.Listeners[target.EventName(key)] = val
		return nil
	}
	if key == target.TextKey {
		n.Text = fmt.Sprint(val)
		return nil
	}
	n.Attrs[key] = val
	return nil
}

func (t *Target) RemoveProperty(h target.Handle, key string) error {
	n, err := asNode(h)
	if err != nil {
		return err
	}
	if target.IsEventKey(key) {
		delete(n.Listeners, target.EventName(key))
		return nil
	}
	if key == target.TextKey {
		n.Text = ""
		return nil
	}
	delete(n.Attrs, key)
	return nil
}

func (t *Target) attach(parent *MemNode, child *MemNode, idx int) error {
	if child.Parent != nil {
		return fmt.Errorf("memtarget: node %s is already attached to %s", child.HandleId(), child.Parent.HandleId())
	}
	for p := parent; p != nil; p = p.Parent {
		if p == child {
			return fmt.Errorf("memtarget: cannot attach %s into its own subtree", child.HandleId())
		}
	}
	child.Parent = parent
	if idx < 0 || idx >= len(parent.Children) {
		parent.Children = append(parent.Children, child)
		return nil
	}
	parent.Children = append(parent.Children, nil)
	copy(parent.Children[idx+1:], parent.Children[idx:])
	parent.Children[idx] = child
	return nil
}

func (t *Target) AppendChild(parentH target.Handle, childH target.Handle) error {
	parent, err := asNode(parentH)
	if err != nil {
		return err
	}
	child, err := asNode(childH)
	if err != nil {
		return err
	}
	return t.attach(parent, child, -1)
}

func (t *Target) InsertBefore(parentH target.Handle, childH target.Handle, refH target.Handle) error {
	parent, err := asNode(parentH)
	if err != nil {
		return err
	}
	child, err := asNode(childH)
	if err != nil {
		return err
	}
	ref, err := asNode(refH)
	if err != nil {
		return err
	}
	idx := parent.indexOf(ref)
	if idx == -1 {
		return fmt.Errorf("memtarget: ref node %s is not a child of %s", ref.HandleId(), parent.HandleId())
	}
	return t.attach(parent, child, idx)
}

func (t *Target) ReplaceChild(parentH target.Handle, oldH target.Handle, newH target.Handle) error {
	parent, err := asNode(parentH)
	if err != nil {
		return err
	}
	oldChild, err := asNode(oldH)
	if err != nil {
		return err
	}
	newChild, err := asNode(newH)
	if err != nil {
		return err
	}
	idx := parent.indexOf(oldChild)
	if idx == -1 {
		return fmt.Errorf("memtarget: node %s is not a child of %s", oldChild.HandleId(), parent.HandleId())
	}
	if newChild.Parent != nil {
		return fmt.Errorf("memtarget: node %s is already attached", newChild.HandleId())
	}
	parent.Children[idx] = newChild
	newChild.Parent = parent
	t.release(oldChild)
	return nil
}

func (t *Target) RemoveChild(parentH target.Handle, childH target.Handle) error {
	parent, err := asNode(parentH)
	if err != nil {
		return err
	}
	child, err := asNode(childH)
	if err != nil {
		return err
	}
	idx := parent.indexOf(child)
	if idx == -1 {
		return fmt.Errorf("memtarget: node %s is not a child of %s", child.HandleId(), parent.HandleId())
	}
	parent.Children = append(parent.Children[:idx], parent.Children[idx+1:]...)
	t.release(child)
	return nil
}

// release detaches a subtree and forgets its ids
func (t *Target) release(n *MemNode) {
	n.Parent = nil
	var walk func(*MemNode)
	walk = func(cur *MemNode) {
		delete(t.nodes, cur.Id)
		for _, c := range cur.Children {
			walk(c)
		}
	}
	walk(n)
}

// NumNodes returns the number of live (not released) nodes, roots included.
func (t *Target) NumNodes() int {
	return len(t.nodes)
}

// Find returns the nodes of the given kind under root in document order.
func Find(root *MemNode, kind string) []*MemNode {
	var rtn []*MemNode
	var walk func(*MemNode)
	walk = func(n *MemNode) {
		if n.Kind == kind {
			rtn = append(rtn, n)
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(root)
	return rtn
}

// Dispatch calls the listener registered for event on the node. Handlers may
// take no arguments or a single Event, and may return an error.
func (t *Target) Dispatch(h target.Handle, event string, data any) error {
	n, err := asNode(h)
	if err != nil {
		return err
	}
	fnVal, ok := n.Listeners[strings.ToLower(event)]
	if !ok || fnVal == nil {
		return fmt.Errorf("memtarget: no %q listener on %s", event, n.HandleId())
	}
	rval := reflect.ValueOf(fnVal)
	if rval.Kind() != reflect.Func {
		return fmt.Errorf("memtarget: %q listener on %s is not a function (%T)", event, n.HandleId(), fnVal)
	}
	rtype := rval.Type()
	var rtnVals []reflect.Value
	switch rtype.NumIn() {
	case 0:
		rtnVals = rval.Call(nil)
	case 1:
		evArg := reflect.ValueOf(Event{Type: event, Target: n, Data: data})
		if !evArg.Type().AssignableTo(rtype.In(0)) {
			return fmt.Errorf("memtarget: %q listener has unsupported argument type %v", event, rtype.In(0))
		}
		rtnVals = rval.Call([]reflect.Value{evArg})
	default:
		return fmt.Errorf("memtarget: %q listener takes %d arguments", event, rtype.NumIn())
	}
	for _, rv := range rtnVals {
		if err, ok := rv.Interface().(error); ok && err != nil {
			return err
		}
	}
	return nil
}

func formatAttrVal(v any) string {
	switch tv := v.(type) {
	case string:
		return tv
	case []string:
		return strings.Join(tv, " ")
	}
	return fmt.Sprint(v)
}

func writeHTML(b *strings.Builder, n *MemNode) {
	if n.Kind == target.TextKind {
		b.WriteString(htmlEscape(n.Text))
		return
	}
	isContainer := strings.HasPrefix(n.Kind, "#")
	if !isContainer {
		b.WriteString("<" + n.Kind)
		keys := make([]string, 0, len(n.Attrs))
		for k := range n.Attrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(b, " %s=%q", k, formatAttrVal(n.Attrs[k]))
		}
		b.WriteString(">")
	}
	b.WriteString(htmlEscape(n.Text))
	for _, c := range n.Children {
		writeHTML(b, c)
	}
	if !isContainer {
		b.WriteString("</" + n.Kind + ">")
	}
}

var htmlReplacer = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func htmlEscape(s string) string {
	return htmlReplacer.Replace(s)
}

// HTML renders the subtree as markup. Event listeners are not rendered.
func HTML(n *MemNode) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	writeHTML(&b, n)
	return b.String()
}
