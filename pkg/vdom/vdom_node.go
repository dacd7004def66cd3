// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package vdom

import (
	"github.com/wavetermdev/specdom/pkg/target"
)

// Node is the live mirror of a Spec. *ElementNode and *ComponentNode are the
// only implementations; the node tree is owned top-down and children only
// know their parent through their mountPoint.
type Node interface {
	Id() string
	Spec() Spec
	// FirstHandle is the target handle this node contributes to its parent
	// (nil for a component that rendered nothing).
	FirstHandle() target.Handle

	// Mount, Update and Remove are for nodes built by Engine.CreateNode.
	// Nodes owned by a parent or a RootHandle refuse them.
	Mount() error
	Update(next Spec) error
	Remove() error

	mount(place placeFn) error
	update(next Spec) error
	remove(detach bool) error
	getMountPoint() *mountPoint
	setOwned()
}

// placeFn attaches a freshly built root handle to the target tree
type placeFn func(h target.Handle) error

// mountPoint is where a node's handle lives: a parent handle plus a way to
// find the handle it must be inserted before. It does not own the parent.
type mountPoint struct {
	engine *Engine
	parent target.Handle
	next   func() target.Handle // nil, or returns nil => append
}

func (mp *mountPoint) adapter() target.Adapter {
	return mp.engine.adapter
}

func (mp *mountPoint) insert(h target.Handle) error {
	var ref target.Handle
	if mp.next != nil {
		ref = mp.next()
	}
	if ref != nil {
		if ins, ok := mp.adapter().(target.Inserter); ok {
			return targetErr("insert", ins.InsertBefore(mp.parent, h, ref))
		}
	}
	return targetErr("append", mp.adapter().AppendChild(mp.parent, h))
}

func (mp *mountPoint) detach(h target.Handle) error {
	return targetErr("remove", mp.adapter().RemoveChild(mp.parent, h))
}

// createNode dispatches on the concrete spec type; it only builds the node.
func createNode(spec Spec, mp *mountPoint) (Node, error) {
	switch s := normalizeSpec(spec).(type) {
	case *ElementSpec:
		return makeElementNode(s, mp), nil
	case *ComponentSpec:
		return makeComponentNode(s, mp), nil
	case nil:
		return nil, Errorf(ErrCode_UnsupportedSpecKind, "cannot create a node from a nil spec")
	default:
		return nil, Errorf(ErrCode_UnsupportedSpecKind, "cannot create a node from %T", spec)
	}
}

// createOwnedNode builds a node whose lifecycle is driven by its owner
func createOwnedNode(spec Spec, mp *mountPoint) (Node, error) {
	node, err := createNode(spec, mp)
	if err != nil {
		return nil, err
	}
	node.setOwned()
	return node, nil
}

func ownedErr(n Node, op string) error {
	return Errorf(ErrCode_InvariantViolation, "%s of %s (%s): node is owned by its parent", op, describeSpec(n.Spec()), n.Id())
}

// replaceNode runs the replace protocol for a node whose root type changed.
// The new node is mounted into the old node's place, swap installs it in the
// parent, then the old node is torn down.
func replaceNode(old Node, next Spec, swap func(Node)) error {
	mp := old.getMountPoint()
	newNode, err := createOwnedNode(next, mp)
	if err != nil {
		return err
	}
	oldHandle := old.FirstHandle()
	placed := false
	place := func(h target.Handle) error {
		placed = true
		if oldHandle != nil {
			return targetErr("replace", mp.adapter().ReplaceChild(mp.parent, oldHandle, h))
		}
		return mp.insert(h)
	}
	mp.engine.logf("replace <%s> %s => <%s> %s", old.Spec().TypeName(), old.Id(), next.TypeName(), newNode.Id())
	if err := newNode.mount(place); err != nil {
		return err
	}
	swap(newNode)
	// when the new node took the old handle's slot the old handle is already gone
	return old.remove(!placed)
}
