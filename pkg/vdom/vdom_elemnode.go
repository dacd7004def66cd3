// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package vdom

import (
	"errors"

	"github.com/google/uuid"
	"github.com/wavetermdev/specdom/pkg/target"
)

// ElementNode mirrors an ElementSpec onto exactly one target handle.
type ElementNode struct {
	id       string
	mp       *mountPoint
	spec     *ElementSpec
	handle   target.Handle
	children []Node
	state    int
	owned    bool
}

var _ Node = (*ElementNode)(nil)

func makeElementNode(spec *ElementSpec, mp *mountPoint) *ElementNode {
	return &ElementNode{
		id:   uuid.New().String(),
		mp:   mp,
		spec: spec,
	}
}

func (n *ElementNode) Id() string {
	return n.id
}

func (n *ElementNode) Spec() Spec {
	return n.spec
}

func (n *ElementNode) Tag() string {
	return n.spec.tag
}

func (n *ElementNode) Handle() target.Handle {
	return n.handle
}

func (n *ElementNode) FirstHandle() target.Handle {
	return n.handle
}

func (n *ElementNode) IsMounted() bool {
	return n.state == nodeState_Mounted
}

func (n *ElementNode) ChildNodes() []Node {
	return append([]Node(nil), n.children...)
}

func (n *ElementNode) getMountPoint() *mountPoint {
	return n.mp
}

func (n *ElementNode) setOwned() {
	n.owned = true
}

func (n *ElementNode) Mount() error {
	if n.owned {
		return ownedErr(n, "mount")
	}
	return n.mp.engine.runPass("mount <"+n.spec.tag+">", func() error {
		return n.mount(n.mp.insert)
	})
}

func (n *ElementNode) Update(next Spec) error {
	if n.owned {
		return ownedErr(n, "update")
	}
	return n.mp.engine.runPass("update <"+n.spec.tag+">", func() error {
		return n.update(next)
	})
}

func (n *ElementNode) Remove() error {
	if n.owned {
		return ownedErr(n, "remove")
	}
	return n.mp.engine.runPass("remove <"+n.spec.tag+">", func() error {
		return n.remove(true)
	})
}

func (n *ElementNode) mount(place placeFn) error {
	if n.state != nodeState_Unmounted {
		return Errorf(ErrCode_InvariantViolation, "element <%s> (%s) mounted twice (state %s)", n.spec.tag, n.id, nodeStateStr(n.state))
	}
	adapter := n.mp.adapter()
	h, err := adapter.CreateNode(n.spec.tag)
	if err != nil {
		return targetErr("create <"+n.spec.tag+">", err)
	}
	n.handle = h
	n.mp.engine.logf("create <%s> %s", n.spec.tag, n.id)
	if err := setProps(adapter, h, n.spec.props); err != nil {
		return err
	}
	for _, childSpec := range n.spec.children {
		if err := n.appendChild(childSpec); err != nil {
			return err
		}
	}
	if err := place(h); err != nil {
		return err
	}
	n.state = nodeState_Mounted
	return nil
}

// childMountPoint inserts before the first handle contributed by a later
// sibling, so a component that renders nothing keeps its position.
func (n *ElementNode) childMountPoint(idx int) *mountPoint {
	return &mountPoint{
		engine: n.mp.engine,
		parent: n.handle,
		next: func() target.Handle {
			return n.handleAfter(idx)
		},
	}
}

func (n *ElementNode) handleAfter(idx int) target.Handle {
	for i := idx + 1; i < len(n.children); i++ {
		if h := n.children[i].FirstHandle(); h != nil {
			return h
		}
	}
	return nil
}

func (n *ElementNode) appendChild(spec Spec) error {
	mp := n.childMountPoint(len(n.children))
	child, err := createOwnedNode(spec, mp)
	if err != nil {
		return err
	}
	if err := child.mount(mp.insert); err != nil {
		return err
	}
	n.children = append(n.children, child)
	return nil
}

func (n *ElementNode) update(next Spec) error {
	if n.state != nodeState_Mounted {
		return Errorf(ErrCode_NotMounted, "update of element <%s> (%s) in state %s", n.spec.tag, n.id, nodeStateStr(n.state))
	}
	nextSpec, ok := normalizeSpec(next).(*ElementSpec)
	if !ok || nextSpec.tag != n.spec.tag {
		return Errorf(ErrCode_ReplaceRequired, "element <%s> cannot become %s", n.spec.tag, describeSpec(next))
	}
	if err := diffProps(n.mp.adapter(), n.handle, n.spec.props, nextSpec.props); err != nil {
		return err
	}
	numOld := len(n.children)
	for idx, childSpec := range nextSpec.children {
		if idx >= numOld {
			if err := n.appendChild(childSpec); err != nil {
				return err
			}
			continue
		}
		if err := n.updateChildAt(idx, childSpec); err != nil {
			return err
		}
	}
	if len(nextSpec.children) < numOld {
		if err := n.truncateChildren(len(nextSpec.children)); err != nil {
			return err
		}
	}
	n.spec = nextSpec
	return nil
}

func (n *ElementNode) updateChildAt(idx int, spec Spec) error {
	child := n.children[idx]
	if !SameType(child.Spec(), spec) {
		return replaceNode(child, spec, func(newNode Node) { n.children[idx] = newNode })
	}
	err := child.update(spec)
	if IsCode(err, ErrCode_ReplaceRequired) {
		return replaceNode(child, spec, func(newNode Node) { n.children[idx] = newNode })
	}
	return err
}

func (n *ElementNode) truncateChildren(size int) error {
	for idx := size; idx < len(n.children); idx++ {
		if err := n.children[idx].remove(true); err != nil {
			return err
		}
	}
	n.children = n.children[:size]
	return nil
}

// remove tears the subtree down post-order. Only the node asked to detach
// issues RemoveChild, descendants go away with it.
func (n *ElementNode) remove(detach bool) error {
	if n.state != nodeState_Mounted {
		return Errorf(ErrCode_NotMounted, "remove of element <%s> (%s) in state %s", n.spec.tag, n.id, nodeStateStr(n.state))
	}
	var errs []error
	for _, child := range n.children {
		if err := child.remove(false); err != nil {
			errs = append(errs, err)
		}
	}
	n.children = nil
	if detach {
		if err := n.mp.detach(n.handle); err != nil {
			errs = append(errs, err)
		}
	}
	n.mp.engine.logf("remove <%s> %s", n.spec.tag, n.id)
	n.handle = nil
	n.state = nodeState_Removed
	return errors.Join(errs...)
}

func describeSpec(s Spec) string {
	s = normalizeSpec(s)
	if s == nil {
		return "<nil>"
	}
	return s.Kind().String() + " <" + s.TypeName() + ">"
}
