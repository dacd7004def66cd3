// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package vdom

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/wavetermdev/specdom/pkg/target"
)

// ComponentNode owns one component Instance and the single node built from
// its last render (if any). It contributes no target handle of its own.
type ComponentNode struct {
	id       string
	mp       *mountPoint
	spec     *ComponentSpec
	inst     *Instance
	listener *stateListener
	inner    Spec
	child    Node
	state    int
	owned    bool

	rendering  bool
	stateDirty bool // SetState was called while rendering
}

var _ Node = (*ComponentNode)(nil)

func makeComponentNode(spec *ComponentSpec, mp *mountPoint) *ComponentNode {
	return &ComponentNode{
		id:   uuid.New().String(),
		mp:   mp,
		spec: spec,
	}
}

func (n *ComponentNode) Id() string {
	return n.id
}

func (n *ComponentNode) Spec() Spec {
	return n.spec
}

func (n *ComponentNode) Instance() *Instance {
	return n.inst
}

// Child is the node built from the last render, nil if it rendered nothing.
func (n *ComponentNode) Child() Node {
	return n.child
}

func (n *ComponentNode) InnerSpec() Spec {
	return n.inner
}

func (n *ComponentNode) IsMounted() bool {
	return n.state == nodeState_Mounted
}

func (n *ComponentNode) FirstHandle() target.Handle {
	if n.child == nil {
		return nil
	}
	return n.child.FirstHandle()
}

func (n *ComponentNode) getMountPoint() *mountPoint {
	return n.mp
}

func (n *ComponentNode) setOwned() {
	n.owned = true
}

func (n *ComponentNode) name() string {
	return n.spec.ctype.Name
}

func (n *ComponentNode) Mount() error {
	if n.owned {
		return ownedErr(n, "mount")
	}
	return n.mp.engine.runPass("mount "+n.name(), func() error {
		return n.mount(n.mp.insert)
	})
}

func (n *ComponentNode) Update(next Spec) error {
	if n.owned {
		return ownedErr(n, "update")
	}
	return n.mp.engine.runPass("update "+n.name(), func() error {
		return n.update(next)
	})
}

func (n *ComponentNode) Remove() error {
	if n.owned {
		return ownedErr(n, "remove")
	}
	return n.mp.engine.runPass("remove "+n.name(), func() error {
		return n.remove(true)
	})
}

func (n *ComponentNode) newInstance() (rtn *Instance, rtnErr error) {
	defer func() {
		if perr := panicToError(ErrCode_RenderPanic, "constructor "+n.name(), recover()); perr != nil {
			rtn, rtnErr = nil, perr
		}
	}()
	return makeInstance(n.spec.ctype, n.spec.componentProps(), n.mp.engine.opts.SkipEqualStateNotify), nil
}

func (n *ComponentNode) render() (rtn Spec, rtnErr error) {
	n.rendering = true
	defer func() {
		n.rendering = false
		if perr := panicToError(ErrCode_RenderPanic, "render "+n.name(), recover()); perr != nil {
			rtn, rtnErr = nil, perr
		}
	}()
	return normalizeSpec(n.inst.Comp.Render(n.inst)), nil
}

// renderSettled renders once more when the render itself called SetState,
// so the result reflects the merged state. A SetState from that second
// render is merged without another render.
func (n *ComponentNode) renderSettled() (Spec, error) {
	n.stateDirty = false
	inner, err := n.render()
	if err != nil || !n.stateDirty {
		return inner, err
	}
	n.mp.engine.logf("rerender %s %s (state set during render)", n.name(), n.id)
	n.stateDirty = false
	inner, err = n.render()
	n.stateDirty = false
	return inner, err
}

func (n *ComponentNode) shouldUpdate(nextProps map[string]any) (rtn bool, rtnErr error) {
	checker, ok := n.inst.Comp.(UpdateChecker)
	if !ok {
		return true, nil
	}
	defer func() {
		if perr := panicToError(ErrCode_RenderPanic, "shouldupdate "+n.name(), recover()); perr != nil {
			rtn, rtnErr = false, perr
		}
	}()
	return checker.ShouldUpdate(n.inst, nextProps), nil
}

func (n *ComponentNode) mount(place placeFn) error {
	if n.state != nodeState_Unmounted {
		return Errorf(ErrCode_InvariantViolation, "component %s (%s) mounted twice (state %s)", n.name(), n.id, nodeStateStr(n.state))
	}
	inst, err := n.newInstance()
	if err != nil {
		return err
	}
	n.inst = inst
	n.listener = &stateListener{id: n.id, notify: n.stateChanged}
	if err := inst.addListener(n.listener); err != nil {
		return err
	}
	n.mp.engine.logf("mount %s %s", n.name(), n.id)
	inner, err := n.renderSettled()
	if err != nil {
		return err
	}
	if inner != nil {
		child, err := createOwnedNode(inner, n.mp)
		if err != nil {
			return err
		}
		if err := child.mount(place); err != nil {
			return err
		}
		n.child = child
	}
	n.inner = inner
	n.state = nodeState_Mounted
	if mounter, ok := inst.Comp.(Mounter); ok {
		n.mp.engine.afterPass(func() {
			if n.state != nodeState_Mounted {
				return
			}
			runHook("onmount "+n.name(), func() { mounter.OnMount(inst) })
		})
	}
	return nil
}

// stateChanged is the instance listener: a SetState re-renders this
// component without consulting ShouldUpdate. A SetState from inside Render
// is picked up by renderSettled instead of a nested pass.
func (n *ComponentNode) stateChanged() error {
	if n.rendering {
		n.stateDirty = true
		return nil
	}
	if n.state != nodeState_Mounted {
		return nil
	}
	return n.mp.engine.runPass("setstate "+n.name(), func() error {
		if n.state != nodeState_Mounted {
			return nil
		}
		inner, err := n.renderSettled()
		if err != nil {
			return err
		}
		return n.applyInner(inner)
	})
}

func (n *ComponentNode) update(next Spec) error {
	if n.state != nodeState_Mounted {
		return Errorf(ErrCode_NotMounted, "update of component %s (%s) in state %s", n.name(), n.id, nodeStateStr(n.state))
	}
	nextSpec, ok := normalizeSpec(next).(*ComponentSpec)
	if !ok || nextSpec.ctype != n.spec.ctype {
		return Errorf(ErrCode_ReplaceRequired, "component %s cannot become %s", n.name(), describeSpec(next))
	}
	n.spec = nextSpec
	nextProps := nextSpec.componentProps()
	doUpdate, err := n.shouldUpdate(nextProps)
	if err != nil {
		return err
	}
	if !doUpdate {
		return nil
	}
	n.inst.setProps(nextProps)
	inner, err := n.renderSettled()
	if err != nil {
		return err
	}
	return n.applyInner(inner)
}

// applyInner reconciles a fresh render result against the current child.
// Swapping an element for a component (or the reverse) is not allowed.
func (n *ComponentNode) applyInner(next Spec) error {
	next = normalizeSpec(next)
	switch {
	case n.child == nil && next == nil:
		// still nothing
	case next == nil:
		if err := n.child.remove(true); err != nil {
			return err
		}
		n.child = nil
	case n.child == nil:
		child, err := createOwnedNode(next, n.mp)
		if err != nil {
			return err
		}
		if err := child.mount(n.mp.insert); err != nil {
			return err
		}
		n.child = child
	case SameType(n.child.Spec(), next):
		if err := n.child.update(next); err != nil {
			return err
		}
	case sameKind(n.child.Spec(), next):
		if err := replaceNode(n.child, next, func(newNode Node) { n.child = newNode }); err != nil {
			return err
		}
	default:
		return Errorf(ErrCode_IllegalInnerTypeChange, "component %s (%s) rendered %s after %s", n.name(), n.id, describeSpec(next), describeSpec(n.child.Spec()))
	}
	n.inner = next
	return nil
}

// remove runs OnWillUnmount before anything below it is torn down. A
// panicking hook is logged and teardown continues.
func (n *ComponentNode) remove(detach bool) error {
	if n.state != nodeState_Mounted {
		return Errorf(ErrCode_NotMounted, "remove of component %s (%s) in state %s", n.name(), n.id, nodeStateStr(n.state))
	}
	if unmounter, ok := n.inst.Comp.(Unmounter); ok {
		runHook("onwillunmount "+n.name(), func() { unmounter.OnWillUnmount(n.inst) })
	}
	var errs []error
	if err := n.inst.removeListener(n.listener); err != nil {
		errs = append(errs, err)
	}
	if n.child != nil {
		if err := n.child.remove(detach); err != nil {
			errs = append(errs, fmt.Errorf("removing child of %s: %w", n.name(), err))
		}
	}
	n.mp.engine.logf("unmount %s %s", n.name(), n.id)
	n.child = nil
	n.listener = nil
	n.state = nodeState_Removed
	return errors.Join(errs...)
}
