// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package vdom

import (
	"maps"
	"reflect"

	"github.com/google/uuid"
)

// Component is a user-defined stateful render unit. Render is called with
// the instance holding the current props and state; returning nil renders
// nothing.
type Component interface {
	Render(inst *Instance) Spec
}

// optional component capabilities

type StateIniter interface {
	InitialState() map[string]any
}

// UpdateChecker gates parent-driven updates. It is not consulted when the
// component re-renders because of its own SetState.
type UpdateChecker interface {
	ShouldUpdate(inst *Instance, nextProps map[string]any) bool
}

type Mounter interface {
	OnMount(inst *Instance)
}

type Unmounter interface {
	OnWillUnmount(inst *Instance)
}

// ComponentType identifies a kind of component. Specs compare component
// types by pointer, so a type must be defined once (usually as a package var).
type ComponentType struct {
	Name string
	New  func() Component
}

func DefineComponent(name string, newFn func() Component) *ComponentType {
	if name == "" {
		panic("vdom: DefineComponent requires a name")
	}
	if newFn == nil {
		panic("vdom: DefineComponent requires a constructor")
	}
	return &ComponentType{Name: name, New: newFn}
}

// FuncComponent adapts a plain render function.
type FuncComponent func(inst *Instance) Spec

func (f FuncComponent) Render(inst *Instance) Spec {
	return f(inst)
}

func DefineFunc(name string, renderFn func(inst *Instance) Spec) *ComponentType {
	if renderFn == nil {
		panic("vdom: DefineFunc requires a render function")
	}
	return DefineComponent(name, func() Component { return FuncComponent(renderFn) })
}

type stateListener struct {
	id     string
	notify func() error
}

// Instance is the bookkeeping the owning ComponentNode keeps for a component:
// props (replaced wholesale on parent updates), state (merge-updated) and the
// single change listener.
type Instance struct {
	Id    string
	Type  *ComponentType
	Comp  Component
	props map[string]any
	state map[string]any

	listener       *stateListener
	skipEqualState bool
}

func makeInstance(ctype *ComponentType, props map[string]any, skipEqualState bool) *Instance {
	inst := &Instance{
		Id:             uuid.New().String(),
		Type:           ctype,
		Comp:           ctype.New(),
		props:          props,
		state:          make(map[string]any),
		skipEqualState: skipEqualState,
	}
	if initer, ok := inst.Comp.(StateIniter); ok {
		for k, v := range initer.InitialState() {
			inst.state[k] = v
		}
	}
	return inst
}

func (inst *Instance) Props() map[string]any {
	return maps.Clone(inst.props)
}

func (inst *Instance) Prop(key string) any {
	return inst.props[key]
}

// ChildSpecs returns the specs passed as children by the parent.
func (inst *Instance) ChildSpecs() []Spec {
	children, _ := inst.props[ChildrenPropKey].([]Spec)
	return children
}

func (inst *Instance) State() map[string]any {
	return maps.Clone(inst.state)
}

func (inst *Instance) Get(key string) any {
	return inst.state[key]
}

func (inst *Instance) GetInt(key string) int {
	v, _ := inst.state[key].(int)
	return v
}

func (inst *Instance) GetString(key string) string {
	v, _ := inst.state[key].(string)
	return v
}

func (inst *Instance) GetBool(key string) bool {
	v, _ := inst.state[key].(bool)
	return v
}

func (inst *Instance) setProps(props map[string]any) {
	inst.props = props
}

// SetState shallow-merges partial into the state and synchronously notifies
// the listener, which re-renders the component. The error of that
// re-render is returned. Merging an empty map still notifies unless the
// engine runs with SkipEqualStateNotify.
func (inst *Instance) SetState(partial map[string]any) error {
	var prev map[string]any
	if inst.skipEqualState {
		prev = maps.Clone(inst.state)
	}
	for k, v := range partial {
		inst.state[k] = v
	}
	if inst.skipEqualState && shallowEqual(prev, inst.state) {
		return nil
	}
	if inst.listener == nil {
		return nil
	}
	return inst.listener.notify()
}

func (inst *Instance) addListener(l *stateListener) error {
	if inst.listener != nil {
		return Errorf(ErrCode_InvariantViolation, "component %s (%s) already has a listener (%s)", inst.Type.Name, inst.Id, inst.listener.id)
	}
	inst.listener = l
	return nil
}

func (inst *Instance) removeListener(l *stateListener) error {
	if l == nil || inst.listener != l {
		return Errorf(ErrCode_InvariantViolation, "component %s (%s): removing a listener that was never registered", inst.Type.Name, inst.Id)
	}
	inst.listener = nil
	return nil
}

func (inst *Instance) hasListener() bool {
	return inst.listener != nil
}

func valEqual(a any, b any) (rtn bool) {
	// structs with interface fields can still panic on ==
	defer func() {
		if recover() != nil {
			rtn = false
		}
	}()
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}

// shallowEqual compares keys and top level values; uncomparable values
// (maps, slices, funcs) are never equal
func shallowEqual(m1 map[string]any, m2 map[string]any) bool {
	if len(m1) != len(m2) {
		return false
	}
	for k, v1 := range m1 {
		v2, ok := m2[k]
		if !ok || !valEqual(v1, v2) {
			return false
		}
	}
	return true
}
