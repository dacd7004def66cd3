// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package vdom

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type fakeSpec struct{}

func (fakeSpec) Kind() SpecKind        { return SpecKind(99) }
func (fakeSpec) TypeName() string      { return "fake" }
func (fakeSpec) Props() map[string]any { return nil }
func (fakeSpec) Children() []Spec      { return nil }
func (fakeSpec) isSpec()               {}

func TestBuilders(t *testing.T) {
	var nilElem *ElementSpec
	s := E("ul", nil, false, "a", 3, []string{"x", "y"}, nilElem, P("id", "l"))
	if s.String() != `<ul>"a""3""x""y"</ul>` {
		t.Errorf("unexpected spec: %s", s.String())
	}
	if s.Prop("id") != "l" {
		t.Errorf("id prop = %v", s.Prop("id"))
	}
	s = E("p", P("a", 1), P("a", nil))
	if len(s.Props()) != 0 {
		t.Errorf("nil prop value should delete the key, got %v", s.Props())
	}
	nested := E("div", []Spec{E("b"), nil, Text("t")}, E("i"))
	if nested.String() != `<div><b/>"t"<i/></div>` {
		t.Errorf("unexpected spec: %s", nested.String())
	}
}

func TestSpecImmutable(t *testing.T) {
	props := map[string]any{"a": 1}
	children := []Spec{E("b")}
	s := NewElementSpec("p", props, children)
	props["a"] = 2
	children[0] = E("i")
	if s.Prop("a") != 1 {
		t.Errorf("spec props changed through the input map")
	}
	if s.Children()[0].TypeName() != "b" {
		t.Errorf("spec children changed through the input slice")
	}
	s.Props()["a"] = 3
	if s.Prop("a") != 1 {
		t.Errorf("spec props changed through Props()")
	}
}

func TestSpecConstructorsPanic(t *testing.T) {
	checkPanic := func(name string, fn func()) {
		t.Helper()
		defer func() {
			if recover() == nil {
				t.Errorf("%s: expected panic", name)
			}
		}()
		fn()
	}
	checkPanic("empty tag", func() { NewElementSpec("", nil, nil) })
	checkPanic("nil ctype", func() { NewComponentSpec(nil, nil, nil) })
	checkPanic("empty name", func() { DefineComponent("", func() Component { return nil }) })
}

func TestSameType(t *testing.T) {
	other := DefineFunc("Counter", func(inst *Instance) Spec { return nil })
	tests := []struct {
		name string
		a    Spec
		b    Spec
		want bool
	}{
		{"same tag", E("div"), E("div", "x"), true},
		{"other tag", E("div"), E("span"), false},
		{"same component", C(counterType), C(counterType, P("x", 1)), true},
		{"same name other type", C(counterType), C(other), false},
		{"element vs component", E("Counter"), C(counterType), false},
		{"nil", E("div"), nil, false},
		{"typed nil", E("div"), (*ElementSpec)(nil), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SameType(tt.a, tt.b); got != tt.want {
				t.Errorf("SameType() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestComponentPropsIncludeChildren(t *testing.T) {
	s := C(counterType, P("label", "x"), E("b"))
	props := s.componentProps()
	children, ok := props[ChildrenPropKey].([]Spec)
	if !ok || len(children) != 1 || children[0].TypeName() != "b" {
		t.Fatalf("children prop = %#v", props[ChildrenPropKey])
	}
	if props["label"] != "x" {
		t.Errorf("label prop = %v", props["label"])
	}
	if _, ok := s.Props()[ChildrenPropKey]; ok {
		t.Errorf("spec props should not contain children")
	}
}

func TestSetStateMerge(t *testing.T) {
	inst := makeInstance(counterType, nil, false)
	notified := 0
	if err := inst.addListener(&stateListener{id: "test", notify: func() error { notified++; return nil }}); err != nil {
		t.Fatal(err)
	}
	before := inst.State()
	if err := inst.SetState(map[string]any{}); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(before, inst.State()); diff != "" {
		t.Errorf("empty SetState changed state (-before +after):\n%s", diff)
	}
	if notified != 1 {
		t.Errorf("empty SetState notified %d times, want 1", notified)
	}
	if err := inst.SetState(map[string]any{"label": "x"}); err != nil {
		t.Fatal(err)
	}
	want := map[string]any{"count": 0, "label": "x"}
	if diff := cmp.Diff(want, inst.State()); diff != "" {
		t.Errorf("merged state mismatch (-want +got):\n%s", diff)
	}
}

func TestSetStateSkipEqual(t *testing.T) {
	inst := makeInstance(counterType, nil, true)
	notified := 0
	inst.addListener(&stateListener{id: "test", notify: func() error { notified++; return nil }})
	inst.SetState(map[string]any{})
	inst.SetState(map[string]any{"count": 0})
	if notified != 0 {
		t.Errorf("unchanged state notified %d times", notified)
	}
	inst.SetState(map[string]any{"count": 1})
	if notified != 1 {
		t.Errorf("changed state notified %d times, want 1", notified)
	}
}

func TestListenerInvariants(t *testing.T) {
	inst := makeInstance(counterType, nil, false)
	l1 := &stateListener{id: "l1", notify: func() error { return nil }}
	l2 := &stateListener{id: "l2", notify: func() error { return nil }}
	if err := inst.removeListener(l1); !IsCode(err, ErrCode_InvariantViolation) {
		t.Errorf("removing unregistered listener: err = %v", err)
	}
	if err := inst.addListener(l1); err != nil {
		t.Fatal(err)
	}
	if err := inst.addListener(l2); !IsCode(err, ErrCode_InvariantViolation) {
		t.Errorf("second listener: err = %v", err)
	}
	if err := inst.removeListener(l2); !IsCode(err, ErrCode_InvariantViolation) {
		t.Errorf("removing the wrong listener: err = %v", err)
	}
	if err := inst.removeListener(l1); err != nil {
		t.Errorf("removing the registered listener: %v", err)
	}
	if inst.hasListener() {
		t.Errorf("listener still registered")
	}
}

func TestValEqual(t *testing.T) {
	type box struct{ V any }
	fn := func() {}
	tests := []struct {
		a, b any
		want bool
	}{
		{1, 1, true},
		{"a", "a", true},
		{1, int64(1), false},
		{nil, nil, true},
		{nil, 0, false},
		{map[string]any{}, map[string]any{}, false},
		{fn, fn, false},
		{box{V: 1}, box{V: 1}, true},
		{box{V: []int{1}}, box{V: []int{1}}, false},
	}
	for idx, tt := range tests {
		if got := valEqual(tt.a, tt.b); got != tt.want {
			t.Errorf("case %d: valEqual(%v, %v) = %v, want %v", idx, tt.a, tt.b, got, tt.want)
		}
	}
}

func TestErrorCodes(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", Errorf(ErrCode_NotMounted, "node %s", "x"))
	if GetErrorCode(err) != ErrCode_NotMounted {
		t.Errorf("code = %q", GetErrorCode(err))
	}
	if GetErrorCode(errors.New("plain")) != "" {
		t.Errorf("plain error should have no code")
	}
	joined := errors.Join(errors.New("a"), Errorf(ErrCode_InvariantViolation, "b"))
	if !IsCode(joined, ErrCode_InvariantViolation) {
		t.Errorf("code lost in joined error")
	}
	perr := panicToError(ErrCode_RenderPanic, "test", "boom")
	if !IsCode(perr, ErrCode_RenderPanic) {
		t.Errorf("panicToError code = %q", GetErrorCode(perr))
	}
	if panicToError(ErrCode_RenderPanic, "test", nil) != nil {
		t.Errorf("no panic should give a nil error")
	}
}

func TestRegistry(t *testing.T) {
	reg := MakeRegistry(counterType)
	if reg.Lookup("counter") != counterType || reg.Lookup("COUNTER") != counterType {
		t.Errorf("lookup should be case-insensitive")
	}
	if err := reg.Register(counterType); err != nil {
		t.Errorf("re-registering the same type: %v", err)
	}
	dup := DefineFunc("Counter", func(inst *Instance) Spec { return nil })
	if err := reg.Register(dup); err == nil {
		t.Errorf("expected duplicate name error")
	}
	if diff := cmp.Diff([]string{"Counter"}, reg.Names()); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
	var nilReg *Registry
	if nilReg.Lookup("counter") != nil {
		t.Errorf("nil registry lookup should return nil")
	}
}

func TestDecodeProps(t *testing.T) {
	type greetProps struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	inst := makeInstance(counterType, C(counterType, P("name", "mike"), P("count", "3"), E("b")).componentProps(), false)
	var props greetProps
	if err := DecodeProps(inst, &props); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(greetProps{Name: "mike", Count: 3}, props); diff != "" {
		t.Errorf("decoded props mismatch (-want +got):\n%s", diff)
	}
	var state struct {
		Count int `json:"count"`
	}
	if err := DecodeState(inst, &state); err != nil {
		t.Fatal(err)
	}
	if state.Count != 0 {
		t.Errorf("state count = %d", state.Count)
	}
}

func TestBind(t *testing.T) {
	reg := MakeRegistry(counterType)
	markup := `
	<div class="box">
		<h1>Title</h1>
		<Counter/>
		<bind key="items"/>
	</div>
	`
	spec, err := Bind(markup, map[string]any{"items": []string{"a", "b"}}, reg)
	if err != nil {
		t.Fatalf("bind error: %v", err)
	}
	if got := specString(spec); got != `<div><h1>"Title"</h1><Counter/>"a""b"</div>` {
		t.Errorf("unexpected spec: %s", got)
	}
	div := spec.(*ElementSpec)
	if div.Prop("class") != "box" {
		t.Errorf("class prop = %v", div.Prop("class"))
	}
	if cs, ok := div.Children()[1].(*ComponentSpec); !ok || cs.Type() != counterType {
		t.Errorf("expected Counter component spec, got %v", div.Children()[1])
	}
}

func TestBindAttr(t *testing.T) {
	clicked := false
	spec, err := Bind(`<button onclick="#bind:click" title="#bind:missing">go</button>`, map[string]any{
		"click": func() { clicked = true },
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	btn := spec.(*ElementSpec)
	fn, ok := btn.Prop("onclick").(func())
	if !ok {
		t.Fatalf("onclick prop = %#v", btn.Prop("onclick"))
	}
	fn()
	if !clicked {
		t.Errorf("bound handler not called")
	}
	if _, ok := btn.Props()["title"]; ok {
		t.Errorf("binding a missing key should leave the prop unset")
	}
	if children := btn.Children(); len(children) != 1 || children[0].TypeName() != TextTag {
		t.Errorf("expected a text child")
	}
}

func TestBindErrors(t *testing.T) {
	tests := []struct {
		name   string
		markup string
	}{
		{"mismatched end", `<div></span>`},
		{"extra end", `<div></div></p>`},
		{"multiple roots", `<div></div><p></p>`},
		{"unclosed", `<div><p></p>`},
		{"bind not self closing", `<bind key="x"></bind>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Bind(tt.markup, nil, nil); err == nil {
				t.Errorf("expected error for %q", tt.markup)
			}
		})
	}
	spec, err := Bind("   \n  ", nil, nil)
	if err != nil || spec != nil {
		t.Errorf("blank markup: spec=%v err=%v", spec, err)
	}
}
