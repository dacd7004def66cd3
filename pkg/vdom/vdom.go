// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package vdom

import (
	"fmt"
	"maps"
	"reflect"
	"strconv"
	"strings"
)

// Spec is an immutable description of what should exist. It is a closed
// union: *ElementSpec and *ComponentSpec are the only implementations.
type Spec interface {
	Kind() SpecKind
	TypeName() string
	Props() map[string]any
	Children() []Spec
	isSpec()
}

type ElementSpec struct {
	tag      string
	props    map[string]any
	children []Spec
}

type ComponentSpec struct {
	ctype    *ComponentType
	props    map[string]any
	children []Spec
}

var _ Spec = (*ElementSpec)(nil)
var _ Spec = (*ComponentSpec)(nil)

func copyProps(props map[string]any) map[string]any {
	if len(props) == 0 {
		return nil
	}
	return maps.Clone(props)
}

func copyChildren(children []Spec) []Spec {
	var rtn []Spec
	for _, child := range children {
		child = normalizeSpec(child)
		if child == nil {
			continue
		}
		rtn = append(rtn, child)
	}
	return rtn
}

// NewElementSpec panics on an empty tag.
func NewElementSpec(tag string, props map[string]any, children []Spec) *ElementSpec {
	if tag == "" {
		panic("vdom: ElementSpec requires a non-empty tag")
	}
	return &ElementSpec{tag: tag, props: copyProps(props), children: copyChildren(children)}
}

// NewComponentSpec panics on a nil or incomplete component type.
func NewComponentSpec(ctype *ComponentType, props map[string]any, children []Spec) *ComponentSpec {
	if ctype == nil || ctype.New == nil {
		panic("vdom: ComponentSpec requires a component type (see DefineComponent)")
	}
	return &ComponentSpec{ctype: ctype, props: copyProps(props), children: copyChildren(children)}
}

func (s *ElementSpec) isSpec() {}

func (s *ElementSpec) Kind() SpecKind {
	return SpecKind_Element
}

func (s *ElementSpec) Tag() string {
	return s.tag
}

func (s *ElementSpec) TypeName() string {
	return s.tag
}

func (s *ElementSpec) Props() map[string]any {
	return maps.Clone(s.props)
}

func (s *ElementSpec) Prop(key string) any {
	return s.props[key]
}

func (s *ElementSpec) Children() []Spec {
	return append([]Spec(nil), s.children...)
}

func (s *ElementSpec) String() string {
	return specString(s)
}

func (s *ComponentSpec) isSpec() {}

func (s *ComponentSpec) Kind() SpecKind {
	return SpecKind_Component
}

func (s *ComponentSpec) Type() *ComponentType {
	return s.ctype
}

func (s *ComponentSpec) TypeName() string {
	return s.ctype.Name
}

func (s *ComponentSpec) Props() map[string]any {
	return maps.Clone(s.props)
}

func (s *ComponentSpec) Prop(key string) any {
	return s.props[key]
}

func (s *ComponentSpec) Children() []Spec {
	return append([]Spec(nil), s.children...)
}

func (s *ComponentSpec) String() string {
	return specString(s)
}

// componentProps is what the instance sees: the spec props plus "children"
func (s *ComponentSpec) componentProps() map[string]any {
	props := make(map[string]any, len(s.props)+1)
	for k, v := range s.props {
		props[k] = v
	}
	props[ChildrenPropKey] = append([]Spec(nil), s.children...)
	return props
}

// normalizeSpec turns typed nil pointers (e.g. a nil *ElementSpec returned as Spec) into a nil interface
func normalizeSpec(s Spec) Spec {
	switch ts := s.(type) {
	case nil:
		return nil
	case *ElementSpec:
		if ts == nil {
			return nil
		}
	case *ComponentSpec:
		if ts == nil {
			return nil
		}
	}
	return s
}

// SameType reports whether b can be reconciled onto a node built from a:
// identical tag for elements, identical *ComponentType for components.
func SameType(a Spec, b Spec) bool {
	a, b = normalizeSpec(a), normalizeSpec(b)
	if a == nil || b == nil {
		return false
	}
	switch ta := a.(type) {
	case *ElementSpec:
		tb, ok := b.(*ElementSpec)
		return ok && ta.tag == tb.tag
	case *ComponentSpec:
		tb, ok := b.(*ComponentSpec)
		return ok && ta.ctype == tb.ctype
	}
	return false
}

func sameKind(a Spec, b Spec) bool {
	return a != nil && b != nil && a.Kind() == b.Kind()
}

func Text(text string) *ElementSpec {
	return &ElementSpec{tag: TextTag, props: map[string]any{TextPropKey: text}}
}

func mergeProps(props *map[string]any, newProps map[string]any) {
	if *props == nil {
		*props = make(map[string]any)
	}
	for k, v := range newProps {
		if v == nil {
			delete(*props, k)
			continue
		}
		(*props)[k] = v
	}
}

// E builds an ElementSpec. Parts can be prop maps (merged in order, a nil
// value deletes a key), Specs, slices of Specs, or plain values which become
// text children.
func E(tag string, parts ...any) *ElementSpec {
	var props map[string]any
	var children []Spec
	for _, part := range parts {
		if p, ok := part.(map[string]any); ok {
			mergeProps(&props, p)
			continue
		}
		children = append(children, partToSpecs(part)...)
	}
	return NewElementSpec(tag, props, children)
}

// C builds a ComponentSpec, parts are handled as in E.
func C(ctype *ComponentType, parts ...any) *ComponentSpec {
	var props map[string]any
	var children []Spec
	for _, part := range parts {
		if p, ok := part.(map[string]any); ok {
			mergeProps(&props, p)
			continue
		}
		children = append(children, partToSpecs(part)...)
	}
	return NewComponentSpec(ctype, props, children)
}

func P(propName string, propVal any) map[string]any {
	return map[string]any{propName: propVal}
}

func numToString(value any) (string, bool) {
	switch v := value.(type) {
	case int:
		return strconv.FormatInt(int64(v), 10), true
	case int8:
		return strconv.FormatInt(int64(v), 10), true
	case int16:
		return strconv.FormatInt(int64(v), 10), true
	case int32:
		return strconv.FormatInt(int64(v), 10), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case uint:
		return strconv.FormatUint(uint64(v), 10), true
	case uint8:
		return strconv.FormatUint(uint64(v), 10), true
	case uint16:
		return strconv.FormatUint(uint64(v), 10), true
	case uint32:
		return strconv.FormatUint(uint64(v), 10), true
	case uint64:
		return strconv.FormatUint(v, 10), true
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	}
	return "", false
}

// partToSpecs: nil, false and unrenderable values produce nothing
func partToSpecs(part any) []Spec {
	if part == nil {
		return nil
	}
	switch p := part.(type) {
	case Spec:
		if s := normalizeSpec(p); s != nil {
			return []Spec{s}
		}
		return nil
	case []Spec:
		return copyChildren(p)
	case []*ElementSpec:
		var rtn []Spec
		for _, s := range p {
			if s != nil {
				rtn = append(rtn, s)
			}
		}
		return rtn
	case string:
		return []Spec{Text(p)}
	case bool:
		return nil
	case fmt.Stringer:
		return []Spec{Text(p.String())}
	}
	if sval, ok := numToString(part); ok {
		return []Spec{Text(sval)}
	}
	partVal := reflect.ValueOf(part)
	if partVal.Kind() == reflect.Slice {
		var rtn []Spec
		for i := 0; i < partVal.Len(); i++ {
			rtn = append(rtn, partToSpecs(partVal.Index(i).Interface())...)
		}
		return rtn
	}
	return nil
}

// ToSpecs converts a value returned from a data binding into child specs.
func ToSpecs(part any) []Spec {
	return partToSpecs(part)
}

func specString(s Spec) string {
	var b strings.Builder
	writeSpec(&b, s)
	return b.String()
}

func writeSpec(b *strings.Builder, s Spec) {
	s = normalizeSpec(s)
	if s == nil {
		b.WriteString("<nil>")
		return
	}
	if es, ok := s.(*ElementSpec); ok && es.tag == TextTag {
		fmt.Fprintf(b, "%q", fmt.Sprint(es.props[TextPropKey]))
		return
	}
	b.WriteString("<" + s.TypeName())
	var children []Spec
	switch ts := s.(type) {
	case *ElementSpec:
		children = ts.children
	case *ComponentSpec:
		children = ts.children
	}
	if len(children) == 0 {
		b.WriteString("/>")
		return
	}
	b.WriteString(">")
	for _, c := range children {
		writeSpec(b, c)
	}
	b.WriteString("</" + s.TypeName() + ">")
}
