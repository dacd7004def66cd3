// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package specdoc reads Spec trees and replay scripts from YAML or JSON
// documents.
package specdoc

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/invopop/jsonschema"
	"github.com/wavetermdev/specdom/pkg/vdom"
	"gopkg.in/yaml.v3"
)

// Doc is the document form of a Spec. A doc with only Text is a text node;
// a Tag naming a registered component becomes a ComponentSpec.
type Doc struct {
	Tag      string         `json:"tag,omitempty" yaml:"tag,omitempty" jsonschema:"description=element tag or registered component name"`
	Text     string         `json:"text,omitempty" yaml:"text,omitempty"`
	Props    map[string]any `json:"props,omitempty" yaml:"props,omitempty"`
	Children []*Doc         `json:"children,omitempty" yaml:"children,omitempty"`
}

type Dispatch struct {
	Kind  string `json:"kind" yaml:"kind" jsonschema:"required"`
	Index int    `json:"index,omitempty" yaml:"index,omitempty"`
	Event string `json:"event" yaml:"event" jsonschema:"required"`
	Data  any    `json:"data,omitempty" yaml:"data,omitempty"`
}

// Frame is one step of a replay: either a new root spec or an event sent to
// the index-th target node of the given kind.
type Frame struct {
	Spec     *Doc      `json:"spec,omitempty" yaml:"spec,omitempty"`
	Dispatch *Dispatch `json:"dispatch,omitempty" yaml:"dispatch,omitempty"`
}

func (f *Frame) validate() error {
	if (f.Spec == nil) == (f.Dispatch == nil) {
		return errors.New("frame must have exactly one of spec or dispatch")
	}
	if f.Dispatch != nil && (f.Dispatch.Kind == "" || f.Dispatch.Event == "") {
		return errors.New("dispatch requires kind and event")
	}
	return nil
}

func (d *Doc) ToSpec(reg *vdom.Registry) (vdom.Spec, error) {
	if d == nil {
		return nil, nil
	}
	if d.Tag == "" {
		if len(d.Props) > 0 || len(d.Children) > 0 {
			return nil, errors.New("doc without a tag can only hold text")
		}
		return vdom.Text(d.Text), nil
	}
	var children []vdom.Spec
	for idx, child := range d.Children {
		childSpec, err := child.ToSpec(reg)
		if err != nil {
			return nil, fmt.Errorf("%s child %d: %w", d.Tag, idx, err)
		}
		children = append(children, childSpec)
	}
	props := d.Props
	if d.Text != "" {
		props = make(map[string]any, len(d.Props)+1)
		for k, v := range d.Props {
			props[k] = v
		}
		props[vdom.TextPropKey] = d.Text
	}
	if ctype := reg.Lookup(d.Tag); ctype != nil {
		return vdom.NewComponentSpec(ctype, props, children), nil
	}
	return vdom.NewElementSpec(d.Tag, props, children), nil
}

// ParseDoc parses a single YAML (or JSON) document.
func ParseDoc(data []byte) (*Doc, error) {
	var doc Doc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing spec document: %w", err)
	}
	return &doc, nil
}

func ParseSpec(data []byte, reg *vdom.Registry) (vdom.Spec, error) {
	doc, err := ParseDoc(data)
	if err != nil {
		return nil, err
	}
	return doc.ToSpec(reg)
}

// LoadFrames reads a multi-document YAML stream, one Frame per document.
func LoadFrames(r io.Reader) ([]*Frame, error) {
	decoder := yaml.NewDecoder(r)
	var frames []*Frame
	for {
		var frame Frame
		err := decoder.Decode(&frame)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", len(frames), err)
		}
		if err := frame.validate(); err != nil {
			return nil, fmt.Errorf("frame %d: %w", len(frames), err)
		}
		frames = append(frames, &frame)
	}
	return frames, nil
}

func LoadFramesBytes(data []byte) ([]*Frame, error) {
	return LoadFrames(bytes.NewReader(data))
}

func DocSchema() *jsonschema.Schema {
	return jsonschema.Reflect(&Doc{})
}

func FrameSchema() *jsonschema.Schema {
	return jsonschema.Reflect(&Frame{})
}
