// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package vdom

import (
	"fmt"
	"sort"

	"github.com/mitchellh/mapstructure"
	"github.com/wavetermdev/specdom/pkg/target"
)

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func setProps(adapter target.Adapter, h target.Handle, props map[string]any) error {
	for _, key := range sortedKeys(props) {
		if err := adapter.SetProperty(h, key, props[key]); err != nil {
			return targetErr("setprop "+key, err)
		}
	}
	return nil
}

// diffProps removes keys that are gone, then sets keys that are new or
// changed. Values that cannot be compared (funcs, maps, slices) are always
// set again.
func diffProps(adapter target.Adapter, h target.Handle, oldProps map[string]any, newProps map[string]any) error {
	for _, key := range sortedKeys(oldProps) {
		if _, ok := newProps[key]; ok {
			continue
		}
		if err := adapter.RemoveProperty(h, key); err != nil {
			return targetErr("removeprop "+key, err)
		}
	}
	for _, key := range sortedKeys(newProps) {
		newVal := newProps[key]
		if oldVal, had := oldProps[key]; had && valEqual(oldVal, newVal) {
			continue
		}
		if err := adapter.SetProperty(h, key, newVal); err != nil {
			return targetErr("setprop "+key, err)
		}
	}
	return nil
}

// decodeMap uses json tags so the same structs serve prop decoding and the
// document formats
func decodeMap(input map[string]any, result any) error {
	config := &mapstructure.DecoderConfig{
		Metadata:         nil,
		Result:           result,
		TagName:          "json",
		WeaklyTypedInput: true,
	}
	decoder, err := mapstructure.NewDecoder(config)
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}

// DecodeProps decodes the instance props into a struct (json tags).
// The "children" key is skipped.
func DecodeProps(inst *Instance, result any) error {
	props := make(map[string]any, len(inst.props))
	for k, v := range inst.props {
		if k == ChildrenPropKey {
			continue
		}
		props[k] = v
	}
	if err := decodeMap(props, result); err != nil {
		return fmt.Errorf("decoding props for %s: %w", inst.Type.Name, err)
	}
	return nil
}

func DecodeState(inst *Instance, result any) error {
	if err := decodeMap(inst.state, result); err != nil {
		return fmt.Errorf("decoding state for %s: %w", inst.Type.Name, err)
	}
	return nil
}
