// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package vdom

import "github.com/wavetermdev/specdom/pkg/target"

const TextTag = target.TextKind
const TextPropKey = target.TextKey
const ChildrenPropKey = "children"

type SpecKind int

const (
	SpecKind_Element SpecKind = iota + 1
	SpecKind_Component
)

func (k SpecKind) String() string {
	switch k {
	case SpecKind_Element:
		return "element"
	case SpecKind_Component:
		return "component"
	}
	return "invalid"
}

const (
	nodeState_Unmounted = iota
	nodeState_Mounted
	nodeState_Removed
)

func nodeStateStr(state int) string {
	switch state {
	case nodeState_Unmounted:
		return "unmounted"
	case nodeState_Mounted:
		return "mounted"
	case nodeState_Removed:
		return "removed"
	}
	return "invalid"
}
