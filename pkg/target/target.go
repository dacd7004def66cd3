// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package target defines the capability the reconciler uses to mutate a
// rendering surface. Concrete surfaces (a DOM bridge, a terminal, the
// in-memory tree in memtarget) implement Adapter.
package target

import (
	"fmt"
	"strings"
)

// TextKind is the node kind used for raw text nodes.
const TextKind = "#text"

// TextKey is the reserved property that sets the raw text of a node.
const TextKey = "text"

const EventKeyPrefix = "on"

// Handle is an opaque reference to a live node on the target surface.
type Handle any

// Adapter is the set of mutations the reconciler performs on a surface.
type Adapter interface {
	CreateNode(kind string) (Handle, error)
	SetProperty(h Handle, key string, val any) error
	RemoveProperty(h Handle, key string) error
	AppendChild(parent Handle, child Handle) error
	ReplaceChild(parent Handle, oldChild Handle, newChild Handle) error
	RemoveChild(parent Handle, child Handle) error
}

// Inserter is implemented by adapters that can place a child before an
// existing sibling. Without it new children are always appended.
type Inserter interface {
	InsertBefore(parent Handle, child Handle, ref Handle) error
}

// Identified handles expose a stable id (used for traces and logging).
type Identified interface {
	HandleId() string
}

// IsEventKey reports whether a property key names an event listener ("onclick", "onClick").
func IsEventKey(key string) bool {
	return len(key) > len(EventKeyPrefix) && strings.HasPrefix(key, EventKeyPrefix)
}

// EventName converts an event property key to its event type ("onClick" => "click").
func EventName(key string) string {
	if !IsEventKey(key) {
		return ""
	}
	return strings.ToLower(key[len(EventKeyPrefix):])
}

func HandleId(h Handle) string {
	if h == nil {
		return "<nil>"
	}
	if ident, ok := h.(Identified); ok {
		return ident.HandleId()
	}
	return fmt.Sprintf("%p", h)
}
