// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package vdom

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry maps component names to types for the markup and document
// loaders. Names are matched case-insensitively since markup tokenizers
// lowercase tag names.
type Registry struct {
	lock  *sync.Mutex
	types map[string]*ComponentType
}

func MakeRegistry(ctypes ...*ComponentType) *Registry {
	reg := &Registry{
		lock:  &sync.Mutex{},
		types: make(map[string]*ComponentType),
	}
	for _, ctype := range ctypes {
		if err := reg.Register(ctype); err != nil {
			panic(err)
		}
	}
	return reg
}

func regKey(name string) string {
	return strings.ToLower(name)
}

func (r *Registry) Register(ctype *ComponentType) error {
	if ctype == nil || ctype.Name == "" || ctype.New == nil {
		return fmt.Errorf("cannot register an incomplete component type")
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	key := regKey(ctype.Name)
	if existing, ok := r.types[key]; ok && existing != ctype {
		return fmt.Errorf("component %q is already registered", ctype.Name)
	}
	r.types[key] = ctype
	return nil
}

func (r *Registry) Lookup(name string) *ComponentType {
	if r == nil {
		return nil
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.types[regKey(name)]
}

func (r *Registry) Names() []string {
	r.lock.Lock()
	defer r.lock.Unlock()
	var names []string
	for _, ctype := range r.types {
		names = append(names, ctype.Name)
	}
	sort.Strings(names)
	return names
}
