// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package specdoc

import (
	"fmt"

	"github.com/wavetermdev/specdom/pkg/target/memtarget"
	"github.com/wavetermdev/specdom/pkg/target/optrace"
	"github.com/wavetermdev/specdom/pkg/vdom"
)

// FrameResult is the state of the in-memory surface after one frame.
type FrameResult struct {
	Index int          `json:"index" msgpack:"index"`
	HTML  string       `json:"html" msgpack:"html"`
	Ops   []optrace.Op `json:"ops,omitempty" msgpack:"ops,omitempty"`
}

// Player applies frames to an engine rendering into a memtarget.
type Player struct {
	Target   *memtarget.Target
	RootNode *memtarget.MemNode
	Recorder *optrace.Recorder
	Engine   *vdom.Engine
	registry *vdom.Registry
	root     *vdom.RootHandle
	frameNum int
}

func MakePlayer(opts *vdom.EngineOpts) *Player {
	mem := memtarget.MakeTarget()
	adapter, rec := optrace.Wrap(mem)
	if opts != nil {
		rec.LogOps = opts.LogOps
	}
	engine := vdom.MakeEngine(adapter, opts)
	return &Player{
		Target:   mem,
		RootNode: mem.MakeRoot(),
		Recorder: rec,
		Engine:   engine,
		registry: engine.Registry(),
	}
}

// Render mounts spec, or updates the mounted root with it. A spec whose
// root type differs from the mounted one unmounts the tree and mounts spec
// from scratch.
func (p *Player) Render(spec vdom.Spec) error {
	if p.root != nil {
		err := p.root.Update(spec)
		if !vdom.IsCode(err, vdom.ErrCode_RootTypeMismatch) {
			return err
		}
		root := p.root
		p.root = nil
		if err := root.Unmount(); err != nil {
			return fmt.Errorf("unmounting root for remount: %w", err)
		}
	}
	root, err := p.Engine.MountRoot(spec, p.RootNode)
	if err != nil {
		return err
	}
	p.root = root
	return nil
}

func (p *Player) dispatch(d *Dispatch) error {
	nodes := memtarget.Find(p.RootNode, d.Kind)
	if d.Index < 0 || d.Index >= len(nodes) {
		return fmt.Errorf("dispatch %s: no %s node at index %d (found %d)", d.Event, d.Kind, d.Index, len(nodes))
	}
	return p.Target.Dispatch(nodes[d.Index], d.Event, d.Data)
}

func (p *Player) Apply(frame *Frame) (*FrameResult, error) {
	if err := frame.validate(); err != nil {
		return nil, err
	}
	p.Recorder.Reset()
	if frame.Spec != nil {
		spec, err := frame.Spec.ToSpec(p.registry)
		if err != nil {
			return nil, err
		}
		if err := p.Render(spec); err != nil {
			return nil, err
		}
	} else if err := p.dispatch(frame.Dispatch); err != nil {
		return nil, err
	}
	rtn := &FrameResult{
		Index: p.frameNum,
		HTML:  p.HTML(),
		Ops:   p.Recorder.Reset(),
	}
	p.frameNum++
	return rtn, nil
}

// Play applies frames in order and stops at the first failure.
func (p *Player) Play(frames []*Frame) ([]*FrameResult, error) {
	var results []*FrameResult
	for idx, frame := range frames {
		result, err := p.Apply(frame)
		if err != nil {
			return results, fmt.Errorf("frame %d: %w", idx, err)
		}
		results = append(results, result)
	}
	return results, nil
}

func (p *Player) HTML() string {
	return memtarget.HTML(p.RootNode)
}

func (p *Player) Close() error {
	if p.root == nil {
		return nil
	}
	root := p.root
	p.root = nil
	return root.Unmount()
}
