// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package vdom

import (
	"log"

	"github.com/emirpasic/gods/queues/linkedlistqueue"
	"github.com/outrigdev/goid"
	"github.com/wavetermdev/specdom/pkg/target"
)

// Scheduler runs deferred work (OnMount hooks). When it is not set the
// engine runs the work itself at the end of the outermost pass.
type Scheduler func(task func())

type EngineOpts struct {
	Registry             *Registry
	Scheduler            Scheduler
	SkipEqualStateNotify bool // SetState that changes nothing does not re-render
	LogOps               bool
	AllowAnyGoroutine    bool
}

// Engine ties a node tree to a target adapter. It is single-threaded: every
// pass must run on the goroutine that ran the first one, unless
// AllowAnyGoroutine is set (callers then serialize access themselves).
type Engine struct {
	adapter   target.Adapter
	opts      EngineOpts
	registry  *Registry
	ownerGoId uint64
	passDepth int
	afterQ    *linkedlistqueue.Queue
	flushing  bool
}

func MakeEngine(adapter target.Adapter, opts *EngineOpts) *Engine {
	if adapter == nil {
		panic("vdom: MakeEngine requires a target adapter")
	}
	e := &Engine{
		adapter: adapter,
		afterQ:  linkedlistqueue.New(),
	}
	if opts != nil {
		e.opts = *opts
	}
	e.registry = e.opts.Registry
	if e.registry == nil {
		e.registry = MakeRegistry()
	}
	return e
}

func (e *Engine) Adapter() target.Adapter {
	return e.adapter
}

func (e *Engine) Registry() *Registry {
	return e.registry
}

func (e *Engine) logf(format string, args ...any) {
	if !e.opts.LogOps {
		return
	}
	log.Printf("[vdom] "+format+"\n", args...)
}

func (e *Engine) checkOwner() error {
	if e.opts.AllowAnyGoroutine {
		return nil
	}
	gid := goid.Get()
	if e.ownerGoId == 0 {
		e.ownerGoId = gid
		return nil
	}
	if gid != e.ownerGoId {
		return Errorf(ErrCode_InvariantViolation, "engine used from goroutine %d, owned by goroutine %d", gid, e.ownerGoId)
	}
	return nil
}

// runPass wraps one synchronous reconciliation. Passes nest (a SetState
// inside an update); deferred work is released when the outermost returns.
func (e *Engine) runPass(name string, fn func() error) error {
	if err := e.checkOwner(); err != nil {
		return err
	}
	e.passDepth++
	e.logf("pass %s (depth %d)", name, e.passDepth)
	err := func() error {
		defer func() { e.passDepth-- }()
		return fn()
	}()
	if e.passDepth == 0 {
		e.flushAfterPass()
	}
	return err
}

// InPass reports whether a reconciliation pass is running.
func (e *Engine) InPass() bool {
	return e.passDepth > 0
}

func (e *Engine) afterPass(task func()) {
	if e.opts.Scheduler != nil {
		e.opts.Scheduler(task)
		return
	}
	e.afterQ.Enqueue(task)
}

// flushAfterPass runs queued work in FIFO order. Work queued while flushing
// (an OnMount that mounts more components) runs in the same flush.
func (e *Engine) flushAfterPass() {
	if e.flushing {
		return
	}
	e.flushing = true
	defer func() { e.flushing = false }()
	for !e.afterQ.Empty() {
		val, ok := e.afterQ.Dequeue()
		if !ok {
			break
		}
		if task, ok := val.(func()); ok {
			task()
		}
	}
}

// CreateNode builds (but does not mount) a node that will attach to parent.
func (e *Engine) CreateNode(spec Spec, parent target.Handle) (Node, error) {
	return createNode(spec, &mountPoint{engine: e, parent: parent})
}

// RootHandle owns the node mounted at a target root.
type RootHandle struct {
	engine *Engine
	target target.Handle
	node   Node
}

func (e *Engine) MountRoot(spec Spec, rootTarget target.Handle) (*RootHandle, error) {
	if rootTarget == nil {
		return nil, Errorf(ErrCode_InvariantViolation, "MountRoot requires a root target handle")
	}
	root := &RootHandle{engine: e, target: rootTarget}
	err := e.runPass("mountroot", func() error {
		node, err := createOwnedNode(spec, &mountPoint{engine: e, parent: rootTarget})
		if err != nil {
			return err
		}
		if err := node.mount(node.getMountPoint().insert); err != nil {
			return err
		}
		root.node = node
		return nil
	})
	if err != nil {
		return nil, err
	}
	return root, nil
}

func (r *RootHandle) Node() Node {
	return r.node
}

func (r *RootHandle) Target() target.Handle {
	return r.target
}

// Update reconciles next onto the mounted tree. The root's type is fixed at
// mount time; a different type is an error and the tree is left as is.
func (r *RootHandle) Update(next Spec) error {
	if r.node == nil {
		return Errorf(ErrCode_NotMounted, "root is not mounted")
	}
	next = normalizeSpec(next)
	if !SameType(r.node.Spec(), next) {
		return Errorf(ErrCode_RootTypeMismatch, "root is %s, cannot update to %s", describeSpec(r.node.Spec()), describeSpec(next))
	}
	return r.engine.runPass("updateroot", func() error {
		return r.node.update(next)
	})
}

func (r *RootHandle) Unmount() error {
	if r.node == nil {
		return Errorf(ErrCode_NotMounted, "root is not mounted")
	}
	node := r.node
	r.node = nil
	return r.engine.runPass("unmountroot", func() error {
		return node.remove(true)
	})
}
