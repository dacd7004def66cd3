// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package democomp has a few small components used by the specdom CLI and
// its example documents.
package democomp

import (
	"log"
	"strconv"

	"github.com/wavetermdev/specdom/pkg/vdom"
)

type counter struct{}

func (c *counter) InitialState() map[string]any {
	return map[string]any{"count": 0}
}

func (c *counter) Render(inst *vdom.Instance) vdom.Spec {
	count := inst.GetInt("count")
	return vdom.E("button",
		vdom.P("class", "counter"),
		vdom.P("onclick", func() error {
			return inst.SetState(map[string]any{"count": count + 1})
		}),
		vdom.P("text", strconv.Itoa(count)),
	)
}

// Counter renders a button showing how many times it was clicked.
var Counter = vdom.DefineComponent("Counter", func() vdom.Component { return &counter{} })

type toggle struct{}

func (t *toggle) InitialState() map[string]any {
	return map[string]any{"on": true}
}

func (t *toggle) Render(inst *vdom.Instance) vdom.Spec {
	if !inst.GetBool("on") {
		return nil
	}
	return vdom.E("div",
		vdom.P("class", "toggle"),
		vdom.P("onclick", func() error {
			return inst.SetState(map[string]any{"on": false})
		}),
		inst.ChildSpecs(),
	)
}

func (t *toggle) ShouldUpdate(inst *vdom.Instance, nextProps map[string]any) bool {
	// a hidden toggle ignores parent updates
	return inst.GetBool("on")
}

// Toggle shows its children until clicked, then renders nothing.
var Toggle = vdom.DefineComponent("Toggle", func() vdom.Component { return &toggle{} })

type GreetingProps struct {
	Name     string `json:"name"`
	Greeting string `json:"greeting,omitempty"`
	Excited  bool   `json:"excited,omitempty"`
}

// Greeting renders "<greeting>, <name>" inside a <p>.
var Greeting = vdom.DefineFunc("Greeting", func(inst *vdom.Instance) vdom.Spec {
	var props GreetingProps
	if err := vdom.DecodeProps(inst, &props); err != nil {
		log.Printf("[specdom] greeting: %v\n", err)
	}
	if props.Greeting == "" {
		props.Greeting = "Hello"
	}
	text := props.Greeting + ", " + props.Name
	if props.Excited {
		text += "!"
	}
	return vdom.E("p", vdom.P("class", "greeting"), vdom.P("text", text))
})

type panel struct {
	mounted bool
}

func (p *panel) Render(inst *vdom.Instance) vdom.Spec {
	title, _ := inst.Prop("title").(string)
	var header vdom.Spec
	if title != "" {
		header = vdom.E("h2", title)
	}
	return vdom.E("section",
		vdom.P("class", "panel"),
		header,
		inst.ChildSpecs(),
	)
}

func (p *panel) OnMount(inst *vdom.Instance) {
	p.mounted = true
}

func (p *panel) OnWillUnmount(inst *vdom.Instance) {
	p.mounted = false
}

// Panel wraps its children in a <section> with an optional <h2> title.
var Panel = vdom.DefineComponent("Panel", func() vdom.Component { return &panel{} })

func Registry() *vdom.Registry {
	return vdom.MakeRegistry(Counter, Toggle, Greeting, Panel)
}
