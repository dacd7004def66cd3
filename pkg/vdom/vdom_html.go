// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package vdom

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/wavetermdev/htmltoken"
)

// tokenizes markup and binds it into Specs. Tags naming a registered
// component become ComponentSpecs, everything else is an element.
// Attribute values of the form "#bind:key" are replaced with data[key] and
// <bind key="..."/> splices data[key] in as children.

const bindTag = "bind"
const bindPrefix = "#bind:"

type bindFrame struct {
	tag      string
	ctype    *ComponentType
	props    map[string]any
	children []Spec
}

func (f *bindFrame) toSpec() Spec {
	if f.ctype != nil {
		return NewComponentSpec(f.ctype, f.props, f.children)
	}
	return NewElementSpec(f.tag, f.props, f.children)
}

type bindStack []*bindFrame

func (s bindStack) cur() *bindFrame {
	return s[len(s)-1]
}

func (s bindStack) appendChild(child Spec) {
	if child == nil {
		return
	}
	cur := s.cur()
	cur.children = append(cur.children, child)
}

func (s bindStack) pop() bindStack {
	if len(s) <= 1 {
		return s
	}
	frame := s.cur()
	rtn := s[:len(s)-1]
	rtn.appendChild(frame.toSpec())
	return rtn
}

func tokenToFrame(token htmltoken.Token, data map[string]any, reg *Registry) *bindFrame {
	frame := &bindFrame{tag: token.Data, ctype: reg.Lookup(token.Data)}
	for _, attr := range token.Attr {
		if attr.Key == "" {
			continue
		}
		if frame.props == nil {
			frame.props = make(map[string]any)
		}
		if strings.HasPrefix(attr.Val, bindPrefix) {
			bindVal, ok := data[attr.Val[len(bindPrefix):]]
			if !ok {
				continue
			}
			frame.props[attr.Key] = bindVal
			continue
		}
		frame.props[attr.Key] = attr.Val
	}
	return frame
}

func getAttr(token htmltoken.Token, key string) string {
	for _, attr := range token.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func isWsChar(char rune) bool {
	return char == ' ' || char == '\t' || char == '\n' || char == '\r'
}

func isAllWhitespace(s string) bool {
	for _, char := range s {
		if !isWsChar(char) {
			return false
		}
	}
	return true
}

// processWhitespace drops indentation between tags, keeping text runs intact
func processWhitespace(markup string) string {
	lines := strings.Split(markup, "\n")
	var newLines []string
	for _, line := range lines {
		trimmed := strings.TrimFunc(line, isWsChar)
		if trimmed == "" {
			continue
		}
		if !strings.HasPrefix(trimmed, "<") {
			trimmed = " " + trimmed
		}
		if !strings.HasSuffix(trimmed, ">") {
			trimmed = trimmed + " "
		}
		newLines = append(newLines, trimmed)
	}
	return strings.Join(newLines, "")
}

func processTextStr(s string) string {
	if s == "" {
		return ""
	}
	if isAllWhitespace(s) {
		return " "
	}
	return strings.TrimSpace(s)
}

// Bind parses markup with a single root into a Spec. Empty markup binds to nil.
func Bind(markup string, data map[string]any, reg *Registry) (Spec, error) {
	markup = processWhitespace(markup)
	iter := htmltoken.NewTokenizer(strings.NewReader(markup))
	stack := bindStack{&bindFrame{}}
outer:
	for {
		tokenType := iter.Next()
		token := iter.Token()
		switch tokenType {
		case htmltoken.StartTagToken:
			if token.Data == bindTag {
				return nil, errors.New("bind tag must be self closing")
			}
			stack = append(stack, tokenToFrame(token, data, reg))
		case htmltoken.EndTagToken:
			if token.Data == bindTag {
				return nil, errors.New("bind tag must be self closing")
			}
			if len(stack) <= 1 {
				return nil, fmt.Errorf("end tag %q without start tag", token.Data)
			}
			if stack.cur().tag != token.Data {
				return nil, fmt.Errorf("end tag %q does not match start tag %q", token.Data, stack.cur().tag)
			}
			stack = stack.pop()
		case htmltoken.SelfClosingTagToken:
			if token.Data == bindTag {
				for _, spec := range ToSpecs(data[getAttr(token, "key")]) {
					stack.appendChild(spec)
				}
				continue
			}
			stack.appendChild(tokenToFrame(token, data, reg).toSpec())
		case htmltoken.TextToken:
			textStr := processTextStr(token.Data)
			if textStr == "" {
				continue
			}
			// whitespace between the top level tags is not content
			if len(stack) == 1 && textStr == " " {
				continue
			}
			stack.appendChild(Text(textStr))
		case htmltoken.CommentToken:
			continue
		case htmltoken.DoctypeToken:
			return nil, errors.New("doctype not supported")
		case htmltoken.ErrorToken:
			if iter.Err() == io.EOF {
				break outer
			}
			return nil, iter.Err()
		}
	}
	if len(stack) > 1 {
		return nil, fmt.Errorf("unclosed tag %q", stack.cur().tag)
	}
	roots := stack[0].children
	switch len(roots) {
	case 0:
		return nil, nil
	case 1:
		return roots[0], nil
	}
	return nil, fmt.Errorf("markup must have a single root, found %d", len(roots))
}

func (e *Engine) Bind(markup string, data map[string]any) (Spec, error) {
	return Bind(markup, data, e.registry)
}
