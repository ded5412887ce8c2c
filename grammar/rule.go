// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package grammar declares the rule model a Parser walks: TOKEN rules
// match a single token.TokenSpec, AND rules match a fixed sequence of
// sub-rules, and OR rules try a set of alternative sub-rules under a
// configurable resolution policy.
package grammar

import "github.com/parsekit-go/parsekit/token"

// Node is the minimal view of a parse-tree node a Callback needs. It
// exists so this package does not depend on parsetree (which depends on
// grammar, for a Node's owning Rule); parsetree.Node implements it.
type Node interface {
	RuleName() string
	Text() string
	Position() token.SourcePosition
}

// Callback is invoked when a Rule or a SubRuleRef successfully matches,
// in post-order depth-first dispatch.
type Callback func(Node)

// Kind distinguishes the three rule shapes the parser knows how to walk.
type Kind int

const (
	// Token rules match a single lexical token.
	Token Kind = iota
	// And rules match a fixed sequence of sub-rules, in order.
	And
	// Or rules match the first (or best, per ORPolicy) of a set of
	// alternative sub-rules.
	Or
)

func (k Kind) String() string {
	switch k {
	case Token:
		return "TOKEN"
	case And:
		return "AND"
	case Or:
		return "OR"
	default:
		return "UNKNOWN"
	}
}

// ORPolicy selects how an Or rule picks among multiple sub-rules that
// all match at the current position.
type ORPolicy int

const (
	// First accepts the first alternative, in declaration order, that
	// matches at all. This is the default and the only policy the
	// original C++ implementation shipped with enabled.
	First ORPolicy = iota
	// Longest accepts the alternative that consumes the most input,
	// breaking ties by declaration order.
	Longest
	// Shortest accepts the alternative that consumes the least input,
	// breaking ties by declaration order.
	Shortest
	// Deepest accepts the alternative whose resulting sub-tree is
	// deepest, breaking ties by declaration order.
	Deepest
	// Shallowest accepts the alternative whose resulting sub-tree is
	// shallowest, breaking ties by declaration order.
	Shallowest
)

func (p ORPolicy) String() string {
	switch p {
	case First:
		return "FIRST"
	case Longest:
		return "LONGEST"
	case Shortest:
		return "SHORTEST"
	case Deepest:
		return "DEEPEST"
	case Shallowest:
		return "SHALLOWEST"
	default:
		return "UNKNOWN"
	}
}

// SubRuleRef is one slot in an And or Or rule's sub-rule list: a
// reference to another rule by name, with optional/recursive modifiers
// and its own callback.
type SubRuleRef struct {
	Target    string
	Resolved  *Rule
	Optional  bool
	Recursive bool
	OnMatch   Callback
}

// Rule is one named production in a grammar.
type Rule struct {
	Name     string
	Kind     Kind
	Token    *token.TokenSpec
	Sub      []SubRuleRef
	OnMatch  Callback
	OrPolicy ORPolicy
}

// Wants reports whether this rule's sub-rule list references name,
// directly, ported from the original's Rule::wants.
func (r *Rule) Wants(name string) bool {
	for _, s := range r.Sub {
		if s.Target == name {
			return true
		}
	}
	return false
}

// Contains reports whether this rule's sub-rule list references name,
// directly or (through a resolved sub-rule) transitively. visited guards
// against infinite recursion through recursive sub-rule references; pass
// nil on the initial call.
func (r *Rule) Contains(name string, visited map[*Rule]bool) bool {
	if visited == nil {
		visited = make(map[*Rule]bool)
	}
	if visited[r] {
		return false
	}
	visited[r] = true
	for _, s := range r.Sub {
		if s.Target == name {
			return true
		}
		if s.Resolved != nil && s.Resolved.Contains(name, visited) {
			return true
		}
	}
	return false
}

// ToDefinitionString renders a human-readable grammar line for this
// rule, e.g. "expr : term [opTerm]*".
func (r *Rule) ToDefinitionString() string {
	switch r.Kind {
	case Token:
		return r.Name + " : <token " + r.Token.Name + ">"
	case And:
		s := r.Name + " :"
		for _, sub := range r.Sub {
			s += " " + subRefString(sub)
		}
		return s
	case Or:
		s := r.Name + " :"
		for i, sub := range r.Sub {
			if i > 0 {
				s += " |"
			}
			s += " " + subRefString(sub)
		}
		return s
	default:
		return r.Name + " : ?"
	}
}

func subRefString(s SubRuleRef) string {
	name := s.Target
	if s.Optional {
		name = "[" + name + "]"
	}
	if s.Recursive {
		name += "*"
	}
	return name
}
