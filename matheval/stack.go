// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package matheval

import (
	"github.com/parsekit-go/parsekit/numeric"
	"github.com/parsekit-go/parsekit/parsetree"
	"github.com/parsekit-go/parsekit/perr"
)

type entryKind int

const (
	entryNum entryKind = iota
	entryIdent
	entryValue
	entryArgMarker
	entryCommaMarker
)

// entry is one slot on an Evaluator's value stack. num and ident entries
// defer decoding their node until they are popped (resolve); value
// entries carry an already-computed T; the marker kinds delimit function
// arguments and never resolve to a value.
type entry[T numeric.Number] struct {
	kind  entryKind
	node  *parsetree.Node
	value T
}

// stack is the evaluator's explicit value/marker stack. Callbacks fired
// during a single Parser.Parse push and fold entries depth-first; at the
// end of a successful parse exactly one entry -- the result -- remains.
type stack[T numeric.Number] struct {
	entries []entry[T]
}

func (s *stack[T]) push(e entry[T]) {
	s.entries = append(s.entries, e)
}

func (s *stack[T]) pop() entry[T] {
	n := len(s.entries)
	e := s.entries[n-1]
	s.entries = s.entries[:n-1]
	return e
}

func (s *stack[T]) removeAt(i int) {
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
}

// signedLeaf reads the literal and sign of a num/ident node. For an
// unsigned grammar the node is the bare token; for a signed one it is a
// two-slot composite whose optional first child is the plusOrMinus sign
// and whose last child is the unsigned token.
func signedLeaf(n *parsetree.Node) (literal string, negative bool) {
	if len(n.Children) == 0 {
		return n.Literal, false
	}
	literal = n.Children[len(n.Children)-1].Literal
	negative = len(n.Children) == 2 && n.Children[0].Text() == "-"
	return literal, negative
}

// resolve decodes a num/ident/value entry into a concrete T, looking up
// ident names against ev's constant table and parsing num literals
// lazily via ev's numeric.Traits. The deferred node carries its own
// sign, applied here.
func (ev *Evaluator[T]) resolve(e entry[T]) (T, error) {
	switch e.kind {
	case entryValue:
		return e.value, nil
	case entryNum:
		lit, neg := signedLeaf(e.node)
		v, err := ev.traits.Parse(lit)
		if err != nil {
			return zero[T](), perr.InvariantBroken("numeric literal rejected by traits: " + lit)
		}
		if neg {
			v = -v
		}
		return v, nil
	case entryIdent:
		name, neg := signedLeaf(e.node)
		v, ok := ev.constants[name]
		if !ok {
			return zero[T](), perr.UnknownIdentifier(name, e.node.Position())
		}
		if neg {
			v = -v
		}
		return v, nil
	default:
		return zero[T](), perr.InvariantBroken("resolve called on a non-value stack entry")
	}
}

func zero[T numeric.Number]() T {
	var z T
	return z
}
