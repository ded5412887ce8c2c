// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package parsetree implements the tree a Parser builds: a Node per
// matched rule, owning its matched children, with a non-owning back
// reference to its parent.
package parsetree

import (
	"strings"

	"github.com/parsekit-go/parsekit/grammar"
	"github.com/parsekit-go/parsekit/token"
)

// Node is one matched rule in a parse tree. Children are owned by their
// parent; Parent is a non-owning back-reference used for diagnostics and
// tree-reduction, never walked for ownership purposes (so no cycle is
// ever freed explicitly; Go's GC handles the reference cycle).
type Node struct {
	Rule     *grammar.Rule
	Pos      token.SourcePosition
	Literal  string
	Len      int
	Children []*Node
	Parent   *Node

	emitted bool
}

// RuleName implements grammar.Node.
func (n *Node) RuleName() string {
	if n.Rule == nil {
		return ""
	}
	return n.Rule.Name
}

// Text returns the literal text this node matched. For a token node this
// is the recognized literal; for an And/Or node it is the concatenation
// of all descendant token literals, in order, separated by a single
// space.
func (n *Node) Text() string {
	if n.Rule != nil && n.Rule.Kind == grammar.Token {
		return n.Literal
	}
	var parts []string
	n.collectText(&parts)
	return strings.Join(parts, " ")
}

func (n *Node) collectText(parts *[]string) {
	if n.Rule != nil && n.Rule.Kind == grammar.Token {
		*parts = append(*parts, n.Literal)
		return
	}
	for _, c := range n.Children {
		c.collectText(parts)
	}
}

// Position implements grammar.Node.
func (n *Node) Position() token.SourcePosition { return n.Pos }

// IsEmitted reports whether this node's callback (if any) has already
// fired during the current parse's post-order dispatch.
func (n *Node) IsEmitted() bool {
	return n.emitted
}

// MarkEmitted records that this node's callback has fired. It is called
// by the parser during dispatch; calling it directly is only useful from
// tests.
func (n *Node) MarkEmitted() {
	n.emitted = true
}

// ToString returns a flat rendering: "RuleName(text)".
func (n *Node) ToString() string {
	return n.RuleName() + "(" + n.Text() + ")"
}

// ToBracketString renders the tree as nested brackets, e.g.
// "sum[num(1) plus(+) num(2)]". When withContent is false, leaf token
// text is omitted. When withLineBreaks is true, each nesting level is
// placed on its own indented line.
func (n *Node) ToBracketString(withContent, withLineBreaks bool) string {
	var b strings.Builder
	n.writeBracket(&b, withContent, withLineBreaks, 0)
	return b.String()
}

func (n *Node) writeBracket(b *strings.Builder, withContent, withLineBreaks bool, depth int) {
	if withLineBreaks && depth > 0 {
		b.WriteByte('\n')
		b.WriteString(strings.Repeat("  ", depth))
	}
	b.WriteString(n.RuleName())
	if withContent && (n.Rule == nil || n.Rule.Kind == grammar.Token) {
		b.WriteByte('(')
		b.WriteString(n.Literal)
		b.WriteByte(')')
	}
	if len(n.Children) > 0 {
		b.WriteByte('[')
		for i, c := range n.Children {
			if i > 0 && !withLineBreaks {
				b.WriteByte(' ')
			}
			c.writeBracket(b, withContent, withLineBreaks, depth+1)
		}
		if withLineBreaks {
			b.WriteByte('\n')
			b.WriteString(strings.Repeat("  ", depth))
		}
		b.WriteByte(']')
	}
}

// NumChildLevels returns the number of levels below this node: zero for
// a leaf, one plus the maximum of its children's NumChildLevels
// otherwise.
func (n *Node) NumChildLevels() int {
	if len(n.Children) == 0 {
		return 0
	}
	max := 0
	for _, c := range n.Children {
		if lv := c.NumChildLevels(); lv > max {
			max = lv
		}
	}
	return max + 1
}
