// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parsetree

import (
	"testing"

	"github.com/parsekit-go/parsekit/grammar"
)

func tok(name, lit string) *Node {
	return &Node{Rule: &grammar.Rule{Name: name, Kind: grammar.Token}, Literal: lit}
}

func and(name string, children ...*Node) *Node {
	n := &Node{Rule: &grammar.Rule{Name: name, Kind: grammar.And}, Children: children}
	for _, c := range children {
		c.Parent = n
	}
	return n
}

func TestTextConcatenatesLeaves(t *testing.T) {
	tree := and("sum", tok("num", "1"), tok("plus", "+"), tok("num", "2"))
	if got, want := tree.Text(), "1 + 2"; got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}
}

func TestToBracketString(t *testing.T) {
	tree := and("sum", tok("num", "1"), tok("plus", "+"), tok("num", "2"))
	got := tree.ToBracketString(true, false)
	want := "sum[num(1) plus(+) num(2)]"
	if got != want {
		t.Errorf("ToBracketString = %q, want %q", got, want)
	}
}

func TestNumChildLevels(t *testing.T) {
	leaf := tok("num", "1")
	if lv := leaf.NumChildLevels(); lv != 0 {
		t.Errorf("leaf NumChildLevels = %d, want 0", lv)
	}
	nested := and("outer", and("inner", tok("num", "1")))
	if lv := nested.NumChildLevels(); lv != 2 {
		t.Errorf("nested NumChildLevels = %d, want 2", lv)
	}
}

func TestIsEmitted(t *testing.T) {
	n := tok("num", "1")
	if n.IsEmitted() {
		t.Fatal("fresh node reports emitted")
	}
	n.MarkEmitted()
	if !n.IsEmitted() {
		t.Fatal("MarkEmitted did not stick")
	}
}
