// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package parser implements the backtracking recursive-descent engine
// that walks a grammar.RuleSet over a token.Tokenizer's output, building
// a parsetree.Node tree and then dispatching any registered callbacks
// over it in depth-first post-order.
package parser

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"github.com/parsekit-go/parsekit/diag"
	"github.com/parsekit-go/parsekit/grammar"
	"github.com/parsekit-go/parsekit/parsetree"
	"github.com/parsekit-go/parsekit/perr"
	"github.com/parsekit-go/parsekit/token"
)

// DefaultMaxDepth is the recursion guard used when Parser.MaxDepth is
// left at zero.
const DefaultMaxDepth = 1000

// Parser walks a checked grammar.RuleSet over input text, producing a
// parsetree.Node. A Parser is not safe for concurrent use: Parse records
// the source text and the visited-node counter on the receiver. Distinct
// Parser instances share no state and may be used concurrently.
type Parser struct {
	Rules     *grammar.RuleSet
	Tokenizer *token.Tokenizer
	MaxDepth  int

	// Diag, if set, receives a debug-level entry when a Parse call
	// completes or fails.
	Diag diag.Sink
	// Tracer, if set, wraps each call to Parse in a span.
	Tracer trace.Tracer

	text            string
	numNodesVisited int
}

// NewParser constructs a Parser over a checked RuleSet and a Tokenizer
// built from that RuleSet's registered tokens. It always calls
// rules.Check first, which is safe on an already checked RuleSet.
func NewParser(rules *grammar.RuleSet) (*Parser, error) {
	if err := rules.Check(); err != nil {
		return nil, err
	}
	tok, err := token.NewTokenizer(rules.Tokens())
	if err != nil {
		return nil, err
	}
	return &Parser{Rules: rules, Tokenizer: tok, MaxDepth: DefaultMaxDepth, Diag: diag.Nop()}, nil
}

// NumNodesVisited reports how many rule-attempts the most recent Parse
// call made, including backtracked ones. It is reset at the start of
// every Parse call.
func (p *Parser) NumNodesVisited() int {
	return p.numNodesVisited
}

// Text returns the source text passed to the most recent Parse call.
func (p *Parser) Text() string {
	return p.text
}

// Parse tokenizes text and walks the RuleSet's top rule over it,
// returning the resulting parse tree. An error is returned if the top
// rule fails to match the entire input, or if recursion exceeds
// MaxDepth.
func (p *Parser) Parse(ctx context.Context, text string) (*parsetree.Node, error) {
	if p.Tracer != nil {
		var span trace.Span
		ctx, span = p.Tracer.Start(ctx, "parsekit.parse")
		defer span.End()
	}
	p.text = text

	tokens, err := p.Tokenizer.Tokenize(text)
	if err != nil {
		if uerr, ok := err.(*token.UnmatchedCharError); ok {
			return nil, perr.UnknownCharacter(uerr.Char, uerr.Pos)
		}
		return nil, err
	}

	maxDepth := p.MaxDepth
	if maxDepth == 0 {
		maxDepth = DefaultMaxDepth
	}

	s := &state{p: p, tokens: tokens, maxDepth: maxDepth, diag: p.Diag}
	if s.diag == nil {
		s.diag = diag.Nop()
	}
	p.numNodesVisited = 0

	node, next, matched, err := s.parseRule(p.Rules.TopRule(), 0)
	if err != nil {
		return nil, err
	}
	if !matched || tokens[next].Name != token.EOFName {
		pos := tokens[next].Pos
		s.diag.Log(diag.LevelDebug, "parse failed",
			diag.F("offset", pos.Offset), diag.F("nodesVisited", p.numNodesVisited))
		return nil, perr.NoParse(pos)
	}
	s.diag.Log(diag.LevelDebug, "parse complete", diag.F("nodesVisited", p.numNodesVisited))

	// Callbacks fire only once the whole tree is known good: nodes built
	// and discarded while backtracking must never emit.
	if p.Rules.Connected() {
		emit(node)
	}
	return node, nil
}

// emit dispatches callbacks over a completed parse tree, depth-first
// post-order: children strictly before their parent, siblings left to
// right. For each node it fires the node's rule-level callback first,
// then every callback registered on a sub-rule slot of the parent whose
// target name equals this node's rule name.
func emit(n *parsetree.Node) {
	for _, c := range n.Children {
		emit(c)
	}
	if n.Rule != nil && n.Rule.OnMatch != nil {
		n.Rule.OnMatch(n)
	}
	if n.Parent != nil && n.Parent.Rule != nil {
		for i := range n.Parent.Rule.Sub {
			s := &n.Parent.Rule.Sub[i]
			if s.OnMatch != nil && s.Target == n.RuleName() {
				s.OnMatch(n)
			}
		}
	}
	n.MarkEmitted()
}

// state carries the per-Parse mutable cursor and recursion bookkeeping;
// it is discarded at the end of every Parse call.
type state struct {
	p        *Parser
	tokens   []token.ParsedToken
	maxDepth int
	depth    int
	diag     diag.Sink
}

// parseRule attempts to match r starting at token index pos. It returns
// the constructed node, the token index immediately following the
// match, whether it matched, and any hard error (only ever TooNested:
// failure to match is reported via matched=false, not an error).
func (s *state) parseRule(r *grammar.Rule, pos int) (*parsetree.Node, int, bool, error) {
	s.depth++
	defer func() { s.depth-- }()
	if s.depth > s.maxDepth {
		return nil, pos, false, perr.TooNested(s.tokens[pos].Pos)
	}
	s.p.numNodesVisited++

	switch r.Kind {
	case grammar.Token:
		return s.parseToken(r, pos)
	case grammar.And:
		return s.parseAnd(r, pos)
	case grammar.Or:
		return s.parseOr(r, pos)
	default:
		return nil, pos, false, perr.InvariantBroken("unknown rule kind")
	}
}

func (s *state) parseToken(r *grammar.Rule, pos int) (*parsetree.Node, int, bool, error) {
	tk := s.tokens[pos]
	// The EOF sentinel is never matchable: a rule that wants to consume
	// past the last token fails instead of running off the stream.
	if tk.Name == token.EOFName || tk.Name != r.Token.Name {
		return nil, pos, false, nil
	}
	node := &parsetree.Node{Rule: r, Pos: tk.Pos, Literal: tk.Literal, Len: len(tk.Literal)}
	return node, pos + 1, true, nil
}

// spanLen reports the captured byte length of a composite node spanning
// the consumed tokens [startTokenIdx, endTokenIdx): the end offset of the
// last consumed token minus the start offset. It is not a token count, so
// it stays comparable to the character distance spec callers expect (and
// to parseToken's byte-length Len above). Trailing whitespace is never
// included, since the tokenizer already skips it between tokens.
func (s *state) spanLen(startOffset, startTokenIdx, endTokenIdx int) int {
	if endTokenIdx == startTokenIdx {
		return 0
	}
	last := s.tokens[endTokenIdx-1]
	return last.Pos.Offset + len(last.Literal) - startOffset
}

func (s *state) parseAnd(r *grammar.Rule, pos int) (*parsetree.Node, int, bool, error) {
	startPos := pos
	startTokenPos := s.tokens[pos].Pos
	node := &parsetree.Node{Rule: r, Pos: startTokenPos}

	cur := pos
	for i := range r.Sub {
		sub := &r.Sub[i]

		matchedOnce := false
		for {
			child, next, matched, err := s.parseRule(sub.Resolved, cur)
			if err != nil {
				return nil, pos, false, err
			}
			if !matched {
				break
			}
			child.Parent = node
			node.Children = append(node.Children, child)
			cur = next
			matchedOnce = true
			if !sub.Recursive {
				break
			}
		}

		if !matchedOnce && !sub.Optional {
			return nil, pos, false, nil
		}
	}

	node.Len = s.spanLen(startTokenPos.Offset, startPos, cur)
	return node, cur, true, nil
}

// orCandidate is one alternative's result while resolving an Or rule.
type orCandidate struct {
	node *parsetree.Node
	next int
}

func (s *state) parseOr(r *grammar.Rule, pos int) (*parsetree.Node, int, bool, error) {
	var best *orCandidate
	for i := range r.Sub {
		sub := &r.Sub[i]
		child, next, matched, err := s.parseRule(sub.Resolved, pos)
		if err != nil {
			return nil, pos, false, err
		}
		if !matched {
			continue
		}

		c := &orCandidate{node: child, next: next}
		if best == nil {
			best = c
			if r.OrPolicy == grammar.First {
				break
			}
			continue
		}

		if s.isBetter(r.OrPolicy, c, best, pos) {
			best = c
		}
	}

	if best == nil {
		return nil, pos, false, nil
	}

	node := &parsetree.Node{
		Rule:     r,
		Pos:      best.node.Pos,
		Children: []*parsetree.Node{best.node},
		Len:      s.spanLen(best.node.Pos.Offset, pos, best.next),
	}
	best.node.Parent = node
	return node, best.next, true, nil
}

func (s *state) isBetter(policy grammar.ORPolicy, cand, best *orCandidate, startPos int) bool {
	startOffset := s.tokens[startPos].Pos.Offset
	switch policy {
	case grammar.Longest:
		return s.spanLen(startOffset, startPos, cand.next) > s.spanLen(startOffset, startPos, best.next)
	case grammar.Shortest:
		return s.spanLen(startOffset, startPos, cand.next) < s.spanLen(startOffset, startPos, best.next)
	case grammar.Deepest:
		return cand.node.NumChildLevels() > best.node.NumChildLevels()
	case grammar.Shallowest:
		return cand.node.NumChildLevels() < best.node.NumChildLevels()
	default:
		return false
	}
}

// ReduceTree collapses single-child chains down to their deepest
// descendant, preserving any node with zero or more than one child.
func ReduceTree(n *parsetree.Node) *parsetree.Node {
	if n == nil {
		return nil
	}
	if len(n.Children) == 1 {
		return ReduceTree(n.Children[0])
	}
	for i, c := range n.Children {
		r := ReduceTree(c)
		r.Parent = n
		n.Children[i] = r
	}
	return n
}
