// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package genexpr generates random arithmetic expressions that are
// syntactically valid input for matheval.Evaluator, for the round-trip
// property spec.md §8 asks for: evaluating the generated text must equal
// folding the same generated tree directly in Go. The generator and
// matheval's own grammar (see matheval.buildGrammar) are built from the
// same shape on purpose so they never drift apart.
package genexpr

import (
	"strconv"
	"strings"

	"github.com/parsekit-go/parsekit/internal/pcg"
	"github.com/parsekit-go/parsekit/numeric"
)

// Config controls the shape of generated expressions.
type Config struct {
	// Seed makes generation deterministic: the same Config (including
	// Seed) always produces the same sequence of expressions.
	Seed uint64
	// MinDepth and MaxDepth bound the depth Next picks for each
	// expression; groupings nest at most that deep. A depth of zero
	// yields no groupings, only literals joined by operators.
	MinDepth, MaxDepth int
	// MaxLiteral bounds generated literals to [0, MaxLiteral]. Callers
	// instantiating a narrow numeric type (e.g. int8) should pass a
	// bound small enough that individual literals never fail to parse.
	MaxLiteral int
	// Signed enables unary minus; pass false for unsigned
	// numeric.Number instantiations. Binary subtraction is generated
	// either way.
	Signed bool
}

// Generator produces a deterministic stream of expressions from a
// Config. It is not safe for concurrent use; distinct Generators sharing
// no state may run concurrently.
type Generator struct {
	rng    *pcg.Source
	cfg    Config
	budget int
}

// maxNodesPerDepthUnit bounds total factor count to keep generation
// linear in depth even though every expr/term level can itself branch
// into multiple terms/factors: without a shared budget, a requested
// depth of 50 (spec.md §8's upper bound) would produce an expression
// with an intractable number of nodes.
const maxNodesPerDepthUnit = 3

// New constructs a Generator from cfg, applying sane defaults to any
// zero-valued bound.
func New(cfg Config) *Generator {
	if cfg.MaxLiteral <= 0 {
		cfg.MaxLiteral = 999
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = 1
	}
	if cfg.MinDepth > cfg.MaxDepth {
		cfg.MinDepth = cfg.MaxDepth
	}
	return &Generator{rng: pcg.New(cfg.Seed), cfg: cfg}
}

// Expr mirrors matheval's expr := term (op1 term)* rule: a left-to-right
// chain of Terms joined by + or -.
type Expr struct {
	Terms []Term
	Ops   []byte // len(Ops) == len(Terms)-1
}

// Term mirrors matheval's term := factor (op2 factor)* rule: a
// left-to-right chain of Factors joined by *, / or %.
type Term struct {
	Factors []Factor
	Ops     []byte // len(Ops) == len(Factors)-1
}

// Factor mirrors matheval's factor := num | quotedExpr, with an optional
// leading unary minus (only ever set when the Generator was configured
// Signed). Exactly one of Group being non-nil or Literal being
// meaningful holds.
type Factor struct {
	Negated bool
	Literal int64
	Group   *Expr
}

// Next generates one expression at a random depth in [MinDepth,
// MaxDepth].
func (g *Generator) Next() *Expr {
	depth := g.cfg.MinDepth
	if span := g.cfg.MaxDepth - g.cfg.MinDepth; span > 0 {
		depth += g.rng.Intn(span + 1)
	}
	g.budget = (depth + 1) * maxNodesPerDepthUnit
	return g.expr(depth)
}

func (g *Generator) expr(depth int) *Expr {
	n := 1 + g.rng.Intn(g.branchFactor())
	e := &Expr{}
	for i := 0; i < n; i++ {
		e.Terms = append(e.Terms, g.term(depth))
		if i > 0 {
			if g.rng.Intn(2) == 0 {
				e.Ops = append(e.Ops, '+')
			} else {
				e.Ops = append(e.Ops, '-')
			}
		}
	}
	return e
}

func (g *Generator) term(depth int) Term {
	n := 1 + g.rng.Intn(g.branchFactor())
	t := Term{}
	for i := 0; i < n; i++ {
		// The divisor/modulus of a non-first factor must never be zero:
		// zero-division policy is covered by matheval's own tests, not
		// by this round-trip generator.
		t.Factors = append(t.Factors, g.factor(depth, i > 0))
		if i > 0 {
			switch g.rng.Intn(3) {
			case 0:
				t.Ops = append(t.Ops, '*')
			case 1:
				t.Ops = append(t.Ops, '/')
			default:
				t.Ops = append(t.Ops, '%')
			}
		}
	}
	return t
}

// branchFactor returns 3 while the node budget allows further branching
// and 1 (no branching) once it's exhausted, so deep requested depths
// still terminate in a bounded number of nodes.
func (g *Generator) branchFactor() int {
	if g.budget <= 0 {
		return 1
	}
	return 3
}

func (g *Generator) factor(depth int, nonZero bool) Factor {
	g.budget--
	negate := g.cfg.Signed && g.rng.Intn(3) == 0

	// A divisor/modulus is always a bare literal: a grouped
	// sub-expression could still fold to zero (e.g. "(3-3)") even when
	// every literal inside it was chosen non-zero.
	if !nonZero && depth > 0 && g.budget > 0 && g.rng.Intn(2) == 0 {
		return Factor{Negated: negate, Group: g.expr(depth - 1)}
	}

	lo := 0
	if nonZero {
		lo = 1
	}
	hi := g.cfg.MaxLiteral
	if hi < lo {
		hi = lo
	}
	lit := int64(lo + g.rng.Intn(hi-lo+1))
	return Factor{Negated: negate, Literal: lit}
}

// Text renders e as matheval input text.
func (e *Expr) Text() string {
	var b strings.Builder
	e.write(&b)
	return b.String()
}

func (e *Expr) write(b *strings.Builder) {
	for i, t := range e.Terms {
		if i > 0 {
			b.WriteByte(' ')
			b.WriteByte(e.Ops[i-1])
			b.WriteByte(' ')
		}
		t.write(b)
	}
}

func (t *Term) write(b *strings.Builder) {
	for i, f := range t.Factors {
		if i > 0 {
			b.WriteByte(' ')
			b.WriteByte(t.Ops[i-1])
			b.WriteByte(' ')
		}
		f.write(b)
	}
}

func (f *Factor) write(b *strings.Builder) {
	if f.Negated {
		b.WriteByte('-')
	}
	if f.Group != nil {
		b.WriteByte('(')
		f.Group.write(b)
		b.WriteByte(')')
		return
	}
	b.WriteString(strconv.FormatInt(f.Literal, 10))
}

// Eval folds e directly in T, applying the same left-to-right,
// precedence-respecting order matheval.Evaluator's stack discipline
// uses: unary minus binds tightest, then * / %, then + -, each
// left-associative. It is the reference value Evaluate(e.Text()) must
// match.
func Eval[T numeric.Number](e *Expr, traits numeric.Traits[T]) T {
	acc := evalTerm(e.Terms[0], traits)
	for i, op := range e.Ops {
		rhs := evalTerm(e.Terms[i+1], traits)
		switch op {
		case '+':
			acc += rhs
		case '-':
			acc -= rhs
		}
	}
	return acc
}

func evalTerm[T numeric.Number](t Term, traits numeric.Traits[T]) T {
	acc := evalFactor(t.Factors[0], traits)
	for i, op := range t.Ops {
		rhs := evalFactor(t.Factors[i+1], traits)
		switch op {
		case '*':
			acc *= rhs
		case '/':
			acc /= rhs
		case '%':
			acc = traits.Modulo(acc, rhs)
		}
	}
	return acc
}

func evalFactor[T numeric.Number](f Factor, traits numeric.Traits[T]) T {
	var v T
	if f.Group != nil {
		v = Eval(f.Group, traits)
	} else {
		v = T(f.Literal)
	}
	if f.Negated {
		v = -v
	}
	return v
}
