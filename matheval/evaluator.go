// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package matheval implements a generic arithmetic-expression evaluator:
// given a numeric.Traits[T] and a table of named constants and functions,
// it builds a grammar for T's literal syntax and evaluates expressions
// against it using an explicit value stack driven by the parser's
// post-order callback dispatch.
package matheval

import (
	"context"
	"regexp"
	"sort"

	"go.opentelemetry.io/otel/trace"

	"github.com/parsekit-go/parsekit/diag"
	"github.com/parsekit-go/parsekit/grammar"
	"github.com/parsekit-go/parsekit/internal/set"
	"github.com/parsekit-go/parsekit/numeric"
	"github.com/parsekit-go/parsekit/parser"
	"github.com/parsekit-go/parsekit/parsetree"
	"github.com/parsekit-go/parsekit/perr"
	"github.com/parsekit-go/parsekit/token"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ZeroPolicy controls what happens when a division or modulo's divisor
// evaluates to zero.
type ZeroPolicy int

const (
	// ErrorOnZero raises perr.ErrDivisionByZero / perr.ErrModuloByZero.
	ErrorOnZero ZeroPolicy = iota
	// IgnoreZero returns zero instead of raising an error.
	IgnoreZero
)

// Func is a registered named function of a fixed arity between 1 and 4.
type Func[T numeric.Number] func(args []T) (T, error)

// Evaluator evaluates arithmetic expressions over T, a numeric type from
// the closed set numeric.Traits supports. An Evaluator is not safe for
// concurrent use by multiple goroutines; distinct Evaluator instances
// share no state and may run concurrently.
type Evaluator[T numeric.Number] struct {
	DivByZero ZeroPolicy
	ModByZero ZeroPolicy

	// Diag, if set, receives diagnostics when the grammar is rebuilt.
	Diag diag.Sink
	// Tracer, if set, wraps Evaluate in a span.
	Tracer trace.Tracer

	traits    numeric.Traits[T]
	constants map[string]T
	functions map[funcKey]Func[T]

	dirty bool
	rules *grammar.RuleSet
	p     *parser.Parser

	stk        stack[T]
	pendingErr error
}

type funcKey struct {
	name  string
	arity int
}

// NewEvaluator constructs an Evaluator over the given traits, with empty
// constant and function tables.
func NewEvaluator[T numeric.Number](traits numeric.Traits[T]) *Evaluator[T] {
	return &Evaluator[T]{
		traits:    traits,
		constants: make(map[string]T),
		functions: make(map[funcKey]Func[T]),
		dirty:     true,
		Diag:      diag.Nop(),
	}
}

// RegisterConstant adds or replaces a named constant. It returns
// perr.ErrInvalidIdentifier if name does not match identifier syntax.
func (ev *Evaluator[T]) RegisterConstant(name string, value T) error {
	if !identRe.MatchString(name) {
		return perr.InvalidIdentifier(name)
	}
	ev.constants[name] = value
	ev.dirty = true
	return nil
}

// RegisterFunction adds or replaces a named function of the given arity.
// arity must be between 1 and 4 inclusive.
func (ev *Evaluator[T]) RegisterFunction(name string, arity int, fn Func[T]) error {
	if !identRe.MatchString(name) {
		return perr.InvalidIdentifier(name)
	}
	if arity < 1 || arity > 4 {
		return perr.InvariantBroken("function arity must be between 1 and 4")
	}
	ev.functions[funcKey{name, arity}] = fn
	ev.dirty = true
	return nil
}

// Constants returns a copy of the constant table.
func (ev *Evaluator[T]) Constants() map[string]T {
	out := make(map[string]T, len(ev.constants))
	for n, v := range ev.constants {
		out[n] = v
	}
	return out
}

// ConstantNames returns every registered constant's name, sorted.
func (ev *Evaluator[T]) ConstantNames() []string {
	names := make([]string, 0, len(ev.constants))
	for n := range ev.constants {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// HasFunctions reports whether any function is registered, at any arity.
func (ev *Evaluator[T]) HasFunctions() bool {
	return len(ev.functions) > 0
}

// FunctionNames returns the names registered at the given arity, sorted.
// An arity of zero returns every registered name, deduplicated across
// arities.
func (ev *Evaluator[T]) FunctionNames(arity int) []string {
	seen := set.New[string]()
	for k := range ev.functions {
		if arity == 0 || k.arity == arity {
			seen.Add(k.name)
		}
	}
	names := seen.ToSlice()
	sort.Strings(names)
	return names
}

// IsSigned reports whether the evaluator's numeric type admits unary
// minus.
func (ev *Evaluator[T]) IsSigned() bool {
	return ev.traits.IsSigned
}

// IsFloat reports whether the evaluator's numeric type admits floating
// point literals.
func (ev *Evaluator[T]) IsFloat() bool {
	return ev.traits.IsFloat
}

// SetIgnoreDivisionByZero selects whether a zero divisor in / or %
// contributes zero to the result instead of raising
// perr.ErrDivisionByZero / perr.ErrModuloByZero.
func (ev *Evaluator[T]) SetIgnoreDivisionByZero(ignore bool) {
	if ignore {
		ev.DivByZero = IgnoreZero
		ev.ModByZero = IgnoreZero
	} else {
		ev.DivByZero = ErrorOnZero
		ev.ModByZero = ErrorOnZero
	}
}

// Clone returns an independent copy of ev: same traits, policies, and
// registered tables, but no shared mutable state, so the clone and the
// original may evaluate concurrently. The clone rebuilds its grammar on
// first use, binding its callbacks to its own value stack.
func (ev *Evaluator[T]) Clone() *Evaluator[T] {
	c := NewEvaluator(ev.traits)
	c.DivByZero = ev.DivByZero
	c.ModByZero = ev.ModByZero
	c.Diag = ev.Diag
	c.Tracer = ev.Tracer
	for n, v := range ev.constants {
		c.constants[n] = v
	}
	for k, fn := range ev.functions {
		c.functions[k] = fn
	}
	return c
}

// clashingIdentifiers returns names registered as both a constant and a
// function. Any clash flips factor's alternation to the Deepest policy
// so the bare name still resolves as the constant while a trailing "("
// selects the call; the rebuild also logs the clash since it is usually
// a configuration mistake.
func (ev *Evaluator[T]) clashingIdentifiers() []string {
	constNames := set.New[string]()
	for n := range ev.constants {
		constNames.Add(n)
	}
	var clashes []string
	for k := range ev.functions {
		if constNames.Contains(k.name) {
			clashes = append(clashes, k.name)
		}
	}
	return clashes
}

// rebuild reconstructs the grammar and parser from the current constant
// and function tables. It is called lazily, from Evaluate, whenever a
// Register call has set the dirty flag.
func (ev *Evaluator[T]) rebuild() error {
	rs, err := ev.buildGrammar()
	if err != nil {
		return err
	}
	p, err := parser.NewParser(rs)
	if err != nil {
		return err
	}
	p.Diag = ev.Diag
	p.Tracer = ev.Tracer

	ev.rules = rs
	ev.p = p
	ev.dirty = false

	if clashes := ev.clashingIdentifiers(); len(clashes) > 0 {
		ev.Diag.Log(diag.LevelWarn, "constant/function name clash", diag.F("names", clashes))
	}
	ev.Diag.Log(diag.LevelDebug, "grammar rebuilt")
	return nil
}

// Init eagerly builds the grammar and parser from the current constant
// and function tables. Calling it is optional: Evaluate rebuilds lazily
// whenever the tables changed since the last build.
func (ev *Evaluator[T]) Init() error {
	if ev.Diag == nil {
		ev.Diag = diag.Nop()
	}
	if !ev.dirty {
		return nil
	}
	return ev.rebuild()
}

// Parser exposes the underlying parser, building the grammar first if
// needed.
func (ev *Evaluator[T]) Parser() (*parser.Parser, error) {
	if err := ev.Init(); err != nil {
		return nil, err
	}
	return ev.p, nil
}

// Expression returns the text passed to the most recent Evaluate call,
// or "" before the first one.
func (ev *Evaluator[T]) Expression() string {
	if ev.p == nil {
		return ""
	}
	return ev.p.Text()
}

// Evaluate parses and evaluates text, returning its value.
func (ev *Evaluator[T]) Evaluate(ctx context.Context, text string) (T, error) {
	if ev.Tracer != nil {
		var span trace.Span
		ctx, span = ev.Tracer.Start(ctx, "parsekit.evaluate")
		defer span.End()
	}
	if err := ev.Init(); err != nil {
		return zero[T](), err
	}

	ev.stk.entries = ev.stk.entries[:0]
	ev.pendingErr = nil
	_, err := ev.p.Parse(ctx, text)
	if err != nil {
		return zero[T](), err
	}
	if ev.pendingErr != nil {
		return zero[T](), ev.pendingErr
	}

	if len(ev.stk.entries) != 1 {
		return zero[T](), perr.InvariantBroken("evaluation did not leave exactly one result on the stack")
	}
	return ev.resolve(ev.stk.pop())
}

// fail records err as the evaluation's outcome. Callbacks cannot abort
// the dispatch walk, so later callbacks still run against placeholder
// values; only the first error is kept and reported.
func (ev *Evaluator[T]) fail(err error) {
	if ev.pendingErr == nil {
		ev.pendingErr = err
	}
}

// onQuotedExpr fires on a signed parenthesized group: when the group
// carries a leading minus, the group's already-folded value is replaced
// by its negation.
func (ev *Evaluator[T]) onQuotedExpr(n grammar.Node) {
	node := n.(*parsetree.Node)
	if len(node.Children) == 0 || node.Children[0].RuleName() != "plusOrMinus" {
		return
	}
	if node.Children[0].Text() != "-" {
		return
	}
	v, err := ev.resolve(ev.stk.pop())
	if err != nil {
		ev.fail(err)
	}
	ev.stk.push(entry[T]{kind: entryValue, value: -v})
}

// onBinaryOp fires on an opTerm/opFactor node, whose first child is the
// matched operator: the two topmost values fold into one.
func (ev *Evaluator[T]) onBinaryOp(n grammar.Node) {
	rhs, err := ev.resolve(ev.stk.pop())
	if err != nil {
		ev.fail(err)
	}
	lhs, err := ev.resolve(ev.stk.pop())
	if err != nil {
		ev.fail(err)
	}
	node := n.(*parsetree.Node)
	result, err := ev.combine(node.Children[0].Text(), lhs, rhs, node.Position())
	if err != nil {
		ev.fail(err)
	}
	ev.stk.push(entry[T]{kind: entryValue, value: result})
}

func (ev *Evaluator[T]) combine(op string, a, b T, pos token.SourcePosition) (T, error) {
	switch op {
	case "+":
		return a + b, nil
	case "-":
		return a - b, nil
	case "*":
		return a * b, nil
	case "/":
		if b == zero[T]() {
			if ev.DivByZero == IgnoreZero {
				return zero[T](), nil
			}
			return zero[T](), perr.DivisionByZero(pos)
		}
		return a / b, nil
	case "%":
		if b == zero[T]() {
			if ev.ModByZero == IgnoreZero {
				return zero[T](), nil
			}
			return zero[T](), perr.ModuloByZero(pos)
		}
		return ev.traits.Modulo(a, b), nil
	default:
		return zero[T](), perr.InvariantBroken("unknown operator " + op)
	}
}

// onFuncComplete fires on a completed function call. The argument count
// is recovered by walking the stack from the top: each commaExpr marker
// is one extra argument, and the argList marker closes the walk. The
// markers are removed; the argument values stay and are popped once the
// arity is known. The call's name and optional sign come from the func
// node's ident child.
func (ev *Evaluator[T]) onFuncComplete(n grammar.Node) {
	node := n.(*parsetree.Node)

	numArgs := 1
	found := false
	for i := len(ev.stk.entries) - 1; i >= 0; i-- {
		switch ev.stk.entries[i].kind {
		case entryCommaMarker:
			ev.stk.removeAt(i)
			numArgs++
		case entryArgMarker:
			ev.stk.removeAt(i)
			found = true
		}
		if found {
			break
		}
	}
	if !found {
		ev.fail(perr.InvariantBroken("function argument marker not found"))
		ev.stk.push(entry[T]{kind: entryValue})
		return
	}

	if len(ev.stk.entries) < numArgs {
		ev.fail(perr.InvariantBroken("fewer values on the stack than function arguments"))
		ev.stk.push(entry[T]{kind: entryValue})
		return
	}
	args := make([]T, numArgs)
	for i := numArgs - 1; i >= 0; i-- {
		v, err := ev.resolve(ev.stk.pop())
		if err != nil {
			ev.fail(err)
		}
		args[i] = v
	}

	name, neg := signedLeaf(node.Children[0])
	fn, ok := ev.functions[funcKey{name, numArgs}]
	if !ok {
		ev.fail(perr.UnknownFunction(name, numArgs, node.Position()))
		ev.stk.push(entry[T]{kind: entryValue})
		return
	}
	result, err := fn(args)
	if err != nil {
		ev.fail(err)
		ev.stk.push(entry[T]{kind: entryValue})
		return
	}
	if neg {
		result = -result
	}
	ev.stk.push(entry[T]{kind: entryValue, value: result})
}
