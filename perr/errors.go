// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package perr collects the structured error taxonomy raised by grammar,
// parser, and matheval. Every exported sentinel wraps a stable
// description with golang.org/x/xerrors so that errors.Is/As continue to
// work against it, while %+v formatting also reports the call frame that
// raised it, independent of any token.SourcePosition the error carries.
package perr

import (
	"fmt"

	"golang.org/x/xerrors"

	"github.com/parsekit-go/parsekit/token"
)

// Sentinel errors identifying each category in the taxonomy. Use
// errors.Is against these, or type-assert to *Error for the attached
// SourcePosition and wrapped cause.
var (
	ErrUnknownRule        = xerrors.New("unknown rule")
	ErrNoTopRule          = xerrors.New("no top rule")
	ErrNoParse            = xerrors.New("no parse")
	ErrTooNested          = xerrors.New("grammar too deeply nested")
	ErrInvalidIdentifier  = xerrors.New("invalid identifier")
	ErrUnknownIdentifier  = xerrors.New("unknown identifier")
	ErrUnknownFunction    = xerrors.New("unknown function")
	ErrDivisionByZero     = xerrors.New("division by zero")
	ErrModuloByZero       = xerrors.New("modulo by zero")
	ErrInvariantBroken    = xerrors.New("internal invariant broken")
	ErrUnknownCharacter   = xerrors.New("unrecognized character")
)

// Error is the concrete type returned for every taxonomy member. It
// carries the sentinel it wraps (for errors.Is), an optional source
// position locating the parsed text responsible, and an xerrors.Frame
// locating the Go call site that raised it.
type Error struct {
	kind    error
	Detail  string
	Pos     token.SourcePosition
	HasPos  bool
	frame   xerrors.Frame
}

func newError(kind error, detail string, pos *token.SourcePosition) *Error {
	e := &Error{kind: kind, Detail: detail, frame: xerrors.Caller(2)}
	if pos != nil {
		e.Pos = *pos
		e.HasPos = true
	}
	return e
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.kind.Error()
	}
	if e.HasPos {
		return fmt.Sprintf("%s: %s (%s)", e.kind.Error(), e.Detail, e.Pos)
	}
	return fmt.Sprintf("%s: %s", e.kind.Error(), e.Detail)
}

// Unwrap exposes the taxonomy sentinel so errors.Is(err, perr.ErrNoParse)
// and similar checks work against a returned *Error.
func (e *Error) Unwrap() error {
	return e.kind
}

// FormatError implements xerrors.Formatter so %+v prints the raise-site
// frame alongside the message.
func (e *Error) FormatError(p xerrors.Printer) error {
	p.Print(e.Error())
	e.frame.Format(p)
	return nil
}

func (e *Error) Format(f fmt.State, c rune) {
	xerrors.FormatError(e, f, c)
}

// UnknownRule reports that a sub-rule reference names a rule never
// registered with the RuleSet.
func UnknownRule(name string) *Error {
	return newError(ErrUnknownRule, fmt.Sprintf("rule %q", name), nil)
}

// NoTopRule reports that RuleSet.Check could not determine a unique top
// rule (zero or more than one candidate rule is unreferenced by any
// other rule).
func NoTopRule() *Error {
	return newError(ErrNoTopRule, "", nil)
}

// NoParse reports that the parser exhausted every alternative at the top
// rule without matching the full input.
func NoParse(pos token.SourcePosition) *Error {
	return newError(ErrNoParse, "", &pos)
}

// TooNested reports that recursive descent exceeded the depth guard.
func TooNested(pos token.SourcePosition) *Error {
	return newError(ErrTooNested, "", &pos)
}

// InvalidIdentifier reports that a constant or function name fails the
// identifier syntax matheval requires.
func InvalidIdentifier(name string) *Error {
	return newError(ErrInvalidIdentifier, fmt.Sprintf("%q", name), nil)
}

// UnknownIdentifier reports that an expression referenced a name not
// registered as a constant.
func UnknownIdentifier(name string, pos token.SourcePosition) *Error {
	return newError(ErrUnknownIdentifier, fmt.Sprintf("%q", name), &pos)
}

// UnknownFunction reports that an expression called a function name/arity
// combination that was never registered.
func UnknownFunction(name string, arity int, pos token.SourcePosition) *Error {
	return newError(ErrUnknownFunction, fmt.Sprintf("%q/%d", name, arity), &pos)
}

// DivisionByZero reports a division whose divisor evaluated to zero,
// under a policy that does not ignore it.
func DivisionByZero(pos token.SourcePosition) *Error {
	return newError(ErrDivisionByZero, "", &pos)
}

// ModuloByZero reports a modulo whose divisor evaluated to zero, under a
// policy that does not ignore it.
func ModuloByZero(pos token.SourcePosition) *Error {
	return newError(ErrModuloByZero, "", &pos)
}

// InvariantBroken reports a condition that should be unreachable given a
// checked RuleSet; it indicates a bug in the toolkit itself rather than
// malformed input.
func InvariantBroken(detail string) *Error {
	return newError(ErrInvariantBroken, detail, nil)
}

// UnknownCharacter reports a character the tokenizer could not match
// under token.ErrorOnUnmatched.
func UnknownCharacter(r rune, pos token.SourcePosition) *Error {
	return newError(ErrUnknownCharacter, fmt.Sprintf("%q", r), &pos)
}
