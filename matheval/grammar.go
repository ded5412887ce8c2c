// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package matheval

import (
	"github.com/parsekit-go/parsekit/grammar"
	"github.com/parsekit-go/parsekit/parsetree"
	"github.com/parsekit-go/parsekit/token"
)

// buildGrammar constructs the arithmetic-expression grammar for ev's
// numeric type, wiring every callback the stack-discipline evaluator
// needs. The grammar shape, for a signed type with constants and
// functions registered:
//
//	expression : expr
//	expr       : term [opTerm]*
//	opTerm     : plusOrMinus term
//	term       : factor [opFactor]*
//	opFactor   : mulDivMod factor
//	factor     : func | ident | num | quotedExpr
//	num        : [plusOrMinus] unsignedNum
//	ident      : [plusOrMinus] unsignedIdent
//	quotedExpr : [plusOrMinus] lparen expr rparen
//	func       : ident lparen argList rparen
//	argList    : expr [commaExpr]*
//	commaExpr  : comma expr
//
// For an unsigned type the [plusOrMinus] sign slots disappear and
// num/ident are the bare tokens. The ident alternative exists only
// while constants are registered, and func/argList/commaExpr only while
// functions are. factor's alternation runs under First unless a name is
// registered as both a constant and a function, in which case Deepest
// lets "sin" alone select the constant branch while "sin(x)" selects
// the call.
func (ev *Evaluator[T]) buildGrammar() (*grammar.RuleSet, error) {
	signed := ev.traits.IsSigned
	hasConstants := len(ev.constants) > 0
	hasFuncs := len(ev.functions) > 0
	hasIdents := hasConstants || hasFuncs

	numToken := "num"
	identToken := "ident"
	if signed {
		numToken = "unsignedNum"
		identToken = "unsignedIdent"
	}

	rs := grammar.NewRuleSet()

	rs.AddTokens(
		token.TokenSpec{Name: numToken, Pattern: ev.traits.LiteralPattern},
		token.TokenSpec{Name: identToken, Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
		token.TokenSpec{Name: "lparen", Literal: "("},
		token.TokenSpec{Name: "rparen", Literal: ")"},
		token.TokenSpec{Name: "comma", Literal: ","},
		token.TokenSpec{Name: "plus", Literal: "+"},
		token.TokenSpec{Name: "minus", Literal: "-"},
		token.TokenSpec{Name: "star", Literal: "*"},
		token.TokenSpec{Name: "slash", Literal: "/"},
		token.TokenSpec{Name: "percent", Literal: "%"},
	)

	rs.CreateToken(numToken, token.TokenSpec{Name: numToken})
	rs.CreateToken(identToken, token.TokenSpec{Name: identToken})
	rs.CreateToken("lparen", token.TokenSpec{Name: "lparen"})
	rs.CreateToken("rparen", token.TokenSpec{Name: "rparen"})
	rs.CreateToken("comma", token.TokenSpec{Name: "comma"})
	rs.CreateToken("plus", token.TokenSpec{Name: "plus"})
	rs.CreateToken("minus", token.TokenSpec{Name: "minus"})
	rs.CreateToken("star", token.TokenSpec{Name: "star"})
	rs.CreateToken("slash", token.TokenSpec{Name: "slash"})
	rs.CreateToken("percent", token.TokenSpec{Name: "percent"})

	rs.CreateOr("plusOrMinus", "plus", "minus")
	rs.CreateOr("mulDivMod", "star", "slash", "percent")

	// The unary sign lives inside the num/ident/quotedExpr rules and is
	// decoded from the matched node, not folded through the stack.
	if signed {
		rs.CreateAnd("num", "[plusOrMinus]", "unsignedNum")
		rs.CreateAnd("quotedExpr", "[plusOrMinus]", "lparen", "expr", "rparen")
		if hasIdents {
			rs.CreateAnd("ident", "[plusOrMinus]", "unsignedIdent")
		}
	} else {
		rs.CreateAnd("quotedExpr", "lparen", "expr", "rparen")
	}

	if hasFuncs {
		rs.CreateAnd("commaExpr", "comma", "expr")
		rs.CreateAnd("argList", "expr", "[commaExpr]*")
		rs.CreateAnd("func", "ident", "lparen", "argList", "rparen")
	}

	// Function calls go before a bare identifier so that "sin(5)" is not
	// accepted as just "sin" with "(5)" left over: under First, factor
	// commits to the first alternative that matches at all, and never
	// backtracks into a later one once committed.
	var factorSyms []string
	identSlot := -1
	if hasFuncs {
		factorSyms = append(factorSyms, "func")
	}
	if hasConstants {
		identSlot = len(factorSyms)
		factorSyms = append(factorSyms, "ident")
	}
	numSlot := len(factorSyms)
	factorSyms = append(factorSyms, "num", "quotedExpr")

	policy := grammar.First
	if len(ev.clashingIdentifiers()) > 0 {
		policy = grammar.Deepest
	}
	rs.CreateOrWithPolicy("factor", policy, factorSyms...)

	rs.CreateAnd("opFactor", "mulDivMod", "factor")
	rs.CreateAnd("term", "factor", "[opFactor]*")

	rs.CreateAnd("opTerm", "plusOrMinus", "term")
	rs.CreateAnd("expr", "term", "[opTerm]*")

	// expr itself is referenced from the grouping and argument rules, so
	// a separate wrapper has to be the grammar's unreferenced entry
	// point.
	rs.CreateAnd("expression", "expr")

	if err := ev.wireCallbacks(rs, identSlot, numSlot, signed, hasFuncs); err != nil {
		return nil, err
	}
	if err := rs.Check(); err != nil {
		return nil, err
	}
	return rs, nil
}

func (ev *Evaluator[T]) wireCallbacks(rs *grammar.RuleSet, identSlot, numSlot int, signed, hasFuncs bool) error {
	must := func(err error) {
		if err != nil {
			panic(err) // only fails if a rule name above is a typo; a bug, not user error
		}
	}

	if identSlot >= 0 {
		must(rs.ConnectSub("factor", identSlot, func(n grammar.Node) {
			ev.stk.push(entry[T]{kind: entryIdent, node: n.(*parsetree.Node)})
		}))
	}
	must(rs.ConnectSub("factor", numSlot, func(n grammar.Node) {
		ev.stk.push(entry[T]{kind: entryNum, node: n.(*parsetree.Node)})
	}))

	if signed {
		must(rs.Connect("quotedExpr", func(n grammar.Node) {
			ev.onQuotedExpr(n)
		}))
	}

	must(rs.Connect("opTerm", func(n grammar.Node) {
		ev.onBinaryOp(n)
	}))
	must(rs.Connect("opFactor", func(n grammar.Node) {
		ev.onBinaryOp(n)
	}))

	if hasFuncs {
		// argList leaves one marker per argument boundary on the stack;
		// onFuncComplete walks them back to recover the arity.
		must(rs.ConnectSub("argList", 0, func(n grammar.Node) {
			ev.stk.push(entry[T]{kind: entryArgMarker})
		}))
		must(rs.ConnectSub("argList", 1, func(n grammar.Node) {
			ev.stk.push(entry[T]{kind: entryCommaMarker})
		}))
		must(rs.Connect("func", func(n grammar.Node) {
			ev.onFuncComplete(n)
		}))
	}

	return nil
}
