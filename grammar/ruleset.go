// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package grammar

import (
	"strings"

	"github.com/parsekit-go/parsekit/internal/set"
	"github.com/parsekit-go/parsekit/perr"
	"github.com/parsekit-go/parsekit/token"
)

// RuleSet is a named collection of Rules, together with the single
// TokenSpec set the Tokenizer must use to feed them. It must be
// finalized with Check before a Parser can walk it.
type RuleSet struct {
	order     []string
	rules     map[string]*Rule
	tokens    []token.TokenSpec
	checked   bool
	connected bool
	top       *Rule
}

// NewRuleSet returns an empty RuleSet.
func NewRuleSet() *RuleSet {
	return &RuleSet{rules: make(map[string]*Rule)}
}

// AddTokens registers the TokenSpecs the RuleSet's Token rules recognize.
// Declaration order determines tie-breaking among equal-length matches,
// as for token.Tokenizer.
func (rs *RuleSet) AddTokens(specs ...token.TokenSpec) {
	rs.tokens = append(rs.tokens, specs...)
	rs.checked = false
}

// Tokens returns the TokenSpecs registered with AddTokens, in declaration
// order.
func (rs *RuleSet) Tokens() []token.TokenSpec {
	return rs.tokens
}

func (rs *RuleSet) add(r *Rule) *Rule {
	if _, exists := rs.rules[r.Name]; !exists {
		rs.order = append(rs.order, r.Name)
	}
	rs.rules[r.Name] = r
	rs.checked = false
	return r
}

// CreateToken registers a Token rule named name recognizing spec.
func (rs *RuleSet) CreateToken(name string, spec token.TokenSpec) *Rule {
	return rs.add(&Rule{Name: name, Kind: Token, Token: &spec})
}

// parseSymbol reads one sub-rule symbol: "x" is a plain reference,
// "[x]" an optional one, "x*" a repeated one (one or more matches), and
// "[x]*" both (zero or more matches).
func parseSymbol(sym string) SubRuleRef {
	var ref SubRuleRef
	if strings.HasSuffix(sym, "*") {
		ref.Recursive = true
		sym = sym[:len(sym)-1]
	}
	if strings.HasPrefix(sym, "[") && strings.HasSuffix(sym, "]") {
		ref.Optional = true
		sym = sym[1 : len(sym)-1]
	}
	ref.Target = sym
	return ref
}

func parseSymbols(symbols []string) []SubRuleRef {
	subs := make([]SubRuleRef, len(symbols))
	for i, s := range symbols {
		subs[i] = parseSymbol(s)
	}
	return subs
}

// CreateAnd registers an And rule named name matching the given symbols
// in order. Each symbol may carry the optional/recursive markers
// parseSymbol understands, e.g. "term", "[opTerm]*".
func (rs *RuleSet) CreateAnd(name string, symbols ...string) *Rule {
	return rs.add(&Rule{Name: name, Kind: And, Sub: parseSymbols(symbols)})
}

// CreateOr registers an Or rule named name under the default First
// policy.
func (rs *RuleSet) CreateOr(name string, symbols ...string) *Rule {
	return rs.CreateOrWithPolicy(name, First, symbols...)
}

// CreateOrWithPolicy registers an Or rule named name under the given
// resolution policy.
func (rs *RuleSet) CreateOrWithPolicy(name string, policy ORPolicy, symbols ...string) *Rule {
	return rs.add(&Rule{Name: name, Kind: Or, Sub: parseSymbols(symbols), OrPolicy: policy})
}

// Rule returns the named rule, or nil if no such rule was registered.
func (rs *RuleSet) Rule(name string) *Rule {
	return rs.rules[name]
}

// Connect attaches a callback to a rule by name, fired whenever that rule
// matches, in addition to (and before) any sub-rule-slot callback the
// rule's parent registered for it.
func (rs *RuleSet) Connect(ruleName string, cb Callback) error {
	r, ok := rs.rules[ruleName]
	if !ok {
		return perr.UnknownRule(ruleName)
	}
	r.OnMatch = cb
	if cb != nil {
		rs.connected = true
	}
	return nil
}

// ConnectSub attaches a callback to one sub-rule slot of an And/Or rule,
// fired when that specific slot matches, in addition to the referenced
// rule's own callback.
func (rs *RuleSet) ConnectSub(ruleName string, slot int, cb Callback) error {
	r, ok := rs.rules[ruleName]
	if !ok {
		return perr.UnknownRule(ruleName)
	}
	if slot < 0 || slot >= len(r.Sub) {
		return perr.InvariantBroken("sub-rule slot out of range")
	}
	r.Sub[slot].OnMatch = cb
	if cb != nil {
		rs.connected = true
	}
	return nil
}

// Connected reports whether any callback has been registered on a rule
// or a sub-rule slot. A parser skips the post-parse dispatch walk
// entirely for an unconnected grammar.
func (rs *RuleSet) Connected() bool {
	return rs.connected
}

// TopRule returns the unique rule Check determined to be the grammar's
// entry point. It panics if called before a successful Check.
func (rs *RuleSet) TopRule() *Rule {
	if !rs.checked {
		panic("grammar: TopRule called before a successful Check")
	}
	return rs.top
}

// Check finalizes the RuleSet: it resolves every SubRuleRef.Target to its
// *Rule, verifies every referenced name exists, and determines the
// unique top rule (the one non-Token rule referenced by no rule). Check is
// idempotent: it is safe to call repeatedly, and cheap to call again
// after the RuleSet is unchanged.
func (rs *RuleSet) Check() error {
	for _, name := range rs.order {
		r := rs.rules[name]
		for i := range r.Sub {
			target, ok := rs.rules[r.Sub[i].Target]
			if !ok {
				return perr.UnknownRule(r.Sub[i].Target)
			}
			r.Sub[i].Resolved = target
		}
	}

	referenced := set.New[string]()
	for _, name := range rs.order {
		r := rs.rules[name]
		for _, s := range r.Sub {
			referenced.Add(s.Target)
		}
	}

	var top *Rule
	for _, name := range rs.order {
		r := rs.rules[name]
		if r.Kind == Token || referenced.Contains(name) {
			continue
		}
		if top != nil {
			return perr.NoTopRule()
		}
		top = r
	}
	if top == nil {
		return perr.NoTopRule()
	}

	rs.top = top
	rs.checked = true
	return nil
}

// ToDefinitionString renders every rule's ToDefinitionString, in
// declaration order, one per line.
func (rs *RuleSet) ToDefinitionString() string {
	s := ""
	for i, name := range rs.order {
		if i > 0 {
			s += "\n"
		}
		s += rs.rules[name].ToDefinitionString()
	}
	return s
}
