// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package matheval

import (
	"context"
	"errors"
	"math"
	"testing"

	"go.opentelemetry.io/otel/trace"

	"github.com/parsekit-go/parsekit/numeric"
	"github.com/parsekit-go/parsekit/perr"
)

// TestConcreteScenarios covers spec.md §8's table of must-pass inputs.
func TestConcreteScenarios(t *testing.T) {
	t.Run("int32 precedence", func(t *testing.T) {
		ev := NewEvaluator(numeric.Int32Traits())
		got, err := ev.Evaluate(context.Background(), "1+2+3+4+5+6+7*8*9")
		if err != nil {
			t.Fatalf("Evaluate: %v", err)
		}
		if got != 525 {
			t.Errorf("got %d, want 525", got)
		}
	})

	t.Run("int32 nested grouping", func(t *testing.T) {
		ev := NewEvaluator(numeric.Int32Traits())
		got, err := ev.Evaluate(context.Background(),
			"(((((((1+2)*3+4)*5+6)*7+8)*9+10)*11+12)*13+14)*15")
		if err != nil {
			t.Fatalf("Evaluate: %v", err)
		}
		// The compiler evaluates the same expression as the reference.
		want := int32((((((((1+2)*3+4)*5+6)*7+8)*9+10)*11+12)*13 + 14) * 15)
		if got != want {
			t.Errorf("got %d, want %d", got, want)
		}
	})

	t.Run("double nested unary minus", func(t *testing.T) {
		ev := NewEvaluator(numeric.Float64Traits())
		got, err := ev.Evaluate(context.Background(), "3*-(2+-(4+-(5+-6)))")
		if err != nil {
			t.Fatalf("Evaluate: %v", err)
		}
		// The compiler evaluates the same expression as the reference.
		want := 3 * -(2 + -(4 + -(5 + -6.0)))
		if got != want {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("double exponent literal", func(t *testing.T) {
		ev := NewEvaluator(numeric.Float64Traits())
		got, err := ev.Evaluate(context.Background(), "-3.456e-11")
		if err != nil {
			t.Fatalf("Evaluate: %v", err)
		}
		if got != -3.456e-11 {
			t.Errorf("got %v, want -3.456e-11", got)
		}
	})

	t.Run("double negated groups", func(t *testing.T) {
		ev := NewEvaluator(numeric.Float64Traits())
		cases := map[string]float64{
			"-(3)":      -3,
			"-(2+3)":    -5,
			"3 * -(2)":  -6,
			"3*-(-(2))": 6,
			"-(3+4+5)":  -12,
			"+(2+3)":    5,
			"1+-2":      -1,
			"3*+2":      6,
		}
		for expr, want := range cases {
			got, err := ev.Evaluate(context.Background(), expr)
			if err != nil {
				t.Errorf("Evaluate(%q): %v", expr, err)
				continue
			}
			if got != want {
				t.Errorf("Evaluate(%q) = %v, want %v", expr, got, want)
			}
		}
	})

	t.Run("int32 chained modulo", func(t *testing.T) {
		ev := NewEvaluator(numeric.Int32Traits())
		got, err := ev.Evaluate(context.Background(), "9 % 5 % 3")
		if err != nil {
			t.Fatalf("Evaluate: %v", err)
		}
		if got != 1 {
			t.Errorf("got %d, want 1", got)
		}
	})

	t.Run("constant and function name clash", func(t *testing.T) {
		ev := NewEvaluator(numeric.Float64Traits())
		if err := ev.RegisterConstant("sin", 1.5); err != nil {
			t.Fatalf("RegisterConstant: %v", err)
		}
		if err := ev.RegisterFunction("sin", 1, func(args []float64) (float64, error) {
			return math.Sin(args[0]), nil
		}); err != nil {
			t.Fatalf("RegisterFunction: %v", err)
		}
		got, err := ev.Evaluate(context.Background(), "sin(sin)")
		if err != nil {
			t.Fatalf("Evaluate: %v", err)
		}
		want := math.Sin(1.5)
		if got != want {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("int32 division by zero ignored", func(t *testing.T) {
		ev := NewEvaluator(numeric.Int32Traits())
		ev.SetIgnoreDivisionByZero(true)
		got, err := ev.Evaluate(context.Background(), "10/0")
		if err != nil {
			t.Fatalf("Evaluate: %v", err)
		}
		if got != 0 {
			t.Errorf("got %d, want 0", got)
		}
	})

	t.Run("double two-arg function", func(t *testing.T) {
		ev := NewEvaluator(numeric.Float64Traits())
		if err := ev.RegisterFunction("pow", 2, func(args []float64) (float64, error) {
			return math.Pow(args[0], args[1]), nil
		}); err != nil {
			t.Fatalf("RegisterFunction: %v", err)
		}
		got, err := ev.Evaluate(context.Background(), "pow(2, 3)")
		if err != nil {
			t.Fatalf("Evaluate: %v", err)
		}
		if got != 8.0 {
			t.Errorf("got %v, want 8.0", got)
		}
	})
}

func TestDivisionByZeroDefaultErrors(t *testing.T) {
	ev := NewEvaluator(numeric.Int32Traits())
	_, err := ev.Evaluate(context.Background(), "1/0")
	if !errors.Is(err, perr.ErrDivisionByZero) {
		t.Fatalf("err = %v, want ErrDivisionByZero", err)
	}
}

func TestModuloByZeroDefaultErrors(t *testing.T) {
	ev := NewEvaluator(numeric.Int32Traits())
	_, err := ev.Evaluate(context.Background(), "1%0")
	if !errors.Is(err, perr.ErrModuloByZero) {
		t.Fatalf("err = %v, want ErrModuloByZero", err)
	}
}

func TestModuloByZeroIgnored(t *testing.T) {
	ev := NewEvaluator(numeric.Int32Traits())
	ev.ModByZero = IgnoreZero
	got, err := ev.Evaluate(context.Background(), "7 + 1%0")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if got != 7 {
		t.Errorf("got %d, want 7", got)
	}
}

func TestUnknownIdentifier(t *testing.T) {
	// The identifier branch only exists while constants are registered;
	// an unknown name then fails at lookup time, with its position.
	ev := NewEvaluator(numeric.Int32Traits())
	if err := ev.RegisterConstant("y", 2); err != nil {
		t.Fatalf("RegisterConstant: %v", err)
	}
	_, err := ev.Evaluate(context.Background(), "1+x")
	if !errors.Is(err, perr.ErrUnknownIdentifier) {
		t.Fatalf("err = %v, want ErrUnknownIdentifier", err)
	}
}

func TestIdentifierRejectedWithoutConstants(t *testing.T) {
	// With no constants registered the grammar has no identifier branch
	// at all, so a name is a parse failure, not a lookup failure.
	ev := NewEvaluator(numeric.Int32Traits())
	_, err := ev.Evaluate(context.Background(), "1+x")
	if !errors.Is(err, perr.ErrNoParse) {
		t.Fatalf("err = %v, want ErrNoParse", err)
	}
}

func TestUnknownFunction(t *testing.T) {
	ev := NewEvaluator(numeric.Float64Traits())
	if err := ev.RegisterFunction("f", 1, func(args []float64) (float64, error) {
		return args[0], nil
	}); err != nil {
		t.Fatalf("RegisterFunction: %v", err)
	}
	_, err := ev.Evaluate(context.Background(), "f(1, 2)")
	if !errors.Is(err, perr.ErrUnknownFunction) {
		t.Fatalf("err = %v, want ErrUnknownFunction (wrong arity registered)", err)
	}
}

func TestInvalidIdentifierRejected(t *testing.T) {
	ev := NewEvaluator(numeric.Float64Traits())
	if err := ev.RegisterConstant("1bad", 1.0); !errors.Is(err, perr.ErrInvalidIdentifier) {
		t.Fatalf("err = %v, want ErrInvalidIdentifier", err)
	}
}

func TestUnsignedRejectsUnaryMinus(t *testing.T) {
	ev := NewEvaluator(numeric.Uint32Traits())
	_, err := ev.Evaluate(context.Background(), "-5")
	if err == nil {
		t.Fatal("Evaluate(\"-5\") over an unsigned type succeeded, want a parse error")
	}
	if !errors.Is(err, perr.ErrNoParse) {
		t.Errorf("err = %v, want ErrNoParse", err)
	}
}

// TestUnspacedSubtraction guards against the num token's literal pattern
// swallowing a following unary minus, which would mis-tokenize binary
// subtraction without surrounding spaces.
func TestUnspacedSubtraction(t *testing.T) {
	ev := NewEvaluator(numeric.Int32Traits())
	cases := map[string]int32{
		"5-3":    2,
		"1-2-3":  -4,
		"10-3-2": 5,
		"2*3-1":  5,
	}
	for expr, want := range cases {
		got, err := ev.Evaluate(context.Background(), expr)
		if err != nil {
			t.Errorf("Evaluate(%q): %v", expr, err)
			continue
		}
		if got != want {
			t.Errorf("Evaluate(%q) = %d, want %d", expr, got, want)
		}
	}
}

// TestFloatLiteralEdgeForms covers spec §4.5's literal regex admitting a
// leading-dot and trailing-dot float form ("5.", ".5"), not just
// digit-dot-digit.
func TestFloatLiteralEdgeForms(t *testing.T) {
	ev := NewEvaluator(numeric.Float64Traits())
	cases := map[string]float64{
		".5":    0.5,
		"5.":    5.0,
		"1.-.5": 0.5,
	}
	for expr, want := range cases {
		got, err := ev.Evaluate(context.Background(), expr)
		if err != nil {
			t.Errorf("Evaluate(%q): %v", expr, err)
			continue
		}
		if got != want {
			t.Errorf("Evaluate(%q) = %v, want %v", expr, got, want)
		}
	}
}

func TestRegisterConstantIsLive(t *testing.T) {
	ev := NewEvaluator(numeric.Float64Traits())
	if err := ev.RegisterConstant("pi", 3.0); err != nil {
		t.Fatalf("RegisterConstant: %v", err)
	}
	got, err := ev.Evaluate(context.Background(), "pi*2")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if got != 6.0 {
		t.Errorf("got %v, want 6.0", got)
	}

	// Re-registering the same name marks the grammar dirty again and
	// takes effect on the next Evaluate.
	if err := ev.RegisterConstant("pi", 10.0); err != nil {
		t.Fatalf("RegisterConstant: %v", err)
	}
	got, err = ev.Evaluate(context.Background(), "pi*2")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if got != 20.0 {
		t.Errorf("got %v, want 20.0 after overwrite", got)
	}
}

func TestConstantAndFunctionNames(t *testing.T) {
	ev := NewEvaluator(numeric.Float64Traits())
	ev.RegisterConstant("b", 1)
	ev.RegisterConstant("a", 2)
	ev.RegisterFunction("g", 1, func(args []float64) (float64, error) { return args[0], nil })
	ev.RegisterFunction("g", 2, func(args []float64) (float64, error) { return args[0], nil })
	ev.RegisterFunction("f", 1, func(args []float64) (float64, error) { return args[0], nil })

	wantConsts := []string{"a", "b"}
	gotConsts := ev.ConstantNames()
	if len(gotConsts) != len(wantConsts) {
		t.Fatalf("ConstantNames = %v, want %v", gotConsts, wantConsts)
	}
	for i := range wantConsts {
		if gotConsts[i] != wantConsts[i] {
			t.Errorf("ConstantNames[%d] = %q, want %q", i, gotConsts[i], wantConsts[i])
		}
	}

	wantFuncs := []string{"f", "g"}
	gotFuncs := ev.FunctionNames(0)
	if len(gotFuncs) != len(wantFuncs) {
		t.Fatalf("FunctionNames(0) = %v, want %v", gotFuncs, wantFuncs)
	}
	for i := range wantFuncs {
		if gotFuncs[i] != wantFuncs[i] {
			t.Errorf("FunctionNames(0)[%d] = %q, want %q", i, gotFuncs[i], wantFuncs[i])
		}
	}

	if got := ev.FunctionNames(2); len(got) != 1 || got[0] != "g" {
		t.Errorf("FunctionNames(2) = %v, want [g]", got)
	}
	if !ev.HasFunctions() {
		t.Error("HasFunctions() = false with registered functions")
	}
	if consts := ev.Constants(); len(consts) != 2 || consts["a"] != 2 || consts["b"] != 1 {
		t.Errorf("Constants() = %v, want map[a:2 b:1]", consts)
	}
}

func TestSignednessAndFloatness(t *testing.T) {
	if ev := NewEvaluator(numeric.Uint16Traits()); ev.IsSigned() || ev.IsFloat() {
		t.Errorf("uint16: IsSigned()=%v IsFloat()=%v, want false/false", ev.IsSigned(), ev.IsFloat())
	}
	if ev := NewEvaluator(numeric.Int64Traits()); !ev.IsSigned() || ev.IsFloat() {
		t.Errorf("int64: IsSigned()=%v IsFloat()=%v, want true/false", ev.IsSigned(), ev.IsFloat())
	}
	if ev := NewEvaluator(numeric.Float32Traits()); !ev.IsSigned() || !ev.IsFloat() {
		t.Errorf("float32: IsSigned()=%v IsFloat()=%v, want true/true", ev.IsSigned(), ev.IsFloat())
	}
}

func TestSetIgnoreDivisionByZeroTogglesBoth(t *testing.T) {
	ev := NewEvaluator(numeric.Int32Traits())
	ev.SetIgnoreDivisionByZero(true)
	got, err := ev.Evaluate(context.Background(), "1/0 + 1%0 + 4")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if got != 4 {
		t.Errorf("got %d, want 4 (both zero divisions suppressed)", got)
	}
	ev.SetIgnoreDivisionByZero(false)
	if _, err := ev.Evaluate(context.Background(), "1/0"); !errors.Is(err, perr.ErrDivisionByZero) {
		t.Fatalf("err = %v, want ErrDivisionByZero after toggling back", err)
	}
}

func TestInitBuildsEagerly(t *testing.T) {
	ev := NewEvaluator(numeric.Int32Traits())
	if err := ev.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	p, err := ev.Parser()
	if err != nil {
		t.Fatalf("Parser: %v", err)
	}
	if p == nil {
		t.Fatal("Parser() = nil after Init")
	}
	got, err := ev.Evaluate(context.Background(), "2*3")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if got != 6 {
		t.Errorf("got %d, want 6", got)
	}
	if ev.Expression() != "2*3" {
		t.Errorf("Expression() = %q, want %q", ev.Expression(), "2*3")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	ev := NewEvaluator(numeric.Float64Traits())
	if err := ev.RegisterConstant("pi", 3.0); err != nil {
		t.Fatalf("RegisterConstant: %v", err)
	}
	c := ev.Clone()

	// The clone starts from the same table...
	got, err := c.Evaluate(context.Background(), "pi")
	if err != nil {
		t.Fatalf("clone Evaluate: %v", err)
	}
	if got != 3.0 {
		t.Errorf("clone pi = %v, want 3.0", got)
	}

	// ...but later registrations do not leak between the two.
	if err := c.RegisterConstant("pi", 10.0); err != nil {
		t.Fatalf("RegisterConstant: %v", err)
	}
	got, err = ev.Evaluate(context.Background(), "pi")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if got != 3.0 {
		t.Errorf("original pi = %v after clone mutation, want 3.0", got)
	}
}

func TestClashingNameResolvesAsConstantWhenBare(t *testing.T) {
	ev := NewEvaluator(numeric.Float64Traits())
	if err := ev.RegisterConstant("sin", 1.5); err != nil {
		t.Fatalf("RegisterConstant: %v", err)
	}
	if err := ev.RegisterFunction("sin", 1, func(args []float64) (float64, error) {
		return math.Sin(args[0]), nil
	}); err != nil {
		t.Fatalf("RegisterFunction: %v", err)
	}
	got, err := ev.Evaluate(context.Background(), "sin + 1")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if got != 2.5 {
		t.Errorf("got %v, want 2.5 (bare sin is the constant)", got)
	}
}

func TestEvaluateWithTracerSpansEachCall(t *testing.T) {
	ev := NewEvaluator(numeric.Int32Traits())
	ev.Tracer = trace.NewNoopTracerProvider().Tracer("matheval_test")
	got, err := ev.Evaluate(context.Background(), "1 + 2")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if got != 3 {
		t.Errorf("Evaluate = %d, want 3", got)
	}
}
