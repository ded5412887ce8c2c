// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package numeric supplies the per-type arithmetic capabilities matheval
// needs: literal syntax, parsing, signedness, float-ness, and modulo,
// for the closed set of numeric types the original evaluator supported.
package numeric

import (
	"math"
	"strconv"
)

// Number is the closed set of numeric types an Evaluator can be
// instantiated over.
type Number interface {
	~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Traits supplies the capabilities numeric.Number's generic constraint
// can't express directly: signedness, float-ness, a literal-matching
// regex fragment, parsing, and modulo.
type Traits[T Number] struct {
	// IsSigned reports whether T can represent negative values.
	IsSigned bool
	// IsFloat reports whether T has a fractional component.
	IsFloat bool
	// LiteralPattern is the regex fragment (no anchors) matching a bare
	// numeric literal of this type, e.g. digits only for unsigned
	// integers, or a float syntax with optional exponent for floats.
	LiteralPattern string
	// BitSize is passed to strconv when parsing.
	BitSize int

	parse func(string) (T, error)
	mod   func(a, b T) T
}

// Parse converts literal text (already matched by LiteralPattern) into a
// T.
func (tr Traits[T]) Parse(literal string) (T, error) {
	return tr.parse(literal)
}

// Modulo computes a % b following this type's semantics: integer
// remainder for integral types, C-style fmod for floating point types.
func (tr Traits[T]) Modulo(a, b T) T {
	return tr.mod(a, b)
}

const (
	uintLiteral = `[0-9]+`
	// intLiteral carries no leading sign: the sign is a separate token
	// consumed by the grammar's num rule, and baking -? in here would
	// let the num token win a longest-match tie against a bare minus,
	// mis-tokenizing unspaced binary subtraction like "5-3".
	intLiteral   = `[0-9]+`
	floatLiteral = `([0-9]+(\.[0-9]*)?|\.[0-9]+)([eE][+-]?[0-9]+)?`
)

// Int8Traits returns the Traits for int8.
func Int8Traits() Traits[int8] {
	return Traits[int8]{
		IsSigned: true, LiteralPattern: intLiteral, BitSize: 8,
		parse: func(s string) (int8, error) {
			v, err := strconv.ParseInt(s, 10, 8)
			return int8(v), err
		},
		mod: func(a, b int8) int8 { return a % b },
	}
}

// Int16Traits returns the Traits for int16.
func Int16Traits() Traits[int16] {
	return Traits[int16]{
		IsSigned: true, LiteralPattern: intLiteral, BitSize: 16,
		parse: func(s string) (int16, error) {
			v, err := strconv.ParseInt(s, 10, 16)
			return int16(v), err
		},
		mod: func(a, b int16) int16 { return a % b },
	}
}

// Int32Traits returns the Traits for int32.
func Int32Traits() Traits[int32] {
	return Traits[int32]{
		IsSigned: true, LiteralPattern: intLiteral, BitSize: 32,
		parse: func(s string) (int32, error) {
			v, err := strconv.ParseInt(s, 10, 32)
			return int32(v), err
		},
		mod: func(a, b int32) int32 { return a % b },
	}
}

// Int64Traits returns the Traits for int64.
func Int64Traits() Traits[int64] {
	return Traits[int64]{
		IsSigned: true, LiteralPattern: intLiteral, BitSize: 64,
		parse: func(s string) (int64, error) {
			return strconv.ParseInt(s, 10, 64)
		},
		mod: func(a, b int64) int64 { return a % b },
	}
}

// Uint8Traits returns the Traits for uint8.
func Uint8Traits() Traits[uint8] {
	return Traits[uint8]{
		LiteralPattern: uintLiteral, BitSize: 8,
		parse: func(s string) (uint8, error) {
			v, err := strconv.ParseUint(s, 10, 8)
			return uint8(v), err
		},
		mod: func(a, b uint8) uint8 { return a % b },
	}
}

// Uint16Traits returns the Traits for uint16.
func Uint16Traits() Traits[uint16] {
	return Traits[uint16]{
		LiteralPattern: uintLiteral, BitSize: 16,
		parse: func(s string) (uint16, error) {
			v, err := strconv.ParseUint(s, 10, 16)
			return uint16(v), err
		},
		mod: func(a, b uint16) uint16 { return a % b },
	}
}

// Uint32Traits returns the Traits for uint32.
func Uint32Traits() Traits[uint32] {
	return Traits[uint32]{
		LiteralPattern: uintLiteral, BitSize: 32,
		parse: func(s string) (uint32, error) {
			v, err := strconv.ParseUint(s, 10, 32)
			return uint32(v), err
		},
		mod: func(a, b uint32) uint32 { return a % b },
	}
}

// Uint64Traits returns the Traits for uint64.
func Uint64Traits() Traits[uint64] {
	return Traits[uint64]{
		LiteralPattern: uintLiteral, BitSize: 64,
		parse: func(s string) (uint64, error) {
			return strconv.ParseUint(s, 10, 64)
		},
		mod: func(a, b uint64) uint64 { return a % b },
	}
}

// Float32Traits returns the Traits for float32.
func Float32Traits() Traits[float32] {
	return Traits[float32]{
		IsSigned: true, IsFloat: true, LiteralPattern: floatLiteral, BitSize: 32,
		parse: func(s string) (float32, error) {
			v, err := strconv.ParseFloat(s, 32)
			return float32(v), err
		},
		mod: func(a, b float32) float32 {
			return float32(math.Mod(float64(a), float64(b)))
		},
	}
}

// Float64Traits returns the Traits for float64.
func Float64Traits() Traits[float64] {
	return Traits[float64]{
		IsSigned: true, IsFloat: true, LiteralPattern: floatLiteral, BitSize: 64,
		parse: func(s string) (float64, error) {
			return strconv.ParseFloat(s, 64)
		},
		mod: math.Mod,
	}
}
