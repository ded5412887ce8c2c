// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pcg implements a small, deterministic PCG-XSH-RR pseudo-random
// source, adapted from the teacher's rand package and narrowed to what
// the expression generator needs: seeded construction and bounded
// integers.
package pcg

const (
	multiplier = 6364136223846793005
	increment  = 1442695040888963407
)

// Source is a PCG-XSH-RR generator. The zero value is not usable; use
// New to construct one.
type Source struct {
	state uint64
}

// New returns a Source seeded deterministically from seed: the same seed
// always produces the same stream.
func New(seed uint64) *Source {
	s := &Source{}
	s.state = seed + increment
	s.step()
	return s
}

func (s *Source) step() {
	s.state = s.state*multiplier + increment
}

// Uint64 returns the next pseudo-random value in the stream: a 32-bit
// PCG-XSH-RR output widened to uint64, so it is always below 1<<32.
func (s *Source) Uint64() uint64 {
	old := s.state
	s.step()

	xorshifted := uint32(((old >> 18) ^ old) >> 27)
	rot := uint32(old >> 59)
	return uint64(xorshifted>>rot | xorshifted<<((-rot)&31))
}

// Intn returns a pseudo-random integer in [0, n). It panics if n <= 0.
func (s *Source) Intn(n int) int {
	if n <= 0 {
		panic("pcg: Intn called with n <= 0")
	}
	return int(s.Uint64() % uint64(n))
}

// Float64 returns a pseudo-random value in [0.0, 1.0).
func (s *Source) Float64() float64 {
	return float64(s.Uint64()) / (1 << 32)
}
