// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package token implements the tokenizer: it turns source text into a
// stream of ParsedTokens using a longest-match scan over a set of
// TokenSpecs.
package token

import "fmt"

// SourcePosition locates a byte offset within the original input text.
// Offset is the byte offset from the start of the text; Line is the
// 1-based line number the offset falls on.
type SourcePosition struct {
	Offset int
	Line   int
}

func (p SourcePosition) String() string {
	return fmt.Sprintf("line %d, offset %d", p.Line, p.Offset)
}

// Before reports whether p occurs strictly before q in the text.
func (p SourcePosition) Before(q SourcePosition) bool {
	return p.Offset < q.Offset
}
