// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package diag

import "github.com/go-kit/kit/log"

type gokitSink struct {
	l log.Logger
}

// NewGoKit adapts an existing go-kit log.Logger into a Sink.
func NewGoKit(l log.Logger) Sink {
	return &gokitSink{l: l}
}

func (s *gokitSink) Log(level Level, msg string, fields ...Field) {
	kv := make([]interface{}, 0, 4+2*len(fields))
	kv = append(kv, "level", level.String(), "msg", msg)
	for _, f := range fields {
		kv = append(kv, f.Key, f.Value)
	}
	// go-kit loggers never fail in a way callers of a diagnostic sink
	// should propagate.
	_ = s.l.Log(kv...)
}
