// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package diag

import "github.com/go-logr/logr"

type logrSink struct {
	l logr.Logger
}

// NewLogr adapts an existing logr.Logger into a Sink. logr has no notion
// of a warn/error split the way the other three backends do, so LevelWarn
// is folded into Info() and LevelError calls Error() with a nil error
// value (logr.Logger.Error requires one).
func NewLogr(l logr.Logger) Sink {
	return &logrSink{l: l}
}

func (s *logrSink) Log(level Level, msg string, fields ...Field) {
	kv := make([]interface{}, 0, 2*len(fields))
	for _, f := range fields {
		kv = append(kv, f.Key, f.Value)
	}
	if level == LevelError {
		s.l.Error(nil, msg, kv...)
		return
	}
	s.l.Info(msg, kv...)
}
