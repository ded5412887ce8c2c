// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package diag

import "go.uber.org/zap"

type zapSink struct {
	l *zap.Logger
}

// NewZap adapts an existing *zap.Logger into a Sink.
func NewZap(l *zap.Logger) Sink {
	return &zapSink{l: l}
}

func (s *zapSink) Log(level Level, msg string, fields ...Field) {
	zf := make([]zap.Field, len(fields))
	for i, f := range fields {
		zf[i] = zap.Any(f.Key, f.Value)
	}
	switch level {
	case LevelDebug:
		s.l.Debug(msg, zf...)
	case LevelWarn:
		s.l.Warn(msg, zf...)
	case LevelError:
		s.l.Error(msg, zf...)
	default:
		s.l.Info(msg, zf...)
	}
}
