// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package diag

import "github.com/sirupsen/logrus"

type logrusSink struct {
	l *logrus.Logger
}

// NewLogrus adapts an existing *logrus.Logger into a Sink.
func NewLogrus(l *logrus.Logger) Sink {
	return &logrusSink{l: l}
}

func (s *logrusSink) Log(level Level, msg string, fields ...Field) {
	lf := make(logrus.Fields, len(fields))
	for _, f := range fields {
		lf[f.Key] = f.Value
	}
	entry := s.l.WithFields(lf)
	switch level {
	case LevelDebug:
		entry.Debug(msg)
	case LevelWarn:
		entry.Warn(msg)
	case LevelError:
		entry.Error(msg)
	default:
		entry.Info(msg)
	}
}
