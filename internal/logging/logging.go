// Package logging defines the small logger surface the request pipeline depends on.
// The server passes a leveled zap SugaredLogger; nuts.L is the fallback.
package logging

import (
	nuts "github.com/vaudience/go-nuts"
)

// Logger is satisfied by nuts.L and *zap.SugaredLogger.
type Logger interface {
	Infof(template string, args ...interface{})
	Warnf(template string, args ...interface{})
	Errorf(template string, args ...interface{})
}

// Default returns the process-wide logger.
func Default() Logger {
	return nuts.L
}

// WithRequestID returns a logger that prefixes every line with the request id.
func WithRequestID(l Logger, requestID string) Logger {
	if l == nil {
		l = Default()
	}
	if requestID == "" {
		return l
	}
	return &scoped{base: l, prefix: "[" + requestID + "] "}
}

type scoped struct {
	base   Logger
	prefix string
}

func (s *scoped) Infof(template string, args ...interface{}) {
	s.base.Infof(s.prefix+template, args...)
}

func (s *scoped) Warnf(template string, args ...interface{}) {
	s.base.Warnf(s.prefix+template, args...)
}

func (s *scoped) Errorf(template string, args ...interface{}) {
	s.base.Errorf(s.prefix+template, args...)
}
