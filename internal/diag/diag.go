// Package diag is optional scan-event logging, following the plain
// log.Printf style used throughout this codebase rather than a
// structured logging framework — there is no logging library in this
// project's dependency stack to begin with.
package diag

import "log"

// Logger gates scan-event logging behind a single on/off flag so a
// caller that doesn't want the noise (the common case, embedding the
// scanner in a larger tool) pays nothing for it.
type Logger struct {
	Enabled bool
}

// New returns a Logger; enabled controls whether its methods print
// anything.
func New(enabled bool) *Logger {
	return &Logger{Enabled: enabled}
}

func (l *Logger) Pushed(path string) {
	if l == nil || !l.Enabled {
		return
	}
	log.Printf("lcfgscan: entering %s", path)
}

func (l *Logger) Popped(path string) {
	if l == nil || !l.Enabled {
		return
	}
	log.Printf("lcfgscan: leaving %s", path)
}

func (l *Logger) Error(err error) {
	if l == nil || !l.Enabled {
		return
	}
	log.Printf("lcfgscan: scan error: %v", err)
}
