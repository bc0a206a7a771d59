package diag

import "testing"

func TestDisabledLoggerIsSilentAndNilSafe(t *testing.T) {
	var l *Logger
	l.Pushed("a.cfg")
	l.Popped("a.cfg")
	l.Error(nil)

	off := New(false)
	off.Pushed("a.cfg")
	off.Popped("a.cfg")
	off.Error(nil)
}
