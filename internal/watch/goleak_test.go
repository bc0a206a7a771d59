package watch

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain ensures Stop always leaves the watcher's background
// goroutine and fsnotify's own internals fully torn down.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}
