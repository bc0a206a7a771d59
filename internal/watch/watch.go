// Package watch triggers a full rescan whenever any file a previous scan
// touched — the root file or one of its transitive includes — changes on
// disk. It does not attempt incremental re-lexing: an event of any kind
// on any watched path simply invalidates the whole scan.
package watch

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors a fixed set of files and debounces their change events
// down to a single rescan callback.
type Watcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	pending bool
	timer   *time.Timer

	onChange func()

	statsMu    sync.Mutex
	eventCount int64
	errorCount int64
	lastEvent  time.Time
}

// New creates a watcher that waits debounce after the last observed event
// before invoking its rescan callback.
func New(debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: creating fsnotify watcher: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		watcher:  fw,
		debounce: debounce,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Watch registers paths to monitor. Safe to call before Start; calling it
// again after Start adds further paths to the live watcher (used when a
// rescan reveals a different include set).
func (w *Watcher) Watch(paths []string) error {
	for _, p := range paths {
		if err := w.watcher.Add(p); err != nil {
			return fmt.Errorf("watch: adding %s: %w", p, err)
		}
	}
	return nil
}

// Reset drops every currently watched path and registers current in
// their place, for re-arming on a fresh include set after a rescan.
func (w *Watcher) Reset(current []string) error {
	for _, p := range w.watcher.WatchList() {
		_ = w.watcher.Remove(p)
	}
	return w.Watch(current)
}

// Start begins processing fsnotify events on a background goroutine,
// invoking onChange once per debounce window in which at least one event
// arrived.
func (w *Watcher) Start(onChange func()) {
	w.onChange = onChange
	w.wg.Add(1)
	go w.loop()
}

// Stop halts event processing and releases the underlying fsnotify
// watcher. It does not flush a pending debounced event: a rescan racing
// shutdown is not worth the complexity of coordinating with a caller that
// is already tearing down.
func (w *Watcher) Stop() error {
	w.cancel()
	err := w.watcher.Close()
	w.wg.Wait()

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.recordEvent()
			w.scheduleFlush()
			_ = event
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.statsMu.Lock()
			w.errorCount++
			w.statsMu.Unlock()
			log.Printf("lcfgscan: watch error: %v", err)
		}
	}
}

func (w *Watcher) recordEvent() {
	w.statsMu.Lock()
	w.eventCount++
	w.lastEvent = time.Now()
	w.statsMu.Unlock()
}

func (w *Watcher) scheduleFlush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	if !w.pending {
		w.mu.Unlock()
		return
	}
	w.pending = false
	w.mu.Unlock()

	if w.onChange != nil {
		w.onChange()
	}
}

// Stats reports counters since the watcher started.
type Stats struct {
	EventsObserved int64
	ErrorCount     int64
	LastEventTime  time.Time
}

// Stats returns a snapshot of the watcher's counters.
func (w *Watcher) Stats() Stats {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	return Stats{
		EventsObserved: w.eventCount,
		ErrorCount:     w.errorCount,
		LastEventTime:  w.lastEvent,
	}
}
