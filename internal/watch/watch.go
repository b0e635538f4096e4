// Package watch turns filesystem events on the database file into store change
// notifications, so a running UI picks up writes made by another process.
package watch

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const DefaultDebounce = 150 * time.Millisecond

// Watcher calls notify, at most once per debounce window, after the database
// file or one of its journal siblings changes.
type Watcher struct {
	watcher  *fsnotify.Watcher
	dir      string
	base     string
	notify   func()
	log      *slog.Logger
	debounce time.Duration

	done    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	timer   *time.Timer
	running bool
}

func New(dbPath string, notify func(), logger *slog.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	abs, err := filepath.Abs(dbPath)
	if err != nil {
		abs = dbPath
	}
	return &Watcher{
		watcher:  w,
		dir:      filepath.Dir(abs),
		base:     filepath.Base(abs),
		notify:   notify,
		log:      logger,
		debounce: DefaultDebounce,
		done:     make(chan struct{}),
	}, nil
}

// SetDebounce changes the coalescing window. Call before Start.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return fmt.Errorf("watcher already running")
	}
	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.running = true
	w.wg.Add(1)
	go w.loop()
	return nil
}

// Stop blocks until the event loop has exited. Pending notifications are dropped.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return w.watcher.Close()
	}
	w.running = false
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	close(w.done)
	err := w.watcher.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if w.relevant(ev) {
				w.schedule()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", "err", err)
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	return strings.HasPrefix(filepath.Base(ev.Name), w.base)
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case <-w.done:
			return
		default:
		}
		w.log.Debug("database changed on disk")
		w.notify()
	})
}
