package local

import (
	"context"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/hotpush/backend/internal/graph"
)

// watcher turns raw fsnotify events into debounced, serialized change
// notifications. Bursts of writes to the same path (editors often produce
// several) collapse into the last event seen within the debounce window.
type watcher struct {
	root     string
	ignore   []string
	debounce time.Duration
	emit     func(graph.ChangeEvent)

	fsw    *fsnotify.Watcher
	events chan graph.ChangeEvent

	flushMu    sync.Mutex
	pending    map[string]graph.ChangeEvent
	pendingSeq []string
	flushTimer *time.Timer
}

func newWatcher(root string, ignore []string, debounce time.Duration, emit func(graph.ChangeEvent)) *watcher {
	if debounce <= 0 {
		debounce = 50 * time.Millisecond
	}
	return &watcher{
		root:     root,
		ignore:   ignore,
		debounce: debounce,
		emit:     emit,
		events:   make(chan graph.ChangeEvent, 256),
		pending:  make(map[string]graph.ChangeEvent),
	}
}

func (w *watcher) start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.fsw = fsw

	if err := w.addTree(w.root); err != nil {
		fsw.Close()
		return err
	}

	go w.readLoop(ctx)
	go w.dispatchLoop(ctx)
	return nil
}

// addTree registers dir and every non-ignored directory below it.
func (w *watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if w.ignored(path) {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

func (w *watcher) readLoop(ctx context.Context) {
	defer w.fsw.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("watch: %v", err)
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		}
	}
}

func (w *watcher) handle(ev fsnotify.Event) {
	if w.ignored(ev.Name) {
		return
	}

	// New directories need to be watched as they appear.
	if ev.Op.Has(fsnotify.Create) && isDir(ev.Name) {
		if err := w.addTree(ev.Name); err != nil {
			log.Printf("watch: adding %s: %v", ev.Name, err)
		}
		return
	}

	var typ graph.ChangeType
	switch {
	case ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename):
		typ = graph.ChangeDelete
	case ev.Op.Has(fsnotify.Create):
		typ = graph.ChangeCreate
	case ev.Op.Has(fsnotify.Write):
		typ = graph.ChangeModify
	default:
		return
	}

	w.queue(graph.ChangeEvent{Type: typ, Path: ev.Name})
}

// queue coalesces events per path and schedules a flush.
func (w *watcher) queue(ev graph.ChangeEvent) {
	w.flushMu.Lock()
	defer w.flushMu.Unlock()

	if _, ok := w.pending[ev.Path]; !ok {
		w.pendingSeq = append(w.pendingSeq, ev.Path)
	}
	w.pending[ev.Path] = ev

	if w.flushTimer == nil {
		w.flushTimer = time.AfterFunc(w.debounce, w.flush)
	}
}

func (w *watcher) flush() {
	w.flushMu.Lock()
	pending := w.pending
	seq := w.pendingSeq
	w.pending = make(map[string]graph.ChangeEvent)
	w.pendingSeq = nil
	w.flushTimer = nil
	w.flushMu.Unlock()

	for _, path := range seq {
		select {
		case w.events <- pending[path]:
		default:
			log.Printf("watch: event queue full, dropping %s", path)
		}
	}
}

// dispatchLoop delivers events to the service one at a time.
func (w *watcher) dispatchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-w.events:
			w.emit(ev)
		}
	}
}

func (w *watcher) ignored(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range w.ignore {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
