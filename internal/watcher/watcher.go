// Package watcher reports, with debouncing, when video files change in the
// directory the upload picker is browsing.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/vidbrain/internal/log"
	"github.com/zjrosen/vidbrain/internal/pubsub"
	"github.com/zjrosen/vidbrain/internal/video"
)

// Change is one debounced batch of file events in Dir.
type Change struct {
	Dir   string
	Paths []string // sorted, deduplicated
}

// Watcher monitors one directory at a time.
type Watcher struct {
	fsWatcher  *fsnotify.Watcher
	debounce   time.Duration
	extensions []string
	broker     *pubsub.Broker[Change]
	done       chan struct{}
	stopOnce   sync.Once

	mu      sync.Mutex
	dir     string
	tracked string
}

// Config holds watcher configuration options.
type Config struct {
	Dir         string
	Extensions  []string
	DebounceDur time.Duration
}

// DefaultConfig watches dir for the service's video extensions.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:         dir,
		Extensions:  video.Extensions,
		DebounceDur: 300 * time.Millisecond,
	}
}

// New creates a watcher. Call Start to begin watching.
func New(cfg Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	return &Watcher{
		fsWatcher:  fsw,
		debounce:   cfg.DebounceDur,
		extensions: cfg.Extensions,
		broker:     pubsub.NewBroker[Change](),
		done:       make(chan struct{}),
		dir:        filepath.Clean(cfg.Dir),
	}, nil
}

// Broker returns the feed of debounced changes.
func (w *Watcher) Broker() *pubsub.Broker[Change] {
	return w.broker
}

// Start subscribes for the lifetime of ctx and begins watching the
// configured directory.
func (w *Watcher) Start(ctx context.Context) (<-chan pubsub.Event[Change], error) {
	ch := w.broker.Subscribe(ctx)

	w.mu.Lock()
	dir := w.dir
	w.mu.Unlock()
	if err := w.fsWatcher.Add(dir); err != nil {
		return nil, fmt.Errorf("watching directory %s: %w", dir, err)
	}

	go w.loop()
	log.Debug(log.CatWatcher, "Watching", "dir", dir)
	return ch, nil
}

// Watch moves the watch to dir. Watching the current directory is a no-op.
func (w *Watcher) Watch(dir string) error {
	dir = filepath.Clean(dir)

	w.mu.Lock()
	defer w.mu.Unlock()
	if dir == w.dir {
		return nil
	}
	if err := w.fsWatcher.Add(dir); err != nil {
		return fmt.Errorf("watching directory %s: %w", dir, err)
	}
	_ = w.fsWatcher.Remove(w.dir)
	log.Debug(log.CatWatcher, "Watch moved", "from", w.dir, "to", dir)
	w.dir = dir
	return nil
}

// Track makes path relevant regardless of its extension. Pass "" to stop.
func (w *Watcher) Track(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if path == "" {
		w.tracked = ""
		return
	}
	w.tracked = filepath.Clean(path)
}

// Stop terminates the watcher and releases resources. Safe to call twice.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.fsWatcher.Close()
		w.broker.Close()
	})
	return err
}

// loop processes file system events with debouncing.
func (w *Watcher) loop() {
	var (
		timer   *time.Timer
		pending = make(map[string]struct{})
	)

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !w.isRelevantEvent(event) {
				continue
			}

			pending[filepath.Clean(event.Name)] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case <-func() <-chan time.Time {
			if timer != nil {
				return timer.C
			}
			return nil
		}():
			if len(pending) > 0 {
				w.flush(pending)
				pending = make(map[string]struct{})
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.ErrorErr(log.CatWatcher, "Watch error", err)

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

func (w *Watcher) flush(pending map[string]struct{}) {
	paths := make([]string, 0, len(pending))
	for p := range pending {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	w.mu.Lock()
	dir := w.dir
	w.mu.Unlock()

	log.Debug(log.CatWatcher, "Files changed", "dir", dir, "count", len(paths))
	w.broker.Publish(pubsub.UpdatedEvent, Change{Dir: dir, Paths: paths})
}

// isRelevantEvent reports whether event touches a video or the tracked file.
func (w *Watcher) isRelevantEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}

	name := filepath.Clean(event.Name)
	w.mu.Lock()
	tracked := w.tracked
	w.mu.Unlock()
	if tracked != "" && name == tracked {
		return true
	}
	if len(w.extensions) == 0 {
		return true
	}
	return video.HasVideoExtension(name, w.extensions)
}
