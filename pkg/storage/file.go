package storage

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const fileExt = ".json"

// File is a directory-backed store: one file per key, cross-process change
// events via fsnotify. Two processes pointing File stores at the same
// directory behave like two browser tabs sharing localStorage: each sees
// the other's writes through Watch, never its own.
type File struct {
	dir     string
	log     zerolog.Logger
	watcher *fsnotify.Watcher

	mu       sync.Mutex
	watchers map[uint64]func(Event)
	nextID   uint64

	// selfOps counts in-flight local writes per filename so the fsnotify
	// loop can swallow their echoes.
	selfOps map[string]int

	done chan struct{}
}

// FileOption configures a File store.
type FileOption func(*File)

// WithFileLogger sets the logger for watch-loop failures. Default: no-op.
func WithFileLogger(log zerolog.Logger) FileOption {
	return func(f *File) {
		f.log = log
	}
}

// NewFile opens (creating if needed) a directory-backed store at dir and
// starts its change watcher.
func NewFile(dir string, opts ...FileOption) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch store dir: %w", err)
	}

	f := &File{
		dir:      dir,
		log:      zerolog.Nop(),
		watcher:  watcher,
		watchers: make(map[uint64]func(Event)),
		selfOps:  make(map[string]int),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(f)
	}

	go f.watchLoop()
	return f, nil
}

// filename maps a key to its file name, escaping path separators.
func filename(key string) string {
	return url.PathEscape(key) + fileExt
}

// keyOf is the inverse of filename; ok is false for foreign files.
func keyOf(name string) (string, bool) {
	if !strings.HasSuffix(name, fileExt) {
		return "", false
	}
	key, err := url.PathUnescape(strings.TrimSuffix(name, fileExt))
	if err != nil {
		return "", false
	}
	return key, true
}

// Get implements Store.
func (f *File) Get(_ context.Context, key string) ([]byte, bool, error) {
	data, err := os.ReadFile(filepath.Join(f.dir, filename(key)))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %q: %w", key, err)
	}
	return data, true, nil
}

// Set implements Store. The value lands via write-to-temp-then-rename so
// other processes never observe a partial file and the local echo is a
// single directory event.
func (f *File) Set(_ context.Context, key string, value []byte) error {
	name := filename(key)
	tmp, err := os.CreateTemp(f.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("write %q: %w", key, err)
	}
	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %q: %w", key, err)
	}

	f.markSelfOp(name)
	if err := os.Rename(tmp.Name(), filepath.Join(f.dir, name)); err != nil {
		f.unmarkSelfOp(name)
		os.Remove(tmp.Name())
		return fmt.Errorf("write %q: %w", key, err)
	}
	return nil
}

// Delete implements Store.
func (f *File) Delete(_ context.Context, key string) error {
	name := filename(key)

	f.markSelfOp(name)
	err := os.Remove(filepath.Join(f.dir, name))
	if os.IsNotExist(err) {
		f.unmarkSelfOp(name)
		return nil
	}
	if err != nil {
		f.unmarkSelfOp(name)
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

// Watch implements Watchable.
func (f *File) Watch(fn func(Event)) (cancel func()) {
	f.mu.Lock()
	f.nextID++
	id := f.nextID
	f.watchers[id] = fn
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		delete(f.watchers, id)
		f.mu.Unlock()
	}
}

// Close stops the watch loop and releases the fsnotify watcher.
func (f *File) Close() error {
	select {
	case <-f.done:
		return nil
	default:
	}
	close(f.done)
	return f.watcher.Close()
}

func (f *File) markSelfOp(name string) {
	f.mu.Lock()
	f.selfOps[name]++
	f.mu.Unlock()
}

func (f *File) unmarkSelfOp(name string) {
	f.mu.Lock()
	if f.selfOps[name] > 0 {
		f.selfOps[name]--
	}
	f.mu.Unlock()
}

// consumeSelfOp reports whether the event for name is this process's own
// echo, consuming one pending marker if so.
func (f *File) consumeSelfOp(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.selfOps[name] > 0 {
		f.selfOps[name]--
		return true
	}
	return false
}

func (f *File) watchLoop() {
	for {
		select {
		case <-f.done:
			return
		case ev, ok := <-f.watcher.Events:
			if !ok {
				return
			}
			f.handleFsEvent(ev)
		case err, ok := <-f.watcher.Errors:
			if !ok {
				return
			}
			f.log.Warn().Err(err).Str("dir", f.dir).Msg("store watch error")
		}
	}
}

func (f *File) handleFsEvent(ev fsnotify.Event) {
	name := filepath.Base(ev.Name)
	key, ok := keyOf(name)
	if !ok {
		return
	}

	switch {
	case ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Write):
		if f.consumeSelfOp(name) {
			return
		}
		data, err := os.ReadFile(ev.Name)
		if err != nil {
			f.log.Warn().Err(err).Str("key", key).Msg("read changed entry")
			return
		}
		f.notify(Event{Key: key, Value: data})
	case ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename):
		if f.consumeSelfOp(name) {
			return
		}
		f.notify(Event{Key: key})
	}
}

func (f *File) notify(ev Event) {
	f.mu.Lock()
	fire := make([]func(Event), 0, len(f.watchers))
	for _, fn := range f.watchers {
		fire = append(fire, fn)
	}
	f.mu.Unlock()

	for _, fn := range fire {
		fn(ev)
	}
}
