// Copyright 2025 Practical AI & ML
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package watch

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/practicalaiml/askdocs/core"
)

// DefaultDebounce is how long a file must sit unchanged before it is
// ingested. Editors and copies emit bursts of write events; ingesting on
// the first one would pick up half-written files.
const DefaultDebounce = 400 * time.Millisecond

// defaultExtensions matches the file types the plain-text extractor accepts.
var defaultExtensions = []string{"txt", "md", "csv", "html", "json", "xml", "log"}

// Uploader registers a dropped file as a document. *askdocs.KnowledgeBase
// satisfies this interface.
type Uploader interface {
	UploadDocument(ctx context.Context, fileName, title, description, fileType string, content io.Reader) (*core.Document, error)
}

// Processor runs ingestion for an uploaded document. *ingestion.Pipeline
// satisfies this interface.
type Processor interface {
	Process(ctx context.Context, documentID string) error
}

// Watcher ingests files dropped into a directory. Every file that settles
// in the watched directory becomes a new document upload followed by a
// processing run. Removing a file does not remove its document.
type Watcher struct {
	dir        string
	uploader   Uploader
	processor  Processor
	extensions []string
	debounce   time.Duration
	logger     *slog.Logger

	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	debounceMap map[string]*time.Timer
	started     bool
	done        chan struct{}
	stopOnce    sync.Once
}

// Option configures a Watcher.
type Option func(*Watcher) error

// WithDebounce sets how long a file must sit unchanged before ingestion.
// Default is DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) error {
		if d <= 0 {
			return fmt.Errorf("debounce must be positive, got %v", d)
		}
		w.debounce = d
		return nil
	}
}

// WithExtensions sets which file extensions are ingested (without dots).
// Default covers the plain-text types.
func WithExtensions(extensions []string) Option {
	return func(w *Watcher) error {
		if len(extensions) == 0 {
			return fmt.Errorf("extensions cannot be empty")
		}
		w.extensions = extensions
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		w.logger = logger
		return nil
	}
}

// NewWatcher creates a watcher over the given drop directory.
func NewWatcher(dir string, uploader Uploader, processor Processor, opts ...Option) (*Watcher, error) {
	if dir == "" {
		return nil, ErrDirectoryRequired
	}
	if uploader == nil {
		return nil, ErrUploaderRequired
	}
	if processor == nil {
		return nil, ErrProcessorRequired
	}

	w := &Watcher{
		dir:         dir,
		uploader:    uploader,
		processor:   processor,
		extensions:  defaultExtensions,
		debounce:    DefaultDebounce,
		debounceMap: make(map[string]*time.Timer),
		done:        make(chan struct{}),
		logger:      slog.Default().With("component", "watch"),
	}
	for _, opt := range opts {
		if err := opt(w); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// Start begins watching. The drop directory is created if missing. The
// watcher runs until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		w.mu.Unlock()
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	if err := watcher.Add(w.dir); err != nil {
		watcher.Close()
		w.mu.Unlock()
		return err
	}

	w.watcher = watcher
	w.started = true
	w.mu.Unlock()

	w.logger.Info("watching drop directory", "dir", w.dir)
	go w.run(ctx)
	return nil
}

func (w *Watcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if err != nil {
				w.logger.Warn("watcher error", "error", err)
			}
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, ev fsnotify.Event) {
	switch {
	case ev.Op.Has(fsnotify.Create), ev.Op.Has(fsnotify.Write):
		info, err := os.Stat(ev.Name)
		if err != nil || info.IsDir() {
			return
		}
		if w.matchExtension(ev.Name) {
			w.debounceIngest(ctx, ev.Name)
		}
	case ev.Op.Has(fsnotify.Remove), ev.Op.Has(fsnotify.Rename):
		w.cancelDebounce(ev.Name)
	}
}

func (w *Watcher) matchExtension(path string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, e := range w.extensions {
		if strings.TrimPrefix(strings.ToLower(e), ".") == ext {
			return true
		}
	}
	return false
}

func (w *Watcher) debounceIngest(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.debounceMap[path]; ok {
		t.Stop()
	}
	w.debounceMap[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.debounceMap, path)
		w.mu.Unlock()
		if err := w.ingestFile(ctx, path); err != nil {
			w.logger.Error("failed to ingest dropped file", "path", path, "error", err)
		}
	})
}

func (w *Watcher) cancelDebounce(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.debounceMap[path]; ok {
		t.Stop()
		delete(w.debounceMap, path)
	}
}

// ingestFile uploads one settled file and runs it through the pipeline.
func (w *Watcher) ingestFile(ctx context.Context, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	fileName := filepath.Base(path)
	fileType := mime.TypeByExtension(filepath.Ext(path))

	doc, err := w.uploader.UploadDocument(ctx, fileName, fileName, "", fileType, file)
	if err != nil {
		return err
	}

	w.logger.Info("ingesting dropped file", "path", path, "document_id", doc.Id)
	return w.processor.Process(ctx, doc.Id)
}

// SyncExistingFiles ingests matching files already present in the drop
// directory. Call after Start to pick up files dropped while the watcher
// was down.
func (w *Watcher) SyncExistingFiles(ctx context.Context) error {
	return filepath.WalkDir(w.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if !w.matchExtension(path) {
			return nil
		}
		if err := w.ingestFile(ctx, path); err != nil {
			w.logger.Error("failed to ingest existing file", "path", path, "error", err)
		}
		return nil
	})
}

// Stop stops the watcher and releases resources.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started || w.watcher == nil {
		w.mu.Unlock()
		return
	}
	for path, t := range w.debounceMap {
		t.Stop()
		delete(w.debounceMap, path)
	}
	w.watcher.Close()
	w.watcher = nil
	w.started = false
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })
}
