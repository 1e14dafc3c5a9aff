package watch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/practicalaiml/askdocs/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingIngestor implements Uploader and Processor, recording calls.
type recordingIngestor struct {
	mu        sync.Mutex
	uploads   map[string]string // file name -> content
	processed []string
}

func newRecordingIngestor() *recordingIngestor {
	return &recordingIngestor{uploads: make(map[string]string)}
}

func (r *recordingIngestor) UploadDocument(ctx context.Context, fileName, title, description, fileType string, content io.Reader) (*core.Document, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.uploads[fileName] = string(data)
	return &core.Document{
		Id:       uuid.New().String(),
		Title:    title,
		FileName: fileName,
		FilePath: "files/" + fileName,
		Status:   core.StatusUploaded,
	}, nil
}

func (r *recordingIngestor) Process(ctx context.Context, documentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.processed = append(r.processed, documentID)
	return nil
}

func (r *recordingIngestor) uploadCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.uploads)
}

func (r *recordingIngestor) upload(name string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	content, ok := r.uploads[name]
	return content, ok
}

func (r *recordingIngestor) processedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.processed)
}

func startWatcher(t *testing.T, dir string, ingestor *recordingIngestor, opts ...Option) *Watcher {
	t.Helper()

	opts = append([]Option{WithDebounce(50 * time.Millisecond)}, opts...)
	w, err := NewWatcher(dir, ingestor, ingestor, opts...)
	require.NoError(t, err)

	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(w.Stop)
	return w
}

func TestNewWatcherValidation(t *testing.T) {
	ingestor := newRecordingIngestor()

	_, err := NewWatcher("", ingestor, ingestor)
	assert.ErrorIs(t, err, ErrDirectoryRequired)

	_, err = NewWatcher(t.TempDir(), nil, ingestor)
	assert.ErrorIs(t, err, ErrUploaderRequired)

	_, err = NewWatcher(t.TempDir(), ingestor, nil)
	assert.ErrorIs(t, err, ErrProcessorRequired)

	_, err = NewWatcher(t.TempDir(), ingestor, ingestor, WithDebounce(0))
	assert.Error(t, err)
}

func TestWatcherIngestsDroppedFile(t *testing.T) {
	dir := t.TempDir()
	ingestor := newRecordingIngestor()
	startWatcher(t, dir, ingestor)

	path := filepath.Join(dir, "services.md")
	require.NoError(t, os.WriteFile(path, []byte("We build prototypes first."), 0o644))

	require.Eventually(t, func() bool {
		return ingestor.uploadCount() == 1 && ingestor.processedCount() == 1
	}, 5*time.Second, 20*time.Millisecond)

	content, ok := ingestor.upload("services.md")
	require.True(t, ok)
	assert.Equal(t, "We build prototypes first.", content)
}

func TestWatcherIgnoresUnmatchedExtensions(t *testing.T) {
	dir := t.TempDir()
	ingestor := newRecordingIngestor()
	startWatcher(t, dir, ingestor)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "photo.jpg"), []byte{0xff, 0xd8}, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("keep this"), 0o644))

	require.Eventually(t, func() bool {
		return ingestor.uploadCount() == 1
	}, 5*time.Second, 20*time.Millisecond)

	_, ok := ingestor.upload("photo.jpg")
	assert.False(t, ok)
}

func TestWatcherCustomExtensions(t *testing.T) {
	dir := t.TempDir()
	ingestor := newRecordingIngestor()
	startWatcher(t, dir, ingestor, WithExtensions([]string{"rst"}))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "guide.rst"), []byte("restructured"), 0o644))

	require.Eventually(t, func() bool {
		return ingestor.uploadCount() == 1
	}, 5*time.Second, 20*time.Millisecond)
}

func TestWatcherCreatesMissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "drops")
	ingestor := newRecordingIngestor()
	startWatcher(t, dir, ingestor)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestWatcherSyncExistingFiles(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 3; i++ {
		name := filepath.Join(dir, fmt.Sprintf("doc-%d.txt", i))
		require.NoError(t, os.WriteFile(name, []byte("existing"), 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "skip.bin"), []byte{0x00}, 0o644))

	ingestor := newRecordingIngestor()
	w, err := NewWatcher(dir, ingestor, ingestor)
	require.NoError(t, err)

	require.NoError(t, w.SyncExistingFiles(context.Background()))
	assert.Equal(t, 3, ingestor.uploadCount())
	assert.Equal(t, 3, ingestor.processedCount())
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	ingestor := newRecordingIngestor()
	w := startWatcher(t, dir, ingestor)

	w.Stop()
	w.Stop()
}
