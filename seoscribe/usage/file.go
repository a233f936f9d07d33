package usage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"codeberg.org/seoscribe/dashboard/internal/logger"
)

var _ Watcher = (*FileBackend)(nil)

// persists all records in one JSON file under the data directory
type FileBackend struct {
	path string
	mu   sync.RWMutex
}

// creates a file backend storing usage.json in dataDir
func NewFileBackend(dataDir string) *FileBackend {
	return &FileBackend{path: filepath.Join(dataDir, "usage.json")}
}

// path of the backing file
func (b *FileBackend) Path() string {
	return b.path
}

func (b *FileBackend) Load(_ context.Context, key string) (*Record, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	records, err := b.readAll()
	if err != nil {
		return nil, err
	}

	return records[key], nil
}

func (b *FileBackend) Save(_ context.Context, key string, rec *Record) error {
	if rec == nil {
		return errors.New("usage record is required")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	records, err := b.readAll()
	if err != nil {
		// corrupt file: start over
		logger.Warn("discarding unreadable usage file", "path", b.path, "error", err)
		records = make(map[string]*Record)
	}

	records[key] = rec

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode usage records: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(b.path), 0o700); err != nil {
		return fmt.Errorf("create usage directory: %w", err)
	}

	tmpPath := b.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("write temp usage file: %w", err)
	}

	if err := os.Rename(tmpPath, b.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("commit usage file: %w", err)
	}

	return nil
}

// watches the usage file for writes by other processes. every change to the
// file is reported; the scope is not checked since all scopes share one file.
func (b *FileBackend) Watch(ctx context.Context, _ string) (<-chan struct{}, error) {
	dir := filepath.Dir(b.path)

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create usage directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	// watch the directory: the file is replaced via rename on every save
	if err := watcher.Add(dir); err != nil {
		watcher.Close() //nolint:errcheck,gosec // best-effort cleanup
		return nil, fmt.Errorf("watch usage directory: %w", err)
	}

	ch := make(chan struct{}, 1)
	target := filepath.Clean(b.path)

	go func() {
		defer close(ch)
		defer watcher.Close() //nolint:errcheck // best-effort cleanup

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}

				if filepath.Clean(event.Name) != target {
					continue
				}

				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}

				select {
				case ch <- struct{}{}:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}

				logger.Warn("usage file watcher error", "path", b.path, "error", err)
			}
		}
	}()

	return ch, nil
}

// missing or empty file reads as no records
func (b *FileBackend) readAll() (map[string]*Record, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return make(map[string]*Record), nil
		}

		return nil, fmt.Errorf("read usage file: %w", err)
	}

	if len(data) == 0 {
		return make(map[string]*Record), nil
	}

	records := make(map[string]*Record)
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode usage file: %w", err)
	}

	// a literal null decodes to a nil map
	if records == nil {
		records = make(map[string]*Record)
	}

	return records, nil
}
