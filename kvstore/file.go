package kvstore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var _ Store = (*FileStore)(nil)

// FileStore persists keys as a JSON object in a single file. Every Set/Delete
// rewrites the file through a temp-file rename, so a completed call is durable
// and a crashed one leaves the previous contents intact.
type FileStore struct {
	mu     sync.Mutex
	path   string
	items  map[string]string
	logger zerolog.Logger
}

// NewFileStore loads (or creates) the JSON file at path. An unreadable or
// malformed file is treated as empty and overwritten on the next write; this
// mirrors the self-healing behavior of the collection layer above it.
func NewFileStore(path string) (*FileStore, error) {
	fs := &FileStore{
		path:   path,
		items:  make(map[string]string),
		logger: log.Logger,
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fs, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, &fs.items); err != nil {
		fs.logger.Warn().Str("path", path).Err(err).Msg("discarding corrupt state file")
		fs.items = make(map[string]string)
	}
	return fs, nil
}

func (fs *FileStore) Get(ctx context.Context, key string) (string, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	v, ok := fs.items[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return v, nil
}

func (fs *FileStore) Set(ctx context.Context, key, value string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.items[key] = value
	return fs.flushLocked()
}

func (fs *FileStore) Delete(ctx context.Context, key string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if _, ok := fs.items[key]; !ok {
		return nil
	}
	delete(fs.items, key)
	return fs.flushLocked()
}

func (fs *FileStore) flushLocked() error {
	data, err := json.Marshal(fs.items)
	if err != nil {
		return err
	}
	tmp := fs.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, fs.path)
}
