package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/GetFlawed/HouseFinder/internal/logger"
)

// Repository abstracts persistence and watching of the snapshot file.
// JSONRepository implements this interface.
type Repository interface {
	Load(ctx context.Context) (*Document, error)
	Save(ctx context.Context, doc *Document) error
	StartWatcher(ctx context.Context, store *Store) error
}

// JSONRepository handles disk persistence and watching of the snapshot file.
type JSONRepository struct {
	path      string
	dir       string
	base      string
	validator *validator.Validate
	log       *logrus.Entry
	mu        sync.Mutex
}

// NewJSONRepository creates a repository for the given snapshot file path.
func NewJSONRepository(path string) (*JSONRepository, error) {
	if path == "" {
		return nil, errors.New("snapshot file path is required")
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	if dir == "" {
		dir = "."
	}

	return &JSONRepository{
		path:      path,
		dir:       dir,
		base:      base,
		validator: validator.New(),
		log:       logger.WithComponent("snapshot"),
	}, nil
}

// Load reads the snapshot file, parses and validates it. A missing or empty
// file means nothing has been seen yet and yields an empty document; a file
// that exists but cannot be parsed is an error, so a corrupt snapshot never
// silently resets the seen set.
func (r *JSONRepository) Load(ctx context.Context) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadUnlocked()
}

// loadUnlocked reads the snapshot file without acquiring the lock (caller must hold it).
func (r *JSONRepository) loadUnlocked() (*Document, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		r.log.Debugf("snapshot file %s not found, starting with empty seen set", r.path)
		return NewDocument(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot file: %w", err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return NewDocument(nil), nil
	}

	doc, legacy, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("parse snapshot file: %w", err)
	}
	if legacy {
		r.log.Infof("legacy snapshot format in %s, next save rewrites it", r.path)
	}

	if r.validator != nil {
		if err := r.validator.Struct(doc); err != nil {
			return nil, fmt.Errorf("validate snapshot file: %w", err)
		}
	}

	return doc, nil
}

// Save normalizes, validates and writes the document atomically to disk.
func (r *JSONRepository) Save(ctx context.Context, doc *Document) error {
	if doc == nil {
		return errors.New("document is nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	doc.Normalize()
	if r.validator != nil {
		if err := r.validator.Struct(doc); err != nil {
			return fmt.Errorf("validate before save: %w", err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saveUnlocked(doc)
}

// saveUnlocked writes the document without acquiring the lock (caller must hold it).
func (r *JSONRepository) saveUnlocked(doc *Document) error {
	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	tmpFile, err := os.CreateTemp(r.dir, r.base+".tmp-")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		tmpFile.Close()
		os.Remove(tmpFile.Name())
	}()

	if _, err := tmpFile.Write(payload); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpFile.Name(), r.path); err != nil {
		return fmt.Errorf("replace snapshot file: %w", err)
	}

	return nil
}

// StartWatcher listens for changes to the snapshot file and refreshes the
// store after a debounce. It watches the parent directory (not the file) so
// atomic replace sequences (temp+rename) are still observed. Events are
// filtered by basename and debounced to avoid double reloads on
// write+chmod/rename cycles. The caller owns the provided context: cancel it
// to stop the goroutine and close the watcher cleanly.
func (r *JSONRepository) StartWatcher(ctx context.Context, store *Store) error {
	if store == nil {
		return errors.New("store is required")
	}
	onChange := r.MakeWatcherCallback(store)

	// The snapshot file may not exist yet on a fresh install, but the watched
	// parent directory has to.
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	if err := watcher.Add(r.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch dir: %w", err)
	}

	go func() {
		defer watcher.Close()

		// debounce coalesces bursty fsnotify events (write+chmod/rename) into
		// a single reload. If the timer is stopped before it fires, the
		// scheduled onChange will not run.
		var debounce *time.Timer
		schedule := func() {
			if debounce != nil {
				if !debounce.Stop() {
					select {
					case <-debounce.C:
					default:
					}
				}
			}
			debounce = time.AfterFunc(200*time.Millisecond, onChange)
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != r.base {
					continue
				}
				// Write/Create/Chmod cover normal edits and atomic replace;
				// Remove/Rename means the file was moved, reload picks up the
				// replacement.
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Chmod|fsnotify.Remove|fsnotify.Rename) != 0 {
					schedule()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				r.log.Warnf("watcher error: %v", err)
			}
		}
	}()

	return nil
}

// MakeWatcherCallback returns a callback that reloads the store from disk
// when the file holds a newer or different snapshot. External edits to the
// snapshot file (an operator trimming the seen set to replay notifications)
// become visible to the daemon without a restart.
func (r *JSONRepository) MakeWatcherCallback(store *Store) func() {
	return func() {
		diskDoc, err := r.Load(context.Background())
		if err != nil {
			r.log.Warnf("watch reload failed: %v", err)
			return
		}

		storeLastUpdate := store.LastUpdate()
		diskLastUpdate := diskDoc.Metadata.LastUpdate

		if diskLastUpdate < storeLastUpdate {
			r.log.Debugf("disk snapshot is older than store: disk=%d store=%d", diskLastUpdate, storeLastUpdate)
			return
		}

		current := store.Current()
		if diskLastUpdate == storeLastUpdate && SameSeen(&current, diskDoc) {
			return
		}

		store.Replace(*diskDoc)
		r.log.Infof("snapshot store reloaded from disk, %d seen links", len(diskDoc.Seen))
	}
}
