package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/nick-dorsch/taskbot/pkg/models"
)

// ErrCorruptSnapshot marks a persisted snapshot that does not parse into
// the expected {tasks, size} document.
var ErrCorruptSnapshot = errors.New("corrupt snapshot")

// snapshotDoc is the persisted layout: a map from string-encoded id to
// task record plus the live-task counter.
type snapshotDoc struct {
	Tasks map[string]*models.Task `json:"tasks"`
	Size  uint64                  `json:"size"`
}

// Serialize produces a complete snapshot of the store.
func (s *Store) Serialize() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.serializeLocked()
}

func (s *Store) serializeLocked() ([]byte, error) {
	doc := snapshotDoc{
		Tasks: make(map[string]*models.Task, len(s.tasks)),
		Size:  s.size,
	}
	for id, t := range s.tasks {
		doc.Tasks[strconv.FormatUint(id, 10)] = t
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return data, nil
}

// Deserialize rebuilds a store from snapshot bytes. Anything structurally
// different from the expected document fails with ErrCorruptSnapshot. The
// id allocator resumes above the highest restored id so a later Create can
// never collide with a restored task.
func Deserialize(data []byte) (*Store, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var doc snapshotDoc
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	// "null" and documents without a tasks map decode to a zero doc
	if doc.Tasks == nil {
		return nil, fmt.Errorf("%w: missing tasks map", ErrCorruptSnapshot)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after document", ErrCorruptSnapshot)
	}

	s := New()
	var maxID uint64
	for key, t := range doc.Tasks {
		id, err := strconv.ParseUint(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: non-numeric task key %q", ErrCorruptSnapshot, key)
		}
		if t == nil {
			return nil, fmt.Errorf("%w: null record for id %d", ErrCorruptSnapshot, id)
		}
		if t.ID != id {
			return nil, fmt.Errorf("%w: key %d does not match record id %d", ErrCorruptSnapshot, id, t.ID)
		}
		stored := *t
		s.tasks[id] = &stored
		if id >= maxID {
			maxID = id + 1
		}
	}
	if doc.Size != uint64(len(s.tasks)) {
		return nil, fmt.Errorf("%w: size %d does not match %d records", ErrCorruptSnapshot, doc.Size, len(s.tasks))
	}

	s.size = doc.Size
	s.nextID = maxID
	return s, nil
}

// Save writes a full snapshot to path, overwriting any prior content.
// Transient write failures are retried up to retries additional attempts.
func (s *Store) Save(path string, retries int) error {
	data, err := s.Serialize()
	if err != nil {
		return err
	}
	return WriteSnapshot(path, data, retries)
}

// WriteSnapshot writes snapshot bytes to path atomically via a temp file.
func WriteSnapshot(path string, data []byte, retries int) error {
	var err error
	for attempt := 0; attempt <= retries; attempt++ {
		if err = writeSnapshotOnce(path, data); err == nil {
			return nil
		}
	}
	return fmt.Errorf("failed to write snapshot after %d attempts: %w", retries+1, err)
}

func writeSnapshotOnce(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	tempFile, err := os.CreateTemp(dir, "snapshot-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if tempFile != nil {
			tempFile.Close()
			os.Remove(tempFile.Name())
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	filename := tempFile.Name()
	tempFile = nil // Prevent defer from removing it

	if err := os.Rename(filename, path); err != nil {
		os.Remove(filename)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// Load restores a store from the snapshot at path. A missing file is the
// first-run case and yields a fresh empty store. Corrupt contents fail in
// strict mode; otherwise the store starts empty and the problem is
// reported on stderr.
func Load(path string, strict bool) (*Store, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	s, err := Deserialize(data)
	if err != nil {
		if strict {
			return nil, err
		}
		fmt.Fprintf(os.Stderr, "Warning: discarding snapshot %s: %v\n", path, err)
		return New(), nil
	}
	return s, nil
}

// Recorder receives a copy of every snapshot that gets written. It is how
// the sqlite archive observes saves without the store importing it.
type Recorder interface {
	Record(ctx context.Context, snapshot []byte) error
}

// EnableAutoSnapshot installs a change hook that persists a snapshot to
// path after every mutating operation, then hands the same bytes to rec if
// one is given. Failures are best-effort: they are reported, never fatal,
// and never roll back the mutation that triggered them.
func (s *Store) EnableAutoSnapshot(path string, retries int, rec Recorder) {
	s.SetOnChange(func(ctx context.Context, snapshot []byte) {
		if err := WriteSnapshot(path, snapshot, retries); err != nil {
			fmt.Fprintf(os.Stderr, "Error exporting snapshot: %v\n", err)
			return
		}
		if rec != nil {
			if err := rec.Record(ctx, snapshot); err != nil {
				fmt.Fprintf(os.Stderr, "Error archiving snapshot: %v\n", err)
			}
		}
	})
}
