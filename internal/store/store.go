package store

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/nick-dorsch/taskbot/pkg/models"
)

// WindowMode selects the agenda date-window predicate.
type WindowMode string

const (
	// WindowTrailing includes any dated task not more than 7 days overdue,
	// with no forward bound. This is the legacy behaviour.
	WindowTrailing WindowMode = "trailing"
	// WindowUpcoming includes tasks due between today and 7 days out.
	WindowUpcoming WindowMode = "upcoming"
)

// Store is the in-memory task repository. It owns the id allocator and is
// the sole mutator of task records; every operation runs under one mutex,
// including the snapshot taken after a mutation, so a read-modify-write
// can never interleave with another writer.
type Store struct {
	mu     sync.Mutex
	tasks  map[uint64]*models.Task
	size   uint64
	nextID uint64
	window WindowMode

	// now is the clock used by the agenda filter.
	now func() time.Time

	onChange         func(ctx context.Context, snapshot []byte)
	onChangeDisabled bool
}

// New returns an empty store with the trailing agenda window.
func New() *Store {
	return &Store{
		tasks:  make(map[uint64]*models.Task),
		window: WindowTrailing,
		now:    time.Now,
	}
}

// SetWindow switches the agenda window predicate.
func (s *Store) SetWindow(mode WindowMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if mode == WindowUpcoming {
		s.window = WindowUpcoming
	} else {
		s.window = WindowTrailing
	}
}

// SetOnChange installs a hook that receives a serialized snapshot after
// every successful write operation. The snapshot is produced while the
// store lock is held; the hook itself runs under the lock and must not
// call back into the store.
func (s *Store) SetOnChange(fn func(ctx context.Context, snapshot []byte)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

func (s *Store) DisableOnChange() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChangeDisabled = true
}

func (s *Store) EnableOnChange() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChangeDisabled = false
}

// triggerChangeLocked fires the on-change hook. Callers must hold s.mu.
// Hook failures are best-effort: the original write is never rolled back.
func (s *Store) triggerChangeLocked(ctx context.Context) {
	if s.onChange == nil || s.onChangeDisabled {
		return
	}
	data, err := s.serializeLocked()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error serializing snapshot for change hook: %v\n", err)
		return
	}
	s.onChange(ctx, data)
}

// Len returns the number of live tasks.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Size returns the live-task counter persisted with snapshots.
func (s *Store) Size() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

// NextID reports the next id the allocator would hand out.
func (s *Store) NextID() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextID
}
