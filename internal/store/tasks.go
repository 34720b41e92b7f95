package store

import (
	"context"
	"time"

	"github.com/nick-dorsch/taskbot/pkg/models"
)

// Create allocates a fresh id and inserts a new task for the given owner.
// The returned value is a copy of the stored record.
func (s *Store) Create(ctx context.Context, ownerID uint64, title string) models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &models.Task{
		ID:      s.nextID,
		OwnerID: ownerID,
		Title:   title,
		State:   models.StateUnset,
	}
	s.nextID++
	s.tasks[t.ID] = t
	s.size++

	s.triggerChangeLocked(ctx)
	return *t
}

// Add inserts or overwrites a task by id. The size counter only moves when
// the id was not already present, so re-adding is idempotent. The allocator
// is kept above any id that enters the store this way.
func (s *Store) Add(ctx context.Context, t models.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[t.ID]; !ok {
		s.size++
	}
	stored := t
	s.tasks[t.ID] = &stored
	if t.ID >= s.nextID {
		s.nextID = t.ID + 1
	}

	s.triggerChangeLocked(ctx)
}

// Delete removes a task by id. Absence is not an error; the counter only
// decrements on an actual removal.
func (s *Store) Delete(ctx context.Context, id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return
	}
	delete(s.tasks, id)
	s.size--

	s.triggerChangeLocked(ctx)
}

// Get returns a copy of the task with the given id.
func (s *Store) Get(id uint64) (models.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return models.Task{}, false
	}
	return *t, true
}

// Update applies fn to the task with the given id and reports whether the
// task existed. This is the only edit path for stored tasks: the mutation
// and the snapshot that follows it happen inside one critical section.
func (s *Store) Update(ctx context.Context, id uint64, fn func(*models.Task)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return false
	}
	fn(t)

	s.triggerChangeLocked(ctx)
	return true
}

// UpdateOwned applies fn to the task only when it belongs to ownerID.
// Another owner's task is indistinguishable from an absent id. Check and
// mutation share one critical section.
func (s *Store) UpdateOwned(ctx context.Context, ownerID, id uint64, fn func(*models.Task)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return false
	}
	fn(t)

	s.triggerChangeLocked(ctx)
	return true
}

// DeleteOwned removes the task only when it belongs to ownerID. Like
// Delete, absence is not an error.
func (s *Store) DeleteOwned(ctx context.Context, ownerID, id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return
	}
	delete(s.tasks, id)
	s.size--

	s.triggerChangeLocked(ctx)
}

// ListOwnerAll returns every task belonging to the owner, in map order.
// Callers that need a stable order must sort.
func (s *Store) ListOwnerAll(ownerID uint64) []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Task
	for _, t := range s.tasks {
		if t.OwnerID == ownerID {
			out = append(out, *t)
		}
	}
	return out
}

// ListOwnerActive returns the owner's tasks that are not Done.
func (s *Store) ListOwnerActive(ownerID uint64) []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Task
	for _, t := range s.tasks {
		if t.OwnerID == ownerID && !t.Done() {
			out = append(out, *t)
		}
	}
	return out
}

// ListOwnerAgenda returns the owner's dated, non-Done tasks that fall
// inside the configured window. Tasks whose due date fails to parse are
// excluded; the command layer validates dates before they get here.
func (s *Store) ListOwnerAgenda(ownerID uint64) []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := midnight(s.now())

	var out []models.Task
	for _, t := range s.tasks {
		if t.OwnerID != ownerID || t.Done() {
			continue
		}
		due, ok := t.Due()
		if !ok {
			continue
		}
		if s.inWindowLocked(today, due) {
			out = append(out, *t)
		}
	}
	return out
}

func (s *Store) inWindowLocked(today, due time.Time) bool {
	switch s.window {
	case WindowUpcoming:
		d := due.Sub(today)
		return d >= 0 && d <= 7*24*time.Hour
	default:
		// At most a week overdue; no bound on how far ahead.
		return today.Sub(due) <= 7*24*time.Hour
	}
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
