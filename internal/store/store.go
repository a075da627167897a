// Package store owns the canonical in-memory todo list. It is the only
// component that mutates it; every mutation is persisted to the backend
// chosen by the session at call time.
package store

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/tgienger/todo/internal/models"
)

// Store holds the todo list
type Store struct {
	local   Backend
	remote  Backend
	session Session
	logger  log.FieldLogger
	now     func() time.Time

	// serializes mutations so backend calls for one change finish before the next starts
	opMu sync.Mutex

	mu      sync.RWMutex
	todos   []models.Todo
	version uint64
	lastID  int64
}

// Option configures a Store
type Option func(*Store)

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger used for persistence failures
func WithLogger(logger log.FieldLogger) Option {
	return func(s *Store) { s.logger = logger }
}

// New creates an empty store. Call Reload to populate it.
func New(local, remote Backend, session Session, opts ...Option) *Store {
	s := &Store{
		local:   local,
		remote:  remote,
		session: session,
		logger:  log.StandardLogger(),
		now:     time.Now,
		todos:   []models.Todo{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) backend() (Backend, bool) {
	if s.remote != nil && s.session != nil && s.session.IsAuthenticated() {
		return s.remote, true
	}
	return s.local, false
}

// Reload replaces the list with the active backend's contents. On error
// the list is left as it was.
func (s *Store) Reload(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	b, _ := s.backend()
	todos, err := b.Load(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.todos = make([]models.Todo, 0, len(todos))
	for _, t := range todos {
		t.Priority = t.Priority.Normalize()
		if t.Tags == nil {
			t.Tags = []string{}
		}
		s.todos = append(s.todos, t)
		if t.ID > s.lastID {
			s.lastID = t.ID
		}
	}
	s.version++
	return nil
}

// nextID is time derived and strictly increasing. Caller holds s.mu.
func (s *Store) nextIDLocked() int64 {
	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

// Add creates a todo from the draft. The caller validates the text.
// Returns the stored record, or nil when persistence failed and the
// todo was not added.
func (s *Store) Add(ctx context.Context, d models.Draft) *models.Todo {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}

	s.mu.Lock()
	t := models.Todo{
		ID:        s.nextIDLocked(),
		Text:      d.Text,
		Completed: d.Completed,
		Category:  d.Category,
		Priority:  d.Priority.Normalize(),
		CreatedAt: s.now(),
		DueDate:   d.DueDate,
		Tags:      append([]string{}, tags...),
	}
	next := append(s.snapshotLocked(), t)
	s.mu.Unlock()

	b, remote := s.backend()
	saved, err := b.Create(ctx, t, next)
	if err != nil {
		s.logger.WithError(err).WithField("remote", remote).Error("add todo failed")
		return nil
	}

	s.mu.Lock()
	s.todos = append(s.todos, saved)
	if saved.ID > s.lastID {
		s.lastID = saved.ID
	}
	s.version++
	s.mu.Unlock()

	out := saved.Clone()
	return &out
}

// Update merges p into the todo with the given id and stamps ModifiedAt.
// It reports whether the change was applied. An unknown id is a no-op
// and reports false, as does a persistence failure.
func (s *Store) Update(ctx context.Context, id int64, p models.Patch) bool {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	return s.update(ctx, id, p)
}

// Toggle flips the completion flag and reports whether it was applied.
// An unknown id is a no-op.
func (s *Store) Toggle(ctx context.Context, id int64) bool {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	t, ok := s.Get(id)
	if !ok {
		return false
	}
	done := !t.Completed
	return s.update(ctx, id, models.Patch{Completed: &done})
}

// update does the work of Update. Caller holds s.opMu.
func (s *Store) update(ctx context.Context, id int64, p models.Patch) bool {
	s.mu.RLock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.RUnlock()
		return false
	}
	merged := s.todos[idx].Clone()
	s.mu.RUnlock()

	now := s.now()
	if p.Completed != nil && *p.Completed != merged.Completed {
		if *p.Completed {
			merged.CompletedAt = &now
		} else {
			merged.CompletedAt = nil
		}
	}
	p.Apply(&merged)
	merged.ModifiedAt = &now

	s.mu.RLock()
	next := s.snapshotLocked()
	if i := indexOf(next, id); i >= 0 {
		next[i] = merged
	}
	s.mu.RUnlock()

	b, remote := s.backend()
	saved, err := b.Update(ctx, merged, p, next)
	if err != nil {
		s.logger.WithError(err).WithFields(log.Fields{"id": id, "remote": remote}).Error("update todo failed")
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return false
	}
	s.todos[i] = saved
	s.version++
	return true
}

// Delete removes the todo with the given id. An unknown id is a no-op.
// The removal is applied before the backend call and kept even if it fails.
func (s *Store) Delete(ctx context.Context, id int64) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	s.todos = append(s.todos[:idx:idx], s.todos[idx+1:]...)
	s.version++
	next := s.snapshotLocked()
	s.mu.Unlock()

	b, remote := s.backend()
	if err := b.Delete(ctx, []int64{id}, next); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{"id": id, "remote": remote}).Error("delete todo failed")
	}
}

// ClearCompleted removes every completed todo, keeping the rest in order
func (s *Store) ClearCompleted(ctx context.Context) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	var ids []int64
	kept := make([]models.Todo, 0, len(s.todos))
	for _, t := range s.todos {
		if t.Completed {
			ids = append(ids, t.ID)
			continue
		}
		kept = append(kept, t)
	}
	if len(ids) == 0 {
		s.mu.Unlock()
		return
	}
	s.todos = kept
	s.version++
	next := s.snapshotLocked()
	s.mu.Unlock()

	b, remote := s.backend()
	if err := b.Delete(ctx, ids, next); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{"count": len(ids), "remote": remote}).Error("clear completed failed")
	}
}

// List returns a copy of all todos in order
func (s *Store) List() []models.Todo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Get returns a copy of the todo with the given id
func (s *Store) Get(id int64) (models.Todo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.todos[i].Clone(), true
	}
	return models.Todo{}, false
}

// Version increases on every change to the list
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

func (s *Store) snapshotLocked() []models.Todo {
	out := make([]models.Todo, len(s.todos))
	for i, t := range s.todos {
		out[i] = t.Clone()
	}
	return out
}

func (s *Store) indexLocked(id int64) int {
	return indexOf(s.todos, id)
}

func indexOf(todos []models.Todo, id int64) int {
	for i := range todos {
		if todos[i].ID == id {
			return i
		}
	}
	return -1
}
