package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/teemow/taskcal/internal/logging"
	"github.com/teemow/taskcal/internal/storage"
)

// DefaultStorageKey is the namespace key the snapshot is stored under.
const DefaultStorageKey = "todos"

// Store owns the ordered task list and writes it through to a storage.Backend.
type Store struct {
	mu      sync.Mutex
	backend storage.Backend
	key     string
	logger  *slog.Logger
	now     func() time.Time

	tasks  []Task
	lastID int64
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used to derive task IDs.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates an empty store bound to backend under key.
// Call Load to rehydrate the persisted snapshot.
func NewStore(backend storage.Backend, key string, logger *slog.Logger, opts ...Option) *Store {
	if key == "" {
		key = DefaultStorageKey
	}
	s := &Store{
		backend: backend,
		key:     key,
		logger:  logging.WithService(logging.OrDiscard(logger), "task_store"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the in-memory list with the persisted snapshot and returns it.
// A missing or unparseable snapshot yields an empty list. An error is returned only
// when the backend itself failed, in which case the store starts empty.
func (s *Store) Load(ctx context.Context) ([]Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = nil
	s.lastID = 0

	data, err := s.backend.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Debug("no task snapshot found, starting empty", logging.Backend(s.backend.Name()))
			return []Task{}, nil
		}
		return []Task{}, fmt.Errorf("failed to load tasks: %w", err)
	}

	tasks, err := decodeSnapshot(data)
	if err != nil {
		s.logger.Warn("ignoring unparseable task snapshot",
			logging.Backend(s.backend.Name()),
			logging.Err(err))
		return []Task{}, nil
	}

	s.tasks = tasks
	for _, t := range tasks {
		s.lastID = max(s.lastID, t.ID)
	}
	s.logger.Debug("loaded tasks", slog.Int("count", len(tasks)), logging.Backend(s.backend.Name()))
	return cloneTasks(s.tasks), nil
}

// Add validates draft, appends the new task and persists the list.
// On a *ValidationError the store is unchanged. On a *PersistenceError the task is
// returned and kept in memory.
func (s *Store) Add(ctx context.Context, draft Draft) (Task, error) {
	if err := draft.Validate(); err != nil {
		return Task{}, err
	}
	priority, _ := ParsePriority(string(draft.Priority))

	s.mu.Lock()
	defer s.mu.Unlock()

	t := Task{
		ID:          s.nextID(),
		Description: strings.TrimSpace(draft.Description),
		Priority:    priority,
		Date:        clonePtr(draft.Date),
		Time:        clonePtr(draft.Time),
		IsRecurring: draft.IsRecurring,
	}
	if draft.IsRecurring {
		t.RecurringUntil = clonePtr(draft.RecurringUntil)
	}
	s.tasks = append(s.tasks, t)

	return t.clone(), s.persist(ctx, "add")
}

// ToggleComplete flips the completed flag of the task with id.
// found is false, and nothing is written, when no such task exists.
func (s *Store) ToggleComplete(ctx context.Context, id int64) (t Task, found bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.tasks {
		if s.tasks[i].ID != id {
			continue
		}
		s.tasks[i].Completed = !s.tasks[i].Completed
		return s.tasks[i].clone(), true, s.persist(ctx, "toggle")
	}
	return Task{}, false, nil
}

// Clear removes every task and persists the empty list.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = nil
	return s.persist(ctx, "clear")
}

// All returns a copy of the current ordered list.
func (s *Store) All() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneTasks(s.tasks)
}

// Progress counts completed tasks against the total.
func (s *Store) Progress() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := Progress{Total: len(s.tasks)}
	for _, t := range s.tasks {
		if t.Completed {
			p.Completed++
		}
	}
	if p.Total > 0 {
		p.Percent = int(math.Round(float64(p.Completed) * 100 / float64(p.Total)))
	}
	return p
}

// Backend returns the storage backend the store writes to.
func (s *Store) Backend() storage.Backend {
	return s.backend
}

// nextID derives an ID from the clock, bumped past the largest ID seen so far.
// Must be called with s.mu held.
func (s *Store) nextID() int64 {
	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

// persist writes the full list. Must be called with s.mu held.
func (s *Store) persist(ctx context.Context, op string) error {
	data, err := EncodeSnapshot(s.tasks)
	if err == nil {
		err = s.backend.Put(ctx, s.key, data)
	}
	if err != nil {
		s.logger.Error("failed to persist tasks",
			logging.Operation(op),
			logging.Backend(s.backend.Name()),
			logging.Err(err))
		return &PersistenceError{Op: op, Err: err}
	}
	return nil
}

// EncodeSnapshot serialises tasks as a JSON array. A nil list encodes as [].
func EncodeSnapshot(tasks []Task) ([]byte, error) {
	if tasks == nil {
		tasks = []Task{}
	}
	return json.Marshal(tasks)
}

func decodeSnapshot(data []byte) ([]Task, error) {
	var tasks []Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []Task{}
	}
	return tasks, nil
}

func cloneTasks(tasks []Task) []Task {
	out := make([]Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.clone()
	}
	return out
}

func (t Task) clone() Task {
	t.Date = clonePtr(t.Date)
	t.Time = clonePtr(t.Time)
	t.RecurringUntil = clonePtr(t.RecurringUntil)
	return t
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
