package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/branchwise/internal/logging"
	"github.com/aretw0/branchwise/internal/runtime"
	"github.com/aretw0/branchwise/pkg/domain"
	"github.com/aretw0/branchwise/pkg/ports"
	"github.com/google/uuid"
)

// DefaultLockTTL bounds how long a distributed session lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Change is the outcome of a committed session operation.
type Change struct {
	SessionID string
	Before    *domain.FlowState
	After     *domain.FlowState
	Diff      *domain.StateDiff
}

// Manager orchestrates session access over a StateStore, ensuring that
// operations on the same session never interleave.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	tree  *domain.Tree
	store ports.StateStore

	mu    sync.Mutex            // guards locks
	locks map[string]*lockEntry // active locks

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
	hooks   domain.LifecycleHooks
	newID   func() string
	now     func() time.Time

	obsMu     sync.RWMutex
	observers []func(Change)
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager and the engines it builds.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithLifecycleHooks registers hooks on every engine the Manager builds.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(m *Manager) {
		m.hooks = domain.MergeHooks(m.hooks, hooks)
	}
}

// WithIDGenerator overrides the session id source (random UUIDs by default).
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) {
		if fn != nil {
			m.newID = fn
		}
	}
}

// WithClock overrides the event timestamp source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager creates a session manager for tree backed by store.
func NewManager(tree *domain.Tree, store ports.StateStore, opts ...Option) *Manager {
	m := &Manager{
		tree:    tree,
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
		newID:   uuid.NewString,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Tree returns the model every session runs over.
func (m *Manager) Tree() *domain.Tree {
	return m.tree
}

// Store returns the underlying state store.
func (m *Manager) Store() ports.StateStore {
	return m.store
}

// Observe registers fn to be called after every committed Change.
// Observers run synchronously, outside the session lock.
func (m *Manager) Observe(fn func(Change)) {
	m.obsMu.Lock()
	defer m.obsMu.Unlock()
	m.observers = append(m.observers, fn)
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST lock entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

func (m *Manager) engineOptions(sessionID string) []runtime.EngineOption {
	return []runtime.EngineOption{
		runtime.WithSessionID(sessionID),
		runtime.WithLifecycleHooks(m.hooks),
		runtime.WithLogger(logging.WithSession(m.logger, sessionID)),
		runtime.WithClock(m.now),
	}
}

// Create starts a new session at the seeded state and persists it.
func (m *Manager) Create(ctx context.Context) (*domain.FlowState, error) {
	return m.CreateWithID(ctx, m.newID())
}

// CreateWithID is Create with a caller chosen identifier. An existing session
// with the same id is overwritten.
func (m *Manager) CreateWithID(ctx context.Context, id string) (*domain.FlowState, error) {
	if id == "" {
		return nil, fmt.Errorf("session id must not be empty")
	}
	var state *domain.FlowState
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		engine, err := runtime.NewEngine(m.tree, m.engineOptions(id)...)
		if err != nil {
			return err
		}
		state = engine.State()
		if err := m.store.Save(ctx, id, state); err != nil {
			return fmt.Errorf("failed to initialize session: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.logger.Info("session created", "session_id", id)
	m.notify(Change{SessionID: id, After: state, Diff: domain.Diff(nil, state)})
	return state, nil
}

// Load retrieves an existing session from the store.
func (m *Manager) Load(ctx context.Context, sessionID string) (*domain.FlowState, error) {
	var state *domain.FlowState
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		state, err = m.store.Load(ctx, sessionID)
		return err
	})
	return state, err
}

// Engine rehydrates a read-only view of a session.
// Transitions on the returned engine are not persisted; use Apply for that.
func (m *Manager) Engine(ctx context.Context, sessionID string) (*runtime.Engine, error) {
	state, err := m.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return runtime.Restore(m.tree, state, m.engineOptions(sessionID)...)
}

// Apply runs fn against the session's engine under the session lock and
// persists the resulting state. Nothing is saved when fn fails, and a
// transition that leaves the state unchanged is not written back.
func (m *Manager) Apply(ctx context.Context, sessionID string, fn func(*runtime.Engine) error) (Change, error) {
	change := Change{SessionID: sessionID}
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		before, err := m.store.Load(ctx, sessionID)
		if err != nil {
			return err
		}
		engine, err := runtime.Restore(m.tree, before, m.engineOptions(sessionID)...)
		if err != nil {
			return err
		}
		// Restore normalizes; diff against what the engine actually starts from.
		change.Before = engine.State()
		if err := fn(engine); err != nil {
			return err
		}
		change.After = engine.State()
		change.Diff = domain.Diff(change.Before, change.After)
		if change.Diff == nil {
			return nil
		}
		return m.store.Save(ctx, sessionID, change.After)
	})
	if err != nil {
		return Change{}, err
	}
	if change.Diff != nil {
		m.notify(change)
	}
	return change, nil
}

// Delete removes the session from the store.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		if _, err := m.store.Load(ctx, sessionID); err != nil {
			return err
		}
		return m.store.Delete(ctx, sessionID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// WithLock executes a function while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			// The caller's ctx may already be canceled; the lock must still go.
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

func (m *Manager) notify(c Change) {
	m.obsMu.RLock()
	observers := append([]func(Change){}, m.observers...)
	m.obsMu.RUnlock()
	for _, fn := range observers {
		fn(c)
	}
}

// IsNotFound reports whether err means the session does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrSessionNotFound)
}
