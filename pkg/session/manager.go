package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/bardic/internal/logging"
	"github.com/aretw0/bardic/internal/runtime"
	"github.com/aretw0/bardic/pkg/domain"
	"github.com/aretw0/bardic/pkg/ports"
	"github.com/aretw0/bardic/pkg/runner"
	"github.com/google/uuid"
)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// playSession is one live engine bound to a story.
type playSession struct {
	storyID  string
	engine   *runtime.Engine
	lastUsed time.Time
}

// Manager runs one engine per session and persists snapshots through a
// SaveStore. Engines are not safe for concurrent use, so every operation on a
// session holds that session's lock. Locks are reference counted and removed
// once unused.
type Manager struct {
	loader ports.StoryLoader
	store  ports.SaveStore

	mu       sync.Mutex            // Global lock for the maps
	locks    map[string]*lockEntry // Map of active locks
	sessions map[string]*playSession

	locker     ports.DistributedLocker // Optional distributed locker
	lockTTL    time.Duration
	engineOpts []runtime.EngineOption
	onChange   ChangeListener
	newID      func() string
	now        func() time.Time
	logger     *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking around session operations.
func WithLocker(locker ports.DistributedLocker, ttl time.Duration) Option {
	return func(m *Manager) {
		m.locker = locker
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithEngineOptions sets the options every new engine is built with.
func WithEngineOptions(opts ...runtime.EngineOption) Option {
	return func(m *Manager) {
		m.engineOpts = append(m.engineOpts, opts...)
	}
}

// ChangeListener receives the state changes caused by a session operation.
type ChangeListener func(sessionID string, diff *domain.StateDiff)

// WithChangeListener reports a StateDiff after every choice, input submission
// and load that changed the session.
func WithChangeListener(fn ChangeListener) Option {
	return func(m *Manager) {
		m.onChange = fn
	}
}

// WithIDGenerator replaces the UUID generator for session and save IDs.
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) {
		m.newID = fn
	}
}

// NewManager creates a Manager that loads stories from loader and keeps saves in store.
func NewManager(loader ports.StoryLoader, store ports.SaveStore, opts ...Option) *Manager {
	m := &Manager{
		loader:   loader,
		store:    store,
		locks:    make(map[string]*lockEntry),
		sessions: make(map[string]*playSession),
		lockTTL:  30 * time.Second,
		newID:    uuid.NewString,
		now:      time.Now,
		logger:   logging.NewNop(), // Default to no-op
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
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

// WithLock executes fn while holding the lock for the session.
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
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// withEngine runs fn on the session's engine under its lock.
func (m *Manager) withEngine(ctx context.Context, sessionID string, fn func(context.Context, *playSession) error) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		m.mu.Lock()
		s, ok := m.sessions[sessionID]
		if ok {
			s.lastUsed = m.now()
		}
		m.mu.Unlock()
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sessionID)
		}
		return fn(ctx, s)
	})
}

// mutate is withEngine for operations that change state. When a listener is
// set it snapshots the engine around fn and reports the difference.
func (m *Manager) mutate(ctx context.Context, sessionID string, fn func(context.Context, *playSession) error) error {
	return m.withEngine(ctx, sessionID, func(ctx context.Context, s *playSession) error {
		if m.onChange == nil {
			return fn(ctx, s)
		}
		before, _ := s.engine.SaveState()
		if err := fn(ctx, s); err != nil {
			return err
		}
		after, err := s.engine.SaveState()
		if err != nil {
			m.logger.Warn("failed to snapshot session", "session_id", sessionID, "err", err)
			return nil
		}
		if diff := domain.Diff(before, after); diff != nil {
			m.onChange(sessionID, diff)
		}
		return nil
	})
}

func (m *Manager) newEngine(ctx context.Context, storyID string) (*runtime.Engine, error) {
	doc, err := m.loader.Load(ctx, storyID)
	if err != nil {
		return nil, err
	}
	opts := m.engineOpts
	if doc.StoryID() == "" {
		opts = append(slices.Clip(opts), runtime.WithStoryIdentity(storyID, doc.Metadata["title"]))
	}
	return runtime.NewEngine(doc, opts...)
}

func (m *Manager) register(storyID string, engine *runtime.Engine) string {
	id := m.newID()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = &playSession{storyID: storyID, engine: engine, lastUsed: m.now()}
	return id
}

// Start creates a session on storyID and renders its initial passage.
func (m *Manager) Start(ctx context.Context, storyID string) (string, *domain.Output, error) {
	engine, err := m.newEngine(ctx, storyID)
	if err != nil {
		return "", nil, err
	}
	out, err := engine.Start(ctx)
	if err != nil {
		return "", nil, err
	}
	id := m.register(storyID, engine)
	m.logger.Info("session started", "session_id", id, "story_id", storyID)
	return id, out, nil
}

// Resume creates a session on storyID restored from a stored save.
func (m *Manager) Resume(ctx context.Context, storyID, saveID string) (string, *domain.Output, error) {
	save, err := m.store.Load(ctx, saveID)
	if err != nil {
		return "", nil, err
	}
	engine, err := m.newEngine(ctx, storyID)
	if err != nil {
		return "", nil, err
	}
	out, err := engine.LoadState(ctx, save)
	if err != nil {
		return "", nil, err
	}
	id := m.register(storyID, engine)
	m.logger.Info("session resumed", "session_id", id, "story_id", storyID, "save_id", saveID)
	return id, out, nil
}

// Current returns the session's last rendered passage.
func (m *Manager) Current(ctx context.Context, sessionID string) (*domain.Output, error) {
	var out *domain.Output
	err := m.withEngine(ctx, sessionID, func(ctx context.Context, s *playSession) error {
		var err error
		out, err = s.engine.Current()
		return err
	})
	return out, err
}

// Choose picks an available choice by index.
func (m *Manager) Choose(ctx context.Context, sessionID string, index int) (*domain.Output, error) {
	var out *domain.Output
	err := m.mutate(ctx, sessionID, func(ctx context.Context, s *playSession) error {
		var err error
		out, err = s.engine.Choose(ctx, index)
		return err
	})
	return out, err
}

// SubmitInputs sanitizes and stores input values for the session.
func (m *Manager) SubmitInputs(ctx context.Context, sessionID string, inputs map[string]string) error {
	clean, err := runner.SanitizeInputs(inputs)
	if err != nil {
		return err
	}
	return m.mutate(ctx, sessionID, func(ctx context.Context, s *playSession) error {
		return s.engine.SubmitInputs(ctx, clean)
	})
}

// Info describes the session's story and position.
func (m *Manager) Info(ctx context.Context, sessionID string) (domain.StoryInfo, error) {
	var info domain.StoryInfo
	err := m.withEngine(ctx, sessionID, func(ctx context.Context, s *playSession) error {
		info = s.engine.StoryInfo()
		return nil
	})
	return info, err
}

// Snapshot returns the session's current save envelope without storing it.
func (m *Manager) Snapshot(ctx context.Context, sessionID string) (*domain.SaveData, error) {
	var save *domain.SaveData
	err := m.withEngine(ctx, sessionID, func(ctx context.Context, s *playSession) error {
		var err error
		save, err = s.engine.SaveState()
		return err
	})
	return save, err
}

// Save snapshots the session into the store and returns the new save ID.
func (m *Manager) Save(ctx context.Context, sessionID, saveName string) (string, error) {
	saveID := m.newID()
	err := m.withEngine(ctx, sessionID, func(ctx context.Context, s *playSession) error {
		save, err := s.engine.SaveState()
		if err != nil {
			return err
		}
		save.SaveName = saveName
		if save.Metadata == nil {
			save.Metadata = map[string]string{}
		}
		save.Metadata["session_id"] = sessionID
		return m.store.Save(ctx, saveID, save)
	})
	if err != nil {
		return "", err
	}
	m.logger.Info("session saved", "session_id", sessionID, "save_id", saveID)
	return saveID, nil
}

// Load restores a stored save into an existing session.
func (m *Manager) Load(ctx context.Context, sessionID, saveID string) (*domain.Output, error) {
	var out *domain.Output
	err := m.mutate(ctx, sessionID, func(ctx context.Context, s *playSession) error {
		save, err := m.store.Load(ctx, saveID)
		if err != nil {
			return err
		}
		out, err = s.engine.LoadState(ctx, save)
		return err
	})
	return out, err
}

// End discards a session. Ending an unknown session is not an error.
func (m *Manager) End(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.sessions, sessionID)
		return nil
	})
}

// Sessions returns the IDs of live sessions, sorted.
func (m *Manager) Sessions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Prune ends sessions idle for longer than maxIdle and returns how many were removed.
func (m *Manager) Prune(ctx context.Context, maxIdle time.Duration) int {
	cutoff := m.now().Add(-maxIdle)
	m.mu.Lock()
	var stale []string
	for id, s := range m.sessions {
		if s.lastUsed.Before(cutoff) {
			stale = append(stale, id)
		}
	}
	m.mu.Unlock()

	removed := 0
	for _, id := range stale {
		if err := m.End(ctx, id); err != nil {
			m.logger.Warn("failed to prune session", "session_id", id, "err", err)
			continue
		}
		removed++
	}
	return removed
}

// Stories lists the stories the loader can serve.
func (m *Manager) Stories(ctx context.Context) ([]string, error) {
	return m.loader.List(ctx)
}

// Saves lists stored saves, newest first.
func (m *Manager) Saves(ctx context.Context) ([]domain.SaveSummary, error) {
	return m.store.List(ctx)
}

// DeleteSave removes a stored save.
func (m *Manager) DeleteSave(ctx context.Context, saveID string) error {
	return m.store.Delete(ctx, saveID)
}

// Store returns the underlying save store.
func (m *Manager) Store() ports.SaveStore {
	return m.store
}

// IsNotFound reports whether err means a missing session, story or save.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrSessionNotFound) ||
		errors.Is(err, domain.ErrStoryNotFound) ||
		errors.Is(err, domain.ErrSaveNotFound)
}
