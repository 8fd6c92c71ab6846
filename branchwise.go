package branchwise

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/branchwise/internal/logging"
	"github.com/aretw0/branchwise/internal/runtime"
	"github.com/aretw0/branchwise/pkg/adapters/file"
	"github.com/aretw0/branchwise/pkg/adapters/memory"
	"github.com/aretw0/branchwise/pkg/adapters/remote"
	"github.com/aretw0/branchwise/pkg/domain"
	"github.com/aretw0/branchwise/pkg/layout"
	"github.com/aretw0/branchwise/pkg/ports"
	"github.com/aretw0/branchwise/pkg/session"
	"github.com/aretw0/branchwise/pkg/summary"
)

// Engine is the high-level entry point of the library. It owns a validated
// tree and a session manager over a state store.
type Engine struct {
	tree        *domain.Tree
	loader      ports.TreeLoader
	store       ports.StateStore
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
	sessionOpts []session.Option
	sessions    *session.Manager
	Name        string
}

// Option configures the Engine.
type Option func(*Engine)

// WithLoader injects a custom TreeLoader; source then only names the tree.
func WithLoader(l ports.TreeLoader) Option {
	return func(e *Engine) {
		e.loader = l
	}
}

// WithStore sets where sessions are kept. The default is in memory.
func WithStore(s ports.StateStore) Option {
	return func(e *Engine) {
		e.store = s
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks on every session.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithSessionOptions forwards options to the session manager (locker, ids, clock).
func WithSessionOptions(opts ...session.Option) Option {
	return func(e *Engine) {
		e.sessionOpts = append(e.sessionOpts, opts...)
	}
}

// NewLoader picks the loader for source: http(s) URLs are fetched from a
// backend, anything else is read as a local JSON or YAML document.
func NewLoader(source string) (ports.TreeLoader, error) {
	if source == "" {
		return nil, fmt.Errorf("a tree source is required when no custom loader is provided")
	}
	if remote.IsURL(source) {
		return remote.NewLoader(source)
	}
	return file.NewLoader(source), nil
}

// New loads and validates the tree named by source and prepares a session manager.
func New(source string, opts ...Option) (*Engine, error) {
	return NewContext(context.Background(), source, opts...)
}

// NewContext is New with a context bounding the tree load.
func NewContext(ctx context.Context, source string, opts ...Option) (*Engine, error) {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.loader == nil {
		loader, err := NewLoader(source)
		if err != nil {
			return nil, err
		}
		eng.loader = loader
	}
	if source != "" {
		eng.Name = strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.Name != "" {
		eng.logger = eng.logger.With("tree", eng.Name)
	}
	if eng.store == nil {
		eng.store = memory.NewStore()
	}

	tree, err := eng.loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load tree: %w", err)
	}
	eng.tree = tree

	sessionOpts := []session.Option{
		session.WithLogger(eng.logger),
		session.WithLifecycleHooks(eng.hooks),
	}
	eng.sessions = session.NewManager(tree, eng.store, append(sessionOpts, eng.sessionOpts...)...)
	return eng, nil
}

// Tree returns the validated tree.
func (e *Engine) Tree() *domain.Tree {
	return e.tree
}

// Sessions returns the session manager for adapters that drive it directly.
func (e *Engine) Sessions() *session.Manager {
	return e.sessions
}

// Start opens a new session at the seeded state.
func (e *Engine) Start(ctx context.Context) (*domain.FlowState, error) {
	return e.sessions.Create(ctx)
}

// Resume returns the persisted state of a session.
func (e *Engine) Resume(ctx context.Context, sessionID string) (*domain.FlowState, error) {
	return e.sessions.Load(ctx, sessionID)
}

func (e *Engine) apply(ctx context.Context, sessionID string, fn func(*runtime.Engine) error) (*domain.FlowState, error) {
	change, err := e.sessions.Apply(ctx, sessionID, fn)
	if err != nil {
		return nil, err
	}
	return change.After, nil
}

// RecordDecision answers (or revises) a decision node.
func (e *Engine) RecordDecision(ctx context.Context, sessionID, nodeID, label string) (*domain.FlowState, error) {
	return e.apply(ctx, sessionID, func(r *runtime.Engine) error { return r.RecordDecision(nodeID, label) })
}

// Continue acknowledges an info node, or runs the menu continue action when
// nodeID is ContinueAction.
func (e *Engine) Continue(ctx context.Context, sessionID, nodeID string) (*domain.FlowState, error) {
	return e.apply(ctx, sessionID, func(r *runtime.Engine) error { return r.Continue(nodeID) })
}

// SetMenuSelection answers a menu option of the active phase.
func (e *Engine) SetMenuSelection(ctx context.Context, sessionID, optionID string, value bool) (*domain.FlowState, error) {
	return e.apply(ctx, sessionID, func(r *runtime.Engine) error { return r.SetMenuSelection(optionID, value) })
}

// Reset restores the seeded state of a session.
func (e *Engine) Reset(ctx context.Context, sessionID string) (*domain.FlowState, error) {
	return e.apply(ctx, sessionID, (*runtime.Engine).Reset)
}

// ContinueAction is the pseudo node id of the menu continue action.
const ContinueAction = runtime.ContinueAction

// Rows builds the traversal rows of a tree phase.
func (e *Engine) Rows(ctx context.Context, sessionID string, phaseID int) ([]layout.Row, error) {
	state, err := e.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return layout.BuildRows(e.tree, state, phaseID), nil
}

// Summary lists the answered questions of a session.
func (e *Engine) Summary(ctx context.Context, sessionID string) ([]summary.Item, error) {
	state, err := e.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return summary.Project(e.tree, state), nil
}

// WriteReport writes the flat text report of a session stamped with generated.
func (e *Engine) WriteReport(ctx context.Context, sessionID string, w io.Writer, generated time.Time) error {
	state, err := e.sessions.Load(ctx, sessionID)
	if err != nil {
		return err
	}
	return summary.WriteReport(w, e.tree, state, generated)
}
