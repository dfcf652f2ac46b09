package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/playground/internal/domain/bundle"
	"github.com/GriffinCanCode/playground/internal/domain/preview"
	"github.com/GriffinCanCode/playground/internal/domain/project"
	"github.com/GriffinCanCode/playground/internal/infrastructure/logging"
	"github.com/GriffinCanCode/playground/internal/shared/id"
	"github.com/GriffinCanCode/playground/internal/shared/utils"
)

// ErrSessionNotFound is returned for unknown or deleted sessions
var ErrSessionNotFound = errors.New("session not found")

// Builder bundles a snapshot
type Builder interface {
	Build(ctx context.Context, snap *project.Snapshot) *bundle.Result
}

// Observer receives session events, typically metrics
type Observer interface {
	RunCompleted(outcome string, d time.Duration)
	PreviewError()
	SessionsActive(n int)
}

type nopObserver struct{}

func (nopObserver) RunCompleted(string, time.Duration) {}
func (nopObserver) PreviewError()                      {}
func (nopObserver) SessionsActive(int)                 {}

// Manager owns the sessions of one process
type Manager struct {
	mu       sync.RWMutex
	sessions map[id.SessionID]*Session // Protected by mu
	builder  Builder
	executor preview.Executor
	hasher   *utils.Hasher
	observer Observer
	log      *logging.Logger
}

// NewManager creates a session manager. executor may be nil, in which case
// documents are assembled but not presented.
func NewManager(builder Builder, executor preview.Executor, log *logging.Logger) *Manager {
	if log == nil {
		log = logging.NewNop()
	}
	return &Manager{
		sessions: make(map[id.SessionID]*Session),
		builder:  builder,
		executor: executor,
		hasher:   utils.DefaultHasher(),
		observer: nopObserver{},
		log:      log.Named("session"),
	}
}

// WithObserver adds metrics tracking to the manager
func (m *Manager) WithObserver(o Observer) *Manager {
	if o != nil {
		m.observer = o
	}
	return m
}

// Create opens a new session
func (m *Manager) Create() *Session {
	channel := preview.NewChannel(16)
	s := &Session{
		ID:        id.NewSessionID(),
		CreatedAt: time.Now(),
		channel:   channel,
		host:      preview.NewHost(channel, m.log),
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	n := len(m.sessions)
	m.mu.Unlock()

	m.observer.SessionsActive(n)
	m.log.Info("session created", zap.String("session_id", s.ID.String()))
	return s
}

// Get retrieves a session by ID
func (m *Manager) Get(sid id.SessionID) (*Session, error) {
	if !id.Valid(sid.String(), id.SessionPrefix) {
		return nil, fmt.Errorf("%w: malformed id %q", ErrSessionNotFound, sid)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[sid]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sid)
	}
	return s, nil
}

// List returns all sessions, oldest first
func (m *Manager) List() []Info {
	m.mu.RLock()
	out := make([]Info, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s.Info())
	}
	m.mu.RUnlock()

	// Session IDs sort in creation order
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Delete closes a session and forgets it
func (m *Manager) Delete(sid id.SessionID) error {
	m.mu.Lock()
	s, ok := m.sessions[sid]
	delete(m.sessions, sid)
	n := len(m.sessions)
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sid)
	}
	s.close()
	m.observer.SessionsActive(n)
	m.log.Info("session deleted", zap.String("session_id", sid.String()))
	return nil
}

// Run builds and presents files in session sid
func (m *Manager) Run(ctx context.Context, sid id.SessionID, files map[string]string) (*RunResult, error) {
	s, err := m.Get(sid)
	if err != nil {
		return nil, err
	}
	snap, err := project.NewSnapshot(files)
	if err != nil {
		return nil, fmt.Errorf("invalid project: %w", err)
	}

	start := time.Now()
	n := s.begin()
	log := m.log.ForRun(sid, n)

	res := m.builder.Build(ctx, snap)
	out := &RunResult{Run: n, Build: res}
	if !s.current(n) {
		out.Superseded = true
		m.finish(out, start, log)
		return out, nil
	}

	if err := res.Err(); err != nil {
		out.Document = preview.ErrorDocument(err.Error())
	} else if err := m.present(ctx, s, snap, out); err != nil {
		return nil, err
	}
	out.ETag = `"` + m.hasher.HashString(out.Document) + `"`

	if !s.commit(out) {
		out.Superseded = true
	}
	m.finish(out, start, log)
	return out, nil
}

// present assembles the document for a successful build and runs it
func (m *Manager) present(ctx context.Context, s *Session, snap *project.Snapshot, out *RunResult) error {
	res := out.Build
	index, _ := snap.IndexHTML()

	styles := make([]string, len(res.Stylesheets))
	for i, css := range res.Stylesheets {
		styles[i] = css.Content
	}

	doc, err := preview.Document(res.Artifact, index, preview.DocumentOptions{
		ScriptURLs:  res.ScriptURLs,
		Stylesheets: styles,
	})
	if err != nil {
		out.Document = preview.ErrorDocument(err.Error())
		return nil
	}
	out.Document = doc

	if m.executor == nil {
		return nil
	}
	p, err := m.executor.Present(ctx, doc, func(msg preview.Message) {
		msg.Run = out.Run
		s.channel.Post(msg)
		m.observer.PreviewError()
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		m.log.Warn("preview executor failed", zap.String("session_id", s.ID.String()), zap.Error(err))
		return nil
	}
	out.Presentation = p
	return nil
}

func (m *Manager) finish(out *RunResult, start time.Time, log *logging.Logger) {
	outcome := "ok"
	switch {
	case out.Superseded:
		outcome = "superseded"
	case !out.Build.OK():
		outcome = "build_failed"
	case out.Presentation != nil && len(out.Presentation.Errors) > 0:
		outcome = "runtime_error"
	}

	d := time.Since(start)
	m.observer.RunCompleted(outcome, d)
	log.Info("run finished", zap.String("outcome", outcome), zap.Duration("duration", d))
}

// Preview returns the newest document of a session and its ETag
func (m *Manager) Preview(sid id.SessionID) (string, string, error) {
	s, err := m.Get(sid)
	if err != nil {
		return "", "", err
	}
	latest, ok := s.Latest()
	if !ok {
		return preview.ErrorDocument("Nothing has been run in this session yet."), "", nil
	}
	return latest.Document, latest.ETag, nil
}

// Close closes every session
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[id.SessionID]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.close()
	}
	m.observer.SessionsActive(0)
}
