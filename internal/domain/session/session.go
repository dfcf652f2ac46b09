package session

import (
	"sync"
	"time"

	"github.com/GriffinCanCode/playground/internal/domain/bundle"
	"github.com/GriffinCanCode/playground/internal/domain/preview"
	"github.com/GriffinCanCode/playground/internal/shared/id"
)

// RunResult is the outcome of one run
type RunResult struct {
	Run          uint64                `json:"run"`
	Build        *bundle.Result        `json:"build"`
	Document     string                `json:"-"`
	ETag         string                `json:"etag"`
	Presentation *preview.Presentation `json:"presentation,omitempty"`
	Superseded   bool                  `json:"superseded"`
}

// Session is one playground view
type Session struct {
	ID        id.SessionID `json:"id"`
	CreatedAt time.Time    `json:"created_at"`

	channel *preview.Channel
	host    *preview.Host

	mu     sync.Mutex
	run    uint64     // Protected by mu
	latest *RunResult // Protected by mu
}

// Info is the serializable view of a session
type Info struct {
	ID        id.SessionID `json:"id"`
	CreatedAt time.Time    `json:"created_at"`
	Run       uint64       `json:"run"`
	ETag      string       `json:"etag,omitempty"`
}

// Host returns the session's preview host
func (s *Session) Host() *preview.Host {
	return s.host
}

// Post forwards a message from a preview context hosted elsewhere, such as
// a browser iframe, stamped with the current run.
func (s *Session) Post(m preview.Message) bool {
	s.mu.Lock()
	m.Run = s.run
	s.mu.Unlock()
	return s.channel.Post(m)
}

// Latest returns the newest committed run
func (s *Session) Latest() (*RunResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest, s.latest != nil
}

// Info returns a snapshot of the session state
func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()

	info := Info{ID: s.ID, CreatedAt: s.CreatedAt, Run: s.run}
	if s.latest != nil {
		info.ETag = s.latest.ETag
	}
	return info
}

// begin starts a new run and clears the displayed error
func (s *Session) begin() uint64 {
	s.mu.Lock()
	s.run++
	n := s.run
	s.mu.Unlock()

	s.host.Reset(n)
	return n
}

// current reports whether run n is still the newest
func (s *Session) current(n uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return n == s.run
}

// commit stores r unless a newer run has started since
func (s *Session) commit(r *RunResult) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.Run != s.run {
		return false
	}
	s.latest = r
	return true
}

func (s *Session) close() {
	s.host.Close()
}
