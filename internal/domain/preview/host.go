package preview

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/playground/internal/infrastructure/logging"
)

// Host is the trusted side of a preview. It consumes a Channel for the
// lifetime of a view and keeps the most recent error of the current run.
type Host struct {
	channel *Channel
	policy  *bluemonday.Policy
	log     *logging.Logger

	mu      sync.RWMutex
	run     uint64
	current *Message
	subs    map[int]chan Message
	nextSub int

	done chan struct{}
}

// NewHost subscribes to channel until Close
func NewHost(channel *Channel, log *logging.Logger) *Host {
	if log == nil {
		log = logging.NewNop()
	}
	h := &Host{
		channel: channel,
		policy:  bluemonday.StrictPolicy(),
		log:     log.Named("preview"),
		subs:    make(map[int]chan Message),
		done:    make(chan struct{}),
	}
	go h.listen()
	return h
}

func (h *Host) listen() {
	defer close(h.done)
	for m := range h.channel.Messages() {
		h.Show(m)
	}
}

// Reset starts run: the displayed error is cleared and messages stamped
// with an older run are ignored from now on.
func (h *Host) Reset(run uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if run > h.run {
		h.run = run
	}
	h.current = nil
}

// Run returns the current run number
func (h *Host) Run() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.run
}

// Show displays m unless it belongs to a superseded run. Markup from the
// untrusted context is stripped; the result is plain text.
func (h *Host) Show(m Message) bool {
	if m.Type != MessageTypeError {
		return false
	}

	h.mu.Lock()
	if m.Run != 0 && m.Run < h.run {
		h.mu.Unlock()
		h.log.Debug("dropping stale preview message", zap.Uint64("run", m.Run), zap.Uint64("current", h.run))
		return false
	}
	if m.Run == 0 {
		m.Run = h.run
	}
	m.Message = h.sanitize(m.Message)
	h.current = &m
	// Sends are non-blocking and must stay under mu: cancel closes channels.
	for _, ch := range h.subs {
		select {
		case ch <- m:
		default:
		}
	}
	h.mu.Unlock()
	return true
}

// Error returns the error on display, if any
func (h *Host) Error() (Message, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.current == nil {
		return Message{}, false
	}
	return *h.current, true
}

// Subscribe returns a stream of displayed messages and its cancel func
func (h *Host) Subscribe() (<-chan Message, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextSub
	h.nextSub++
	ch := make(chan Message, 8)
	h.subs[id] = ch

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(ch)
		}
	}
}

// Close closes the channel and waits for the listener to drain it
func (h *Host) Close() {
	h.channel.Close()
	<-h.done

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}

func (h *Host) sanitize(msg string) string {
	return strings.TrimSpace(html.UnescapeString(h.policy.Sanitize(msg)))
}
