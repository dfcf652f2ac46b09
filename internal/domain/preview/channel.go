package preview

import (
	"sync"

	"github.com/bytedance/sonic"
)

// MessageTypeError is the only message type the preview context sends
const MessageTypeError = "iframe-error"

// Message is posted from the preview context to its host. Run is stamped on
// the host side and is zero for messages whose run is unknown.
type Message struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Run     uint64 `json:"run,omitempty"`
}

// ParseMessage accepts a posted value as decoded by a JS runtime
// (map[string]interface{}) or raw JSON text. Anything that is not an
// iframe-error with a string message is rejected.
func ParseMessage(data interface{}) (Message, bool) {
	var m Message
	switch v := data.(type) {
	case Message:
		m = v
	case map[string]interface{}:
		t, _ := v["type"].(string)
		msg, ok := v["message"].(string)
		if !ok {
			return Message{}, false
		}
		m = Message{Type: t, Message: msg}
	case string:
		if err := sonic.UnmarshalString(v, &m); err != nil {
			return Message{}, false
		}
	case []byte:
		if err := sonic.Unmarshal(v, &m); err != nil {
			return Message{}, false
		}
	default:
		return Message{}, false
	}
	if m.Type != MessageTypeError {
		return Message{}, false
	}
	return m, true
}

// Channel carries messages one way, from a preview context to its host.
// Posting never blocks: when the buffer is full the oldest message is
// dropped, since only the most recent error is ever displayed.
type Channel struct {
	mu      sync.Mutex
	ch      chan Message
	closed  bool
	dropped uint64
}

// NewChannel creates a channel buffering up to size messages
func NewChannel(size int) *Channel {
	if size <= 0 {
		size = 16
	}
	return &Channel{ch: make(chan Message, size)}
}

// Post enqueues m. It reports false once the channel is closed.
func (c *Channel) Post(m Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	for {
		select {
		case c.ch <- m:
			return true
		default:
		}
		select {
		case <-c.ch:
			c.dropped++
		default:
		}
	}
}

// Messages is the receive side
func (c *Channel) Messages() <-chan Message {
	return c.ch
}

// Dropped returns how many messages were coalesced away
func (c *Channel) Dropped() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}

// Close stops further posts and ends the receive side
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.ch)
	}
}
