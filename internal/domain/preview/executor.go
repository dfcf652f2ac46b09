package preview

import (
	"context"
	"time"
)

// Presentation is what an executor observed while showing a document
type Presentation struct {
	Rendered string        `json:"rendered,omitempty"` // document markup after the scripts ran
	Errors   []string      `json:"errors"`             // messages posted by the preview context
	Console  []string      `json:"console,omitempty"`
	Skipped  []string      `json:"skipped,omitempty"` // script sources the executor could not load
	Duration time.Duration `json:"duration"`
}

// Executor runs a preview document in an isolated context. Every error the
// context posts is passed to post as it happens; a failing application is
// not an error of Present.
type Executor interface {
	Present(ctx context.Context, document string, post func(Message)) (*Presentation, error)
	Close() error
}

func collect(p *Presentation, post func(Message)) func(Message) {
	return func(m Message) {
		p.Errors = append(p.Errors, m.Message)
		if post != nil {
			post(m)
		}
	}
}
