package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/playground/internal/domain/preview"
	"github.com/GriffinCanCode/playground/internal/domain/session"
	"github.com/GriffinCanCode/playground/internal/shared/id"
)

// RunCompleteEvent is pushed to stream clients after every committed run
type RunCompleteEvent struct {
	Type   string `json:"type"`
	Run    uint64 `json:"run"`
	OK     bool   `json:"ok"`
	ETag   string `json:"etag"`
	Errors int    `json:"errors"`
}

// ListSessions lists open sessions
func (h *Handlers) ListSessions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sessions": h.sessions.List()})
}

// CreateSession opens a playground view
func (h *Handlers) CreateSession(c *gin.Context) {
	s := h.sessions.Create()
	c.JSON(http.StatusCreated, gin.H{"id": s.ID, "created_at": s.CreatedAt})
}

// RunSession builds and presents a project in a session
func (h *Handlers) RunSession(c *gin.Context) {
	sid := id.SessionID(c.Param("id"))
	snap, ok := h.bindSnapshot(c)
	if !ok {
		return
	}

	var res *session.RunResult
	err := h.trace(c, "session.run", func(ctx context.Context) error {
		var err error
		res, err = h.sessions.Run(ctx, sid, snap.Files())
		return err
	}, zap.String("session_id", sid.String()))
	if err != nil {
		h.sessionError(c, err)
		return
	}

	if !res.Superseded && h.notifier != nil {
		event := RunCompleteEvent{Type: "run_complete", Run: res.Run, OK: res.Build.OK(), ETag: res.ETag}
		if res.Presentation != nil {
			event.Errors = len(res.Presentation.Errors)
		}
		h.notifier.Publish(sid, event)
	}

	status := http.StatusOK
	if !res.Build.OK() {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, res)
}

// Preview serves the newest document of a session. It is meant to be
// loaded into an iframe with sandbox="allow-scripts".
func (h *Handlers) Preview(c *gin.Context) {
	doc, etag, err := h.sessions.Preview(id.SessionID(c.Param("id")))
	if err != nil {
		h.sessionError(c, err)
		return
	}

	c.Header("Content-Security-Policy", preview.ContentSecurityPolicy)
	c.Header("Cache-Control", "no-cache")
	if etag != "" {
		c.Header("ETag", etag)
		if c.GetHeader("If-None-Match") == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(doc))
}

// SessionError returns the error on display in a session's preview
func (h *Handlers) SessionError(c *gin.Context) {
	s, err := h.sessions.Get(id.SessionID(c.Param("id")))
	if err != nil {
		h.sessionError(c, err)
		return
	}

	m, ok := s.Host().Error()
	if !ok {
		c.JSON(http.StatusOK, gin.H{"error": nil, "run": s.Host().Run()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"error": m})
}

// DeleteSession closes a session
func (h *Handlers) DeleteSession(c *gin.Context) {
	if err := h.sessions.Delete(id.SessionID(c.Param("id"))); err != nil {
		h.sessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
