package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/velvoice/companiond/internal/models"
	"github.com/velvoice/companiond/pkg/logger"
	"github.com/velvoice/companiond/pkg/metrics"
	"github.com/velvoice/companiond/pkg/response"
	"github.com/velvoice/companiond/pkg/voice"
)

// liveSession pairs one voice.Session with its owner for the HTTP surface.
type liveSession struct {
	ID          string
	UserID      uint
	CompanionID string
	Session     *voice.Session
}

// sessionManager tracks sessions currently held in memory. Each session is
// owned by exactly one user. Finished sessions stay readable for the
// retention window, then get closed and evicted.
type sessionManager struct {
	mu        sync.RWMutex
	retention time.Duration
	sessions  map[string]*liveSession
}

func newSessionManager() *sessionManager {
	return &sessionManager{
		retention: time.Hour,
		sessions:  make(map[string]*liveSession),
	}
}

func (m *sessionManager) add(ls *liveSession) {
	m.mu.Lock()
	m.sessions[ls.ID] = ls
	m.mu.Unlock()
}

func (m *sessionManager) get(id string) *liveSession {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[id]
}

// evict tears a session down and drops it from the registry.
func (m *sessionManager) evict(id string) {
	m.mu.Lock()
	ls := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ls != nil {
		ls.Session.Close()
	}
}

// scheduleEvict queues eviction of a finished session once the retention
// window elapses, so the final transcript stays readable for a while.
func (m *sessionManager) scheduleEvict(id string) {
	time.AfterFunc(m.retention, func() { m.evict(id) })
}

// StartSession opens a realtime voice call with a companion. The provider
// connection is acquired here and released on every path that ends the call.
func (h *Handlers) StartSession(c *gin.Context) {
	user := models.CurrentUser(c)

	companion, err := models.GetCompanion(h.db, c.Param("id"))
	if err != nil {
		if errors.Is(err, models.ErrCompanionNotFound) {
			response.NotFound(c, "Companion does not exist")
			return
		}
		response.Fail(c, "select companion failed", nil)
		return
	}

	userID := user.ID
	sessionID := uuid.NewString()

	// Fires exactly once per session, on call-end from any finish path, so
	// it doubles as the eviction trigger for the registry.
	recorder := voice.RecorderFunc(func(companionID string) error {
		h.sessions.scheduleEvict(sessionID)
		metrics.SessionsCompleted.Inc()
		if err := models.AddToSessionHistory(h.db, companionID, userID); err != nil {
			metrics.SessionRecordWrites.WithLabelValues("error").Inc()
			return err
		}
		metrics.SessionRecordWrites.WithLabelValues("ok").Inc()
		return nil
	})

	sess := voice.NewSession(h.newClient(), recorder, logger.Lg, voice.Params{
		CompanionID: companion.ID,
		Subject:     companion.Subject,
		Topic:       companion.Topic,
		Voice:       companion.Voice,
		Style:       companion.Style,
	})

	if err := sess.Start(c.Request.Context()); err != nil {
		sess.Close()
		if errors.Is(err, voice.ErrInvalidConfig) {
			response.Fail(c, "Unsupported voice or style", err.Error())
			return
		}
		logger.Error("session start failed",
			zap.String("companionId", companion.ID), zap.Error(err))
		response.FailWithStatus(c, http.StatusBadGateway, "Failed to start session", nil)
		return
	}

	ls := &liveSession{
		ID:          sessionID,
		UserID:      user.ID,
		CompanionID: companion.ID,
		Session:     sess,
	}
	h.sessions.add(ls)
	metrics.SessionsStarted.Inc()

	response.Success(c, "session started", gin.H{
		"sessionId":  ls.ID,
		"status":     sess.Status(),
		"companion":  companion,
		"isMuted":    sess.IsMuted(),
		"isSpeaking": sess.IsSpeaking(),
	})
}

// ownedSession resolves a session id and enforces ownership.
func (h *Handlers) ownedSession(c *gin.Context) *liveSession {
	ls := h.sessions.get(c.Param("id"))
	if ls == nil {
		response.NotFound(c, "Session does not exist")
		return nil
	}
	user := models.CurrentUser(c)
	if ls.UserID != user.ID {
		response.Forbidden(c, "Not your session", nil)
		return nil
	}
	return ls
}

// GetSession returns the live state and transcript of a session. The
// transcript is newest-first, the order the session view renders it in.
func (h *Handlers) GetSession(c *gin.Context) {
	ls := h.ownedSession(c)
	if ls == nil {
		return
	}
	response.Success(c, "session", gin.H{
		"sessionId":   ls.ID,
		"companionId": ls.CompanionID,
		"status":      ls.Session.Status(),
		"isMuted":     ls.Session.IsMuted(),
		"isSpeaking":  ls.Session.IsSpeaking(),
		"transcript":  ls.Session.Transcript().Entries(),
	})
}

// StopSession ends the call on user request. The session stays readable; a
// second stop is a no-op.
func (h *Handlers) StopSession(c *gin.Context) {
	ls := h.ownedSession(c)
	if ls == nil {
		return
	}
	ls.Session.Disconnect()
	response.Success(c, "session stopped", gin.H{
		"sessionId": ls.ID,
		"status":    ls.Session.Status(),
	})
}

// ToggleMute flips the microphone mute state of an open call.
func (h *Handlers) ToggleMute(c *gin.Context) {
	ls := h.ownedSession(c)
	if ls == nil {
		return
	}
	muted, err := ls.Session.ToggleMute()
	if err != nil {
		response.Fail(c, "No call in progress", nil)
		return
	}
	response.Success(c, "mute toggled", gin.H{"isMuted": muted})
}

// SessionHistory lists the current user's recently completed sessions.
func (h *Handlers) SessionHistory(c *gin.Context) {
	user := models.CurrentUser(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	items, err := models.ListUserSessions(h.db, user.ID, limit)
	if err != nil {
		response.Fail(c, "select sessions failed", nil)
		return
	}
	response.Success(c, "select sessions successful", items)
}
