package handlers

import (
  "errors"
  "net/http"
  "github.com/gin-gonic/gin"
  "github.com/google/uuid"
  "github.com/worksy/worksy-backend/internal/services"
)

type SessionHandler struct {
  sessionService services.SessionService
}

func NewSessionHandler(sessionService services.SessionService) *SessionHandler {
  return &SessionHandler{sessionService: sessionService}
}

type sessionRequest struct {
  SessionID string `json:"sessionId"`
  Notes     string `json:"notes"`
}

func parseSessionID(c *gin.Context, raw string) (uuid.UUID, bool) {
  if raw == "" {
    c.JSON(http.StatusBadRequest, gin.H{"error": "No sessionId"})
    return uuid.Nil, false
  }
  id, err := uuid.Parse(raw)
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sessionId"})
    return uuid.Nil, false
  }
  return id, true
}

func respondSessionErr(c *gin.Context, err error) {
  switch {
  case errors.Is(err, services.ErrSessionNotFound),
    errors.Is(err, services.ErrSessionLocked),
    errors.Is(err, services.ErrIndexRequired):
    c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
  default:
    c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
  }
}

func (sh *SessionHandler) Consent(c *gin.Context) {
  var req sessionRequest
  _ = c.ShouldBindJSON(&req)
  id, ok := parseSessionID(c, req.SessionID)
  if !ok {
    return
  }
  if err := sh.sessionService.Consent(c.Request.Context(), id); err != nil {
    respondSessionErr(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (sh *SessionHandler) Notes(c *gin.Context) {
  var req sessionRequest
  _ = c.ShouldBindJSON(&req)
  id, ok := parseSessionID(c, req.SessionID)
  if !ok {
    return
  }
  if err := sh.sessionService.UpdateNotes(c.Request.Context(), id, req.Notes); err != nil {
    respondSessionErr(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (sh *SessionHandler) TabSwitch(c *gin.Context) {
  var req sessionRequest
  _ = c.ShouldBindJSON(&req)
  id, ok := parseSessionID(c, req.SessionID)
  if !ok {
    return
  }
  count, err := sh.sessionService.TabSwitch(c.Request.Context(), id)
  if err != nil {
    respondSessionErr(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"tabSwitches": count})
}

func (sh *SessionHandler) Submit(c *gin.Context) {
  var req sessionRequest
  _ = c.ShouldBindJSON(&req)
  id, ok := parseSessionID(c, req.SessionID)
  if !ok {
    return
  }
  alreadySubmitted, err := sh.sessionService.Submit(c.Request.Context(), id)
  if err != nil {
    respondSessionErr(c, err)
    return
  }
  if alreadySubmitted {
    c.JSON(http.StatusOK, gin.H{"ok": true, "alreadySubmitted": true})
    return
  }
  c.JSON(http.StatusOK, gin.H{"ok": true})
}
