package handlers

import (
  "errors"
  "net/http"
  "github.com/gin-gonic/gin"
  "github.com/google/uuid"
  "github.com/worksy/worksy-backend/internal/services"
)

type IndexHandler struct {
  indexService services.IndexService
}

func NewIndexHandler(indexService services.IndexService) *IndexHandler {
  return &IndexHandler{indexService: indexService}
}

func (ih *IndexHandler) Generate(c *gin.Context) {
  var req sessionRequest
  _ = c.ShouldBindJSON(&req)
  id, ok := parseSessionID(c, req.SessionID)
  if !ok {
    return
  }
  sealed, err := ih.indexService.Generate(c.Request.Context(), id)
  if err != nil {
    if errors.Is(err, services.ErrSessionNotFound) {
      c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
      return
    }
    c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not persist AI Index"})
    return
  }
  c.JSON(http.StatusOK, sealed)
}

func (ih *IndexHandler) Latest(c *gin.Context) {
  raw := c.Query("sessionId")
  if raw == "" {
    c.JSON(http.StatusBadRequest, gin.H{"error": "Missing sessionId"})
    return
  }
  id, err := uuid.Parse(raw)
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sessionId"})
    return
  }
  sealed, err := ih.indexService.Latest(c.Request.Context(), id)
  if err != nil {
    switch {
    case errors.Is(err, services.ErrNoIndexForSession),
      errors.Is(err, services.ErrIndexNotFound),
      errors.Is(err, services.ErrSessionNotFound):
      c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
    default:
      c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
    }
    return
  }
  c.JSON(http.StatusOK, sealed)
}

func (ih *IndexHandler) Upload(c *gin.Context) {
  var req sessionRequest
  _ = c.ShouldBindJSON(&req)
  id, ok := parseSessionID(c, req.SessionID)
  if !ok {
    return
  }
  url, path, err := ih.indexService.Upload(c.Request.Context(), id)
  if err != nil {
    switch {
    case errors.Is(err, services.ErrIndexRequired):
      c.JSON(http.StatusBadRequest, gin.H{"error": "Generate AI Index first."})
    case errors.Is(err, services.ErrSessionNotFound),
      errors.Is(err, services.ErrIndexNotFound):
      c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
    default:
      c.JSON(http.StatusInternalServerError, gin.H{"error": "Upload failed"})
    }
    return
  }
  var urlValue interface{}
  if url != "" {
    urlValue = url
  }
  c.JSON(http.StatusOK, gin.H{"url": urlValue, "path": path})
}

// VerifyIndex never mutates stored state. A failed check comes back as
// ok=false with 200; only a missing record is 404.
func (ih *IndexHandler) Verify(c *gin.Context) {
  raw := c.Query("id")
  if raw == "" {
    c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "Missing id"})
    return
  }
  id, err := uuid.Parse(raw)
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "Invalid id"})
    return
  }
  result, err := ih.indexService.Verify(c.Request.Context(), id)
  if err != nil {
    if errors.Is(err, services.ErrIndexNotFound) {
      c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "Not found"})
      return
    }
    c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "Server error"})
    return
  }
  c.JSON(http.StatusOK, result)
}
