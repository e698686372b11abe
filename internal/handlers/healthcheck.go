package handlers

import (
  "net/http"
  "github.com/gin-gonic/gin"
  "github.com/worksy/worksy-backend/internal/db"
)

type HealthHandler struct {
  pg *db.PostgresService
}

func NewHealthHandler(pg *db.PostgresService) *HealthHandler {
  return &HealthHandler{pg: pg}
}

func (hh *HealthHandler) Ping(c *gin.Context) {
  c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (hh *HealthHandler) Health(c *gin.Context) {
  if hh.pg == nil {
    c.JSON(http.StatusInternalServerError, gin.H{"ok": false})
    return
  }
  if err := hh.pg.Ping(); err != nil {
    c.JSON(http.StatusInternalServerError, gin.H{"ok": false})
    return
  }
  c.JSON(http.StatusOK, gin.H{"ok": true})
}
