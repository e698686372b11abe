package handlers

import (
  "errors"
  "net/http"
  "time"
  "github.com/gin-gonic/gin"
  "github.com/google/uuid"
  "github.com/worksy/worksy-backend/internal/repos"
  "github.com/worksy/worksy-backend/internal/services"
)

type AdminHandler struct {
  adminService services.AdminService
}

func NewAdminHandler(adminService services.AdminService) *AdminHandler {
  return &AdminHandler{adminService: adminService}
}

func (ah *AdminHandler) ListAssignments(c *gin.Context) {
  assignments, err := ah.adminService.ListAssignments(c.Request.Context())
  if err != nil {
    c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
    return
  }
  c.JSON(http.StatusOK, gin.H{"assignments": assignments})
}

type importRequest struct {
  Rows []services.AssignmentImportRow `json:"rows"`
}

func (ah *AdminHandler) ImportAssignments(c *gin.Context) {
  var req importRequest
  if err := c.ShouldBindJSON(&req); err != nil || len(req.Rows) == 0 {
    c.JSON(http.StatusBadRequest, gin.H{"error": "rows[] required"})
    return
  }
  count, err := ah.adminService.ImportAssignments(c.Request.Context(), req.Rows)
  if err != nil {
    c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
    return
  }
  c.JSON(http.StatusOK, gin.H{"ok": true, "count": count})
}

func (ah *AdminHandler) ListSessions(c *gin.Context) {
  query := services.SessionQuery{
    Filter: repos.SessionFilter{
      StudentRef: c.Query("studentRef"),
      LockedOnly: c.Query("lockedOnly") == "true",
    },
    HighTabs: c.Query("highTabs") == "true",
  }
  if raw := c.Query("assignmentId"); raw != "" {
    id, err := uuid.Parse(raw)
    if err != nil {
      c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid assignmentId"})
      return
    }
    query.Filter.AssignmentID = &id
  }
  if raw := c.Query("from"); raw != "" {
    from, err := time.Parse(time.RFC3339, raw)
    if err != nil {
      c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid from"})
      return
    }
    query.Filter.From = &from
  }
  if raw := c.Query("to"); raw != "" {
    to, err := time.Parse(time.RFC3339, raw)
    if err != nil {
      c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid to"})
      return
    }
    query.Filter.To = &to
  }

  sessions, err := ah.adminService.ListSessions(c.Request.Context(), query)
  if err != nil {
    c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
    return
  }
  c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func (ah *AdminHandler) SessionEvents(c *gin.Context) {
  id, err := uuid.Parse(c.Param("id"))
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session id"})
    return
  }
  view, err := ah.adminService.SessionEvents(c.Request.Context(), id)
  if err != nil {
    if errors.Is(err, services.ErrSessionNotFound) {
      c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
      return
    }
    c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
    return
  }
  c.JSON(http.StatusOK, view)
}

func (ah *AdminHandler) Export(c *gin.Context) {
  raw := c.Query("assignmentId")
  if raw == "" {
    c.JSON(http.StatusBadRequest, gin.H{"error": "assignmentId required"})
    return
  }
  id, err := uuid.Parse(raw)
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid assignmentId"})
    return
  }
  csvBytes, err := ah.adminService.ExportSessionsCSV(c.Request.Context(), id)
  if err != nil {
    c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
    return
  }
  c.Header("Content-Disposition", `attachment; filename="worksy-sessions.csv"`)
  c.Data(http.StatusOK, "text/csv", csvBytes)
}

func (ah *AdminHandler) Metrics(c *gin.Context) {
  raw := c.Query("assignmentId")
  if raw == "" {
    c.JSON(http.StatusBadRequest, gin.H{"error": "assignmentId required"})
    return
  }
  id, err := uuid.Parse(raw)
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid assignmentId"})
    return
  }
  metrics, err := ah.adminService.Metrics(c.Request.Context(), id)
  if err != nil {
    c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
    return
  }
  c.JSON(http.StatusOK, metrics)
}

// SeedDemo creates a demo assignment for local development.
func (ah *AdminHandler) SeedDemo(c *gin.Context) {
  id, err := ah.adminService.SeedDemoAssignment(c.Request.Context())
  if err != nil {
    c.JSON(http.StatusInternalServerError, gin.H{"error": "Insert failed", "detail": err.Error()})
    return
  }
  c.JSON(http.StatusOK, gin.H{"id": id})
}
