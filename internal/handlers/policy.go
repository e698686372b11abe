package handlers

import (
  "errors"
  "net/http"
  "github.com/gin-gonic/gin"
  "github.com/google/uuid"
  "github.com/worksy/worksy-backend/internal/services"
)

type PolicyHandler struct {
  policyService services.PolicyService
}

func NewPolicyHandler(policyService services.PolicyService) *PolicyHandler {
  return &PolicyHandler{policyService: policyService}
}

func (ph *PolicyHandler) Fetch(c *gin.Context) {
  raw := c.Query("assignmentId")
  if raw == "" {
    c.JSON(http.StatusBadRequest, gin.H{"error": "Missing assignmentId"})
    return
  }
  id, err := uuid.Parse(raw)
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid assignmentId"})
    return
  }
  view, err := ph.policyService.Fetch(c.Request.Context(), id)
  if err != nil {
    if errors.Is(err, services.ErrAssignmentNotFound) {
      c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
      return
    }
    c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
    return
  }
  c.JSON(http.StatusOK, view)
}
