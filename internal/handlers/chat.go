package handlers

import (
  "errors"
  "net/http"
  "github.com/gin-gonic/gin"
  "github.com/google/uuid"
  "github.com/worksy/worksy-backend/internal/services"
)

type ChatHandler struct {
  chatService services.ChatService
}

func NewChatHandler(chatService services.ChatService) *ChatHandler {
  return &ChatHandler{chatService: chatService}
}

type chatRequest struct {
  AssignmentID string `json:"assignmentId"`
  SessionID    string `json:"sessionId"`
  StudentRef   string `json:"studentRef"`
  Message      string `json:"message"`
  Locale       string `json:"locale"`
}

func (ch *ChatHandler) Chat(c *gin.Context) {
  var req chatRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "Missing fields"})
    return
  }
  if req.AssignmentID == "" || req.StudentRef == "" || req.Message == "" {
    c.JSON(http.StatusBadRequest, gin.H{"error": "Missing fields"})
    return
  }
  assignmentID, err := uuid.Parse(req.AssignmentID)
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid assignmentId"})
    return
  }
  input := services.ChatInput{
    AssignmentID: assignmentID,
    StudentRef:   req.StudentRef,
    Message:      req.Message,
    Locale:       req.Locale,
    IP:           c.ClientIP(),
  }
  if req.SessionID != "" {
    sessionID, err := uuid.Parse(req.SessionID)
    if err != nil {
      c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sessionId"})
      return
    }
    input.SessionID = &sessionID
  }

  result, err := ch.chatService.Chat(c.Request.Context(), input)
  if err != nil {
    switch {
    case errors.Is(err, services.ErrRateLimited):
      c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
    case errors.Is(err, services.ErrAssignmentNotFound),
      errors.Is(err, services.ErrSessionNotFound),
      errors.Is(err, services.ErrRedMode),
      errors.Is(err, services.ErrPastDeadline),
      errors.Is(err, services.ErrSessionLocked),
      errors.Is(err, services.ErrPromptCapReached):
      c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
    default:
      c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
    }
    return
  }
  c.JSON(http.StatusOK, result)
}
