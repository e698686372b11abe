package services

import "errors"

// Policy and lifecycle violations are sentinel errors so handlers can map
// them to specific statuses and keep the human-readable reason intact.
var (
  ErrAssignmentNotFound = errors.New("Assignment not found")
  ErrSessionNotFound    = errors.New("Session not found")
  ErrIndexNotFound      = errors.New("Index not found")
  ErrNoIndexForSession  = errors.New("No index for this session")

  ErrRedMode          = errors.New("This task is RED (invigilated). AI not allowed.")
  ErrPastDeadline     = errors.New("Assignment past deadline and locked.")
  ErrSessionLocked    = errors.New("Session locked after submission")
  ErrRateLimited      = errors.New("Too many requests. Please slow down.")
  ErrPromptCapReached = errors.New("Prompt cap reached")
  ErrIndexRequired    = errors.New("Generate AI Index before submitting.")
)
