package services

import (
  "context"
  "errors"
  "fmt"
  "strings"
  "time"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/worksy/worksy-backend/internal/logger"
  "github.com/worksy/worksy-backend/internal/policy"
  "github.com/worksy/worksy-backend/internal/repos"
  "github.com/worksy/worksy-backend/internal/types"
)

type ChatInput struct {
  AssignmentID uuid.UUID
  SessionID    *uuid.UUID
  StudentRef   string
  Message      string
  Locale       string
  IP           string
}

type ChatResult struct {
  SessionID   uuid.UUID        `json:"sessionId"`
  Reply       string           `json:"reply"`
  Usage       CompletionUsage  `json:"usage"`
  PromptsUsed int              `json:"promptsUsed"`
  PromptCap   int              `json:"promptCap"`
}

type ChatService interface {
  Chat(ctx context.Context, input ChatInput) (*ChatResult, error)
}

type chatService struct {
  db             *gorm.DB
  log            *logger.Logger
  assignmentRepo repos.AssignmentRepo
  sessionRepo    repos.SessionRepo
  chatEventRepo  repos.ChatEventRepo
  completion     CompletionClient
  auditService   AuditService
  amber          policy.Amber
  limiter        *policy.Limiter
}

func NewChatService(
  db *gorm.DB,
  baseLog *logger.Logger,
  assignmentRepo repos.AssignmentRepo,
  sessionRepo repos.SessionRepo,
  chatEventRepo repos.ChatEventRepo,
  completion CompletionClient,
  auditService AuditService,
  amber policy.Amber,
  limiter *policy.Limiter,
) ChatService {
  serviceLog := baseLog.With("service", "ChatService")
  return &chatService{
    db:             db,
    log:            serviceLog,
    assignmentRepo: assignmentRepo,
    sessionRepo:    sessionRepo,
    chatEventRepo:  chatEventRepo,
    completion:     completion,
    auditService:   auditService,
    amber:          amber,
    limiter:        limiter,
  }
}

// Chat runs the full policy gate in order: assignment exists, not red, not
// past deadline, session not locked, rate limit, prompt cap, then the amber
// content check. The first four abort before any transcript write; the rate
// limit is checked before the user turn is stored so a denied request leaves
// no asymmetric state.
func (cs *chatService) Chat(ctx context.Context, input ChatInput) (*ChatResult, error) {
  a, err := cs.assignmentRepo.GetByID(ctx, nil, input.AssignmentID)
  if err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, ErrAssignmentNotFound
    }
    return nil, err
  }

  if a.Mode == types.ModeRed {
    return nil, ErrRedMode
  }
  if a.DueAt != nil && a.DueAt.Before(time.Now()) {
    return nil, ErrPastDeadline
  }

  // Ensure session
  newSession := false
  var s *types.Session
  if input.SessionID == nil {
    s, err = cs.sessionRepo.Create(ctx, nil, &types.Session{
      AssignmentID: a.ID,
      StudentRef:   input.StudentRef,
      Locale:       defaultLocale(input.Locale),
      IP:           input.IP,
    })
    if err != nil {
      return nil, fmt.Errorf("Could not create session: %w", err)
    }
    newSession = true
    now := time.Now().UTC()
    if err := cs.sessionRepo.UpdateFields(ctx, nil, s.ID, map[string]interface{}{"policy_shown_at": now}); err != nil {
      cs.log.Warn("Could not stamp policy_shown_at", "session_id", s.ID, "error", err)
    }
    cs.auditService.Record(ctx, s.ID, types.AuditPolicyShown, nil)
  } else {
    s, err = cs.sessionRepo.GetByID(ctx, nil, *input.SessionID)
    if err != nil {
      if errors.Is(err, gorm.ErrRecordNotFound) {
        return nil, ErrSessionNotFound
      }
      return nil, err
    }
  }

  if s.Submitted {
    return nil, ErrSessionLocked
  }

  // Rate limit before any transcript write
  window := time.Duration(a.RateLimitWindowS) * time.Second
  if !cs.limiter.Allow(s.ID.String(), a.RateLimitN, window) {
    return nil, ErrRateLimited
  }

  // Prompt cap
  used, err := cs.chatEventRepo.CountBySessionAndRole(ctx, nil, s.ID, types.RoleUser)
  if err != nil {
    return nil, err
  }
  if int(used) >= a.PromptCap {
    return nil, ErrPromptCapReached
  }

  // Log the user turn
  if _, err := cs.chatEventRepo.Create(ctx, nil, &types.ChatEvent{
    SessionID: s.ID,
    Role:      types.RoleUser,
    Content:   input.Message,
  }); err != nil {
    return nil, err
  }

  // Amber guard: intercepted requests never reach the completion model
  if a.Mode == types.ModeAmber && cs.amber.Disallows(input.Message) {
    reminder := cs.amber.ReminderMessage()
    if err := cs.appendPolicyTurn(ctx, s.ID, reminder); err != nil {
      return nil, err
    }
    cs.touchSession(ctx, s.ID)
    cs.log.Info("Amber policy interception", "session_id", s.ID, "assignment_id", a.ID)
    return &ChatResult{
      SessionID:   s.ID,
      Reply:       reminder,
      Usage:       CompletionUsage{TotalTokens: 0},
      PromptsUsed: int(used) + 1,
      PromptCap:   a.PromptCap,
    }, nil
  }

  systemPrompt := buildSystemPrompt(a)
  result, err := cs.completion.Complete(ctx, a.Model, systemPrompt, input.Message, a.OutputTokenCap)
  if err != nil {
    // The user turn stays; an unpaired turn is a tolerable gap, not a crash.
    return nil, err
  }

  reply := result.Text
  if newSession {
    banner := cs.amber.Banner()
    if err := cs.appendPolicyTurn(ctx, s.ID, banner); err != nil {
      return nil, err
    }
    reply = banner + "\n\n" + reply
  }

  model := a.Model
  if model == "" {
    model = "gpt-4o-mini"
  }
  tTok := result.Usage.TotalTokens
  if _, err := cs.chatEventRepo.Create(ctx, nil, &types.ChatEvent{
    SessionID:        s.ID,
    Role:             types.RoleAssistant,
    Content:          reply,
    PromptTokens:     result.Usage.PromptTokens,
    CompletionTokens: result.Usage.CompletionTokens,
    TotalTokens:      &tTok,
    Model:            &model,
  }); err != nil {
    return nil, err
  }
  cs.touchSession(ctx, s.ID)

  return &ChatResult{
    SessionID:   s.ID,
    Reply:       reply,
    Usage:       result.Usage,
    PromptsUsed: int(used) + 1,
    PromptCap:   a.PromptCap,
  }, nil
}

func (cs *chatService) appendPolicyTurn(ctx context.Context, sessionID uuid.UUID, content string) error {
  zero := 0
  model := types.ModelPolicy
  _, err := cs.chatEventRepo.Create(ctx, nil, &types.ChatEvent{
    SessionID:   sessionID,
    Role:        types.RoleAssistant,
    Content:     content,
    TotalTokens: &zero,
    Model:       &model,
  })
  return err
}

func (cs *chatService) touchSession(ctx context.Context, sessionID uuid.UUID) {
  now := time.Now().UTC()
  if err := cs.sessionRepo.UpdateFields(ctx, nil, sessionID, map[string]interface{}{"last_activity_at": now}); err != nil {
    cs.log.Warn("Could not update last_activity_at", "session_id", sessionID, "error", err)
  }
}

func buildSystemPrompt(a *types.Assignment) string {
  moduleCode := a.ModuleCode
  if moduleCode == "" {
    moduleCode = "N/A"
  }
  return strings.TrimSpace(fmt.Sprintf(`
You are Worksy (University of Leicester AI Sandbox).
Mode: %s.
Coach the student; do NOT produce final submission text. UK spelling; short paragraphs.
Stay under ~%d tokens. Encourage sources & integrity.
Module: %s — %s.
`, strings.ToUpper(a.Mode), a.OutputTokenCap, moduleCode, a.Title))
}

func defaultLocale(locale string) string {
  if locale == "" {
    return "en-GB"
  }
  return locale
}
