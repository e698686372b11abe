package services

import (
  "context"
  "encoding/json"
  "errors"
  "time"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/worksy/worksy-backend/internal/logger"
  "github.com/worksy/worksy-backend/internal/policy"
  "github.com/worksy/worksy-backend/internal/repos"
)

// PolicyView is what the student UI shows before any chat: the policy text
// plus the assignment's caps and deadline.
type PolicyView struct {
  Reminder   string           `json:"reminder"`
  Allowed    []string         `json:"allowed"`
  NotAllowed []string         `json:"notAllowed"`
  Caps       PolicyCaps       `json:"caps"`
  Module     PolicyModule     `json:"module"`
  Mode       string           `json:"mode"`
  DueAt      *time.Time       `json:"due_at"`
  Model      string           `json:"model"`
  Templates  json.RawMessage  `json:"templates"`
}

type PolicyCaps struct {
  PromptCap      int `json:"prompt_cap"`
  OutputTokenCap int `json:"output_token_cap"`
  InputTokenCap  int `json:"input_token_cap"`
}

type PolicyModule struct {
  Code  string `json:"code"`
  Title string `json:"title"`
}

type PolicyService interface {
  Fetch(ctx context.Context, assignmentID uuid.UUID) (*PolicyView, error)
}

type policyService struct {
  log            *logger.Logger
  assignmentRepo repos.AssignmentRepo
  amber          policy.Amber
}

func NewPolicyService(baseLog *logger.Logger, assignmentRepo repos.AssignmentRepo, amber policy.Amber) PolicyService {
  serviceLog := baseLog.With("service", "PolicyService")
  return &policyService{log: serviceLog, assignmentRepo: assignmentRepo, amber: amber}
}

func (ps *policyService) Fetch(ctx context.Context, assignmentID uuid.UUID) (*PolicyView, error) {
  a, err := ps.assignmentRepo.GetByID(ctx, nil, assignmentID)
  if err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, ErrAssignmentNotFound
    }
    return nil, err
  }

  templates := json.RawMessage("[]")
  if len(a.PromptTemplates) > 0 {
    templates = json.RawMessage(a.PromptTemplates)
  }
  return &PolicyView{
    Reminder:   ps.amber.Reminder,
    Allowed:    ps.amber.Allowed,
    NotAllowed: ps.amber.NotAllowed,
    Caps: PolicyCaps{
      PromptCap:      a.PromptCap,
      OutputTokenCap: a.OutputTokenCap,
      InputTokenCap:  a.InputTokenCap,
    },
    Module: PolicyModule{Code: a.ModuleCode, Title: a.Title},
    Mode:   a.Mode,
    DueAt:  a.DueAt,
    Model:  a.Model,
    Templates: templates,
  }, nil
}
