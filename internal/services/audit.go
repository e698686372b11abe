package services

import (
  "context"
  "encoding/json"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/worksy/worksy-backend/internal/logger"
  "github.com/worksy/worksy-backend/internal/repos"
  "github.com/worksy/worksy-backend/internal/types"
)

// AuditService is a best-effort side channel. Record never returns an error:
// a failed audit write must not abort the operation that triggered it, so the
// error is logged and deliberately discarded here rather than implicitly at
// every call site.
type AuditService interface {
  Record(ctx context.Context, sessionID uuid.UUID, eventType string, meta map[string]interface{})
}

type auditService struct {
  db        *gorm.DB
  log       *logger.Logger
  auditRepo repos.AuditRepo
}

func NewAuditService(db *gorm.DB, baseLog *logger.Logger, auditRepo repos.AuditRepo) AuditService {
  serviceLog := baseLog.With("service", "AuditService")
  return &auditService{db: db, log: serviceLog, auditRepo: auditRepo}
}

func (as *auditService) Record(ctx context.Context, sessionID uuid.UUID, eventType string, meta map[string]interface{}) {
  entry := &types.Audit{
    SessionID: sessionID,
    Type:      eventType,
  }
  if len(meta) > 0 {
    raw, err := json.Marshal(meta)
    if err != nil {
      as.log.Warn("Could not marshal audit meta, recording without it", "type", eventType, "error", err)
    } else {
      entry.Meta = raw
    }
  }
  if err := as.auditRepo.Create(ctx, nil, entry); err != nil {
    as.log.Warn("Audit write failed", "type", eventType, "session_id", sessionID, "error", err)
  }
}
