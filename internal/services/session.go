package services

import (
  "context"
  "errors"
  "time"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/worksy/worksy-backend/internal/logger"
  "github.com/worksy/worksy-backend/internal/repos"
  "github.com/worksy/worksy-backend/internal/types"
)

type SessionService interface {
  Consent(ctx context.Context, sessionID uuid.UUID) error
  UpdateNotes(ctx context.Context, sessionID uuid.UUID, notes string) error
  TabSwitch(ctx context.Context, sessionID uuid.UUID) (int, error)
  Submit(ctx context.Context, sessionID uuid.UUID) (alreadySubmitted bool, err error)
}

type sessionService struct {
  db           *gorm.DB
  log          *logger.Logger
  sessionRepo  repos.SessionRepo
  auditService AuditService
}

func NewSessionService(db *gorm.DB, baseLog *logger.Logger, sessionRepo repos.SessionRepo, auditService AuditService) SessionService {
  serviceLog := baseLog.With("service", "SessionService")
  return &sessionService{
    db:           db,
    log:          serviceLog,
    sessionRepo:  sessionRepo,
    auditService: auditService,
  }
}

// loadUnlocked fetches a session and enforces the terminal lock: once
// submitted, no mutation goes through.
func (ss *sessionService) loadUnlocked(ctx context.Context, sessionID uuid.UUID) (*types.Session, error) {
  s, err := ss.sessionRepo.GetByID(ctx, nil, sessionID)
  if err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, ErrSessionNotFound
    }
    return nil, err
  }
  if s.Submitted {
    return nil, ErrSessionLocked
  }
  return s, nil
}

func (ss *sessionService) Consent(ctx context.Context, sessionID uuid.UUID) error {
  if _, err := ss.loadUnlocked(ctx, sessionID); err != nil {
    return err
  }
  now := time.Now().UTC()
  if err := ss.sessionRepo.UpdateFields(ctx, nil, sessionID, map[string]interface{}{
    "consent_at":       now,
    "last_activity_at": now,
  }); err != nil {
    return err
  }
  ss.auditService.Record(ctx, sessionID, types.AuditConsent, nil)
  return nil
}

func (ss *sessionService) UpdateNotes(ctx context.Context, sessionID uuid.UUID, notes string) error {
  if _, err := ss.loadUnlocked(ctx, sessionID); err != nil {
    return err
  }
  now := time.Now().UTC()
  return ss.sessionRepo.UpdateFields(ctx, nil, sessionID, map[string]interface{}{
    "notes":            notes,
    "last_activity_at": now,
  })
}

func (ss *sessionService) TabSwitch(ctx context.Context, sessionID uuid.UUID) (int, error) {
  s, err := ss.loadUnlocked(ctx, sessionID)
  if err != nil {
    return 0, err
  }
  next := s.TabSwitches + 1
  now := time.Now().UTC()
  if err := ss.sessionRepo.UpdateFields(ctx, nil, sessionID, map[string]interface{}{
    "tab_switches":     next,
    "last_activity_at": now,
  }); err != nil {
    return 0, err
  }
  return next, nil
}

// Submit locks the session. It requires a sealed index and is idempotent for
// sessions that are already locked.
func (ss *sessionService) Submit(ctx context.Context, sessionID uuid.UUID) (bool, error) {
  s, err := ss.sessionRepo.GetByID(ctx, nil, sessionID)
  if err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return false, ErrSessionNotFound
    }
    return false, err
  }
  if s.Submitted {
    return true, nil
  }
  if s.IndexID == nil {
    return false, ErrIndexRequired
  }
  now := time.Now().UTC()
  if err := ss.sessionRepo.UpdateFields(ctx, nil, sessionID, map[string]interface{}{
    "submitted":    true,
    "submitted_at": now,
  }); err != nil {
    return false, err
  }
  ss.auditService.Record(ctx, sessionID, types.AuditSubmit, nil)
  ss.log.Info("Session locked", "session_id", sessionID)
  return false, nil
}
