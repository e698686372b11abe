package repos

import (
  "context"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/worksy/worksy-backend/internal/logger"
  "github.com/worksy/worksy-backend/internal/types"
)

type ChatEventRepo interface {
  Create(ctx context.Context, tx *gorm.DB, event *types.ChatEvent) (*types.ChatEvent, error)
  ListBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) ([]*types.ChatEvent, error)
  ListBySessionIDs(ctx context.Context, tx *gorm.DB, sessionIDs []uuid.UUID) ([]*types.ChatEvent, error)
  CountBySessionAndRole(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, role string) (int64, error)
}

type chatEventRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewChatEventRepo(db *gorm.DB, baseLog *logger.Logger) ChatEventRepo {
  repoLog := baseLog.With("repo", "ChatEventRepo")
  return &chatEventRepo{db: db, log: repoLog}
}

func (cr *chatEventRepo) Create(ctx context.Context, tx *gorm.DB, event *types.ChatEvent) (*types.ChatEvent, error) {
  transaction := tx
  if transaction == nil {
    transaction = cr.db
  }

  if err := transaction.WithContext(ctx).Create(event).Error; err != nil {
    return nil, err
  }

  return event, nil
}

func (cr *chatEventRepo) ListBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) ([]*types.ChatEvent, error) {
  transaction := tx
  if transaction == nil {
    transaction = cr.db
  }

  var results []*types.ChatEvent
  if err := transaction.WithContext(ctx).
    Where("session_id = ?", sessionID).
    Order("id").
    Find(&results).Error; err != nil {
    return nil, err
  }

  return results, nil
}

func (cr *chatEventRepo) ListBySessionIDs(ctx context.Context, tx *gorm.DB, sessionIDs []uuid.UUID) ([]*types.ChatEvent, error) {
  transaction := tx
  if transaction == nil {
    transaction = cr.db
  }

  var results []*types.ChatEvent
  if len(sessionIDs) == 0 {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("session_id IN ?", sessionIDs).
    Order("id").
    Find(&results).Error; err != nil {
    return nil, err
  }

  return results, nil
}

func (cr *chatEventRepo) CountBySessionAndRole(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, role string) (int64, error) {
  transaction := tx
  if transaction == nil {
    transaction = cr.db
  }

  var count int64
  if err := transaction.WithContext(ctx).
    Model(&types.ChatEvent{}).
    Where("session_id = ? AND role = ?", sessionID, role).
    Count(&count).Error; err != nil {
    return 0, err
  }

  return count, nil
}
