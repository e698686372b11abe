package repos

import (
  "context"
  "gorm.io/gorm"
  "github.com/worksy/worksy-backend/internal/logger"
  "github.com/worksy/worksy-backend/internal/types"
)

type AuditRepo interface {
  Create(ctx context.Context, tx *gorm.DB, entry *types.Audit) error
}

type auditRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewAuditRepo(db *gorm.DB, baseLog *logger.Logger) AuditRepo {
  repoLog := baseLog.With("repo", "AuditRepo")
  return &auditRepo{db: db, log: repoLog}
}

func (ar *auditRepo) Create(ctx context.Context, tx *gorm.DB, entry *types.Audit) error {
  transaction := tx
  if transaction == nil {
    transaction = ar.db
  }

  if err := transaction.WithContext(ctx).Create(entry).Error; err != nil {
    return err
  }

  return nil
}
