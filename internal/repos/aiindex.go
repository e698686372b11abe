package repos

import (
  "context"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/worksy/worksy-backend/internal/logger"
  "github.com/worksy/worksy-backend/internal/types"
)

type AIIndexRepo interface {
  Create(ctx context.Context, tx *gorm.DB, index *types.AIIndex) (*types.AIIndex, error)
  GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.AIIndex, error)
  SetStoragePath(ctx context.Context, tx *gorm.DB, id uuid.UUID, path string) error
}

type aiIndexRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewAIIndexRepo(db *gorm.DB, baseLog *logger.Logger) AIIndexRepo {
  repoLog := baseLog.With("repo", "AIIndexRepo")
  return &aiIndexRepo{db: db, log: repoLog}
}

func (ir *aiIndexRepo) Create(ctx context.Context, tx *gorm.DB, index *types.AIIndex) (*types.AIIndex, error) {
  transaction := tx
  if transaction == nil {
    transaction = ir.db
  }

  if err := transaction.WithContext(ctx).Create(index).Error; err != nil {
    return nil, err
  }

  return index, nil
}

func (ir *aiIndexRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.AIIndex, error) {
  transaction := tx
  if transaction == nil {
    transaction = ir.db
  }

  var result types.AIIndex
  if err := transaction.WithContext(ctx).
    Where("id = ?", id).
    First(&result).Error; err != nil {
    return nil, err
  }

  return &result, nil
}

func (ir *aiIndexRepo) SetStoragePath(ctx context.Context, tx *gorm.DB, id uuid.UUID, path string) error {
  transaction := tx
  if transaction == nil {
    transaction = ir.db
  }

  if err := transaction.WithContext(ctx).
    Model(&types.AIIndex{}).
    Where("id = ?", id).
    Update("storage_path", path).Error; err != nil {
    return err
  }

  return nil
}
