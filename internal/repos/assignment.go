package repos

import (
  "context"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "gorm.io/gorm/clause"
  "github.com/worksy/worksy-backend/internal/logger"
  "github.com/worksy/worksy-backend/internal/types"
)

type AssignmentRepo interface {
  GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Assignment, error)
  List(ctx context.Context, tx *gorm.DB) ([]*types.Assignment, error)
  Upsert(ctx context.Context, tx *gorm.DB, assignments []*types.Assignment) error
  Create(ctx context.Context, tx *gorm.DB, assignment *types.Assignment) (*types.Assignment, error)
}

type assignmentRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewAssignmentRepo(db *gorm.DB, baseLog *logger.Logger) AssignmentRepo {
  repoLog := baseLog.With("repo", "AssignmentRepo")
  return &assignmentRepo{db: db, log: repoLog}
}

func (ar *assignmentRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Assignment, error) {
  transaction := tx
  if transaction == nil {
    transaction = ar.db
  }

  var result types.Assignment
  if err := transaction.WithContext(ctx).
    Where("id = ?", id).
    First(&result).Error; err != nil {
    return nil, err
  }

  return &result, nil
}

func (ar *assignmentRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Assignment, error) {
  transaction := tx
  if transaction == nil {
    transaction = ar.db
  }

  var results []*types.Assignment
  if err := transaction.WithContext(ctx).
    Order("module_code").
    Find(&results).Error; err != nil {
    return nil, err
  }

  return results, nil
}

func (ar *assignmentRepo) Upsert(ctx context.Context, tx *gorm.DB, assignments []*types.Assignment) error {
  transaction := tx
  if transaction == nil {
    transaction = ar.db
  }

  if len(assignments) == 0 {
    return nil
  }

  if err := transaction.WithContext(ctx).
    Clauses(clause.OnConflict{
      Columns:   []clause.Column{{Name: "id"}},
      UpdateAll: true,
    }).
    Create(&assignments).Error; err != nil {
    return err
  }

  return nil
}

func (ar *assignmentRepo) Create(ctx context.Context, tx *gorm.DB, assignment *types.Assignment) (*types.Assignment, error) {
  transaction := tx
  if transaction == nil {
    transaction = ar.db
  }

  if err := transaction.WithContext(ctx).Create(assignment).Error; err != nil {
    return nil, err
  }

  return assignment, nil
}
