package repos

import (
  "context"
  "time"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/worksy/worksy-backend/internal/logger"
  "github.com/worksy/worksy-backend/internal/types"
)

// SessionFilter narrows the admin session listing. Zero values mean "no
// constraint".
type SessionFilter struct {
  AssignmentID *uuid.UUID
  StudentRef   string
  From         *time.Time
  To           *time.Time
  LockedOnly   bool
}

type SessionRepo interface {
  Create(ctx context.Context, tx *gorm.DB, session *types.Session) (*types.Session, error)
  GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Session, error)
  UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error
  Filter(ctx context.Context, tx *gorm.DB, filter SessionFilter) ([]*types.Session, error)
  ListByAssignment(ctx context.Context, tx *gorm.DB, assignmentID uuid.UUID) ([]*types.Session, error)
}

type sessionRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewSessionRepo(db *gorm.DB, baseLog *logger.Logger) SessionRepo {
  repoLog := baseLog.With("repo", "SessionRepo")
  return &sessionRepo{db: db, log: repoLog}
}

func (sr *sessionRepo) Create(ctx context.Context, tx *gorm.DB, session *types.Session) (*types.Session, error) {
  transaction := tx
  if transaction == nil {
    transaction = sr.db
  }

  if err := transaction.WithContext(ctx).Create(session).Error; err != nil {
    return nil, err
  }

  return session, nil
}

func (sr *sessionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Session, error) {
  transaction := tx
  if transaction == nil {
    transaction = sr.db
  }

  var result types.Session
  if err := transaction.WithContext(ctx).
    Where("id = ?", id).
    First(&result).Error; err != nil {
    return nil, err
  }

  return &result, nil
}

func (sr *sessionRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
  transaction := tx
  if transaction == nil {
    transaction = sr.db
  }

  if len(fields) == 0 {
    return nil
  }

  if err := transaction.WithContext(ctx).
    Model(&types.Session{}).
    Where("id = ?", id).
    Updates(fields).Error; err != nil {
    return err
  }

  return nil
}

func (sr *sessionRepo) Filter(ctx context.Context, tx *gorm.DB, filter SessionFilter) ([]*types.Session, error) {
  transaction := tx
  if transaction == nil {
    transaction = sr.db
  }

  q := transaction.WithContext(ctx).Model(&types.Session{})
  if filter.AssignmentID != nil {
    q = q.Where("assignment_id = ?", *filter.AssignmentID)
  }
  if filter.StudentRef != "" {
    q = q.Where("student_ref LIKE ?", "%"+filter.StudentRef+"%")
  }
  if filter.LockedOnly {
    q = q.Where("submitted = ?", true)
  }
  if filter.From != nil {
    q = q.Where("started_at >= ?", *filter.From)
  }
  if filter.To != nil {
    q = q.Where("started_at <= ?", *filter.To)
  }

  var results []*types.Session
  if err := q.Order("started_at DESC").Find(&results).Error; err != nil {
    return nil, err
  }

  return results, nil
}

func (sr *sessionRepo) ListByAssignment(ctx context.Context, tx *gorm.DB, assignmentID uuid.UUID) ([]*types.Session, error) {
  transaction := tx
  if transaction == nil {
    transaction = sr.db
  }

  var results []*types.Session
  if err := transaction.WithContext(ctx).
    Where("assignment_id = ?", assignmentID).
    Find(&results).Error; err != nil {
    return nil, err
  }

  return results, nil
}
