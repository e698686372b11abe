package types

import (
  "time"
  "gorm.io/gorm"
  "gorm.io/datatypes"
  "github.com/google/uuid"
)

// AIIndex is immutable once created apart from storage_path, which is stamped
// after a successful upload. A session accumulates one row per generation.
type AIIndex struct {
  ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
  AssignmentID  uuid.UUID       `gorm:"type:uuid;not null;index;column:assignment_id" json:"assignment_id"`
  SessionID     uuid.UUID       `gorm:"type:uuid;not null;index;column:session_id" json:"session_id"`
  StudentRef    string          `gorm:"not null;column:student_ref" json:"student_ref"`
  IndexJSON     datatypes.JSON  `gorm:"not null;column:index_json" json:"index_json"`
  Hash          string          `gorm:"not null;column:hash" json:"hash"`
  Hmac          *string         `gorm:"column:hmac" json:"hmac"`
  PolicyVersion int             `gorm:"not null;default:1;column:policy_version" json:"policy_version"`
  ConfigVersion int             `gorm:"not null;default:1;column:config_version" json:"config_version"`
  StoragePath   *string         `gorm:"column:storage_path" json:"storage_path"`
  CreatedAt     time.Time       `gorm:"not null" json:"created_at"`
}

func (AIIndex) TableName() string {
  return "ai_index"
}

func (i *AIIndex) BeforeCreate(tx *gorm.DB) error {
  if i.ID == uuid.Nil {
    i.ID = uuid.New()
  }
  return nil
}
