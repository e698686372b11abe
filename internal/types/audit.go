package types

import (
  "time"
  "gorm.io/datatypes"
  "github.com/google/uuid"
)

const (
  AuditConsent        = "consent"
  AuditPolicyShown    = "policy_shown"
  AuditIndexGenerated = "index_generated"
  AuditSubmit         = "submit"
)

type Audit struct {
  ID        int64           `gorm:"primaryKey;autoIncrement" json:"id"`
  SessionID uuid.UUID       `gorm:"type:uuid;not null;index;column:session_id" json:"session_id"`
  Type      string          `gorm:"not null;column:type" json:"type"`
  Meta      datatypes.JSON  `gorm:"column:meta" json:"meta"`
  CreatedAt time.Time       `gorm:"not null" json:"created_at"`
}

func (Audit) TableName() string {
  return "audits"
}
