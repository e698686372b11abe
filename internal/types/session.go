package types

import (
  "time"
  "gorm.io/gorm"
  "github.com/google/uuid"
)

type Session struct {
  ID             uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
  AssignmentID   uuid.UUID   `gorm:"type:uuid;not null;index;column:assignment_id" json:"assignment_id"`
  StudentRef     string      `gorm:"not null;column:student_ref" json:"student_ref"`
  Locale         string      `gorm:"column:locale" json:"locale"`
  IP             string      `gorm:"column:ip" json:"-"`
  StartedAt      time.Time   `gorm:"not null;column:started_at" json:"started_at"`
  EndedAt        *time.Time  `gorm:"column:ended_at" json:"ended_at"`
  ConsentAt      *time.Time  `gorm:"column:consent_at" json:"consent_at"`
  PolicyShownAt  *time.Time  `gorm:"column:policy_shown_at" json:"policy_shown_at"`
  LastActivityAt *time.Time  `gorm:"column:last_activity_at" json:"last_activity_at"`
  Submitted      bool        `gorm:"not null;default:false;column:submitted" json:"submitted"`
  SubmittedAt    *time.Time  `gorm:"column:submitted_at" json:"submitted_at"`
  TabSwitches    int         `gorm:"not null;default:0;column:tab_switches" json:"tab_switches"`
  Notes          *string     `gorm:"column:notes" json:"notes"`
  IndexID        *uuid.UUID  `gorm:"type:uuid;column:index_id" json:"index_id"`
}

func (Session) TableName() string {
  return "sessions"
}

func (s *Session) BeforeCreate(tx *gorm.DB) error {
  if s.ID == uuid.Nil {
    s.ID = uuid.New()
  }
  if s.StartedAt.IsZero() {
    s.StartedAt = time.Now().UTC()
  }
  return nil
}
