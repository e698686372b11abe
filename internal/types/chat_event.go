package types

import (
  "time"
  "github.com/google/uuid"
)

const (
  RoleUser      = "user"
  RoleAssistant = "assistant"

  // ModelPolicy tags assistant rows injected by the policy gate rather than
  // produced by the completion model.
  ModelPolicy = "policy"
)

// ChatEvent rows are append-only; the serial primary key is the transcript
// order.
type ChatEvent struct {
  ID               int64       `gorm:"primaryKey;autoIncrement" json:"id"`
  SessionID        uuid.UUID   `gorm:"type:uuid;not null;index;column:session_id" json:"session_id"`
  Role             string      `gorm:"not null;column:role" json:"role"`
  Content          string      `gorm:"not null;column:content" json:"content"`
  PromptTokens     *int        `gorm:"column:prompt_tokens" json:"prompt_tokens"`
  CompletionTokens *int        `gorm:"column:completion_tokens" json:"completion_tokens"`
  TotalTokens      *int        `gorm:"column:total_tokens" json:"total_tokens"`
  Model            *string     `gorm:"column:model" json:"model"`
  CreatedAt        time.Time   `gorm:"not null" json:"created_at"`
}

func (ChatEvent) TableName() string {
  return "chat_events"
}
