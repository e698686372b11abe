package types

import (
  "time"
  "gorm.io/gorm"
  "gorm.io/datatypes"
  "github.com/google/uuid"
)

const (
  ModeRed   = "red"
  ModeAmber = "amber"
  ModeGreen = "green"
)

type Assignment struct {
  ID               uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
  ModuleCode       string          `gorm:"column:module_code" json:"module_code"`
  Title            string          `gorm:"not null;column:title" json:"title"`
  Mode             string          `gorm:"not null;default:amber;column:mode" json:"mode"`
  PromptCap        int             `gorm:"not null;default:100;column:prompt_cap" json:"prompt_cap"`
  OutputTokenCap   int             `gorm:"not null;default:500;column:output_token_cap" json:"output_token_cap"`
  InputTokenCap    int             `gorm:"not null;default:1000;column:input_token_cap" json:"input_token_cap"`
  DueAt            *time.Time      `gorm:"column:due_at" json:"due_at"`
  Model            string          `gorm:"column:model" json:"model"`
  RateLimitN       int             `gorm:"column:rate_limit_n" json:"rate_limit_n"`
  RateLimitWindowS int             `gorm:"column:rate_limit_window_s" json:"rate_limit_window_s"`
  PolicyVersion    int             `gorm:"not null;default:1;column:policy_version" json:"policy_version"`
  ConfigVersion    int             `gorm:"not null;default:1;column:config_version" json:"config_version"`
  PromptTemplates  datatypes.JSON  `gorm:"column:prompt_templates" json:"prompt_templates"`
  CreatedAt        time.Time       `gorm:"not null" json:"created_at"`
  UpdatedAt        time.Time       `gorm:"not null" json:"updated_at"`
}

func (Assignment) TableName() string {
  return "assignments"
}

func (a *Assignment) BeforeCreate(tx *gorm.DB) error {
  if a.ID == uuid.Nil {
    a.ID = uuid.New()
  }
  return nil
}
