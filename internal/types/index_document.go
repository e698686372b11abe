package types

// IndexDocument is the canonical AI Index snapshot. Field order here is the
// canonical serialization order: the fingerprint is computed over the JSON
// encoding of this struct, so the layout must not change once records exist.
// All timestamps are pre-formatted strings, frozen at build time; they are
// never re-derived during verification.
type IndexDocument struct {
  Assignment    IndexAssignment  `json:"assignment"`
  Student       string           `json:"student"`
  Caps          IndexCaps        `json:"caps"`
  Session       IndexSession     `json:"session"`
  PolicyVersion int              `json:"policy_version"`
  ConfigVersion int              `json:"config_version"`
  Events        []IndexEvent     `json:"events"`
  GeneratedAt   string           `json:"generated_at"`
}

type IndexAssignment struct {
  ID     string   `json:"id"`
  Module string   `json:"module"`
  Title  string   `json:"title"`
  DueAt  *string  `json:"due_at"`
  Mode   string   `json:"mode"`
  Model  string   `json:"model"`
}

type IndexCaps struct {
  PromptCap      int  `json:"prompt_cap"`
  InputTokenCap  int  `json:"input_token_cap"`
  OutputTokenCap int  `json:"output_token_cap"`
}

type IndexSession struct {
  ID          string   `json:"id"`
  StartedAt   string   `json:"started_at"`
  EndedAt     *string  `json:"ended_at"`
  TabSwitches int      `json:"tab_switches"`
  Notes       *string  `json:"notes"`
}

type IndexEvent struct {
  Role             string   `json:"role"`
  Content          string   `json:"content"`
  CreatedAt        string   `json:"created_at"`
  PromptTokens     *int     `json:"prompt_tokens"`
  CompletionTokens *int     `json:"completion_tokens"`
  TotalTokens      *int     `json:"total_tokens"`
  Model            *string  `json:"model"`
}
