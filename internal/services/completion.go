package services

import (
  "context"
  "fmt"
  "os"

  openai "github.com/sashabaranov/go-openai"
  "github.com/worksy/worksy-backend/internal/logger"
)

// CompletionUsage mirrors the upstream token accounting. Prompt and
// completion counts are pointers because policy-injected replies carry no
// usage at all.
type CompletionUsage struct {
  PromptTokens     *int  `json:"prompt_tokens,omitempty"`
  CompletionTokens *int  `json:"completion_tokens,omitempty"`
  TotalTokens      int   `json:"total_tokens"`
}

type CompletionResult struct {
  Text  string
  Usage CompletionUsage
}

// CompletionClient is the external text-completion collaborator. Calls are
// fallible and never retried here; a failure surfaces to the caller, who may
// retry the whole chat turn.
type CompletionClient interface {
  Complete(ctx context.Context, model string, system string, user string, maxTokens int) (*CompletionResult, error)
}

type openAICompletionClient struct {
  log    *logger.Logger
  client *openai.Client
}

func NewOpenAICompletionClient(log *logger.Logger) (CompletionClient, error) {
  apiKey := os.Getenv("OPENAI_API_KEY")
  if apiKey == "" {
    return nil, fmt.Errorf("missing OPENAI_API_KEY")
  }

  config := openai.DefaultConfig(apiKey)
  if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
    config.BaseURL = baseURL
  }

  return &openAICompletionClient{
    log:    log.With("service", "CompletionClient"),
    client: openai.NewClientWithConfig(config),
  }, nil
}

func (oc *openAICompletionClient) Complete(ctx context.Context, model string, system string, user string, maxTokens int) (*CompletionResult, error) {
  if model == "" {
    model = "gpt-4o-mini"
  }

  resp, err := oc.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
    Model:       model,
    MaxTokens:   maxTokens,
    Temperature: 0.5,
    Messages: []openai.ChatCompletionMessage{
      {Role: openai.ChatMessageRoleSystem, Content: system},
      {Role: openai.ChatMessageRoleUser, Content: user},
    },
  })
  if err != nil {
    return nil, fmt.Errorf("completion call failed: %w", err)
  }

  text := "No reply."
  if len(resp.Choices) > 0 && resp.Choices[0].Message.Content != "" {
    text = resp.Choices[0].Message.Content
  }

  pTok := resp.Usage.PromptTokens
  cTok := resp.Usage.CompletionTokens
  tTok := resp.Usage.TotalTokens
  if tTok == 0 {
    tTok = pTok + cTok
  }

  return &CompletionResult{
    Text: text,
    Usage: CompletionUsage{
      PromptTokens:     &pTok,
      CompletionTokens: &cTok,
      TotalTokens:      tTok,
    },
  }, nil
}
