package services

import (
  "context"
  "encoding/json"
  "errors"
  "fmt"
  "strings"
  "time"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/worksy/worksy-backend/internal/fingerprint"
  "github.com/worksy/worksy-backend/internal/logger"
  "github.com/worksy/worksy-backend/internal/repos"
  "github.com/worksy/worksy-backend/internal/types"
)

type SealedIndex struct {
  ID       uuid.UUID            `json:"id"`
  Hash     string               `json:"hash"`
  Hmac     *string              `json:"hmac"`
  Document *types.IndexDocument `json:"index"`
}

type VerifyResult struct {
  OK            bool `json:"ok"`
  HashOK        bool `json:"hashOK"`
  HmacOK        bool `json:"hmacOK"`
  PolicyVersion int  `json:"policy_version"`
  ConfigVersion int  `json:"config_version"`
}

// FingerprintStatus is the inline integrity summary shown with a session's
// transcript in the admin surface.
type FingerprintStatus struct {
  IndexID uuid.UUID `json:"index_id"`
  HashOK  bool      `json:"hashOK"`
  HmacOK  bool      `json:"hmacOK"`
  Hash    string    `json:"hash"`
}

type IndexService interface {
  Generate(ctx context.Context, sessionID uuid.UUID) (*SealedIndex, error)
  Latest(ctx context.Context, sessionID uuid.UUID) (*SealedIndex, error)
  Upload(ctx context.Context, sessionID uuid.UUID) (url string, path string, err error)
  Verify(ctx context.Context, indexID uuid.UUID) (*VerifyResult, error)
  Fingerprint(ctx context.Context, indexID uuid.UUID) (*FingerprintStatus, error)
}

type indexService struct {
  db             *gorm.DB
  log            *logger.Logger
  engine         *fingerprint.Engine
  sessionRepo    repos.SessionRepo
  assignmentRepo repos.AssignmentRepo
  chatEventRepo  repos.ChatEventRepo
  aiIndexRepo    repos.AIIndexRepo
  bucketService  BucketService
  auditService   AuditService
}

func NewIndexService(
  db *gorm.DB,
  baseLog *logger.Logger,
  engine *fingerprint.Engine,
  sessionRepo repos.SessionRepo,
  assignmentRepo repos.AssignmentRepo,
  chatEventRepo repos.ChatEventRepo,
  aiIndexRepo repos.AIIndexRepo,
  bucketService BucketService,
  auditService AuditService,
) IndexService {
  serviceLog := baseLog.With("service", "IndexService")
  return &indexService{
    db:             db,
    log:            serviceLog,
    engine:         engine,
    sessionRepo:    sessionRepo,
    assignmentRepo: assignmentRepo,
    chatEventRepo:  chatEventRepo,
    aiIndexRepo:    aiIndexRepo,
    bucketService:  bucketService,
    auditService:   auditService,
  }
}

// Generate snapshots the session into a canonical document, seals it, and
// persists a new immutable index row. A later call after further turns makes
// a new row with a new hash; earlier rows stay valid for whatever state they
// captured.
func (is *indexService) Generate(ctx context.Context, sessionID uuid.UUID) (*SealedIndex, error) {
  s, err := is.sessionRepo.GetByID(ctx, nil, sessionID)
  if err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, ErrSessionNotFound
    }
    return nil, err
  }
  a, err := is.assignmentRepo.GetByID(ctx, nil, s.AssignmentID)
  if err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, ErrAssignmentNotFound
    }
    return nil, err
  }
  events, err := is.chatEventRepo.ListBySession(ctx, nil, sessionID)
  if err != nil {
    return nil, err
  }

  doc := buildIndexDocument(a, s, events, time.Now().UTC())
  hash, mac, err := is.engine.Seal(doc)
  if err != nil {
    return nil, err
  }
  canonical, err := is.engine.Canonical(doc)
  if err != nil {
    return nil, err
  }

  row, err := is.aiIndexRepo.Create(ctx, nil, &types.AIIndex{
    AssignmentID:  s.AssignmentID,
    SessionID:     s.ID,
    StudentRef:    s.StudentRef,
    IndexJSON:     canonical,
    Hash:          hash,
    Hmac:          mac,
    PolicyVersion: doc.PolicyVersion,
    ConfigVersion: doc.ConfigVersion,
  })
  if err != nil {
    return nil, fmt.Errorf("Could not persist AI Index: %w", err)
  }

  now := time.Now().UTC()
  if err := is.sessionRepo.UpdateFields(ctx, nil, s.ID, map[string]interface{}{
    "index_id":         row.ID,
    "last_activity_at": now,
  }); err != nil {
    return nil, err
  }
  is.auditService.Record(ctx, s.ID, types.AuditIndexGenerated, map[string]interface{}{
    "index_id": row.ID.String(),
    "hash":     hash,
  })
  is.log.Info("AI Index sealed", "session_id", s.ID, "index_id", row.ID, "hash", hash)

  return &SealedIndex{ID: row.ID, Hash: hash, Hmac: mac, Document: doc}, nil
}

func (is *indexService) Latest(ctx context.Context, sessionID uuid.UUID) (*SealedIndex, error) {
  s, err := is.sessionRepo.GetByID(ctx, nil, sessionID)
  if err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, ErrSessionNotFound
    }
    return nil, err
  }
  if s.IndexID == nil {
    return nil, ErrNoIndexForSession
  }
  row, err := is.aiIndexRepo.GetByID(ctx, nil, *s.IndexID)
  if err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, ErrIndexNotFound
    }
    return nil, err
  }
  doc, err := decodeIndexDocument(row.IndexJSON)
  if err != nil {
    return nil, err
  }
  return &SealedIndex{ID: row.ID, Hash: row.Hash, Hmac: row.Hmac, Document: doc}, nil
}

// Upload writes the latest index to durable storage as pretty-printed JSON
// with the fingerprint appended, and returns a long-lived signed URL.
func (is *indexService) Upload(ctx context.Context, sessionID uuid.UUID) (string, string, error) {
  s, err := is.sessionRepo.GetByID(ctx, nil, sessionID)
  if err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return "", "", ErrSessionNotFound
    }
    return "", "", err
  }
  if s.IndexID == nil {
    return "", "", ErrIndexRequired
  }
  if is.bucketService == nil {
    return "", "", errors.New("blob storage is not configured")
  }
  row, err := is.aiIndexRepo.GetByID(ctx, nil, *s.IndexID)
  if err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return "", "", ErrIndexNotFound
    }
    return "", "", err
  }
  doc, err := decodeIndexDocument(row.IndexJSON)
  if err != nil {
    return "", "", err
  }

  // The uploaded artifact carries the fingerprint alongside the document so
  // a holder can verify offline. This envelope is not what gets hashed.
  envelope := struct {
    *types.IndexDocument
    Hash string  `json:"hash"`
    Hmac *string `json:"hmac"`
  }{doc, row.Hash, row.Hmac}
  content, err := json.MarshalIndent(envelope, "", "  ")
  if err != nil {
    return "", "", err
  }

  ts := strings.NewReplacer(":", "-", ".", "-").Replace(time.Now().UTC().Format(time.RFC3339))
  pathKey := fmt.Sprintf("%s/%s/ai-index-%s.json", s.AssignmentID, s.ID, ts)

  if err := is.bucketService.Upload(ctx, pathKey, content, "application/json"); err != nil {
    return "", "", fmt.Errorf("Upload failed: %w", err)
  }
  if err := is.aiIndexRepo.SetStoragePath(ctx, nil, row.ID, pathKey); err != nil {
    is.log.Warn("Could not record storage path", "index_id", row.ID, "error", err)
  }
  url, err := is.bucketService.SignedURL(pathKey, 365*24*time.Hour)
  if err != nil {
    is.log.Warn("Could not sign URL for uploaded index", "index_id", row.ID, "error", err)
    return "", pathKey, nil
  }
  return url, pathKey, nil
}

// Verify recomputes the fingerprint from the stored document and compares.
// ok=false is the expected signal for a tampered record, reported distinctly
// from not-found; it never mutates stored state.
func (is *indexService) Verify(ctx context.Context, indexID uuid.UUID) (*VerifyResult, error) {
  row, err := is.aiIndexRepo.GetByID(ctx, nil, indexID)
  if err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, ErrIndexNotFound
    }
    return nil, err
  }
  doc, err := decodeIndexDocument(row.IndexJSON)
  if err != nil {
    return nil, err
  }
  hashOK, hmacOK, err := is.engine.Verify(doc, row.Hash, row.Hmac)
  if err != nil {
    return nil, err
  }
  return &VerifyResult{
    OK:            hashOK && hmacOK,
    HashOK:        hashOK,
    HmacOK:        hmacOK,
    PolicyVersion: row.PolicyVersion,
    ConfigVersion: row.ConfigVersion,
  }, nil
}

func (is *indexService) Fingerprint(ctx context.Context, indexID uuid.UUID) (*FingerprintStatus, error) {
  row, err := is.aiIndexRepo.GetByID(ctx, nil, indexID)
  if err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, ErrIndexNotFound
    }
    return nil, err
  }
  doc, err := decodeIndexDocument(row.IndexJSON)
  if err != nil {
    return nil, err
  }
  hashOK, hmacOK, err := is.engine.Verify(doc, row.Hash, row.Hmac)
  if err != nil {
    return nil, err
  }
  return &FingerprintStatus{
    IndexID: row.ID,
    HashOK:  hashOK,
    HmacOK:  hmacOK,
    Hash:    row.Hash,
  }, nil
}

// buildIndexDocument freezes the session snapshot into the canonical shape.
// generatedAt is fixed here and becomes part of the sealed content; it is
// never re-derived at verify time.
func buildIndexDocument(a *types.Assignment, s *types.Session, events []*types.ChatEvent, generatedAt time.Time) *types.IndexDocument {
  docEvents := make([]types.IndexEvent, 0, len(events))
  for _, e := range events {
    docEvents = append(docEvents, types.IndexEvent{
      Role:             e.Role,
      Content:          e.Content,
      CreatedAt:        formatTime(e.CreatedAt),
      PromptTokens:     e.PromptTokens,
      CompletionTokens: e.CompletionTokens,
      TotalTokens:      e.TotalTokens,
      Model:            e.Model,
    })
  }
  return &types.IndexDocument{
    Assignment: types.IndexAssignment{
      ID:     a.ID.String(),
      Module: a.ModuleCode,
      Title:  a.Title,
      DueAt:  formatTimePtr(a.DueAt),
      Mode:   a.Mode,
      Model:  a.Model,
    },
    Student: s.StudentRef,
    Caps: types.IndexCaps{
      PromptCap:      a.PromptCap,
      InputTokenCap:  a.InputTokenCap,
      OutputTokenCap: a.OutputTokenCap,
    },
    Session: types.IndexSession{
      ID:          s.ID.String(),
      StartedAt:   formatTime(s.StartedAt),
      EndedAt:     formatTimePtr(s.EndedAt),
      TabSwitches: s.TabSwitches,
      Notes:       s.Notes,
    },
    PolicyVersion: versionOrDefault(a.PolicyVersion),
    ConfigVersion: versionOrDefault(a.ConfigVersion),
    Events:        docEvents,
    GeneratedAt:   formatTime(generatedAt),
  }
}

func decodeIndexDocument(raw []byte) (*types.IndexDocument, error) {
  var doc types.IndexDocument
  if err := json.Unmarshal(raw, &doc); err != nil {
    return nil, fmt.Errorf("decode stored index document: %w", err)
  }
  return &doc, nil
}

func formatTime(t time.Time) string {
  return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
  if t == nil {
    return nil
  }
  s := formatTime(*t)
  return &s
}

func versionOrDefault(v int) int {
  if v <= 0 {
    return 1
  }
  return v
}
