package services

import (
  "bytes"
  "context"
  "encoding/csv"
  "errors"
  "fmt"
  "strconv"
  "strings"
  "time"
  "github.com/google/uuid"
  "golang.org/x/sync/errgroup"
  "gorm.io/gorm"
  "github.com/worksy/worksy-backend/internal/logger"
  "github.com/worksy/worksy-backend/internal/repos"
  "github.com/worksy/worksy-backend/internal/types"
)

// tokenCostPer1K is a naive cost estimate used by the metrics endpoint.
const tokenCostPer1K = 0.005

type AssignmentImportRow struct {
  ID             string `json:"id"`
  ModuleCode     string `json:"module_code"`
  Title          string `json:"title"`
  PromptCap      int    `json:"prompt_cap"`
  OutputTokenCap int    `json:"output_token_cap"`
  InputTokenCap  int    `json:"input_token_cap"`
  Mode           string `json:"mode"`
  DueAt          string `json:"due_at"`
  Model          string `json:"model"`
}

// SessionView is a session row with the derived risk score attached at read
// time.
type SessionView struct {
  *types.Session
  RiskScore float64 `json:"risk_score"`
}

type SessionEventsView struct {
  Events      []*types.ChatEvent `json:"events"`
  Fingerprint *FingerprintStatus `json:"fingerprint"`
}

type Metrics struct {
  Sessions     int     `json:"sessions"`
  Submitted    int     `json:"submitted"`
  TotalPrompts int     `json:"totalPrompts"`
  TotalTokens  int     `json:"totalTokens"`
  EstCost      float64 `json:"estCost"`
}

type SessionQuery struct {
  Filter   repos.SessionFilter
  HighTabs bool
}

type AdminService interface {
  ListAssignments(ctx context.Context) ([]*types.Assignment, error)
  ImportAssignments(ctx context.Context, rows []AssignmentImportRow) (int, error)
  ListSessions(ctx context.Context, query SessionQuery) ([]*SessionView, error)
  SessionEvents(ctx context.Context, sessionID uuid.UUID) (*SessionEventsView, error)
  ExportSessionsCSV(ctx context.Context, assignmentID uuid.UUID) ([]byte, error)
  Metrics(ctx context.Context, assignmentID uuid.UUID) (*Metrics, error)
  SeedDemoAssignment(ctx context.Context) (uuid.UUID, error)
}

type adminService struct {
  db             *gorm.DB
  log            *logger.Logger
  assignmentRepo repos.AssignmentRepo
  sessionRepo    repos.SessionRepo
  chatEventRepo  repos.ChatEventRepo
  indexService   IndexService
}

func NewAdminService(
  db *gorm.DB,
  baseLog *logger.Logger,
  assignmentRepo repos.AssignmentRepo,
  sessionRepo repos.SessionRepo,
  chatEventRepo repos.ChatEventRepo,
  indexService IndexService,
) AdminService {
  serviceLog := baseLog.With("service", "AdminService")
  return &adminService{
    db:             db,
    log:            serviceLog,
    assignmentRepo: assignmentRepo,
    sessionRepo:    sessionRepo,
    chatEventRepo:  chatEventRepo,
    indexService:   indexService,
  }
}

func (as *adminService) ListAssignments(ctx context.Context) ([]*types.Assignment, error) {
  return as.assignmentRepo.List(ctx, nil)
}

// ImportAssignments upserts by id; rows without an id get a fresh one.
// Missing caps fall back to the same defaults the seed uses.
func (as *adminService) ImportAssignments(ctx context.Context, rows []AssignmentImportRow) (int, error) {
  if len(rows) == 0 {
    return 0, errors.New("rows[] required")
  }
  upserts := make([]*types.Assignment, 0, len(rows))
  for _, r := range rows {
    a := &types.Assignment{
      ModuleCode:     r.ModuleCode,
      Title:          r.Title,
      PromptCap:      intOrDefault(r.PromptCap, 100),
      OutputTokenCap: intOrDefault(r.OutputTokenCap, 500),
      InputTokenCap:  intOrDefault(r.InputTokenCap, 1000),
      Mode:           modeOrDefault(r.Mode),
      Model:          stringOrDefault(r.Model, "gpt-4o-mini"),
      PolicyVersion:  1,
      ConfigVersion:  1,
    }
    if r.ID != "" {
      id, err := uuid.Parse(r.ID)
      if err != nil {
        return 0, fmt.Errorf("invalid assignment id %q: %w", r.ID, err)
      }
      a.ID = id
    } else {
      a.ID = uuid.New()
    }
    if r.DueAt != "" {
      due, err := time.Parse(time.RFC3339, r.DueAt)
      if err != nil {
        return 0, fmt.Errorf("invalid due_at %q: %w", r.DueAt, err)
      }
      a.DueAt = &due
    }
    upserts = append(upserts, a)
  }
  if err := as.assignmentRepo.Upsert(ctx, nil, upserts); err != nil {
    return 0, err
  }
  return len(upserts), nil
}

func (as *adminService) ListSessions(ctx context.Context, query SessionQuery) ([]*SessionView, error) {
  rows, err := as.sessionRepo.Filter(ctx, nil, query.Filter)
  if err != nil {
    return nil, err
  }
  views := make([]*SessionView, 0, len(rows))
  for _, s := range rows {
    if query.HighTabs && s.TabSwitches < types.HighTabSwitchCount {
      continue
    }
    views = append(views, &SessionView{Session: s, RiskScore: types.RiskScore(s)})
  }
  return views, nil
}

// SessionEvents returns the transcript together with the integrity status of
// the session's latest index, fetched concurrently.
func (as *adminService) SessionEvents(ctx context.Context, sessionID uuid.UUID) (*SessionEventsView, error) {
  s, err := as.sessionRepo.GetByID(ctx, nil, sessionID)
  if err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, ErrSessionNotFound
    }
    return nil, err
  }

  view := &SessionEventsView{}
  g, gctx := errgroup.WithContext(ctx)
  g.Go(func() error {
    events, err := as.chatEventRepo.ListBySession(gctx, nil, sessionID)
    if err != nil {
      return err
    }
    view.Events = events
    return nil
  })
  if s.IndexID != nil {
    indexID := *s.IndexID
    g.Go(func() error {
      fp, err := as.indexService.Fingerprint(gctx, indexID)
      if err != nil {
        if errors.Is(err, ErrIndexNotFound) {
          return nil
        }
        return err
      }
      view.Fingerprint = fp
      return nil
    })
  }
  if err := g.Wait(); err != nil {
    return nil, err
  }
  if view.Events == nil {
    view.Events = []*types.ChatEvent{}
  }
  return view, nil
}

func (as *adminService) ExportSessionsCSV(ctx context.Context, assignmentID uuid.UUID) ([]byte, error) {
  rows, err := as.sessionRepo.ListByAssignment(ctx, nil, assignmentID)
  if err != nil {
    return nil, err
  }

  var buf bytes.Buffer
  w := csv.NewWriter(&buf)
  _ = w.Write([]string{"session_id", "student_ref", "started_at", "submitted", "submitted_at", "tab_switches", "risk_score"})
  for _, s := range rows {
    submittedAt := ""
    if s.SubmittedAt != nil {
      submittedAt = s.SubmittedAt.UTC().Format(time.RFC3339)
    }
    _ = w.Write([]string{
      s.ID.String(),
      s.StudentRef,
      s.StartedAt.UTC().Format(time.RFC3339),
      strconv.FormatBool(s.Submitted),
      submittedAt,
      strconv.Itoa(s.TabSwitches),
      strconv.FormatFloat(types.RiskScore(s), 'g', -1, 64),
    })
  }
  w.Flush()
  if err := w.Error(); err != nil {
    return nil, err
  }
  return buf.Bytes(), nil
}

func (as *adminService) Metrics(ctx context.Context, assignmentID uuid.UUID) (*Metrics, error) {
  sessions, err := as.sessionRepo.ListByAssignment(ctx, nil, assignmentID)
  if err != nil {
    return nil, err
  }

  m := &Metrics{Sessions: len(sessions)}
  ids := make([]uuid.UUID, 0, len(sessions))
  for _, s := range sessions {
    if s.Submitted {
      m.Submitted++
    }
    ids = append(ids, s.ID)
  }

  events, err := as.chatEventRepo.ListBySessionIDs(ctx, nil, ids)
  if err != nil {
    return nil, err
  }
  for _, e := range events {
    if e.Role == types.RoleUser {
      m.TotalPrompts++
    }
    if e.TotalTokens != nil {
      m.TotalTokens += *e.TotalTokens
    }
  }
  m.EstCost = float64(m.TotalTokens) / 1000 * tokenCostPer1K
  return m, nil
}

func (as *adminService) SeedDemoAssignment(ctx context.Context) (uuid.UUID, error) {
  due := time.Now().UTC().Add(30 * 24 * time.Hour)
  a := &types.Assignment{
    ID:             uuid.New(),
    ModuleCode:     "BIO1001",
    Title:          "Demo Coursework",
    PromptCap:      100,
    OutputTokenCap: 500,
    InputTokenCap:  1000,
    Mode:           types.ModeAmber,
    DueAt:          &due,
    Model:          "gpt-4o-mini",
    PolicyVersion:  1,
    ConfigVersion:  1,
    PromptTemplates: []byte(`[{"label":"Plan my methods section","text":"Help me outline the key steps for the methods section focusing on PCR and gel electrophoresis."}]`),
  }
  if _, err := as.assignmentRepo.Create(ctx, nil, a); err != nil {
    return uuid.Nil, fmt.Errorf("Insert failed: %w", err)
  }
  return a.ID, nil
}

func intOrDefault(v, def int) int {
  if v <= 0 {
    return def
  }
  return v
}

func stringOrDefault(v, def string) string {
  if v == "" {
    return def
  }
  return v
}

func modeOrDefault(mode string) string {
  switch strings.ToLower(mode) {
  case types.ModeRed:
    return types.ModeRed
  case types.ModeGreen:
    return types.ModeGreen
  default:
    return types.ModeAmber
  }
}
