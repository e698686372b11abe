package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/worksy/worksy-backend/internal/fingerprint"
	"github.com/worksy/worksy-backend/internal/logger"
	"github.com/worksy/worksy-backend/internal/policy"
	"github.com/worksy/worksy-backend/internal/repos"
	"github.com/worksy/worksy-backend/internal/types"
)

// fakeCompletion stands in for the external completion collaborator and
// records whether it was invoked at all.
type fakeCompletion struct {
	calls int
	reply string
	err   error
}

func (f *fakeCompletion) Complete(ctx context.Context, model string, system string, user string, maxTokens int) (*CompletionResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	pTok, cTok := 10, 20
	return &CompletionResult{
		Text: f.reply,
		Usage: CompletionUsage{
			PromptTokens:     &pTok,
			CompletionTokens: &cTok,
			TotalTokens:      30,
		},
	}, nil
}

type testEnv struct {
	db             *gorm.DB
	log            *logger.Logger
	engine         *fingerprint.Engine
	amber          policy.Amber
	limiter        *policy.Limiter
	completion     *fakeCompletion
	assignmentRepo repos.AssignmentRepo
	sessionRepo    repos.SessionRepo
	chatEventRepo  repos.ChatEventRepo
	aiIndexRepo    repos.AIIndexRepo
	auditRepo      repos.AuditRepo
	audit          AuditService
	chat           ChatService
	sessions       SessionService
	index          IndexService
	admin          AdminService
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}
	// A single connection keeps the in-memory database alive for the test.
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(
		&types.Assignment{},
		&types.Session{},
		&types.ChatEvent{},
		&types.AIIndex{},
		&types.Audit{},
	); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	env := &testEnv{
		db:         newTestDB(t),
		log:        log,
		engine:     fingerprint.New("test-secret"),
		amber:      policy.DefaultAmber(),
		limiter:    policy.NewLimiter(),
		completion: &fakeCompletion{reply: "Start with your aims, then methods."},
	}
	env.assignmentRepo = repos.NewAssignmentRepo(env.db, log)
	env.sessionRepo = repos.NewSessionRepo(env.db, log)
	env.chatEventRepo = repos.NewChatEventRepo(env.db, log)
	env.aiIndexRepo = repos.NewAIIndexRepo(env.db, log)
	env.auditRepo = repos.NewAuditRepo(env.db, log)
	env.audit = NewAuditService(env.db, log, env.auditRepo)
	env.rebuild()
	return env
}

// rebuild re-wires the services, so a test can swap the limiter or the
// completion fake before exercising them.
func (e *testEnv) rebuild() {
	e.chat = NewChatService(e.db, e.log, e.assignmentRepo, e.sessionRepo, e.chatEventRepo, e.completion, e.audit, e.amber, e.limiter)
	e.sessions = NewSessionService(e.db, e.log, e.sessionRepo, e.audit)
	e.index = NewIndexService(e.db, e.log, e.engine, e.sessionRepo, e.assignmentRepo, e.chatEventRepo, e.aiIndexRepo, nil, e.audit)
	e.admin = NewAdminService(e.db, e.log, e.assignmentRepo, e.sessionRepo, e.chatEventRepo, e.index)
}

// seedAssignment inserts an amber assignment with a rate limit high enough to
// stay out of the way unless a test lowers it.
func (e *testEnv) seedAssignment(t *testing.T, mutate func(*types.Assignment)) *types.Assignment {
	t.Helper()
	a := &types.Assignment{
		ID:               uuid.New(),
		ModuleCode:       "BIO1001",
		Title:            "Demo Coursework",
		Mode:             types.ModeAmber,
		PromptCap:        100,
		OutputTokenCap:   500,
		InputTokenCap:    1000,
		Model:            "gpt-4o-mini",
		RateLimitN:       1000,
		RateLimitWindowS: 60,
		PolicyVersion:    1,
		ConfigVersion:    1,
	}
	if mutate != nil {
		mutate(a)
	}
	if _, err := e.assignmentRepo.Create(context.Background(), nil, a); err != nil {
		t.Fatalf("seed assignment: %v", err)
	}
	return a
}

// startSession runs one chat turn without a session id and returns the
// created session.
func (e *testEnv) startSession(t *testing.T, a *types.Assignment) *types.Session {
	t.Helper()
	result, err := e.chat.Chat(context.Background(), ChatInput{
		AssignmentID: a.ID,
		StudentRef:   "stu-001",
		Message:      "help me plan the methods section",
	})
	if err != nil {
		t.Fatalf("initial chat turn: %v", err)
	}
	s, err := e.sessionRepo.GetByID(context.Background(), nil, result.SessionID)
	if err != nil {
		t.Fatalf("load created session: %v", err)
	}
	return s
}

func (e *testEnv) transcript(t *testing.T, sessionID uuid.UUID) []*types.ChatEvent {
	t.Helper()
	events, err := e.chatEventRepo.ListBySession(context.Background(), nil, sessionID)
	if err != nil {
		t.Fatalf("list transcript: %v", err)
	}
	return events
}
