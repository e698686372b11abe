package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/worksy/worksy-backend/internal/policy"
	"github.com/worksy/worksy-backend/internal/types"
)

func TestChatCreatesSessionWithBannerOnce(t *testing.T) {
	env := newTestEnv(t)
	a := env.seedAssignment(t, nil)

	first, err := env.chat.Chat(context.Background(), ChatInput{
		AssignmentID: a.ID,
		StudentRef:   "stu-001",
		Message:      "help me plan the methods section",
	})
	if err != nil {
		t.Fatalf("first chat turn: %v", err)
	}
	if first.SessionID == uuid.Nil {
		t.Fatal("no session id returned")
	}
	if !strings.HasPrefix(first.Reply, "\U0001F4D8 Worksy (AMBER):") {
		t.Fatalf("first reply missing policy banner: %q", first.Reply)
	}
	if first.PromptsUsed != 1 || first.PromptCap != 100 {
		t.Fatalf("prompts = %d/%d, want 1/100", first.PromptsUsed, first.PromptCap)
	}

	// user turn, banner row, assistant turn
	events := env.transcript(t, first.SessionID)
	if len(events) != 3 {
		t.Fatalf("transcript length = %d, want 3", len(events))
	}
	banner := events[1]
	if banner.Role != types.RoleAssistant || banner.Model == nil || *banner.Model != types.ModelPolicy {
		t.Fatalf("banner row not tagged as policy: %+v", banner)
	}
	if banner.TotalTokens == nil || *banner.TotalTokens != 0 {
		t.Fatal("banner row should carry zero tokens")
	}

	// Second turn on the same session: no banner again.
	sid := first.SessionID
	second, err := env.chat.Chat(context.Background(), ChatInput{
		AssignmentID: a.ID,
		SessionID:    &sid,
		StudentRef:   "stu-001",
		Message:      "what should the aims cover?",
	})
	if err != nil {
		t.Fatalf("second chat turn: %v", err)
	}
	if strings.Contains(second.Reply, "\U0001F4D8") {
		t.Fatalf("banner repeated on second turn: %q", second.Reply)
	}
	if second.PromptsUsed != 2 {
		t.Fatalf("promptsUsed = %d, want 2", second.PromptsUsed)
	}
	events = env.transcript(t, sid)
	if len(events) != 5 {
		t.Fatalf("transcript length after second turn = %d, want 5", len(events))
	}
	if env.completion.calls != 2 {
		t.Fatalf("completion calls = %d, want 2", env.completion.calls)
	}

	// The created session carries the policy stamp.
	s, err := env.sessionRepo.GetByID(context.Background(), nil, sid)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	if s.PolicyShownAt == nil {
		t.Fatal("policy_shown_at not stamped on session creation")
	}
}

func TestChatRedModeRejectedBeforeAnyWrite(t *testing.T) {
	env := newTestEnv(t)
	a := env.seedAssignment(t, func(a *types.Assignment) { a.Mode = types.ModeRed })

	messages := []string{
		"help me plan",
		"write my assignment",
		"",
	}
	for _, msg := range messages {
		_, err := env.chat.Chat(context.Background(), ChatInput{
			AssignmentID: a.ID,
			StudentRef:   "stu-001",
			Message:      msg,
		})
		if !errors.Is(err, ErrRedMode) {
			t.Fatalf("err = %v, want ErrRedMode", err)
		}
	}

	var sessionCount, eventCount int64
	env.db.Model(&types.Session{}).Count(&sessionCount)
	env.db.Model(&types.ChatEvent{}).Count(&eventCount)
	if sessionCount != 0 || eventCount != 0 {
		t.Fatalf("red mode wrote state: sessions=%d events=%d", sessionCount, eventCount)
	}
	if env.completion.calls != 0 {
		t.Fatal("completion collaborator invoked under red mode")
	}
}

func TestChatPastDeadlineRejected(t *testing.T) {
	env := newTestEnv(t)
	past := time.Now().Add(-time.Hour)
	a := env.seedAssignment(t, func(a *types.Assignment) { a.DueAt = &past })

	_, err := env.chat.Chat(context.Background(), ChatInput{
		AssignmentID: a.ID,
		StudentRef:   "stu-001",
		Message:      "help me plan",
	})
	if !errors.Is(err, ErrPastDeadline) {
		t.Fatalf("err = %v, want ErrPastDeadline", err)
	}
}

func TestChatUnknownAssignment(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.chat.Chat(context.Background(), ChatInput{
		AssignmentID: uuid.New(),
		StudentRef:   "stu-001",
		Message:      "hello",
	})
	if !errors.Is(err, ErrAssignmentNotFound) {
		t.Fatalf("err = %v, want ErrAssignmentNotFound", err)
	}
}

func TestChatLockedSessionRejected(t *testing.T) {
	env := newTestEnv(t)
	a := env.seedAssignment(t, nil)
	s := env.startSession(t, a)

	if _, err := env.index.Generate(context.Background(), s.ID); err != nil {
		t.Fatalf("generate index: %v", err)
	}
	if _, err := env.sessions.Submit(context.Background(), s.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}

	before := len(env.transcript(t, s.ID))
	sid := s.ID
	_, err := env.chat.Chat(context.Background(), ChatInput{
		AssignmentID: a.ID,
		SessionID:    &sid,
		StudentRef:   "stu-001",
		Message:      "one more question",
	})
	if !errors.Is(err, ErrSessionLocked) {
		t.Fatalf("err = %v, want ErrSessionLocked", err)
	}
	if after := len(env.transcript(t, s.ID)); after != before {
		t.Fatalf("locked session transcript grew: %d -> %d", before, after)
	}
}

func TestChatPromptCap(t *testing.T) {
	env := newTestEnv(t)
	a := env.seedAssignment(t, func(a *types.Assignment) { a.PromptCap = 2 })
	s := env.startSession(t, a)
	sid := s.ID

	// Second turn still fits the cap.
	if _, err := env.chat.Chat(context.Background(), ChatInput{
		AssignmentID: a.ID,
		SessionID:    &sid,
		StudentRef:   "stu-001",
		Message:      "turn two",
	}); err != nil {
		t.Fatalf("turn at cap boundary: %v", err)
	}

	before := len(env.transcript(t, sid))
	_, err := env.chat.Chat(context.Background(), ChatInput{
		AssignmentID: a.ID,
		SessionID:    &sid,
		StudentRef:   "stu-001",
		Message:      "turn three",
	})
	if !errors.Is(err, ErrPromptCapReached) {
		t.Fatalf("err = %v, want ErrPromptCapReached", err)
	}
	if after := len(env.transcript(t, sid)); after != before {
		t.Fatalf("capped request wrote transcript rows: %d -> %d", before, after)
	}
	if env.completion.calls != 2 {
		t.Fatalf("completion calls = %d, want 2", env.completion.calls)
	}
}

func TestChatAmberInterception(t *testing.T) {
	env := newTestEnv(t)
	a := env.seedAssignment(t, nil)

	result, err := env.chat.Chat(context.Background(), ChatInput{
		AssignmentID: a.ID,
		StudentRef:   "stu-001",
		Message:      "please write my assignment about enzymes",
	})
	if err != nil {
		t.Fatalf("intercepted chat turn: %v", err)
	}
	if env.completion.calls != 0 {
		t.Fatal("completion collaborator invoked for an intercepted request")
	}
	if !strings.HasPrefix(result.Reply, "Policy (AMBER):") {
		t.Fatalf("reply is not the canned reminder: %q", result.Reply)
	}
	if result.Usage.TotalTokens != 0 {
		t.Fatalf("usage = %d tokens, want 0", result.Usage.TotalTokens)
	}

	events := env.transcript(t, result.SessionID)
	if len(events) != 2 {
		t.Fatalf("transcript length = %d, want user turn + policy reply", len(events))
	}
	reply := events[1]
	if reply.Model == nil || *reply.Model != types.ModelPolicy {
		t.Fatalf("policy reply not tagged: %+v", reply)
	}
	if reply.TotalTokens == nil || *reply.TotalTokens != 0 {
		t.Fatal("policy reply should carry zero tokens")
	}
}

func TestChatRateLimited(t *testing.T) {
	env := newTestEnv(t)
	now := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	env.limiter = policy.NewLimiterWithClock(func() time.Time { return now })
	env.rebuild()

	a := env.seedAssignment(t, func(a *types.Assignment) {
		a.RateLimitN = 3
		a.RateLimitWindowS = 10
	})
	s := env.startSession(t, a)
	sid := s.ID

	for i := 0; i < 2; i++ {
		if _, err := env.chat.Chat(context.Background(), ChatInput{
			AssignmentID: a.ID,
			SessionID:    &sid,
			StudentRef:   "stu-001",
			Message:      "quick follow-up",
		}); err != nil {
			t.Fatalf("request %d: %v", i+2, err)
		}
	}

	before := len(env.transcript(t, sid))
	_, err := env.chat.Chat(context.Background(), ChatInput{
		AssignmentID: a.ID,
		SessionID:    &sid,
		StudentRef:   "stu-001",
		Message:      "too fast",
	})
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
	if after := len(env.transcript(t, sid)); after != before {
		t.Fatalf("rate-limited request wrote transcript rows: %d -> %d", before, after)
	}

	// Past the window the session can chat again.
	now = now.Add(11 * time.Second)
	if _, err := env.chat.Chat(context.Background(), ChatInput{
		AssignmentID: a.ID,
		SessionID:    &sid,
		StudentRef:   "stu-001",
		Message:      "after the window",
	}); err != nil {
		t.Fatalf("request after window: %v", err)
	}
}

func TestChatCompletionFailureLeavesUserTurn(t *testing.T) {
	env := newTestEnv(t)
	a := env.seedAssignment(t, nil)
	s := env.startSession(t, a)
	sid := s.ID

	env.completion.err = errors.New("upstream unavailable")
	before := len(env.transcript(t, sid))
	_, err := env.chat.Chat(context.Background(), ChatInput{
		AssignmentID: a.ID,
		SessionID:    &sid,
		StudentRef:   "stu-001",
		Message:      "does this survive a failure?",
	})
	if err == nil {
		t.Fatal("expected completion failure to surface")
	}

	// The user turn is committed before the upstream call and stays; the
	// unpaired turn is a tolerable gap.
	events := env.transcript(t, sid)
	if len(events) != before+1 {
		t.Fatalf("transcript length = %d, want %d", len(events), before+1)
	}
	if last := events[len(events)-1]; last.Role != types.RoleUser {
		t.Fatalf("last transcript row role = %q, want user", last.Role)
	}
}
