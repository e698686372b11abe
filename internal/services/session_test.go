package services

import (
	"context"
	"errors"
	"testing"

	"github.com/worksy/worksy-backend/internal/types"
)

func TestSubmitRequiresIndex(t *testing.T) {
	env := newTestEnv(t)
	a := env.seedAssignment(t, nil)
	s := env.startSession(t, a)

	_, err := env.sessions.Submit(context.Background(), s.ID)
	if !errors.Is(err, ErrIndexRequired) {
		t.Fatalf("err = %v, want ErrIndexRequired", err)
	}

	reloaded, err := env.sessionRepo.GetByID(context.Background(), nil, s.ID)
	if err != nil {
		t.Fatalf("reload session: %v", err)
	}
	if reloaded.Submitted {
		t.Fatal("session locked despite missing index")
	}
}

func TestSubmitLocksAndIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	a := env.seedAssignment(t, nil)
	s := env.startSession(t, a)

	if _, err := env.index.Generate(context.Background(), s.ID); err != nil {
		t.Fatalf("generate index: %v", err)
	}

	already, err := env.sessions.Submit(context.Background(), s.ID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if already {
		t.Fatal("first submit reported alreadySubmitted")
	}

	reloaded, err := env.sessionRepo.GetByID(context.Background(), nil, s.ID)
	if err != nil {
		t.Fatalf("reload session: %v", err)
	}
	if !reloaded.Submitted || reloaded.SubmittedAt == nil {
		t.Fatal("session not locked after submit")
	}

	already, err = env.sessions.Submit(context.Background(), s.ID)
	if err != nil {
		t.Fatalf("repeat submit: %v", err)
	}
	if !already {
		t.Fatal("repeat submit should report alreadySubmitted")
	}

	var audits int64
	env.db.Model(&types.Audit{}).Where("type = ?", types.AuditSubmit).Count(&audits)
	if audits != 1 {
		t.Fatalf("submit audit entries = %d, want 1", audits)
	}
}

func TestLockedSessionRejectsMutations(t *testing.T) {
	env := newTestEnv(t)
	a := env.seedAssignment(t, nil)
	s := env.startSession(t, a)

	if _, err := env.sessions.TabSwitch(context.Background(), s.ID); err != nil {
		t.Fatalf("tab switch before lock: %v", err)
	}
	if err := env.sessions.UpdateNotes(context.Background(), s.ID, "draft notes"); err != nil {
		t.Fatalf("notes before lock: %v", err)
	}

	if _, err := env.index.Generate(context.Background(), s.ID); err != nil {
		t.Fatalf("generate index: %v", err)
	}
	if _, err := env.sessions.Submit(context.Background(), s.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}

	before, err := env.sessionRepo.GetByID(context.Background(), nil, s.ID)
	if err != nil {
		t.Fatalf("reload session: %v", err)
	}
	transcriptBefore := len(env.transcript(t, s.ID))

	if err := env.sessions.Consent(context.Background(), s.ID); !errors.Is(err, ErrSessionLocked) {
		t.Fatalf("consent err = %v, want ErrSessionLocked", err)
	}
	if err := env.sessions.UpdateNotes(context.Background(), s.ID, "late edit"); !errors.Is(err, ErrSessionLocked) {
		t.Fatalf("notes err = %v, want ErrSessionLocked", err)
	}
	if _, err := env.sessions.TabSwitch(context.Background(), s.ID); !errors.Is(err, ErrSessionLocked) {
		t.Fatalf("tab switch err = %v, want ErrSessionLocked", err)
	}

	after, err := env.sessionRepo.GetByID(context.Background(), nil, s.ID)
	if err != nil {
		t.Fatalf("reload session: %v", err)
	}
	if after.TabSwitches != before.TabSwitches {
		t.Fatalf("tab_switches changed on locked session: %d -> %d", before.TabSwitches, after.TabSwitches)
	}
	if after.Notes == nil || before.Notes == nil || *after.Notes != *before.Notes {
		t.Fatalf("notes changed on locked session: %v -> %v", before.Notes, after.Notes)
	}
	if got := len(env.transcript(t, s.ID)); got != transcriptBefore {
		t.Fatalf("transcript changed on locked session: %d -> %d", transcriptBefore, got)
	}
}

func TestTabSwitchIncrements(t *testing.T) {
	env := newTestEnv(t)
	a := env.seedAssignment(t, nil)
	s := env.startSession(t, a)

	for want := 1; want <= 3; want++ {
		got, err := env.sessions.TabSwitch(context.Background(), s.ID)
		if err != nil {
			t.Fatalf("tab switch %d: %v", want, err)
		}
		if got != want {
			t.Fatalf("tab switch count = %d, want %d", got, want)
		}
	}
}

func TestConsentStampsAndAudits(t *testing.T) {
	env := newTestEnv(t)
	a := env.seedAssignment(t, nil)
	s := env.startSession(t, a)

	if err := env.sessions.Consent(context.Background(), s.ID); err != nil {
		t.Fatalf("consent: %v", err)
	}
	reloaded, err := env.sessionRepo.GetByID(context.Background(), nil, s.ID)
	if err != nil {
		t.Fatalf("reload session: %v", err)
	}
	if reloaded.ConsentAt == nil {
		t.Fatal("consent_at not stamped")
	}

	var audits int64
	env.db.Model(&types.Audit{}).Where("session_id = ? AND type = ?", s.ID, types.AuditConsent).Count(&audits)
	if audits != 1 {
		t.Fatalf("consent audit entries = %d, want 1", audits)
	}
}
