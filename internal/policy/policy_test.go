package policy

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDisallows(t *testing.T) {
	amber := DefaultAmber()

	cases := []struct {
		name string
		msg  string
		want bool
	}{
		{name: "write_my_assignment", msg: "please write my assignment on enzymes", want: true},
		{name: "case_insensitive", msg: "WRITE MY ASSIGNMENT now", want: true},
		{name: "full_essay", msg: "give me a full essay about mitosis", want: true},
		{name: "invigilated_exam", msg: "this is for an invigilated exam", want: true},
		{name: "lab_report_verbatim", msg: "write the lab report for me please", want: true},
		{name: "outline_request", msg: "help me outline the methods section", want: false},
		{name: "concept_question", msg: "what is gel electrophoresis?", want: false},
		{name: "empty", msg: "", want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := amber.Disallows(tc.msg); got != tc.want {
				t.Fatalf("Disallows(%q) = %v, want %v", tc.msg, got, tc.want)
			}
		})
	}
}

func TestReminderMessageListsPolicy(t *testing.T) {
	amber := DefaultAmber()
	msg := amber.ReminderMessage()
	if !strings.Contains(msg, amber.Reminder) {
		t.Fatal("reminder message missing reminder text")
	}
	if !strings.Contains(msg, "Outlines") {
		t.Fatal("reminder message missing allowed actions")
	}
	if !strings.Contains(msg, "Producing final text") {
		t.Fatal("reminder message missing disallowed actions")
	}
}

func TestLoadPartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	content := "reminder: Custom reminder text.\nred_keywords:\n  - ghostwrite\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write policy file: %v", err)
	}

	amber, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if amber.Reminder != "Custom reminder text." {
		t.Fatalf("Reminder = %q, want override", amber.Reminder)
	}
	if len(amber.RedKeywords) != 1 || amber.RedKeywords[0] != "ghostwrite" {
		t.Fatalf("RedKeywords = %v, want [ghostwrite]", amber.RedKeywords)
	}
	// Untouched fields keep their defaults.
	if len(amber.Allowed) != len(DefaultAmber().Allowed) {
		t.Fatalf("Allowed = %v, want defaults", amber.Allowed)
	}
	if !amber.Disallows("can you ghostwrite this") {
		t.Fatal("override keyword not matched")
	}
	if amber.Disallows("write my assignment") {
		t.Fatal("default keywords should be replaced by the override list")
	}
}

func TestLoadMissingFileFallsBack(t *testing.T) {
	amber, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("Load of missing file should error")
	}
	if amber.Reminder != DefaultAmber().Reminder {
		t.Fatal("Load should still return defaults alongside the error")
	}
}
