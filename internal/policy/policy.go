package policy

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Amber is the coaching-tier policy applied to assignments that permit AI
// assistance. It is an immutable value constructed once at startup and
// injected into the chat service, so assignment-specific variants stay
// representable without code change.
type Amber struct {
	Allowed     []string `yaml:"allowed"`
	NotAllowed  []string `yaml:"not_allowed"`
	RedKeywords []string `yaml:"red_keywords"`
	Reminder    string   `yaml:"reminder"`
}

func DefaultAmber() Amber {
	return Amber{
		Allowed: []string{
			"Brainstorming/plan",
			"Outlines",
			"Concept explanations",
			"Reading lists",
			"Feedback on draft",
			"Citation guidance",
		},
		NotAllowed: []string{
			"Producing final text",
			"Writing assignment verbatim",
			"Helping invigilated exams",
			"Evading originality checks",
		},
		RedKeywords: []string{
			"invigilated",
			"exam",
			"closed book",
			"test paper",
			"final exam",
			"write my assignment",
			"full essay",
			"complete the coursework",
			"write the lab report for me",
		},
		Reminder: "AMBER: Worksy coaches your thinking but will not write final submission text. All usage is logged.",
	}
}

// Load reads an amber policy override from a YAML file. Fields left empty in
// the file fall back to the defaults, so a deployment can override just the
// reminder text or just the keyword list.
func Load(path string) (Amber, error) {
	base := DefaultAmber()
	raw, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read policy file: %w", err)
	}
	var override Amber
	if err := yaml.Unmarshal(raw, &override); err != nil {
		return base, fmt.Errorf("parse policy file: %w", err)
	}
	if len(override.Allowed) > 0 {
		base.Allowed = override.Allowed
	}
	if len(override.NotAllowed) > 0 {
		base.NotAllowed = override.NotAllowed
	}
	if len(override.RedKeywords) > 0 {
		base.RedKeywords = override.RedKeywords
	}
	if strings.TrimSpace(override.Reminder) != "" {
		base.Reminder = override.Reminder
	}
	return base, nil
}

// Disallows reports whether the message text trips any red-flag phrase.
// Matching is case-insensitive substring containment.
func (p Amber) Disallows(text string) bool {
	lowered := strings.ToLower(text)
	for _, k := range p.RedKeywords {
		if strings.Contains(lowered, k) {
			return true
		}
	}
	return false
}

// ReminderMessage is the canned assistant reply used when a request is
// intercepted under amber mode.
func (p Amber) ReminderMessage() string {
	return fmt.Sprintf(
		"Policy (AMBER): %s\nAllowed: %s\nNot allowed: %s\nTry: outline, plan, feedback, concepts.",
		p.Reminder,
		strings.Join(p.Allowed, "; "),
		strings.Join(p.NotAllowed, "; "),
	)
}

// Banner is shown once, prepended to the first real assistant reply of a new
// session.
func (p Amber) Banner() string {
	return fmt.Sprintf(
		"\U0001F4D8 Worksy (AMBER): %s\nAllowed: %s\nNot allowed: %s",
		p.Reminder,
		strings.Join(p.Allowed, "; "),
		strings.Join(p.NotAllowed, "; "),
	)
}
