package types

import "testing"

func TestRiskScore(t *testing.T) {
	cases := []struct {
		name    string
		session *Session
		want    float64
	}{
		{name: "nil_session", session: nil, want: 0},
		{name: "fresh", session: &Session{}, want: 0},
		{name: "submitted", session: &Session{Submitted: true}, want: 0.2},
		{name: "high_tabs", session: &Session{TabSwitches: 10}, want: 0.8},
		{name: "high_tabs_beats_submitted", session: &Session{TabSwitches: 12, Submitted: true}, want: 0.8},
		{name: "below_threshold", session: &Session{TabSwitches: 9}, want: 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := RiskScore(tc.session); got != tc.want {
				t.Fatalf("RiskScore = %v, want %v", got, tc.want)
			}
		})
	}
}
