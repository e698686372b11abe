package types

// HighTabSwitchCount is the tab-switch count at which a session is flagged
// for review.
const HighTabSwitchCount = 10

// RiskScore derives a review-priority score from a session snapshot. It is
// never persisted; recomputing on read keeps the stored row and the displayed
// flag from diverging.
func RiskScore(s *Session) float64 {
  if s == nil {
    return 0
  }
  if s.TabSwitches >= HighTabSwitchCount {
    return 0.8
  }
  if s.Submitted {
    return 0.2
  }
  return 0
}
