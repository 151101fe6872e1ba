package types

import "time"

// Snapshot is the aggregate produced by one refresh cycle across all panels.
// Panels that had not finished when the cycle deadline passed are listed in
// Pending and their fields are left empty.
type Snapshot struct {
	CycleID     string                      `json:"cycle_id"`
	StartedAt   time.Time                   `json:"started_at"`
	CompletedAt time.Time                   `json:"completed_at"`
	Session     string                      `json:"session"`
	Quotes      map[string]Quote            `json:"quotes"`
	Gainers     []Quote                     `json:"gainers"`
	Losers      []Quote                     `json:"losers"`
	Volatility  map[string]VolatilityRecord `json:"volatility"`
	Headlines   []Headline                  `json:"headlines"`
	Economic    []EconomicEvent             `json:"economic"`
	Earnings    EarningsSchedule            `json:"earnings"`
	Pending     []string                    `json:"pending,omitempty"`
}

// Complete reports whether every panel finished inside the cycle deadline.
func (s *Snapshot) Complete() bool {
	return len(s.Pending) == 0
}
