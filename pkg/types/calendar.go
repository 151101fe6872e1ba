package types

// Importance ranks how market-moving an economic release is.
type Importance string

const (
	ImportanceHigh   Importance = "high"
	ImportanceMedium Importance = "medium"
	ImportanceLow    Importance = "low"
)

// EconomicEvent is one scheduled macro release for a calendar day.
type EconomicEvent struct {
	Time       string     `json:"time"`
	Name       string     `json:"name"`
	Forecast   string     `json:"forecast"`
	Importance Importance `json:"importance"`
}

// EarningsTiming says when during the session a company reports.
type EarningsTiming string

const (
	BeforeOpen    EarningsTiming = "before_open"
	AfterClose    EarningsTiming = "after_close"
	TimingUnknown EarningsTiming = "unknown"
)

// EarningsSchedule groups the symbols reporting on a single day.
// Symbols whose report time is not known land in Unknown rather than
// being guessed into one of the session buckets.
type EarningsSchedule struct {
	Date       string   `json:"date"`
	BeforeOpen []string `json:"before_open"`
	AfterClose []string `json:"after_close"`
	Unknown    []string `json:"unknown"`
}

// Empty reports whether no symbol reports on the schedule's day.
func (e EarningsSchedule) Empty() bool {
	return len(e.BeforeOpen) == 0 && len(e.AfterClose) == 0 && len(e.Unknown) == 0
}

// EarningsDetails carries consensus estimates for a symbol's next report.
// Nil fields were not published upstream.
type EarningsDetails struct {
	Symbol          string   `json:"symbol"`
	EPSEstimate     *float64 `json:"eps_estimate"`
	RevenueEstimate *float64 `json:"revenue_estimate"`
	ReturnOnEquity  *float64 `json:"return_on_equity"`
}
