package types

import "time"

// Quote is a normalized price snapshot for a single symbol.
// Optional upstream fields that were missing are reported as zero.
type Quote struct {
	Symbol     string    `json:"symbol"`
	Price      float64   `json:"price"`
	Change     float64   `json:"change"`
	ChangePct  float64   `json:"change_pct"`
	Volume     int64     `json:"volume"`
	MarketCap  float64   `json:"market_cap"`
	ObservedAt time.Time `json:"observed_at"`
}

// Direction selects the ranking order for top movers.
type Direction string

const (
	Gainers Direction = "gainers"
	Losers  Direction = "losers"
)

// ParseDirection validates a user supplied direction.
func ParseDirection(s string) (Direction, bool) {
	switch Direction(s) {
	case Gainers:
		return Gainers, true
	case Losers:
		return Losers, true
	default:
		return "", false
	}
}
