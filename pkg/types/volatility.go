package types

import "time"

// VolatilityRecord holds the historical-volatility proxy used in place of
// option-implied volatility. Vol figures are annualized percentages.
type VolatilityRecord struct {
	Symbol          string    `json:"symbol"`
	CurrentVol      float64   `json:"current_vol"`
	Trailing30dVol  float64   `json:"trailing_30d_vol"`
	PercentileProxy float64   `json:"percentile_proxy"`
	ObservedAt      time.Time `json:"observed_at"`
}
