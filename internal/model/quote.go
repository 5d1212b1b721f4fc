package model

// Quote is a single snapshot of a symbol supplied by a provider.
type Quote struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
	PctDay float64 `json:"pct_day"` // percent change vs. previous close
	Volume int64   `json:"volume"`
}
