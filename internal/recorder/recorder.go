package recorder

import (
	"time"

	"StockAlert/internal/model"
)

// QuoteSnapshot is every quote received in one tick.
type QuoteSnapshot struct {
	TickID string
	At     time.Time
	Quotes map[string]model.Quote
}

// TriggerEvent records one alert firing.
type TriggerEvent struct {
	TickID string
	At     time.Time
	Key    string
	Alert  model.Alert
	Quote  model.Quote
	Reason string
}

// Recorder keeps a queryable journal of ticks and triggers next to the
// JSON cache. It never feeds back into trigger decisions.
type Recorder interface {
	RecordQuotes(snap *QuoteSnapshot) error
	RecordTrigger(evt *TriggerEvent) error
	Close() error
}
