package model

import (
	"fmt"
	"strconv"
	"strings"
)

// AlertKind selects which scalar of a quote an alert compares.
type AlertKind string

const (
	KindPriceValue                  AlertKind = "price_value"
	KindVolume                      AlertKind = "volume"
	KindPctDay                      AlertKind = "pct_day"
	KindPriceValueOffsetSinceLast   AlertKind = "price_value_offset_since_last_alert"
	KindPricePercentOffsetSinceLast AlertKind = "price_percent_offset_since_last_alert"
)

// AlertKinds lists every supported kind in a stable order.
var AlertKinds = []AlertKind{
	KindPriceValue,
	KindVolume,
	KindPctDay,
	KindPriceValueOffsetSinceLast,
	KindPricePercentOffsetSinceLast,
}

// Valid reports whether k is one of AlertKinds.
func (k AlertKind) Valid() bool {
	for _, v := range AlertKinds {
		if k == v {
			return true
		}
	}
	return false
}

// SinceLastAlert reports whether the kind compares against the previous trigger.
func (k AlertKind) SinceLastAlert() bool {
	return k == KindPriceValueOffsetSinceLast || k == KindPricePercentOffsetSinceLast
}

// Operator is the comparison applied between the observed value and the threshold.
type Operator string

const (
	OpGE Operator = ">="
	OpLE Operator = "<="
)

// Valid reports whether op is GE or LE.
func (op Operator) Valid() bool {
	return op == OpGE || op == OpLE
}

// Alert is a user-defined trigger condition on a symbol.
type Alert struct {
	Symbol          string    `json:"symbol"`
	Kind            AlertKind `json:"kind"`
	Op              Operator  `json:"op"`
	Value           float64   `json:"value"`
	CooldownSeconds int       `json:"cooldown_seconds"`
}

// NewAlert builds an alert with the symbol normalized to upper case.
func NewAlert(symbol string, kind AlertKind, op Operator, value float64, cooldownSeconds int) Alert {
	if cooldownSeconds < 0 {
		cooldownSeconds = 0
	}
	return Alert{
		Symbol:          strings.ToUpper(strings.TrimSpace(symbol)),
		Kind:            kind,
		Op:              op,
		Value:           value,
		CooldownSeconds: cooldownSeconds,
	}
}

// Key is the persistence identity of the alert, e.g. "AAPL price_value >= 200".
// Alerts with the same symbol, kind, operator and value share a key.
func (a Alert) Key() string {
	return fmt.Sprintf("%s %s", strings.ToUpper(a.Symbol), a.Condition())
}

// Name is the display name; it equals Key.
func (a Alert) Name() string { return a.Key() }

// Condition renders the condition part, e.g. "price_value >= 200".
func (a Alert) Condition() string {
	return RenderCondition(a.Kind, a.Op, a.Value)
}

// RenderCondition formats a condition in the form accepted by the parser.
func RenderCondition(kind AlertKind, op Operator, value float64) string {
	return fmt.Sprintf("%s %s %s", kind, op, FormatNumber(value))
}

// FormatNumber renders v in its shortest decimal form without an exponent.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
