package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"StockAlert/internal/model"
)

// storedAlert accepts every field name the definitions file has used.
type storedAlert struct {
	Symbol string  `json:"symbol"`
	Kind   string  `json:"kind"`
	Op     string  `json:"op"`
	Value  float64 `json:"value"`

	CooldownSeconds   *float64 `json:"cooldown_seconds"`
	AlertCooldownSecs *float64 `json:"alert_cooldown_secs"`
	CooldownSec       *float64 `json:"cooldown_sec"`
}

var legacyKinds = map[string]model.AlertKind{
	"price": model.KindPriceValue,
}

var operatorNames = map[string]model.Operator{
	">=": model.OpGE,
	"ge": model.OpGE,
	"<=": model.OpLE,
	"le": model.OpLE,
}

// decodeAlerts reads the alerts section. The current layout is an array; the
// old one was an object keyed by alert name, decoded here in name order.
func decodeAlerts(raw json.RawMessage) ([]model.Alert, bool, error) {
	raw = bytes.TrimSpace(raw)
	var (
		stored []storedAlert
		legacy bool
	)
	switch {
	case len(raw) > 0 && raw[0] == '[':
		if err := json.Unmarshal(raw, &stored); err != nil {
			return nil, false, err
		}
	case len(raw) > 0 && raw[0] == '{':
		var byName map[string]storedAlert
		if err := json.Unmarshal(raw, &byName); err != nil {
			return nil, false, err
		}
		names := make([]string, 0, len(byName))
		for name := range byName {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			stored = append(stored, byName[name])
		}
		legacy = true
	default:
		return nil, false, fmt.Errorf("alerts must be a list or an object")
	}

	alerts := make([]model.Alert, 0, len(stored))
	for i, s := range stored {
		a, wasLegacy, err := s.toAlert()
		if err != nil {
			return nil, false, fmt.Errorf("alert %d: %w", i, err)
		}
		legacy = legacy || wasLegacy
		alerts = append(alerts, a)
	}
	return alerts, legacy, nil
}

func (s storedAlert) toAlert() (model.Alert, bool, error) {
	legacy := false

	kindName := strings.ToLower(strings.TrimSpace(s.Kind))
	kind := model.AlertKind(kindName)
	if mapped, ok := legacyKinds[kindName]; ok {
		kind = mapped
		legacy = true
	}
	if !kind.Valid() {
		return model.Alert{}, false, fmt.Errorf("unknown kind %q", s.Kind)
	}

	op, ok := operatorNames[strings.ToLower(strings.TrimSpace(s.Op))]
	if !ok {
		return model.Alert{}, false, fmt.Errorf("unknown operator %q", s.Op)
	}
	if string(op) != s.Op {
		legacy = true
	}

	var cooldown float64
	switch {
	case s.CooldownSeconds != nil:
		cooldown = *s.CooldownSeconds
	case s.AlertCooldownSecs != nil:
		cooldown = *s.AlertCooldownSecs
		legacy = true
	case s.CooldownSec != nil:
		cooldown = *s.CooldownSec
		legacy = true
	}

	if strings.TrimSpace(s.Symbol) == "" {
		return model.Alert{}, false, fmt.Errorf("missing symbol")
	}
	return model.NewAlert(s.Symbol, kind, op, s.Value, int(cooldown)), legacy, nil
}
