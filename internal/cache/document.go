package cache

import (
	"encoding/json"
	"fmt"

	"StockAlert/internal/model"
)

// Top-level cache sections owned by the alert engine.
const (
	FieldLastTriggerTS = "last_alerts_trigger_ts"
	FieldAlertHistory  = "alerts"

	legacyFieldLastTriggerTS = "last_alert_trigger_ts"
)

// Document is the decoded top-level cache object. Sections are kept raw so
// keys the engine does not know about survive a read-merge-write unchanged.
type Document map[string]json.RawMessage

// TriggerTimes decodes the last-trigger section. A missing section yields an
// empty map.
func (d Document) TriggerTimes() (map[string]model.TriggerTime, error) {
	out := make(map[string]model.TriggerTime)
	raw, ok := d[FieldLastTriggerTS]
	if !ok || isNull(raw) {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return make(map[string]model.TriggerTime), fmt.Errorf("decode %s: %w", FieldLastTriggerTS, err)
	}
	return out, nil
}

// History decodes the per-alert trigger history. A missing section yields an
// empty map.
func (d Document) History() (map[string][]model.AlertRecord, error) {
	out := make(map[string][]model.AlertRecord)
	raw, ok := d[FieldAlertHistory]
	if !ok || isNull(raw) {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return make(map[string][]model.AlertRecord), fmt.Errorf("decode %s: %w", FieldAlertHistory, err)
	}
	return out, nil
}

// LastRecord returns the newest history entry for key, or nil.
func LastRecord(history map[string][]model.AlertRecord, key string) *model.AlertRecord {
	records := history[key]
	if len(records) == 0 {
		return nil
	}
	rec := records[len(records)-1]
	return &rec
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
