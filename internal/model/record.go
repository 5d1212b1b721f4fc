package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeLayout is the local-time format used for human-readable timestamps in the cache.
const TimeLayout = "2006-01-02 15:04:05"

// AlertRecord is one historical trigger event. Records are append-only.
type AlertRecord struct {
	TriggerTS string  `json:"trigger_ts"`
	AlertName string  `json:"alert_name"`
	Price     float64 `json:"last_alert_price"`
}

// NewAlertRecord stamps a record with now in TimeLayout.
func NewAlertRecord(now time.Time, name string, price float64) AlertRecord {
	return AlertRecord{
		TriggerTS: now.Local().Format(TimeLayout),
		AlertName: name,
		Price:     price,
	}
}

// TriggerTime is a last-trigger timestamp. It is written as epoch seconds, but
// older caches stored a TimeLayout string, so both forms are accepted on read.
type TriggerTime struct {
	epoch  float64
	text   string
	isText bool
}

// EpochTime returns a TriggerTime holding t as epoch seconds.
func EpochTime(t time.Time) TriggerTime {
	return TriggerTime{epoch: float64(t.Unix())}
}

// EpochSeconds returns a TriggerTime holding a raw epoch value.
func EpochSeconds(sec float64) TriggerTime {
	return TriggerTime{epoch: sec}
}

// TextTime returns a TriggerTime holding the legacy string form.
func TextTime(s string) TriggerTime {
	return TriggerTime{text: s, isText: true}
}

// Unix returns the timestamp as epoch seconds. An unparsable legacy string
// yields 0, so any cooldown measured from it has already expired.
func (t TriggerTime) Unix() float64 {
	if !t.isText {
		return t.epoch
	}
	parsed, err := time.ParseInLocation(TimeLayout, strings.TrimSpace(t.text), time.Local)
	if err != nil {
		return 0
	}
	return float64(parsed.Unix())
}

// IsLegacy reports whether the value was read in the string form.
func (t TriggerTime) IsLegacy() bool { return t.isText }

// String renders the timestamp in local TimeLayout.
func (t TriggerTime) String() string {
	if t.isText {
		return t.text
	}
	sec := int64(t.epoch)
	return time.Unix(sec, 0).Local().Format(TimeLayout)
}

func (t TriggerTime) MarshalJSON() ([]byte, error) {
	if t.isText {
		return json.Marshal(t.text)
	}
	return []byte(strconv.FormatFloat(t.epoch, 'f', -1, 64)), nil
}

func (t *TriggerTime) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = TriggerTime{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = TextTime(s)
		return nil
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("trigger time %s: %w", data, err)
	}
	*t = EpochSeconds(v)
	return nil
}
