package cache

import (
	"encoding/json"

	"StockAlert/internal/model"
)

// MigrateLegacy rewrites an older cache layout in place: the singular
// "last_alert_trigger_ts" section is renamed and string timestamps are
// converted to epoch seconds. It reports whether anything changed. Runs once
// at startup, never during a tick.
func (s *Store) MigrateLegacy() (bool, error) {
	doc := s.Read()
	changed := false

	if legacy, ok := doc[legacyFieldLastTriggerTS]; ok {
		if _, exists := doc[FieldLastTriggerTS]; !exists {
			doc[FieldLastTriggerTS] = legacy
		}
		delete(doc, legacyFieldLastTriggerTS)
		changed = true
	}

	times, err := doc.TriggerTimes()
	if err != nil {
		s.log.Warn().Err(err).Msg("cannot decode trigger times, leaving them as-is")
	} else {
		normalized := false
		for key, ts := range times {
			if ts.IsLegacy() {
				times[key] = model.EpochSeconds(ts.Unix())
				normalized = true
			}
		}
		if normalized {
			raw, err := json.Marshal(times)
			if err != nil {
				return false, err
			}
			doc[FieldLastTriggerTS] = raw
			changed = true
		}
	}

	if !changed {
		return false, nil
	}
	if err := s.write(doc); err != nil {
		return false, err
	}
	s.log.Info().Str("path", s.Path()).Msg("legacy cache layout migrated")
	return true, nil
}
