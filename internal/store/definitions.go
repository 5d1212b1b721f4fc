package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"StockAlert/internal/model"
)

const (
	DefaultFileName = "watchlist.json"

	fieldWatchlist = "watchlist"
	fieldAlerts    = "alerts"
)

// Definitions is the user's watchlist and configured alerts. Alerts keep
// the order they were created in.
type Definitions struct {
	Watchlist []string
	Alerts    []model.Alert

	extra map[string]json.RawMessage // top-level keys owned by someone else
}

// AddSymbols merges symbols into the watchlist and returns those that were new.
func (d *Definitions) AddSymbols(symbols ...string) []string {
	have := make(map[string]bool, len(d.Watchlist))
	for _, s := range d.Watchlist {
		have[s] = true
	}
	var added []string
	for _, s := range symbols {
		s = normalizeSymbol(s)
		if s == "" || have[s] {
			continue
		}
		have[s] = true
		d.Watchlist = append(d.Watchlist, s)
		added = append(added, s)
	}
	d.Watchlist = sortedUnique(d.Watchlist)
	return added
}

// RemoveSymbols drops symbols from the watchlist and returns those removed.
func (d *Definitions) RemoveSymbols(symbols ...string) []string {
	drop := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		drop[normalizeSymbol(s)] = true
	}
	var kept, removed []string
	for _, s := range d.Watchlist {
		if drop[s] {
			removed = append(removed, s)
			continue
		}
		kept = append(kept, s)
	}
	d.Watchlist = kept
	return removed
}

// UpsertAlert adds a, or replaces the alert with the same key in place.
// It reports whether an existing alert was replaced.
func (d *Definitions) UpsertAlert(a model.Alert) bool {
	key := a.Key()
	for i, existing := range d.Alerts {
		if existing.Key() == key {
			d.Alerts[i] = a
			return true
		}
	}
	d.Alerts = append(d.Alerts, a)
	return false
}

// RemoveAlert deletes the alert with key (case-insensitive on the symbol part).
func (d *Definitions) RemoveAlert(key string) bool {
	for i, a := range d.Alerts {
		if strings.EqualFold(a.Key(), strings.TrimSpace(key)) {
			d.Alerts = append(d.Alerts[:i], d.Alerts[i+1:]...)
			return true
		}
	}
	return false
}

// FindAlert returns the alert with key, if any.
func (d *Definitions) FindAlert(key string) (model.Alert, bool) {
	for _, a := range d.Alerts {
		if strings.EqualFold(a.Key(), strings.TrimSpace(key)) {
			return a, true
		}
	}
	return model.Alert{}, false
}

// Store reads and writes the definitions file.
type Store struct {
	path string
	log  zerolog.Logger
}

// NewStore creates a Store for the definitions file at path.
func NewStore(path string, logger zerolog.Logger) *Store {
	return &Store{
		path: path,
		log:  logger.With().Str("component", "definitions").Logger(),
	}
}

func (s *Store) Path() string { return s.path }

// Load reads the definitions. A missing file yields empty definitions; a
// file that cannot be decoded is an error so that it is never overwritten.
// Older layouts are translated on the way in.
func (s *Store) Load() (*Definitions, error) {
	defs := &Definitions{extra: map[string]json.RawMessage{}}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return defs, nil
		}
		return nil, fmt.Errorf("read definitions: %w", err)
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("parse definitions %s: %w", s.path, err)
	}
	for k, v := range top {
		defs.extra[k] = v
	}
	delete(defs.extra, fieldWatchlist)
	delete(defs.extra, fieldAlerts)

	if raw, ok := top[fieldWatchlist]; ok && !isNull(raw) {
		var symbols []string
		if err := json.Unmarshal(raw, &symbols); err != nil {
			return nil, fmt.Errorf("parse watchlist in %s: %w", s.path, err)
		}
		defs.Watchlist = sortedUnique(symbols)
	}
	if raw, ok := top[fieldAlerts]; ok && !isNull(raw) {
		alerts, legacy, err := decodeAlerts(raw)
		if err != nil {
			return nil, fmt.Errorf("parse alerts in %s: %w", s.path, err)
		}
		if legacy {
			s.log.Info().Int("alerts", len(alerts)).Msg("translated legacy alert definitions")
		}
		defs.Alerts = alerts
	}
	return defs, nil
}

// Save writes defs atomically.
func (s *Store) Save(defs *Definitions) error {
	top := make(map[string]any, len(defs.extra)+2)
	for k, v := range defs.extra {
		top[k] = v
	}
	top[fieldWatchlist] = nonNil(sortedUnique(defs.Watchlist))
	alerts := defs.Alerts
	if alerts == nil {
		alerts = []model.Alert{}
	}
	top[fieldAlerts] = alerts

	data, err := json.MarshalIndent(top, "", "  ")
	if err != nil {
		return fmt.Errorf("encode definitions: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create definitions dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write definitions: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace definitions: %w", err)
	}
	s.log.Debug().Str("path", s.path).Int("symbols", len(defs.Watchlist)).Int("alerts", len(defs.Alerts)).Msg("definitions saved")
	return nil
}

func normalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func sortedUnique(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	var out []string
	for _, s := range symbols {
		s = normalizeSymbol(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func isNull(raw json.RawMessage) bool {
	return len(strings.TrimSpace(string(raw))) == 0 || strings.TrimSpace(string(raw)) == "null"
}
