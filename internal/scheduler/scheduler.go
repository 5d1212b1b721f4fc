package scheduler

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"StockAlert/internal/cache"
	"StockAlert/internal/collector"
	"StockAlert/internal/model"
	"StockAlert/internal/trigger"
)

// State is the run loop's lifecycle position.
type State int32

const (
	Idle State = iota
	Ticking
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Ticking:
		return "ticking"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// TickFunc receives the quotes fetched in one tick. A returned error ends the run.
type TickFunc func(quotes map[string]model.Quote) error

// AlertFunc is called once per trigger, after the trigger has been saved.
// A returned error ends the run.
type AlertFunc func(key string, alert model.Alert, q model.Quote, reason string) error

// Runner fetches quotes on a schedule and evaluates alerts against them.
// Ticks never overlap.
type Runner struct {
	Collector  *collector.Collector
	Cache      *cache.Store
	Alerts     []model.Alert
	Watchlist  []string
	Schedule   cron.Schedule
	Iterations int // 0 runs until ctx is cancelled
	OnTick     TickFunc
	OnAlert    AlertFunc
	Now        func() time.Time

	state  atomic.Int32
	mu     sync.Mutex
	tickID string
	log    zerolog.Logger
}

// NewRunner creates a Runner ticking once per interval.
func NewRunner(col *collector.Collector, store *cache.Store, logger zerolog.Logger) *Runner {
	return &Runner{
		Collector: col,
		Cache:     store,
		Schedule:  Every(time.Second),
		Now:       time.Now,
		log:       logger.With().Str("component", "scheduler").Logger(),
	}
}

// fixedDelay fires a full interval after the time it is given.
type fixedDelay time.Duration

func (d fixedDelay) Next(t time.Time) time.Time { return t.Add(time.Duration(d)) }

// Every returns a schedule firing interval after the end of each tick.
// Intervals below one second are raised to one second.
func Every(interval time.Duration) cron.Schedule {
	if interval < time.Second {
		interval = time.Second
	}
	return fixedDelay(interval)
}

// ParseSchedule parses a cron spec with an optional leading seconds field,
// e.g. "*/30 * 9-16 * * 1-5" or "@every 1m".
func ParseSchedule(spec string) (cron.Schedule, error) {
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	s, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", spec, err)
	}
	return s, nil
}

// State returns the current lifecycle state.
func (r *Runner) State() State { return State(r.state.Load()) }

// TickID identifies the tick in progress, or the last one completed.
func (r *Runner) TickID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tickID
}

// Symbols is the sorted union of watchlist and alert symbols.
func (r *Runner) Symbols() []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(sym string) {
		sym = strings.ToUpper(strings.TrimSpace(sym))
		if sym == "" {
			return
		}
		if _, ok := seen[sym]; ok {
			return
		}
		seen[sym] = struct{}{}
		out = append(out, sym)
	}
	for _, s := range r.Watchlist {
		add(s)
	}
	for _, a := range r.Alerts {
		add(a.Symbol)
	}
	sort.Strings(out)
	return out
}

// Run ticks immediately and then on every Schedule activation until
// Iterations ticks have completed or ctx is cancelled. Cancellation is
// observed between ticks only, and is not an error. Callback errors are
// returned as-is.
func (r *Runner) Run(ctx context.Context) error {
	defer r.state.Store(int32(Stopped))

	r.log.Info().Int("alerts", len(r.Alerts)).Strs("symbols", r.Symbols()).Int("iterations", r.Iterations).Msg("monitoring started")
	for n := 1; ; n++ {
		if ctx.Err() != nil {
			r.log.Info().Msg("monitoring stopped")
			return nil
		}
		if _, err := r.RunOnce(ctx); err != nil {
			return err
		}
		if r.Iterations > 0 && n >= r.Iterations {
			r.log.Info().Int("ticks", n).Msg("iteration budget reached")
			return nil
		}

		wait := time.Until(r.Schedule.Next(time.Now()))
		if wait < 0 {
			wait = 0
		}
		r.log.Debug().Dur("wait", wait).Msg("sleeping until next tick")
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			r.log.Info().Msg("monitoring stopped")
			return nil
		case <-timer.C:
		}
	}
}

// RunOnce performs a single tick and returns the keys of the alerts that
// triggered. A failed cache save is logged and the tick carries on.
func (r *Runner) RunOnce(ctx context.Context) ([]string, error) {
	r.state.Store(int32(Ticking))
	defer r.state.Store(int32(Idle))

	now := r.Now()
	id := uuid.NewString()
	r.mu.Lock()
	r.tickID = id
	r.mu.Unlock()
	log := r.log.With().Str("tick", id).Logger()

	doc := r.Cache.Read()
	times, err := doc.TriggerTimes()
	if err != nil {
		log.Warn().Err(err).Msg("unreadable trigger times, starting empty")
		times = map[string]model.TriggerTime{}
	}
	history, err := doc.History()
	if err != nil {
		log.Warn().Err(err).Msg("unreadable alert history, starting empty")
		history = map[string][]model.AlertRecord{}
	}

	symbols := r.Symbols()
	quotes := r.Collector.Collect(ctx, symbols)
	log.Debug().Int("requested", len(symbols)).Int("received", len(quotes)).Msg("quotes collected")

	if r.OnTick != nil {
		if err := r.OnTick(quotes); err != nil {
			return nil, err
		}
	}

	var triggered []string
	for _, alert := range r.Alerts {
		q, ok := quotes[strings.ToUpper(alert.Symbol)]
		if !ok {
			continue
		}
		key := alert.Key()
		var last *model.TriggerTime
		if ts, ok := times[key]; ok {
			last = &ts
		}
		fire, reason := trigger.ShouldTrigger(alert, q, now, last, cache.LastRecord(history, key))
		if !fire {
			log.Debug().Str("alert", key).Str("reason", reason).Msg("not triggered")
			continue
		}

		history[key] = append(history[key], model.NewAlertRecord(now, alert.Name(), q.Price))
		times[key] = model.EpochTime(now)
		if err := r.Cache.Save(map[string]any{
			cache.FieldLastTriggerTS: times,
			cache.FieldAlertHistory:  history,
		}); err != nil {
			log.Error().Err(err).Str("alert", key).Msg("could not persist trigger")
		}
		triggered = append(triggered, key)

		if r.OnAlert != nil {
			if err := r.OnAlert(key, alert, q, reason); err != nil {
				return triggered, err
			}
		}
	}
	return triggered, nil
}
