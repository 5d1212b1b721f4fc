package cli

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"StockAlert/internal/collector"
	"StockAlert/internal/config"
	"StockAlert/internal/recorder"
	"StockAlert/internal/trigger"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	cfg := config.Default(t.TempDir())
	cfg.Fetch.Seed = 7
	return NewApp(cfg, zerolog.Nop())
}

func run(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd(app)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestWatchlistCommands(t *testing.T) {
	app := newTestApp(t)

	out, err := run(t, app, "watchlist", "add", "aapl", "msft")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Added to watchlist: AAPL, MSFT") {
		t.Errorf("add output: %q", out)
	}
	if out, _ := run(t, app, "watchlist", "add", "AAPL"); !strings.Contains(out, "No new symbols") {
		t.Errorf("re-add output: %q", out)
	}
	if out, _ := run(t, app, "watchlist", "remove", "msft"); !strings.Contains(out, "Removed from watchlist: MSFT") {
		t.Errorf("remove output: %q", out)
	}
	out, _ = run(t, app, "watchlist", "list")
	if out != "Watchlist:\n- AAPL\n" {
		t.Errorf("list output: %q", out)
	}
}

func TestAlertCreate_InvalidCondition(t *testing.T) {
	app := newTestApp(t)
	_, err := run(t, app, "alert", "create", "--symbol", "AAPL", "--when", "price >> 5")
	var ice *trigger.InvalidConditionError
	if !errors.As(err, &ice) {
		t.Fatalf("expected InvalidConditionError, got %v", err)
	}
	defs, _ := app.Definitions.Load()
	if len(defs.Alerts) != 0 {
		t.Error("nothing should be saved")
	}
}

func TestAlertCreateUpdateRemove(t *testing.T) {
	app := newTestApp(t)

	out, err := run(t, app, "alert", "create", "--symbol", "aapl", "--when", "price_value >= 200")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Created alert 'AAPL price_value >= 200' (cooldown 300s)") {
		t.Errorf("create output: %q", out)
	}
	out, _ = run(t, app, "alert", "create", "--symbol", "AAPL", "--when", "PRICE_VALUE>=200.0", "--cooldown", "60")
	if !strings.Contains(out, "Updated alert 'AAPL price_value >= 200' (cooldown 60s)") {
		t.Errorf("update output: %q", out)
	}

	out, _ = run(t, app, "alerts")
	if !strings.Contains(out, "- AAPL price_value >= 200 | cooldown 60s | last never") {
		t.Errorf("alerts output: %q", out)
	}

	if _, err := run(t, app, "alert", "remove", "AAPL", "price_value", ">=", "200"); err != nil {
		t.Fatal(err)
	}
	if out, _ := run(t, app, "alerts"); !strings.Contains(out, "No alerts defined.") {
		t.Errorf("alerts after remove: %q", out)
	}
	if _, err := run(t, app, "alert", "remove", "AAPL price_value >= 200"); err == nil {
		t.Error("removing a missing alert should fail")
	}
}

func TestMonitor_NothingToRun(t *testing.T) {
	out, err := run(t, newTestApp(t), "monitor", "--iterations", "1")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Nothing to run") {
		t.Errorf("output: %q", out)
	}
}

func TestMonitor_UnknownProvider(t *testing.T) {
	app := newTestApp(t)
	run(t, app, "watchlist", "add", "AAPL")
	_, err := run(t, app, "monitor", "--provider", "bloomberg", "--iterations", "1")
	var upe *collector.UnknownProviderError
	if !errors.As(err, &upe) {
		t.Errorf("expected UnknownProviderError, got %v", err)
	}
}

func TestMonitor_TriggersPersistAndJournal(t *testing.T) {
	app := newTestApp(t)
	app.Config.Database.SQLitePath = filepath.Join(app.Config.AppDir, "journal.db")

	if _, err := run(t, app, "alert", "create", "--symbol", "AAPL", "--when", "price_value >= 0", "--cooldown", "3600"); err != nil {
		t.Fatal(err)
	}
	run(t, app, "watchlist", "add", "MSFT")

	out, err := run(t, app, "monitor", "--iterations", "2", "--interval", "1s", "--verbose")
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(out, "[ALERT] AAPL price_value >= 0 (AAPL)"); n != 1 {
		t.Errorf("expected one alert across two ticks (cooldown), got %d:\n%s", n, out)
	}
	if !strings.Contains(out, "MSFT: price=") || !strings.Contains(out, "Run finished.") {
		t.Errorf("verbose output missing:\n%s", out)
	}

	out, _ = run(t, app, "alerts")
	if strings.Contains(out, "last never") {
		t.Errorf("trigger time should come from the cache: %q", out)
	}

	rec, err := recorder.NewSQLiteRecorder(app.Config.Database.SQLitePath, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer rec.Close()
	if n, _ := rec.TriggerCount("AAPL price_value >= 0"); n != 1 {
		t.Errorf("expected 1 journaled trigger, got %d", n)
	}
}

func TestMonitor_BadSchedule(t *testing.T) {
	app := newTestApp(t)
	run(t, app, "watchlist", "add", "AAPL")
	if _, err := run(t, app, "monitor", "--schedule", "whenever"); err == nil {
		t.Error("expected schedule parse error")
	}
}

type ctxNotifier struct {
	err         error
	hasDeadline bool
	text        string
}

func (n *ctxNotifier) Notify(ctx context.Context, text string) error {
	n.err = ctx.Err()
	_, n.hasDeadline = ctx.Deadline()
	n.text = text
	return nil
}

func TestDeliver_SurvivesCancelledRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n := &ctxNotifier{}
	if err := deliver(ctx, n, "AAPL crossed 200"); err != nil {
		t.Fatal(err)
	}
	if n.err != nil {
		t.Errorf("notification context should not inherit cancellation, got %v", n.err)
	}
	if !n.hasDeadline {
		t.Error("notification should be bounded by a timeout")
	}
	if n.text != "AAPL crossed 200" {
		t.Errorf("text = %q", n.text)
	}
}

func TestDebugFlag_ReachesStores(t *testing.T) {
	var logs bytes.Buffer
	cfg := config.Default(t.TempDir())
	app := NewApp(cfg, zerolog.New(&logs).Level(zerolog.InfoLevel))

	if _, err := run(t, app, "watchlist", "add", "AAPL"); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(logs.String(), "definitions saved") {
		t.Fatalf("debug log written without --debug: %s", logs.String())
	}
	if _, err := run(t, app, "--debug", "watchlist", "add", "MSFT"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(logs.String(), "definitions saved") {
		t.Errorf("definitions store should log at debug level with --debug: %s", logs.String())
	}
}
