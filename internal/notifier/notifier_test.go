package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"StockAlert/internal/model"
)

func TestTelegramNotifier_Send(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botTOKEN/sendMessage" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier("TOKEN", "42", "", zerolog.Nop())
	n.BaseURL = srv.URL
	if err := n.Notify(context.Background(), "<b>hi</b>"); err != nil {
		t.Fatal(err)
	}
	if got["chat_id"] != "42" || got["text"] != "<b>hi</b>" || got["parse_mode"] != "HTML" {
		t.Errorf("unexpected payload %v", got)
	}
}

func TestTelegramNotifier_RetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "flood", http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier("T", "1", "", zerolog.Nop())
	n.BaseURL = srv.URL
	n.Backoff = time.Millisecond
	if err := n.SendWithRetry(context.Background(), "x", 3); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestTelegramNotifier_GivesUp(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	n := NewTelegramNotifier("T", "1", "", zerolog.Nop())
	n.BaseURL = srv.URL
	n.Backoff = time.Millisecond
	err := n.SendWithRetry(context.Background(), "x", 2)
	if err == nil || !strings.Contains(err.Error(), "status 401") {
		t.Errorf("expected final error, got %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestFormatAlert(t *testing.T) {
	a := model.NewAlert("AAPL", model.KindPriceValue, model.OpGE, 200, 300)
	q := model.Quote{Symbol: "AAPL", Price: 205.5, PctDay: 1.25, Volume: 1000}
	msg := FormatAlert(a.Key(), a, q, "price_value >= 200 (now 205.5)", time.Now())

	for _, want := range []string{"<b>AAPL</b>", "price_value &gt;= 200", "205.50", "+1.25%", "Cooldown: 5m0s"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestFormatQuotes_Sorted(t *testing.T) {
	out := FormatQuotes(map[string]model.Quote{
		"MSFT": {Symbol: "MSFT", Price: 410, PctDay: -0.5, Volume: 2},
		"AAPL": {Symbol: "AAPL", Price: 205.25, PctDay: 1, Volume: 1},
	})
	want := "AAPL: price=205.25 pct_day=1% volume=1\nMSFT: price=410 pct_day=-0.5% volume=2"
	if out != want {
		t.Errorf("got\n%s\nwant\n%s", out, want)
	}
}
