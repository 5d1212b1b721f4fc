package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"StockAlert/internal/model"
)

// ErrNoQuoteData is returned when a provider answers but has nothing for the symbol.
var ErrNoQuoteData = errors.New("no quote data")

// QuoteProvider fetches a single quote for a symbol.
type QuoteProvider interface {
	GetQuote(ctx context.Context, symbol string) (model.Quote, error)
	Name() string
}

// Throttled is implemented by providers whose requests are rate limited.
// The collector calls Wait before starting the per-symbol deadline, so a
// request queued behind the limiter is delayed rather than timed out.
type Throttled interface {
	Wait(ctx context.Context) error
}

// waitTurn takes a token from lim. A free token is taken even when ctx is
// already done; only queueing observes ctx.
func waitTurn(ctx context.Context, lim *rate.Limiter) error {
	if lim == nil || lim.Allow() {
		return nil
	}
	return lim.Wait(ctx)
}

// QuoteFetchError wraps a provider failure for one symbol.
type QuoteFetchError struct {
	Provider string
	Symbol   string
	Err      error
}

func (e *QuoteFetchError) Error() string {
	return fmt.Sprintf("%s quote %s: %v", e.Provider, e.Symbol, e.Err)
}

func (e *QuoteFetchError) Unwrap() error { return e.Err }

func newHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// round2 rounds to cents the way quotes are displayed.
func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
