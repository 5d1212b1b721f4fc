package collector

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"StockAlert/internal/model"
)

const (
	DefaultFetchTimeout     = 10 * time.Second
	DefaultFetchConcurrency = 4
)

// Collector fetches quotes for a set of symbols in one tick.
type Collector struct {
	Provider    QuoteProvider
	Timeout     time.Duration // per symbol
	Concurrency int
	log         zerolog.Logger
}

// NewCollector creates a Collector with default timeout and fan-out.
func NewCollector(provider QuoteProvider, logger zerolog.Logger) *Collector {
	return &Collector{
		Provider:    provider,
		Timeout:     DefaultFetchTimeout,
		Concurrency: DefaultFetchConcurrency,
		log:         logger.With().Str("component", "collector").Str("provider", provider.Name()).Logger(),
	}
}

// Collect fetches every symbol and returns the quotes that succeeded. A
// failed symbol is logged and left out of the map. Cancelling ctx does not
// abort fetches already started; each is bounded by Timeout instead. For a
// Throttled provider the wait for a request slot comes before the timeout.
func (c *Collector) Collect(ctx context.Context, symbols []string) map[string]model.Quote {
	quotes := make(map[string]model.Quote, len(symbols))
	var mu sync.Mutex

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	detached := context.WithoutCancel(ctx)

	var g errgroup.Group
	if c.Concurrency > 0 {
		g.SetLimit(c.Concurrency)
	}
	for _, sym := range symbols {
		g.Go(func() error {
			if th, ok := c.Provider.(Throttled); ok {
				if err := th.Wait(ctx); err != nil {
					c.log.Warn().Err(err).Str("symbol", sym).Msg("skipped while waiting for rate limit")
					return nil
				}
			}
			fetchCtx, cancel := context.WithTimeout(detached, timeout)
			defer cancel()

			start := time.Now()
			q, err := c.Provider.GetQuote(fetchCtx, sym)
			if err != nil {
				ferr := &QuoteFetchError{Provider: c.Provider.Name(), Symbol: sym, Err: err}
				c.log.Warn().Err(ferr).Str("symbol", sym).Msg("could not fetch quote")
				return nil
			}
			c.log.Debug().Str("symbol", sym).Dur("took", time.Since(start)).Float64("price", q.Price).Msg("quote fetched")

			mu.Lock()
			quotes[sym] = q
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return quotes
}
