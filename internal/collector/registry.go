package collector

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// UnknownProviderError is returned by New for a name outside the registry.
type UnknownProviderError struct {
	Name  string
	Known []string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("unknown provider %q (known: %s)", e.Name, strings.Join(e.Known, ", "))
}

// Options carries everything a provider constructor may need.
type Options struct {
	Proxy           string
	Timeout         time.Duration
	Seed            uint64
	AlphaVantageKey string
	AlphaVantageRPM int
	FinnhubKey      string
	FinnhubRPM      int
}

type factory func(Options) (QuoteProvider, error)

var registry = map[string]factory{
	"fake": func(o Options) (QuoteProvider, error) {
		seed := o.Seed
		if seed == 0 {
			seed = uint64(time.Now().UnixNano())
		}
		return NewFakeProvider(seed), nil
	},
	"yahoo": func(o Options) (QuoteProvider, error) {
		return NewYahooProvider(o.Proxy, o.Timeout), nil
	},
	"alphavantage": func(o Options) (QuoteProvider, error) {
		if o.AlphaVantageKey == "" {
			return nil, fmt.Errorf("alphavantage: ALPHAVANTAGE_API_TOKEN is not set")
		}
		return NewAlphaVantageProvider(o.AlphaVantageKey, o.Proxy, o.Timeout, o.AlphaVantageRPM), nil
	},
	"finnhub": func(o Options) (QuoteProvider, error) {
		if o.FinnhubKey == "" {
			return nil, fmt.Errorf("finnhub: FINNHUB_API_TOKEN is not set")
		}
		return NewFinnhubProvider(o.FinnhubKey, o.Proxy, o.Timeout, o.FinnhubRPM), nil
	},
}

var aliases = map[string]string{
	"yfinance":      "yahoo",
	"yahoo_finance": "yahoo",
	"alpha":         "alphavantage",
	"alpha_vantage": "alphavantage",
}

// Names lists the canonical provider names.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New builds the provider registered under name (case-insensitive, aliases
// accepted). An empty name selects "fake".
func New(name string, opts Options) (QuoteProvider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = "fake"
	}
	if canonical, ok := aliases[key]; ok {
		key = canonical
	}
	f, ok := registry[key]
	if !ok {
		return nil, &UnknownProviderError{Name: name, Known: Names()}
	}
	return f(opts)
}
