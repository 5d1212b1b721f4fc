package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"StockAlert/internal/model"
)

const finnhubBaseURL = "https://finnhub.io/api/v1/quote"

// FinnhubProvider implements QuoteProvider with the Finnhub quote endpoint.
type FinnhubProvider struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
	Limiter *rate.Limiter
}

// NewFinnhubProvider creates a provider allowing perMinute requests per minute.
func NewFinnhubProvider(apiKey, proxyURL string, timeout time.Duration, perMinute int) *FinnhubProvider {
	if perMinute <= 0 {
		perMinute = 60
	}
	return &FinnhubProvider{
		BaseURL: finnhubBaseURL,
		APIKey:  apiKey,
		Client:  newHTTPClient(proxyURL, timeout),
		Limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute),
	}
}

func (p *FinnhubProvider) Name() string { return "finnhub" }

// finnhubQuote: c = current price, dp = percent change, v = volume.
type finnhubQuote struct {
	Current   float64 `json:"c"`
	PctChange float64 `json:"dp"`
	Volume    float64 `json:"v"`
	Timestamp int64   `json:"t"`
}

// Wait blocks until the limiter allows another request.
func (p *FinnhubProvider) Wait(ctx context.Context) error {
	if err := waitTurn(ctx, p.Limiter); err != nil {
		return fmt.Errorf("finnhub rate limit: %w", err)
	}
	return nil
}

func (p *FinnhubProvider) GetQuote(ctx context.Context, symbol string) (model.Quote, error) {
	sym := strings.ToUpper(symbol)

	params := url.Values{}
	params.Set("symbol", sym)
	params.Set("token", p.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return model.Quote{}, err
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		return model.Quote{}, fmt.Errorf("finnhub fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return model.Quote{}, fmt.Errorf("finnhub: status %d", resp.StatusCode)
	}

	var q finnhubQuote
	if err := json.NewDecoder(resp.Body).Decode(&q); err != nil {
		return model.Quote{}, fmt.Errorf("finnhub decode: %w", err)
	}
	// Unknown symbols come back as all zeros.
	if q.Current == 0 && q.Timestamp == 0 {
		return model.Quote{}, fmt.Errorf("finnhub %s: %w", sym, ErrNoQuoteData)
	}
	return model.Quote{
		Symbol: sym,
		Price:  round2(q.Current),
		PctDay: round2(q.PctChange),
		Volume: int64(q.Volume),
	}, nil
}
