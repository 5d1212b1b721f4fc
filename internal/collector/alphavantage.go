package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"StockAlert/internal/model"
)

const alphaVantageBaseURL = "https://www.alphavantage.co/query"

// AlphaVantageProvider implements QuoteProvider with the GLOBAL_QUOTE endpoint.
// The free tier is heavily rate limited, so requests pass through a limiter.
type AlphaVantageProvider struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
	Limiter *rate.Limiter
}

// NewAlphaVantageProvider creates a provider allowing perMinute requests per minute.
func NewAlphaVantageProvider(apiKey, proxyURL string, timeout time.Duration, perMinute int) *AlphaVantageProvider {
	if perMinute <= 0 {
		perMinute = 5
	}
	return &AlphaVantageProvider{
		BaseURL: alphaVantageBaseURL,
		APIKey:  apiKey,
		Client:  newHTTPClient(proxyURL, timeout),
		Limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute),
	}
}

func (p *AlphaVantageProvider) Name() string { return "alphavantage" }

// Wait blocks until the limiter allows another request.
func (p *AlphaVantageProvider) Wait(ctx context.Context) error {
	if err := waitTurn(ctx, p.Limiter); err != nil {
		return fmt.Errorf("alphavantage rate limit: %w", err)
	}
	return nil
}

func (p *AlphaVantageProvider) GetQuote(ctx context.Context, symbol string) (model.Quote, error) {
	sym := strings.ToUpper(symbol)

	params := url.Values{}
	params.Set("function", "GLOBAL_QUOTE")
	params.Set("symbol", sym)
	params.Set("apikey", p.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return model.Quote{}, err
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		return model.Quote{}, fmt.Errorf("alphavantage fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return model.Quote{}, fmt.Errorf("alphavantage: status %d", resp.StatusCode)
	}

	var data map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return model.Quote{}, fmt.Errorf("alphavantage decode: %w", err)
	}
	raw, ok := data["Global Quote"]
	if !ok {
		raw = data["GlobalQuote"]
	}
	var quote map[string]string
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &quote); err != nil {
			return model.Quote{}, fmt.Errorf("alphavantage decode quote: %w", err)
		}
	}
	if len(quote) == 0 {
		return model.Quote{}, fmt.Errorf("alphavantage %s: %w", sym, ErrNoQuoteData)
	}

	price := parseDecimal(firstNonEmpty(quote["05. price"], quote["price"]))
	pct := parseDecimal(strings.TrimSuffix(strings.TrimSpace(firstNonEmpty(quote["10. change percent"], quote["changePercent"])), "%"))
	volume := parseDecimal(firstNonEmpty(quote["06. volume"], quote["volume"]))

	return model.Quote{
		Symbol: sym,
		Price:  price.Round(2).InexactFloat64(),
		PctDay: pct.Round(2).InexactFloat64(),
		Volume: volume.IntPart(),
	}, nil
}

// parseDecimal reads a numeric string field, treating junk as zero.
func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
