package collector

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"sync"

	"StockAlert/internal/model"
)

// FakeProvider produces synthetic quotes. The base price is derived from the
// symbol's characters so each symbol hovers around a stable level.
type FakeProvider struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewFakeProvider creates a synthetic provider; equal seeds replay the same sequence.
func NewFakeProvider(seed uint64) *FakeProvider {
	return &FakeProvider{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (p *FakeProvider) Name() string { return "fake" }

func (p *FakeProvider) GetQuote(_ context.Context, symbol string) (model.Quote, error) {
	sym := strings.ToUpper(symbol)
	base := 0
	for _, c := range sym {
		base += int(c)
	}
	basePrice := float64(base%200 + 20)

	p.mu.Lock()
	price := basePrice + p.uniform(-5, 5)
	pct := p.uniform(-5, 5)
	volume := math.Abs(p.rng.NormFloat64()*500_000 + 2_000_000)
	p.mu.Unlock()

	return model.Quote{
		Symbol: sym,
		Price:  round2(price),
		PctDay: round2(pct),
		Volume: int64(volume),
	}, nil
}

func (p *FakeProvider) uniform(lo, hi float64) float64 {
	return lo + p.rng.Float64()*(hi-lo)
}

// MockProvider returns fixed quotes for development and testing. Symbols
// listed in Errors fail; symbols missing from Quotes fail with ErrNoQuoteData.
type MockProvider struct {
	mu     sync.Mutex
	Quotes map[string]model.Quote
	Errors map[string]error
	Calls  []string
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) GetQuote(_ context.Context, symbol string) (model.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, symbol)
	if err, ok := m.Errors[symbol]; ok {
		return model.Quote{}, err
	}
	q, ok := m.Quotes[symbol]
	if !ok {
		return model.Quote{}, fmt.Errorf("mock %s: %w", symbol, ErrNoQuoteData)
	}
	return q, nil
}

// SetQuote replaces the quote returned for q.Symbol.
func (m *MockProvider) SetQuote(q model.Quote) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Quotes == nil {
		m.Quotes = make(map[string]model.Quote)
	}
	m.Quotes[q.Symbol] = q
}
