// Package fxrate resolves display exchange rates from the free INR-base
// currency dataset. Rates are informational and never alter stored amounts.
package fxrate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/invoicestudio/backend/internal/clock"
	"github.com/invoicestudio/backend/internal/config"
	"github.com/invoicestudio/backend/internal/currency"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var (
	ErrUnsupportedCurrency = errors.New("unsupported_currency")
	ErrUpstream            = errors.New("fx_upstream_failure")
)

// DefaultSymbols is the subset returned when a caller does not narrow the
// rate listing.
var DefaultSymbols = []string{"INR", "USD", "EUR", "GBP", "JPY", "AUD", "CAD"}

// RateTable maps uppercase ISO codes to the INR->code rate.
type RateTable map[string]float64

// Provider serves the latest INR-base rate table.
type Provider interface {
	LatestRatesINR(ctx context.Context) (RateTable, error)
}

// RateFromINR resolves the display rate for one code. INR is always 1 even
// when absent from the table.
func RateFromINR(table RateTable, code string) (float64, error) {
	code = currency.NormalizeCode(code)
	if code == currency.CanonicalCode {
		return 1, nil
	}
	rate, ok := table[code]
	if !ok {
		return 0, ErrUnsupportedCurrency
	}
	return rate, nil
}

type Params struct {
	fx.In

	Config config.Config
	Log    *zap.Logger
	Clock  clock.Clock
}

// HTTPProvider fetches the dataset over HTTP and keeps one table cached for a
// TTL. The cache is an explicit fetchedAt/rates pair behind a mutex; there is
// no background refresh, the first caller past the TTL pays for the fetch.
type HTTPProvider struct {
	url    string
	ttl    time.Duration
	client *http.Client
	clock  clock.Clock
	log    *zap.Logger

	mu        sync.Mutex
	fetchedAt time.Time
	rates     RateTable
}

func New(p Params) Provider {
	return &HTTPProvider{
		url:    p.Config.FX.URL,
		ttl:    time.Duration(p.Config.FX.CacheTTL) * time.Second,
		client: &http.Client{Timeout: 10 * time.Second},
		clock:  p.Clock,
		log:    p.Log.Named("fxrate.provider"),
	}
}

func (p *HTTPProvider) LatestRatesINR(ctx context.Context) (RateTable, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.clock.Now()
	if p.rates != nil && now.Sub(p.fetchedAt) < p.ttl {
		return p.rates, nil
	}

	table, err := p.fetch(ctx)
	if err != nil {
		p.log.Warn("rate fetch failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	p.fetchedAt = now
	p.rates = table
	return table, nil
}

// upstream payload: {"date": "...", "inr": {"usd": 0.0120, ...}}
type ratesPayload struct {
	Date string             `json:"date"`
	INR  map[string]float64 `json:"inr"`
}

func (p *HTTPProvider) fetch(ctx context.Context) (RateTable, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var payload ratesPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	if len(payload.INR) == 0 {
		return nil, errors.New("empty rate table")
	}

	table := make(RateTable, len(payload.INR))
	for code, rate := range payload.INR {
		table[strings.ToUpper(code)] = rate
	}
	return table, nil
}

var Module = fx.Module("fxrate",
	fx.Provide(New),
)
