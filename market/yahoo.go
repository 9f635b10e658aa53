package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rustyeddy/brokerd/money"
)

// YahooOracle resolves quotes from the Yahoo Finance v8 chart endpoint, with a
// short TTL cache so holdings pages don't hammer the API once per symbol per
// request.
type YahooOracle struct {
	cli     *http.Client
	baseURL string
	ttl     time.Duration

	mu    sync.RWMutex
	cache map[string]cachedQuote
}

type cachedQuote struct {
	quote   Quote
	fetched time.Time
}

const yahooBaseURL = "https://query2.finance.yahoo.com"

func NewYahooOracle(timeout, ttl time.Duration) *YahooOracle {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &YahooOracle{
		cli:     &http.Client{Timeout: timeout},
		baseURL: yahooBaseURL,
		ttl:     ttl,
		cache:   make(map[string]cachedQuote),
	}
}

func (o *YahooOracle) Lookup(ctx context.Context, symbol string) (Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return Quote{}, ErrSymbolNotFound
	}

	o.mu.RLock()
	if c, ok := o.cache[symbol]; ok && time.Since(c.fetched) < o.ttl {
		o.mu.RUnlock()
		return c.quote, nil
	}
	o.mu.RUnlock()

	url := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1m&range=1d", o.baseURL, symbol)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Quote{}, fmt.Errorf("%w: %v", ErrQuoteUnavailable, err)
	}
	req.Header.Set("User-Agent", "brokerd/1.0")

	resp, err := o.cli.Do(req)
	if err != nil {
		return Quote{}, fmt.Errorf("%w: %v", ErrQuoteUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Quote{}, ErrSymbolNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return Quote{}, fmt.Errorf("%w: yahoo http %d", ErrQuoteUnavailable, resp.StatusCode)
	}

	var raw struct {
		Chart struct {
			Result []struct {
				Meta struct {
					Symbol             string  `json:"symbol"`
					ShortName          string  `json:"shortName"`
					LongName           string  `json:"longName"`
					RegularMarketPrice float64 `json:"regularMarketPrice"`
					RegularMarketTime  int64   `json:"regularMarketTime"`
				} `json:"meta"`
			} `json:"result"`
			Error any `json:"error"`
		} `json:"chart"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return Quote{}, fmt.Errorf("%w: decode: %v", ErrQuoteUnavailable, err)
	}
	if len(raw.Chart.Result) == 0 {
		return Quote{}, ErrSymbolNotFound
	}

	meta := raw.Chart.Result[0].Meta
	if meta.RegularMarketPrice <= 0 {
		return Quote{}, ErrSymbolNotFound
	}

	name := meta.LongName
	if name == "" {
		name = meta.ShortName
	}
	if name == "" {
		name = symbol
	}

	asOf := time.Unix(meta.RegularMarketTime, 0)
	if meta.RegularMarketTime == 0 {
		asOf = time.Now()
	}

	q := Quote{
		Symbol: symbol,
		Name:   name,
		Price:  money.FromFloat(meta.RegularMarketPrice),
		Time:   asOf,
	}

	o.mu.Lock()
	o.cache[symbol] = cachedQuote{quote: q, fetched: time.Now()}
	o.mu.Unlock()

	return q, nil
}
