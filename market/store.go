package market

import (
	"context"
	"strings"
	"sync"
	"time"
)

// QuoteStore is an in-memory Oracle backed by a mutex-guarded map. It serves
// the static provider mode and tests; prices only change when Set is called.
type QuoteStore struct {
	mu     sync.RWMutex
	quotes map[string]Quote
}

func NewQuoteStore() *QuoteStore {
	return &QuoteStore{quotes: make(map[string]Quote)}
}

func (s *QuoteStore) Set(q Quote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if q.Time.IsZero() {
		q.Time = time.Now()
	}
	s.quotes[strings.ToUpper(q.Symbol)] = q
}

func (s *QuoteStore) Lookup(ctx context.Context, symbol string) (Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.quotes[strings.ToUpper(strings.TrimSpace(symbol))]
	if !ok {
		return Quote{}, ErrSymbolNotFound
	}
	return q, nil
}
