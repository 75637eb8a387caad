package cache

import (
	"context"
	"time"

	"prodman/internal/domain"
)

type QuoteCache interface {
	Get(ctx context.Context, key string) (*domain.OfferQuote, bool, error)
	Set(ctx context.Context, key string, value *domain.OfferQuote, ttl time.Duration) error
}

type NoopQuoteCache struct{}

func (NoopQuoteCache) Get(_ context.Context, _ string) (*domain.OfferQuote, bool, error) {
	return nil, false, nil
}

func (NoopQuoteCache) Set(_ context.Context, _ string, _ *domain.OfferQuote, _ time.Duration) error {
	return nil
}
