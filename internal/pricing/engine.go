package pricing

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"prodman/internal/cache"
	"prodman/internal/domain"
)

// Engine prices offer orders. Quotes are deterministic for a given offer,
// quantity and catalog state, so they are cached under a key derived from
// those inputs.
type Engine struct {
	cache    cache.QuoteCache
	cacheTTL time.Duration
}

func NewEngine(cacheStore cache.QuoteCache, cacheTTL time.Duration) *Engine {
	if cacheStore == nil {
		cacheStore = cache.NoopQuoteCache{}
	}
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}

	return &Engine{
		cache:    cacheStore,
		cacheTTL: cacheTTL,
	}
}

// QuoteOffer prices quantity units of the offer against the supplied
// constituent products. products must contain every id in offer.ProductIDs.
func (e *Engine) QuoteOffer(ctx context.Context, offer domain.Offer, products map[string]domain.Product, quantity int) domain.OfferQuote {
	cacheKey := buildCacheKey(offer, products, quantity)
	if cached, ok, err := e.cache.Get(ctx, cacheKey); err == nil && ok {
		return *cached
	}

	gross := int64(quantity) * offer.PriceCents
	discount := BulkDiscount(quantity, gross)
	revenue := gross - discount

	costPerRun := int64(0)
	available := 0
	for i, id := range offer.ProductIDs {
		product := products[id]
		costPerRun += product.CostCents
		if i == 0 || product.Stock < available {
			available = product.Stock
		}
	}
	cost := int64(quantity) * costPerRun

	quote := domain.OfferQuote{
		OfferID:        offer.ID,
		Quantity:       quantity,
		RevenueCents:   revenue,
		DiscountCents:  discount,
		CostCents:      cost,
		ProfitCents:    ProfitAfterTax(revenue, cost),
		AvailableStock: available,
	}

	_ = e.cache.Set(ctx, cacheKey, &quote, e.cacheTTL)
	return quote
}

func buildCacheKey(offer domain.Offer, products map[string]domain.Product, quantity int) string {
	parts := make([]string, 0, len(offer.ProductIDs)+2)
	parts = append(parts, fmt.Sprintf("%s:%d:%d", offer.ID, offer.PriceCents, quantity))
	for _, id := range offer.ProductIDs {
		product := products[id]
		parts = append(parts, fmt.Sprintf("%s:%d:%d", id, product.CostCents, product.Stock))
	}

	hash := sha1.Sum([]byte(strings.Join(parts, "|")))
	return "prodman:offer-quote:" + hex.EncodeToString(hash[:])
}
