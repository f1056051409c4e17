package pricing

import (
	"context"
	"log"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

const (
	cacheSize = 256
	cacheTTL  = 5 * time.Minute

	spotKey = "spot"
)

// Source is a network-backed price feed.
type Source interface {
	Spot(ctx context.Context) (decimal.Decimal, error)
	Historical(ctx context.Context, date time.Time) (decimal.Decimal, error)
}

// HistoricalFallback synthesizes a price for a past date when the source
// cannot supply one. Implementations must be deterministic.
type HistoricalFallback interface {
	PriceOn(date time.Time, current decimal.Decimal) decimal.Decimal
}

// Oracle resolves TON/USD prices for report computation. Source failures
// never escape: the spot price degrades to a fixed fallback constant and
// historical prices degrade to the deterministic simulation, both logged.
type Oracle struct {
	source   Source
	fallback decimal.Decimal
	history  HistoricalFallback
	cache    *expirable.LRU[string, decimal.Decimal]
	group    singleflight.Group
}

// NewOracle wires a price source with a fixed spot fallback and a
// historical fallback strategy. A nil history falls back to the default
// simulator.
func NewOracle(source Source, fallbackUSD decimal.Decimal, history HistoricalFallback) *Oracle {
	if history == nil {
		history = NewSimulator(DefaultMonthMultipliers)
	}
	return &Oracle{
		source:   source,
		fallback: fallbackUSD,
		history:  history,
		cache:    expirable.NewLRU[string, decimal.Decimal](cacheSize, nil, cacheTTL),
	}
}

// Current returns the spot TON/USD price, or the fallback constant when
// the source is unreachable or returns garbage. Concurrent callers share
// one in-flight fetch.
func (o *Oracle) Current(ctx context.Context) decimal.Decimal {
	if price, ok := o.cache.Get(spotKey); ok {
		return price
	}

	v, err, _ := o.group.Do(spotKey, func() (any, error) {
		price, err := o.source.Spot(ctx)
		if err != nil {
			return decimal.Zero, err
		}
		o.cache.Add(spotKey, price)
		return price, nil
	})
	if err != nil {
		log.Printf("[pricing] spot fetch failed, using fallback %s USD: %v", o.fallback, err)
		return o.fallback
	}
	return v.(decimal.Decimal)
}

// OnDate returns the TON/USD price for a past calendar date. When the
// source has no answer the price is simulated deterministically from the
// current price, so repeated offline calls agree.
func (o *Oracle) OnDate(ctx context.Context, date time.Time) decimal.Decimal {
	day := date.UTC().Truncate(24 * time.Hour)
	key := "date:" + day.Format("2006-01-02")

	if price, ok := o.cache.Get(key); ok {
		return price
	}

	price, err := o.source.Historical(ctx, day)
	if err != nil {
		price = o.history.PriceOn(day, o.Current(ctx))
		log.Printf("[pricing] historical fetch for %s failed, simulated %s USD: %v",
			day.Format("2006-01-02"), price, err)
	}

	o.cache.Add(key, price)
	return price
}
