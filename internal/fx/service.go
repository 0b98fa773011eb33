package fx

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// RateFetcher fetches a live rate from the upstream provider.
type RateFetcher interface {
	FetchRate(ctx context.Context, base, quote string) (decimal.Decimal, error)
}

// RateStore persists observed rates for fallback.
type RateStore interface {
	Insert(ctx context.Context, rate Rate) error
	Latest(ctx context.Context, base, quote string) (Rate, error)
}

// Service resolves the current exchange rate: redis cache first, then the
// live provider, then the last stored observation.
type Service struct {
	logger   *slog.Logger
	fetcher  RateFetcher
	store    RateStore
	cache    redis.Cmdable
	base     string
	quote    string
	cacheTTL time.Duration
}

// NewService builds Service. The currency pair is validated up front so a
// typo in configuration fails at boot rather than per request.
func NewService(logger *slog.Logger, fetcher RateFetcher, store RateStore, cache redis.Cmdable, base, quote string, cacheTTL time.Duration) (*Service, error) {
	for _, code := range []string{base, quote} {
		if _, err := currency.ParseISO(code); err != nil {
			return nil, fmt.Errorf("%w: %q", ErrBadCurrency, code)
		}
	}
	return &Service{
		logger:   logger,
		fetcher:  fetcher,
		store:    store,
		cache:    cache,
		base:     base,
		quote:    quote,
		cacheTTL: cacheTTL,
	}, nil
}

// Pair returns the configured base and quote currencies.
func (s *Service) Pair() (string, string) {
	return s.base, s.quote
}

func (s *Service) cacheKey() string {
	return "fx:" + s.base + ":" + s.quote
}

// Current returns the rate to convert base prices into quote currency.
func (s *Service) Current(ctx context.Context) (Rate, error) {
	if cached, ok := s.fromCache(ctx); ok {
		return cached, nil
	}

	rate, err := s.Refresh(ctx)
	if err == nil {
		return rate, nil
	}
	s.logger.Warn("live rate fetch failed, using last stored rate", slog.Any("error", err))

	stored, storeErr := s.store.Latest(ctx, s.base, s.quote)
	if storeErr != nil {
		return Rate{}, ErrRateUnavailable
	}
	stored.Source = SourceFallback
	return stored, nil
}

// Refresh fetches a live rate, stores it and refills the cache. The worker
// calls this on a schedule so interactive requests mostly hit the cache.
func (s *Service) Refresh(ctx context.Context) (Rate, error) {
	value, err := s.fetcher.FetchRate(ctx, s.base, s.quote)
	if err != nil {
		return Rate{}, err
	}
	rate := Rate{
		Base:      s.base,
		Quote:     s.quote,
		Rate:      value,
		FetchedAt: time.Now().UTC(),
		Source:    SourceLive,
	}
	if err := s.store.Insert(ctx, rate); err != nil {
		return Rate{}, err
	}
	s.fillCache(ctx, rate)
	return rate, nil
}

func (s *Service) fromCache(ctx context.Context) (Rate, bool) {
	payload, err := s.cache.Get(ctx, s.cacheKey()).Bytes()
	if err != nil {
		return Rate{}, false
	}
	var rate Rate
	if err := json.Unmarshal(payload, &rate); err != nil {
		return Rate{}, false
	}
	rate.Source = SourceCache
	return rate, true
}

func (s *Service) fillCache(ctx context.Context, rate Rate) {
	payload, err := json.Marshal(rate)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, s.cacheKey(), payload, s.cacheTTL).Err(); err != nil {
		s.logger.Warn("rate cache write failed", slog.Any("error", err))
	}
}
