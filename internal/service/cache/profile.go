package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"EarnPulse/internal/domain/models"
	drepo "EarnPulse/internal/domain/repository"
	pcache "EarnPulse/pkg/cache"
	"EarnPulse/pkg/logger"
)

const profileNamespace = "profile"

// ProfileCache decorates a CompanyInfo source with a TTL cache.
// Cache failures are logged and fall through to the source.
type ProfileCache struct {
	next  drepo.CompanyInfo
	store pcache.Service
	ttl   time.Duration
	log   *logger.Logger
}

func NewProfileCache(next drepo.CompanyInfo, store pcache.Service, ttl time.Duration, log *logger.Logger) *ProfileCache {
	if log == nil {
		log = logger.Nop()
	}
	return &ProfileCache{next: next, store: store, ttl: ttl, log: log}
}

func (c *ProfileCache) CompanyProfile(ctx context.Context, symbol string) (models.CompanyProfile, error) {
	key := pcache.GenerateKey(profileNamespace, strings.ToUpper(symbol))

	var p models.CompanyProfile
	err := c.store.Get(ctx, key, &p)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, pcache.ErrCacheMiss) {
		c.log.Warn("profile cache read failed", logger.String("symbol", symbol), logger.Error(err))
	}

	p, err = c.next.CompanyProfile(ctx, symbol)
	if err != nil {
		return p, err
	}
	if err := c.store.Set(ctx, key, p, c.ttl); err != nil {
		c.log.Warn("profile cache write failed", logger.String("symbol", symbol), logger.Error(err))
	}
	return p, nil
}

var _ drepo.CompanyInfo = (*ProfileCache)(nil)
