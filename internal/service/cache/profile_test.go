package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/guregu/null/v6"

	"EarnPulse/internal/domain/models"
	pcache "EarnPulse/pkg/cache"
)

type countingSource struct {
	calls int
	err   error
}

func (s *countingSource) CompanyProfile(context.Context, string) (models.CompanyProfile, error) {
	s.calls++
	if s.err != nil {
		return models.CompanyProfile{}, s.err
	}
	return models.CompanyProfile{
		LongName: null.StringFrom("NIKE, Inc."),
		Beta:     null.FloatFrom(1.28),
	}, nil
}

func TestProfileCacheHit(t *testing.T) {
	src := &countingSource{}
	mem := pcache.NewMemoryCache()
	defer mem.Close()
	c := NewProfileCache(src, mem, time.Minute, nil)

	for i := 0; i < 3; i++ {
		p, err := c.CompanyProfile(context.Background(), "nke")
		if err != nil {
			t.Fatalf("CompanyProfile() error = %v", err)
		}
		if p.LongName.String != "NIKE, Inc." || p.Beta.Float64 != 1.28 || p.TrailingPE.Valid {
			t.Errorf("profile = %+v", p)
		}
	}
	if src.calls != 1 {
		t.Errorf("source called %d times, want 1", src.calls)
	}
}

func TestProfileCacheDoesNotStoreErrors(t *testing.T) {
	src := &countingSource{err: models.ErrDataUnavailable}
	mem := pcache.NewMemoryCache()
	defer mem.Close()
	c := NewProfileCache(src, mem, time.Minute, nil)

	for i := 0; i < 2; i++ {
		if _, err := c.CompanyProfile(context.Background(), "NKE"); !errors.Is(err, models.ErrDataUnavailable) {
			t.Fatalf("error = %v", err)
		}
	}
	if src.calls != 2 {
		t.Errorf("source called %d times, want 2", src.calls)
	}
}
