package workers

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Guyuepp/package-likes/domain"
)

type sweepCacheWorker struct {
	store    domain.ExpiredEntryDeleter
	interval time.Duration
	now      func() time.Time
}

var _ domain.CacheSweepWorker = (*sweepCacheWorker)(nil)

// NewSweepCacheWorker removes expired cache entries every interval.
// It only frees storage, reads already ignore expired entries.
func NewSweepCacheWorker(store domain.ExpiredEntryDeleter, interval time.Duration) *sweepCacheWorker {
	return &sweepCacheWorker{
		store:    store,
		interval: interval,
		now:      time.Now,
	}
}

func (s *sweepCacheWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep(ctx)
		case <-ctx.Done():
			logrus.Info("shutting down SweepCacheWorker")
			return
		}
	}
}

// Sweep runs one pass and returns how many entries were removed
func (s *sweepCacheWorker) Sweep(ctx context.Context) int64 {
	n, err := s.store.DeleteExpired(ctx, s.now())
	if err != nil {
		logrus.Errorf("failed to sweep expired cache entries: %v", err)
		return 0
	}
	if n > 0 {
		logrus.Debugf("swept %d expired cache entries", n)
	}
	return n
}
