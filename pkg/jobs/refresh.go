package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/Jacobbrewer1/warden/pkg/dataaccess"
	"github.com/Jacobbrewer1/warden/pkg/lifecycle"
	"github.com/Jacobbrewer1/warden/pkg/logging"
)

// DefaultRefreshInterval is how often the mapping cache is reloaded.
const DefaultRefreshInterval = time.Minute

// Refresher keeps the in-memory thread mapping cache in step with storage.
type Refresher struct {
	l *slog.Logger

	cache    *lifecycle.MappingCache
	mappings dataaccess.MappingDal

	interval time.Duration
}

// NewRefresher creates the mapping cache refresh job.
func NewRefresher(l *slog.Logger, cache *lifecycle.MappingCache, mappings dataaccess.MappingDal, interval time.Duration) *Refresher {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	return &Refresher{
		l:        l.With(slog.String(logging.KeyJob, "mapping_refresher")),
		cache:    cache,
		mappings: mappings,
		interval: interval,
	}
}

// Run refreshes on the job interval until the context is cancelled. A failed
// refresh keeps the previous snapshot.
func (r *Refresher) Run(ctx context.Context) {
	runEvery(ctx, r.l, r.interval, func(ctx context.Context) {
		if err := r.cache.Refresh(ctx, r.mappings); err != nil {
			r.l.Error("Mapping cache refresh failed", slog.String(logging.KeyError, err.Error()))
			return
		}
		r.l.Debug("Mapping cache refreshed", slog.Int("mappings", r.cache.Len()))
	})
}
