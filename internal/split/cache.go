package split

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	pkgerrors "github.com/tabsplit/tabsplit-backend/pkg/errors"
	"github.com/tabsplit/tabsplit-backend/pkg/logger"
)

// Cache holds fetched split records keyed by receipt id so revisiting a
// receipt does not pay a network round trip. Implementations must be safe for
// concurrent use.
type Cache interface {
	Get(ctx context.Context, receiptID string) (*SplitRecord, bool)
	Put(ctx context.Context, receiptID string, rec *SplitRecord)
}

// MemoryCache is an in-process Cache.
type MemoryCache struct {
	mu      sync.RWMutex
	records map[string]*SplitRecord
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{records: make(map[string]*SplitRecord)}
}

func (c *MemoryCache) Get(_ context.Context, receiptID string) (*SplitRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.records[receiptID]
	return rec, ok
}

func (c *MemoryCache) Put(_ context.Context, receiptID string, rec *SplitRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records[receiptID] = rec
}

const defaultWarmConcurrency = 5

// Warmer pre-populates a Cache with the splits of recently viewed receipts so
// opening one of them starts from warm state.
type Warmer struct {
	backend     SplitBackend
	cache       Cache
	concurrency int
	logg        *logger.Logger
}

func NewWarmer(backend SplitBackend, cache Cache, concurrency int, logg *logger.Logger) (*Warmer, error) {
	if backend == nil {
		return nil, fmt.Errorf("split backend is required")
	}
	if cache == nil {
		return nil, fmt.Errorf("cache is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if concurrency <= 0 {
		concurrency = defaultWarmConcurrency
	}
	return &Warmer{backend: backend, cache: cache, concurrency: concurrency, logg: logg}, nil
}

// Warm fetches the split for every given receipt, at most w.concurrency
// fetches in flight at once. Duplicate ids and receipts already cached are
// skipped. One receipt failing does not cancel the rest; Warm finishes the
// batch and returns the failures combined. Receipts without a saved split are
// not failures, they simply stay uncached.
func (w *Warmer) Warm(ctx context.Context, receiptIDs []string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)

	var (
		errMu  sync.Mutex
		warmed error
	)

	seen := make(map[string]struct{}, len(receiptIDs))
	for _, receiptID := range receiptIDs {
		if receiptID == "" {
			continue
		}
		if _, dup := seen[receiptID]; dup {
			continue
		}
		seen[receiptID] = struct{}{}
		if _, ok := w.cache.Get(ctx, receiptID); ok {
			continue
		}

		receiptID := receiptID
		g.Go(func() error {
			if err := w.warmOne(gctx, receiptID); err != nil {
				errMu.Lock()
				warmed = multierr.Append(warmed, fmt.Errorf("warm receipt %s: %w", receiptID, err))
				errMu.Unlock()
			}
			// Always nil: a failed receipt must not cancel the group.
			return nil
		})
	}

	_ = g.Wait()
	return warmed
}

func (w *Warmer) warmOne(ctx context.Context, receiptID string) error {
	backoff := retry.WithMaxRetries(2, retry.NewExponential(200*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		rec, err := w.backend.FetchExisting(ctx, receiptID)
		if err != nil {
			if pkgerrors.IsRetryable(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		if rec == nil {
			return nil
		}
		w.cache.Put(ctx, receiptID, rec)
		w.logg.Info(w.logg.WithReceiptID(ctx, receiptID), "warmed split cache")
		return nil
	})
}
