package cron

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/tabsplit/tabsplit-backend/internal/split"
	"github.com/tabsplit/tabsplit-backend/pkg/logger"
)

const (
	defaultWarmLookback    = 30 * 24 * time.Hour
	defaultWarmConcurrency = 5
	defaultWarmBatchLimit  = 200
)

type recentReceiptLister interface {
	RecentReceiptIDs(ctx context.Context, lookback time.Duration, limit int) ([]uuid.UUID, error)
}

type splitFetcher interface {
	Fetch(ctx context.Context, receiptID uuid.UUID) (*split.SplitRecord, error)
}

// WarmSplitsJobParams configure the split cache warming job.
type WarmSplitsJobParams struct {
	Logger      *logger.Logger
	Receipts    recentReceiptLister
	Splits      splitFetcher
	Lookback    time.Duration
	Concurrency int
	BatchLimit  int
}

// NewWarmSplitsJob builds the job that pre-fills the split record cache for
// recently scanned receipts. Fetching through the splits service is what
// populates the cache; the job only drives the reads.
func NewWarmSplitsJob(params WarmSplitsJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Receipts == nil {
		return nil, fmt.Errorf("receipts service required")
	}
	if params.Splits == nil {
		return nil, fmt.Errorf("splits service required")
	}
	lookback := params.Lookback
	if lookback <= 0 {
		lookback = defaultWarmLookback
	}
	concurrency := params.Concurrency
	if concurrency <= 0 {
		concurrency = defaultWarmConcurrency
	}
	batchLimit := params.BatchLimit
	if batchLimit <= 0 {
		batchLimit = defaultWarmBatchLimit
	}
	return &warmSplitsJob{
		logg:        params.Logger,
		receipts:    params.Receipts,
		splits:      params.Splits,
		lookback:    lookback,
		concurrency: concurrency,
		batchLimit:  batchLimit,
	}, nil
}

type warmSplitsJob struct {
	logg        *logger.Logger
	receipts    recentReceiptLister
	splits      splitFetcher
	lookback    time.Duration
	concurrency int
	batchLimit  int
}

func (j *warmSplitsJob) Name() string { return "warm-split-cache" }

// Run fetches the split for every recent receipt with a bounded number of
// lookups in flight. A receipt failing does not stop the batch; failures are
// combined into the returned error.
func (j *warmSplitsJob) Run(ctx context.Context) error {
	ids, err := j.receipts.RecentReceiptIDs(ctx, j.lookback, j.batchLimit)
	if err != nil {
		return fmt.Errorf("list recent receipts: %w", err)
	}
	if len(ids) == 0 {
		j.logg.Info(ctx, "no recent receipts to warm")
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.concurrency)

	var (
		mu     sync.Mutex
		warmed int
		failed error
	)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			rec, err := j.splits.Fetch(gctx, id)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed = multierr.Append(failed, fmt.Errorf("warm receipt %s: %w", id, err))
				return nil
			}
			if rec != nil {
				warmed++
			}
			return nil
		})
	}
	_ = g.Wait()

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"candidates": len(ids),
		"warmed":     warmed,
	})
	j.logg.Info(logCtx, "split cache warm complete")
	return failed
}
