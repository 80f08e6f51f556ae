package orchestrator

import (
	"context"
	"errors"
	"sync"

	"art-arbitrage/models"
	"art-arbitrage/utils"
)

// ErrNoSources is the only scan-level failure: every requested source was
// unknown (or the request named none).
var ErrNoSources = errors.New("orchestrator: no valid sources in scan request")

// SourceFetcher is the slice of a scraper fetcher the orchestrator needs.
type SourceFetcher interface {
	Source() models.Source
	Fetch(ctx context.Context, category models.Category) ([]*models.ListingRecord, error)
}

// Orchestrator fans a scan request out to the selected source fetchers
// concurrently and aggregates a partial-failure-tolerant result.
type Orchestrator struct {
	fetchers       map[models.Source]SourceFetcher
	logger         *utils.Logger
	maxConcurrency int
}

// New creates an Orchestrator with no fetchers registered.
func New(logger *utils.Logger, maxConcurrency int) *Orchestrator {
	return &Orchestrator{
		fetchers:       make(map[models.Source]SourceFetcher),
		logger:         logger,
		maxConcurrency: maxConcurrency,
	}
}

// Register adds a fetcher to the known-source registry.
func (o *Orchestrator) Register(f SourceFetcher) {
	o.fetchers[f.Source()] = f
}

// Scan runs all valid requested sources concurrently. One source failing
// never cancels or corrupts the others: it is logged and reports 0 in the
// count map. Unknown source identifiers are dropped silently.
func (o *Orchestrator) Scan(ctx context.Context, req models.ScanRequest) (*models.ScanResult, error) {
	var selected []SourceFetcher
	for _, src := range req.Sources {
		f, ok := o.fetchers[src]
		if !ok {
			o.logger.Debug("[orchestrator] Dropping unknown source %q", src)
			continue
		}
		selected = append(selected, f)
	}
	if len(selected) == 0 {
		return nil, ErrNoSources
	}

	result := &models.ScanResult{
		SourceCounts: make(map[models.Source]int, len(selected)),
	}

	var mu sync.Mutex
	pool := utils.NewWorkerPool(o.maxConcurrency)

	for _, f := range selected {
		f := f
		pool.Submit(func() {
			records, err := f.Fetch(ctx, req.Category)
			if err != nil {
				o.logger.Error("[orchestrator] Source %s failed: %v", f.Source(), err)
				mu.Lock()
				result.SourceCounts[f.Source()] = 0
				mu.Unlock()
				return
			}

			mu.Lock()
			result.Listings = append(result.Listings, records...)
			result.SourceCounts[f.Source()] = len(records)
			mu.Unlock()

			o.logger.Info("[orchestrator] Source %s contributed %d records", f.Source(), len(records))
		})
	}
	pool.Wait()

	o.logger.Info("[orchestrator] Scan complete — %d records from %d sources",
		len(result.Listings), len(selected))
	return result, nil
}
