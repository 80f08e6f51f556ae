package orchestrator

import (
	"context"
	"errors"
	"testing"

	"art-arbitrage/models"
	"art-arbitrage/utils"
)

type stubFetcher struct {
	src     models.Source
	records []*models.ListingRecord
	err     error
}

func (s *stubFetcher) Source() models.Source { return s.src }

func (s *stubFetcher) Fetch(ctx context.Context, cat models.Category) ([]*models.ListingRecord, error) {
	return s.records, s.err
}

func record(src models.Source, title string) *models.ListingRecord {
	return &models.ListingRecord{Title: title, Source: src, AskingPrice: 10000}
}

func newTestOrchestrator(fetchers ...SourceFetcher) *Orchestrator {
	o := New(utils.NewLogger(false), 4)
	for _, f := range fetchers {
		o.Register(f)
	}
	return o
}

func TestScanAggregatesAllSources(t *testing.T) {
	o := newTestOrchestrator(
		&stubFetcher{src: models.SourceCatawiki, records: []*models.ListingRecord{
			record(models.SourceCatawiki, "A"), record(models.SourceCatawiki, "B"),
		}},
		&stubFetcher{src: models.SourceBukowskis, records: []*models.ListingRecord{
			record(models.SourceBukowskis, "C"),
		}},
	)

	result, err := o.Scan(context.Background(), models.ScanRequest{
		Category: models.CategoryPainting,
		Sources:  []models.Source{models.SourceCatawiki, models.SourceBukowskis},
	})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if len(result.Listings) != 3 {
		t.Errorf("listings: got %d, want 3", len(result.Listings))
	}
	if result.SourceCounts[models.SourceCatawiki] != 2 {
		t.Errorf("catawiki count: got %d, want 2", result.SourceCounts[models.SourceCatawiki])
	}
	if result.SourceCounts[models.SourceBukowskis] != 1 {
		t.Errorf("bukowskis count: got %d, want 1", result.SourceCounts[models.SourceBukowskis])
	}
}

func TestScanIsolatesFailedSources(t *testing.T) {
	o := newTestOrchestrator(
		&stubFetcher{src: models.SourceCatawiki, err: errors.New("timeout")},
		&stubFetcher{src: models.SourceInvaluable, records: []*models.ListingRecord{
			record(models.SourceInvaluable, "A"),
		}},
		&stubFetcher{src: models.SourceBukowskis, err: errors.New("503")},
	)

	result, err := o.Scan(context.Background(), models.ScanRequest{
		Category: models.CategoryPainting,
		Sources: []models.Source{
			models.SourceCatawiki, models.SourceInvaluable, models.SourceBukowskis,
		},
	})
	if err != nil {
		t.Fatalf("scan must never fail on per-source errors: %v", err)
	}

	if len(result.Listings) != 1 {
		t.Errorf("listings: got %d, want 1", len(result.Listings))
	}
	if n, ok := result.SourceCounts[models.SourceCatawiki]; !ok || n != 0 {
		t.Errorf("failed source must report 0, got %d (present=%v)", n, ok)
	}
	if n, ok := result.SourceCounts[models.SourceBukowskis]; !ok || n != 0 {
		t.Errorf("failed source must report 0, got %d (present=%v)", n, ok)
	}
}

func TestScanDropsUnknownSources(t *testing.T) {
	o := newTestOrchestrator(
		&stubFetcher{src: models.SourceCatawiki, records: []*models.ListingRecord{
			record(models.SourceCatawiki, "A"),
		}},
	)

	result, err := o.Scan(context.Background(), models.ScanRequest{
		Category: models.CategoryPainting,
		Sources:  []models.Source{models.SourceCatawiki, models.Source("ebay")},
	})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if len(result.Listings) != 1 {
		t.Errorf("listings: got %d, want 1", len(result.Listings))
	}
	if _, ok := result.SourceCounts[models.Source("ebay")]; ok {
		t.Error("unknown source must not appear in the count map")
	}
}

func TestScanNoValidSources(t *testing.T) {
	o := newTestOrchestrator()

	_, err := o.Scan(context.Background(), models.ScanRequest{
		Category: models.CategoryPainting,
		Sources:  []models.Source{models.Source("ebay")},
	})
	if !errors.Is(err, ErrNoSources) {
		t.Fatalf("expected ErrNoSources, got %v", err)
	}
}
