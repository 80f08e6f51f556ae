package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"art-arbitrage/models"
	"art-arbitrage/utils"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// renderedFetcher is the slice of the browser manager a Fetcher needs.
type renderedFetcher interface {
	FetchRendered(ctx context.Context, url, waitHint string, timeout time.Duration) (string, error)
}

// Fetcher queries one marketplace. It tries a plain HTTP fetch first and
// escalates to a rendered fetch exactly once when the cheap pass yields no
// records.
type Fetcher struct {
	source     models.Source
	baseURL    string
	searchURLs map[models.Category]string
	strategies []Strategy
	priceScale float64
	waitHint   string

	client  *http.Client
	limiter *rate.Limiter
	browser renderedFetcher
	retry   *utils.RetryConfig
	logger  *utils.Logger

	renderTimeout time.Duration
}

// Source returns the marketplace this fetcher queries.
func (f *Fetcher) Source() models.Source { return f.source }

// Fetch runs the full extraction pipeline for one category: cheap fetch,
// ordered strategies, one rendered escalation if nothing matched.
func (f *Fetcher) Fetch(ctx context.Context, category models.Category) ([]*models.ListingRecord, error) {
	url, ok := f.searchURLs[category]
	if !ok {
		return nil, fmt.Errorf("%s: no search URL for category %q", f.source, category)
	}

	pass := Pass{
		Source:     f.source,
		Category:   category,
		BaseURL:    f.baseURL,
		PriceScale: f.priceScale,
	}

	html, err := f.cheapFetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%s: fetch %s: %w", f.source, url, err)
	}

	records := f.runStrategies(html, pass)
	if len(records) > 0 {
		return dedupe(records), nil
	}

	// Zero records from the cheap pass: the page likely renders its
	// listings client-side. One rendered retry, never more.
	f.logger.Info("[%s] Cheap fetch yielded 0 records — escalating to rendered fetch", f.source)

	rendered, err := f.browser.FetchRendered(ctx, url, f.waitHint, f.renderTimeout)
	if err != nil {
		return nil, fmt.Errorf("%s: rendered fetch %s: %w", f.source, url, err)
	}

	return dedupe(f.runStrategies(rendered, pass)), nil
}

// cheapFetch performs the plain transport pass: rate-limited, retried,
// bounded by the client timeout.
func (f *Fetcher) cheapFetch(ctx context.Context, url string) (string, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return "", err
	}

	var body string
	err := f.retry.Do(ctx, fmt.Sprintf("%s-fetch", f.source), func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")

		resp, err := f.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return fmt.Errorf("status %d", resp.StatusCode)
		}

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		body = string(raw)
		return nil
	})

	return body, err
}

// runStrategies applies the ordered strategy set; the first strategy
// yielding at least one record wins.
func (f *Fetcher) runStrategies(html string, pass Pass) []*models.ListingRecord {
	for _, st := range f.strategies {
		records := st.Extract(html, pass)
		if len(records) > 0 {
			f.logger.Debug("[%s] Strategy %q matched %d records", f.source, st.Name(), len(records))
			return records
		}
		f.logger.Debug("[%s] Strategy %q matched nothing", f.source, st.Name())
	}
	return nil
}

// dedupe drops records sharing a listing URL, keeping first occurrence.
// Records without a URL are kept as-is.
func dedupe(records []*models.ListingRecord) []*models.ListingRecord {
	if len(records) < 2 {
		return records
	}
	seen := utils.NewURLSet()
	out := records[:0]
	for _, r := range records {
		if r.ListingURL != "" && !seen.Add(r.ListingURL) {
			continue
		}
		out = append(out, r)
	}
	return out
}
