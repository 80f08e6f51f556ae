package scraper

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"art-arbitrage/config"
	"art-arbitrage/models"
	"art-arbitrage/utils"
)

// sekToUSD converts bukowskis' SEK prices to the canonical USD unit.
const sekToUSD = 0.095

// Registry holds the fetcher for every marketplace the scanner knows.
type Registry struct {
	fetchers map[models.Source]*Fetcher
}

// NewRegistry builds the fetchers for all known sources, sharing one HTTP
// client and the browser manager.
func NewRegistry(cfg *config.Config, logger *utils.Logger, browser renderedFetcher) *Registry {
	client := &http.Client{Timeout: cfg.FetchTimeout}
	retry := &utils.RetryConfig{
		MaxAttempts: cfg.MaxRetries,
		BaseDelay:   2 * time.Second,
		Logger:      logger,
	}

	base := func(src models.Source, baseURL string, urls map[models.Category]string,
		scale float64, hint string, strategies []Strategy) *Fetcher {
		return &Fetcher{
			source:        src,
			baseURL:       baseURL,
			searchURLs:    urls,
			strategies:    strategies,
			priceScale:    scale,
			waitHint:      hint,
			client:        client,
			limiter:       rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.RateBurst),
			browser:       browser,
			retry:         retry,
			logger:        logger,
			renderTimeout: cfg.RenderTimeout,
		}
	}

	r := &Registry{fetchers: make(map[models.Source]*Fetcher)}

	r.add(base(models.SourceCatawiki, "https://www.catawiki.com",
		map[models.Category]string{
			models.CategoryPainting:  "https://www.catawiki.com/en/c/597-paintings",
			models.CategorySculpture: "https://www.catawiki.com/en/c/599-sculptures-statues",
		},
		0, "[data-testid='lot-card']",
		[]Strategy{
			&SelectorStrategy{
				StrategyName: "catawiki-lot-cards",
				Container:    "[data-testid='lot-card'], article.c-lot-card",
				Title:        "[data-testid='lot-card-title'], .c-lot-card__title",
				Creator:      "[data-testid='lot-card-subtitle'], .c-lot-card__subtitle",
				Price:        "[data-testid='lot-card-price'], .c-lot-card__price",
				Image:        "img",
				Link:         "a",
				Description:  ".c-lot-card__description",
			},
			&EmbeddedDataStrategy{
				StrategyName:   "catawiki-next-data",
				ScriptSelector: "script#__NEXT_DATA__",
				ItemsPath:      []string{"props", "pageProps", "lots"},
				Title:          fieldChain{"title", "name"},
				Creator:        fieldChain{"artist", "creator", "maker"},
				Price:          fieldChain{"currentBid.amount", "current_bid", "price.amount", "price"},
				Image:          fieldChain{"image.url", "imageUrl", "thumbnail"},
				Link:           fieldChain{"url", "lotUrl", "path"},
				Description:    fieldChain{"description", "subtitle"},
			},
			&LinkedDataStrategy{},
		}))

	r.add(base(models.SourceInvaluable, "https://www.invaluable.com",
		map[models.Category]string{
			models.CategoryPainting:  "https://www.invaluable.com/paintings/sc-PBBVBBVKBW/",
			models.CategorySculpture: "https://www.invaluable.com/sculptures-carvings/sc-JWC3WFMY6L/",
		},
		0, ".lot-search-result",
		[]Strategy{
			&SelectorStrategy{
				StrategyName: "invaluable-lot-tiles",
				Container:    ".lot-search-result, div[class*='LotTile']",
				Title:        ".lot-title, h2 a",
				Creator:      ".artist-name, .lot-artist",
				Price:        ".lot-estimate, .current-bid, span[class*='price']",
				Image:        "img",
				Link:         "a",
			},
			&EmbeddedDataStrategy{
				StrategyName:   "invaluable-initial-state",
				ScriptSelector: "script#__NEXT_DATA__, script[data-state='app']",
				ItemsPath:      []string{"props", "pageProps", "searchResults", "lots"},
				Title:          fieldChain{"lotTitle", "title", "name"},
				Creator:        fieldChain{"artistName", "artist", "creator"},
				Price:          fieldChain{"currentBid", "startingBid", "estimateLow", "price"},
				Image:          fieldChain{"photoPath", "imageUrl", "image"},
				Link:           fieldChain{"itemViewUrl", "url", "lotUrl"},
				Description:    fieldChain{"lotDescription", "description"},
			},
			&LinkedDataStrategy{},
		}))

	r.add(base(models.SourceBukowskis, "https://www.bukowskis.com",
		map[models.Category]string{
			models.CategoryPainting:  "https://www.bukowskis.com/en/lots/art/paintings",
			models.CategorySculpture: "https://www.bukowskis.com/en/lots/art/sculpture",
		},
		sekToUSD, ".c-lot-index-item",
		[]Strategy{
			&SelectorStrategy{
				StrategyName: "bukowskis-lot-index",
				Container:    ".c-lot-index-item, article[class*='lot-card']",
				Title:        ".c-lot-index-item__title, h3",
				Creator:      ".c-lot-index-item__artist, .artist",
				Price:        ".c-lot-index-item__bid, .c-lot-index-item__estimate, span[class*='bid']",
				Image:        "img",
				Link:         "a",
				Description:  ".c-lot-index-item__description",
			},
			&EmbeddedDataStrategy{
				StrategyName:   "bukowskis-app-state",
				ScriptSelector: "script#app-state, script[data-component='lot-index']",
				ItemsPath:      []string{"lots"},
				Title:          fieldChain{"title", "name"},
				Creator:        fieldChain{"artist_name", "artist", "maker"},
				Price:          fieldChain{"current_bid", "estimate_low", "amount"},
				Image:          fieldChain{"image_url", "thumbnail_url", "image"},
				Link:           fieldChain{"url", "path"},
				Description:    fieldChain{"description", "subtitle"},
			},
			&LinkedDataStrategy{},
		}))

	r.add(base(models.SourceLiveAuctioneers, "https://www.liveauctioneers.com",
		map[models.Category]string{
			models.CategoryPainting:  "https://www.liveauctioneers.com/c/paintings/62/",
			models.CategorySculpture: "https://www.liveauctioneers.com/c/sculptures/64/",
		},
		0, "[data-testid='item-card']",
		[]Strategy{
			&SelectorStrategy{
				StrategyName: "liveauctioneers-item-cards",
				Container:    "[data-testid='item-card'], .item-card",
				Title:        "[data-testid='item-title'], .item-title",
				Creator:      ".item-artist",
				Price:        "[data-testid='item-price'], .starting-bid, .current-bid",
				Image:        "img",
				Link:         "a",
			},
			&EmbeddedDataStrategy{
				StrategyName:   "liveauctioneers-initial-state",
				ScriptSelector: "script#__NEXT_DATA__",
				ItemsPath:      []string{"props", "pageProps", "items"},
				Title:          fieldChain{"title", "lotTitle", "name"},
				Creator:        fieldChain{"artist", "creators", "maker"},
				Price:          fieldChain{"salePrice", "startPrice", "estimateLow"},
				Image:          fieldChain{"imageUrl", "photo"},
				Link:           fieldChain{"itemUrl", "url"},
				Description:    fieldChain{"description", "condition"},
			},
			&LinkedDataStrategy{},
		}))

	return r
}

func (r *Registry) add(f *Fetcher) {
	r.fetchers[f.source] = f
}

// Lookup returns the fetcher for a source, if the source is known.
func (r *Registry) Lookup(src models.Source) (*Fetcher, bool) {
	f, ok := r.fetchers[src]
	return f, ok
}

// Known lists the registered sources.
func (r *Registry) Known() []models.Source {
	out := make([]models.Source, 0, len(r.fetchers))
	for src := range r.fetchers {
		out = append(out, src)
	}
	return out
}
