package scraper

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"art-arbitrage/models"
)

// Pass carries per-source context a strategy needs while mapping content
// into ListingRecords.
type Pass struct {
	Source   models.Source
	Category models.Category
	BaseURL  string
	// PriceScale converts the source currency to the canonical USD unit.
	// Zero means the source already quotes USD.
	PriceScale float64
}

// Strategy is one parsing approach tried against fetched content. A
// strategy never errors upward: content it cannot make sense of yields
// zero records.
type Strategy interface {
	Name() string
	Extract(html string, p Pass) []*models.ListingRecord
}

// ---------------------------------------------------------------------------
// Selector-group strategy

// SelectorStrategy extracts listings by CSS selectors: a container selector
// plus sub-selectors evaluated inside each matched container. Containers
// with no usable title or a junk price are skipped, not fatal.
type SelectorStrategy struct {
	StrategyName string
	Container    string
	Title        string
	Creator      string // optional
	Price        string
	Image        string // optional
	Link         string // optional
	Description  string // optional
}

func (s *SelectorStrategy) Name() string { return s.StrategyName }

func (s *SelectorStrategy) Extract(html string, p Pass) []*models.ListingRecord {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var records []*models.ListingRecord
	doc.Find(s.Container).Each(func(_ int, card *goquery.Selection) {
		title := strings.TrimSpace(card.Find(s.Title).First().Text())
		if title == "" {
			return
		}

		raw := ParsePrice(card.Find(s.Price).First().Text())
		if raw == 0 {
			return
		}
		price := scalePrice(raw, p.PriceScale)
		if price < MinAskingPrice {
			return
		}

		artist := models.UnknownArtist
		if s.Creator != "" {
			if a := strings.TrimSpace(card.Find(s.Creator).First().Text()); a != "" {
				artist = a
			}
		}

		rec := &models.ListingRecord{
			Title:       title,
			Artist:      artist,
			AskingPrice: price,
			Source:      p.Source,
			Category:    p.Category,
			ScrapedAt:   time.Now(),
		}
		if s.Image != "" {
			rec.ImageURL, _ = card.Find(s.Image).First().Attr("src")
		}
		if s.Link != "" {
			if href, ok := card.Find(s.Link).First().Attr("href"); ok {
				rec.ListingURL = resolveURL(p.BaseURL, href)
			}
		}
		if s.Description != "" {
			rec.Description = strings.TrimSpace(card.Find(s.Description).First().Text())
		}

		records = append(records, rec)
	})

	return records
}

// ---------------------------------------------------------------------------
// Embedded-structured-data strategy

// fieldChain is an ordered list of candidate key paths for one logical
// field. The first path resolving to a non-empty value wins. A path is
// dot-separated for nested objects ("image.url").
type fieldChain []string

func (f fieldChain) str(item map[string]any) string {
	for _, path := range f {
		if v, ok := lookupPath(item, path); ok {
			switch s := v.(type) {
			case string:
				if t := strings.TrimSpace(s); t != "" {
					return t
				}
			}
		}
	}
	return ""
}

func (f fieldChain) num(item map[string]any) int {
	for _, path := range f {
		v, ok := lookupPath(item, path)
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			if n > 0 {
				return int(n)
			}
		case string:
			if p := ParsePrice(n); p > 0 {
				return p
			}
		}
	}
	return 0
}

func lookupPath(item map[string]any, path string) (any, bool) {
	cur := any(item)
	for _, key := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[key]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// EmbeddedDataStrategy looks for a known JSON blob inside a script tag
// (the app-state payload most marketplaces ship), decodes it defensively
// and maps its item array through per-source field-name fallback chains.
type EmbeddedDataStrategy struct {
	StrategyName string
	// ScriptSelector matches the script element carrying the blob.
	ScriptSelector string
	// ItemsPath walks from the blob root to the item array.
	ItemsPath []string

	Title       fieldChain
	Creator     fieldChain
	Price       fieldChain
	Image       fieldChain
	Link        fieldChain
	Description fieldChain
}

func (s *EmbeddedDataStrategy) Name() string { return s.StrategyName }

func (s *EmbeddedDataStrategy) Extract(html string, p Pass) []*models.ListingRecord {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var records []*models.ListingRecord
	doc.Find(s.ScriptSelector).EachWithBreak(func(_ int, script *goquery.Selection) bool {
		var blob map[string]any
		if err := json.Unmarshal([]byte(script.Text()), &blob); err != nil {
			// Malformed blob: this strategy produced nothing, never an error.
			return true
		}

		items, ok := walkItems(blob, s.ItemsPath)
		if !ok {
			return true
		}

		for _, raw := range items {
			item, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			if rec := s.mapItem(item, p); rec != nil {
				records = append(records, rec)
			}
		}
		return len(records) == 0
	})

	return records
}

func (s *EmbeddedDataStrategy) mapItem(item map[string]any, p Pass) *models.ListingRecord {
	title := s.Title.str(item)
	if title == "" {
		return nil
	}

	raw := s.Price.num(item)
	if raw == 0 {
		return nil
	}
	price := scalePrice(raw, p.PriceScale)
	if price < MinAskingPrice {
		return nil
	}

	artist := s.Creator.str(item)
	if artist == "" {
		artist = models.UnknownArtist
	}

	return &models.ListingRecord{
		Title:       title,
		Artist:      artist,
		AskingPrice: price,
		ImageURL:    s.Image.str(item),
		ListingURL:  resolveURL(p.BaseURL, s.Link.str(item)),
		Source:      p.Source,
		Description: s.Description.str(item),
		Category:    p.Category,
		ScrapedAt:   time.Now(),
	}
}

func walkItems(blob map[string]any, path []string) ([]any, bool) {
	cur := any(blob)
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[key]; !ok {
			return nil, false
		}
	}
	items, ok := cur.([]any)
	return items, ok
}

// ---------------------------------------------------------------------------
// Linked-data strategy

// LinkedDataStrategy maps schema.org Product/Offer nodes from
// application/ld+json blocks. It is the last, most generic fallback.
type LinkedDataStrategy struct{}

func (s *LinkedDataStrategy) Name() string { return "linked-data" }

func (s *LinkedDataStrategy) Extract(html string, p Pass) []*models.ListingRecord {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var records []*models.ListingRecord
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, script *goquery.Selection) {
		var root any
		if err := json.Unmarshal([]byte(script.Text()), &root); err != nil {
			return
		}
		for _, node := range ldNodes(root) {
			if rec := mapLDNode(node, p); rec != nil {
				records = append(records, rec)
			}
		}
	})

	return records
}

// ldNodes flattens the shapes ld+json comes in: a single node, a top-level
// array, a @graph wrapper, or an ItemList.
func ldNodes(root any) []map[string]any {
	var out []map[string]any

	var visit func(any)
	visit = func(v any) {
		switch n := v.(type) {
		case []any:
			for _, e := range n {
				visit(e)
			}
		case map[string]any:
			if graph, ok := n["@graph"]; ok {
				visit(graph)
				return
			}
			if elems, ok := n["itemListElement"]; ok {
				visit(elems)
				return
			}
			if item, ok := n["item"]; ok {
				visit(item)
				return
			}
			out = append(out, n)
		}
	}
	visit(root)

	return out
}

var (
	ldTitle   = fieldChain{"name", "headline"}
	ldCreator = fieldChain{"creator.name", "brand.name", "author.name"}
	ldPrice   = fieldChain{"offers.price", "offers.lowPrice", "price"}
	ldImage   = fieldChain{"image", "image.url"}
	ldLink    = fieldChain{"url", "offers.url", "@id"}
	ldDesc    = fieldChain{"description"}
)

func mapLDNode(node map[string]any, p Pass) *models.ListingRecord {
	typ, _ := node["@type"].(string)
	if typ != "Product" && typ != "VisualArtwork" && typ != "Offer" {
		return nil
	}

	title := ldTitle.str(node)
	if title == "" {
		return nil
	}

	raw := ldPrice.num(node)
	if raw == 0 {
		return nil
	}
	price := scalePrice(raw, p.PriceScale)
	if price < MinAskingPrice {
		return nil
	}

	artist := ldCreator.str(node)
	if artist == "" {
		artist = models.UnknownArtist
	}

	return &models.ListingRecord{
		Title:       title,
		Artist:      artist,
		AskingPrice: price,
		ImageURL:    ldImage.str(node),
		ListingURL:  resolveURL(p.BaseURL, ldLink.str(node)),
		Source:      p.Source,
		Description: ldDesc.str(node),
		Category:    p.Category,
		ScrapedAt:   time.Now(),
	}
}

func resolveURL(base, href string) string {
	if href == "" || strings.HasPrefix(href, "http") {
		return href
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(href, "/")
}
