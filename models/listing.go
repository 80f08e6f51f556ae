package models

import "time"

// Source identifies one of the marketplaces the scanner knows how to query.
type Source string

const (
	SourceCatawiki        Source = "catawiki"
	SourceInvaluable      Source = "invaluable"
	SourceBukowskis       Source = "bukowskis"
	SourceLiveAuctioneers Source = "liveauctioneers"
)

// Category is the kind of artwork a scan targets. It is set by the scan
// request, never inferred from page content.
type Category string

const (
	CategoryPainting  Category = "painting"
	CategorySculpture Category = "sculpture"
)

// RiskLevel classifies how volatile an opportunity is.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// MarketTrend is the direction of an artist's recent market.
type MarketTrend string

const (
	TrendRising    MarketTrend = "rising"
	TrendStable    MarketTrend = "stable"
	TrendDeclining MarketTrend = "declining"
)

// Recommendation is the action suggested for a valuated listing.
type Recommendation string

const (
	RecommendBuy   Recommendation = "buy"
	RecommendHold  Recommendation = "hold"
	RecommendAvoid Recommendation = "avoid"
)

// UnknownArtist is the sentinel creator name used when extraction finds
// no artist on the page.
const UnknownArtist = "Unknown Artist"

// ListingRecord is the canonical record produced by extraction. It is
// created once per successfully parsed listing and immutable afterwards.
// AskingPrice is an integer USD amount (no minor units).
type ListingRecord struct {
	Title       string
	Artist      string
	AskingPrice int
	ImageURL    string
	ListingURL  string
	Source      Source
	Description string
	Category    Category
	ScrapedAt   time.Time
}

// ValuatedListing is a ListingRecord plus its valuation. ProfitMargin is
// always recomputed from EstimatedValue and AskingPrice so the two never
// drift apart.
type ValuatedListing struct {
	ListingRecord

	EstimatedValue int
	Profit         int
	ProfitMargin   int
	Risk           RiskLevel
	Confidence     float64
	Trend          MarketTrend
	Recommendation Recommendation
	ValuedByAI     bool
}

// ScanRequest selects what to scan.
type ScanRequest struct {
	Category Category
	Sources  []Source
}

// ScanResult aggregates one scan. SourceCounts is observability data:
// failed sources report 0, they never fail the scan.
type ScanResult struct {
	Listings     []*ListingRecord
	SourceCounts map[Source]int
}

// ScanReport holds the aggregate statistics computed over a valuated scan.
type ScanReport struct {
	TotalListings  int
	AIValuedCount  int
	AverageMargin  float64
	CountsBySource map[Source]int
	CountsByAction map[Recommendation]int
	BestBuys       []*ValuatedListing
}
