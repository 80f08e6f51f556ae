package storage

import "art-arbitrage/models"

// ValuatedWriter is the interface any storage backend satisfies for
// valuated listings.
type ValuatedWriter interface {
	Write(listings []*models.ValuatedListing) error
	Close() error
}

// RawWriter persists canonical records before valuation, for inspection.
type RawWriter interface {
	WriteRaw(listings []*models.ListingRecord) error
	Close() error
}
