package archive

import (
	"context"

	"github.com/GetFlawed/HouseFinder/internal/models"
)

// Listing is an archived property with observation timestamps.
type Listing struct {
	models.Property
	FirstSeen int64 `json:"firstSeen"` // Unix timestamp in milliseconds
	LastSeen  int64 `json:"lastSeen"`
}

// Archive keeps a history of every listing the scrapers have returned. Unlike
// the snapshot it never forgets: listings dropping out of search results stay
// on record.
type Archive interface {
	Record(ctx context.Context, props []models.Property) error
	ListAll(ctx context.Context) ([]Listing, error)
	Close() error
}
