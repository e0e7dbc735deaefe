package job

import "github.com/GetFlawed/HouseFinder/internal/models"

// NewListings returns the scraped properties whose links are not in seen, in
// scrape order. Links appearing more than once in one scrape surface once.
func NewListings(scraped []models.Property, seen map[string]struct{}) []models.Property {
	out := make([]models.Property, 0)
	dup := make(map[string]struct{}, len(scraped))
	for _, prop := range scraped {
		if prop.Link == "" {
			continue
		}
		if _, ok := seen[prop.Link]; ok {
			continue
		}
		if _, ok := dup[prop.Link]; ok {
			continue
		}
		dup[prop.Link] = struct{}{}
		out = append(out, prop)
	}
	return out
}
