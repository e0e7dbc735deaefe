package models

// Portal names as they appear in notifications and the archive.
const (
	SourceRightmove   = "Rightmove"
	SourceZoopla      = "Zoopla"
	SourceOnTheMarket = "OnTheMarket"
)

// Property is a single rental listing scraped from one of the portals.
// Link is the canonical listing URL and doubles as the listing identity:
// the seen-set and the archive both key on it.
type Property struct {
	Name      string `json:"name"`
	Link      string `json:"link"`
	Image     string `json:"image"`
	Price     string `json:"price"`
	Bedrooms  int    `json:"bedrooms"`
	Bathrooms int    `json:"bathrooms"`
	Source    string `json:"source"`
}

// Links returns the listing URLs in input order, dropping duplicates.
// The same property occasionally appears twice in one portal response;
// a duplicate link must not produce a duplicate notification.
func Links(props []Property) []string {
	seen := make(map[string]struct{}, len(props))
	links := make([]string, 0, len(props))
	for _, p := range props {
		if p.Link == "" {
			continue
		}
		if _, ok := seen[p.Link]; ok {
			continue
		}
		seen[p.Link] = struct{}{}
		links = append(links, p.Link)
	}
	return links
}
