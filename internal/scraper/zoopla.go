package scraper

import (
	"context"
	"encoding/json"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/GetFlawed/HouseFinder/internal/models"
)

const (
	zooplaBaseURL = "https://www.zoopla.co.uk"
	zooplaHomeURL = "https://www.zoopla.co.uk/"
)

type zooplaResults struct {
	Props struct {
		PageProps struct {
			RegularListings struct {
				Listings []zooplaListing `json:"listings"`
			} `json:"regularListings"`
		} `json:"pageProps"`
	} `json:"props"`
}

type zooplaListing struct {
	Title       string `json:"title"`
	ListingUris struct {
		Detail string `json:"detail"`
	} `json:"listingUris"`
	Image struct {
		URL string `json:"url"`
	} `json:"image"`
	Pricing struct {
		Label string `json:"label"`
	} `json:"pricing"`
	Beds  int `json:"beds"`
	Baths int `json:"baths"`
}

// Zoopla scrapes a Zoopla search results page. The search page rejects
// requests without session cookies, so each scrape visits the homepage first
// to pick them up.
type Zoopla struct {
	url     string
	homeURL string
	client  *resty.Client
	log     *logrus.Entry
}

func NewZoopla(url string, opts Options) *Zoopla {
	return &Zoopla{
		url:     url,
		homeURL: zooplaHomeURL,
		client:  newClient(opts),
		log:     sourceLogger(models.SourceZoopla),
	}
}

func (s *Zoopla) Name() string { return models.SourceZoopla }

func (s *Zoopla) Scrape(ctx context.Context) ([]models.Property, error) {
	s.log.Info("initializing session")
	// Only a transport failure matters here; the homepage status is not
	// checked because the cookies arrive either way.
	if _, err := s.client.R().SetContext(ctx).Get(s.homeURL); err != nil {
		return nil, &FetchError{Source: s.Name(), URL: s.homeURL, Err: err}
	}

	s.log.Info("scraping search results")
	body, err := fetchHTML(ctx, s.client, s.Name(), s.url)
	if err != nil {
		return nil, err
	}

	payload, err := nextDataPayload(s.Name(), body)
	if err != nil {
		return nil, err
	}

	var data zooplaResults
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, &FormatError{Source: s.Name(), Reason: "decode __NEXT_DATA__ json", Err: err}
	}

	listings := data.Props.PageProps.RegularListings.Listings
	if len(listings) == 0 {
		s.log.Info("no listings in search results")
		return []models.Property{}, nil
	}

	properties := make([]models.Property, 0, len(listings))
	for _, l := range listings {
		if l.ListingUris.Detail == "" {
			s.log.Warn("skipping listing without a detail uri")
			continue
		}

		name := l.Title
		if name == "" {
			name = "N/A"
		}
		price := l.Pricing.Label
		if price == "" {
			price = "N/A"
		}

		properties = append(properties, models.Property{
			Name:      name,
			Link:      zooplaBaseURL + l.ListingUris.Detail,
			Image:     l.Image.URL,
			Price:     price,
			Bedrooms:  l.Beds,
			Bathrooms: l.Baths,
			Source:    models.SourceZoopla,
		})
	}

	s.log.Infof("found %d listings", len(properties))
	return properties, nil
}
