package scraper

import (
	"context"
	"encoding/json"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/GetFlawed/HouseFinder/internal/models"
)

const rightmoveBaseURL = "https://www.rightmove.co.uk"

// rightmoveResults mirrors the slice of the __NEXT_DATA__ payload the search
// page embeds; everything else in the blob is ignored.
type rightmoveResults struct {
	Props struct {
		PageProps struct {
			Results struct {
				Properties []rightmoveListing `json:"properties"`
			} `json:"results"`
		} `json:"pageProps"`
	} `json:"props"`
}

type rightmoveListing struct {
	DisplayAddress string `json:"displayAddress"`
	PropertyURL    string `json:"propertyUrl"`
	Bedrooms       int    `json:"bedrooms"`
	Bathrooms      int    `json:"bathrooms"`
	PropertyImages struct {
		MainImageSrc string `json:"mainImageSrc"`
	} `json:"propertyImages"`
	Price struct {
		DisplayPrices []struct {
			DisplayPrice string `json:"displayPrice"`
		} `json:"displayPrices"`
	} `json:"price"`
}

// Rightmove scrapes a Rightmove search results page.
type Rightmove struct {
	url    string
	client *resty.Client
	log    *logrus.Entry
}

func NewRightmove(url string, opts Options) *Rightmove {
	return &Rightmove{
		url:    url,
		client: newClient(opts),
		log:    sourceLogger(models.SourceRightmove),
	}
}

func (s *Rightmove) Name() string { return models.SourceRightmove }

func (s *Rightmove) Scrape(ctx context.Context) ([]models.Property, error) {
	s.log.Info("scraping search results")

	body, err := fetchHTML(ctx, s.client, s.Name(), s.url)
	if err != nil {
		return nil, err
	}

	payload, err := nextDataPayload(s.Name(), body)
	if err != nil {
		return nil, err
	}

	var data rightmoveResults
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, &FormatError{Source: s.Name(), Reason: "decode __NEXT_DATA__ json", Err: err}
	}

	listings := data.Props.PageProps.Results.Properties
	if len(listings) == 0 {
		s.log.Info("no listings in search results")
		return []models.Property{}, nil
	}

	properties := make([]models.Property, 0, len(listings))
	for _, l := range listings {
		if l.PropertyURL == "" {
			s.log.Warn("skipping listing without a property url")
			continue
		}

		name := l.DisplayAddress
		if name == "" {
			name = "N/A"
		}
		price := "N/A"
		if len(l.Price.DisplayPrices) > 0 && l.Price.DisplayPrices[0].DisplayPrice != "" {
			price = l.Price.DisplayPrices[0].DisplayPrice
		}

		properties = append(properties, models.Property{
			Name:      name,
			Link:      rightmoveBaseURL + l.PropertyURL,
			Image:     l.PropertyImages.MainImageSrc,
			Price:     price,
			Bedrooms:  l.Bedrooms,
			Bathrooms: l.Bathrooms,
			Source:    models.SourceRightmove,
		})
	}

	s.log.Infof("found %d listings", len(properties))
	return properties, nil
}
