package scraper

import (
	"bytes"
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/GetFlawed/HouseFinder/internal/models"
)

const onTheMarketBaseURL = "https://www.onthemarket.com"

var featureCountRe = regexp.MustCompile(`\d+`)

// OnTheMarket scrapes an OnTheMarket search results page. Unlike the other
// portals it has no embedded JSON payload, so listings come out of the card
// markup directly.
type OnTheMarket struct {
	url    string
	client *resty.Client
	log    *logrus.Entry
}

func NewOnTheMarket(url string, opts Options) *OnTheMarket {
	return &OnTheMarket{
		url:    url,
		client: newClient(opts),
		log:    sourceLogger(models.SourceOnTheMarket),
	}
}

func (s *OnTheMarket) Name() string { return models.SourceOnTheMarket }

func (s *OnTheMarket) Scrape(ctx context.Context) ([]models.Property, error) {
	s.log.Info("scraping search results")

	body, err := fetchHTML(ctx, s.client, s.Name(), s.url)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(body))
	if err != nil {
		return nil, &FormatError{Source: s.Name(), Reason: "parse html", Err: err}
	}

	// The portal serves a dedicated page when a search matches nothing.
	noResults := false
	doc.Find("h1").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		if strings.Contains(h.Text(), "Sorry, no properties found") {
			noResults = true
			return false
		}
		return true
	})
	if noResults {
		s.log.Info("no results page returned")
		return []models.Property{}, nil
	}

	container := doc.Find("#properties-list-tab-panel")
	if container.Length() == 0 {
		return nil, &FormatError{Source: s.Name(), Reason: "neither results container nor no-results message found"}
	}

	properties := []models.Property{}
	container.Find("li.otm-PropertyCard").Each(func(_ int, card *goquery.Selection) {
		name := strings.TrimSpace(card.Find("span.otm-PropertyCard-address").First().Text())
		price := strings.TrimSpace(card.Find("div.otm-PropertyCard-price").First().Text())
		href := card.Find("a.otm-PropertyCard-link").First().AttrOr("href", "")
		if name == "" || price == "" || href == "" {
			s.log.Debug("skipping card without address, price or link")
			return
		}

		beds, baths, ok := parseFeatures(card)
		if !ok {
			s.log.Warn("skipping card with malformed features")
			return
		}

		properties = append(properties, models.Property{
			Name:      name,
			Link:      onTheMarketBaseURL + href,
			Image:     card.Find("img.otm-PropertyCard-image").First().AttrOr("src", ""),
			Price:     price,
			Bedrooms:  beds,
			Bathrooms: baths,
			Source:    models.SourceOnTheMarket,
		})
	})

	s.log.Infof("found %d listings", len(properties))
	return properties, nil
}

// parseFeatures pulls bed/bath counts out of the feature spans. A feature
// that mentions beds or baths but carries no number marks the card malformed.
func parseFeatures(card *goquery.Selection) (int, int, bool) {
	beds, baths := 0, 0
	ok := true
	card.Find("div.otm-PropertyCard-features span").Each(func(_ int, span *goquery.Selection) {
		text := strings.ToLower(strings.TrimSpace(span.Text()))
		if strings.Contains(text, "bed") {
			match := featureCountRe.FindString(text)
			if match == "" {
				ok = false
				return
			}
			beds, _ = strconv.Atoi(match)
		}
		if strings.Contains(text, "bath") {
			match := featureCountRe.FindString(text)
			if match == "" {
				ok = false
				return
			}
			baths, _ = strconv.Atoi(match)
		}
	})
	return beds, baths, ok
}
