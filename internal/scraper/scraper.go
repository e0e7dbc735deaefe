package scraper

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/GetFlawed/HouseFinder/internal/config"
	"github.com/GetFlawed/HouseFinder/internal/logger"
	"github.com/GetFlawed/HouseFinder/internal/models"
)

// Source scrapes one property portal search page.
type Source interface {
	Name() string
	Scrape(ctx context.Context) ([]models.Property, error)
}

// Options configure the HTTP behavior shared by all sources.
type Options struct {
	Timeout   time.Duration
	UserAgent string
}

// New builds the enabled sources from config.
func New(cfg config.ScrapeConfig) []Source {
	opts := Options{Timeout: cfg.Timeout, UserAgent: cfg.UserAgent}

	var sources []Source
	if cfg.Rightmove.Enabled {
		sources = append(sources, NewRightmove(cfg.Rightmove.URL, opts))
	}
	if cfg.Zoopla.Enabled {
		sources = append(sources, NewZoopla(cfg.Zoopla.URL, opts))
	}
	if cfg.OnTheMarket.Enabled {
		sources = append(sources, NewOnTheMarket(cfg.OnTheMarket.URL, opts))
	}
	return sources
}

// ScrapeAll runs every source concurrently and merges their listings in
// source order. Any source failing fails the whole scrape, so a partial view
// of the market never reaches the seen set.
func ScrapeAll(ctx context.Context, sources []Source) ([]models.Property, error) {
	results := make([][]models.Property, len(sources))
	errs := make([]error, len(sources))

	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		go func(i int, src Source) {
			defer wg.Done()
			results[i], errs[i] = src.Scrape(ctx)
		}(i, src)
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	var all []models.Property
	for _, props := range results {
		all = append(all, props...)
	}
	return all, nil
}

// newClient builds a resty client with browser-like headers. Portals block
// obvious bot traffic, so requests mimic a desktop Chrome. Accept-Encoding is
// left to the transport so responses come back transparently decompressed.
func newClient(opts Options) *resty.Client {
	return resty.New().
		SetTimeout(opts.Timeout).
		SetHeaders(map[string]string{
			"User-Agent":                opts.UserAgent,
			"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,image/apng,*/*;q=0.8",
			"Accept-Language":           "en-US,en;q=0.9",
			"Upgrade-Insecure-Requests": "1",
			"Cache-Control":             "max-age=0",
		})
}

// fetchHTML retrieves a page body, mapping transport errors and non-2xx
// statuses to FetchError.
func fetchHTML(ctx context.Context, client *resty.Client, source, url string) ([]byte, error) {
	res, err := client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, &FetchError{Source: source, URL: url, Err: err}
	}
	if !res.IsSuccess() {
		return nil, &FetchError{Source: source, URL: url, Status: res.StatusCode()}
	}
	return res.Body(), nil
}

func sourceLogger(source string) *logrus.Entry {
	return logger.WithComponent("scraper").WithField("source", source)
}
