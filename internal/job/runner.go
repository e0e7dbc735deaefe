package job

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/GetFlawed/HouseFinder/internal/archive"
	"github.com/GetFlawed/HouseFinder/internal/logger"
	"github.com/GetFlawed/HouseFinder/internal/models"
	"github.com/GetFlawed/HouseFinder/internal/notify"
	"github.com/GetFlawed/HouseFinder/internal/scraper"
	"github.com/GetFlawed/HouseFinder/internal/snapshot"
)

// RunReport summarizes one sync cycle.
type RunReport struct {
	RunID          string    `json:"runId"`
	StartedAt      time.Time `json:"startedAt"`
	DurationMillis int64     `json:"durationMs"`
	Scraped        int       `json:"scraped"`
	New            int       `json:"new"`
	Notified       int       `json:"notified"`
	NotifyFailures int       `json:"notifyFailures"`
	Changed        bool      `json:"changed"`
	Persisted      bool      `json:"persisted"`
	Error          string    `json:"error,omitempty"`
}

// Runner executes the sync cycle: load the seen set, scrape, notify about
// listings not seen before, and persist the scraped set if it changed.
//
// A scrape failure aborts the run before any notification or state change, so
// the next trigger retries against an intact snapshot. Notification and
// archive failures are logged but never block the snapshot update. A persist
// failure fails the run.
type Runner struct {
	sources  []scraper.Source
	repo     snapshot.Repository
	notifier notify.Notifier
	arch     archive.Archive // optional
	store    *snapshot.Store // optional, refreshed after successful runs
}

// NewRunner wires a Runner. Archive and store are optional and may be nil.
func NewRunner(sources []scraper.Source, repo snapshot.Repository, notifier notify.Notifier, arch archive.Archive, store *snapshot.Store) (*Runner, error) {
	if len(sources) == 0 {
		return nil, errors.New("at least one source is required")
	}
	if repo == nil {
		return nil, errors.New("snapshot repository is nil")
	}
	if notifier == nil {
		return nil, errors.New("notifier is nil")
	}

	return &Runner{
		sources:  sources,
		repo:     repo,
		notifier: notifier,
		arch:     arch,
		store:    store,
	}, nil
}

// Run executes one sync cycle. The returned report is never nil.
func (r *Runner) Run(ctx context.Context) (*RunReport, error) {
	report := &RunReport{
		RunID:     uuid.New().String(),
		StartedAt: time.Now(),
	}
	log := logger.WithRun("job", report.RunID)

	log.Info("starting sync run")

	doc, err := r.repo.Load(ctx)
	if err != nil {
		return r.fail(report, log, fmt.Errorf("load snapshot: %w", err))
	}
	seen := doc.SeenSet()

	scraped, err := scraper.ScrapeAll(ctx, r.sources)
	if err != nil {
		return r.fail(report, log, fmt.Errorf("scrape: %w", err))
	}
	report.Scraped = len(scraped)

	newListings := NewListings(scraped, seen)
	report.New = len(newListings)
	log.Infof("found %d total listings, %d new", len(scraped), len(newListings))

	for _, prop := range newListings {
		if err := r.notifier.Notify(ctx, prop); err != nil {
			report.NotifyFailures++
			log.Errorf("failed to notify for %s: %v", prop.Link, err)
			continue
		}
		report.Notified++
	}

	if r.arch != nil {
		if err := r.arch.Record(ctx, scraped); err != nil {
			log.Errorf("failed to archive listings: %v", err)
		}
	}

	next := snapshot.NewDocument(models.Links(scraped))
	report.Changed = !snapshot.SameSeen(doc, next)
	if report.Changed {
		next.Metadata = snapshot.Metadata{
			LastUpdate: time.Now().UnixMilli(),
			LastRunID:  report.RunID,
		}
		if err := r.repo.Save(ctx, next); err != nil {
			return r.fail(report, log, fmt.Errorf("save snapshot: %w", err))
		}
		report.Persisted = true
		log.Infof("snapshot updated, %d seen links", len(next.Seen))

		if r.store != nil {
			r.store.Replace(*next)
		}
	} else {
		log.Info("no changes, snapshot untouched")
	}

	report.DurationMillis = time.Since(report.StartedAt).Milliseconds()
	log.Infof("finished run in %s", time.Since(report.StartedAt).Round(time.Millisecond))
	return report, nil
}

func (r *Runner) fail(report *RunReport, log *logrus.Entry, err error) (*RunReport, error) {
	report.DurationMillis = time.Since(report.StartedAt).Milliseconds()
	report.Error = err.Error()
	log.Errorf("run failed: %v", err)
	return report, err
}
