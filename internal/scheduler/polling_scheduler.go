package scheduler

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	honeybadger "github.com/honeybadger-io/honeybadger-go"

	"github.com/GetFlawed/HouseFinder/internal/job"
	"github.com/GetFlawed/HouseFinder/internal/logger"
)

// Runner is the unit of work the scheduler drives. Run must return a non-nil
// report even when it fails.
type Runner interface {
	Run(ctx context.Context) (*job.RunReport, error)
}

// PollingScheduler runs the sync job on a fixed interval and accepts manual
// triggers. One goroutine consumes both the ticker and the trigger queue, so
// runs never overlap: a trigger that arrives mid-run waits for the current
// run to finish.
//
// Semantics:
// - Interval ticks and manual triggers execute the same job to completion.
// - At most one manual run can be pending; further triggers coalesce into it.
// - A failed run is logged and reported to Honeybadger when configured. The
//   next tick retries from the intact snapshot.
type PollingScheduler struct {
	runner  Runner
	poll    time.Duration
	trigger chan struct{}

	// reportFailures is set when HONEYBADGER_API_KEY is present.
	reportFailures bool

	mu         sync.Mutex
	started    bool
	nextRun    time.Time
	lastReport *job.RunReport
}

func NewPollingScheduler(runner Runner, poll time.Duration) *PollingScheduler {
	s := &PollingScheduler{
		runner:  runner,
		poll:    poll,
		trigger: make(chan struct{}, 1),
	}

	if apiKey := os.Getenv("HONEYBADGER_API_KEY"); apiKey != "" {
		honeybadger.Configure(honeybadger.Configuration{
			APIKey: apiKey,
			Env:    os.Getenv("GO_ENV"),
		})
		s.reportFailures = true
	}

	return s
}

// Start launches the scheduler goroutine. It runs until ctx is cancelled.
// Calling Start again is a no-op.
func (s *PollingScheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		logger.WithComponent("sched").Warn("scheduler already started")
		return
	}
	s.started = true
	s.nextRun = time.Now().Add(s.poll)
	s.mu.Unlock()

	logger.WithComponent("sched").Debugf("starting polling scheduler with interval: %v", s.poll)
	ticker := time.NewTicker(s.poll)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				logger.WithComponent("sched").Info("scheduler stopped")
				return
			case <-ticker.C:
				s.setNextRun(time.Now().Add(s.poll))
				s.runOnce(ctx, "interval")
			case <-s.trigger:
				s.runOnce(ctx, "manual")
			}
		}
	}()
}

// Trigger queues a manual run without waiting for it. It returns false when a
// manual run is already pending, in which case this request coalesces with
// the queued one.
func (s *PollingScheduler) Trigger() bool {
	select {
	case s.trigger <- struct{}{}:
		logger.WithComponent("sched").Debug("manual run queued")
		return true
	default:
		logger.WithComponent("sched").Debug("manual run already pending")
		return false
	}
}

// LastReport returns a copy of the most recent run report, or nil when no run
// has happened yet.
func (s *PollingScheduler) LastReport() *job.RunReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastReport == nil {
		return nil
	}
	report := *s.lastReport
	return &report
}

// NextRun returns the approximate time of the next interval run. It is zero
// until Start has been called.
func (s *PollingScheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextRun
}

func (s *PollingScheduler) runOnce(ctx context.Context, trigger string) {
	logger.WithComponent("sched").Debugf("%s run starting", trigger)
	report, err := s.runner.Run(ctx)
	s.setLastReport(report)
	if err != nil {
		logger.WithComponent("sched").Errorf("%s run failed: %v", trigger, err)
		if s.reportFailures {
			honeybadger.Notify(fmt.Sprintf("Sync run failed: %v", err),
				honeybadger.Context{"trigger": trigger}, honeybadger.Tags{"job"})
		}
		return
	}
	if report.NotifyFailures > 0 {
		logger.WithComponent("sched").Warnf("%s run had %d notification failures", trigger, report.NotifyFailures)
		if s.reportFailures {
			honeybadger.Notify(fmt.Sprintf("Sync run had %d notification failures", report.NotifyFailures),
				honeybadger.Context{"trigger": trigger}, honeybadger.Tags{"job", "notify"})
		}
	}
	logger.WithComponent("sched").Debugf("%s run finished: %d scraped, %d new", trigger, report.Scraped, report.New)
}

func (s *PollingScheduler) setNextRun(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextRun = t
}

func (s *PollingScheduler) setLastReport(report *job.RunReport) {
	if report == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastReport = report
}
