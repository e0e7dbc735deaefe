package app

import (
	"context"
	"errors"
	"log"

	"github.com/GetFlawed/HouseFinder/internal/archive"
	"github.com/GetFlawed/HouseFinder/internal/config"
	"github.com/GetFlawed/HouseFinder/internal/job"
	"github.com/GetFlawed/HouseFinder/internal/logger"
	"github.com/GetFlawed/HouseFinder/internal/scheduler"
	"github.com/GetFlawed/HouseFinder/internal/snapshot"
)

// App is the daemon container (immutable dependencies + lifecycle context).
// It is not a request context; handlers should still use gin's request context.
type App struct {
	Config    *config.Config
	Repo      snapshot.Repository
	Store     *snapshot.Store
	Runner    *job.Runner
	Scheduler *scheduler.PollingScheduler
	Archive   archive.Archive // nil when archiving is disabled

	BaseCtx context.Context
	Cancel  context.CancelFunc
}

func New(cfg *config.Config, repo snapshot.Repository, store *snapshot.Store, runner *job.Runner, sched *scheduler.PollingScheduler, arch archive.Archive) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if repo == nil {
		return nil, errors.New("repo is nil")
	}
	if store == nil {
		return nil, errors.New("snapshot store is nil")
	}
	if runner == nil {
		return nil, errors.New("runner is nil")
	}
	if sched == nil {
		return nil, errors.New("scheduler is nil")
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		Config:    cfg,
		Repo:      repo,
		Store:     store,
		Runner:    runner,
		Scheduler: sched,
		Archive:   arch,
		BaseCtx:   ctx,
		Cancel:    cancel,
	}, nil
}

func (a *App) Shutdown() {
	if a == nil || a.Cancel == nil {
		return
	}
	a.Cancel()

	if a.Archive != nil {
		if err := a.Archive.Close(); err != nil {
			logger.WithComponent("app").Warnf("failed to close archive: %v", err)
		}
	}
}

// StartWatchers starts the snapshot file watcher and the polling scheduler.
func (a *App) StartWatchers() {
	if err := a.Repo.StartWatcher(a.BaseCtx, a.Store); err != nil {
		log.Fatalf("cannot start snapshot file watcher: %v", err)
	}

	a.Scheduler.Start(a.BaseCtx)
}
