package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	route "github.com/GetFlawed/HouseFinder/internal/api/route"
	appctx "github.com/GetFlawed/HouseFinder/internal/app"
	"github.com/GetFlawed/HouseFinder/internal/archive"
	"github.com/GetFlawed/HouseFinder/internal/config"
	"github.com/GetFlawed/HouseFinder/internal/job"
	"github.com/GetFlawed/HouseFinder/internal/logger"
	"github.com/GetFlawed/HouseFinder/internal/notify"
	"github.com/GetFlawed/HouseFinder/internal/scheduler"
	"github.com/GetFlawed/HouseFinder/internal/scraper"
	"github.com/GetFlawed/HouseFinder/internal/snapshot"

	"github.com/enrichman/httpgrace"
)

func main() {
	daemon := flag.Bool("daemon", false, "keep running, poll on an interval and serve the HTTP API")
	confPath := flag.String("config", "", "extra directory to search for config.yaml")
	flag.Parse()

	cfg, err := config.LoadConfig(*confPath)
	if err != nil {
		logger.WithComponent("main").Fatalf("configuration error: %v", err)
	}

	// Set log level from configuration
	if !logger.SetLevel(cfg.Log.Level) {
		logger.WithComponent("main").Warnf("invalid log level '%s', keeping '%s'", cfg.Log.Level, logger.Logger.GetLevel())
	}
	logger.WithComponent("main").Debugf("log level set to: %s", logger.Logger.GetLevel().String())

	sources := scraper.New(cfg.Scrape)

	notifier, err := notify.NewFromConfig(cfg.Notifications)
	if err != nil {
		logger.WithComponent("main").Fatalf("cannot init notifier: %v", err)
	}

	repo, err := snapshot.NewJSONRepository(cfg.Snapshot.FilePath)
	if err != nil {
		logger.WithComponent("main").Fatalf("cannot init snapshot repository: %v", err)
	}

	var arch archive.Archive
	if cfg.Archive.Enabled {
		sqliteArch, err := archive.NewSQLiteArchive(cfg.Archive.Path)
		if err != nil {
			logger.WithComponent("main").Fatalf("cannot init archive: %v", err)
		}
		arch = sqliteArch
	}

	if *daemon {
		runDaemon(cfg, repo, sources, notifier, arch)
		return
	}
	runOnce(repo, sources, notifier, arch)
}

// runOnce executes a single sync cycle. The exit code is the interface for
// cron and systemd timers: zero when the run succeeded (including the
// nothing-changed case), non-zero when it failed.
func runOnce(repo snapshot.Repository, sources []scraper.Source, notifier notify.Notifier, arch archive.Archive) {
	runner, err := job.NewRunner(sources, repo, notifier, arch, nil)
	if err != nil {
		logger.WithComponent("main").Fatalf("cannot init runner: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.WithComponent("main").Info("received interrupt signal, cancelling run")
		cancel()
	}()

	report, err := runner.Run(ctx)

	if arch != nil {
		if cerr := arch.Close(); cerr != nil {
			logger.WithComponent("main").Warnf("failed to close archive: %v", cerr)
		}
	}

	if err != nil {
		logger.WithComponent("main").Fatalf("sync run failed: %v", err)
	}
	logger.WithComponent("main").Infof("run %s finished: %d scraped, %d new, %d notified",
		report.RunID, report.Scraped, report.New, report.Notified)
}

// runDaemon keeps the process alive: the scheduler polls on the configured
// interval and the gin API exposes status and manual triggers.
func runDaemon(cfg *config.Config, repo *snapshot.JSONRepository, sources []scraper.Source, notifier notify.Notifier, arch archive.Archive) {
	doc, err := repo.Load(context.Background())
	if err != nil {
		logger.WithComponent("main").Fatalf("cannot load snapshot: %v", err)
	}
	store := snapshot.NewStore(*doc)

	runner, err := job.NewRunner(sources, repo, notifier, arch, store)
	if err != nil {
		logger.WithComponent("main").Fatalf("cannot init runner: %v", err)
	}
	sched := scheduler.NewPollingScheduler(runner, cfg.Daemon.PollInterval)

	app, err := appctx.New(cfg, repo, store, runner, sched, arch)
	if err != nil {
		logger.WithComponent("main").Fatalf("cannot init app: %v", err)
	}
	defer app.Shutdown()

	app.StartWatchers()

	// The first cycle runs right away; the ticker covers the rest.
	app.Scheduler.Trigger()

	gin.SetMode(cfg.Daemon.GinMode)
	gin.DefaultWriter = logger.Logger.Writer()
	gin.DefaultErrorWriter = logger.Logger.Writer()

	logger.WithComponent("main").Infof("API will run on %s, polling every %v", cfg.Daemon.Addr(), cfg.Daemon.PollInterval)

	r := route.SetupRoutes(app, logger.Logger)
	srv := createGraceHttpServer(app.BaseCtx, "api", cfg.Daemon, r)

	if err := srv.ListenAndServe(cfg.Daemon.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithComponent("main").Fatal(err)
	}
}

func createGraceHttpServer(ctx context.Context, name string, daemonConfig config.DaemonConfig, r *gin.Engine) *httpgrace.Server {
	slogLogger := slog.New(slog.NewTextHandler(logger.Logger.Writer(), nil))

	srv := httpgrace.NewServer(r,
		httpgrace.WithTimeout(daemonConfig.ShutdownTimeout),
		httpgrace.WithSignals(syscall.SIGTERM, syscall.SIGINT),
		httpgrace.WithLogger(slogLogger),
		httpgrace.WithBeforeShutdown(func() {
			logger.WithComponent("http").Infof("Shutting down %s server....", name)
		}),
		httpgrace.WithServerOptions(
			httpgrace.WithReadTimeout(daemonConfig.ReadTimeout),
			httpgrace.WithWriteTimeout(daemonConfig.WriteTimeout),
			httpgrace.WithIdleTimeout(daemonConfig.IdleTimeout),
			func(srv *http.Server) {
				srv.BaseContext = func(_ net.Listener) context.Context {
					return ctx
				}
			},
			func(srv *http.Server) {
				srv.ErrorLog = log.New(logger.Logger.Writer(), fmt.Sprintf("[%s] ", name), log.LstdFlags)
			},
		),
	)
	return srv
}
