package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GetFlawed/HouseFinder/internal/archive"
	"github.com/GetFlawed/HouseFinder/internal/job"
	"github.com/GetFlawed/HouseFinder/internal/logger"
	"github.com/GetFlawed/HouseFinder/internal/snapshot"
)

// JobScheduler is the scheduler surface the API depends on.
type JobScheduler interface {
	Trigger() bool
	LastReport() *job.RunReport
	NextRun() time.Time
}

// StatusController exposes the sync job state over HTTP: run reports, the
// in-memory seen set and the listing archive.
type StatusController struct {
	sched JobScheduler
	store *snapshot.Store
	arch  archive.Archive // nil when archiving is disabled
}

// NewStatusController creates a new StatusController. The archive may be nil.
func NewStatusController(sched JobScheduler, store *snapshot.Store, arch archive.Archive) *StatusController {
	return &StatusController{
		sched: sched,
		store: store,
		arch:  arch,
	}
}

// Status handles GET /status - reports the last run and the next scheduled one.
func (sc *StatusController) Status(c *gin.Context) {
	resp := gin.H{
		"seenListings":    sc.store.Len(),
		"archiveEnabled":  sc.arch != nil,
		"snapshotUpdated": sc.store.LastUpdate(),
	}
	if report := sc.sched.LastReport(); report != nil {
		resp["lastRun"] = report
	}
	if next := sc.sched.NextRun(); !next.IsZero() {
		resp["nextRun"] = next
	}

	c.JSON(http.StatusOK, resp)
}

// TriggerRun handles POST /run - queues a manual run. The run executes on the
// scheduler goroutine, so the response only acknowledges the request.
func (sc *StatusController) TriggerRun(c *gin.Context) {
	logger.WithComponent("status-controller").Debugf("POST /run handler called")
	if sc.sched.Trigger() {
		c.JSON(http.StatusAccepted, gin.H{"message": "run queued"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "run already pending"})
}

// Snapshot handles GET /snapshot - returns the current seen set.
func (sc *StatusController) Snapshot(c *gin.Context) {
	doc := sc.store.Current()
	c.JSON(http.StatusOK, doc)
}

// Listings handles GET /listings - returns every listing the archive holds,
// most recently seen first.
func (sc *StatusController) Listings(c *gin.Context) {
	if sc.arch == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "archive is disabled"})
		return
	}

	listings, err := sc.arch.ListAll(c.Request.Context())
	if err != nil {
		logger.WithComponent("status-controller").Errorf("failed to list archived listings: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read archive"})
		return
	}

	c.JSON(http.StatusOK, listings)
}
