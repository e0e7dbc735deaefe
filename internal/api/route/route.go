package route

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/GetFlawed/HouseFinder/internal/api/controller"
	"github.com/GetFlawed/HouseFinder/internal/api/middleware"
	"github.com/GetFlawed/HouseFinder/internal/app"
)

// SetupRoutes builds the daemon's HTTP engine: liveness, run control and read
// access to the snapshot and the listing archive.
func SetupRoutes(appCtx *app.App, log *logrus.Logger) *gin.Engine {
	r := gin.New()
	r.Use(middleware.HoneybadgerMiddleware(log))
	r.Use(gin.Recovery())
	r.Use(middleware.RequestTimeout(appCtx.Config.Daemon.RequestTimeout))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "UP",
		})
	})

	sc := controller.NewStatusController(appCtx.Scheduler, appCtx.Store, appCtx.Archive)

	r.GET("/status", sc.Status)
	r.POST("/run", sc.TriggerRun)
	r.GET("/snapshot", sc.Snapshot)
	r.GET("/listings", sc.Listings)

	return r
}
