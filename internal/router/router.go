// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/javajoker/coursechain-backend/internal/config"
	"github.com/javajoker/coursechain-backend/internal/handlers"
	"github.com/javajoker/coursechain-backend/internal/middleware"
	"github.com/javajoker/coursechain-backend/internal/repository"
	"github.com/javajoker/coursechain-backend/internal/services"
)

const version = "1.0.0"

// Initialize builds the engine. ledger is nil when the contract client
// could not be built. The returned stop func releases the rate limiters.
func Initialize(db *gorm.DB, cfg *config.Config, ledger services.CourseLedger) (*gin.Engine, func()) {
	// Initialize services
	courseRepository := repository.NewCourseRepository(db)
	courseService := services.NewCourseService(courseRepository, ledger)

	// Initialize handlers
	courseHandler := handlers.NewCourseHandler(courseService)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.CORS))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		ledgerStatus := "unavailable"
		if courseService.LedgerAvailable() {
			ledgerStatus = "available"
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": version,
			"ledger":  ledgerStatus,
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	generalLimiter := middleware.GeneralRateLimiter(cfg.RateLimit)
	syncLimiter := middleware.SyncRateLimiter(cfg.RateLimit)
	stop := func() {
		generalLimiter.Stop()
		syncLimiter.Stop()
	}

	api := r.Group("/api")
	api.Use(generalLimiter.Middleware())
	{
		courses := api.Group("/courses")
		{
			courses.GET("", courseHandler.GetCourses)
			courses.GET("/count", courseHandler.GetCourseCount)
			courses.POST("/sync", syncLimiter.Middleware(), courseHandler.SyncCourses)
			courses.GET("/author/:author", courseHandler.GetCoursesByAuthor)
			// both purchased routes share the first wildcard name
			courses.GET("/purchased/:key", courseHandler.GetUserPurchasedCourses)
			courses.GET("/purchased/:key/:userAddress", courseHandler.CheckPurchaseStatus)
			courses.POST("/purchase", courseHandler.RecordPurchase)
			courses.GET("/:id", courseHandler.GetCourse)
		}
	}

	return r, stop
}
