package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/crawlworks/reviewharvest/api/handler"
	"github.com/crawlworks/reviewharvest/api/middleware"
	"github.com/crawlworks/reviewharvest/config"
	"github.com/crawlworks/reviewharvest/crawl"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health endpoint is intentionally outside auth so monitoring probes always work.
func NewRouter(orch *crawl.Orchestrator, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	// Health — no auth required.
	v1.GET("/health", handler.Health(startTime))

	// Protected group — auth + rate limit.
	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	// Crawl
	defaults := crawl.OptionsFromConfig(cfg.Crawl)
	protected.POST("/crawl", handler.PostCrawl(orch, defaults))
	protected.GET("/crawl/:id", handler.GetCrawl())

	return r
}
