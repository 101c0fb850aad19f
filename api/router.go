// Package api wires the extraction endpoints into a gin engine.
package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/harvest/api/handler"
	"github.com/use-agent/harvest/api/middleware"
	"github.com/use-agent/harvest/cache"
	"github.com/use-agent/harvest/config"
	"github.com/use-agent/harvest/engine"
	"github.com/use-agent/harvest/scraper"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health is intentionally outside auth so monitoring probes always work.
func NewRouter(sc *scraper.Scraper, d *engine.Dispatcher, cfg *config.Config, cc *cache.Cache, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	// Health — no auth required.
	v1.GET("/health", handler.Health(sc, startTime))

	// Protected group — auth + rate limit.
	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	// Free-form scrape (selector optional; heuristic discovery otherwise).
	protected.POST("/scrape", handler.Scrape(d, cfg, cc))

	// Schema extraction: labeled field selectors → grouped records.
	protected.POST("/schema", handler.Schema(d, cc))

	// List extraction: list selector + fields + limit.
	protected.POST("/list", handler.List(d, cfg, cc))

	// Auto-list: per-child selectors as a schema-authoring aid.
	protected.POST("/autolist", handler.AutoList(d))

	return r
}
