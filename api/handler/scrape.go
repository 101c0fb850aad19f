package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/harvest/cache"
	"github.com/use-agent/harvest/config"
	"github.com/use-agent/harvest/engine"
	"github.com/use-agent/harvest/extract"
	"github.com/use-agent/harvest/models"
)

// Scrape returns a handler for POST /api/v1/scrape.
//
// Free-form extraction: every element matched by the selector becomes one
// record of image URLs and text lines. With no selector, the heuristic
// locator discovers the page's repeated-item region first.
//
// Orchestration flow:
//  1. Parse & validate request, apply defaults.
//  2. Cache lookup (max_age driven).
//  3. Dispatcher.Open → live session       (records navigation_ms)
//  4. extract.ScrapeRecords                (records extraction_ms)
//  5. Fill Timing, cache, return 200.
func Scrape(d *engine.Dispatcher, cfg *config.Config, cc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		var req models.ScrapeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
		req.Defaults()

		cacheKey := cache.Key(req.URL, "scrape", cache.Digest([]byte(req.Selector)))
		if cc != nil && req.MaxAge > 0 {
			if cached, hit := cc.Get(cacheKey, req.MaxAge); hit {
				cached.CacheStatus = "hit"
				cached.Timing = models.TimingInfo{
					TotalMs: time.Since(totalStart).Milliseconds(),
				}
				c.JSON(http.StatusOK, cached)
				return
			}
		}

		navStart := time.Now()
		sess, err := openSession(c.Request.Context(), d, &req.PageRequest)
		navigationMs := time.Since(navStart).Milliseconds()
		if err != nil {
			respondError(c, err, models.TimingInfo{
				TotalMs:      time.Since(totalStart).Milliseconds(),
				NavigationMs: navigationMs,
			})
			return
		}
		defer sess.Close()

		extractStart := time.Now()
		records, selectorUsed, err := extract.ScrapeRecords(
			c.Request.Context(), sess.Page, req.Selector, newLocator(cfg.Locator))
		extractionMs := time.Since(extractStart).Milliseconds()
		if err != nil {
			respondError(c, categorizeExtractError(err), models.TimingInfo{
				TotalMs:      time.Since(totalStart).Milliseconds(),
				NavigationMs: navigationMs,
				ExtractionMs: extractionMs,
			})
			return
		}

		resp := &models.ScrapeResponse{
			Success:      true,
			Records:      records,
			SelectorUsed: selectorUsed,
			FinalURL:     sess.FinalURL,
			EngineUsed:   sess.Engine,
			Timing: models.TimingInfo{
				TotalMs:      time.Since(totalStart).Milliseconds(),
				NavigationMs: navigationMs,
				ExtractionMs: extractionMs,
			},
		}

		if cc != nil && req.MaxAge > 0 {
			cc.Set(cacheKey, resp)
			resp.CacheStatus = "miss"
		}

		c.JSON(http.StatusOK, resp)
	}
}
