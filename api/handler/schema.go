package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/harvest/cache"
	"github.com/use-agent/harvest/engine"
	"github.com/use-agent/harvest/extract"
	"github.com/use-agent/harvest/models"
)

// Schema returns a handler for POST /api/v1/schema.
//
// Schema extraction: the ordered field selectors are resolved against the
// page (descending into open shadow roots where marked) and grouped into
// one record per logical item.
func Schema(d *engine.Dispatcher, cc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		var req models.SchemaRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
		req.Defaults()

		params, _ := json.Marshal(req.Fields)
		cacheKey := cache.Key(req.URL, "schema", cache.Digest(params))
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
		records, err := extract.ScrapeSchema(c.Request.Context(), sess.Page, req.Fields)
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
			Success:    true,
			Records:    records,
			FinalURL:   sess.FinalURL,
			EngineUsed: sess.Engine,
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
