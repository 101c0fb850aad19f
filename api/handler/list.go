package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/harvest/cache"
	"github.com/use-agent/harvest/config"
	"github.com/use-agent/harvest/engine"
	"github.com/use-agent/harvest/extract"
	"github.com/use-agent/harvest/models"
)

// List returns a handler for POST /api/v1/list.
//
// List extraction: iterate the containers the list selector resolves to
// (widening by class similarity when it under-matches) and pull the given
// fields out of each, up to the requested limit.
func List(d *engine.Dispatcher, cfg *config.Config, cc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		var req models.ListRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
		req.Defaults()
		if req.Limit <= 0 {
			req.Limit = cfg.List.DefaultLimit
		}

		params, _ := json.Marshal(struct {
			Selector string         `json:"selector"`
			Fields   []models.Field `json:"fields"`
			Limit    int            `json:"limit"`
		}{req.ListSelector, req.Fields, req.Limit})
		cacheKey := cache.Key(req.URL, "list", cache.Digest(params))
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
		records, err := extract.ScrapeList(
			c.Request.Context(), sess.Page, req.ListSelector, req.Fields, req.Limit,
			cfg.List.ClassSimilarity)
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
			SelectorUsed: req.ListSelector,
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
