package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/harvest/engine"
	"github.com/use-agent/harvest/extract"
	"github.com/use-agent/harvest/models"
)

// AutoList returns a handler for POST /api/v1/autolist.
//
// Schema-authoring aid: every direct child of the matched containers comes
// back with an ad-hoc selector and its text, so a caller can see what a
// list region holds before writing field selectors. Responses are never
// cached; the output is a sampling tool, not a result set.
func AutoList(d *engine.Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		var req models.AutoListRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
		req.Defaults()

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

		entries, err := extract.ScrapeAutoList(c.Request.Context(), sess.Page, req.Selector)
		if err != nil {
			respondError(c, categorizeExtractError(err), models.TimingInfo{
				TotalMs:      time.Since(totalStart).Milliseconds(),
				NavigationMs: navigationMs,
			})
			return
		}

		c.JSON(http.StatusOK, models.AutoListResponse{
			Success:  true,
			Entries:  entries,
			FinalURL: sess.FinalURL,
			Timing: models.TimingInfo{
				TotalMs:      time.Since(totalStart).Milliseconds(),
				NavigationMs: navigationMs,
			},
		})
	}
}
