// Package handler implements the HTTP entry points: free-form scrape,
// schema scrape, list scrape and auto-list, plus health.
package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/harvest/config"
	"github.com/use-agent/harvest/engine"
	"github.com/use-agent/harvest/extract"
	"github.com/use-agent/harvest/models"
)

// openSession runs the engine dispatch for a page request and returns the
// live session. The caller must Close it.
func openSession(ctx context.Context, d *engine.Dispatcher, pr *models.PageRequest) (*engine.Session, error) {
	req := &engine.OpenRequest{
		URL:          pr.URL,
		Timeout:      time.Duration(pr.Timeout) * time.Second,
		Stealth:      pr.Stealth,
		Mode:         pr.FetchMode,
		WaitSelector: pr.WaitSelector,
	}
	openCtx, cancel := context.WithTimeout(ctx, req.Timeout)
	defer cancel()

	sess, err := d.Open(openCtx, req)
	if err != nil {
		return nil, categorizeOpenError(err)
	}
	return sess, nil
}

// newLocator builds a heuristic locator from the service configuration.
func newLocator(cfg config.LocatorConfig) *extract.Locator {
	return &extract.Locator{
		MaxCountPerPage: cfg.MaxCountPerPage,
		MinArea:         cfg.MinArea,
		Scrolls:         cfg.Scrolls,
		GridStep:        cfg.GridStep,
		Metric:          cfg.Metric,
	}
}

// categorizeOpenError types an engine failure for status mapping, keeping
// already-typed errors as they are.
func categorizeOpenError(err error) error {
	var scrapeErr *models.ScrapeError
	if errors.As(err, &scrapeErr) {
		return scrapeErr
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return models.NewScrapeError(models.ErrCodeTimeout, "page open timed out", err)
	}
	return models.NewScrapeError(models.ErrCodeNavigation, "all fetch engines failed", err)
}

// categorizeExtractError types a failure raised during extraction, which
// can only be a deadline or a host-tree fault.
func categorizeExtractError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return models.NewScrapeError(models.ErrCodeTimeout, "extraction timed out", err)
	}
	return models.NewScrapeError(models.ErrCodeHostFault, "host tree fault during extraction", err)
}

// bindError writes a 400 for a malformed request body.
func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, models.ScrapeResponse{
		Success: false,
		Error: &models.ErrorDetail{
			Code:    models.ErrCodeInvalidInput,
			Message: err.Error(),
		},
	})
}

// respondError maps a ScrapeError to the correct HTTP status code and
// writes a structured JSON error response.
func respondError(c *gin.Context, err error, timing models.TimingInfo) {
	scrapeErr, ok := err.(*models.ScrapeError)
	if !ok {
		scrapeErr = models.NewScrapeError(models.ErrCodeInternal, err.Error(), err)
	}

	c.JSON(mapErrorToStatus(scrapeErr), models.ScrapeResponse{
		Success: false,
		Error:   scrapeErr.ToDetail(),
		Timing:  timing,
	})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.ScrapeError) int {
	switch e.Code {
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeNavigation, models.ErrCodeHostFault:
		return http.StatusBadGateway // 502
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	default:
		return http.StatusInternalServerError // 500
	}
}
