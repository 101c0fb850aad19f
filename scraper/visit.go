package scraper

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/use-agent/harvest/engine"
	"github.com/use-agent/harvest/models"
	"github.com/use-agent/harvest/roddom"
)

// Open navigates a pooled browser tab to the requested URL and returns a
// live session over it. Unlike a one-shot fetch, the page stays open until
// the session is closed: extraction needs real geometry, hit-testing and
// scroll, not a rendered-HTML snapshot.
//
// Lifecycle:
//
//  1. Timeout guard        – hard deadline on navigation and waiting
//  2. Acquire page         – borrow a tab from the pool (or create one)
//  3. Stealth injection    – mask navigator.webdriver etc. (before navigation!)
//  4. Hijack mount         – block configured resource types (before navigation!)
//  5. Context binding      – propagate the deadline to all CDP operations
//  6. Navigate + wait      – DOM-stable, then the optional wait selector
//  7. Hand off             – the session's Close does about:blank + pool return
//
// Steps 3-4 must precede step 6: stealth JS and resource blocking only take
// effect for navigations installed before them. Cleanup uses the original
// page reference, without the request context, so it succeeds even after
// the deadline has expired.
func (s *Scraper) Open(ctx context.Context, req *engine.OpenRequest) (*engine.Session, error) {
	timeout := req.Timeout
	if timeout <= 0 || timeout > s.scraperCfg.MaxTimeout {
		timeout = s.scraperCfg.MaxTimeout
	}
	navCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	s.activePages.Add(1)

	page, acquireErr := s.pagePool.Get(func() (*rod.Page, error) {
		return s.browser.Page(proto.TargetCreateTarget{})
	})
	if acquireErr != nil {
		s.activePages.Add(-1)
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to acquire page from pool",
			acquireErr,
		)
	}

	release := func() {
		if navErr := page.Navigate("about:blank"); navErr != nil {
			slog.Warn("cleanup: failed to navigate to about:blank", "error", navErr)
		}
		s.pagePool.Put(page)
		s.activePages.Add(-1)
	}

	if req.Stealth {
		if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
			slog.Warn("stealth injection failed, proceeding without stealth",
				"error", evalErr)
		}
	}

	router := setupHijack(page, s.scraperCfg.BlockedResourceTypes, s.scraperCfg.BlockAds)

	cleanup := func() {
		if router != nil {
			_ = router.Stop()
		}
		release()
	}

	p := page.Context(navCtx)

	if navErr := p.Navigate(req.URL); navErr != nil {
		cleanup()
		return nil, categorizeError(navErr, "navigation to target URL failed")
	}

	if stableErr := p.WaitDOMStable(300*time.Millisecond, 0.1); stableErr != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM",
			"error", stableErr)
	}

	if req.WaitSelector != "" {
		if _, waitErr := p.Element(req.WaitSelector); waitErr != nil {
			cleanup()
			return nil, categorizeError(waitErr, "wait selector never appeared")
		}
	}

	finalURL := evalStringOrEmpty(p, `() => window.location.href`)
	if finalURL == "" {
		finalURL = req.URL
	}

	// The extraction page keeps the request-bound reference so every later
	// CDP call still honors the deadline; cleanup uses the unbound one.
	return engine.NewSession(roddom.Wrap(p), "browser", finalURL, cleanup), nil
}

// evalStringOrEmpty evaluates a JS expression and returns the string result,
// swallowing any errors (useful for optional metadata extraction).
func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// categorizeError wraps raw errors into typed ScrapeErrors so the API layer
// can map them to appropriate HTTP status codes.
func categorizeError(err error, msg string) *models.ScrapeError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "request canceled", err)
	default:
		return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
	}
}
