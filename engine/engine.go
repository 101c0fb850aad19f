// Package engine opens pages through competing fetch paths: a lightweight
// static fetch for server-rendered pages and a full browser for everything
// else. The dispatcher races them with staged escalation and remembers per
// domain which path worked.
package engine

import (
	"context"
	"time"

	"github.com/use-agent/harvest/dom"
)

// Fetch modes accepted on requests.
const (
	ModeAuto    = "auto"
	ModeBrowser = "browser"
	ModeStatic  = "static"
)

// Engine opens a page and hands back a live session over it.
type Engine interface {
	// Name returns the engine identifier (e.g. "static", "browser").
	Name() string

	// Open fetches the URL and returns a session whose Page is ready for
	// extraction. The caller owns the session and must Close it.
	Open(ctx context.Context, req *OpenRequest) (*Session, error)
}

// OpenRequest contains everything an engine needs to open a page.
type OpenRequest struct {
	URL          string
	Timeout      time.Duration
	Stealth      bool
	Mode         string
	WaitSelector string
}

// Session is an open page plus the means to release it.
type Session struct {
	Page     dom.Page
	Engine   string
	FinalURL string

	close func()
}

// NewSession wraps a page with its release function. close may be nil when
// the page holds no external resources.
func NewSession(page dom.Page, engine, finalURL string, close func()) *Session {
	return &Session{Page: page, Engine: engine, FinalURL: finalURL, close: close}
}

// Close releases the underlying page. Safe to call on a nil session.
func (s *Session) Close() {
	if s == nil || s.close == nil {
		return
	}
	s.close()
	s.close = nil
}
