package engine

import (
	"context"
	"fmt"
)

// BrowserOpenFunc wraps the rod-based scraper's open logic. It is injected
// from main.go to avoid a circular import (engine/ -> scraper/).
type BrowserOpenFunc func(ctx context.Context, req *OpenRequest) (*Session, error)

// BrowserEngine renders pages in a real browser by delegating to the
// scraper via a callback. forceStealth distinguishes the plain browser
// stage from the stealth escalation stage.
type BrowserEngine struct {
	openFunc     BrowserOpenFunc
	forceStealth bool
	name         string
}

// NewBrowserEngine creates a BrowserEngine.
//   - openFunc: callback that opens a page through the rod scraper
//     (injected from main.go).
//   - forceStealth: when true, the engine always sets Stealth on requests.
func NewBrowserEngine(openFunc BrowserOpenFunc, forceStealth bool) *BrowserEngine {
	name := "browser"
	if forceStealth {
		name = "browser-stealth"
	}
	return &BrowserEngine{
		openFunc:     openFunc,
		forceStealth: forceStealth,
		name:         name,
	}
}

func (e *BrowserEngine) Name() string { return e.name }

func (e *BrowserEngine) Open(ctx context.Context, req *OpenRequest) (*Session, error) {
	if e.openFunc == nil {
		return nil, fmt.Errorf("%s: openFunc not configured", e.name)
	}

	// Clone the request so we don't mutate the caller's copy.
	r := *req
	if e.forceStealth {
		r.Stealth = true
	}

	sess, err := e.openFunc(ctx, &r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.name, err)
	}
	sess.Engine = e.name
	return sess, nil
}
