package extract

import (
	"context"
	"log/slog"

	"github.com/use-agent/harvest/dom"
)

// Scoring metrics for list discovery.
const (
	MetricTotalArea     = "total_area"
	MetricSizeDeviation = "size_deviation"
)

// FallbackSelector is returned when discovery finds no credible candidate.
// Callers should treat results obtained through it as a probable miss.
const FallbackSelector = "html"

// Locator discovers, with no selector input, the structural selector that
// best represents a repeated-item region, by hit-testing a coarse grid of
// viewport coordinates across several scroll positions.
type Locator struct {
	// MaxCountPerPage rejects candidates matching this many elements or
	// more; such selectors tend to match the whole page.
	MaxCountPerPage int
	// MinArea is the minimum rendered area for a match to qualify.
	MinArea float64
	// Scrolls is the number of viewport-height scroll steps sampled.
	Scrolls int
	// GridStep is the spacing between sample points, in pixels.
	GridStep float64
	// Metric is MetricTotalArea or MetricSizeDeviation.
	Metric string
}

// NewLocator returns a Locator with the default tuning.
func NewLocator() *Locator {
	return &Locator{
		MaxCountPerPage: 50,
		MinArea:         20000,
		Scrolls:         3,
		GridStep:        100,
		Metric:          MetricSizeDeviation,
	}
}

type candidate struct {
	selector string
	matches  []dom.Element
	score    float64
}

// Discover samples the page and returns the winning selector together with
// the elements it stands for, generalized up to the repeating container.
// When nothing scores, it returns FallbackSelector and its matches.
//
// Discover mutates the scroll position while sampling and restores it on
// every exit path; it must not run concurrently with other scroll-sensitive
// work on the same page.
func (l *Locator) Discover(ctx context.Context, page dom.Page) (string, []dom.Element, error) {
	_, viewportH, err := page.Viewport()
	if err != nil {
		return "", nil, err
	}
	origX, origY, err := page.ScrollOffset()
	if err != nil {
		return "", nil, err
	}
	defer func() {
		if err := page.ScrollTo(origX, origY); err != nil {
			slog.Debug("scroll restore failed", "error", err)
		}
	}()

	seen := make(map[string]bool)
	var best *candidate

	for i := 0; i < l.Scrolls; i++ {
		if err := ctx.Err(); err != nil {
			return "", nil, err
		}
		if err := page.ScrollTo(0, float64(i)*viewportH); err != nil {
			return "", nil, err
		}

		if err := l.sampleViewport(page, seen, &best); err != nil {
			return "", nil, err
		}
	}

	if best == nil {
		slog.Debug("list discovery found no candidate, falling back",
			"selector", FallbackSelector)
		return FallbackSelector, queryPage(page, FallbackSelector), nil
	}

	selector, matches := liftToSharedParent(best.selector, best.matches)
	slog.Debug("list discovered",
		"selector", selector, "matches", len(matches), "score", best.score)
	return selector, matches, nil
}

// sampleViewport hit-tests a uniform grid over the current viewport and
// scores the structural selector of every element hit.
func (l *Locator) sampleViewport(page dom.Page, seen map[string]bool, best **candidate) error {
	viewportW, viewportH, err := page.Viewport()
	if err != nil {
		return err
	}

	for y := l.GridStep / 2; y < viewportH; y += l.GridStep {
		for x := l.GridStep / 2; x < viewportW; x += l.GridStep {
			el, err := page.ElementFromPoint(x, y)
			if err != nil {
				return err
			}
			if el == nil {
				continue
			}

			selector := StructuralSelector(el)
			if seen[selector] {
				continue
			}
			seen[selector] = true

			if c := l.evaluate(page, selector); c != nil {
				if *best == nil || c.score > (*best).score {
					*best = c
				}
			}
		}
	}
	return nil
}

// evaluate scores one candidate selector, or returns nil when it is too
// sparse to be a list or broad enough to be the whole page.
func (l *Locator) evaluate(page dom.Page, selector string) *candidate {
	var qualified []dom.Element
	for _, m := range queryPage(page, selector) {
		if m.Box().Area() > l.MinArea {
			qualified = append(qualified, m)
		}
	}
	if len(qualified) < 3 || len(qualified) >= l.MaxCountPerPage {
		return nil
	}

	score := l.score(qualified)
	if score <= 0 {
		return nil
	}
	return &candidate{selector: selector, matches: qualified, score: score}
}

func (l *Locator) score(matches []dom.Element) float64 {
	switch l.Metric {
	case MetricTotalArea:
		var total float64
		for _, m := range matches {
			total += m.Box().Area()
		}
		return total
	default: // MetricSizeDeviation
		minA, maxA := matches[0].Box().Area(), matches[0].Box().Area()
		for _, m := range matches[1:] {
			a := m.Box().Area()
			if a < minA {
				minA = a
			}
			if a > maxA {
				maxA = a
			}
		}
		if maxA == 0 {
			return 0
		}
		return 1 - (maxA-minA)/maxA
	}
}

// liftToSharedParent generalizes a matched set upward: while no two elements
// share a parent, every element is replaced by its parent. The walk stops
// the instant two elements would collapse onto the same parent, so the
// selection reaches the true repeating container without merging distinct
// items.
func liftToSharedParent(selector string, matches []dom.Element) (string, []dom.Element) {
	current := matches
	for {
		parents := make([]dom.Element, 0, len(current))
		ids := make(map[string]bool, len(current))
		for _, el := range current {
			p := el.Parent()
			if p == nil || ids[p.NodeID()] {
				return selectorFor(selector, current), current
			}
			ids[p.NodeID()] = true
			parents = append(parents, p)
		}
		current = parents
	}
}

func selectorFor(fallback string, els []dom.Element) string {
	if len(els) == 0 {
		return fallback
	}
	return StructuralSelector(els[0])
}
