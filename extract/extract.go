// Package extract implements the five extraction/selector algorithms:
// structural selector generation, heuristic list discovery, free-form record
// scraping, schema-based item grouping, and list/auto-list scraping.
//
// Everything here runs against the read-only host abstraction in package
// dom. Selectors that match nothing are never faults: they surface as null
// fields or empty results, and only host-level failures (geometry, scroll)
// propagate as errors.
package extract

import (
	"log/slog"

	"github.com/use-agent/harvest/dom"
)

// queryPage runs a document-level query, degrading failures (bad selector,
// detached tree) to an empty match set.
func queryPage(page dom.Page, selector string) []dom.Element {
	els, err := page.Query(selector)
	if err != nil {
		slog.Debug("document query failed", "selector", selector, "error", err)
		return nil
	}
	return els
}

// queryEl runs an element-scoped query with the same degradation.
func queryEl(el dom.Element, selector string) []dom.Element {
	els, err := el.Query(selector)
	if err != nil {
		slog.Debug("element query failed", "selector", selector, "error", err)
		return nil
	}
	return els
}
