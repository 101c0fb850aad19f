package extract

import (
	"context"
	"log/slog"
	"strings"

	"github.com/use-agent/harvest/dom"
	"github.com/use-agent/harvest/models"
)

// ScrapeSchema extracts one record per logical item from a page, given an
// ordered set of labeled field selectors. Items are grouped by clustering
// each seed element under its minimal bounding element; when that leaves
// any field undefined, grouping falls back to zipping the per-field match
// lists by position.
func ScrapeSchema(ctx context.Context, page dom.Page, fields []models.Field) (models.ScrapeResult, error) {
	resolved := make([][]dom.Element, len(fields))
	attrs := make([]models.Attribute, len(fields))
	for i, f := range fields {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		resolved[i] = resolveField(page, f)
		attrs[i] = models.ParseAttribute(f.Attribute)
	}

	// The seed field drives the item count: the field with the most
	// matches, first-declared winning ties.
	seedIdx := 0
	for i := range fields {
		if len(resolved[i]) > len(resolved[seedIdx]) {
			seedIdx = i
		}
	}
	seeds := resolved[seedIdx]
	if len(seeds) == 0 {
		return models.ScrapeResult{}, nil
	}

	result, complete := groupByBoundingElement(page, fields, attrs, resolved, seedIdx)
	if !complete {
		slog.Debug("bounding-element grouping left undefined fields, zipping by position")
		result = zipByPosition(page, fields, attrs, resolved)
	}
	return result, nil
}

// resolveField finds every element a field's selector matches. Shadow-aware
// selectors walk segment by segment: each non-final segment restricts to
// elements exposing an open shadow root and queries the next segment inside
// it; a missing or closed root simply prunes that branch.
func resolveField(page dom.Page, f models.Field) []dom.Element {
	if !f.Shadow || !strings.Contains(f.Selector, dom.ShadowDelim) {
		return queryPage(page, f.Selector)
	}

	segments := dom.SplitShadow(f.Selector)
	if len(segments) == 0 {
		return nil
	}
	current := queryPage(page, segments[0])
	for _, seg := range segments[1:] {
		var next []dom.Element
		for _, el := range current {
			root, ok := el.ShadowRoot()
			if !ok {
				continue
			}
			next = append(next, queryEl(root, seg)...)
		}
		current = next
	}
	return current
}

// groupByBoundingElement builds one record per seed element, assigning each
// other field the first of its matches contained in the seed's minimal
// bounding element. complete is false when any record was left with an
// undefined field.
func groupByBoundingElement(page dom.Page, fields []models.Field, attrs []models.Attribute, resolved [][]dom.Element, seedIdx int) (models.ScrapeResult, bool) {
	seeds := resolved[seedIdx]
	result := make(models.ScrapeResult, 0, len(seeds))

	for _, seed := range seeds {
		mbe := boundingElement(seed, seeds)
		rec := models.Record{}
		rec[fields[seedIdx].Label] = extractValue(page, seed, attrs[seedIdx])

		for i := range fields {
			if i == seedIdx {
				continue
			}
			el := firstContained(mbe, resolved[i])
			if el == nil {
				return nil, false
			}
			rec[fields[i].Label] = extractValue(page, el, attrs[i])
		}
		result = append(result, rec)
	}
	return result, true
}

// boundingElement walks upward from a seed while each ancestor still
// contains exactly one seed, returning the highest such ancestor. This is
// the smallest subtree that can stand for "the item around this seed".
func boundingElement(seed dom.Element, seeds []dom.Element) dom.Element {
	current := seed
	for parent := current.Parent(); parent != nil; parent = parent.Parent() {
		contained := 0
		for _, s := range seeds {
			if dom.Contains(parent, s) {
				contained++
				if contained > 1 {
					break
				}
			}
		}
		if contained != 1 {
			break
		}
		current = parent
	}
	return current
}

func firstContained(ancestor dom.Element, els []dom.Element) dom.Element {
	for _, el := range els {
		if dom.Contains(ancestor, el) {
			return el
		}
	}
	return nil
}

// zipByPosition assembles item i from index i of every field's match list.
// Items with zero populated fields are dropped; short lists surface as nil
// fields, never as faults.
func zipByPosition(page dom.Page, fields []models.Field, attrs []models.Attribute, resolved [][]dom.Element) models.ScrapeResult {
	n := 0
	for _, els := range resolved {
		if len(els) > n {
			n = len(els)
		}
	}

	result := models.ScrapeResult{}
	for i := 0; i < n; i++ {
		rec := models.Record{}
		populated := 0
		for f := range fields {
			if i < len(resolved[f]) {
				rec[fields[f].Label] = extractValue(page, resolved[f][i], attrs[f])
				populated++
			} else {
				rec[fields[f].Label] = nil
			}
		}
		if populated > 0 {
			result = append(result, rec)
		}
	}
	return result
}

// extractValue maps a resolved element to a field value according to the
// configured attribute. href and src resolve to absolute URLs against the
// document location; raw attribute lookups fall back to trimmed text when
// the attribute is absent.
func extractValue(page dom.Page, el dom.Element, attr models.Attribute) any {
	switch attr.Kind {
	case models.AttrInnerText:
		return strings.TrimSpace(el.Text())
	case models.AttrTextContent:
		return strings.TrimSpace(el.TextContent())
	case models.AttrInnerHTML:
		return strings.TrimSpace(el.HTML())
	case models.AttrHref:
		if v, ok := el.Attr("href"); ok {
			return dom.ResolveURL(page, v)
		}
		return nil
	case models.AttrSrc:
		if v, ok := el.Attr("src"); ok {
			return dom.ResolveURL(page, v)
		}
		return nil
	case models.AttrRaw:
		if v, ok := el.Attr(attr.Name); ok {
			return strings.TrimSpace(v)
		}
		return strings.TrimSpace(el.Text())
	default:
		return strings.TrimSpace(el.Text())
	}
}
