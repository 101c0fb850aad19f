package extract

import (
	"context"
	"log/slog"
	"strings"

	"github.com/use-agent/harvest/dom"
	"github.com/use-agent/harvest/models"
)

// DefaultListLimit bounds list extraction when the caller gives no limit.
const DefaultListLimit = 10

// ClassSimilarity is the fraction of a template's class tokens a sibling
// must share to be accepted by the under-match fallback. Heuristic constant;
// tuned against real listing pages.
const ClassSimilarity = 0.7

// ScrapeList iterates a list-item selector and extracts the given fields
// from each accepted container, stopping at limit. The list selector may
// descend into shadow roots with the shadow delimiter; when it resolves to
// at most one container but more were requested, similar class siblings of
// that match become the containers instead. A similarity outside (0, 1]
// falls back to ClassSimilarity.
func ScrapeList(ctx context.Context, page dom.Page, listSelector string, fields []models.Field, limit int, similarity float64) (models.ScrapeResult, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if similarity <= 0 || similarity > 1 {
		similarity = ClassSimilarity
	}

	containers := resolveContainers(page, listSelector)
	if limit > 1 && len(containers) <= 1 {
		containers = similarSiblings(page, listSelector, containers, similarity)
	}
	if len(containers) == 0 {
		return models.ScrapeResult{}, nil
	}

	attrs := make([]models.Attribute, len(fields))
	for i, f := range fields {
		attrs[i] = models.ParseAttribute(f.Attribute)
	}

	result := models.ScrapeResult{}
	for _, container := range containers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rec := models.Record{}
		populated := 0
		for i, f := range fields {
			el := firstFieldMatch(container, f)
			if el == nil {
				rec[f.Label] = nil
				continue
			}
			rec[f.Label] = extractValue(page, el, attrs[i])
			populated++
		}
		if populated == 0 {
			continue
		}

		result = append(result, rec)
		if len(result) >= limit {
			break
		}
	}
	return result, nil
}

// resolveContainers walks the list selector segment by segment. Every
// segment is answered by the shadow union of the current elements: the
// element's own subtree, its own open shadow root, and each child's open
// shadow root.
func resolveContainers(page dom.Page, listSelector string) []dom.Element {
	segments := dom.SplitShadow(listSelector)
	if len(segments) == 0 {
		return nil
	}

	current := queryPage(page, segments[0])
	for _, seg := range segments[1:] {
		var next []dom.Element
		for _, el := range current {
			next = append(next, queryShadowUnion(el, seg)...)
		}
		current = next
	}
	return current
}

// queryShadowUnion matches a selector segment under an element, its open
// shadow root, and the open shadow roots of its direct children.
func queryShadowUnion(el dom.Element, selector string) []dom.Element {
	out := queryEl(el, selector)
	if root, ok := el.ShadowRoot(); ok {
		out = append(out, queryEl(root, selector)...)
	}
	for _, child := range el.Children() {
		if root, ok := child.ShadowRoot(); ok {
			out = append(out, queryEl(root, selector)...)
		}
	}
	return out
}

// firstFieldMatch resolves a field inside one container using only the
// final segment of its selector; the container already stands for all the
// leading segments.
func firstFieldMatch(container dom.Element, f models.Field) dom.Element {
	segments := dom.SplitShadow(f.Selector)
	if len(segments) == 0 {
		return nil
	}
	matches := queryShadowUnion(container, segments[len(segments)-1])
	if len(matches) == 0 {
		return nil
	}
	return matches[0]
}

// similarSiblings widens an under-matched list selector: the first literal
// match becomes a template, and the candidate containers are the other
// direct children of its parent that share the required fraction of its
// class tokens (rounded down). The template itself is not a candidate; when
// no sibling qualifies, the literal matches stand.
func similarSiblings(page dom.Page, listSelector string, matched []dom.Element, similarity float64) []dom.Element {
	var template dom.Element
	if len(matched) > 0 {
		template = matched[0]
	} else {
		return matched
	}

	parent := containerParent(page, listSelector, template)
	if parent == nil {
		return matched
	}

	tmplTokens := classTokens(template)
	if len(tmplTokens) == 0 {
		return matched
	}
	needed := int(similarity * float64(len(tmplTokens)))
	if needed < 1 {
		needed = 1
	}

	var accepted []dom.Element
	for _, child := range parent.Children() {
		if dom.SameNode(child, template) {
			continue
		}
		if sharedTokens(tmplTokens, classTokens(child)) >= needed {
			accepted = append(accepted, child)
		}
	}
	if len(accepted) == 0 {
		return matched
	}
	slog.Debug("list selector under-matched, widened by class similarity",
		"selector", listSelector, "containers", len(accepted))
	return accepted
}

// containerParent resolves the element whose children are candidate
// containers: the leading part of the selector when it has one, else the
// template's own parent.
func containerParent(page dom.Page, listSelector string, template dom.Element) dom.Element {
	segments := dom.SplitShadow(listSelector)
	last := segments[len(segments)-1]
	if i := strings.LastIndex(last, ">"); i >= 0 {
		parents := queryPage(page, strings.TrimSpace(last[:i]))
		if len(parents) > 0 {
			return parents[0]
		}
		return nil
	}
	return template.Parent()
}

func classTokens(el dom.Element) []string {
	cls, _ := el.Attr("class")
	return strings.Fields(cls)
}

func sharedTokens(a, b []string) int {
	set := make(map[string]bool, len(b))
	for _, t := range b {
		set[t] = true
	}
	n := 0
	for _, t := range a {
		if set[t] {
			n++
		}
	}
	return n
}
