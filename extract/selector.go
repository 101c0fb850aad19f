package extract

import (
	"slices"
	"strings"

	"github.com/use-agent/harvest/dom"
)

// StructuralSelector builds a tag-ancestry selector for el: the tag names
// from the content root down to el, joined by the child combinator.
//
// No id or class ever appears. The selector describes shape, so it matches
// every sibling of the same shape — that ambiguity is what the heuristic
// locator and record extractor rely on to find "all the items like this
// one".
func StructuralSelector(el dom.Element) string {
	var parts []string
	for cur := el; cur != nil; cur = cur.Parent() {
		tag := cur.Tag()
		if tag == "" {
			break
		}
		parts = append(parts, tag)
		if tag == "html" {
			break
		}
	}
	slices.Reverse(parts)
	return strings.Join(parts, " > ")
}
