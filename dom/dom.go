// Package dom defines the host document-tree abstraction the extraction
// engine runs against. The engine never mutates tree content; every method
// here is a read.
//
// Two implementations exist: roddom (a live browser page over CDP) and
// memdom (a parsed static document with a deterministic layout model).
package dom

import (
	"net/url"
	"strings"
)

// ShadowDelim marks a selector boundary that resolves inside an open shadow
// root. Structural selectors join segments with " > " (spaced), so the bare
// double ">>" never occurs in them by accident.
const ShadowDelim = ">>"

// Box is a rendered box size in CSS pixels.
type Box struct {
	Width  float64
	Height float64
}

// Area returns the rendered area of the box.
func (b Box) Area() float64 { return b.Width * b.Height }

// Element is an opaque read-only reference to a node in the host document
// tree. Accessors are best-effort: on a host-level fault they return zero
// values rather than failing, so that a detached node degrades to a
// resolution miss instead of aborting a whole extraction pass.
type Element interface {
	// Tag returns the lowercase tag name.
	Tag() string

	// Parent returns the parent element, or nil at the content root.
	// The reference is non-owning; the host tree guarantees a single parent.
	Parent() Element

	// Children returns the direct element children in document order.
	Children() []Element

	// Attr looks up an attribute by name.
	Attr(name string) (string, bool)

	// Box reports the rendered box size; zero when the element is not
	// rendered.
	Box() Box

	// Text returns the rendered text, with line breaks between blocks.
	Text() string

	// TextContent returns the raw concatenated text content.
	TextContent() string

	// HTML returns the element's inner HTML.
	HTML() string

	// ShadowRoot returns the element's open shadow root. A closed or
	// absent shadow root reports false.
	ShadowRoot() (Element, bool)

	// Query returns the descendants matching the CSS selector.
	Query(selector string) ([]Element, error)

	// NodeID returns an identity that is stable for the lifetime of the
	// page and equal for every handle referring to the same node.
	NodeID() string
}

// Page is the host API surface for a single rendered document.
type Page interface {
	// Query returns all elements in the document matching the selector.
	Query(selector string) ([]Element, error)

	// ElementFromPoint hit-tests the topmost element at the given
	// viewport coordinates. A miss returns (nil, nil).
	ElementFromPoint(x, y float64) (Element, error)

	// Viewport returns the viewport size in CSS pixels.
	Viewport() (width, height float64, err error)

	// ScrollOffset returns the current scroll position.
	ScrollOffset() (x, y float64, err error)

	// ScrollTo sets the scroll position.
	ScrollTo(x, y float64) error

	// Location returns the document location, or nil when unknown.
	// Used to resolve relative href/src values.
	Location() *url.URL
}

// SplitShadow splits a selector on the shadow-descend delimiter and trims
// each segment. A selector without the delimiter yields a single segment.
func SplitShadow(selector string) []string {
	parts := strings.Split(selector, ShadowDelim)
	segs := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

// SameNode reports whether two handles refer to the same node.
func SameNode(a, b Element) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.NodeID() == b.NodeID()
}

// Contains reports whether el is ancestor itself or one of its descendants.
func Contains(ancestor, el Element) bool {
	if ancestor == nil || el == nil {
		return false
	}
	id := ancestor.NodeID()
	for cur := el; cur != nil; cur = cur.Parent() {
		if cur.NodeID() == id {
			return true
		}
	}
	return false
}

// ResolveURL resolves a possibly-relative reference against the page
// location. When the page has no location, the reference is returned as-is.
func ResolveURL(page Page, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	base := page.Location()
	if base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}
