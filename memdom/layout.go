package memdom

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/use-agent/harvest/dom"
)

// The layout model is intentionally crude: every element is a block laid out
// top-to-bottom, sized by explicit width/height attributes or inline px
// styles, else by its content. It is deterministic, which is what the
// heuristic locator needs from a static host; it is not a renderer.

const lineHeight = 16

type rect struct {
	x, y, w, h float64
}

func (r rect) contains(px, py float64) bool {
	return px >= r.x && px < r.x+r.w && py >= r.y && py < r.y+r.h
}

// reflow computes a rect for every element under <body>.
func (p *Page) reflow() {
	p.boxes = make(map[*html.Node]rect)
	body := findNode(p.doc, "body")
	if body == nil {
		return
	}
	p.layoutNode(body, 0, 0, p.viewportW)
}

// layoutNode assigns n a rect at (x, y) and returns its height.
func (p *Page) layoutNode(n *html.Node, x, y, availW float64) float64 {
	w, hasW := explicitPx(n, "width")
	h, hasH := explicitPx(n, "height")
	if !hasW {
		w = availW
	}

	childY := y
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || isShadowTemplate(c) || skipTags[c.Data] {
			continue
		}
		childY += p.layoutNode(c, x, childY, w)
	}
	contentH := childY - y

	if lines := directTextLines(n); lines > 0 {
		contentH += float64(lines) * lineHeight
	}
	if !hasH {
		h = contentH
	}

	p.boxes[n] = rect{x: x, y: y, w: w, h: h}
	return h
}

// ElementFromPoint hit-tests the deepest laid-out element containing the
// viewport point; among equally deep candidates the later one in document
// order wins, matching paint order for overlapping siblings.
func (p *Page) ElementFromPoint(x, y float64) (dom.Element, error) {
	px, py := x+p.scrollX, y+p.scrollY

	var best *html.Node
	bestDepth := -1

	var walk func(n *html.Node, depth int)
	walk = func(n *html.Node, depth int) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode || isShadowTemplate(c) {
				continue
			}
			if r, ok := p.boxes[c]; ok && r.contains(px, py) && depth >= bestDepth {
				best = c
				bestDepth = depth
			}
			walk(c, depth+1)
		}
	}
	walk(p.doc, 0)

	if best == nil {
		return nil, nil
	}
	return p.elem(best), nil
}

// explicitPx reads a dimension from an attribute ("300") or from the inline
// style ("width: 300px").
func explicitPx(n *html.Node, dim string) (float64, bool) {
	if v, ok := nodeAttr(n, dim); ok {
		if f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(v), "px"), 64); err == nil {
			return f, true
		}
	}
	style, ok := nodeAttr(n, "style")
	if !ok {
		return 0, false
	}
	for _, decl := range strings.Split(style, ";") {
		k, v, found := strings.Cut(decl, ":")
		if !found || strings.TrimSpace(k) != dim {
			continue
		}
		v = strings.TrimSpace(v)
		if !strings.HasSuffix(v, "px") {
			continue
		}
		if f, err := strconv.ParseFloat(strings.TrimSuffix(v, "px"), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

// directTextLines counts the non-empty text-node children of n.
func directTextLines(n *html.Node) int {
	lines := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode && strings.TrimSpace(c.Data) != "" {
			lines++
		}
	}
	return lines
}

// findNode returns the first element with the given tag, in document order.
func findNode(root *html.Node, tag string) *html.Node {
	var found *html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode && n.Data == tag {
			found = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return found
}
