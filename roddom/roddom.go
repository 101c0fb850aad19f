// Package roddom implements the dom host interfaces over a live rod page.
// Geometry, scroll state and hit-testing come from the real renderer via
// CDP; accessors are best-effort and degrade to zero values, matching the
// read-only contract of package dom.
package roddom

import (
	"log/slog"
	"net/url"
	"strconv"

	"github.com/go-rod/rod"
	"github.com/ysmood/gson"

	"github.com/use-agent/harvest/dom"
)

// Page wraps a rod page. The rod page should already be bound to the
// request context (page.Context) so every CDP call inherits the deadline.
type Page struct {
	p *rod.Page
}

// Wrap adapts a rod page to dom.Page.
func Wrap(p *rod.Page) *Page {
	return &Page{p: p}
}

// Rod exposes the underlying page for host-level operations outside the
// extraction engine (navigation, cleanup).
func (pg *Page) Rod() *rod.Page { return pg.p }

func (pg *Page) Query(selector string) ([]dom.Element, error) {
	els, err := pg.p.Elements(selector)
	if err != nil {
		return nil, err
	}
	out := make([]dom.Element, 0, len(els))
	for _, el := range els {
		out = append(out, &element{pg: pg, el: el})
	}
	return out, nil
}

// ElementFromPoint hit-tests a viewport coordinate. A point over no element
// (or over a closed frame) is a miss, not a fault.
func (pg *Page) ElementFromPoint(x, y float64) (dom.Element, error) {
	el, err := pg.p.ElementFromPoint(int(x), int(y))
	if err != nil {
		slog.Debug("hit-test missed", "x", x, "y", y, "error", err)
		return nil, nil
	}
	if el == nil {
		return nil, nil
	}
	return &element{pg: pg, el: el}, nil
}

func (pg *Page) Viewport() (float64, float64, error) {
	res, err := pg.p.Eval(`() => [window.innerWidth, window.innerHeight]`)
	if err != nil {
		return 0, 0, err
	}
	x, y := numPair(res.Value)
	return x, y, nil
}

func (pg *Page) ScrollOffset() (float64, float64, error) {
	res, err := pg.p.Eval(`() => [window.scrollX, window.scrollY]`)
	if err != nil {
		return 0, 0, err
	}
	x, y := numPair(res.Value)
	return x, y, nil
}

// numPair decodes a two-element JS number array; anything else is zeroes.
func numPair(v gson.JSON) (float64, float64) {
	arr := v.Arr()
	if len(arr) != 2 {
		return 0, 0
	}
	return arr[0].Num(), arr[1].Num()
}

func (pg *Page) ScrollTo(x, y float64) error {
	_, err := pg.p.Eval(`(x, y) => window.scrollTo(x, y)`, x, y)
	return err
}

func (pg *Page) Location() *url.URL {
	res, err := pg.p.Eval(`() => window.location.href`)
	if err != nil {
		return nil
	}
	u, err := url.Parse(res.Value.Str())
	if err != nil {
		return nil
	}
	return u
}

// element adapts a rod element. All accessors are best-effort: a node that
// detaches mid-read yields zero values rather than a fault, and only Query
// reports errors.
type element struct {
	pg *Page
	el *rod.Element
}

func (e *element) Tag() string {
	return e.evalStr(`() => this.tagName.toLowerCase()`)
}

func (e *element) Parent() dom.Element {
	parent, err := e.el.Parent()
	if err != nil || parent == nil {
		return nil
	}
	// The document node reports no tag; treat it as the top.
	if tag := (&element{pg: e.pg, el: parent}).Tag(); tag == "" {
		return nil
	}
	return &element{pg: e.pg, el: parent}
}

func (e *element) Children() []dom.Element {
	els, err := e.el.Elements(":scope > *")
	if err != nil {
		return nil
	}
	out := make([]dom.Element, 0, len(els))
	for _, el := range els {
		out = append(out, &element{pg: e.pg, el: el})
	}
	return out
}

func (e *element) Attr(name string) (string, bool) {
	v, err := e.el.Attribute(name)
	if err != nil || v == nil {
		return "", false
	}
	return *v, true
}

func (e *element) Box() dom.Box {
	shape, err := e.el.Shape()
	if err != nil || len(shape.Quads) == 0 {
		return dom.Box{}
	}
	box := shape.Box()
	return dom.Box{Width: box.Width, Height: box.Height}
}

func (e *element) Text() string {
	text, err := e.el.Text()
	if err != nil {
		return ""
	}
	return text
}

func (e *element) TextContent() string {
	return e.evalStr(`() => this.textContent || ""`)
}

func (e *element) HTML() string {
	return e.evalStr(`() => this.innerHTML`)
}

func (e *element) ShadowRoot() (dom.Element, bool) {
	root, err := e.el.ShadowRoot()
	if err != nil || root == nil {
		return nil, false
	}
	return &element{pg: e.pg, el: root}, true
}

func (e *element) Query(selector string) ([]dom.Element, error) {
	els, err := e.el.Elements(selector)
	if err != nil {
		return nil, err
	}
	out := make([]dom.Element, 0, len(els))
	for _, el := range els {
		out = append(out, &element{pg: e.pg, el: el})
	}
	return out, nil
}

// NodeID returns the CDP backend node id, which is stable for the lifetime
// of the document and shared by every handle to the same node.
func (e *element) NodeID() string {
	node, err := e.el.Describe(0, false)
	if err != nil {
		return ""
	}
	return strconv.Itoa(int(node.BackendNodeID))
}

func (e *element) evalStr(js string) string {
	res, err := e.el.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}
