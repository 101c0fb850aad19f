// Package memdom implements the dom host interfaces over a parsed static
// HTML document. It backs the static fetch path (no browser, no JS) and the
// extraction test fixtures.
//
// Geometry comes from a deterministic block-layout model (see layout.go)
// rather than a real renderer, and shadow trees are read from declarative
// shadow DOM (<template shadowrootmode="open">).
package memdom

import (
	"bytes"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/use-agent/harvest/dom"
)

const (
	defaultViewportW = 1280
	defaultViewportH = 720
)

// Page is a static document implementing dom.Page.
type Page struct {
	doc  *html.Node
	base *url.URL

	viewportW float64
	viewportH float64
	scrollX   float64
	scrollY   float64

	els   map[*html.Node]*element
	seq   int
	boxes map[*html.Node]rect
}

// Option configures a Page at load time.
type Option func(*Page)

// WithBaseURL sets the document location used for relative URL resolution.
func WithBaseURL(raw string) Option {
	return func(p *Page) {
		if u, err := url.Parse(raw); err == nil {
			p.base = u
		}
	}
}

// WithViewport overrides the default 1280x720 viewport.
func WithViewport(w, h float64) Option {
	return func(p *Page) {
		p.viewportW = w
		p.viewportH = h
	}
}

// Load parses src and lays it out.
func Load(src string, opts ...Option) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		return nil, err
	}

	p := &Page{
		doc:       doc.Nodes[0],
		viewportW: defaultViewportW,
		viewportH: defaultViewportH,
		els:       make(map[*html.Node]*element),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.reflow()
	return p, nil
}

// Query returns all elements in the document matching the selector.
func (p *Page) Query(selector string) ([]dom.Element, error) {
	sel, err := cascadia.Parse(selector)
	if err != nil {
		return nil, err
	}
	var out []dom.Element
	walkLight(p.doc, func(n *html.Node) {
		if sel.Match(n) {
			out = append(out, p.elem(n))
		}
	})
	return out, nil
}

// Viewport returns the configured viewport size.
func (p *Page) Viewport() (float64, float64, error) {
	return p.viewportW, p.viewportH, nil
}

// ScrollOffset returns the virtual scroll position.
func (p *Page) ScrollOffset() (float64, float64, error) {
	return p.scrollX, p.scrollY, nil
}

// ScrollTo sets the virtual scroll position.
func (p *Page) ScrollTo(x, y float64) error {
	p.scrollX, p.scrollY = x, y
	return nil
}

// Location returns the base URL, or nil when none was configured.
func (p *Page) Location() *url.URL { return p.base }

// elem returns the canonical handle for a node, so that NodeID is stable
// across repeated queries.
func (p *Page) elem(n *html.Node) *element {
	if e, ok := p.els[n]; ok {
		return e
	}
	p.seq++
	e := &element{pg: p, n: n, id: strconv.Itoa(p.seq)}
	p.els[n] = e
	return e
}

// element implements dom.Element for a parsed node.
type element struct {
	pg *Page
	n  *html.Node
	id string
}

func (e *element) Tag() string { return e.n.Data }

func (e *element) Parent() dom.Element {
	par := e.n.Parent
	if par == nil || par.Type != html.ElementNode || isShadowTemplate(par) {
		return nil
	}
	return e.pg.elem(par)
}

func (e *element) Children() []dom.Element {
	var out []dom.Element
	for c := e.n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && !isShadowTemplate(c) {
			out = append(out, e.pg.elem(c))
		}
	}
	return out
}

func (e *element) Attr(name string) (string, bool) {
	for _, a := range e.n.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func (e *element) Box() dom.Box {
	r, ok := e.pg.boxes[e.n]
	if !ok {
		return dom.Box{}
	}
	return dom.Box{Width: r.w, Height: r.h}
}

func (e *element) Text() string { return renderedText(e.n) }

func (e *element) TextContent() string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if isShadowTemplate(c) {
				continue
			}
			if c.Type == html.TextNode {
				sb.WriteString(c.Data)
			}
			walk(c)
		}
	}
	walk(e.n)
	return sb.String()
}

func (e *element) HTML() string {
	var buf bytes.Buffer
	for c := e.n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return ""
		}
	}
	return buf.String()
}

func (e *element) ShadowRoot() (dom.Element, bool) {
	for c := e.n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "template" {
			if mode, ok := nodeAttr(c, "shadowrootmode"); ok && mode == "open" {
				return e.pg.elem(c), true
			}
		}
	}
	return nil, false
}

func (e *element) Query(selector string) ([]dom.Element, error) {
	sel, err := cascadia.Parse(selector)
	if err != nil {
		return nil, err
	}
	var out []dom.Element
	walkLight(e.n, func(n *html.Node) {
		if sel.Match(n) {
			out = append(out, e.pg.elem(n))
		}
	})
	return out, nil
}

func (e *element) NodeID() string { return e.id }

// walkLight visits every element node below n in document order, without
// crossing into declarative shadow trees. Called on a shadow-root template
// itself, it visits the shadow tree.
func walkLight(n *html.Node, fn func(*html.Node)) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if isShadowTemplate(c) {
			continue
		}
		if c.Type == html.ElementNode {
			fn(c)
		}
		walkLight(c, fn)
	}
}

// isShadowTemplate reports whether n is a declarative shadow-root template.
func isShadowTemplate(n *html.Node) bool {
	if n.Type != html.ElementNode || n.Data != "template" {
		return false
	}
	_, ok := nodeAttr(n, "shadowrootmode")
	return ok
}

func nodeAttr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// blockTags force line breaks in rendered text and vertical stacking in the
// layout model.
var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"div": true, "dl": true, "dt": true, "dd": true, "fieldset": true,
	"figcaption": true, "figure": true, "footer": true, "form": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "main": true, "nav": true,
	"ol": true, "p": true, "pre": true, "section": true, "table": true,
	"tr": true, "ul": true, "body": true,
}

var skipTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "head": true,
}

// renderedText approximates innerText: block boundaries and <br> become
// newlines, whitespace runs inside text nodes collapse to single spaces.
func renderedText(root *html.Node) string {
	var sb strings.Builder

	newline := func() {
		s := sb.String()
		if s != "" && !strings.HasSuffix(s, "\n") {
			sb.WriteByte('\n')
		}
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case html.TextNode:
				if t := collapseSpace(c.Data); t != "" {
					sb.WriteString(t)
				}
			case html.ElementNode:
				if skipTags[c.Data] || isShadowTemplate(c) {
					continue
				}
				if c.Data == "br" {
					sb.WriteByte('\n')
					continue
				}
				block := blockTags[c.Data]
				if block {
					newline()
				}
				walk(c)
				if block {
					newline()
				}
			}
		}
	}
	walk(root)
	return strings.TrimRight(sb.String(), "\n")
}

func collapseSpace(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return strings.Join(fields, " ")
}
