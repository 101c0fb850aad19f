package memdom

import (
	"strings"
	"testing"
)

const cardsHTML = `<html><head><title>t</title></head><body>
<div class="grid">
  <div class="card" style="width:300px;height:300px"><h3>Alpha</h3><p>first card</p></div>
  <div class="card" style="width:300px;height:300px"><h3>Beta</h3><p>second card</p></div>
  <div class="card" style="width:300px;height:300px"><h3>Gamma</h3><p>third card</p></div>
</div>
</body></html>`

func TestLoadAndQuery(t *testing.T) {
	p, err := Load(cardsHTML)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	cards, err := p.Query("div.card")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(cards) != 3 {
		t.Fatalf("expected 3 cards, got %d", len(cards))
	}

	if tag := cards[0].Tag(); tag != "div" {
		t.Errorf("Tag() = %q, want div", tag)
	}
	if cls, ok := cards[0].Attr("class"); !ok || cls != "card" {
		t.Errorf("Attr(class) = %q, %v", cls, ok)
	}
}

func TestQuery_InvalidSelector(t *testing.T) {
	p, err := Load(cardsHTML)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := p.Query("div >> span"); err == nil {
		t.Error("expected an error for a non-CSS selector")
	}
}

func TestNodeIdentity_StableAcrossQueries(t *testing.T) {
	p, _ := Load(cardsHTML)
	a, _ := p.Query("div.card")
	b, _ := p.Query("div.grid > div")
	if a[0].NodeID() != b[0].NodeID() {
		t.Error("same node reached via two queries should share an identity")
	}
	if a[0].NodeID() == a[1].NodeID() {
		t.Error("distinct nodes must have distinct identities")
	}
}

func TestParentAndChildren(t *testing.T) {
	p, _ := Load(cardsHTML)
	cards, _ := p.Query("div.card")

	parent := cards[0].Parent()
	if parent == nil {
		t.Fatal("card should have a parent")
	}
	if cls, _ := parent.Attr("class"); cls != "grid" {
		t.Errorf("parent class = %q, want grid", cls)
	}
	if got := len(parent.Children()); got != 3 {
		t.Errorf("grid has %d children, want 3", got)
	}

	// Walking up from body ends at the content root, not a document node.
	body, _ := p.Query("body")
	html := body[0].Parent()
	if html == nil || html.Tag() != "html" {
		t.Fatalf("body parent should be html")
	}
	if html.Parent() != nil {
		t.Error("html should have no parent element")
	}
}

func TestRenderedText(t *testing.T) {
	p, _ := Load(cardsHTML)
	cards, _ := p.Query("div.card")

	lines := strings.Split(cards[0].Text(), "\n")
	if len(lines) != 2 || lines[0] != "Alpha" || lines[1] != "first card" {
		t.Errorf("rendered text lines = %q", lines)
	}
}

func TestLayoutBoxes(t *testing.T) {
	p, _ := Load(cardsHTML)
	cards, _ := p.Query("div.card")

	for i, c := range cards {
		b := c.Box()
		if b.Width != 300 || b.Height != 300 {
			t.Errorf("card %d box = %+v, want 300x300", i, b)
		}
	}

	grids, _ := p.Query("div.grid")
	if h := grids[0].Box().Height; h != 900 {
		t.Errorf("grid height = %v, want 900 (3 stacked cards)", h)
	}
}

func TestElementFromPoint(t *testing.T) {
	p, _ := Load(cardsHTML)

	// Deep inside the second card's body, below its heading and paragraph.
	el, err := p.ElementFromPoint(150, 450)
	if err != nil {
		t.Fatalf("ElementFromPoint: %v", err)
	}
	if el == nil {
		t.Fatal("expected a hit")
	}
	if cls, _ := el.Attr("class"); cls != "card" {
		t.Errorf("hit %s.%s, want div.card", el.Tag(), cls)
	}

	// Outside every card horizontally: the grid (full width) is hit instead.
	el, _ = p.ElementFromPoint(800, 450)
	if el == nil || el.Tag() != "div" {
		t.Fatal("expected the grid container")
	}
	if cls, _ := el.Attr("class"); cls != "grid" {
		t.Errorf("hit class %q, want grid", cls)
	}
}

func TestElementFromPoint_HonorsScroll(t *testing.T) {
	p, _ := Load(cardsHTML, WithViewport(1280, 200))

	if err := p.ScrollTo(0, 600); err != nil {
		t.Fatalf("ScrollTo: %v", err)
	}
	el, _ := p.ElementFromPoint(150, 50) // document y=650: third card
	if el == nil {
		t.Fatal("expected a hit")
	}
	texts := el.Text()
	if !strings.Contains(texts, "Gamma") {
		t.Errorf("expected the third card after scrolling, got text %q", texts)
	}

	x, y, _ := p.ScrollOffset()
	if x != 0 || y != 600 {
		t.Errorf("scroll offset = (%v, %v), want (0, 600)", x, y)
	}
}

func TestDeclarativeShadowRoot(t *testing.T) {
	const src = `<html><body>
<product-card>
  <template shadowrootmode="open"><span class="price">9.99</span></template>
</product-card>
<locked-card>
  <template shadowrootmode="closed"><span class="price">hidden</span></template>
</locked-card>
</body></html>`

	p, _ := Load(src)

	hosts, _ := p.Query("product-card")
	if len(hosts) != 1 {
		t.Fatalf("expected 1 host, got %d", len(hosts))
	}
	root, ok := hosts[0].ShadowRoot()
	if !ok {
		t.Fatal("open shadow root not found")
	}
	prices, err := root.Query("span.price")
	if err != nil || len(prices) != 1 {
		t.Fatalf("shadow query = %d elements, err %v", len(prices), err)
	}
	if prices[0].Text() != "9.99" {
		t.Errorf("shadow text = %q", prices[0].Text())
	}

	// Closed roots are invisible.
	locked, _ := p.Query("locked-card")
	if _, ok := locked[0].ShadowRoot(); ok {
		t.Error("closed shadow root must not be exposed")
	}

	// Light-DOM queries must not reach into shadow trees.
	leaked, _ := p.Query("span.price")
	if len(leaked) != 0 {
		t.Errorf("light query leaked %d shadow elements", len(leaked))
	}
}

func TestLocation(t *testing.T) {
	p, _ := Load(cardsHTML, WithBaseURL("https://shop.example/list"))
	if p.Location() == nil || p.Location().Host != "shop.example" {
		t.Errorf("Location = %v", p.Location())
	}
}
