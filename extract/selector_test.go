package extract

import (
	"testing"

	"github.com/use-agent/harvest/memdom"
)

const cardsPage = `<html><head><title>t</title></head><body>
<div class="grid">
  <div class="card" style="width:300px;height:300px"><h3>Alpha</h3><p>first card</p></div>
  <div class="card" style="width:300px;height:300px"><h3>Beta</h3><p>second card</p></div>
  <div class="card" style="width:300px;height:300px"><h3>Gamma</h3><p>third card</p></div>
  <div class="card" style="width:300px;height:300px"><h3>Delta</h3><p>fourth card</p></div>
  <div class="card" style="width:300px;height:300px"><h3>Epsilon</h3><p>fifth card</p></div>
</div>
</body></html>`

func TestStructuralSelector(t *testing.T) {
	p, err := memdom.Load(cardsPage)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	heads, _ := p.Query("div.card h3")
	if got := StructuralSelector(heads[0]); got != "html > body > div > div > h3" {
		t.Errorf("StructuralSelector = %q", got)
	}
}

func TestStructuralSelector_SiblingsIdentical(t *testing.T) {
	p, _ := memdom.Load(cardsPage)
	cards, _ := p.Query("div.card")

	first := StructuralSelector(cards[0])
	for i, c := range cards[1:] {
		if s := StructuralSelector(c); s != first {
			t.Errorf("sibling %d selector %q != %q", i+1, s, first)
		}
	}
}

func TestStructuralSelector_ExtendsParent(t *testing.T) {
	p, _ := memdom.Load(cardsPage)
	cards, _ := p.Query("div.card")

	parent := StructuralSelector(cards[0].Parent())
	child := StructuralSelector(cards[0])
	if child != parent+" > div" {
		t.Errorf("child %q should extend parent %q by one step", child, parent)
	}
}

func TestStructuralSelector_MatchesAllSameShaped(t *testing.T) {
	p, _ := memdom.Load(cardsPage)
	cards, _ := p.Query("div.card")

	matches, err := p.Query(StructuralSelector(cards[0]))
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(matches) != 5 {
		t.Errorf("structural selector matched %d elements, want all 5 cards", len(matches))
	}
}
