package extract

import (
	"context"
	"testing"

	"github.com/use-agent/harvest/memdom"
)

func TestDiscover_FindsCardGrid(t *testing.T) {
	p, err := memdom.Load(cardsPage)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	selector, matches, err := NewLocator().Discover(context.Background(), p)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if selector != "html > body > div > div" {
		t.Errorf("selector = %q", selector)
	}
	if len(matches) != 5 {
		t.Fatalf("expected exactly the 5 cards, got %d matches", len(matches))
	}
	for i, m := range matches {
		if cls, _ := m.Attr("class"); cls != "card" {
			t.Errorf("match %d has class %q, want card", i, cls)
		}
	}
}

func TestDiscover_RestoresScroll(t *testing.T) {
	p, _ := memdom.Load(cardsPage)
	if err := p.ScrollTo(0, 120); err != nil {
		t.Fatal(err)
	}

	if _, _, err := NewLocator().Discover(context.Background(), p); err != nil {
		t.Fatalf("Discover: %v", err)
	}

	_, y, _ := p.ScrollOffset()
	if y != 120 {
		t.Errorf("scroll offset after discovery = %v, want 120", y)
	}
}

func TestDiscover_FallsBackWhenNothingQualifies(t *testing.T) {
	// Two small paragraphs: nothing clears the minimum area, and nothing
	// repeats three times.
	const sparse = `<html><body>
<p style="width:100px;height:20px">one</p>
<p style="width:100px;height:20px">two</p>
</body></html>`

	p, _ := memdom.Load(sparse)
	selector, _, err := NewLocator().Discover(context.Background(), p)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if selector != FallbackSelector {
		t.Errorf("selector = %q, want %q", selector, FallbackSelector)
	}
}

func TestDiscover_RejectsPageWideSelectors(t *testing.T) {
	loc := NewLocator()
	loc.MaxCountPerPage = 4

	p, _ := memdom.Load(cardsPage)
	selector, _, err := loc.Discover(context.Background(), p)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	// The 5 cards exceed the cap, and nothing else repeats.
	if selector != FallbackSelector {
		t.Errorf("selector = %q, want fallback with cap 4", selector)
	}
}

func TestDiscover_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p, _ := memdom.Load(cardsPage)
	if _, _, err := NewLocator().Discover(ctx, p); err == nil {
		t.Error("expected a context error")
	}
}
