package extract

import (
	"context"
	"testing"

	"github.com/use-agent/harvest/memdom"
)

func TestScrapeAutoList(t *testing.T) {
	const src = `<html><body>
<ul id="nav">
  <li class="entry first">Home</li>
  <li class="entry">Catalog</li>
  <li class="entry last">About</li>
</ul>
</body></html>`

	p, _ := memdom.Load(src)
	entries, err := ScrapeAutoList(context.Background(), p, "ul#nav")
	if err != nil {
		t.Fatalf("ScrapeAutoList: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}

	// The id anchors the selector: the walk stops at ul#nav instead of
	// continuing to the document root.
	if entries[0].Selector != "ul#nav > li.entry.first" {
		t.Errorf("selector = %q", entries[0].Selector)
	}
	if entries[1].Selector != "ul#nav > li.entry" {
		t.Errorf("selector = %q", entries[1].Selector)
	}
	if entries[0].Text != "Home" || entries[2].Text != "About" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestScrapeAutoList_NoIDWalksToRoot(t *testing.T) {
	const src = `<html><body>
<div class="panel">
  <span class="label">a</span>
  <span class="label">b</span>
</div>
</body></html>`

	p, _ := memdom.Load(src)
	entries, err := ScrapeAutoList(context.Background(), p, "div.panel")
	if err != nil {
		t.Fatalf("ScrapeAutoList: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	want := "html > body > div.panel > span.label"
	if entries[0].Selector != want {
		t.Errorf("selector = %q, want %q", entries[0].Selector, want)
	}
}

func TestScrapeAutoList_NoContainers(t *testing.T) {
	p, _ := memdom.Load(`<html><body><p>nothing here</p></body></html>`)
	entries, err := ScrapeAutoList(context.Background(), p, "ul#missing")
	if err != nil {
		t.Fatalf("ScrapeAutoList: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("got %d entries, want 0", len(entries))
	}
}
