package extract

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/use-agent/harvest/memdom"
	"github.com/use-agent/harvest/models"
)

func uniformListPage(n int) string {
	var sb strings.Builder
	sb.WriteString(`<html><body><ul class="results">`)
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&sb, `<li class="result"><span class="name">Item %d</span><a class="more" href="/item/%d">more</a></li>`, i, i)
	}
	sb.WriteString(`</ul></body></html>`)
	return sb.String()
}

func listFields() []models.Field {
	return []models.Field{
		{Label: "name", FieldConfig: models.FieldConfig{Selector: "li.result span.name", Attribute: "innerText"}},
		{Label: "link", FieldConfig: models.FieldConfig{Selector: "li.result a.more", Attribute: "href"}},
	}
}

func TestScrapeList_LimitFirstN(t *testing.T) {
	p, _ := memdom.Load(uniformListPage(10), memdom.WithBaseURL("https://shop.example/"))

	result, err := ScrapeList(context.Background(), p, "li.result", listFields(), 3, 0)
	if err != nil {
		t.Fatalf("ScrapeList: %v", err)
	}
	if len(result) != 3 {
		t.Fatalf("got %d records, want 3", len(result))
	}
	for i, rec := range result {
		want := fmt.Sprintf("Item %d", i+1)
		if rec["name"] != want {
			t.Errorf("record %d name = %v, want %q (document order)", i, rec["name"], want)
		}
	}
	if result[0]["link"] != "https://shop.example/item/1" {
		t.Errorf("link = %v", result[0]["link"])
	}
}

func TestScrapeList_DefaultLimit(t *testing.T) {
	p, _ := memdom.Load(uniformListPage(25))

	result, err := ScrapeList(context.Background(), p, "li.result", listFields(), 0, 0)
	if err != nil {
		t.Fatalf("ScrapeList: %v", err)
	}
	if len(result) != DefaultListLimit {
		t.Errorf("got %d records, want the default %d", len(result), DefaultListLimit)
	}
}

func TestScrapeList_NoContainers(t *testing.T) {
	p, _ := memdom.Load(uniformListPage(3))

	result, err := ScrapeList(context.Background(), p, "li.nope", listFields(), 5, 0)
	if err != nil {
		t.Fatalf("ScrapeList: %v", err)
	}
	if len(result) != 0 {
		t.Errorf("got %d records, want 0", len(result))
	}
}

func TestScrapeList_SimilarityFallback(t *testing.T) {
	// The selector literally matches only the featured tile; its four
	// siblings share 3 of its 4 class tokens (>= 70% rounded down) and
	// become the candidate containers. The template itself is not one,
	// and the ad shares no tokens.
	const src = `<html><body>
<div class="list">
  <div class="tile result wide featured"><span class="name">First</span></div>
  <div class="tile result wide"><span class="name">Second</span></div>
  <div class="tile result wide"><span class="name">Third</span></div>
  <div class="tile result wide"><span class="name">Fourth</span></div>
  <div class="tile result wide"><span class="name">Fifth</span></div>
  <div class="ad banner"><span class="name">Sponsored</span></div>
</div>
</body></html>`

	p, _ := memdom.Load(src)
	fields := []models.Field{
		{Label: "name", FieldConfig: models.FieldConfig{Selector: "span.name", Attribute: "innerText"}},
	}

	result, err := ScrapeList(context.Background(), p, "div.list > div.featured", fields, 10, 0)
	if err != nil {
		t.Fatalf("ScrapeList: %v", err)
	}
	if len(result) != 4 {
		t.Fatalf("got %d records, want 4 candidate containers", len(result))
	}
	if result[0]["name"] != "Second" || result[3]["name"] != "Fifth" {
		t.Errorf("records = %v", result)
	}
	for _, rec := range result {
		switch rec["name"] {
		case "First":
			t.Error("the template itself must not be a candidate container")
		case "Sponsored":
			t.Error("dissimilar sibling must not be widened in")
		}
	}
}

func TestScrapeList_FallbackKeepsLiteralMatchWhenNoSiblingQualifies(t *testing.T) {
	const src = `<html><body>
<div class="list">
  <div class="tile result wide featured"><span class="name">First</span></div>
  <div class="ad banner"><span class="name">Sponsored</span></div>
</div>
</body></html>`

	p, _ := memdom.Load(src)
	fields := []models.Field{
		{Label: "name", FieldConfig: models.FieldConfig{Selector: "span.name", Attribute: "innerText"}},
	}

	result, err := ScrapeList(context.Background(), p, "div.list > div.featured", fields, 10, 0)
	if err != nil {
		t.Fatalf("ScrapeList: %v", err)
	}
	if len(result) != 1 || result[0]["name"] != "First" {
		t.Errorf("records = %v, want just the literal match", result)
	}
}

func TestScrapeList_ConfiguredSimilarity(t *testing.T) {
	// One sibling carries the template's full token set, one only 3 of 4.
	// At the default threshold both qualify; at 1.0 only the exact twin does.
	const src = `<html><body>
<div class="list">
  <div class="tile result wide featured"><span class="name">First</span></div>
  <div class="tile result wide featured"><span class="name">Twin</span></div>
  <div class="tile result wide"><span class="name">Close</span></div>
</div>
</body></html>`

	fields := []models.Field{
		{Label: "name", FieldConfig: models.FieldConfig{Selector: "span.name", Attribute: "innerText"}},
	}
	selector := "div.list > div:first-child"

	p, _ := memdom.Load(src)
	result, err := ScrapeList(context.Background(), p, selector, fields, 10, 0)
	if err != nil {
		t.Fatalf("ScrapeList: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("default threshold: got %d records, want 2", len(result))
	}

	result, err = ScrapeList(context.Background(), p, selector, fields, 10, 1.0)
	if err != nil {
		t.Fatalf("ScrapeList: %v", err)
	}
	if len(result) != 1 || result[0]["name"] != "Twin" {
		t.Errorf("threshold 1.0: records = %v, want only the exact twin", result)
	}
}

func TestScrapeList_NoFallbackWhenLimitIsOne(t *testing.T) {
	const src = `<html><body>
<div class="list">
  <div class="tile featured"><span class="name">First</span></div>
  <div class="tile"><span class="name">Second</span></div>
</div>
</body></html>`

	p, _ := memdom.Load(src)
	fields := []models.Field{
		{Label: "name", FieldConfig: models.FieldConfig{Selector: "span.name", Attribute: "innerText"}},
	}

	result, err := ScrapeList(context.Background(), p, "div.featured", fields, 1, 0)
	if err != nil {
		t.Fatalf("ScrapeList: %v", err)
	}
	if len(result) != 1 || result[0]["name"] != "First" {
		t.Errorf("records = %v", result)
	}
}

func TestScrapeList_ShadowContainers(t *testing.T) {
	const src = `<html><body>
<deal-list>
  <template shadowrootmode="open">
    <div class="deal"><span class="name">Lamp</span></div>
    <div class="deal"><span class="name">Rug</span></div>
    <div class="deal"><span class="name">Vase</span></div>
  </template>
</deal-list>
</body></html>`

	p, _ := memdom.Load(src)
	fields := []models.Field{
		{Label: "name", FieldConfig: models.FieldConfig{Selector: "span.name", Attribute: "innerText"}},
	}

	result, err := ScrapeList(context.Background(), p, "deal-list >> div.deal", fields, 10, 0)
	if err != nil {
		t.Fatalf("ScrapeList: %v", err)
	}
	if len(result) != 3 {
		t.Fatalf("got %d records, want 3", len(result))
	}
	if result[1]["name"] != "Rug" {
		t.Errorf("records = %v", result)
	}
}

func TestScrapeList_SkipsEmptyContainers(t *testing.T) {
	const src = `<html><body>
<li class="result"><span class="name">Full</span></li>
<li class="result"></li>
<li class="result"><span class="name">Also full</span></li>
</body></html>`

	p, _ := memdom.Load(src)
	fields := []models.Field{
		{Label: "name", FieldConfig: models.FieldConfig{Selector: "span.name", Attribute: "innerText"}},
	}

	result, err := ScrapeList(context.Background(), p, "li.result", fields, 10, 0)
	if err != nil {
		t.Fatalf("ScrapeList: %v", err)
	}
	if len(result) != 2 {
		t.Errorf("got %d records, want 2 (empty container skipped)", len(result))
	}
}
