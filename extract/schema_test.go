package extract

import (
	"context"
	"testing"

	"github.com/use-agent/harvest/memdom"
	"github.com/use-agent/harvest/models"
)

const productsPage = `<html><body>
<div class="listing">
  <div class="product"><h3 class="title">Ash Table</h3><img class="photo" src="/img/table.jpg"><a class="link" href="/p/table">view</a></div>
  <div class="product"><h3 class="title">Oak Chair</h3><img class="photo" src="/img/chair.jpg"><a class="link" href="/p/chair">view</a></div>
  <div class="product"><h3 class="title">Pine Desk</h3><img class="photo" src="/img/desk.jpg"><a class="link" href="/p/desk">view</a></div>
</div>
</body></html>`

func schemaFields() []models.Field {
	return []models.Field{
		{Label: "title", FieldConfig: models.FieldConfig{Selector: "div.product h3.title", Attribute: "innerText"}},
		{Label: "image", FieldConfig: models.FieldConfig{Selector: "div.product img.photo", Attribute: "src"}},
		{Label: "url", FieldConfig: models.FieldConfig{Selector: "div.product a.link", Attribute: "href"}},
	}
}

func TestScrapeSchema_BoundingElementGrouping(t *testing.T) {
	p, _ := memdom.Load(productsPage, memdom.WithBaseURL("https://shop.example/list"))

	result, err := ScrapeSchema(context.Background(), p, schemaFields())
	if err != nil {
		t.Fatalf("ScrapeSchema: %v", err)
	}
	if len(result) != 3 {
		t.Fatalf("got %d records, want 3", len(result))
	}

	if result[0]["title"] != "Ash Table" {
		t.Errorf("title = %v", result[0]["title"])
	}
	if result[0]["image"] != "https://shop.example/img/table.jpg" {
		t.Errorf("image should be absolute, got %v", result[0]["image"])
	}
	if result[2]["url"] != "https://shop.example/p/desk" {
		t.Errorf("url = %v", result[2]["url"])
	}
	for i, rec := range result {
		for _, f := range schemaFields() {
			if rec[f.Label] == nil || rec[f.Label] == "" {
				t.Errorf("record %d field %s is empty", i, f.Label)
			}
		}
	}
}

func TestScrapeSchema_ZipFallbackOnDeficientField(t *testing.T) {
	// The last product has no image: bounding-element grouping cannot fill
	// every record, so positional zipping takes over and the deficient item
	// carries a nil field instead of raising a fault.
	const src = `<html><body>
<div class="listing">
  <div class="product"><h3>A</h3><img src="/a.jpg"></div>
  <div class="product"><h3>B</h3><img src="/b.jpg"></div>
  <div class="product"><h3>C</h3></div>
</div>
</body></html>`

	p, _ := memdom.Load(src, memdom.WithBaseURL("https://shop.example/"))
	fields := []models.Field{
		{Label: "title", FieldConfig: models.FieldConfig{Selector: "div.product h3", Attribute: "innerText"}},
		{Label: "image", FieldConfig: models.FieldConfig{Selector: "div.product img", Attribute: "src"}},
	}

	result, err := ScrapeSchema(context.Background(), p, fields)
	if err != nil {
		t.Fatalf("ScrapeSchema: %v", err)
	}
	if len(result) != 3 {
		t.Fatalf("got %d records, want 3", len(result))
	}
	if result[2]["title"] != "C" {
		t.Errorf("title = %v", result[2]["title"])
	}
	if result[2]["image"] != nil {
		t.Errorf("deficient field should be nil, got %v", result[2]["image"])
	}
}

func TestScrapeSchema_NoMatches(t *testing.T) {
	p, _ := memdom.Load(productsPage)
	fields := []models.Field{
		{Label: "missing", FieldConfig: models.FieldConfig{Selector: "div.nope"}},
	}

	result, err := ScrapeSchema(context.Background(), p, fields)
	if err != nil {
		t.Fatalf("ScrapeSchema: %v", err)
	}
	if len(result) != 0 {
		t.Errorf("got %d records, want 0", len(result))
	}
}

func TestScrapeSchema_ShadowField(t *testing.T) {
	const src = `<html><body>
<div class="row">
  <price-tag><template shadowrootmode="open"><span class="amount">19.99</span></template></price-tag>
  <price-tag><template shadowrootmode="open"><span class="amount">24.50</span></template></price-tag>
  <price-tag><template shadowrootmode="open"><span class="amount">3.10</span></template></price-tag>
</div>
</body></html>`

	p, _ := memdom.Load(src)
	fields := []models.Field{
		{Label: "price", FieldConfig: models.FieldConfig{Selector: "price-tag >> span.amount", Attribute: "innerText", Shadow: true}},
	}

	result, err := ScrapeSchema(context.Background(), p, fields)
	if err != nil {
		t.Fatalf("ScrapeSchema: %v", err)
	}
	if len(result) != 3 {
		t.Fatalf("got %d records, want 3", len(result))
	}
	if result[0]["price"] != "19.99" || result[2]["price"] != "3.10" {
		t.Errorf("prices = %v", result)
	}
}

func TestScrapeSchema_ShadowDisabledTreatsSelectorLiterally(t *testing.T) {
	const src = `<html><body>
<price-tag><template shadowrootmode="open"><span class="amount">19.99</span></template></price-tag>
</body></html>`

	p, _ := memdom.Load(src)
	fields := []models.Field{
		{Label: "price", FieldConfig: models.FieldConfig{Selector: "price-tag >> span.amount", Attribute: "innerText"}},
	}

	result, err := ScrapeSchema(context.Background(), p, fields)
	if err != nil {
		t.Fatalf("ScrapeSchema: %v", err)
	}
	// Without shadow mode the selector is handed to the host verbatim and
	// matches nothing.
	if len(result) != 0 {
		t.Errorf("got %d records, want 0", len(result))
	}
}

func TestScrapeSchema_RawAttribute(t *testing.T) {
	const src = `<html><body>
<div class="item" data-sku="SKU-1"><span>one</span></div>
<div class="item" data-sku="SKU-2"><span>two</span></div>
<div class="item"><span>three</span></div>
</body></html>`

	p, _ := memdom.Load(src)
	fields := []models.Field{
		{Label: "sku", FieldConfig: models.FieldConfig{Selector: "div.item", Attribute: "data-sku"}},
	}

	result, err := ScrapeSchema(context.Background(), p, fields)
	if err != nil {
		t.Fatalf("ScrapeSchema: %v", err)
	}
	if result[0]["sku"] != "SKU-1" || result[1]["sku"] != "SKU-2" {
		t.Errorf("skus = %v", result)
	}
	// Absent attribute falls back to trimmed text.
	if result[2]["sku"] != "three" {
		t.Errorf("fallback = %v", result[2]["sku"])
	}
}
