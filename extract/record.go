package extract

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/use-agent/harvest/dom"
	"github.com/use-agent/harvest/models"
)

// ScrapeRecords performs a free-form scrape: each element matched by the
// selector becomes one loosely-typed record of image URLs (img_<i>) and
// rendered text lines (record_<i>, 4-digit zero-padded). When selector is
// empty the heuristic locator picks one.
//
// Records are intentionally untyped and variable-width across items; the
// shape is a raw sampling of the page, not a schema.
func ScrapeRecords(ctx context.Context, page dom.Page, selector string, loc *Locator) (models.ScrapeResult, string, error) {
	var matches []dom.Element
	if selector == "" {
		var err error
		selector, matches, err = loc.Discover(ctx, page)
		if err != nil {
			return nil, "", err
		}
	} else {
		matches = queryPage(page, selector)
	}

	result := make(models.ScrapeResult, 0, len(matches))
	for _, el := range matches {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}
		result = append(result, elementRecord(el))
	}
	return result, selector, nil
}

func elementRecord(el dom.Element) models.Record {
	rec := models.Record{}

	for i, img := range containedImages(el) {
		if u := imageURL(img); u != "" {
			rec[fmt.Sprintf("img_%d", i)] = u
		}
	}

	for i, line := range strings.Split(el.Text(), "\n") {
		rec[fmt.Sprintf("record_%04d", i)] = strings.TrimSpace(line)
	}
	return rec
}

func containedImages(el dom.Element) []dom.Element {
	if el.Tag() == "img" {
		return []dom.Element{el}
	}
	return queryEl(el, "img")
}

// imageURL derives a URL for one image node: the widest srcset candidate
// when one parses, else the plain src. Inline data URIs yield nothing.
func imageURL(img dom.Element) string {
	if srcset, ok := img.Attr("srcset"); ok {
		if u := widestSource(srcset); u != "" && !strings.HasPrefix(u, "data:") {
			return u
		}
	}
	if src, ok := img.Attr("src"); ok {
		src = strings.TrimSpace(src)
		if src != "" && !strings.HasPrefix(src, "data:") {
			return src
		}
	}
	return ""
}

// widestSource picks the candidate with the largest width descriptor from a
// srcset value like "a.jpg 480w, b.jpg 1024w".
func widestSource(srcset string) string {
	var bestURL string
	bestW := -1
	for _, part := range strings.Split(srcset, ",") {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			continue
		}
		w := 0
		if len(fields) > 1 && strings.HasSuffix(fields[1], "w") {
			if n, err := strconv.Atoi(strings.TrimSuffix(fields[1], "w")); err == nil {
				w = n
			}
		}
		if w > bestW {
			bestW = w
			bestURL = fields[0]
		}
	}
	return bestURL
}
