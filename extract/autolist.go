package extract

import (
	"context"
	"slices"
	"strings"

	"github.com/use-agent/harvest/dom"
	"github.com/use-agent/harvest/models"
)

// ScrapeAutoList pairs every direct child of the matched containers with an
// ad-hoc selector for it, as a schema-authoring aid: the output shows what
// a list region contains and how each entry could be addressed.
func ScrapeAutoList(ctx context.Context, page dom.Page, selector string) ([]models.AutoListEntry, error) {
	var entries []models.AutoListEntry
	for _, container := range queryPage(page, selector) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, child := range container.Children() {
			entries = append(entries, models.AutoListEntry{
				Selector: adHocSelector(child),
				Text:     strings.TrimSpace(child.Text()),
			})
		}
	}
	return entries, nil
}

// adHocSelector builds a usable selector for one element by walking upward:
// an id anchors the selector and stops the walk immediately, otherwise each
// level contributes its tag plus class list.
func adHocSelector(el dom.Element) string {
	var steps []string
	for cur := el; cur != nil; cur = cur.Parent() {
		if id, ok := cur.Attr("id"); ok && id != "" {
			steps = append(steps, cur.Tag()+"#"+id)
			break
		}
		step := cur.Tag()
		for _, cls := range classTokens(cur) {
			step += "." + cls
		}
		steps = append(steps, step)
	}
	slices.Reverse(steps)
	return strings.Join(steps, " > ")
}
