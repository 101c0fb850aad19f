package models

// Record maps a field label (or a generated key such as "img_0" or
// "record_0003") to its extracted value. Values are strings; nil records a
// field whose selector resolved no data for that item.
type Record map[string]any

// ScrapeResult is an ordered sequence of records, one per logical item.
type ScrapeResult []Record

// AutoListEntry pairs a derived per-child selector with the child's trimmed
// text. Produced by the auto-list extractor as a schema-authoring aid.
type AutoListEntry struct {
	Selector string `json:"selector"`
	Text     string `json:"text"`
}
