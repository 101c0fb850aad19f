package models

// PageRequest carries the navigation parameters shared by every extraction
// entry point. The engine core itself is navigation-free; these fields feed
// the surrounding harness that opens the page.
type PageRequest struct {
	// URL is the target page. Required.
	URL string `json:"url" binding:"required,url"`

	// Timeout is the maximum duration in seconds for the whole operation
	// (navigation + rendering + extraction). Default: 30. Max: 120.
	Timeout int `json:"timeout,omitempty" binding:"omitempty,min=1,max=120"`

	// Stealth enables anti-bot-detection evasions on the browser path.
	Stealth bool `json:"stealth,omitempty"`

	// FetchMode selects the host engine.
	// "auto" (default): static HTTP first, escalating to the browser.
	// "browser": force a rendered browser page.
	// "static": force the static HTML host (no JS, no real layout).
	FetchMode string `json:"fetch_mode,omitempty" binding:"omitempty,oneof=auto browser static"`

	// WaitSelector, when set, delays extraction until at least one element
	// matching it exists. Browser path only.
	WaitSelector string `json:"wait_selector,omitempty"`

	// MaxAge opts into the response cache: a cached response younger than
	// MaxAge milliseconds is returned without re-opening the page.
	MaxAge int `json:"max_age,omitempty"`
}

// Defaults applies default values to unset fields.
func (r *PageRequest) Defaults() {
	if r.Timeout == 0 {
		r.Timeout = 30
	}
	if r.FetchMode == "" {
		r.FetchMode = "auto"
	}
}

// ScrapeRequest is the payload for POST /api/v1/scrape (free-form records).
type ScrapeRequest struct {
	PageRequest

	// Selector restricts extraction to its matches. When empty, the
	// heuristic locator discovers a repeated-item selector from layout.
	Selector string `json:"selector,omitempty"`
}

// SchemaRequest is the payload for POST /api/v1/schema.
type SchemaRequest struct {
	PageRequest

	// Fields is the ordered field schema.
	Fields []Field `json:"fields" binding:"required,min=1,dive"`
}

// ListRequest is the payload for POST /api/v1/list.
type ListRequest struct {
	PageRequest

	// ListSelector locates the list-item containers. May use the shadow
	// descend delimiter.
	ListSelector string `json:"list_selector" binding:"required"`

	// Fields maps labels to per-item selectors. Only each selector's final
	// shadow segment is queried relative to a container.
	Fields []Field `json:"fields" binding:"required,min=1,dive"`

	// Limit caps the number of records. Default: 10.
	Limit int `json:"limit,omitempty" binding:"omitempty,min=1"`
}

// AutoListRequest is the payload for POST /api/v1/autolist.
type AutoListRequest struct {
	PageRequest

	// Selector matches the container(s) whose direct children are sampled.
	Selector string `json:"selector" binding:"required"`
}
