package models

// ScrapeResponse is the response shape shared by the scrape, schema, and
// list endpoints.
type ScrapeResponse struct {
	// Success indicates whether the extraction completed without errors.
	// "No data found" is still a success; Records is simply empty.
	Success bool `json:"success"`

	// Records is the ordered extraction result.
	Records ScrapeResult `json:"records"`

	// SelectorUsed is the item selector the extraction ran with. For
	// free-form scrapes without an input selector this is the one the
	// heuristic locator discovered; "html" signals the whole-document
	// fallback and should be treated as a probable miss.
	SelectorUsed string `json:"selector_used,omitempty"`

	// FinalURL is the URL after following all redirects.
	FinalURL string `json:"final_url,omitempty"`

	// EngineUsed indicates which host engine produced the page
	// ("static", "browser", "browser-stealth").
	EngineUsed string `json:"engine_used,omitempty"`

	// Timing provides duration breakdowns for the operation.
	Timing TimingInfo `json:"timing"`

	// CacheStatus indicates whether the response was served from cache.
	// Values: "hit", "miss", or empty (caching not requested).
	CacheStatus string `json:"cache_status,omitempty"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// AutoListResponse is the response for POST /api/v1/autolist.
type AutoListResponse struct {
	Success  bool            `json:"success"`
	Entries  []AutoListEntry `json:"entries"`
	FinalURL string          `json:"final_url,omitempty"`
	Timing   TimingInfo      `json:"timing"`
	Error    *ErrorDetail    `json:"error,omitempty"`
}

// TimingInfo breaks down the time spent in each phase.
type TimingInfo struct {
	// TotalMs is the end-to-end duration in milliseconds.
	TotalMs int64 `json:"total_ms"`

	// NavigationMs is the time spent opening and rendering the page.
	NavigationMs int64 `json:"navigation_ms"`

	// ExtractionMs is the time spent running the extraction algorithms.
	ExtractionMs int64 `json:"extraction_ms"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status    string    `json:"status"` // "healthy" or "degraded"
	Uptime    string    `json:"uptime"`
	PoolStats PoolStats `json:"pool_stats"`
	Version   string    `json:"version"`
}

// PoolStats reports the state of the browser page pool.
type PoolStats struct {
	MaxPages    int `json:"max_pages"`
	ActivePages int `json:"active_pages"`
}
