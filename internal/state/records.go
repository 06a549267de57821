package state

import "time"

// PageRecord is the persisted form of a page. Transient fields (AST,
// resolved symbols, formatted output, staleness) are deliberately absent:
// a loaded page always starts non-stale with its transients reset.
type PageRecord struct {
	SourceID      string   `json:"source_id"`
	ExtensionName string   `json:"extension_name"`
	Generated     bool     `json:"generated"`
	LinkTarget    string   `json:"link_target"`
	LinkName      string   `json:"link_name"`
	LinkTitle     string   `json:"link_title"`
	Subpages      []string `json:"subpages"`
	SymbolNames   []string `json:"symbol_names"`
}

// RunRecord is one build run in the run log.
type RunRecord struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS float64   `json:"duration_ms"`
	PageCount  int       `json:"page_count"`
	StaleCount int       `json:"stale_count"`
}
