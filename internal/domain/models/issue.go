package models

import "time"

// Issue is one detected DEO problem on one storefront entity
type Issue struct {
	ID            string     `json:"id"`
	ProjectID     string     `json:"project_id"`
	CrawlResultID string     `json:"crawl_result_id"`
	PlaybookKey   string     `json:"playbook_key"`
	ScopeType     string     `json:"scope_type"`
	ScopeID       string     `json:"scope_id"`
	Handle        string     `json:"handle"`
	Severity      string     `json:"severity"`
	Field         string     `json:"field"`
	Message       string     `json:"message"`
	Status        string     `json:"status"`
	DetectedAt    time.Time  `json:"detected_at"`
	ResolvedAt    *time.Time `json:"resolved_at,omitempty"`
}

// WorkQueueBundle aggregates open issues into one actionable unit for the
// Work Queue surface: one playbook over one scope type.
type WorkQueueBundle struct {
	PlaybookKey   string   `json:"playbook_key"`
	Title         string   `json:"title"`
	ScopeType     string   `json:"scope_type"`
	Severity      string   `json:"severity"`
	OpenCount     int      `json:"open_count"`
	SampleHandles []string `json:"sample_handles"`
}
