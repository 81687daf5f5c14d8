package models

import "time"

// PlaybookRun is one queued/executing application of a playbook to a project.
// Status machine: QUEUED -> RUNNING -> SUCCEEDED | FAILED; CANCELED is
// reachable from QUEUED only.
type PlaybookRun struct {
	ID             string     `json:"id"`
	ProjectID      string     `json:"project_id"`
	PlaybookKey    string     `json:"playbook_key"`
	Status         string     `json:"status"`
	RulesHash      string     `json:"rules_hash"`
	ScopeType      string     `json:"scope_type"`
	TotalItems     int        `json:"total_items"`
	ProcessedItems int        `json:"processed_items"`
	SucceededItems int        `json:"succeeded_items"`
	FailedItems    int        `json:"failed_items"`
	DraftsReused   int        `json:"drafts_reused"`
	AiGenerated    int        `json:"ai_generated"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	RequestedBy    string     `json:"requested_by"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// IsActive reports whether the run still occupies the per-playbook slot
func (r *PlaybookRun) IsActive() bool {
	return r.Status == "QUEUED" || r.Status == "RUNNING"
}

// IsTerminal reports whether the run reached a final state
func (r *PlaybookRun) IsTerminal() bool {
	return r.Status == "SUCCEEDED" || r.Status == "FAILED" || r.Status == "CANCELED"
}
