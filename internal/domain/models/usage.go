package models

import "time"

// AiUsageEvent is one billable AI operation
type AiUsageEvent struct {
	ID           string    `json:"id"`
	ProjectID    string    `json:"project_id"`
	RunID        string    `json:"run_id,omitempty"`
	PlaybookKey  string    `json:"playbook_key"`
	Model        string    `json:"model"`
	Operation    string    `json:"operation"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// UsageSummary is the current billing period rollup for a project
type UsageSummary struct {
	ProjectID      string          `json:"project_id"`
	PeriodStart    time.Time       `json:"period_start"`
	Generations    int             `json:"generations"`
	InputTokens    int             `json:"input_tokens"`
	OutputTokens   int             `json:"output_tokens"`
	QuotaLimit     int             `json:"quota_limit"` // -1 means unlimited
	QuotaRemaining int             `json:"quota_remaining"`
	ByPlaybook     []PlaybookUsage `json:"by_playbook"`
}

// PlaybookUsage is the per-playbook slice of a usage summary
type PlaybookUsage struct {
	PlaybookKey  string `json:"playbook_key"`
	Generations  int    `json:"generations"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
}
