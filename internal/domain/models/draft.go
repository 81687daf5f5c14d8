package models

import "time"

// Draft is a persisted, pre-generated AI suggestion awaiting a human apply.
// WorkKey deduplicates AI work: equal keys never generate twice while a
// ready draft exists. Apply paths never call the AI.
type Draft struct {
	ID             string     `json:"id"`
	ProjectID      string     `json:"project_id"`
	PlaybookKey    string     `json:"playbook_key"`
	ScopeType      string     `json:"scope_type"`
	ScopeID        string     `json:"scope_id"`
	Handle         string     `json:"handle"`
	Field          string     `json:"field"`
	WorkKey        string     `json:"work_key"`
	CurrentValue   string     `json:"current_value"`
	SuggestedValue string     `json:"suggested_value"`
	Status         string     `json:"status"`
	Model          string     `json:"model"`
	RunID          string     `json:"run_id,omitempty"`
	AppliedAt      *time.Time `json:"applied_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
