package models

import "time"

// ScheduledTask is a recurring crawl or playbook run for a project
type ScheduledTask struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"project_id"`
	TaskType    string     `json:"task_type"`
	PlaybookKey string     `json:"playbook_key,omitempty"`
	CronExpr    string     `json:"cron_expr"`
	Timezone    string     `json:"timezone,omitempty"`
	IsRunning   bool       `json:"is_running"`
	Enabled     bool       `json:"enabled"`
	LastRunAt   *time.Time `json:"last_run_at,omitempty"`
	NextRunAt   *time.Time `json:"next_run_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
