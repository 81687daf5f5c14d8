package constants

// Table names
const (
	TableUser          = "users"
	TableSession       = "sessions"
	TableProject       = "projects"
	TableIntegration   = "integrations"
	TableCrawlResult   = "crawl_results"
	TableIssue         = "issues"
	TablePlaybookRun   = "automation_playbook_runs"
	TablePlaybookDraft = "automation_playbook_drafts"
	TableAiUsageEvent  = "ai_usage_events"
	TableJob           = "jobs"
	TableScheduledTask = "scheduled_tasks"
)

// Common field names
const (
	FieldID        = "id"
	FieldEmail     = "email"
	FieldName      = "name"
	FieldStatus    = "status"
	FieldProjectID = "project_id"
	FieldCreatedAt = "created_at"
	FieldUpdatedAt = "updated_at"
)

// Gin context keys
const (
	ContextKeyUser  = "user"
	ContextKeyToken = "token"
)

// Response field names
const (
	FieldMessage = "message"
)

// HTTP headers
const (
	HeaderAuthorization = "Authorization"
	HeaderShopifyToken  = "X-Shopify-Access-Token"
)

// Response envelope keys
const (
	ResponseError   = "error"
	ResponseMessage = "message"
	ResponseData    = "data"
)

// User roles
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// IsAdminRole reports whether the role grants administrative access
func IsAdminRole(role string) bool {
	return role == RoleAdmin
}

// Project plans
const (
	PlanFree    = "free"
	PlanStarter = "starter"
	PlanGrowth  = "growth"
	PlanScale   = "scale"
)

// Scope types (the catalog surfaces a playbook can target)
const (
	ScopeProduct    = "product"
	ScopePage       = "page"
	ScopeCollection = "collection"
)

// ValidScopeTypes lists all supported scope types
var ValidScopeTypes = []string{ScopeProduct, ScopePage, ScopeCollection}

// IsValidScopeType reports whether s is a supported scope type
func IsValidScopeType(s string) bool {
	for _, v := range ValidScopeTypes {
		if v == s {
			return true
		}
	}
	return false
}

// Issue severities
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
	SeverityInfo     = "info"
)

// Issue statuses
const (
	IssueStatusOpen      = "open"
	IssueStatusFixed     = "fixed"
	IssueStatusDismissed = "dismissed"
)

// Playbook run statuses
const (
	RunStatusQueued    = "QUEUED"
	RunStatusRunning   = "RUNNING"
	RunStatusSucceeded = "SUCCEEDED"
	RunStatusFailed    = "FAILED"
	RunStatusCanceled  = "CANCELED"
)

// Draft statuses
const (
	DraftStatusReady    = "ready"
	DraftStatusApplied  = "applied"
	DraftStatusStale    = "stale"
	DraftStatusRejected = "rejected"
)

// Integration statuses
const (
	IntegrationConnected    = "connected"
	IntegrationDisconnected = "disconnected"
	IntegrationError        = "error"
)

// AI usage operations
const (
	UsageOpGeneration = "generation"
	UsageOpEstimate   = "estimate"
)

// Scheduled task types
const (
	TaskTypeCrawl    = "crawl"
	TaskTypePlaybook = "playbook"
)

// Worker settings
const (
	JobQueuePlaybookRuns  = "playbook_runs"
	ScheduleCheckInterval = 60 // seconds
	ScheduleMaxRuntimeMin = 30
)
