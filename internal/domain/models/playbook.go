package models

// Playbook is a canonical automation recipe from the catalog.
// Rule is an expr condition evaluated against a crawl result env; true means
// the issue exists and the playbook can fix it.
type Playbook struct {
	Key            string `json:"key" yaml:"key"`
	Title          string `json:"title" yaml:"title"`
	Description    string `json:"description" yaml:"description"`
	ScopeType      string `json:"scope_type" yaml:"scope_type"`
	Field          string `json:"field" yaml:"field"`
	Severity       string `json:"severity" yaml:"severity"`
	Rule           string `json:"rule" yaml:"rule"`
	IssueMessage   string `json:"issue_message" yaml:"issue_message"`
	PromptTemplate string `json:"-" yaml:"prompt_template"`
	PromptVersion  int    `json:"prompt_version" yaml:"prompt_version"`
	MaxLength      int    `json:"max_length" yaml:"max_length"`
}

// PlaybookCatalog is the root of the embedded catalog definition
type PlaybookCatalog struct {
	Playbooks []Playbook `yaml:"playbooks"`
}

// PlaybookSummary is a catalog entry enriched with live issue counts
type PlaybookSummary struct {
	Playbook
	OpenIssues int `json:"open_issues"`
}

// PreviewItem is one affected entity shown by a playbook preview
type PreviewItem struct {
	ScopeType    string `json:"scope_type"`
	ScopeID      string `json:"scope_id"`
	Handle       string `json:"handle"`
	Title        string `json:"title"`
	Field        string `json:"field"`
	CurrentValue string `json:"current_value"`
}

// Estimate is the pre-apply projection for a playbook run
type Estimate struct {
	PlaybookKey     string `json:"playbook_key"`
	RulesHash       string `json:"rules_hash"`
	AffectedItems   int    `json:"affected_items"`
	ReusableDrafts  int    `json:"reusable_drafts"`
	NewGenerations  int    `json:"new_generations"`
	EstimatedTokens int    `json:"estimated_tokens"`
	Allowed         bool   `json:"allowed"`
	QuotaRemaining  int    `json:"quota_remaining"`
}
