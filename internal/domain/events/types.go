package events

// EventType identifies a domain event on the bus
type EventType string

const (
	// CrawlCompleted fires after a crawl snapshot and audit finish
	CrawlCompleted EventType = "crawl.completed"

	// DraftApplied fires after a draft is written back to the storefront
	DraftApplied EventType = "draft.applied"

	// RunCompleted fires when a playbook run reaches a terminal state
	RunCompleted EventType = "run.completed"
)
