package models

import "time"

// CrawlResult is a snapshot of one storefront entity taken during a crawl.
// The audit engine evaluates playbook rules against these rows.
type CrawlResult struct {
	ID             string    `json:"id"`
	ProjectID      string    `json:"project_id"`
	ScopeType      string    `json:"scope_type"`
	ScopeID        string    `json:"scope_id"`
	Handle         string    `json:"handle"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Body           string    `json:"body"`
	URL            string    `json:"url"`
	SeoTitle       string    `json:"seo_title"`
	SeoDescription string    `json:"seo_description"`
	CrawledAt      time.Time `json:"crawled_at"`
}

// RuleEnv builds the environment a playbook detection rule is evaluated
// against. Keys are part of the catalog contract: rules reference them.
func (c *CrawlResult) RuleEnv() map[string]interface{} {
	return map[string]interface{}{
		"scope_type":      c.ScopeType,
		"handle":          c.Handle,
		"title":           c.Title,
		"description":     c.Description,
		"body":            c.Body,
		"body_length":     len(c.Body),
		"seo_title":       c.SeoTitle,
		"seo_description": c.SeoDescription,
	}
}

// FieldValue returns the current value of an optimizable field
func (c *CrawlResult) FieldValue(field string) string {
	switch field {
	case "seo_title":
		return c.SeoTitle
	case "seo_description":
		return c.SeoDescription
	case "title":
		return c.Title
	case "description":
		return c.Description
	case "body":
		return c.Body
	}
	return ""
}
