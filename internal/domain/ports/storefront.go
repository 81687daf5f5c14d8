package ports

import "context"

// StorefrontEntity is the provider-neutral view of one catalog entity
type StorefrontEntity struct {
	ScopeType      string
	ScopeID        string
	Handle         string
	Title          string
	Description    string
	Body           string
	URL            string
	SeoTitle       string
	SeoDescription string
}

// StorefrontShop identifies the connected shop
type StorefrontShop struct {
	Name   string
	Domain string
}

// Storefront abstracts the Shopify Admin API surface the crawler and the
// draft apply path need
type Storefront interface {
	// GetShop verifies credentials and returns shop identity
	GetShop(ctx context.Context) (*StorefrontShop, error)

	// ListEntities pages through all entities of one scope type
	ListEntities(ctx context.Context, scopeType string) ([]StorefrontEntity, error)

	// GetEntityByHandle fetches the live entity, or nil when the handle is gone
	GetEntityByHandle(ctx context.Context, scopeType, handle string) (*StorefrontEntity, error)

	// UpdateEntityField writes one optimizable field back to the store
	UpdateEntityField(ctx context.Context, scopeType, scopeID, field, value string) error
}
