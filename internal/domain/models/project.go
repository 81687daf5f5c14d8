package models

import "time"

// Project represents a Shopify store under optimization
type Project struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	ShopDomain string    `json:"shop_domain"`
	Plan       string    `json:"plan"`
	OwnerID    string    `json:"owner_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Integration represents a storefront connection for a project.
// Only the shopify provider exists today.
type Integration struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"project_id"`
	Provider    string     `json:"provider"`
	ShopDomain  string     `json:"shop_domain"`
	AccessToken string     `json:"-"`
	Status      string     `json:"status"`
	ConnectedAt *time.Time `json:"connected_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
