package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/engineo/backend/internal/domain/ports"
	"github.com/engineo/backend/pkg/constants"
)

// APIVersion is the pinned Shopify Admin API version
const APIVersion = "2024-07"

// pageSize is the Admin API maximum page size
const pageSize = 250

// Client is a Shopify Admin REST API client implementing ports.Storefront
type Client struct {
	ShopDomain  string
	AccessToken string
	HTTPClient  *http.Client
}

// Ensure Client implements ports.Storefront at compile time
var _ ports.Storefront = (*Client)(nil)

// NewClient creates a new Admin API client for a shop
func NewClient(shopDomain, accessToken string) *Client {
	return &Client{
		ShopDomain:  shopDomain,
		AccessToken: accessToken,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// doRequest executes an Admin API request and decodes the JSON response
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		jsonBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonBytes)
	}

	fullURL := fmt.Sprintf("https://%s/admin/api/%s%s", c.ShopDomain, APIVersion, path)
	req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(constants.HeaderShopifyToken, c.AccessToken)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= 400 {
		respBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("shopify api error (%d): %s", resp.StatusCode, string(respBytes))
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// ErrNotFound is returned when the Admin API reports a missing resource
var ErrNotFound = fmt.Errorf("shopify resource not found")

// GetShop verifies credentials and returns shop identity
func (c *Client) GetShop(ctx context.Context) (*ports.StorefrontShop, error) {
	var resp struct {
		Shop struct {
			Name   string `json:"name"`
			Domain string `json:"myshopify_domain"`
		} `json:"shop"`
	}

	if err := c.doRequest(ctx, http.MethodGet, "/shop.json", nil, &resp); err != nil {
		return nil, err
	}

	return &ports.StorefrontShop{
		Name:   resp.Shop.Name,
		Domain: resp.Shop.Domain,
	}, nil
}

// ListEntities pages through all entities of one scope type.
// SEO title/description live in the global metafields, fetched per entity.
func (c *Client) ListEntities(ctx context.Context, scopeType string) ([]ports.StorefrontEntity, error) {
	var entities []ports.StorefrontEntity
	sinceID := int64(0)

	for {
		batch, err := c.listPage(ctx, scopeType, sinceID)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}

		for i := range batch {
			seoTitle, seoDescription, err := c.getSEOMetafields(ctx, scopeType, batch[i].id)
			if err != nil {
				return nil, err
			}
			e := batch[i].toEntity(c.ShopDomain, scopeType)
			e.SeoTitle = seoTitle
			e.SeoDescription = seoDescription
			entities = append(entities, e)
			sinceID = batch[i].id
		}

		if len(batch) < pageSize {
			break
		}
	}

	return entities, nil
}

// GetEntityByHandle fetches the live entity, or nil when the handle is gone
func (c *Client) GetEntityByHandle(ctx context.Context, scopeType, handle string) (*ports.StorefrontEntity, error) {
	path := fmt.Sprintf("/%s.json?handle=%s&limit=1", resourceName(scopeType), handle)

	var resp map[string][]resource
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}

	batch := resp[resourceName(scopeType)]
	if len(batch) == 0 {
		return nil, nil
	}

	seoTitle, seoDescription, err := c.getSEOMetafields(ctx, scopeType, batch[0].id())
	if err != nil {
		return nil, err
	}
	e := batch[0].toRaw().toEntity(c.ShopDomain, scopeType)
	e.SeoTitle = seoTitle
	e.SeoDescription = seoDescription
	return &e, nil
}

// UpdateEntityField writes one optimizable field back to the store
func (c *Client) UpdateEntityField(ctx context.Context, scopeType, scopeID, field, value string) error {
	name := resourceName(scopeType)
	path := fmt.Sprintf("/%s/%s.json", name, scopeID)

	attrs := map[string]interface{}{"id": scopeID}
	switch field {
	case "seo_title":
		attrs["metafields_global_title_tag"] = value
	case "seo_description":
		attrs["metafields_global_description_tag"] = value
	case "title":
		attrs["title"] = value
	case "body", "description":
		attrs[bodyField(scopeType)] = value
	default:
		return fmt.Errorf("unsupported field %q for %s update", field, scopeType)
	}

	body := map[string]interface{}{singularName(scopeType): attrs}
	return c.doRequest(ctx, http.MethodPut, path, body, nil)
}

// listPage fetches one page of raw resources
func (c *Client) listPage(ctx context.Context, scopeType string, sinceID int64) ([]rawResource, error) {
	name := resourceName(scopeType)
	path := fmt.Sprintf("/%s.json?limit=%d&since_id=%d", name, pageSize, sinceID)

	var resp map[string][]resource
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}

	var raws []rawResource
	for _, res := range resp[name] {
		raws = append(raws, res.toRaw())
	}
	return raws, nil
}

// getSEOMetafields reads the global title/description tags for one entity
func (c *Client) getSEOMetafields(ctx context.Context, scopeType string, id int64) (string, string, error) {
	path := fmt.Sprintf("/%s/%d/metafields.json?namespace=global", resourceName(scopeType), id)

	var resp struct {
		Metafields []struct {
			Key   string `json:"key"`
			Value string `json:"value"`
		} `json:"metafields"`
	}
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return "", "", err
	}

	var title, description string
	for _, m := range resp.Metafields {
		switch m.Key {
		case "title_tag":
			title = m.Value
		case "description_tag":
			description = m.Value
		}
	}
	return title, description, nil
}

// resourceName maps a scope type to its Admin API collection name
func resourceName(scopeType string) string {
	switch scopeType {
	case constants.ScopeProduct:
		return "products"
	case constants.ScopePage:
		return "pages"
	case constants.ScopeCollection:
		return "custom_collections"
	}
	return scopeType + "s"
}

// singularName maps a scope type to its Admin API payload key
func singularName(scopeType string) string {
	switch scopeType {
	case constants.ScopeCollection:
		return "custom_collection"
	}
	return scopeType
}

// bodyField maps a scope type to its body attribute name
func bodyField(scopeType string) string {
	if scopeType == constants.ScopePage {
		return "body_html"
	}
	// Products and collections both use body_html too; kept for clarity
	return "body_html"
}
