package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/engineo/backend/internal/domain/models"
	"github.com/engineo/backend/internal/domain/ports"
	"github.com/engineo/backend/internal/infrastructure/database"
	"github.com/engineo/backend/internal/infrastructure/persistence"
	"github.com/engineo/backend/internal/infrastructure/shopify"
	"github.com/engineo/backend/pkg/constants"
	"github.com/engineo/backend/pkg/errors"
)

// ProviderShopify is the only storefront provider supported today
const ProviderShopify = "shopify"

// StorefrontFactory builds a storefront client from stored credentials.
// Tests swap this for a fake.
type StorefrontFactory func(shopDomain, accessToken string) ports.Storefront

// IntegrationService manages storefront connections and hands out
// authenticated clients to the crawl and apply paths
type IntegrationService struct {
	integrations *persistence.IntegrationRepository
	factory      StorefrontFactory
}

// NewIntegrationService creates a new IntegrationService
func NewIntegrationService(db *database.Connection) *IntegrationService {
	return &IntegrationService{
		integrations: persistence.NewIntegrationRepository(db.DB()),
		factory: func(shopDomain, accessToken string) ports.Storefront {
			return shopify.NewClient(shopDomain, accessToken)
		},
	}
}

// SetStorefrontFactory overrides client construction (testing)
func (s *IntegrationService) SetStorefrontFactory(f StorefrontFactory) {
	s.factory = f
}

// Connect verifies the credentials against the live shop and stores them
func (s *IntegrationService) Connect(ctx context.Context, projectID, shopDomain, accessToken string) (*models.Integration, error) {
	if shopDomain == "" || accessToken == "" {
		return nil, errors.NewValidationError("integration", "shop_domain and access_token are required")
	}

	client := s.factory(shopDomain, accessToken)
	shop, err := client.GetShop(ctx)
	if err != nil {
		log.Printf("⚠️ Shopify connection check failed for %s: %v", shopDomain, err)
		return nil, errors.NewValidationError("access_token", "could not authenticate against the shop")
	}

	now := time.Now()
	integration := &models.Integration{
		ProjectID:   projectID,
		Provider:    ProviderShopify,
		ShopDomain:  shop.Domain,
		AccessToken: accessToken,
		Status:      constants.IntegrationConnected,
		ConnectedAt: &now,
	}
	if _, err := s.integrations.Upsert(ctx, integration); err != nil {
		return nil, fmt.Errorf("failed to store integration: %w", err)
	}

	log.Printf("✅ Connected shop %s to project %s", shop.Domain, projectID)
	return integration, nil
}

// Get returns the project's integration, or a not-found error
func (s *IntegrationService) Get(ctx context.Context, projectID string) (*models.Integration, error) {
	integration, err := s.integrations.GetByProject(ctx, projectID, ProviderShopify)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if integration == nil {
		return nil, errors.NewNotFoundError("Integration", projectID)
	}
	return integration, nil
}

// Client returns an authenticated storefront client for the project
func (s *IntegrationService) Client(ctx context.Context, projectID string) (ports.Storefront, error) {
	integration, err := s.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if integration.Status != constants.IntegrationConnected {
		return nil, errors.NewValidationError("integration", "storefront is not connected")
	}
	return s.factory(integration.ShopDomain, integration.AccessToken), nil
}

// Disconnect marks the integration disconnected without dropping history
func (s *IntegrationService) Disconnect(ctx context.Context, projectID string) error {
	integration, err := s.Get(ctx, projectID)
	if err != nil {
		return err
	}
	return s.integrations.UpdateStatus(ctx, integration.ID, constants.IntegrationDisconnected)
}

// MarkError flags the integration after repeated API failures
func (s *IntegrationService) MarkError(ctx context.Context, projectID string) {
	integration, err := s.Get(ctx, projectID)
	if err != nil {
		return
	}
	if err := s.integrations.UpdateStatus(ctx, integration.ID, constants.IntegrationError); err != nil {
		log.Printf("⚠️ Failed to mark integration error for project %s: %v", projectID, err)
	}
}
