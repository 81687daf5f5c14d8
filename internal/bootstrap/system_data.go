package bootstrap

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/engineo/backend/internal/domain/models"
	"github.com/engineo/backend/internal/infrastructure/database"
	"github.com/engineo/backend/internal/infrastructure/persistence"
	"github.com/engineo/backend/pkg/auth"
	"github.com/engineo/backend/pkg/constants"
)

const defaultAdminEmail = "admin@engineo.local"

// InitializeSystemData ensures the admin account exists. Credentials come
// from ENGINEO_ADMIN_EMAIL / ENGINEO_ADMIN_PASSWORD; without a password no
// account is created, which is the right default for production.
func InitializeSystemData(db *database.Connection) error {
	log.Println("🔧 Initializing system data...")

	email := os.Getenv("ENGINEO_ADMIN_EMAIL")
	if email == "" {
		email = defaultAdminEmail
	}
	password := os.Getenv("ENGINEO_ADMIN_PASSWORD")
	if password == "" {
		log.Println("   ⏭️ ENGINEO_ADMIN_PASSWORD not set, skipping admin seed")
		return nil
	}

	ctx := context.Background()
	users := persistence.NewUserRepository(db.DB())

	exists, err := users.CheckUserExistsByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to check admin account: %w", err)
	}
	if exists {
		log.Printf("   ✅ Admin account %s already exists", email)
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := &models.User{
		Email:        email,
		Name:         "Administrator",
		PasswordHash: hash,
		Role:         constants.RoleAdmin,
	}
	if _, err := users.Insert(ctx, admin); err != nil {
		return fmt.Errorf("failed to create admin account: %w", err)
	}

	log.Printf("   ✅ Created admin account %s", email)
	return nil
}
