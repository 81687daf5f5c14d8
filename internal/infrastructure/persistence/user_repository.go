package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/engineo/backend/internal/domain/models"
	"github.com/engineo/backend/pkg/constants"
	"github.com/engineo/backend/pkg/utils"
)

// UserRepository handles database operations for user accounts
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Insert creates a new user and returns its ID
func (r *UserRepository) Insert(ctx context.Context, user *models.User) (string, error) {
	if user.ID == "" {
		user.ID = utils.GenerateID()
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, email, name, password_hash, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, NOW(), NOW())
	`, constants.TableUser)

	_, err := r.db.ExecContext(ctx, query, user.ID, user.Email, user.Name, user.PasswordHash, user.Role)
	if err != nil {
		return "", fmt.Errorf("failed to insert user: %w", err)
	}
	return user.ID, nil
}

// GetByEmail retrieves a user by email, or nil when absent
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := fmt.Sprintf(`
		SELECT id, email, name, password_hash, role, created_at, updated_at
		FROM %s WHERE email = ? LIMIT 1
	`, constants.TableUser)

	return r.scanUser(r.db.QueryRowContext(ctx, query, email))
}

// GetByID retrieves a user by ID, or nil when absent
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := fmt.Sprintf(`
		SELECT id, email, name, password_hash, role, created_at, updated_at
		FROM %s WHERE id = ? LIMIT 1
	`, constants.TableUser)

	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

// CheckUserExistsByEmail reports whether a user with the email exists
func (r *UserRepository) CheckUserExistsByEmail(ctx context.Context, email string) (bool, error) {
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE %s = ?)", constants.TableUser, constants.FieldEmail)

	var exists bool
	err := r.db.QueryRowContext(ctx, query, email).Scan(&exists)
	return exists, err
}

// UpdatePassword replaces the stored password hash
func (r *UserRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	query := fmt.Sprintf("UPDATE %s SET password_hash = ?, updated_at = NOW() WHERE id = ?", constants.TableUser)
	_, err := r.db.ExecContext(ctx, query, passwordHash, userID)
	return err
}

func (r *UserRepository) scanUser(row Scannable) (*models.User, error) {
	var u models.User
	var createdRaw, updatedRaw []byte

	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &createdRaw, &updatedRaw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	u.CreatedAt = parseTime(createdRaw)
	u.UpdatedAt = parseTime(updatedRaw)
	return &u, nil
}
