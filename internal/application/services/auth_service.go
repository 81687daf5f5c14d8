package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/engineo/backend/internal/domain/models"
	"github.com/engineo/backend/internal/infrastructure/database"
	"github.com/engineo/backend/internal/infrastructure/persistence"
	"github.com/engineo/backend/pkg/auth"
	"github.com/engineo/backend/pkg/constants"
	"github.com/engineo/backend/pkg/errors"
)

// AuthService handles registration, login, session management, and password
// operations
type AuthService struct {
	users    *persistence.UserRepository
	sessions *persistence.SessionRepository
}

// NewAuthService creates a new AuthService
func NewAuthService(db *database.Connection) *AuthService {
	return &AuthService{
		users:    persistence.NewUserRepository(db.DB()),
		sessions: persistence.NewSessionRepository(db.DB()),
	}
}

// LoginResult contains the result of a successful login
type LoginResult struct {
	Token     string
	User      auth.UserSession
	ExpiresAt time.Time
}

// Register creates a new account with the member role
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	if !auth.IsValidEmail(email) {
		return nil, errors.NewValidationError("email", "invalid email address")
	}
	if err := auth.ValidatePasswordStrength(password); err != nil {
		return nil, errors.NewValidationError("password", err.Error())
	}

	exists, err := s.users.CheckUserExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if exists {
		return nil, errors.NewConflictError("User", "an account with this email already exists")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         constants.RoleMember,
	}
	if _, err := s.users.Insert(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.Printf("✅ Registered user %s", email)
	return user, nil
}

// Login authenticates a user and creates a session
func (s *AuthService) Login(ctx context.Context, email, password, ip, userAgent string) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if user == nil {
		log.Printf("⚠️ Login failed for %s: user not found", email)
		return nil, errors.NewUnauthorizedError("Invalid email or password")
	}

	if !auth.VerifyPassword(password, user.PasswordHash) {
		log.Printf("⚠️ Login failed for %s: invalid password", email)
		return nil, errors.NewUnauthorizedError("Invalid email or password")
	}

	userSession := auth.UserSession{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	}

	token, err := auth.GenerateToken(userSession)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	// The jti claim keys the DB session row so tokens can be revoked
	claims, _ := auth.DecodeToken(token)
	expiresAt := claims.ExpiresAt.Time

	session := &models.Session{
		ID:           claims.RegisteredClaims.ID,
		UserID:       user.ID,
		Token:        token,
		ExpiresAt:    expiresAt,
		IPAddress:    ip,
		UserAgent:    userAgent,
		IsRevoked:    false,
		LastActivity: time.Now(),
	}
	if err := s.sessions.Insert(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	return &LoginResult{
		Token:     token,
		User:      userSession,
		ExpiresAt: expiresAt,
	}, nil
}

// ValidateSession checks if a session token is valid and active in the database
func (s *AuthService) ValidateSession(ctx context.Context, tokenString string) (*auth.Claims, error) {
	claims, err := auth.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.Get(ctx, claims.RegisteredClaims.ID)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if session == nil {
		return nil, errors.NewUnauthorizedError("Session not found")
	}
	if session.IsRevoked {
		return nil, errors.NewUnauthorizedError("Session has been revoked")
	}
	if time.Now().After(session.ExpiresAt) {
		return nil, errors.NewUnauthorizedError("Session expired")
	}

	// Best effort; stale last_activity is harmless
	_ = s.sessions.TouchActivity(ctx, session.ID)

	return claims, nil
}

// Logout revokes the session behind the token
func (s *AuthService) Logout(ctx context.Context, tokenString string) error {
	claims, err := auth.DecodeToken(tokenString)
	if err != nil {
		return errors.NewUnauthorizedError("Invalid token")
	}
	return s.sessions.Revoke(ctx, claims.RegisteredClaims.ID)
}

// ChangePassword verifies the current password and stores a new hash
func (s *AuthService) ChangePassword(ctx context.Context, userID, current, next string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if user == nil {
		return errors.NewNotFoundError("User", userID)
	}

	if !auth.VerifyPassword(current, user.PasswordHash) {
		return errors.NewUnauthorizedError("Current password is incorrect")
	}
	if err := auth.ValidatePasswordStrength(next); err != nil {
		return errors.NewValidationError("password", err.Error())
	}

	hash, err := auth.HashPassword(next)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.users.UpdatePassword(ctx, userID, hash)
}

// GetUser returns the account behind a user ID
func (s *AuthService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if user == nil {
		return nil, errors.NewNotFoundError("User", userID)
	}
	return user, nil
}
