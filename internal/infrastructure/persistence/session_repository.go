package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/engineo/backend/internal/domain/models"
	"github.com/engineo/backend/pkg/constants"
)

// SessionRepository handles database operations for login sessions
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Insert creates a new session in the database
func (r *SessionRepository) Insert(ctx context.Context, session *models.Session) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, user_id, token, expires_at, ip_address, user_agent, is_revoked, last_activity, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, NOW())`,
		constants.TableSession)

	_, err := r.db.ExecContext(ctx, query,
		session.ID,
		session.UserID,
		session.Token,
		session.ExpiresAt,
		session.IPAddress,
		session.UserAgent,
		session.IsRevoked,
		session.LastActivity,
	)
	return err
}

// Get retrieves a session by its ID (from JWT claim), or nil when absent
func (r *SessionRepository) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, token, expires_at, ip_address, user_agent, is_revoked, last_activity, created_at
		FROM %s
		WHERE id = ? LIMIT 1`,
		constants.TableSession)

	var s models.Session
	var expiresRaw, lastActivityRaw, createdRaw []byte

	err := r.db.QueryRowContext(ctx, query, sessionID).Scan(
		&s.ID,
		&s.UserID,
		&s.Token,
		&expiresRaw,
		&s.IPAddress,
		&s.UserAgent,
		&s.IsRevoked,
		&lastActivityRaw,
		&createdRaw,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	s.ExpiresAt = parseTime(expiresRaw)
	s.LastActivity = parseTime(lastActivityRaw)
	s.CreatedAt = parseTime(createdRaw)

	return &s, nil
}

// Revoke marks a session as revoked
func (r *SessionRepository) Revoke(ctx context.Context, sessionID string) error {
	query := fmt.Sprintf("UPDATE %s SET is_revoked = 1 WHERE id = ?", constants.TableSession)
	_, err := r.db.ExecContext(ctx, query, sessionID)
	return err
}

// TouchActivity updates the last activity timestamp
func (r *SessionRepository) TouchActivity(ctx context.Context, sessionID string) error {
	query := fmt.Sprintf("UPDATE %s SET last_activity = NOW() WHERE id = ?", constants.TableSession)
	_, err := r.db.ExecContext(ctx, query, sessionID)
	return err
}
