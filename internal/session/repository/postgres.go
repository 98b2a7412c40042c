package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ecc-auth/internal/session/domain"
)

// PostgresRepository persists sessions via database/sql with the pgx driver.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a session repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const sessionColumns = `id, user_id, token, device_info, ip_address, location, is_active, created_at, last_active`

// GetByID returns the session for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id)
	return scanSession(row)
}

// GetByToken returns the active session with the given token, or nil.
func (r *PostgresRepository) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE token = $1 AND is_active`, token)
	return scanSession(row)
}

// ListActiveByUser returns all active sessions for a user, most-recently-active first.
func (r *PostgresRepository) ListActiveByUser(ctx context.Context, userID string) ([]*domain.Session, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions
		 WHERE user_id = $1 AND is_active
		 ORDER BY last_active DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Session
	for rows.Next() {
		var s domain.Session
		if err := rows.Scan(&s.ID, &s.UserID, &s.Token, &s.DeviceInfo, &s.IPAddress,
			&s.Location, &s.IsActive, &s.CreatedAt, &s.LastActive); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

// Create persists the session to the database. The session must have ID and Token set.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, token, device_info, ip_address, location, is_active, created_at, last_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		s.ID, s.UserID, s.Token, s.DeviceInfo, s.IPAddress, s.Location, s.IsActive, s.CreatedAt, s.LastActive)
	return err
}

// Invalidate sets active=false. Idempotent; no error when the session is already inactive or absent.
func (r *PostgresRepository) Invalidate(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE sessions SET is_active = FALSE WHERE id = $1`, id)
	return err
}

// InvalidateAllExcept sets active=false on every active session of the user
// other than keepID and reports how many sessions it revoked.
func (r *PostgresRepository) InvalidateAllExcept(ctx context.Context, userID, keepID string) (int, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET is_active = FALSE WHERE user_id = $1 AND is_active AND id <> $2`,
		userID, keepID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// Touch bumps the session's last-active timestamp.
func (r *PostgresRepository) Touch(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE sessions SET last_active = $2 WHERE id = $1`, id, at)
	return err
}

func scanSession(row *sql.Row) (*domain.Session, error) {
	var s domain.Session
	err := row.Scan(&s.ID, &s.UserID, &s.Token, &s.DeviceInfo, &s.IPAddress,
		&s.Location, &s.IsActive, &s.CreatedAt, &s.LastActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}
