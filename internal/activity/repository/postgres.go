package repository

import (
	"context"
	"database/sql"

	"ecc-auth/internal/activity/domain"
)

// PostgresRepository persists login activity via database/sql with the pgx driver.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an activity repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create appends one immutable login-activity record.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.LoginActivity) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO login_activities (id, user_id, ip_address, device_info, location, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.UserID, a.IPAddress, a.DeviceInfo, a.Location, string(a.Status), a.CreatedAt)
	return err
}

// ListRecentByUser returns the user's most recent activity, newest first,
// bounded by limit (DefaultLimit when limit <= 0).
func (r *PostgresRepository) ListRecentByUser(ctx context.Context, userID string, limit int) ([]*domain.LoginActivity, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, ip_address, device_info, location, status, created_at
		 FROM login_activities
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.LoginActivity
	for rows.Next() {
		var a domain.LoginActivity
		var status string
		if err := rows.Scan(&a.ID, &a.UserID, &a.IPAddress, &a.DeviceInfo, &a.Location, &status, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Status = domain.Status(status)
		out = append(out, &a)
	}
	return out, rows.Err()
}
