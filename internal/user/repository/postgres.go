package repository

import (
	"context"
	"database/sql"
	"errors"

	"ecc-auth/internal/user/domain"
)

// PostgresRepository persists users via database/sql with the pgx driver.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a user repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, username, email, public_key, otp_enabled, otp_secret, created_at`

// GetByID returns the user for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetByUsername returns the user with the given username, or nil if not found.
func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	return scanUser(row)
}

// GetByEmail returns the user with the given email, or nil if not found.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// Create persists the user to the database. The user must have ID set; it is not assigned by this method.
func (r *PostgresRepository) Create(ctx context.Context, u *domain.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, username, email, public_key, otp_enabled, otp_secret, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		u.ID, u.Username, u.Email, u.PublicKey, u.OTPEnabled,
		sql.NullString{String: u.OTPSecret, Valid: u.OTPSecret != ""}, u.CreatedAt)
	return err
}

// SetOTPSecret stores the per-user TOTP secret. Returns an error if the update fails.
func (r *PostgresRepository) SetOTPSecret(ctx context.Context, userID, secret string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET otp_secret = $2 WHERE id = $1`, userID, secret)
	return err
}

func scanUser(row *sql.Row) (*domain.User, error) {
	var u domain.User
	var otpSecret sql.NullString
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PublicKey, &u.OTPEnabled, &otpSecret, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if otpSecret.Valid {
		u.OTPSecret = otpSecret.String
	}
	return &u, nil
}
