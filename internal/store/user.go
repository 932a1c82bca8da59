package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/projtrack/apiserver/types"
)

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, first_name, last_name, company_name, role, password_hash,
	email_verified, enabled,
	verification_code, verification_code_expiry,
	password_reset_code, password_reset_code_expiry,
	created_at, updated_at`

func scanUser(row *sql.Row) (types.User, error) {
	var user types.User
	var role string
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.CompanyName,
		&role,
		&user.PasswordHash,
		&user.EmailVerified,
		&user.Enabled,
		&user.VerificationCode,
		&user.VerificationCodeExpiry,
		&user.PasswordResetCode,
		&user.PasswordResetCodeExpiry,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	user.Role = types.ParseRole(role)
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (types.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

// GetByEmail looks a user up by lowercased email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, types.NormalizeEmail(email)))
}

func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.Email = types.NormalizeEmail(user.Email)

	const query = `
		INSERT INTO users (email, first_name, last_name, company_name, role, password_hash,
			email_verified, enabled,
			verification_code, verification_code_expiry,
			password_reset_code, password_reset_code_expiry,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		user.Email,
		user.FirstName,
		user.LastName,
		user.CompanyName,
		string(user.Role),
		user.PasswordHash,
		user.EmailVerified,
		user.Enabled,
		user.VerificationCode,
		user.VerificationCodeExpiry,
		user.PasswordResetCode,
		user.PasswordResetCodeExpiry,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID); err != nil {
		return types.User{}, err
	}
	return user, nil
}

func (r *UserRepository) Update(ctx context.Context, user types.User) (types.User, error) {
	user.UpdatedAt = time.Now()

	const query = `
		UPDATE users
		SET email = $1,
			first_name = $2,
			last_name = $3,
			company_name = $4,
			role = $5,
			password_hash = $6,
			email_verified = $7,
			enabled = $8,
			verification_code = $9,
			verification_code_expiry = $10,
			password_reset_code = $11,
			password_reset_code_expiry = $12,
			updated_at = $13
		WHERE id = $14`
	result, err := r.db.ExecContext(
		ctx,
		query,
		types.NormalizeEmail(user.Email),
		user.FirstName,
		user.LastName,
		user.CompanyName,
		string(user.Role),
		user.PasswordHash,
		user.EmailVerified,
		user.Enabled,
		user.VerificationCode,
		user.VerificationCodeExpiry,
		user.PasswordResetCode,
		user.PasswordResetCodeExpiry,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return types.User{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.User{}, err
	}
	if affected == 0 {
		return types.User{}, ErrNotFound
	}
	return user, nil
}
