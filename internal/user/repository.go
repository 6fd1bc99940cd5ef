package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrResetTokenNotFound = errors.New("password reset token not found")
)

type Repository interface {
	createUser(ctx context.Context, user *User) error
	getUserByEmail(ctx context.Context, email string) (*User, error)
	getUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	userExists(ctx context.Context, id uuid.UUID) (bool, error)
	identityConflicts(ctx context.Context, email, ssnLast4 string, dateOfBirth time.Time) (IdentityConflicts, error)
	emailInUseByOther(ctx context.Context, email string, userID uuid.UUID) (bool, error)
	customerNumberExists(ctx context.Context, number string) (bool, error)
	updateProfile(ctx context.Context, user *User) error
	updatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
	replaceResetToken(ctx context.Context, token *ResetToken) error
	getResetToken(ctx context.Context, token string) (*ResetToken, error)
	consumeResetToken(ctx context.Context, token *ResetToken, passwordHash string, usedAt time.Time) error
	purgeExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) Repository {
	return &userRepository{
		db: db,
	}
}

const selectUser = `
	SELECT id, email, password_hash, first_name, last_name, customer_number, date_of_birth, ssn_last4,
	       phone, address_line1, address_line2, city, state, postal_code, created_at, updated_at
	FROM users`

func scanUser(row interface{ Scan(dest ...interface{}) error }) (*User, error) {
	var (
		user         User
		phone, line2 sql.NullString
	)
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.FirstName, &user.LastName, &user.CustomerNumber,
		&user.DateOfBirth, &user.SSNLast4, &phone, &user.AddressLine1, &line2, &user.City, &user.State,
		&user.PostalCode, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if phone.Valid {
		user.Phone = &phone.String
	}
	if line2.Valid {
		user.AddressLine2 = &line2.String
	}
	return &user, nil
}

func (r *userRepository) createUser(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, email, password_hash, first_name, last_name, customer_number, date_of_birth, ssn_last4,
		                   phone, address_line1, address_line2, city, state, postal_code, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	_, err := r.db.ExecContext(ctx, query, user.ID, user.Email, user.PasswordHash, user.FirstName, user.LastName,
		user.CustomerNumber, user.DateOfBirth, user.SSNLast4, user.Phone, user.AddressLine1, user.AddressLine2,
		user.City, user.State, user.PostalCode, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("could not create user: %w", err)
	}
	return nil
}

func (r *userRepository) getUserByEmail(ctx context.Context, email string) (*User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, selectUser+` WHERE email = $1`, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("could not find user: %w", err)
	}
	return user, nil
}

func (r *userRepository) getUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, selectUser+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("could not find user: %w", err)
	}
	return user, nil
}

func (r *userRepository) userExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("could not check user: %w", err)
	}
	return exists, nil
}

func (r *userRepository) identityConflicts(ctx context.Context, email, ssnLast4 string, dateOfBirth time.Time) (IdentityConflicts, error) {
	query := `
		SELECT
			EXISTS (SELECT 1 FROM users WHERE email = $1),
			EXISTS (SELECT 1 FROM users WHERE ssn_last4 = $2),
			EXISTS (SELECT 1 FROM users WHERE date_of_birth = $3)`

	var conflicts IdentityConflicts
	err := r.db.QueryRowContext(ctx, query, email, ssnLast4, dateOfBirth).
		Scan(&conflicts.Email, &conflicts.SSNLast4, &conflicts.DateOfBirth)
	if err != nil {
		return IdentityConflicts{}, fmt.Errorf("could not check identity conflicts: %w", err)
	}
	return conflicts, nil
}

func (r *userRepository) emailInUseByOther(ctx context.Context, email string, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 AND id <> $2)`, email, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("could not check email: %w", err)
	}
	return exists, nil
}

func (r *userRepository) customerNumberExists(ctx context.Context, number string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE customer_number = $1)`, number).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("could not check customer number: %w", err)
	}
	return exists, nil
}

func (r *userRepository) updateProfile(ctx context.Context, user *User) error {
	query := `
		UPDATE users
		SET email = $1, phone = $2, address_line1 = $3, address_line2 = $4, city = $5, state = $6,
		    postal_code = $7, updated_at = $8
		WHERE id = $9`

	result, err := r.db.ExecContext(ctx, query, user.Email, user.Phone, user.AddressLine1, user.AddressLine2,
		user.City, user.State, user.PostalCode, user.UpdatedAt, user.ID)
	if err != nil {
		return fmt.Errorf("could not update profile: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *userRepository) updatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`, passwordHash, userID)
	if err != nil {
		return fmt.Errorf("could not update password: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// replaceResetToken drops the user's unused tokens and stores the new one.
func (r *userRepository) replaceResetToken(ctx context.Context, token *ResetToken) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer safeRollback(tx)

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM password_reset_tokens WHERE user_id = $1 AND used_at IS NULL`, token.UserID); err != nil {
		return fmt.Errorf("could not delete previous reset tokens: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO password_reset_tokens (id, user_id, token, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		token.ID, token.UserID, token.Token, token.ExpiresAt, token.CreatedAt)
	if err != nil {
		return fmt.Errorf("could not store reset token: %w", err)
	}

	return tx.Commit()
}

func (r *userRepository) getResetToken(ctx context.Context, token string) (*ResetToken, error) {
	var (
		rt     ResetToken
		usedAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, token, expires_at, used_at, created_at
		FROM password_reset_tokens
		WHERE token = $1`, token).Scan(&rt.ID, &rt.UserID, &rt.Token, &rt.ExpiresAt, &usedAt, &rt.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrResetTokenNotFound
		}
		return nil, fmt.Errorf("could not find reset token: %w", err)
	}
	if usedAt.Valid {
		rt.UsedAt = &usedAt.Time
	}
	return &rt, nil
}

// consumeResetToken sets the new password and marks the token used in one transaction.
// A token consumed concurrently is reported as ErrResetTokenNotFound.
func (r *userRepository) consumeResetToken(ctx context.Context, token *ResetToken, passwordHash string, usedAt time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer safeRollback(tx)

	result, err := tx.ExecContext(ctx,
		`UPDATE password_reset_tokens SET used_at = $1 WHERE id = $2 AND used_at IS NULL`, usedAt, token.ID)
	if err != nil {
		return fmt.Errorf("could not mark reset token used: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return ErrResetTokenNotFound
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`, passwordHash, usedAt, token.UserID); err != nil {
		return fmt.Errorf("could not update password: %w", err)
	}

	return tx.Commit()
}

func (r *userRepository) purgeExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM password_reset_tokens WHERE expires_at < $1 OR used_at IS NOT NULL`, now)
	if err != nil {
		return 0, fmt.Errorf("could not purge reset tokens: %w", err)
	}
	return result.RowsAffected()
}

func safeRollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		zap.L().Error("error during transaction rollback", zap.Error(err))
	}
}
