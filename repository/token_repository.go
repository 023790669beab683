// file: repository/token_repository.go

package repository

import (
	"context"
	"database/sql"
	"vidtube-api/logger"
)

// ITokenRepository defines the operations on the single refresh credential slot of an account.
type ITokenRepository interface {
	SetRefreshToken(ctx context.Context, userID, token string) error
	SwapRefreshToken(ctx context.Context, userID, current, next string) (bool, error)
	ClearRefreshToken(ctx context.Context, userID string) error
}

// TokenRepository implements ITokenRepository on the users table.
type TokenRepository struct {
	DB *sql.DB
}

// NewTokenRepository creates a new TokenRepository.
func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{DB: db}
}

// SetRefreshToken overwrites the stored refresh credential in a single statement.
// It returns sql.ErrNoRows when the account does not exist.
func (r *TokenRepository) SetRefreshToken(ctx context.Context, userID, token string) error {
	log := logger.Log.WithField("user_id", userID)
	log.Info("Executing query to store refresh token")

	query := `UPDATE users SET refresh_token = $1, updated_at = NOW() WHERE id = $2`
	res, err := r.DB.ExecContext(ctx, query, token, userID)
	if err != nil {
		log.WithError(err).Error("Failed to execute store refresh token query")
		return err
	}
	return expectOneRow(res)
}

// SwapRefreshToken replaces current with next only if current is still the stored value.
// The row lock taken by UPDATE serializes concurrent swaps, so at most one caller
// presenting the same current value gets true.
func (r *TokenRepository) SwapRefreshToken(ctx context.Context, userID, current, next string) (bool, error) {
	log := logger.Log.WithField("user_id", userID)
	log.Info("Executing query to rotate refresh token")

	query := `UPDATE users SET refresh_token = $1, updated_at = NOW() WHERE id = $2 AND refresh_token = $3`
	res, err := r.DB.ExecContext(ctx, query, next, userID, current)
	if err != nil {
		log.WithError(err).Error("Failed to execute rotate refresh token query")
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ClearRefreshToken removes the stored refresh credential. Clearing an
// already empty slot is not an error.
func (r *TokenRepository) ClearRefreshToken(ctx context.Context, userID string) error {
	log := logger.Log.WithField("user_id", userID)
	log.Info("Executing query to clear refresh token")

	query := `UPDATE users SET refresh_token = NULL, updated_at = NOW() WHERE id = $1`
	if _, err := r.DB.ExecContext(ctx, query, userID); err != nil {
		log.WithError(err).Error("Failed to execute clear refresh token query")
		return err
	}
	return nil
}
