package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/nestlyflow/nestlyflow-go/internal/model"
)

var ErrResetTokenNotFound = errors.New("password reset token not found")

// ResetTokenRepository handles password reset token persistence.
type ResetTokenRepository struct {
	db *sql.DB
}

// NewResetTokenRepository creates a new ResetTokenRepository.
func NewResetTokenRepository(db *sql.DB) *ResetTokenRepository {
	return &ResetTokenRepository{db: db}
}

// Create inserts a new reset token and sets the generated ID on the struct.
func (r *ResetTokenRepository) Create(ctx context.Context, token *model.PasswordResetToken) error {
	query := `INSERT INTO password_reset_tokens (user_id, token, expires_at) VALUES (?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query, token.UserID, token.Token, token.ExpiresAt)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	token.ID = id
	return nil
}

// GetByToken retrieves a reset token by its opaque token string.
func (r *ResetTokenRepository) GetByToken(ctx context.Context, token string) (*model.PasswordResetToken, error) {
	query := `SELECT id, user_id, token, expires_at FROM password_reset_tokens WHERE token = ?`

	t := &model.PasswordResetToken{}
	err := r.db.QueryRowContext(ctx, query, token).Scan(&t.ID, &t.UserID, &t.Token, &t.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrResetTokenNotFound
		}
		return nil, err
	}
	return t, nil
}

// Delete removes a reset token by ID. Deleting an already-deleted token is
// not an error; the reset flow treats tokens as single-use either way.
func (r *ResetTokenRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM password_reset_tokens WHERE id = ?`, id)
	return err
}
