package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository is the read side the swap projections need. Account
// creation lives in the auth handlers, which own the signup transaction.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// GetUserName returns the display name, or "" when the user is gone. The
// caller substitutes its own fallback, so absence is not an error here.
func (r *UserRepository) GetUserName(ctx context.Context, id string) (string, error) {
	var name string
	err := conn(ctx, r.pool).QueryRow(ctx, `SELECT name FROM users WHERE id = $1`, id).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) || isInvalidUUID(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return name, nil
}
