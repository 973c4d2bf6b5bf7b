package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rewearhq/rewear/internal/wallet"
)

type WalletRepository struct {
	pool *pgxpool.Pool
}

func NewWalletRepository(pool *pgxpool.Pool) *WalletRepository {
	return &WalletRepository{pool: pool}
}

func (r *WalletRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *WalletRepository) GetBalance(ctx context.Context, userID string) (int64, error) {
	return r.balance(ctx, userID, `SELECT balance FROM wallets WHERE user_id = $1`)
}

func (r *WalletRepository) GetBalanceForUpdate(ctx context.Context, userID string) (int64, error) {
	return r.balance(ctx, userID, `SELECT balance FROM wallets WHERE user_id = $1 FOR UPDATE`)
}

func (r *WalletRepository) balance(ctx context.Context, userID, query string) (int64, error) {
	var balance int64
	err := conn(ctx, r.pool).QueryRow(ctx, query, userID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) || isInvalidUUID(err) {
		return 0, wallet.ErrWalletNotFound
	}
	if err != nil {
		return 0, err
	}
	return balance, nil
}

func (r *WalletRepository) AddToBalance(ctx context.Context, userID string, delta int64) error {
	tag, err := conn(ctx, r.pool).Exec(ctx,
		`UPDATE wallets SET balance = balance + $1 WHERE user_id = $2`,
		delta, userID,
	)
	if isInvalidUUID(err) {
		return wallet.ErrWalletNotFound
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return wallet.ErrWalletNotFound
	}
	return nil
}

func (r *WalletRepository) InsertTransaction(ctx context.Context, tx wallet.Transaction) error {
	_, err := conn(ctx, r.pool).Exec(ctx,
		`INSERT INTO wallet_transactions (id, user_id, amount, type, reference, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		tx.ID, tx.UserID, tx.Amount, string(tx.Type), tx.Reference, tx.CreatedAt,
	)
	return err
}

func (r *WalletRepository) ListTransactions(ctx context.Context, userID string) ([]wallet.Transaction, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT id, user_id, amount, type, reference, created_at
		 FROM wallet_transactions
		 WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
	if isInvalidUUID(err) {
		return nil, wallet.ErrWalletNotFound
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []wallet.Transaction
	for rows.Next() {
		var tx wallet.Transaction
		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.Amount, &tx.Type, &tx.Reference, &tx.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

// ListAllTransactions is the admin ledger view, newest entries first.
func (r *WalletRepository) ListAllTransactions(ctx context.Context, limit int) ([]wallet.Transaction, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT id, user_id, amount, type, reference, created_at
		 FROM wallet_transactions
		 ORDER BY created_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []wallet.Transaction
	for rows.Next() {
		var tx wallet.Transaction
		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.Amount, &tx.Type, &tx.Reference, &tx.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

// CreateWallet opens an empty account. Signup calls this inside the same
// transaction that inserts the user row.
func (r *WalletRepository) CreateWallet(ctx context.Context, userID string) error {
	_, err := conn(ctx, r.pool).Exec(ctx,
		`INSERT INTO wallets (user_id, balance, created_at) VALUES ($1, 0, now())`,
		userID,
	)
	if isUniqueViolation(err) {
		return nil
	}
	return err
}
