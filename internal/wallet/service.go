package wallet

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/rewearhq/rewear/internal/clock"
)

var (
	ErrWalletNotFound     = errors.New("wallet not found")
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrSameAccount        = errors.New("cannot transfer to the same account")
)

// Repository is the storage contract for wallets. WithTx runs fn inside one
// database transaction; repository calls made with fn's context join it, so
// a debit and its paired credit commit together or not at all.
type Repository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetBalance(ctx context.Context, userID string) (int64, error)
	// GetBalanceForUpdate locks the wallet row for the rest of the
	// transaction. Debit checks must use this, never the plain read.
	GetBalanceForUpdate(ctx context.Context, userID string) (int64, error)
	AddToBalance(ctx context.Context, userID string, delta int64) error
	InsertTransaction(ctx context.Context, tx Transaction) error
	ListTransactions(ctx context.Context, userID string) ([]Transaction, error)
	ListAllTransactions(ctx context.Context, limit int) ([]Transaction, error)
}

type Service struct {
	repo  Repository
	clock clock.Clock
}

func NewService(repo Repository, clk clock.Clock) *Service {
	return &Service{repo: repo, clock: clk}
}

func (s *Service) Balance(ctx context.Context, userID string) (int64, error) {
	return s.repo.GetBalance(ctx, userID)
}

func (s *Service) Transactions(ctx context.Context, userID string) ([]Transaction, error) {
	return s.repo.ListTransactions(ctx, userID)
}

// AllTransactions is the admin view of the whole ledger, newest first.
func (s *Service) AllTransactions(ctx context.Context, limit int) ([]Transaction, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.repo.ListAllTransactions(ctx, limit)
}

// Debit removes amount from the user's balance, failing with
// ErrInsufficientPoints when the locked balance cannot cover it.
func (s *Service) Debit(ctx context.Context, userID string, amount int64, reference string) error {
	if amount < 0 {
		return ErrInvalidAmount
	}
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		return s.debitLocked(txCtx, userID, amount, reference)
	})
}

// Credit adds amount to the user's balance.
func (s *Service) Credit(ctx context.Context, userID string, amount int64, reference string) error {
	if amount < 0 {
		return ErrInvalidAmount
	}
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		return s.creditLocked(txCtx, userID, amount, reference)
	})
}

// Grant is the admin top-up path: a credit recorded against an operator
// reference. It sits outside points conservation on purpose.
func (s *Service) Grant(ctx context.Context, userID string, amount int64, reference string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	return s.Credit(ctx, userID, amount, reference)
}

// Transfer moves amount between two wallets as one atomic unit. This is the
// only way the swap ledger may move points: the debit and the credit are
// committed together, so no caller can observe one without the other.
func (s *Service) Transfer(ctx context.Context, fromID, toID string, amount int64, reference string) error {
	if amount < 0 {
		return ErrInvalidAmount
	}
	if fromID == toID {
		return ErrSameAccount
	}
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		// Lock both wallets in a stable order so opposing transfers
		// cannot deadlock.
		first, second := fromID, toID
		if second < first {
			first, second = second, first
		}
		if _, err := s.repo.GetBalanceForUpdate(txCtx, first); err != nil {
			return err
		}
		if _, err := s.repo.GetBalanceForUpdate(txCtx, second); err != nil {
			return err
		}
		if err := s.debitLocked(txCtx, fromID, amount, reference); err != nil {
			return err
		}
		return s.creditLocked(txCtx, toID, amount, reference)
	})
}

// debitLocked assumes it runs inside a transaction. The balance check and the
// update are one step under the row lock, not a check-then-write.
func (s *Service) debitLocked(ctx context.Context, userID string, amount int64, reference string) error {
	balance, err := s.repo.GetBalanceForUpdate(ctx, userID)
	if err != nil {
		return err
	}
	if amount > balance {
		return ErrInsufficientPoints
	}
	if err := s.repo.AddToBalance(ctx, userID, -amount); err != nil {
		return err
	}
	return s.repo.InsertTransaction(ctx, Transaction{
		ID:        uuid.New().String(),
		UserID:    userID,
		Amount:    amount,
		Type:      EntryDebit,
		Reference: reference,
		CreatedAt: s.clock.Now(),
	})
}

func (s *Service) creditLocked(ctx context.Context, userID string, amount int64, reference string) error {
	if _, err := s.repo.GetBalanceForUpdate(ctx, userID); err != nil {
		return err
	}
	if err := s.repo.AddToBalance(ctx, userID, amount); err != nil {
		return err
	}
	return s.repo.InsertTransaction(ctx, Transaction{
		ID:        uuid.New().String(),
		UserID:    userID,
		Amount:    amount,
		Type:      EntryCredit,
		Reference: reference,
		CreatedAt: s.clock.Now(),
	})
}
