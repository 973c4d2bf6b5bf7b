package wallet

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rewearhq/rewear/internal/clock"
)

func TestService_Transfer(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	makeSvc := func(balances map[string]int64) (*Service, *fakeWalletRepo) {
		repo := newFakeWalletRepo(balances)
		return NewService(repo, clock.NewFixed(now)), repo
	}

	t.Run("moves points and writes both ledger rows", func(t *testing.T) {
		svc, repo := makeSvc(map[string]int64{"alice": 100, "bob": 20})

		if err := svc.Transfer(context.Background(), "alice", "bob", 30, "swap-1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := repo.balances["alice"]; got != 70 {
			t.Fatalf("expected alice at 70, got %d", got)
		}
		if got := repo.balances["bob"]; got != 50 {
			t.Fatalf("expected bob at 50, got %d", got)
		}
		if len(repo.transactions) != 2 {
			t.Fatalf("expected paired debit+credit rows, got %d", len(repo.transactions))
		}
		if repo.transactions[0].Type != EntryDebit || repo.transactions[1].Type != EntryCredit {
			t.Fatalf("expected debit then credit, got %v then %v",
				repo.transactions[0].Type, repo.transactions[1].Type)
		}
	})

	t.Run("conserves total points", func(t *testing.T) {
		svc, repo := makeSvc(map[string]int64{"alice": 100, "bob": 20, "carol": 5})
		before := repo.total()

		if err := svc.Transfer(context.Background(), "alice", "carol", 42, "swap-2"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if after := repo.total(); after != before {
			t.Fatalf("points not conserved: %d before, %d after", before, after)
		}
	})

	t.Run("insufficient balance leaves no partial state", func(t *testing.T) {
		svc, repo := makeSvc(map[string]int64{"alice": 10, "bob": 0})

		err := svc.Transfer(context.Background(), "alice", "bob", 50, "swap-3")
		if !errors.Is(err, ErrInsufficientPoints) {
			t.Fatalf("expected ErrInsufficientPoints, got %v", err)
		}
		if repo.balances["alice"] != 10 || repo.balances["bob"] != 0 {
			t.Fatalf("balances changed on failed transfer: %v", repo.balances)
		}
		if len(repo.transactions) != 0 {
			t.Fatalf("expected no ledger rows, got %d", len(repo.transactions))
		}
	})

	t.Run("failed credit side rolls back the debit", func(t *testing.T) {
		svc, repo := makeSvc(map[string]int64{"alice": 100})
		// bob has no wallet: the credit side fails after the debit applied.

		err := svc.Transfer(context.Background(), "alice", "bob", 30, "swap-4")
		if !errors.Is(err, ErrWalletNotFound) {
			t.Fatalf("expected ErrWalletNotFound, got %v", err)
		}
		if repo.balances["alice"] != 100 {
			t.Fatalf("debit must roll back with the failed credit, alice at %d", repo.balances["alice"])
		}
		if len(repo.transactions) != 0 {
			t.Fatalf("expected no ledger rows after rollback, got %d", len(repo.transactions))
		}
	})

	t.Run("negative amount rejected", func(t *testing.T) {
		svc, _ := makeSvc(map[string]int64{"alice": 100, "bob": 0})
		if err := svc.Transfer(context.Background(), "alice", "bob", -5, "swap-5"); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("expected ErrInvalidAmount, got %v", err)
		}
	})

	t.Run("self transfer rejected", func(t *testing.T) {
		svc, _ := makeSvc(map[string]int64{"alice": 100})
		if err := svc.Transfer(context.Background(), "alice", "alice", 5, "swap-6"); !errors.Is(err, ErrSameAccount) {
			t.Fatalf("expected ErrSameAccount, got %v", err)
		}
	})

	t.Run("concurrent transfers never interleave into a negative balance", func(t *testing.T) {
		svc, repo := makeSvc(map[string]int64{"alice": 50, "bob": 50})
		before := repo.total()

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				from, to := "alice", "bob"
				if i%2 == 0 {
					from, to = to, from
				}
				// Losing an individual race is fine; going negative is not.
				_ = svc.Transfer(context.Background(), from, to, 30, "swap-race")
			}(i)
		}
		wg.Wait()

		if repo.balances["alice"] < 0 || repo.balances["bob"] < 0 {
			t.Fatalf("balance went negative: %v", repo.balances)
		}
		if after := repo.total(); after != before {
			t.Fatalf("points not conserved under concurrency: %d before, %d after", before, after)
		}
	})
}

func TestService_CreditAndGrant(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("credit rejects negative amounts", func(t *testing.T) {
		repo := newFakeWalletRepo(map[string]int64{"alice": 0})
		svc := NewService(repo, clock.NewFixed(now))
		if err := svc.Credit(context.Background(), "alice", -1, "oops"); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("expected ErrInvalidAmount, got %v", err)
		}
	})

	t.Run("grant credits and records the reference", func(t *testing.T) {
		repo := newFakeWalletRepo(map[string]int64{"alice": 5})
		svc := NewService(repo, clock.NewFixed(now))
		if err := svc.Grant(context.Background(), "alice", 100, "admin:welcome"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if repo.balances["alice"] != 105 {
			t.Fatalf("expected 105, got %d", repo.balances["alice"])
		}
		if len(repo.transactions) != 1 || repo.transactions[0].Reference != "admin:welcome" {
			t.Fatalf("expected one ledger row with the grant reference, got %+v", repo.transactions)
		}
	})

	t.Run("grant rejects zero", func(t *testing.T) {
		repo := newFakeWalletRepo(map[string]int64{"alice": 5})
		svc := NewService(repo, clock.NewFixed(now))
		if err := svc.Grant(context.Background(), "alice", 0, "admin"); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("expected ErrInvalidAmount, got %v", err)
		}
	})
}

// fakeWalletRepo simulates transactional storage: WithTx serializes callers
// and restores a snapshot when fn fails, so atomicity claims are actually
// exercised.
type fakeWalletRepo struct {
	mu           sync.Mutex
	balances     map[string]int64
	transactions []Transaction
}

func newFakeWalletRepo(balances map[string]int64) *fakeWalletRepo {
	b := make(map[string]int64, len(balances))
	for id, v := range balances {
		b[id] = v
	}
	return &fakeWalletRepo{balances: b}
}

func (f *fakeWalletRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	snapshot := make(map[string]int64, len(f.balances))
	for id, v := range f.balances {
		snapshot[id] = v
	}
	txLen := len(f.transactions)

	if err := fn(ctx); err != nil {
		f.balances = snapshot
		f.transactions = f.transactions[:txLen]
		return err
	}
	return nil
}

func (f *fakeWalletRepo) GetBalance(_ context.Context, userID string) (int64, error) {
	return f.getBalance(userID)
}

func (f *fakeWalletRepo) GetBalanceForUpdate(_ context.Context, userID string) (int64, error) {
	return f.getBalance(userID)
}

func (f *fakeWalletRepo) getBalance(userID string) (int64, error) {
	balance, ok := f.balances[userID]
	if !ok {
		return 0, ErrWalletNotFound
	}
	return balance, nil
}

func (f *fakeWalletRepo) AddToBalance(_ context.Context, userID string, delta int64) error {
	if _, ok := f.balances[userID]; !ok {
		return ErrWalletNotFound
	}
	f.balances[userID] += delta
	return nil
}

func (f *fakeWalletRepo) InsertTransaction(_ context.Context, tx Transaction) error {
	f.transactions = append(f.transactions, tx)
	return nil
}

func (f *fakeWalletRepo) ListTransactions(_ context.Context, userID string) ([]Transaction, error) {
	var out []Transaction
	for _, tx := range f.transactions {
		if tx.UserID == userID {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (f *fakeWalletRepo) ListAllTransactions(_ context.Context, limit int) ([]Transaction, error) {
	out := make([]Transaction, len(f.transactions))
	copy(out, f.transactions)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeWalletRepo) total() int64 {
	var total int64
	for _, v := range f.balances {
		total += v
	}
	return total
}
