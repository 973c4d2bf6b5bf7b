package wallet

import "time"

// Wallet is a user's points account. Balance never goes negative.
type Wallet struct {
	UserID    string    `json:"user_id"`
	Balance   int64     `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
}

type EntryType string

const (
	EntryDebit  EntryType = "debit"
	EntryCredit EntryType = "credit"
)

// Transaction is one ledger entry. A transfer always writes a debit and a
// credit row inside the same database transaction, so the ledger can only
// ever show both sides or neither.
type Transaction struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Amount    int64     `json:"amount"`
	Type      EntryType `json:"type"`
	Reference string    `json:"reference"`
	CreatedAt time.Time `json:"created_at"`
}
