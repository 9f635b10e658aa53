// Package ledger is the durable, transactional store of accounts and the
// append-only purchase/sale log. Cash and positions are only ever changed
// through CommitPurchase/CommitSale, each of which runs its business check and
// its writes inside one storage transaction.
package ledger

import (
	"context"
	"errors"
	"iter"
	"time"

	"github.com/rustyeddy/brokerd/money"
)

var (
	ErrAccountNotFound    = errors.New("ledger: account not found")
	ErrNegativeCash       = errors.New("ledger: negative opening cash")
	ErrInsufficientFunds  = errors.New("ledger: insufficient funds")
	ErrInsufficientShares = errors.New("ledger: insufficient shares")

	// ErrStorage marks commit-level failures (busy database, I/O error). The
	// trade did not happen; callers should retry from scratch, re-reading the
	// quote and the balance.
	ErrStorage = errors.New("ledger: storage failure")
)

// Account holds a cash balance. Cash is invariantly >= 0.
type Account struct {
	ID   int64
	Cash money.Money
}

// Purchase is one buy, immutable once written.
type Purchase struct {
	ID            string
	AccountID     int64
	Symbol        string
	Company       string
	Shares        int64
	PricePerShare money.Money
	Time          time.Time
}

// Sale is one sell, immutable once written.
type Sale struct {
	ID            string
	AccountID     int64
	Symbol        string
	Company       string
	Shares        int64
	PricePerShare money.Money
	Time          time.Time
}

// Position is the derived net share count for one symbol. Symbols that were
// fully sold off stay in the list with Shares == 0.
type Position struct {
	Symbol  string
	Company string
	Shares  int64
}

// Transaction is one history row. Shares is signed: positive for a purchase,
// negative for a sale.
type Transaction struct {
	ID            string
	Symbol        string
	Shares        int64
	PricePerShare money.Money
	Time          time.Time
}

// Store is the ledger contract. Point reads and aggregate queries are
// read-only and safe to call concurrently; the Commit methods are the only
// writers and are serializable per account.
type Store interface {
	CreateAccount(ctx context.Context, cash money.Money) (int64, error)
	Cash(ctx context.Context, accountID int64) (money.Money, error)

	Positions(ctx context.Context, accountID int64) ([]Position, error)
	NetShares(ctx context.Context, accountID int64, symbol string) (int64, error)

	CommitPurchase(ctx context.Context, p Purchase) error
	CommitSale(ctx context.Context, s Sale) error

	Transactions(ctx context.Context, accountID int64) ([]Transaction, error)
	History(ctx context.Context, accountID int64) iter.Seq2[Transaction, error]

	Close() error
}
