package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/brokerd/money"
	"github.com/rustyeddy/brokerd/pkg/id"
)

// SQLite implements Store on a local SQLite database.
//
// The connection string requests immediate transactions, so BeginTx takes the
// write lock up front and two concurrent trades on the same database serialize
// instead of deadlocking at commit time. The balance/position check runs again
// inside that transaction, which closes the check-then-act race between
// reading a balance and debiting it.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_busy_timeout=5000&_txlock=immediate&_foreign_keys=on"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) CreateAccount(ctx context.Context, cash money.Money) (int64, error) {
	if cash.IsNegative() {
		return 0, fmt.Errorf("%w: %s", ErrNegativeCash, cash)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (cash) VALUES (?)`, cash)
	if err != nil {
		return 0, fmt.Errorf("%w: create account: %v", ErrStorage, err)
	}

	accountID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: create account: %v", ErrStorage, err)
	}
	return accountID, nil
}

func (s *SQLite) Cash(ctx context.Context, accountID int64) (money.Money, error) {
	var cash money.Money
	err := s.db.QueryRowContext(ctx,
		`SELECT cash FROM accounts WHERE id = ?`, accountID).Scan(&cash)
	if errors.Is(err, sql.ErrNoRows) {
		return money.Money{}, ErrAccountNotFound
	}
	if err != nil {
		return money.Money{}, fmt.Errorf("%w: read cash: %v", ErrStorage, err)
	}
	return cash, nil
}

// Positions returns net shares per symbol for every symbol the account has
// ever purchased, zero-share rows included.
func (s *SQLite) Positions(ctx context.Context, accountID int64) ([]Position, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			symbol,
			company,
			SUM(shares) - COALESCE((
				SELECT SUM(shares) FROM sales
				WHERE account_id = ?1 AND sales.symbol = purchases.symbol
			), 0) AS net
		FROM purchases
		WHERE account_id = ?1
		GROUP BY symbol
		ORDER BY symbol ASC`, accountID)
	if err != nil {
		return nil, fmt.Errorf("%w: positions: %v", ErrStorage, err)
	}
	defer rows.Close()

	var out []Position
	for rows.Next() {
		var p Position
		if err := rows.Scan(&p.Symbol, &p.Company, &p.Shares); err != nil {
			return nil, fmt.Errorf("%w: positions: %v", ErrStorage, err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: positions: %v", ErrStorage, err)
	}
	return out, nil
}

func (s *SQLite) NetShares(ctx context.Context, accountID int64, symbol string) (int64, error) {
	return netShares(ctx, s.db, accountID, symbol)
}

// querier covers both *sql.DB and *sql.Tx, so the same net-shares aggregate
// serves read-only callers and the in-transaction re-check.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func netShares(ctx context.Context, q querier, accountID int64, symbol string) (int64, error) {
	var net int64
	err := q.QueryRowContext(ctx, `
		SELECT
			COALESCE((SELECT SUM(shares) FROM purchases WHERE account_id = ?1 AND symbol = ?2), 0)
			-
			COALESCE((SELECT SUM(shares) FROM sales WHERE account_id = ?1 AND symbol = ?2), 0)`,
		accountID, symbol).Scan(&net)
	if err != nil {
		return 0, fmt.Errorf("%w: net shares: %v", ErrStorage, err)
	}
	return net, nil
}

func cashForUpdate(ctx context.Context, tx *sql.Tx, accountID int64) (money.Money, error) {
	var cash money.Money
	err := tx.QueryRowContext(ctx,
		`SELECT cash FROM accounts WHERE id = ?`, accountID).Scan(&cash)
	if errors.Is(err, sql.ErrNoRows) {
		return money.Money{}, ErrAccountNotFound
	}
	if err != nil {
		return money.Money{}, fmt.Errorf("%w: read cash: %v", ErrStorage, err)
	}
	return cash, nil
}

// CommitPurchase inserts the purchase row and debits the account in one
// transaction. The funds check runs on the in-transaction balance, so a
// concurrent trade on the same account cannot make both succeed when only one
// should.
func (s *SQLite) CommitPurchase(ctx context.Context, p Purchase) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrStorage, err)
	}
	defer tx.Rollback()

	cash, err := cashForUpdate(ctx, tx, p.AccountID)
	if err != nil {
		return err
	}

	cost := p.PricePerShare.MulInt64(p.Shares)
	if cash.LessThan(cost) {
		return fmt.Errorf("%w: need %s, have %s", ErrInsufficientFunds, cost.Display(), cash.Display())
	}

	if p.ID == "" {
		p.ID = id.New()
	}
	if p.Time.IsZero() {
		p.Time = time.Now().UTC()
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO purchases (id, account_id, symbol, company, shares, price_per_share, time)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.AccountID, p.Symbol, p.Company, p.Shares, p.PricePerShare, p.Time,
	); err != nil {
		return fmt.Errorf("%w: insert purchase: %v", ErrStorage, err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE accounts SET cash = ? WHERE id = ?`,
		cash.Sub(cost), p.AccountID,
	); err != nil {
		return fmt.Errorf("%w: debit cash: %v", ErrStorage, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit purchase: %v", ErrStorage, err)
	}
	return nil
}

// CommitSale inserts the sale row and credits the account in one transaction.
// The owned-shares check runs on in-transaction ledger sums; net shares can
// never go negative through this path.
func (s *SQLite) CommitSale(ctx context.Context, sale Sale) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrStorage, err)
	}
	defer tx.Rollback()

	cash, err := cashForUpdate(ctx, tx, sale.AccountID)
	if err != nil {
		return err
	}

	owned, err := netShares(ctx, tx, sale.AccountID, sale.Symbol)
	if err != nil {
		return err
	}
	if sale.Shares > owned {
		return fmt.Errorf("%w: selling %d, own %d", ErrInsufficientShares, sale.Shares, owned)
	}

	if sale.ID == "" {
		sale.ID = id.New()
	}
	if sale.Time.IsZero() {
		sale.Time = time.Now().UTC()
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO sales (id, account_id, symbol, company, shares, price_per_share, time)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sale.ID, sale.AccountID, sale.Symbol, sale.Company, sale.Shares, sale.PricePerShare, sale.Time,
	); err != nil {
		return fmt.Errorf("%w: insert sale: %v", ErrStorage, err)
	}

	proceeds := sale.PricePerShare.MulInt64(sale.Shares)
	if _, err := tx.ExecContext(ctx,
		`UPDATE accounts SET cash = ? WHERE id = ?`,
		cash.Add(proceeds), sale.AccountID,
	); err != nil {
		return fmt.Errorf("%w: credit cash: %v", ErrStorage, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit sale: %v", ErrStorage, err)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
