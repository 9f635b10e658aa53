package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"iter"
)

// The full trade history of an account: purchases and sales interleaved,
// oldest first, sale share counts negated. Ties on time break on row id, and
// ids are ULIDs, so same-timestamp rows come back in insertion order.
const historyQuery = `
	SELECT id, symbol, shares, price_per_share, time FROM (
		SELECT id, symbol, shares, price_per_share, time
		FROM purchases WHERE account_id = ?1
		UNION ALL
		SELECT id, symbol, -shares AS shares, price_per_share, time
		FROM sales WHERE account_id = ?1
	)
	ORDER BY time ASC, id ASC`

func scanTransaction(rows *sql.Rows) (Transaction, error) {
	var t Transaction
	err := rows.Scan(&t.ID, &t.Symbol, &t.Shares, &t.PricePerShare, &t.Time)
	return t, err
}

// Transactions returns the account's full history as a slice.
func (s *SQLite) Transactions(ctx context.Context, accountID int64) ([]Transaction, error) {
	rows, err := s.db.QueryContext(ctx, historyQuery, accountID)
	if err != nil {
		return nil, fmt.Errorf("%w: history: %v", ErrStorage, err)
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: history: %v", ErrStorage, err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: history: %v", ErrStorage, err)
	}
	return out, nil
}

// History streams the same rows one at a time. Each range over the sequence
// re-runs the query, so the sequence is restartable; breaking out early closes
// the underlying rows.
func (s *SQLite) History(ctx context.Context, accountID int64) iter.Seq2[Transaction, error] {
	return func(yield func(Transaction, error) bool) {
		rows, err := s.db.QueryContext(ctx, historyQuery, accountID)
		if err != nil {
			yield(Transaction{}, fmt.Errorf("%w: history: %v", ErrStorage, err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			t, err := scanTransaction(rows)
			if err != nil {
				yield(Transaction{}, fmt.Errorf("%w: history: %v", ErrStorage, err))
				return
			}
			if !yield(t, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(Transaction{}, fmt.Errorf("%w: history: %v", ErrStorage, err))
		}
	}
}
