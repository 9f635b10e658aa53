package ledger

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/brokerd/money"
)

func newTestSQLite(t *testing.T) (*SQLite, string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	s, err := NewSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s, path
}

func newTestAccount(t *testing.T, s *SQLite, cash string) int64 {
	t.Helper()

	accountID, err := s.CreateAccount(context.Background(), money.MustFromString(cash))
	require.NoError(t, err)
	return accountID
}

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	s, path := newTestSQLite(t)
	assert.NoError(t, s.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table' AND name IN ('accounts','purchases','sales')`)
	require.NoError(t, err)
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		assert.NoError(t, rows.Scan(&name))
		found[name] = true
	}
	assert.NoError(t, rows.Err())

	assert.True(t, found["accounts"])
	assert.True(t, found["purchases"])
	assert.True(t, found["sales"])
}

func TestCreateAccountAndCash(t *testing.T) {
	t.Parallel()

	s, _ := newTestSQLite(t)
	ctx := context.Background()

	accountID := newTestAccount(t, s, "10000.00")

	cash, err := s.Cash(ctx, accountID)
	require.NoError(t, err)
	assert.True(t, cash.Equal(money.MustFromString("10000.00")))

	_, err = s.Cash(ctx, accountID+99)
	assert.ErrorIs(t, err, ErrAccountNotFound)

	_, err = s.CreateAccount(ctx, money.MustFromString("-1"))
	assert.ErrorIs(t, err, ErrNegativeCash)
}

func TestStorageFailureSurfaced(t *testing.T) {
	t.Parallel()

	s, _ := newTestSQLite(t)
	ctx := context.Background()
	accountID := newTestAccount(t, s, "10000.00")

	require.NoError(t, s.Close())

	// Every operation against a dead store reports the distinct storage
	// failure kind; callers retry from scratch instead of assuming success.
	err := s.CommitPurchase(ctx, Purchase{
		AccountID: accountID, Symbol: "AAA", Company: "Triple A Corp",
		Shares: 1, PricePerShare: money.MustFromString("50.00"),
	})
	assert.ErrorIs(t, err, ErrStorage)

	err = s.CommitSale(ctx, Sale{
		AccountID: accountID, Symbol: "AAA", Company: "Triple A Corp",
		Shares: 1, PricePerShare: money.MustFromString("50.00"),
	})
	assert.ErrorIs(t, err, ErrStorage)

	_, err = s.Cash(ctx, accountID)
	assert.ErrorIs(t, err, ErrStorage)

	_, err = s.Positions(ctx, accountID)
	assert.ErrorIs(t, err, ErrStorage)

	_, err = s.Transactions(ctx, accountID)
	assert.ErrorIs(t, err, ErrStorage)

	_, err = s.CreateAccount(ctx, money.MustFromString("100.00"))
	assert.ErrorIs(t, err, ErrStorage)

	var streamed int
	for _, err := range s.History(ctx, accountID) {
		assert.ErrorIs(t, err, ErrStorage)
		streamed++
	}
	assert.Equal(t, 1, streamed)
}

func TestCommitPurchase(t *testing.T) {
	t.Parallel()

	s, _ := newTestSQLite(t)
	ctx := context.Background()
	accountID := newTestAccount(t, s, "10000.00")

	err := s.CommitPurchase(ctx, Purchase{
		AccountID:     accountID,
		Symbol:        "AAA",
		Company:       "Triple A Corp",
		Shares:        10,
		PricePerShare: money.MustFromString("50.00"),
	})
	require.NoError(t, err)

	cash, err := s.Cash(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, "9500.00", cash.Display())

	net, err := s.NetShares(ctx, accountID, "AAA")
	require.NoError(t, err)
	assert.Equal(t, int64(10), net)
}

func TestCommitPurchaseInsufficientFunds(t *testing.T) {
	t.Parallel()

	s, _ := newTestSQLite(t)
	ctx := context.Background()
	accountID := newTestAccount(t, s, "100.00")

	err := s.CommitPurchase(ctx, Purchase{
		AccountID:     accountID,
		Symbol:        "AAA",
		Company:       "Triple A Corp",
		Shares:        10,
		PricePerShare: money.MustFromString("50.00"),
	})
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	// Rejection leaves both ledger and cash untouched.
	cash, err := s.Cash(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, "100.00", cash.Display())

	txs, err := s.Transactions(ctx, accountID)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestCommitSaleInsufficientShares(t *testing.T) {
	t.Parallel()

	s, _ := newTestSQLite(t)
	ctx := context.Background()
	accountID := newTestAccount(t, s, "10000.00")

	require.NoError(t, s.CommitPurchase(ctx, Purchase{
		AccountID: accountID, Symbol: "AAA", Company: "Triple A Corp",
		Shares: 5, PricePerShare: money.MustFromString("50.00"),
	}))

	err := s.CommitSale(ctx, Sale{
		AccountID: accountID, Symbol: "AAA", Company: "Triple A Corp",
		Shares: 6, PricePerShare: money.MustFromString("60.00"),
	})
	assert.ErrorIs(t, err, ErrInsufficientShares)

	cash, err := s.Cash(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, "9750.00", cash.Display())

	net, err := s.NetShares(ctx, accountID, "AAA")
	require.NoError(t, err)
	assert.Equal(t, int64(5), net)

	// Selling a never-owned symbol is the same rejection.
	err = s.CommitSale(ctx, Sale{
		AccountID: accountID, Symbol: "ZZZ", Company: "Z",
		Shares: 1, PricePerShare: money.MustFromString("1.00"),
	})
	assert.ErrorIs(t, err, ErrInsufficientShares)
}

func TestBuySellScenario(t *testing.T) {
	t.Parallel()

	s, _ := newTestSQLite(t)
	ctx := context.Background()
	accountID := newTestAccount(t, s, "10000.00")

	// Buy 10 AAA at 50.00.
	require.NoError(t, s.CommitPurchase(ctx, Purchase{
		AccountID: accountID, Symbol: "AAA", Company: "Triple A Corp",
		Shares: 10, PricePerShare: money.MustFromString("50.00"),
	}))
	cash, err := s.Cash(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, "9500.00", cash.Display())

	// Sell 4 at 60.00.
	require.NoError(t, s.CommitSale(ctx, Sale{
		AccountID: accountID, Symbol: "AAA", Company: "Triple A Corp",
		Shares: 4, PricePerShare: money.MustFromString("60.00"),
	}))
	cash, err = s.Cash(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, "9740.00", cash.Display())

	net, err := s.NetShares(ctx, accountID, "AAA")
	require.NoError(t, err)
	assert.Equal(t, int64(6), net)

	// Selling 10 now must be rejected and change nothing.
	err = s.CommitSale(ctx, Sale{
		AccountID: accountID, Symbol: "AAA", Company: "Triple A Corp",
		Shares: 10, PricePerShare: money.MustFromString("60.00"),
	})
	assert.ErrorIs(t, err, ErrInsufficientShares)

	cash, err = s.Cash(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, "9740.00", cash.Display())
}

func TestPositionsKeepZeroShareRows(t *testing.T) {
	t.Parallel()

	s, _ := newTestSQLite(t)
	ctx := context.Background()
	accountID := newTestAccount(t, s, "10000.00")

	require.NoError(t, s.CommitPurchase(ctx, Purchase{
		AccountID: accountID, Symbol: "AAA", Company: "Triple A Corp",
		Shares: 10, PricePerShare: money.MustFromString("10.00"),
	}))
	require.NoError(t, s.CommitPurchase(ctx, Purchase{
		AccountID: accountID, Symbol: "BBB", Company: "Bee Inc",
		Shares: 3, PricePerShare: money.MustFromString("20.00"),
	}))
	require.NoError(t, s.CommitSale(ctx, Sale{
		AccountID: accountID, Symbol: "AAA", Company: "Triple A Corp",
		Shares: 10, PricePerShare: money.MustFromString("11.00"),
	}))

	positions, err := s.Positions(ctx, accountID)
	require.NoError(t, err)
	require.Len(t, positions, 2)

	// Fully exited symbols stay visible with zero shares.
	assert.Equal(t, Position{Symbol: "AAA", Company: "Triple A Corp", Shares: 0}, positions[0])
	assert.Equal(t, Position{Symbol: "BBB", Company: "Bee Inc", Shares: 3}, positions[1])
}

func TestPositionsScopedToAccount(t *testing.T) {
	t.Parallel()

	s, _ := newTestSQLite(t)
	ctx := context.Background()
	first := newTestAccount(t, s, "10000.00")
	second := newTestAccount(t, s, "10000.00")

	require.NoError(t, s.CommitPurchase(ctx, Purchase{
		AccountID: first, Symbol: "AAA", Company: "Triple A Corp",
		Shares: 10, PricePerShare: money.MustFromString("10.00"),
	}))

	positions, err := s.Positions(ctx, second)
	require.NoError(t, err)
	assert.Empty(t, positions)

	net, err := s.NetShares(ctx, second, "AAA")
	require.NoError(t, err)
	assert.Zero(t, net)
}

func TestTransactionsOrdering(t *testing.T) {
	t.Parallel()

	s, _ := newTestSQLite(t)
	ctx := context.Background()
	accountID := newTestAccount(t, s, "10000.00")

	t0 := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)

	require.NoError(t, s.CommitPurchase(ctx, Purchase{
		AccountID: accountID, Symbol: "AAA", Company: "Triple A Corp",
		Shares: 10, PricePerShare: money.MustFromString("50.00"), Time: t0,
	}))
	// Same timestamp: insertion order (ULID) breaks the tie.
	require.NoError(t, s.CommitSale(ctx, Sale{
		AccountID: accountID, Symbol: "AAA", Company: "Triple A Corp",
		Shares: 4, PricePerShare: money.MustFromString("60.00"), Time: t0,
	}))
	require.NoError(t, s.CommitPurchase(ctx, Purchase{
		AccountID: accountID, Symbol: "BBB", Company: "Bee Inc",
		Shares: 2, PricePerShare: money.MustFromString("20.00"), Time: t0.Add(time.Hour),
	}))

	txs, err := s.Transactions(ctx, accountID)
	require.NoError(t, err)
	require.Len(t, txs, 3)

	assert.Equal(t, int64(10), txs[0].Shares)
	assert.Equal(t, int64(-4), txs[1].Shares)
	assert.Equal(t, "AAA", txs[1].Symbol)
	assert.Equal(t, "BBB", txs[2].Symbol)
	assert.Equal(t, int64(2), txs[2].Shares)
}

func TestHistorySeq(t *testing.T) {
	t.Parallel()

	s, _ := newTestSQLite(t)
	ctx := context.Background()
	accountID := newTestAccount(t, s, "10000.00")

	for range 3 {
		require.NoError(t, s.CommitPurchase(ctx, Purchase{
			AccountID: accountID, Symbol: "AAA", Company: "Triple A Corp",
			Shares: 1, PricePerShare: money.MustFromString("1.00"),
		}))
	}

	seq := s.History(ctx, accountID)

	var count int
	for tx, err := range seq {
		require.NoError(t, err)
		assert.Equal(t, "AAA", tx.Symbol)
		count++
	}
	assert.Equal(t, 3, count)

	// The sequence is restartable, and breaking out early is fine.
	count = 0
	for _, err := range seq {
		require.NoError(t, err)
		count++
		if count == 2 {
			break
		}
	}
	assert.Equal(t, 2, count)
}

func TestConcurrentDisjointTrades(t *testing.T) {
	t.Parallel()

	s, _ := newTestSQLite(t)
	ctx := context.Background()
	accountID := newTestAccount(t, s, "10000.00")

	require.NoError(t, s.CommitPurchase(ctx, Purchase{
		AccountID: accountID, Symbol: "BBB", Company: "Bee Inc",
		Shares: 5, PricePerShare: money.MustFromString("100.00"),
	}))
	// cash now 9500.00, 5 BBB owned

	var wg sync.WaitGroup
	errs := make([]error, 2)

	wg.Add(2)
	go func() {
		defer wg.Done()
		errs[0] = s.CommitPurchase(ctx, Purchase{
			AccountID: accountID, Symbol: "AAA", Company: "Triple A Corp",
			Shares: 10, PricePerShare: money.MustFromString("50.00"),
		})
	}()
	go func() {
		defer wg.Done()
		errs[1] = s.CommitSale(ctx, Sale{
			AccountID: accountID, Symbol: "BBB", Company: "Bee Inc",
			Shares: 5, PricePerShare: money.MustFromString("110.00"),
		})
	}()
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	// 9500 - 500 + 550: both trades applied, no lost update.
	cash, err := s.Cash(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, "9550.00", cash.Display())
}

func TestConcurrentCompetingSells(t *testing.T) {
	t.Parallel()

	s, _ := newTestSQLite(t)
	ctx := context.Background()
	accountID := newTestAccount(t, s, "10000.00")

	require.NoError(t, s.CommitPurchase(ctx, Purchase{
		AccountID: accountID, Symbol: "AAA", Company: "Triple A Corp",
		Shares: 10, PricePerShare: money.MustFromString("50.00"),
	}))

	var wg sync.WaitGroup
	errs := make([]error, 2)

	// Two sells of all 10 shares race; only one may commit.
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = s.CommitSale(ctx, Sale{
				AccountID: accountID, Symbol: "AAA", Company: "Triple A Corp",
				Shares: 10, PricePerShare: money.MustFromString("60.00"),
			})
		}()
	}
	wg.Wait()

	var committed, rejected int
	for _, err := range errs {
		if err == nil {
			committed++
		} else {
			assert.ErrorIs(t, err, ErrInsufficientShares)
			rejected++
		}
	}
	assert.Equal(t, 1, committed)
	assert.Equal(t, 1, rejected)

	net, err := s.NetShares(ctx, accountID, "AAA")
	require.NoError(t, err)
	assert.Equal(t, int64(0), net)

	cash, err := s.Cash(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, "10100.00", cash.Display()) // 10000 - 500 + 600
}

func TestReplayEquationHolds(t *testing.T) {
	t.Parallel()

	s, _ := newTestSQLite(t)
	ctx := context.Background()
	accountID := newTestAccount(t, s, "10000.00")

	type step struct {
		sell   bool
		shares int64
		price  string
	}
	steps := []step{
		{false, 10, "50.00"},
		{false, 3, "49.95"},
		{true, 4, "60.00"},
		{false, 7, "51.10"},
		{true, 16, "55.55"},
	}

	expected := money.MustFromString("10000.00")
	for _, st := range steps {
		price := money.MustFromString(st.price)
		if st.sell {
			require.NoError(t, s.CommitSale(ctx, Sale{
				AccountID: accountID, Symbol: "AAA", Company: "Triple A Corp",
				Shares: st.shares, PricePerShare: price,
			}))
			expected = expected.Add(price.MulInt64(st.shares))
		} else {
			require.NoError(t, s.CommitPurchase(ctx, Purchase{
				AccountID: accountID, Symbol: "AAA", Company: "Triple A Corp",
				Shares: st.shares, PricePerShare: price,
			}))
			expected = expected.Sub(price.MulInt64(st.shares))
		}
	}

	cash, err := s.Cash(ctx, accountID)
	require.NoError(t, err)
	assert.True(t, cash.Equal(expected), "cash %s, want %s", cash, expected)
	assert.False(t, cash.IsNegative())

	net, err := s.NetShares(ctx, accountID, "AAA")
	require.NoError(t, err)
	assert.Equal(t, int64(0), net)
}
