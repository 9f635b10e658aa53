package ledger

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

// ExportCSV writes a transaction history as CSV, one signed row per trade.
func ExportCSV(w io.Writer, txs []Transaction) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"id", "symbol", "shares", "price_per_share", "time"}); err != nil {
		return err
	}

	for _, t := range txs {
		if err := cw.Write([]string{
			t.ID,
			t.Symbol,
			strconv.FormatInt(t.Shares, 10),
			t.PricePerShare.String(),
			t.Time.Format(time.RFC3339),
		}); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
