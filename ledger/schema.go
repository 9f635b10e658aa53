package ledger

// Money columns are TEXT holding exact decimal strings; SQLite REAL would
// reintroduce the floating-point drift the money package exists to prevent.
const Schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	cash TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS purchases (
	id TEXT PRIMARY KEY,
	account_id INTEGER NOT NULL REFERENCES accounts(id),
	symbol TEXT NOT NULL,
	company TEXT NOT NULL,
	shares INTEGER NOT NULL CHECK (shares > 0),
	price_per_share TEXT NOT NULL,
	time DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS sales (
	id TEXT PRIMARY KEY,
	account_id INTEGER NOT NULL REFERENCES accounts(id),
	symbol TEXT NOT NULL,
	company TEXT NOT NULL,
	shares INTEGER NOT NULL CHECK (shares > 0),
	price_per_share TEXT NOT NULL,
	time DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_purchases_account_symbol ON purchases(account_id, symbol);
CREATE INDEX IF NOT EXISTS idx_sales_account_symbol ON sales(account_id, symbol);
`
