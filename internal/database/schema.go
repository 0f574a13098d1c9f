package database

// journalSchema is the single source of truth for the journal database.
//
// account_trades is the one authoritative representation of the
// account/trade many-to-many relation: Account.trades and Trade.accounts
// are both views over these rows, which is what keeps the two sides from
// drifting. Rows cascade when either end is deleted.
const journalSchema = `
CREATE TABLE IF NOT EXISTS accounts (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	balance    TEXT NOT NULL DEFAULT '0',
	active     INTEGER NOT NULL DEFAULT 1,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
	id         TEXT PRIMARY KEY,
	symbol     TEXT NOT NULL,
	type       TEXT NOT NULL,
	strategy   TEXT NOT NULL,
	session    TEXT NOT NULL,
	result     TEXT NOT NULL,
	comment    TEXT NOT NULL DEFAULT '',
	screenshot TEXT NOT NULL DEFAULT '',
	state      TEXT NOT NULL,
	tp1        INTEGER NOT NULL DEFAULT 0,
	tp2        INTEGER NOT NULL DEFAULT 0,
	tp3        INTEGER NOT NULL DEFAULT 0,
	trade_date TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS trade_feelings (
	trade_id TEXT NOT NULL REFERENCES trades(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	feeling  TEXT NOT NULL,
	PRIMARY KEY (trade_id, position)
);

CREATE TABLE IF NOT EXISTS account_trades (
	account_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
	trade_id   TEXT NOT NULL REFERENCES trades(id) ON DELETE CASCADE,
	PRIMARY KEY (account_id, trade_id)
);

CREATE INDEX IF NOT EXISTS idx_account_trades_trade ON account_trades(trade_id);
CREATE INDEX IF NOT EXISTS idx_trades_date ON trades(trade_date);
`
