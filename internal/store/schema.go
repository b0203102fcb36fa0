package store

const schema = `
CREATE TABLE IF NOT EXISTS transfer_groups (
	id         TEXT PRIMARY KEY,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS transfers (
	group_id TEXT    NOT NULL,
	name     TEXT    NOT NULL,
	path     TEXT    NOT NULL,
	size     INTEGER NOT NULL DEFAULT 0,
	mime     TEXT    NOT NULL DEFAULT '',
	is_dir   INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_transfers_group_id ON transfers(group_id);
`

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA busy_timeout=5000",
}
