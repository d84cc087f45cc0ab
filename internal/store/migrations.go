package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS profile (
	id                  INTEGER PRIMARY KEY CHECK(id = 1),
	name                TEXT NOT NULL DEFAULT '',
	registration_number TEXT NOT NULL DEFAULT '',
	gmail_address       TEXT NOT NULL DEFAULT '',
	personal_email      TEXT NOT NULL DEFAULT '',
	phone_number        TEXT NOT NULL DEFAULT '',
	updated_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS process_state (
	id              INTEGER PRIMARY KEY CHECK(id = 1),
	last_message_id TEXT NOT NULL DEFAULT '',
	updated_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS match_records (
	id                 TEXT PRIMARY KEY,
	message_id         TEXT NOT NULL,
	verdict            TEXT NOT NULL,
	content_verdict    TEXT NOT NULL,
	attachment_verdict TEXT NOT NULL,
	breakdown          TEXT NOT NULL DEFAULT '[]',
	profile            TEXT NOT NULL DEFAULT '{}',
	subject            TEXT NOT NULL DEFAULT '',
	from_email         TEXT NOT NULL DEFAULT '',
	created_at         DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS tier_counts (
	tier  TEXT PRIMARY KEY,
	count INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS tier_entries (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	tier       TEXT NOT NULL,
	record_id  TEXT NOT NULL REFERENCES match_records(id),
	message_id TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_match_records_message_id ON match_records(message_id);
CREATE INDEX IF NOT EXISTS idx_match_records_verdict ON match_records(verdict);
CREATE INDEX IF NOT EXISTS idx_match_records_created_at ON match_records(created_at);
CREATE INDEX IF NOT EXISTS idx_tier_entries_tier ON tier_entries(tier, seq);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
