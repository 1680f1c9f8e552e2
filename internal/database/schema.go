package database

// timestamps are stored as RFC3339 text so they survive round trips unchanged
const schema = `
CREATE TABLE lookup_cache (
	class TEXT NOT NULL,
	cache_key TEXT NOT NULL,
	provider_id INTEGER,
	lookup_date TEXT NOT NULL,
	PRIMARY KEY (class, cache_key)
);

CREATE INDEX idx_lookup_date ON lookup_cache(lookup_date);

CREATE TABLE sync_state (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	last_full_sync TEXT NOT NULL,
	last_incremental_sync TEXT NOT NULL
);

CREATE TABLE sync_watermarks (
	class TEXT NOT NULL,
	item_id INTEGER NOT NULL,
	ts TEXT NOT NULL,
	PRIMARY KEY (class, item_id)
);
`

// migrations contains incremental schema changes
// Each migration is applied in order based on the current user_version
// migrations[0] is empty because version 0 uses the base schema
var migrations = []string{
	"",
}
