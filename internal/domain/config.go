package domain

// StorageBackend selects where the cache and checkpoint are persisted
type StorageBackend string

const (
	// StorageJSON - indented JSON documents in the data directory (default)
	StorageJSON StorageBackend = "json"
	// StorageSQLite - a single metasync.db in the data directory
	StorageSQLite StorageBackend = "sqlite"
	// StorageBolt - a bbolt key/value file in the data directory
	StorageBolt StorageBackend = "bolt"
)

type Config struct {
	DataDir               string         `toml:"data_dir" mapstructure:"data_dir"`
	FullSyncIntervalHours int            `toml:"full_sync_interval_hours" mapstructure:"full_sync_interval_hours"`
	Language              string         `toml:"language" mapstructure:"language"`
	TmdbApiKey            string         `toml:"tmdb_api_key" mapstructure:"tmdb_api_key"`
	TmdbBaseURL           string         `toml:"tmdb_base_url" mapstructure:"tmdb_base_url"`
	StorageBackend        StorageBackend `toml:"storage_backend" mapstructure:"storage_backend"`
	LogLevel              string         `toml:"log_level" mapstructure:"log_level"`
	DiscordWebhookURL     string         `toml:"discord_webhook_url" mapstructure:"discord_webhook_url"`
}
