package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/varoOP/metasync/internal/domain"
)

const (
	DefaultFullSyncIntervalHours = 24
	DefaultLanguage              = "en-US"
)

// SetDefaults registers the default value of every key on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", defaultDataDir())
	v.SetDefault("full_sync_interval_hours", DefaultFullSyncIntervalHours)
	v.SetDefault("language", DefaultLanguage)
	v.SetDefault("storage.backend", string(domain.StorageJSON))
	v.SetDefault("log_level", zerolog.InfoLevel.String())
}

// Load loads configuration from multiple sources:
// 1. Config file (config.yaml, optional)
// 2. Environment variables (METASYNC_*)
// 3. Command line flags bound by the caller
func Load() (*domain.Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads and validates the configuration held by v
func LoadFrom(v *viper.Viper) (*domain.Config, error) {
	SetDefaults(v)

	cfg := &domain.Config{
		DataDir:               v.GetString("data_dir"),
		FullSyncIntervalHours: v.GetInt("full_sync_interval_hours"),
		Language:              v.GetString("language"),
		TmdbApiKey:            v.GetString("tmdb_api_key"),
		TmdbBaseURL:           v.GetString("tmdb_base_url"),
		StorageBackend:        domain.StorageBackend(strings.ToLower(v.GetString("storage.backend"))),
		LogLevel:              v.GetString("log_level"),
		DiscordWebhookURL:     v.GetString("discord_webhook_url"),
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the values that have no sensible fallback
func Validate(cfg *domain.Config) error {
	if cfg.DataDir == "" {
		return errors.New("data_dir is required (set via config.yaml or METASYNC_DATA_DIR environment variable)")
	}

	if cfg.FullSyncIntervalHours <= 0 {
		return errors.Errorf("invalid full_sync_interval_hours: %d (must be greater than 0)", cfg.FullSyncIntervalHours)
	}

	switch cfg.StorageBackend {
	case domain.StorageJSON, domain.StorageSQLite, domain.StorageBolt:
	default:
		return errors.Errorf("invalid storage.backend: %s (must be 'json', 'sqlite' or 'bolt')", cfg.StorageBackend)
	}

	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		return errors.Wrapf(err, "invalid log_level: %s", cfg.LogLevel)
	}

	return nil
}

func defaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return dir
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share")
	}
	return "."
}
