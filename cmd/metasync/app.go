package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/varoOP/metasync/internal/app"
	"github.com/varoOP/metasync/internal/config"
	"github.com/varoOP/metasync/internal/domain"
	"github.com/varoOP/metasync/internal/logger"
	"gopkg.in/yaml.v3"
)

func loadConfig() (*domain.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// newApp loads the configuration and initializes the application
func newApp() (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	application, err := app.NewApp(logger.New(cfg.LogLevel), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize application: %w", err)
	}
	return application, nil
}

// withApp runs fn against a freshly initialized application and closes it afterwards
func withApp(fn func(a *app.App) error) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(a)
}

func printOutput(cmd *cobra.Command, v any) error {
	return writeOutput(cmd.OutOrStdout(), output, v)
}

func writeOutput(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml", "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}
