// Package main applies the catalog schema migrations.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/abgdnv/catalog/pkg/config"
	"github.com/abgdnv/catalog/pkg/config/configloader"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// migrateConfig reads only the database section, so migrations run without server settings.
type migrateConfig struct {
	Database config.DatabaseConfig `koanf:"database"`
}

func (c *migrateConfig) Validate() error {
	return c.Database.Validate()
}

func main() {
	source := flag.String("source", "file://migrations", "migrations source URL")
	flag.Parse()

	direction := flag.Arg(0)
	if direction == "" {
		direction = "up"
	}
	if err := run(*source, direction); err != nil {
		log.Printf("migration failed: %v", err)
		os.Exit(1)
	}
}

func run(source, direction string) error {
	cfg, err := configloader.Load[*migrateConfig]("catalog")
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if !cfg.Database.Configured() {
		return errors.New("database URL is not configured")
	}

	m, err := migrate.New(source, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	switch direction {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	default:
		return fmt.Errorf("unknown direction %q, expected up or down", direction)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to migrate %s: %w", direction, err)
	}
	log.Printf("migrations applied: %s", direction)
	return nil
}
