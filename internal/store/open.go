package store

import (
	"context"
	"fmt"
	"log"

	"nearme/internal/config"
)

// Open builds the VenueStore for the configured driver.
func Open(ctx context.Context, cfg config.StoreConfig) (*VenueStore, error) {
	var (
		repo Repository
		err  error
	)
	switch cfg.Driver {
	case "sqlite":
		repo, err = OpenSQLite(cfg.SQLitePath)
	case "postgres":
		repo, err = OpenPostgres(ctx, cfg.PostgresURL)
	default:
		err = fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	log.Printf("Venue store opened with %s driver", cfg.Driver)
	return New(repo), nil
}
