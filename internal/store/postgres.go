package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"nearme/internal/models"
)

const postgresSchema = `CREATE TABLE IF NOT EXISTS venues (
	id         text PRIMARY KEY,
	position   integer NOT NULL,
	name       text NOT NULL DEFAULT '',
	category   text NOT NULL DEFAULT '',
	icon_link  text NOT NULL DEFAULT '',
	distance   integer NOT NULL,
	latitude   double precision NOT NULL,
	longitude  double precision NOT NULL,
	address    text NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS venues_distance_idx ON venues (distance, position);`

var venueColumns = []string{"id", "position", "name", "category", "icon_link", "distance", "latitude", "longitude", "address"}

// PostgresRepository keeps venues in a Postgres table.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to url and ensures the venues table exists.
func OpenPostgres(ctx context.Context, url string) (*PostgresRepository, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	repo := NewPostgresRepository(pool)
	if err := repo.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return repo, nil
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("failed to migrate venues table: %w", err)
	}
	return nil
}

// ReplaceAll deletes every row and copies venues in, inside one transaction.
func (r *PostgresRepository) ReplaceAll(ctx context.Context, venues []models.Venue) (err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, "DELETE FROM venues"); err != nil {
		return fmt.Errorf("failed to clear venues: %w", err)
	}

	rows := make([][]any, len(venues))
	for i, v := range venues {
		rows[i] = []any{v.ID, i, v.Name, v.Category, v.IconLink, v.Distance, v.Latitude, v.Longitude, v.Address}
	}
	if _, err = tx.CopyFrom(ctx, pgx.Identifier{"venues"}, venueColumns, pgx.CopyFromRows(rows)); err != nil {
		return fmt.Errorf("failed to insert venues: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *PostgresRepository) List(ctx context.Context) ([]models.Venue, error) {
	const query = `SELECT id, name, category, icon_link, distance, latitude, longitude, address
        FROM venues ORDER BY distance ASC, position ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var venues []models.Venue
	for rows.Next() {
		var v models.Venue
		if err := rows.Scan(&v.ID, &v.Name, &v.Category, &v.IconLink, &v.Distance, &v.Latitude, &v.Longitude, &v.Address); err != nil {
			return nil, err
		}
		venues = append(venues, v)
	}
	return venues, rows.Err()
}

func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}
