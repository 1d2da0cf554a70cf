//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestPostgresRepository_ReplaceAllAndOrder(t *testing.T) {
	ctx := context.Background()

	pg, err := postgrescontainer.Run(ctx, "postgres:16-alpine",
		postgrescontainer.WithDatabase("nearme"),
		postgrescontainer.WithUsername("nearme"),
		postgrescontainer.WithPassword("nearme"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	repo := NewPostgresRepository(pool)
	require.NoError(t, repo.Migrate(ctx))
	s := New(repo)

	require.NoError(t, s.ReplaceAll(ctx, venuesAt(50, 10, 30)))
	got, err := s.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []int{10, 30, 50}, distancesOf(got))

	require.NoError(t, s.ReplaceAll(ctx, nil))
	got, err = s.List(ctx)
	require.NoError(t, err)
	require.Empty(t, got)
}
