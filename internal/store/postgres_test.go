package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestPostgres starts a PostgreSQL container and returns a migrated store.
func setupTestPostgres(t *testing.T) *Postgres {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("sentinel"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	s, err := NewPostgres(ctx, dsn)
	require.NoError(t, err, "failed to open store")
	t.Cleanup(s.Close)
	return s
}

func TestPostgresStore(t *testing.T) {
	s := setupTestPostgres(t)
	ctx := context.Background()

	require.NoError(t, s.Ping(ctx))

	exists, err := s.Exists(ctx, "Foo-Bar")
	require.NoError(t, err)
	require.False(t, exists)

	require.NoError(t, s.Put(ctx, testSignal("Foo-Bar", 200)))
	require.NoError(t, s.Put(ctx, testSignal("Older", 100)))

	exists, err = s.Exists(ctx, "Foo-Bar")
	require.NoError(t, err)
	require.True(t, exists)

	// Same id again replaces the body, it does not add a row
	again := testSignal("Foo-Bar", 300)
	again.Title = "Foo/Bar"
	require.NoError(t, s.Put(ctx, again))

	got, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, again, got[0])
	require.Equal(t, "Older", got[1].ID)

	// Migrations are idempotent
	require.NoError(t, s.Migrate(ctx))
}
