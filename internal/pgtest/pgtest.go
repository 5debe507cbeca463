// Package pgtest provides PostgreSQL databases for tests.
package pgtest

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

// URLEnv names the variable holding the DSN of an existing test database. It takes precedence over a container,
// which is what CI without Docker relies on.
const URLEnv = "KIOSK_TEST_POSTGRES_URL"

const image = "postgres:17-alpine"

// DSN returns the connection string of a PostgreSQL database for t. Without [URLEnv] a throwaway container is
// started and terminated when t finishes. The test is skipped when neither is available.
func DSN(t *testing.T) string {
	t.Helper()
	if dsn, ok := os.LookupEnv(URLEnv); ok && dsn != "" {
		return dsn
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	c, err := postgres.Run(ctx, image,
		postgres.WithDatabase("kiosk"),
		postgres.WithUsername("kiosk"),
		postgres.WithPassword("kiosk"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, c)
	require.NoError(t, err)

	dsn, err := c.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}
