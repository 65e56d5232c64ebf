//go:build integration

package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/turtacn/pnet/pkg/logger"
)

func TestVulnerabilityRepository_Postgres(t *testing.T) {
	if os.Getenv("SKIP_DOCKER_TESTS") == "true" {
		t.Skip("Skipping Docker-dependent tests")
	}

	ctx := context.Background()
	pgContainer, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("pnet"),
		postgres.WithUsername("pnet"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
	)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, pgContainer.Terminate(ctx))
	}()

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(gormpostgres.Open(connStr), &gorm.Config{})
	require.NoError(t, err)

	conn := NewDBConnectionFromGorm(db, logger.NewNoopLogger())
	require.NoError(t, conn.Migrate(ctx))

	repo := NewVulnerabilityRepository(db, logger.NewNoopLogger())
	require.NoError(t, repo.SaveBatch(ctx, seedRecords()))

	records, err := repo.ListByProducts(ctx, []string{"microsoft windows"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "NETWORK", records[0].AttackVector)
	assert.Equal(t, 2021, records[0].PublishedAt.Year())
}
