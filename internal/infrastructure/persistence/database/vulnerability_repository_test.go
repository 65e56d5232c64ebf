package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/pnet/internal/config"
	"github.com/turtacn/pnet/internal/domain/models"
	"github.com/turtacn/pnet/pkg/logger"
)

func ptr(v float64) *float64 { return &v }

func newSQLiteConnection(t *testing.T) *DBConnection {
	t.Helper()
	cfg := &config.DatabaseConfig{
		Driver:     "sqlite",
		SQLitePath: fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()),
		MaxConns:   1,
	}
	conn, err := NewDBConnection(context.Background(), cfg, logger.NewNoopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, conn.Migrate(context.Background()))
	return conn
}

func seedRecords() []models.VulnerabilityRecord {
	published := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)
	return []models.VulnerabilityRecord{
		{CVEID: "CVE-2021-0001", Product: "Microsoft Windows Server 2019", Vendor: "Microsoft", BaseScore: ptr(9.8), ExploitCount: ptr(3), AttackVector: "NETWORK", PublishedAt: &published, EPSS: ptr(0.97)},
		{CVEID: "CVE-2021-0002", Product: "cisco asa 5525-x", Vendor: "Cisco", BaseScore: ptr(7.5), AttackVector: "ADJACENT_NETWORK", EPSS: ptr(0.12)},
		{CVEID: "CVE-2021-0003", Product: "Apache HTTP Server", Vendor: "Apache", BaseScore: ptr(5.3), AttackVector: "LOCAL", EPSS: ptr(0.01)},
	}
}

func TestVulnerabilityRepository_ListByProducts(t *testing.T) {
	conn := newSQLiteConnection(t)
	repo := NewVulnerabilityRepository(conn.DB(), logger.NewNoopLogger())
	ctx := context.Background()

	require.NoError(t, repo.SaveBatch(ctx, seedRecords()))

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	records, err := repo.ListByProducts(ctx, []string{"Windows Server 2019", "Cisco ASA 5525-X"})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "CVE-2021-0001", records[0].CVEID)
	assert.Equal(t, "CVE-2021-0002", records[1].CVEID)
	assert.InDelta(t, 9.8, *records[0].BaseScore, 1e-9)
	assert.Nil(t, records[1].ExploitCount)

	all, err := repo.ListByProducts(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestDBConnection_HealthCheck(t *testing.T) {
	conn := newSQLiteConnection(t)

	info, err := conn.HealthCheck(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", info["status"])
}

func TestNewDBConnection_UnknownDriver(t *testing.T) {
	_, err := NewDBConnection(context.Background(), &config.DatabaseConfig{Driver: "mysql"}, logger.NewNoopLogger())
	assert.Error(t, err)
}

func TestVulnerabilityRepository_SaveBatchSkipsExisting(t *testing.T) {
	conn := newSQLiteConnection(t)
	repo := NewVulnerabilityRepository(conn.DB(), logger.NewNoopLogger())
	ctx := context.Background()

	records := seedRecords()
	for i := range records {
		records[i].ID = uint(i + 1)
	}
	require.NoError(t, repo.SaveBatch(ctx, records))
	require.NoError(t, repo.SaveBatch(ctx, records))

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(len(records)), n)
}
