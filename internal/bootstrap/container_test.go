package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/pnet/internal/application/dto"
	"github.com/turtacn/pnet/internal/config"
	"github.com/turtacn/pnet/internal/infrastructure/audit"
	"github.com/turtacn/pnet/internal/infrastructure/dataset"
	"github.com/turtacn/pnet/internal/infrastructure/persistence/database"
	"github.com/turtacn/pnet/pkg/constants"
	"github.com/turtacn/pnet/pkg/errors"
	"github.com/turtacn/pnet/pkg/logger"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadConfig("", logger.NewNoopLogger())
	require.NoError(t, err)

	cfg.Dataset.SyntheticRows = 60
	cfg.Ensemble.RandomForest.Trees = 10
	cfg.Ensemble.GradientBoosting.Rounds = 20
	cfg.Explainer.SampleRows = 10
	cfg.Explainer.SamplesPerFeature = 20
	return cfg
}

func demoRequest() *dto.AssessmentRequest {
	return &dto.AssessmentRequest{
		AssetName: "Microsoft Windows Server 2019",
		ControlID: "AC-3",
		Features: map[string]float64{
			constants.FeatureBaseScore:        9.8,
			constants.FeatureHasPublicExploit: 1,
		},
	}
}

func TestBuild_Defaults(t *testing.T) {
	ctx := context.Background()
	c, err := Build(ctx, testConfig(t), logger.NewNoopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close(ctx) })

	assert.Empty(t, c.HealthChecks())

	result, err := c.Service.Calibrate(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, result.RankedFeatures)

	resp, err := c.Service.Assess(ctx, demoRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Verdict.Verdict)
	assert.Contains(t, resp.Verdict.Evidence, "AC-3")
	// No signing key is configured, so evidence is unsigned.
	assert.Empty(t, resp.Signature)
	assert.True(t, resp.Published)

	families, err := c.Registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestBuild_SignsWithEnvSecret(t *testing.T) {
	t.Setenv("PNET_SECRET_EVIDENCE_SIGNING_KEY", "top-secret")
	ctx := context.Background()
	cfg := testConfig(t)

	c, err := Build(ctx, cfg, logger.NewNoopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close(ctx) })

	_, err = c.Service.Calibrate(ctx)
	require.NoError(t, err)
	resp, err := c.Service.Assess(ctx, demoRequest())
	require.NoError(t, err)
	require.NotEmpty(t, resp.Attestation)

	signer, err := audit.NewHMACSigner("top-secret", cfg.Attestation.Issuer, cfg.Attestation.TokenTTL)
	require.NoError(t, err)
	claims, err := signer.Verify(resp.Attestation)
	require.NoError(t, err)
	assert.Equal(t, "AC-3", claims.Control)
}

func TestBuild_RedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Cache.Backend = "redis"
	cfg.Redis.Addresses = []string{mr.Addr()}

	c, err := Build(ctx, cfg, logger.NewNoopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close(ctx) })

	checks := c.HealthChecks()
	require.Contains(t, checks, "redis")
	assert.NoError(t, checks["redis"](ctx))

	_, err = c.Service.Calibrate(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, mr.Keys())
}

func TestBuild_DatabaseSource(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Dataset.Source = "database"
	cfg.Database.Driver = "sqlite"
	cfg.Database.SQLitePath = filepath.Join(t.TempDir(), "pnet.db")

	c, err := Build(ctx, cfg, logger.NewNoopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close(ctx) })
	require.Contains(t, c.HealthChecks(), "database")

	// An empty table cannot be calibrated.
	_, err = c.Service.Calibrate(ctx)
	require.Error(t, err)

	repo := database.NewVulnerabilityRepository(c.DB.DB(), logger.NewNoopLogger())
	require.NoError(t, repo.SaveBatch(ctx, dataset.GenerateSynthetic(60, 7, config.DefaultAssets[0])))

	result, err := c.Service.Calibrate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 60, result.Rows)
}

func TestBuild_Failures(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(cfg *config.Config)
		code   constants.ErrorCode
	}{
		{
			name: "unreachable redis",
			mutate: func(cfg *config.Config) {
				cfg.Cache.Backend = "redis"
				cfg.Redis.Addresses = []string{"127.0.0.1:1"}
			},
			code: constants.ErrCodeUnavailable,
		},
		{
			name:   "missing catalog file",
			mutate: func(cfg *config.Config) { cfg.Catalog.Path = "/nonexistent/controls.yaml" },
			code:   constants.ErrCodeConfiguration,
		},
		{
			name: "openai key missing",
			mutate: func(cfg *config.Config) {
				cfg.Scoring.Model = constants.ModelKindOpenAI
				cfg.Scoring.OpenAI.APIKeySecret = "pnet_test_missing_key"
			},
			code: constants.ErrCodeNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig(t)
			tc.mutate(cfg)
			_, err := Build(context.Background(), cfg, logger.NewNoopLogger())
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, tc.code), "got %v", err)
		})
	}
}
