package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/pnet/pkg/constants"
	"github.com/turtacn/pnet/pkg/errors"
	"github.com/turtacn/pnet/pkg/logger"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pnet.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "log:\n  level: debug\n"), logger.NewNoopLogger())
	require.NoError(t, err)

	assert.Equal(t, 0.69, cfg.Policy.SafetyLimit)
	assert.Equal(t, 0.10, cfg.Policy.ModerateFloor)
	assert.Equal(t, 0.9, cfg.Policy.RiskLevels.Critical)
	assert.Equal(t, 0.4, cfg.Ensemble.Weights[constants.MethodRandomForest])
	assert.Equal(t, 0.2, cfg.Ensemble.Weights[constants.MethodElasticNet])
	assert.Equal(t, 25, cfg.Ensemble.TopN)
	assert.Equal(t, 32, cfg.Explainer.SamplesPerFeature)
	assert.Equal(t, 5*time.Second, cfg.Explainer.PredictTimeout)
	assert.Equal(t, 1.0, cfg.Explainer.MaxFailureRate)
	assert.Equal(t, DefaultAssets, cfg.Dataset.Assets)
	assert.Equal(t, constants.ModelKindHeuristic, cfg.Scoring.Model)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfig_FileOverrides(t *testing.T) {
	body := `
policy:
  safety_limit: 0.5
  moderate_floor: 0.2
ensemble:
  top_n: 5
  weights:
    random_forest: 0.5
    gradient_boosting: 0.5
explainer:
  workers: 4
  predict_timeout: 250ms
dataset:
  source: csv
  path: /data/nvd.csv
`
	cfg, err := LoadConfig(writeConfig(t, body), logger.NewNoopLogger())
	require.NoError(t, err)

	assert.Equal(t, 0.5, cfg.Policy.SafetyLimit)
	assert.Equal(t, 0.2, cfg.Policy.ToDomain().ModerateFloor)
	assert.Equal(t, 5, cfg.Ensemble.TopN)
	assert.Len(t, cfg.Ensemble.Weights, 2)
	assert.Equal(t, 4, cfg.Explainer.ToDomain().Workers)
	assert.Equal(t, 250*time.Millisecond, cfg.Explainer.PredictTimeout)
	assert.Equal(t, "/data/nvd.csv", cfg.Dataset.Path)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("PNET_POLICY_SAFETY_LIMIT", "0.6")
	t.Setenv("PNET_SERVER_PORT", "9090")

	cfg, err := LoadConfig(writeConfig(t, "{}"), logger.NewNoopLogger())
	require.NoError(t, err)
	assert.Equal(t, 0.6, cfg.Policy.SafetyLimit)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestLoadConfig_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{"weights do not sum to one", "ensemble:\n  weights:\n    random_forest: 0.5\n    elastic_net: 0.1\n"},
		{"safety limit out of range", "policy:\n  safety_limit: 1.5\n"},
		{"negative z score", "policy:\n  z_score: -1\n"},
		{"top n zero", "ensemble:\n  top_n: 0\n"},
		{"no workers", "explainer:\n  workers: 0\n"},
		{"failure rate above one", "explainer:\n  max_failure_rate: 1.5\n"},
		{"csv without path", "dataset:\n  source: csv\n"},
		{"unknown model", "scoring:\n  model: oracle\n"},
		{"grpc without target", "scoring:\n  model: grpc\n"},
		{"unknown database driver", "database:\n  driver: mysql\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tc.body), logger.NewNoopLogger())
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, constants.ErrCodeConfiguration), "got %v", err)
		})
	}
}

func TestDatabaseConfig_GetDSN(t *testing.T) {
	pg := DatabaseConfig{Driver: "postgres", Host: "db", Port: 5432, User: "u", Password: "p", Database: "pnet", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=pnet sslmode=disable", pg.GetDSN())

	lite := DatabaseConfig{Driver: "sqlite", SQLitePath: "/tmp/pnet.db"}
	assert.Equal(t, "/tmp/pnet.db", lite.GetDSN())
}
