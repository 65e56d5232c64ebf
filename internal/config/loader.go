package config

import (
	"context"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/turtacn/pnet/internal/domain/models"
	"github.com/turtacn/pnet/pkg/constants"
	"github.com/turtacn/pnet/pkg/errors"
	"github.com/turtacn/pnet/pkg/logger"
)

// DefaultAssets is the certification target of evaluation (C-ToE) asset list.
var DefaultAssets = []string{
	"Microsoft Windows Server 2019",
	"Oracle Database 19c Enterprise",
	"Cisco ASA 5525-X",
	"Red Hat Enterprise Linux 8.2",
	"IBM Openslice OSS",
}

// Loader reads configuration from file and environment, and can watch the file for changes.
type Loader struct {
	v   *viper.Viper
	log logger.Logger
	mu  sync.Mutex
}

// NewLoader creates a Loader. An empty path searches pnet.yaml in /etc/pnet/ and the working directory.
func NewLoader(path string, log logger.Logger) *Loader {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("pnet")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/pnet/")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("PNET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Loader{v: v, log: log.WithComponent("ConfigLoader")}
}

// LoadConfig loads the configuration from file and environment variables.
func LoadConfig(path string, log logger.Logger) (*Config, error) {
	return NewLoader(path, log).Load()
}

// Load reads the config file (if any), applies defaults and env overrides, and validates the result.
func (l *Loader) Load() (*Config, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.WrapError(err, constants.ErrCodeConfiguration, "failed to read config file")
		}
		l.log.Debug(context.Background(), "no config file found, using defaults and environment")
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, errors.WrapError(err, constants.ErrCodeConfiguration, "failed to unmarshal config")
	}
	// Weights are not defaulted through viper: nested default keys would merge into a user map.
	if len(cfg.Ensemble.Weights) == 0 {
		cfg.Ensemble.Weights = models.DefaultImportanceWeights()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Watch reloads the configuration on every file change and hands valid results to onChange.
// Invalid revisions are logged and ignored.
func (l *Loader) Watch(onChange func(*Config)) {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		ctx := context.Background()
		l.log.Info(ctx, "config file changed", logger.Fields{"file": e.Name, "op": e.Op.String()})

		cfg, err := l.Load()
		if err != nil {
			l.log.Error(ctx, "reloaded config rejected", err, logger.Fields{"file": e.Name})
			return
		}
		onChange(cfg)
	})
	l.v.WatchConfig()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("policy.safety_limit", constants.DefaultSafetyLimit)
	v.SetDefault("policy.z_score", constants.DefaultZScore)
	v.SetDefault("policy.moderate_floor", constants.DefaultModerateFloor)
	v.SetDefault("policy.risk_levels.critical", constants.RiskLevelCriticalFloor)
	v.SetDefault("policy.risk_levels.high", constants.RiskLevelHighFloor)
	v.SetDefault("policy.risk_levels.medium", constants.RiskLevelMediumFloor)

	v.SetDefault("ensemble.top_n", constants.DefaultTopN)
	v.SetDefault("ensemble.seed", 42)
	v.SetDefault("ensemble.random_forest.trees", 100)
	v.SetDefault("ensemble.random_forest.max_depth", 8)
	v.SetDefault("ensemble.random_forest.min_samples_leaf", 2)
	v.SetDefault("ensemble.random_forest.sample_fraction", 1.0)
	v.SetDefault("ensemble.random_forest.feature_fraction", 1.0)
	v.SetDefault("ensemble.gradient_boosting.rounds", 200)
	v.SetDefault("ensemble.gradient_boosting.learning_rate", 0.03)
	v.SetDefault("ensemble.gradient_boosting.max_depth", 3)
	v.SetDefault("ensemble.gradient_boosting.min_samples_leaf", 2)
	v.SetDefault("ensemble.elastic_net.alpha", 0.001)
	v.SetDefault("ensemble.elastic_net.l1_ratio", 0.5)
	v.SetDefault("ensemble.elastic_net.max_iter", 2000)
	v.SetDefault("ensemble.elastic_net.tolerance", 1e-4)

	v.SetDefault("explainer.samples_per_feature", constants.DefaultSamplesPerFeature)
	v.SetDefault("explainer.sample_rows", constants.DefaultSampleRows)
	v.SetDefault("explainer.seed", constants.DefaultExplainerSeed)
	v.SetDefault("explainer.workers", constants.DefaultExplainerWorkers)
	v.SetDefault("explainer.predict_timeout", constants.DefaultPredictTimeout)
	v.SetDefault("explainer.max_failure_rate", constants.DefaultMaxFailureRate)

	v.SetDefault("dataset.source", "synthetic")
	v.SetDefault("dataset.path", "")
	v.SetDefault("dataset.assets", DefaultAssets)
	v.SetDefault("dataset.synthetic_rows", 200)
	v.SetDefault("dataset.seed", 42)

	v.SetDefault("catalog.path", "")

	v.SetDefault("scoring.model", string(constants.ModelKindHeuristic))
	v.SetDefault("scoring.timeout", constants.DefaultPredictTimeout)
	v.SetDefault("scoring.openai.base_url", "")
	v.SetDefault("scoring.openai.model", "gpt-4o-mini")
	v.SetDefault("scoring.openai.api_key", "")
	v.SetDefault("scoring.openai.api_key_secret", "openai_api_key")
	v.SetDefault("scoring.openai.requests_per_second", 5.0)
	v.SetDefault("scoring.openai.burst", 5)
	v.SetDefault("scoring.grpc.target", "")
	v.SetDefault("scoring.grpc.method", constants.ScorerPredictMethod)
	v.SetDefault("scoring.grpc.insecure", true)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.ttl", "10m")
	v.SetDefault("cache.cleanup_interval", "15m")

	v.SetDefault("redis.addresses", []string{"localhost:6379"})
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "pnet")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "pnet")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.sqlite_path", "pnet.db")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 1)
	v.SetDefault("database.max_conn_lifetime", 30)
	v.SetDefault("database.max_conn_idle_time", 5)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "pnet-evidence")
	v.SetDefault("kafka.batch_size", 100)
	v.SetDefault("kafka.batch_timeout", "1s")
	v.SetDefault("kafka.async", false)

	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "http://localhost:8200")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.mount_path", constants.VaultSecretPathPrefix)
	v.SetDefault("vault.cache_ttl", "5m")

	v.SetDefault("attestation.enabled", true)
	v.SetDefault("attestation.hmac_secret", "")
	v.SetDefault("attestation.secret_name", "evidence_signing_key")
	v.SetDefault("attestation.issuer", "pnet-cert")
	v.SetDefault("attestation.token_ttl", "720h")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", constants.DefaultServicePort)
	v.SetDefault("server.grpc_port", 0)
	v.SetDefault("server.grpc_rate_limit", 0.0)
	v.SetDefault("server.calibration_rate", 0.1)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", constants.DefaultShutdownTimeout)
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("log.level", string(constants.LogLevelInfo))
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output_path", "stdout")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.jaeger_endpoint", "http://localhost:14268/api/traces")
	v.SetDefault("tracing.service_name", "pnet-cert")
	v.SetDefault("tracing.sample_rate", 1.0)
}

//Personal.AI order the ending
