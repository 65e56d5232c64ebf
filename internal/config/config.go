package config

import (
	"fmt"
	"time"

	"github.com/turtacn/pnet/internal/domain/models"
	"github.com/turtacn/pnet/internal/domain/service"
	"github.com/turtacn/pnet/pkg/constants"
	"github.com/turtacn/pnet/pkg/errors"
)

// Config holds the application's configuration.
type Config struct {
	Policy      PolicyConfig      `mapstructure:"policy"`
	Ensemble    EnsembleConfig    `mapstructure:"ensemble"`
	Explainer   ExplainerConfig   `mapstructure:"explainer"`
	Dataset     DatasetConfig     `mapstructure:"dataset"`
	Catalog     CatalogConfig     `mapstructure:"catalog"`
	Scoring     ScoringConfig     `mapstructure:"scoring"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Kafka       KafkaConfig       `mapstructure:"kafka"`
	Vault       VaultConfig       `mapstructure:"vault"`
	Attestation AttestationConfig `mapstructure:"attestation"`
	Server      ServerConfig      `mapstructure:"server"`
	Log         LogConfig         `mapstructure:"log"`
	Tracing     TracingConfig     `mapstructure:"tracing"`
}

// PolicyConfig holds the certification policy parameters.
type PolicyConfig struct {
	SafetyLimit   float64                `mapstructure:"safety_limit"`
	ZScore        float64                `mapstructure:"z_score"`
	ModerateFloor float64                `mapstructure:"moderate_floor"`
	RiskLevels    models.RiskLevelFloors `mapstructure:"risk_levels"`
}

// ToDomain converts the section into an immutable models.Policy.
func (c PolicyConfig) ToDomain() models.Policy {
	return models.Policy{
		SafetyLimit:   c.SafetyLimit,
		ZScore:        c.ZScore,
		ModerateFloor: c.ModerateFloor,
		RiskLevels:    c.RiskLevels,
	}
}

// EnsembleConfig configures the importance producers and their aggregation.
type EnsembleConfig struct {
	Weights          map[string]float64     `mapstructure:"weights"`
	TopN             int                    `mapstructure:"top_n"`
	Seed             int64                  `mapstructure:"seed"`
	RandomForest     RandomForestConfig     `mapstructure:"random_forest"`
	GradientBoosting GradientBoostingConfig `mapstructure:"gradient_boosting"`
	ElasticNet       ElasticNetConfig       `mapstructure:"elastic_net"`
}

type RandomForestConfig struct {
	Trees           int     `mapstructure:"trees"`
	MaxDepth        int     `mapstructure:"max_depth"`
	MinSamplesLeaf  int     `mapstructure:"min_samples_leaf"`
	SampleFraction  float64 `mapstructure:"sample_fraction"`  // bootstrap size relative to the row count
	FeatureFraction float64 `mapstructure:"feature_fraction"` // features tried per split, 0 or 1 means all
}

type GradientBoostingConfig struct {
	Rounds         int     `mapstructure:"rounds"`
	LearningRate   float64 `mapstructure:"learning_rate"`
	MaxDepth       int     `mapstructure:"max_depth"`
	MinSamplesLeaf int     `mapstructure:"min_samples_leaf"`
}

type ElasticNetConfig struct {
	Alpha     float64 `mapstructure:"alpha"`
	L1Ratio   float64 `mapstructure:"l1_ratio"`
	MaxIter   int     `mapstructure:"max_iter"`
	Tolerance float64 `mapstructure:"tolerance"`
}

// ExplainerConfig configures the attribution sampler.
type ExplainerConfig struct {
	SamplesPerFeature int           `mapstructure:"samples_per_feature"`
	SampleRows        int           `mapstructure:"sample_rows"`
	Seed              int64         `mapstructure:"seed"`
	Workers           int           `mapstructure:"workers"`
	PredictTimeout    time.Duration `mapstructure:"predict_timeout"`
	MaxFailureRate    float64       `mapstructure:"max_failure_rate"`
}

// ToDomain converts the section into a service.ExplainerConfig.
func (c ExplainerConfig) ToDomain() service.ExplainerConfig {
	return service.ExplainerConfig{
		SamplesPerFeature: c.SamplesPerFeature,
		Seed:              c.Seed,
		Workers:           c.Workers,
		PredictTimeout:    c.PredictTimeout,
		MaxFailureRate:    c.MaxFailureRate,
	}
}

// DatasetConfig selects where vulnerability records come from.
type DatasetConfig struct {
	Source        string   `mapstructure:"source"` // synthetic, csv or database
	Path          string   `mapstructure:"path"`
	Assets        []string `mapstructure:"assets"`
	SyntheticRows int      `mapstructure:"synthetic_rows"`
	Seed          int64    `mapstructure:"seed"`
}

type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

// ScoringConfig selects and configures the RiskModel.
type ScoringConfig struct {
	Model   constants.ModelKind `mapstructure:"model"`
	Timeout time.Duration       `mapstructure:"timeout"`
	OpenAI  OpenAIConfig        `mapstructure:"openai"`
	GRPC    GRPCScorerConfig    `mapstructure:"grpc"`
}

type OpenAIConfig struct {
	BaseURL           string  `mapstructure:"base_url"`
	Model             string  `mapstructure:"model"`
	APIKey            string  `mapstructure:"api_key"`
	APIKeySecret      string  `mapstructure:"api_key_secret"` // vault secret name, used when api_key is empty
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type GRPCScorerConfig struct {
	Target   string `mapstructure:"target"`
	Method   string `mapstructure:"method"`
	Insecure bool   `mapstructure:"insecure"`
}

// CacheConfig configures the prediction cache decorator.
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Backend         string        `mapstructure:"backend"` // memory or redis
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

type RedisConfig struct {
	Addresses    []string `mapstructure:"addresses"`
	Password     string   `mapstructure:"password"`
	DB           int      `mapstructure:"db"`
	PoolSize     int      `mapstructure:"pool_size"`
	MinIdleConns int      `mapstructure:"min_idle_conns"`
}

type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"` // postgres or sqlite
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	SSLMode         string `mapstructure:"ssl_mode"`
	SQLitePath      string `mapstructure:"sqlite_path"`
	MaxConns        int    `mapstructure:"max_conns"`
	MinConns        int    `mapstructure:"min_conns"`
	MaxConnLifetime int    `mapstructure:"max_conn_lifetime"`  // in minutes
	MaxConnIdleTime int    `mapstructure:"max_conn_idle_time"` // in minutes
}

func (c *DatabaseConfig) GetDSN() string {
	if c.Driver == "sqlite" {
		return c.SQLitePath
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

type KafkaConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Brokers      []string      `mapstructure:"brokers"`
	Topic        string        `mapstructure:"topic"`
	BatchSize    int           `mapstructure:"batch_size"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
	Async        bool          `mapstructure:"async"`
}

type VaultConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Address   string        `mapstructure:"address"`
	Token     string        `mapstructure:"token"`
	MountPath string        `mapstructure:"mount_path"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl"`
}

// AttestationConfig configures evidence signing.
type AttestationConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	HMACSecret string        `mapstructure:"hmac_secret"`
	SecretName string        `mapstructure:"secret_name"` // vault secret name, used when hmac_secret is empty
	Issuer     string        `mapstructure:"issuer"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	GRPCPort        int           `mapstructure:"grpc_port"` // RiskScorer endpoint, 0 disables it
	GRPCRateLimit   float64       `mapstructure:"grpc_rate_limit"`
	CalibrationRate float64       `mapstructure:"calibration_rate"` // calibrations per second, 0 disables the limit
	Environment     string        `mapstructure:"environment"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type TracingConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	JaegerEndpoint string  `mapstructure:"jaeger_endpoint"`
	ServiceName    string  `mapstructure:"service_name"`
	SampleRate     float64 `mapstructure:"sample_rate"`
}

// Validate checks the pipeline invariants before anything runs.
func (c *Config) Validate() error {
	if err := c.Policy.ToDomain().Validate(); err != nil {
		return err
	}
	if err := models.ImportanceWeights(c.Ensemble.Weights).Validate(); err != nil {
		return err
	}
	if c.Ensemble.TopN < 1 {
		return errors.ErrConfiguration(fmt.Sprintf("ensemble.top_n %d must be >= 1", c.Ensemble.TopN))
	}
	if c.Explainer.SampleRows < 1 {
		return errors.ErrConfiguration(fmt.Sprintf("explainer.sample_rows %d must be >= 1", c.Explainer.SampleRows))
	}
	if err := c.Explainer.ToDomain().Validate(); err != nil {
		return err
	}

	switch c.Dataset.Source {
	case "synthetic", "database":
	case "csv":
		if c.Dataset.Path == "" {
			return errors.ErrConfiguration("dataset.path is required for the csv source")
		}
	default:
		return errors.ErrConfiguration(fmt.Sprintf("unknown dataset.source %q", c.Dataset.Source))
	}

	switch c.Scoring.Model {
	case constants.ModelKindHeuristic:
	case constants.ModelKindOpenAI:
		if c.Scoring.OpenAI.Model == "" {
			return errors.ErrConfiguration("scoring.openai.model is required")
		}
	case constants.ModelKindGRPC:
		if c.Scoring.GRPC.Target == "" {
			return errors.ErrConfiguration("scoring.grpc.target is required")
		}
	default:
		return errors.ErrConfiguration(fmt.Sprintf("unknown scoring.model %q", c.Scoring.Model))
	}

	if c.Cache.Enabled && c.Cache.Backend != "memory" && c.Cache.Backend != "redis" {
		return errors.ErrConfiguration(fmt.Sprintf("unknown cache.backend %q", c.Cache.Backend))
	}
	if c.Database.Driver != "postgres" && c.Database.Driver != "sqlite" {
		return errors.ErrConfiguration(fmt.Sprintf("unknown database.driver %q", c.Database.Driver))
	}
	if c.Kafka.Enabled && (len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "") {
		return errors.ErrConfiguration("kafka.brokers and kafka.topic are required when kafka is enabled")
	}
	return nil
}

//Personal.AI order the ending
