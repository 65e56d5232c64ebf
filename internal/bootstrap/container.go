// Package bootstrap wires configuration into the certification service and its
// infrastructure. The server and the CLI share it.
package bootstrap

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"

	appservice "github.com/turtacn/pnet/internal/application/service"
	"github.com/turtacn/pnet/internal/config"
	"github.com/turtacn/pnet/internal/domain/models"
	"github.com/turtacn/pnet/internal/domain/repository"
	domainService "github.com/turtacn/pnet/internal/domain/service"
	"github.com/turtacn/pnet/internal/infrastructure/audit"
	"github.com/turtacn/pnet/internal/infrastructure/cache"
	"github.com/turtacn/pnet/internal/infrastructure/catalog"
	"github.com/turtacn/pnet/internal/infrastructure/dataset"
	"github.com/turtacn/pnet/internal/infrastructure/importance"
	"github.com/turtacn/pnet/internal/infrastructure/monitoring"
	"github.com/turtacn/pnet/internal/infrastructure/persistence/database"
	"github.com/turtacn/pnet/internal/infrastructure/persistence/redis"
	"github.com/turtacn/pnet/internal/infrastructure/scoring"
	"github.com/turtacn/pnet/internal/infrastructure/secrets"
	"github.com/turtacn/pnet/pkg/constants"
	"github.com/turtacn/pnet/pkg/errors"
	"github.com/turtacn/pnet/pkg/logger"
)

// Container holds everything built from one configuration.
// Container 保存由一份配置构建出的全部组件。
type Container struct {
	Config   *config.Config
	Logger   logger.Logger
	Registry *prometheus.Registry
	Metrics  *monitoring.Metrics
	Tracing  *monitoring.TracingManager

	Service appservice.CertificationAppService
	Model   domainService.RiskModel
	Catalog domainService.ControlCatalog

	// Redis and DB are nil unless the configuration needs them.
	Redis *redis.RedisConnection
	DB    *database.DBConnection

	closers []func() error
}

// Build connects the configured infrastructure and constructs the certification service.
// On error everything opened so far is closed.
func Build(ctx context.Context, cfg *config.Config, log logger.Logger) (_ *Container, err error) {
	c := &Container{Config: cfg, Logger: log}
	defer func() {
		if err != nil {
			_ = c.Close(context.Background())
		}
	}()

	// Metrics and tracing
	c.Registry = prometheus.NewRegistry()
	c.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	c.Metrics = monitoring.NewMetrics(c.Registry)
	metrics := monitoring.NewMetricsAdapter(c.Metrics)

	if c.Tracing, err = monitoring.NewTracingManager(cfg, log); err != nil {
		return nil, err
	}

	store, err := secrets.NewStore(cfg.Vault, log)
	if err != nil {
		return nil, err
	}

	// Storage
	if cfg.Cache.Enabled && cfg.Cache.Backend == "redis" {
		if c.Redis, err = redis.NewRedisConnection(ctx, &cfg.Redis, log); err != nil {
			return nil, err
		}
		c.closers = append(c.closers, c.Redis.Close)
	}

	var repo repository.VulnerabilityRepository
	if cfg.Dataset.Source == "database" {
		if c.DB, err = database.NewDBConnection(ctx, &cfg.Database, log); err != nil {
			return nil, err
		}
		c.closers = append(c.closers, c.DB.Close)
		if err = c.DB.Migrate(ctx); err != nil {
			return nil, err
		}
		repo = database.NewVulnerabilityRepository(c.DB.DB(), log)
	}

	source, err := dataset.NewSourceFromConfig(&cfg.Dataset, repo, log)
	if err != nil {
		return nil, err
	}
	producers, err := importance.NewProducers(&cfg.Ensemble, log)
	if err != nil {
		return nil, err
	}

	// Risk model, optionally cached
	var apiKey string
	if cfg.Scoring.Model == constants.ModelKindOpenAI {
		if apiKey, err = secrets.Resolve(ctx, store, cfg.Scoring.OpenAI.APIKey, cfg.Scoring.OpenAI.APIKeySecret); err != nil {
			return nil, err
		}
	}
	model, closeModel, err := scoring.NewRiskModel(&cfg.Scoring, apiKey, metrics, log)
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, closeModel)

	if cfg.Cache.Enabled {
		var client goredis.UniversalClient
		if c.Redis != nil {
			client = c.Redis.GetClient()
		}
		predictions, backend, cerr := cache.NewPredictionCache(&cfg.Cache, client, log)
		if cerr != nil {
			return nil, cerr
		}
		model = cache.NewCachedModel(model, predictions, backend, string(cfg.Scoring.Model), cfg.Cache.TTL, metrics, log)
	}
	c.Model = model

	ctl, err := catalog.LoadStaticCatalog(cfg.Catalog.Path)
	if err != nil {
		return nil, err
	}
	c.Catalog = ctl

	// Evidence signing and publishing
	var signer domainService.EvidenceSigner
	if cfg.Attestation.Enabled {
		secret, serr := secrets.Resolve(ctx, store, cfg.Attestation.HMACSecret, cfg.Attestation.SecretName)
		switch {
		case errors.IsCode(serr, constants.ErrCodeNotFound):
			log.Warn(ctx, "signing key not found, evidence will be unsigned", logger.Fields{"secret": cfg.Attestation.SecretName})
		case serr != nil:
			return nil, serr
		default:
			if signer, err = audit.NewHMACSigner(secret, cfg.Attestation.Issuer, cfg.Attestation.TokenTTL); err != nil {
				return nil, err
			}
		}
	}
	publisher, err := audit.NewEvidencePublisher(cfg.Kafka, log)
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, publisher.Close)

	c.Service, err = appservice.NewCertificationAppService(appservice.CertificationDeps{
		Policy:         cfg.Policy.ToDomain(),
		Weights:        models.ImportanceWeights(cfg.Ensemble.Weights),
		TopN:           cfg.Ensemble.TopN,
		SampleRows:     cfg.Explainer.SampleRows,
		Explainer:      cfg.Explainer.ToDomain(),
		PredictTimeout: cfg.Scoring.Timeout,
		Dataset:        source,
		Producers:      producers,
		Model:          model,
		ModelName:      string(cfg.Scoring.Model),
		Catalog:        ctl,
		Signer:         signer,
		Publisher:      publisher,
		Tracer:         c.Tracing,
		Metrics:        metrics,
		Logger:         log,
	})
	if err != nil {
		return nil, err
	}

	log.Info(ctx, "certification service ready", logger.Fields{
		"model":       string(cfg.Scoring.Model),
		"dataset":     cfg.Dataset.Source,
		"cache":       cfg.Cache.Enabled,
		"attestation": cfg.Attestation.Enabled,
		"kafka":       cfg.Kafka.Enabled,
	})
	return c, nil
}

// HealthChecks returns a probe per connected dependency.
func (c *Container) HealthChecks() map[string]func(context.Context) error {
	checks := make(map[string]func(context.Context) error)
	if c.Redis != nil {
		checks["redis"] = c.Redis.Ping
	}
	if c.DB != nil {
		checks["database"] = c.DB.Ping
	}
	return checks
}

// Close releases connections in reverse order of creation and flushes traces.
func (c *Container) Close(ctx context.Context) error {
	var first error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	c.closers = nil
	if c.Tracing != nil {
		if err := c.Tracing.Shutdown(ctx); err != nil && first == nil {
			first = err
		}
	}
	return first
}

//Personal.AI order the ending
