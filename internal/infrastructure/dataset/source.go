package dataset

import (
	"context"
	"fmt"

	"github.com/turtacn/pnet/internal/config"
	"github.com/turtacn/pnet/internal/domain/models"
	"github.com/turtacn/pnet/internal/domain/repository"
	"github.com/turtacn/pnet/internal/domain/service"
	"github.com/turtacn/pnet/pkg/errors"
	"github.com/turtacn/pnet/pkg/logger"
)

// RecordLoader fetches raw records before asset filtering and feature engineering.
type RecordLoader func(ctx context.Context) ([]models.VulnerabilityRecord, error)

// Source is a service.DatasetSource built from a RecordLoader.
type Source struct {
	name     string
	load     RecordLoader
	assets   []string
	engineer *FeatureEngineer
	log      logger.Logger
}

// NewSource wires a loader to the asset filter and the feature engineer.
func NewSource(name string, load RecordLoader, assets []string, engineer *FeatureEngineer, log logger.Logger) *Source {
	return &Source{
		name:     name,
		load:     load,
		assets:   assets,
		engineer: engineer,
		log:      log.WithComponent("DatasetSource"),
	}
}

// Load implements service.DatasetSource.
func (s *Source) Load(ctx context.Context) (models.FeatureMatrix, models.TargetVector, error) {
	records, err := s.load(ctx)
	if err != nil {
		return models.FeatureMatrix{}, nil, err
	}

	filtered := FilterAssets(records, s.assets)
	if len(filtered) == 0 {
		return models.FeatureMatrix{}, nil, errors.ErrDegenerateInput(
			fmt.Sprintf("none of %d %s records match the configured assets", len(records), s.name))
	}

	s.log.Info(ctx, "dataset loaded", logger.Fields{
		"source":   s.name,
		"records":  len(records),
		"filtered": len(filtered),
		"assets":   len(s.assets),
	})
	return s.engineer.Transform(ctx, filtered)
}

// NewSyntheticSource returns a source of generated records.
func NewSyntheticSource(rows int, seed int64, assets []string, engineer *FeatureEngineer, log logger.Logger) *Source {
	asset := ""
	if len(assets) > 0 {
		asset = assets[0]
	}
	load := func(ctx context.Context) ([]models.VulnerabilityRecord, error) {
		return GenerateSynthetic(rows, seed, asset), nil
	}
	return NewSource("synthetic", load, assets, engineer, log)
}

// NewCSVSource returns a source reading a CSV export on every Load.
func NewCSVSource(path string, assets []string, engineer *FeatureEngineer, log logger.Logger) *Source {
	load := func(ctx context.Context) ([]models.VulnerabilityRecord, error) {
		return ReadCSVFile(path)
	}
	return NewSource("csv", load, assets, engineer, log)
}

// NewRepositorySource returns a source backed by the vulnerability store.
func NewRepositorySource(repo repository.VulnerabilityRepository, assets []string, engineer *FeatureEngineer, log logger.Logger) *Source {
	load := func(ctx context.Context) ([]models.VulnerabilityRecord, error) {
		return repo.ListByProducts(ctx, assets)
	}
	return NewSource("database", load, assets, engineer, log)
}

// NewSourceFromConfig selects the source named by cfg.Source. repo is only used by the
// database source and may be nil otherwise.
func NewSourceFromConfig(cfg *config.DatasetConfig, repo repository.VulnerabilityRepository, log logger.Logger) (service.DatasetSource, error) {
	engineer := NewFeatureEngineer(nil, log)

	switch cfg.Source {
	case "synthetic", "":
		return NewSyntheticSource(cfg.SyntheticRows, cfg.Seed, cfg.Assets, engineer, log), nil
	case "csv":
		return NewCSVSource(cfg.Path, cfg.Assets, engineer, log), nil
	case "database":
		if repo == nil {
			return nil, errors.ErrConfiguration("database dataset source requires a vulnerability repository")
		}
		return NewRepositorySource(repo, cfg.Assets, engineer, log), nil
	default:
		return nil, errors.ErrConfiguration(fmt.Sprintf("unknown dataset.source %q", cfg.Source))
	}
}

//Personal.AI order the ending
