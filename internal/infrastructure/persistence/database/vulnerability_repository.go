package database

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/turtacn/pnet/internal/domain/models"
	"github.com/turtacn/pnet/internal/domain/repository"
	"github.com/turtacn/pnet/pkg/constants"
	"github.com/turtacn/pnet/pkg/errors"
	"github.com/turtacn/pnet/pkg/logger"
)

const saveBatchSize = 500

type vulnerabilityRepository struct {
	db  *gorm.DB
	log logger.Logger
}

// NewVulnerabilityRepository creates a gorm-backed VulnerabilityRepository.
func NewVulnerabilityRepository(db *gorm.DB, log logger.Logger) repository.VulnerabilityRepository {
	return &vulnerabilityRepository{
		db:  db,
		log: log.WithComponent("VulnerabilityRepository"),
	}
}

func (r *vulnerabilityRepository) ListByProducts(ctx context.Context, products []string) ([]models.VulnerabilityRecord, error) {
	query := r.db.WithContext(ctx).Model(&models.VulnerabilityRecord{})

	if len(products) > 0 {
		clauses := make([]string, 0, len(products))
		args := make([]interface{}, 0, len(products))
		for _, p := range products {
			clauses = append(clauses, "LOWER(product) LIKE ?")
			args = append(args, "%"+strings.ToLower(p)+"%")
		}
		query = query.Where(strings.Join(clauses, " OR "), args...)
	}

	var records []models.VulnerabilityRecord
	if err := query.Order("id").Find(&records).Error; err != nil {
		return nil, errors.WrapError(err, constants.ErrCodeUnavailable, "failed to query vulnerability records")
	}

	r.log.Debug(ctx, "vulnerability records loaded", logger.Fields{
		"assets":  len(products),
		"records": len(records),
	})
	return records, nil
}

func (r *vulnerabilityRepository) SaveBatch(ctx context.Context, records []models.VulnerabilityRecord) error {
	if len(records) == 0 {
		return nil
	}
	// Records already stored under the same id are skipped so ingestion can be re-run.
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(records, saveBatchSize).Error
	if err != nil {
		return errors.WrapError(err, constants.ErrCodeInternal, "failed to save vulnerability records")
	}
	return nil
}

func (r *vulnerabilityRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.VulnerabilityRecord{}).Count(&n).Error; err != nil {
		return 0, errors.WrapError(err, constants.ErrCodeUnavailable, "failed to count vulnerability records")
	}
	return n, nil
}

//Personal.AI order the ending
