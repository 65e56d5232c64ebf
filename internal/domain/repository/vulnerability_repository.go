package repository

import (
	"context"

	"github.com/turtacn/pnet/internal/domain/models"
)

//go:generate mockery --name VulnerabilityRepository --output mocks --outpkg mocks
// VulnerabilityRepository provides read access to raw vulnerability observations.
// VulnerabilityRepository 提供对原始漏洞观测数据的读取访问。
type VulnerabilityRepository interface {
	// ListByProducts returns records whose product contains any of the given names, ignoring case.
	// An empty list returns every record.
	// ListByProducts 返回产品名称包含任一给定名称（不区分大小写）的记录。
	ListByProducts(ctx context.Context, products []string) ([]models.VulnerabilityRecord, error)

	// SaveBatch inserts records in batches, used for ingestion and seeding.
	// SaveBatch 批量插入记录，用于数据导入和初始化。
	SaveBatch(ctx context.Context, records []models.VulnerabilityRecord) error

	// Count returns the number of stored records.
	Count(ctx context.Context) (int64, error)
}
