package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/turtacn/pnet/internal/domain/models"
	"github.com/turtacn/pnet/pkg/constants"
	"github.com/turtacn/pnet/pkg/errors"
)

// CSV header names understood by ReadCSV.
const (
	ColumnCVEID         = "cve_id"
	ColumnProduct       = "product"
	ColumnVendor        = "vendor"
	ColumnExploitCount  = "exploit_count"
	ColumnPublishedDate = "cve_published_date"
	ColumnEPSS          = "epss"
)

var publishedLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// ReadCSVFile opens path and parses it with ReadCSV.
func ReadCSVFile(path string) ([]models.VulnerabilityRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapError(err, constants.ErrCodeConfiguration, fmt.Sprintf("failed to open dataset %s", path))
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV parses a vulnerability export with a header row. Columns may appear in any
// order; unknown columns are ignored and empty cells are treated as missing.
// The product and epss columns are mandatory.
func ReadCSV(r io.Reader) ([]models.VulnerabilityRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.ErrDegenerateInput("dataset is empty")
	}
	if err != nil {
		return nil, errors.WrapError(err, constants.ErrCodeDegenerateInput, "failed to read dataset header")
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := index[ColumnProduct]; !ok {
		return nil, errors.ErrDegenerateInput("dataset has no product column")
	}
	if _, ok := index[ColumnEPSS]; !ok {
		return nil, errors.ErrDegenerateInput("target variable 'epss' not found in dataset")
	}

	var records []models.VulnerabilityRecord
	for line := 2; ; line++ {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.WrapError(err, constants.ErrCodeDegenerateInput, fmt.Sprintf("failed to read dataset line %d", line))
		}

		cell := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(fields) {
				return ""
			}
			return strings.TrimSpace(fields[i])
		}

		rec := models.VulnerabilityRecord{
			ID:           uint(line - 1),
			CVEID:        cell(ColumnCVEID),
			Product:      cell(ColumnProduct),
			Vendor:       cell(ColumnVendor),
			AttackVector: cell(constants.FeatureAttackVector),
			PublishedAt:  parsePublished(cell(ColumnPublishedDate)),
		}

		numeric := []struct {
			column string
			dst    **float64
		}{
			{constants.FeatureBaseScore, &rec.BaseScore},
			{constants.FeatureExploitability, &rec.ExploitabilityScore},
			{constants.FeatureImpact, &rec.ImpactScore},
			{ColumnExploitCount, &rec.ExploitCount},
			{ColumnEPSS, &rec.EPSS},
		}
		for _, n := range numeric {
			v, err := parseOptionalFloat(cell(n.column))
			if err != nil {
				return nil, errors.WrapError(err, constants.ErrCodeDegenerateInput,
					fmt.Sprintf("line %d column %s is not numeric", line, n.column))
			}
			*n.dst = v
		}

		records = append(records, rec)
	}

	return records, nil
}

func parseOptionalFloat(s string) (*float64, error) {
	if s == "" || strings.EqualFold(s, "nan") || strings.EqualFold(s, "null") {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// parsePublished returns nil for empty or unparsable dates.
func parsePublished(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range publishedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

//Personal.AI order the ending
