package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"go.uber.org/goleak"

	"github.com/turtacn/pnet/internal/domain/models"
	"github.com/turtacn/pnet/internal/domain/service"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// MockRiskModel is a mock implementation of RiskModel
type MockRiskModel struct {
	mock.Mock
}

func (m *MockRiskModel) Predict(ctx context.Context, row models.Row) (float64, error) {
	args := m.Called(ctx, row)
	return args.Get(0).(float64), args.Error(1)
}

// heuristicModel mirrors the CVSS heuristic used by the demo case study.
var heuristicModel = service.PredictFunc(func(_ context.Context, row models.Row) (float64, error) {
	score := 0.08*row.GetOr("base_score", 5.0) + 0.2*row.GetOr("has_public_exploit", 0)
	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}
	return score, nil
})

// linearModel returns sum(w[name] * value) over the row.
func linearModel(w map[string]float64) service.RiskModel {
	return service.PredictFunc(func(_ context.Context, row models.Row) (float64, error) {
		var sum float64
		for i, n := range row.Names {
			sum += w[n] * row.Values[i]
		}
		return sum, nil
	})
}

func sampleRows(columns []string, values ...[]float64) []models.Row {
	m := models.FeatureMatrix{Columns: columns, Rows: values}
	return m.Head(0)
}
