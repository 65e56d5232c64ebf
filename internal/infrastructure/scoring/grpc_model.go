package scoring

import (
	"context"
	"fmt"
	"math"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/turtacn/pnet/internal/config"
	"github.com/turtacn/pnet/internal/domain/models"
	"github.com/turtacn/pnet/pkg/constants"
	"github.com/turtacn/pnet/pkg/errors"
	"github.com/turtacn/pnet/pkg/logger"
)

// Wire fields of the RiskScorer Predict call.
const (
	FieldFeatures = "features"
	FieldRisk     = "risk"
)

// GRPCModel scores rows through a remote RiskScorer service.
// Requests carry {"features": {name: value}}, replies carry {"risk": value}.
type GRPCModel struct {
	conn   *grpc.ClientConn
	method string
	log    logger.Logger
}

// NewGRPCModel connects lazily to cfg.Target. Extra options are appended to the defaults.
func NewGRPCModel(cfg *config.GRPCScorerConfig, log logger.Logger, opts ...grpc.DialOption) (*GRPCModel, error) {
	if cfg.Target == "" {
		return nil, errors.ErrConfiguration("scoring.grpc.target is required")
	}

	var dialOpts []grpc.DialOption
	if cfg.Insecure {
		dialOpts = append(dialOpts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}
	dialOpts = append(dialOpts, opts...)

	conn, err := grpc.NewClient(cfg.Target, dialOpts...)
	if err != nil {
		return nil, errors.WrapError(err, constants.ErrCodeConfiguration, fmt.Sprintf("failed to create grpc client for %s", cfg.Target))
	}

	method := cfg.Method
	if method == "" {
		method = constants.ScorerPredictMethod
	}
	return &GRPCModel{conn: conn, method: method, log: log.WithComponent("GRPCModel")}, nil
}

// Predict implements service.RiskModel.
func (m *GRPCModel) Predict(ctx context.Context, row models.Row) (float64, error) {
	features := make(map[string]interface{}, len(row.Names))
	for i, name := range row.Names {
		features[name] = row.Values[i]
	}
	req, err := structpb.NewStruct(map[string]interface{}{FieldFeatures: features})
	if err != nil {
		return 0, errors.WrapError(err, constants.ErrCodePredictionFailure, "failed to encode scoring request")
	}

	resp := &structpb.Struct{}
	if err := m.conn.Invoke(ctx, m.method, req, resp); err != nil {
		return 0, errors.WrapError(err, constants.ErrCodePredictionFailure, "remote scorer call failed")
	}

	v, ok := resp.GetFields()[FieldRisk]
	if !ok {
		return 0, errors.ErrPredictionFailure("remote scorer reply has no risk field")
	}
	num, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok || math.IsNaN(num.NumberValue) {
		return 0, errors.ErrPredictionFailure("remote scorer risk is not a number")
	}
	return num.NumberValue, nil
}

// Close releases the connection.
func (m *GRPCModel) Close() error {
	return m.conn.Close()
}

//Personal.AI order the ending
