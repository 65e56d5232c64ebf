package grpc

import (
	"context"
	"math"
	"sort"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/turtacn/pnet/internal/domain/models"
	"github.com/turtacn/pnet/internal/domain/service"
	"github.com/turtacn/pnet/pkg/constants"
	"github.com/turtacn/pnet/pkg/logger"
)

const (
	fieldFeatures = "features"
	fieldRisk     = "risk"
)

// RiskScorerServer is the server API of the RiskScorer service.
type RiskScorerServer interface {
	Predict(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// RiskScorerServiceDesc describes the RiskScorer service. Messages are
// google.protobuf.Struct so no generated stubs are needed.
var RiskScorerServiceDesc = grpc.ServiceDesc{
	ServiceName: constants.ScorerServiceName,
	HandlerType: (*RiskScorerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Predict", Handler: predictHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "pnet/scoring/v1/scorer.proto",
}

func predictHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RiskScorerServer).Predict(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: constants.ScorerPredictMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RiskScorerServer).Predict(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// ScorerService exposes a RiskModel over gRPC.
type ScorerService struct {
	model service.RiskModel
	log   logger.Logger
}

// NewScorerGRPCServer creates a gRPC server serving model as RiskScorer.
func NewScorerGRPCServer(model service.RiskModel, log logger.Logger, opts ...grpc.ServerOption) *grpc.Server {
	server := grpc.NewServer(opts...)
	server.RegisterService(&RiskScorerServiceDesc, &ScorerService{
		model: model,
		log:   log.WithComponent("ScorerService"),
	})
	return server
}

// Predict decodes the feature map, scores it and returns {"risk": value}.
func (s *ScorerService) Predict(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	raw, ok := req.GetFields()[fieldFeatures]
	if !ok || raw.GetStructValue() == nil {
		return nil, status.Error(codes.InvalidArgument, "request has no features object")
	}
	fields := raw.GetStructValue().GetFields()

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	values := make([]float64, len(names))
	for i, name := range names {
		num, ok := fields[name].GetKind().(*structpb.Value_NumberValue)
		if !ok || math.IsNaN(num.NumberValue) || math.IsInf(num.NumberValue, 0) {
			return nil, status.Errorf(codes.InvalidArgument, "feature %s is not a finite number", name)
		}
		values[i] = num.NumberValue
	}

	risk, err := s.model.Predict(ctx, models.Row{Names: names, Values: values})
	if err != nil {
		return nil, err
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldRisk: structpb.NewNumberValue(risk),
	}}, nil
}

//Personal.AI order the ending
