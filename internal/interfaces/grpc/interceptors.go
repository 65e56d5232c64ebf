package grpc

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	grpcCodes "google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/turtacn/pnet/pkg/constants"
	"github.com/turtacn/pnet/pkg/errors"
	"github.com/turtacn/pnet/pkg/logger"
)

// InterceptorChain 拦截器链
type InterceptorChain struct {
	log     logger.Logger
	limiter *rate.Limiter
}

// NewInterceptorChain 创建拦截器链. A non-positive rps disables rate limiting.
func NewInterceptorChain(log logger.Logger, rps float64) *InterceptorChain {
	ic := &InterceptorChain{log: log.WithComponent("GRPCInterceptor")}
	if rps > 0 {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		ic.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
	return ic
}

// UnaryRecoveryInterceptor 恢复拦截器(捕获 panic)
func (ic *InterceptorChain) UnaryRecoveryInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (resp interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				ic.log.Error(ctx, "gRPC handler panic recovered", fmt.Errorf("%v", r),
					logger.Fields{"method": info.FullMethod},
				)
				err = status.Errorf(grpcCodes.Internal, "internal server error: %v", r)
			}
		}()

		return handler(ctx, req)
	}
}

// UnaryLoggingInterceptor 日志拦截器
// Logs every call with its outcome. Domain errors are reported by code since the error
// interceptor converts them only on the way out.
func (ic *InterceptorChain) UnaryLoggingInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		fields := logger.Fields{"method": info.FullMethod, "outcome": outcome(err)}
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if agents := md.Get("user-agent"); len(agents) > 0 {
				fields["user_agent"] = agents[0]
			}
		}
		fields = logger.Merge(fields, logger.Duration("duration_ms", time.Since(start)))
		if err != nil && errors.ShouldLogError(err) {
			ic.log.Warn(ctx, "risk scorer call failed", fields)
			return resp, err
		}
		ic.log.Debug(ctx, "risk scorer call completed", fields)
		return resp, err
	}
}

// UnaryRateLimitInterceptor 限流拦截器
func (ic *InterceptorChain) UnaryRateLimitInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if ic.limiter != nil && !ic.limiter.Allow() {
			return nil, errors.ErrRateLimited("prediction budget exceeded for " + info.FullMethod)
		}
		return handler(ctx, req)
	}
}

// UnaryErrorInterceptor 错误转换拦截器(将领域错误转换为 gRPC 状态码)
func (ic *InterceptorChain) UnaryErrorInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		resp, err := handler(ctx, req)
		if err == nil {
			return resp, nil
		}
		if _, ok := status.FromError(err); ok {
			return resp, err
		}
		return resp, convertDomainErrorToGRPC(err)
	}
}

// convertDomainErrorToGRPC maps error codes onto gRPC codes. Model and dependency
// failures are Unavailable so clients may retry; bad input is InvalidArgument.
func convertDomainErrorToGRPC(err error) error {
	pnetErr, ok := errors.AsPNetError(err)
	if !ok {
		return status.Errorf(grpcCodes.Internal, "internal server error: %v", err)
	}

	var code grpcCodes.Code
	switch pnetErr.Code() {
	case constants.ErrCodeNotFound:
		code = grpcCodes.NotFound
	case constants.ErrCodeConfiguration, constants.ErrCodeInvalidRequest, constants.ErrCodeDegenerateInput:
		code = grpcCodes.InvalidArgument
	case constants.ErrCodePredictionFailure, constants.ErrCodeExplainerExhausted, constants.ErrCodeUnavailable:
		code = grpcCodes.Unavailable
	case constants.ErrCodeRateLimited:
		code = grpcCodes.ResourceExhausted
	default:
		return status.Errorf(grpcCodes.Internal, "internal server error: %v", err)
	}
	return status.Error(code, pnetErr.Error())
}

func outcome(err error) string {
	if err == nil {
		return grpcCodes.OK.String()
	}
	if pnetErr, ok := errors.AsPNetError(err); ok {
		return string(pnetErr.Code())
	}
	return status.Code(err).String()
}

// ChainUnaryInterceptors 链式调用所有拦截器
func (ic *InterceptorChain) ChainUnaryInterceptors() grpc.ServerOption {
	return grpc.ChainUnaryInterceptor(
		ic.UnaryRecoveryInterceptor(),  // 1. 恢复 panic
		ic.UnaryErrorInterceptor(),     // 2. 错误转换
		ic.UnaryLoggingInterceptor(),   // 3. 日志
		ic.UnaryRateLimitInterceptor(), // 4. 限流
	)
}

//Personal.AI order the ending
