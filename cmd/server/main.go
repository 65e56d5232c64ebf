package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/grpc"

	"github.com/turtacn/pnet/internal/bootstrap"
	"github.com/turtacn/pnet/internal/config"
	"github.com/turtacn/pnet/internal/infrastructure/monitoring"
	grpchandlers "github.com/turtacn/pnet/internal/interfaces/grpc"
	"github.com/turtacn/pnet/internal/interfaces/http"
	"github.com/turtacn/pnet/internal/interfaces/http/handlers"
	"github.com/turtacn/pnet/pkg/logger"
)

// configEnv names the environment variable holding an explicit config file path.
const configEnv = "PNET_CONFIG_FILE"

func main() {
	ctx := context.Background()

	// Logger for startup
	startupLogger, err := monitoring.NewZapLogger(&config.LogConfig{Level: "info"})
	if err != nil {
		log.Fatalf("Failed to create startup logger: %v", err)
	}

	// Load config
	loader := config.NewLoader(os.Getenv(configEnv), startupLogger)
	cfg, err := loader.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	appLogger, err := monitoring.NewZapLogger(&cfg.Log)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	// Initialize infrastructure and the certification service
	container, err := bootstrap.Build(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to build certification service", err)
	}

	// Policy hot reload
	loader.Watch(func(next *config.Config) {
		if err := container.Service.ApplyPolicy(context.Background(), next.Policy.ToDomain()); err != nil {
			appLogger.Error(context.Background(), "Failed to apply reloaded policy", err)
		}
	})

	// Initial calibration so assessments are served without a manual call
	go func() {
		if _, err := container.Service.Calibrate(context.Background()); err != nil {
			appLogger.Error(context.Background(), "Initial calibration failed", err)
		}
	}()

	// Initialize HTTP handlers and router
	checkers := make(map[string]handlers.Checker)
	for name, check := range container.HealthChecks() {
		checkers[name] = check
	}
	healthHandler := handlers.NewHealthHandler(container.Service, string(cfg.Scoring.Model), checkers, appLogger)
	certificationHandler := handlers.NewCertificationHandler(container.Service, appLogger)
	router := http.NewRouter(
		&cfg.Server, appLogger,
		healthHandler, certificationHandler,
		container.Tracing.Tracer(), container.Metrics, container.Registry,
	)

	go func() {
		if err := router.Start(); err != nil {
			appLogger.Fatal(context.Background(), "HTTP server failed", err)
		}
	}()

	// Initialize and start gRPC server
	grpcServer := startGRPCServer(cfg, container, appLogger)

	// Wait for shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	appLogger.Info(ctx, "Shutting down", logger.Fields{"signal": sig.String()})

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := router.Stop(shutdownCtx); err != nil {
		appLogger.Error(shutdownCtx, "HTTP server shutdown failed", err)
	}
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	if err := container.Close(shutdownCtx); err != nil {
		appLogger.Error(shutdownCtx, "Failed to release resources", err)
	}
	appLogger.Info(ctx, "Server stopped")
}

// startGRPCServer serves the configured risk model as RiskScorer. A zero port disables it.
func startGRPCServer(cfg *config.Config, container *bootstrap.Container, log logger.Logger) *grpc.Server {
	if cfg.Server.GRPCPort == 0 {
		return nil
	}

	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.GRPCPort))
	if err != nil {
		log.Fatal(context.Background(), "Failed to listen for gRPC", err)
	}

	chain := grpchandlers.NewInterceptorChain(log, cfg.Server.GRPCRateLimit)
	grpcServer := grpchandlers.NewScorerGRPCServer(container.Model, log, chain.ChainUnaryInterceptors())

	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatal(context.Background(), "gRPC server failed", err)
		}
	}()

	log.Info(context.Background(), "gRPC scorer listening", logger.Fields{"address": lis.Addr().String()})
	return grpcServer
}

//Personal.AI order the ending
