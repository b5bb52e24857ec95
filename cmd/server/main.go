package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"

	"github.com/DaDevFox/task-systems/warehouse-core/internal/advisor"
	"github.com/DaDevFox/task-systems/warehouse-core/internal/auth"
	"github.com/DaDevFox/task-systems/warehouse-core/internal/config"
	"github.com/DaDevFox/task-systems/warehouse-core/internal/events"
	"github.com/DaDevFox/task-systems/warehouse-core/internal/logging"
	"github.com/DaDevFox/task-systems/warehouse-core/internal/printer"
	"github.com/DaDevFox/task-systems/warehouse-core/internal/repository"
	"github.com/DaDevFox/task-systems/warehouse-core/internal/service"
	"github.com/DaDevFox/task-systems/warehouse-core/internal/transport"
)

const serviceName = "warehouse-core"

func main() {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize repository
	repo, err := repository.NewRepository(ctx, repository.Options{
		Type:        repository.DatabaseType(cfg.DBType),
		Path:        cfg.DBPath,
		PostgresURL: cfg.PostgresURL,
	}, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to initialize repository")
	}
	defer repo.Close()

	eventBus := events.NewEventBus(serviceName, logger)
	eventBus.SubscribeAll(events.LogHandler(logger))

	pdfPrinter, err := printer.NewPDFPrinter(cfg.ReportDir, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to initialize report printer")
	}

	opts := []service.Option{service.WithPrinter(pdfPrinter)}

	stockAdvisor, closeAdvisor, err := newAdvisor(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to initialize stock advisor")
	}
	defer closeAdvisor()
	if stockAdvisor != nil {
		opts = append(opts, service.WithAdvisor(advisor.WithRateLimit(stockAdvisor, cfg.AdvisorRPS)))
	}

	warehouseService := service.NewWarehouseService(repo, eventBus, logger, opts...)

	interceptor := auth.NewInterceptor(logger, auth.WithIdentityRequired(cfg.RequireUser))
	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(interceptor.Unary()))
	transport.RegisterWarehouseServer(grpcServer, transport.NewServer(warehouseService, logger))

	// Listen on port
	lis, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.Port))
	if err != nil {
		logger.WithError(err).Fatal("failed to listen")
	}

	logger.WithFields(logrus.Fields{
		"port":          cfg.Port,
		"db_type":       cfg.DBType,
		"advisor":       cfg.Advisor,
		"report_dir":    cfg.ReportDir,
		"require_users": cfg.RequireUser,
	}).Info("starting warehouse-core gRPC server")

	// Start server in goroutine
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			logger.WithError(err).Error("gRPC server failed")
			cancel()
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.WithField("signal", sig).Info("received shutdown signal")
	case <-ctx.Done():
		logger.Info("context cancelled")
	}

	logger.Info("shutting down warehouse-core server")
	grpcServer.GracefulStop()
	eventBus.Wait()
}

// newAdvisor builds the configured stock advisor. It returns a nil advisor
// when advisory suggestions are disabled.
func newAdvisor(ctx context.Context, cfg *config.ServerConfig, logger *logrus.Logger) (advisor.Advisor, func(), error) {
	noop := func() {}

	switch cfg.Advisor {
	case config.AdvisorGemini:
		gemini, err := advisor.NewGeminiAdvisor(ctx, cfg.GeminiAPIKey, cfg.AdvisorModel, logger)
		if err != nil {
			return nil, noop, err
		}
		return gemini, func() {
			if err := gemini.Close(); err != nil {
				logger.WithError(err).Warn("failed to close gemini client")
			}
		}, nil
	case config.AdvisorOpenAI:
		openai, err := advisor.NewOpenAIAdvisor(cfg.OpenAIAPIKey, cfg.AdvisorModel, logger)
		if err != nil {
			return nil, noop, err
		}
		return openai, noop, nil
	default:
		return nil, noop, nil
	}
}
