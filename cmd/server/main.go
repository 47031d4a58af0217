package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	grpcadapter "github.com/simaogato/dcaflow-backend/internal/adapter/grpc"
	"github.com/simaogato/dcaflow-backend/internal/adapter/rest"
	"github.com/simaogato/dcaflow-backend/internal/adapter/scheduler"
	"github.com/simaogato/dcaflow-backend/internal/app"
	"github.com/simaogato/dcaflow-backend/internal/config"
	"github.com/simaogato/dcaflow-backend/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// 1. Load configuration
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		bootstrap := logger.New(logger.Config{})
		bootstrap.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("Server stopped with error")
	}
	log.Info().Msg("Server stopped")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// 2. Initialize repositories and services
	a, err := app.New(ctx, cfg, app.Options{}, log)
	if err != nil {
		return err
	}
	defer a.Close()
	log.Info().
		Str("driver", cfg.Database.Driver).
		Str("provider", cfg.Prices.Provider).
		Msg("Services initialized")

	// 3. Scheduled price refresh
	sched := scheduler.NewScheduler(ctx, a.Refresher(), a.Analytics, cfg.Prices.TrackedTickers, cfg.Prices.PopularLimit, log)
	if err := sched.Register(cfg.Prices.RefreshCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	// 4. gRPC server
	grpcServer, healthServer := grpcadapter.NewGRPCServer(
		grpcadapter.NewServer(a.Simulation, a.Refresher(), a.Analytics),
		cfg.Server.APIToken,
		log,
	)
	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		return err
	}

	// 5. HTTP server
	httpServer := rest.New(rest.Config{
		Addr:      cfg.Server.HTTPAddr,
		Log:       log,
		Simulator: a.Simulation,
		Refresher: a.Refresher(),
		Analytics: a.Analytics,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", cfg.Server.GRPCAddr).Msg("gRPC server listening")
		return grpcServer.Serve(lis)
	})
	g.Go(func() error {
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down gracefully...")

		healthServer.SetServingStatus(grpcadapter.ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := httpServer.Shutdown(shutdownCtx)
		grpcServer.GracefulStop()
		return err
	})

	return g.Wait()
}
