package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	grpc_logging "github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	grpc_recovery "github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"

	"github.com/KirkDiggler/hall-runner/internal/clients/game"
	"github.com/KirkDiggler/hall-runner/internal/config"
	hallv1alpha1 "github.com/KirkDiggler/hall-runner/internal/handlers/hall/v1alpha1"
	"github.com/KirkDiggler/hall-runner/internal/orchestrators/challenge"
	"github.com/KirkDiggler/hall-runner/internal/pkg/clock"
	"github.com/KirkDiggler/hall-runner/internal/pkg/idgen"
	"github.com/KirkDiggler/hall-runner/internal/pkg/pacing"
	redisclient "github.com/KirkDiggler/hall-runner/internal/redis"
	combatcounts "github.com/KirkDiggler/hall-runner/internal/repositories/combat_counts"
	hallsettings "github.com/KirkDiggler/hall-runner/internal/repositories/hall_settings"
	runhistory "github.com/KirkDiggler/hall-runner/internal/repositories/run_history"
	"github.com/KirkDiggler/hall-runner/internal/services/progress"
	"github.com/KirkDiggler/hall-runner/internal/services/runguard"
	"github.com/KirkDiggler/hall-runner/internal/services/skillbook"
	"github.com/KirkDiggler/hall-runner/internal/telemetry"
)

const (
	serviceName     = "hall-runner"
	shutdownTimeout = 30 * time.Second
)

var (
	httpPort int
	grpcPort int
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the HTTP and gRPC servers",
	Long:  `Start the hall runner with its HTTP API and gRPC health endpoint. Settings come from HALL_ environment variables.`,
	RunE:  runServer,
}

func init() {
	serverCmd.Flags().IntVar(&httpPort, "http-port", 0, "HTTP port, overrides HALL_HTTP_PORT")
	serverCmd.Flags().IntVar(&grpcPort, "port", 0, "gRPC port, overrides HALL_GRPC_PORT")
}

func runServer(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if httpPort > 0 {
		cfg.HTTPPort = httpPort
	}
	if grpcPort > 0 {
		cfg.GRPCPort = grpcPort
	}
	slog.SetDefault(newLogger(cfg.LogFormat))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, serviceName, cfg.OTELEndpoint)
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			slog.Warn("Failed to flush traces", "error", err)
		}
	}()

	deps, cleanup, err := buildDependencies(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	handler, err := hallv1alpha1.NewHandler(&hallv1alpha1.HandlerConfig{
		Service:     deps.service,
		Broadcaster: deps.broadcaster,
		Heartbeat:   cfg.Heartbeat,
	})
	if err != nil {
		return fmt.Errorf("failed to create hall handler: %w", err)
	}

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           requestLogger(handler.Routes()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcSrv := newGRPCServer()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("HTTP server starting", "port", cfg.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if cfg.GRPCPort > 0 {
		lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
		if err != nil {
			return fmt.Errorf("failed to listen: %w", err)
		}
		g.Go(func() error {
			slog.Info("gRPC server starting", "port", cfg.GRPCPort)
			if err := grpcSrv.Serve(lis); err != nil {
				return fmt.Errorf("grpc server: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down servers")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("HTTP shutdown did not finish", "error", err)
		}

		stopped := make(chan struct{})
		go func() {
			grpcSrv.GracefulStop()
			close(stopped)
		}()
		select {
		case <-shutdownCtx.Done():
			slog.Warn("Graceful shutdown timeout exceeded, forcing stop")
			grpcSrv.Stop()
		case <-stopped:
			slog.Info("Servers stopped gracefully")
		}
		return nil
	})

	return g.Wait()
}

type dependencies struct {
	service     challenge.Service
	broadcaster *progress.Broadcaster
}

func buildDependencies(ctx context.Context, cfg *config.Config) (*dependencies, func(), error) {
	clk := clock.New()

	rdb, err := redisclient.Connect(ctx, cfg.RedisEndpoints, &redisclient.Options{
		PoolSize: cfg.RedisPoolSize,
		UseTLS:   cfg.RedisTLS,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	history, err := runhistory.Open(&runhistory.Config{
		Path:        cfg.HistoryPath,
		IDGenerator: idgen.NewULID(),
	})
	if err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("failed to open run history: %w", err)
	}

	cleanup := func() {
		if err := history.Close(); err != nil {
			slog.Warn("Failed to close run history", "error", err)
		}
		if err := rdb.Close(); err != nil {
			slog.Warn("Failed to close redis", "error", err)
		}
	}
	fail := func(err error) (*dependencies, func(), error) {
		cleanup()
		return nil, nil, err
	}

	settings, err := hallsettings.NewRedisRepository(&hallsettings.Config{Client: rdb})
	if err != nil {
		return fail(fmt.Errorf("failed to create settings repository: %w", err))
	}
	counts, err := combatcounts.NewRedisRepository(&combatcounts.Config{Client: rdb, Clock: clk})
	if err != nil {
		return fail(fmt.Errorf("failed to create counts repository: %w", err))
	}

	skills, err := loadSkillBook(cfg.SkillBookPath)
	if err != nil {
		return fail(err)
	}

	gameClient := newSimulator(cfg)

	runner, err := challenge.NewRunner(&challenge.RunnerConfig{
		Client: gameClient,
		Clock:  clk,
		Skills: skills,
		Pacer: pacing.New(pacing.Config{
			Base:        cfg.PaceBase,
			JitterStep:  cfg.PaceJitterStep,
			JitterSides: cfg.PaceJitterSides,
		}),
		MaxResurrections: cfg.MaxResurrections,
		RepairEvery:      cfg.RepairEvery,
	})
	if err != nil {
		return fail(fmt.Errorf("failed to create runner: %w", err))
	}

	guard, err := runguard.New(&runguard.Config{Clock: clk})
	if err != nil {
		return fail(fmt.Errorf("failed to create run guard: %w", err))
	}
	broadcaster, err := progress.New(&progress.Config{Clock: clk, IDGenerator: idgen.NewULID()})
	if err != nil {
		return fail(fmt.Errorf("failed to create broadcaster: %w", err))
	}

	svc, err := challenge.NewOrchestrator(&challenge.Config{
		Runner:          runner,
		Client:          gameClient,
		Guard:           guard,
		Broadcaster:     broadcaster,
		Settings:        settings,
		Counts:          counts,
		History:         history,
		Clock:           clk,
		IDGenerator:     idgen.NewUUID("sess"),
		WorkerPoolSize:  cfg.WorkerPoolSize,
		StopWaitTimeout: cfg.StopWait,
	})
	if err != nil {
		return fail(fmt.Errorf("failed to create orchestrator: %w", err))
	}

	return &dependencies{service: svc, broadcaster: broadcaster}, cleanup, nil
}

func loadSkillBook(path string) (*skillbook.Book, error) {
	if path == "" {
		return skillbook.Default()
	}
	book, err := skillbook.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load skill book: %w", err)
	}
	slog.Info("Loaded skill book", "path", path)
	return book, nil
}

// newSimulator builds the in-memory game seeded with the configured accounts.
// The real game transport is not part of this binary.
func newSimulator(cfg *config.Config) *game.Simulator {
	sim := game.NewSimulator(&game.SimulatorConfig{TopFloor: cfg.SimTopFloor})
	for _, entry := range cfg.SimAccounts {
		id, career, _ := config.SplitSimAccount(entry)
		sim.AddAccount(game.SimAccount{ID: id, Career: career})
	}
	slog.Info("Using simulated game", "accounts", len(cfg.SimAccounts), "top_floor", cfg.SimTopFloor)
	return sim
}

func newGRPCServer() *grpc.Server {
	logger := grpc_logging.LoggerFunc(logFunc)

	srv := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			grpc_logging.UnaryServerInterceptor(logger),
			grpc_recovery.UnaryServerInterceptor(),
			errorUnaryInterceptor,
		),
		grpc.ChainStreamInterceptor(
			grpc_logging.StreamServerInterceptor(logger),
			grpc_recovery.StreamServerInterceptor(),
			errorStreamInterceptor,
		),
	)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(srv, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)

	reflection.Register(srv)
	return srv
}
