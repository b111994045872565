package main

import (
	"chat-relay/domain/event"
	"chat-relay/gateway"
	"chat-relay/internal"
	"chat-relay/observability"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	grpc3 "github.com/mama165/sdk-go/grpc"
	"github.com/mama165/sdk-go/logs"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

const relayServiceName = "chat.relay"

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Relay terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// Deferred cleanups always execute before the process exits.
func run() (int, error) {
	// 1. Configuration & Logger
	config, err := internal.LoadConfig()
	if err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	logger := logs.GetLoggerFromString(config.LogLevel)

	// 2. Engine state
	registry := runtime.NewRegistry()
	typing := runtime.NewTypingSet()
	engine := runtime.NewEngine(logger, registry, typing)

	// 3. Setup Supervision & Orchestration
	counter := event.NewCounter()
	telemetryChan := make(chan event.Event, config.InboundBufferSize)
	sup := workers.NewSupervisor(logger, telemetryChan, config.RestartInterval)
	hub := gateway.NewHub(logger)

	orchestrator := runtime.NewOrchestrator(
		logger, sup, engine, hub, telemetryChan,
		config.InboundBufferSize, config.MetricInterval, config.LowCapacityThreshold,
	)
	orchestrator.RegisterHandlers(
		event.NewWorkerRestartedAfterPanicHandler(logger, counter),
		event.NewEventProcessedHandler(logger, counter),
	)

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 3)
	orchestratorDone := make(chan struct{})

	monitor := observability.NewMonitor(logger, engine, hub, counter)
	sup.Add(workers.NewHeartbeatWorker(logger, monitor, config.HeartbeatInterval))

	// 5. Start the Engine (Workers and Fanout)
	go func() {
		defer close(orchestratorDone)
		logger.Info("Starting orchestrator...")
		if err := orchestrator.Start(ctx); err != nil {
			errChan <- fmt.Errorf("orchestrator error: %w", err)
		}
	}()

	// 6. HTTP & websocket server
	wsServer := gateway.NewServer(logger, hub, orchestrator, gateway.Options{
		ConnectionBufferSize: config.ConnectionBufferSize,
		WriteTimeout:         config.WriteTimeout,
		PongTimeout:          config.PongTimeout,
		MaxFrameBytes:        config.MaxFrameBytes,
	})
	httpServer := &http.Server{
		Addr:              config.Address(),
		Handler:           newMux(config, wsServer, monitor),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("Starting chat relay", "address", httpServer.Addr, "at", time.Now().UTC())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 7. Optional gRPC health endpoint
	var healthServer *health.Server
	var grpcServer *grpc.Server
	if config.HealthGRPCPort > 0 {
		address := fmt.Sprintf("%s:%d", config.Host, config.HealthGRPCPort)
		listener, err := net.Listen("tcp", address)
		if err != nil {
			return exitRuntime, fmt.Errorf("failed to listen on %s: %w", address, err)
		}
		grpcServer, healthServer = newHealthServer(logger)
		go func() {
			logger.Info("Starting gRPC health server", "address", address)
			if err := grpcServer.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				errChan <- fmt.Errorf("gRPC server error: %w", err)
			}
		}()
	}

	// 8. Wait for Stop or Error
	code := exitOK
	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case runErr = <-errChan:
		code = exitRuntime
	}

	// 9. Final Cleanup (Graceful Shutdown)
	logger.Info("Shutting down gracefully...")
	if healthServer != nil {
		healthServer.Shutdown()
		grpcServer.GracefulStop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP server shutdown incomplete", "error", err)
	}
	hub.CloseAll()
	orchestrator.Stop()
	select {
	case <-orchestratorDone:
	case <-shutdownCtx.Done():
		logger.Warn("Workers did not stop in time")
	}
	logger.Info("Program stopped cleanly")

	return code, runErr
}

func newMux(config internal.Config, ws http.Handler, monitor *observability.Monitor) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/ws", ws)
	mux.Handle("/healthz", observability.HealthHandler())
	mux.Handle("/stats", monitor.StatsHandler())
	if config.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(config.StaticDir)))
	}
	return mux
}

func newHealthServer(logger *slog.Logger) (*grpc.Server, *health.Server) {
	s := grpc.NewServer(grpc.ChainUnaryInterceptor(grpc3.UnaryLoggingInterceptor(logger)))
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(s, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(relayServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	return s, healthServer
}
