package main

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/cartomix/stitchcore/internal/analyzer"
	"github.com/cartomix/stitchcore/internal/auth"
	"github.com/cartomix/stitchcore/internal/config"
	"github.com/cartomix/stitchcore/internal/httpapi"
	"github.com/cartomix/stitchcore/internal/server"
	"github.com/cartomix/stitchcore/internal/storage"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

func main() {
	cfg := config.Parse()

	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		logger.Error("failed to create data directory", "path", cfg.DataDir, "error", err)
		os.Exit(1)
	}

	db, err := storage.Open(cfg.DataDir, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	analysisBackend := analyzer.NewLocal(logger)

	authCfg := auth.Config{Enabled: cfg.AuthEnabled}
	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(server.ChainUnaryInterceptors(
			auth.Interceptor(authCfg, logger),
			server.RecoveryInterceptor(logger),
			server.UnaryLoggingInterceptor(logger),
			server.MetricsInterceptor(),
		)),
		grpc.StreamInterceptor(auth.StreamInterceptor(authCfg, logger)),
	)

	engineServer := server.NewEngineServer(cfg, logger, db, analysisBackend)
	server.RegisterEngineAPIServer(grpcServer, engineServer)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(server.ServiceName(), grpc_health_v1.HealthCheckResponse_SERVING)

	reflection.Register(grpcServer)

	addr := fmt.Sprintf(":%d", cfg.Port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Error("failed to listen", "addr", addr, "error", err)
		os.Exit(1)
	}

	var httpServer *http.Server
	if cfg.HTTPPort != 0 {
		httpSrv := httpapi.NewServer(cfg, logger, analysisBackend)
		httpServer = &http.Server{Addr: fmt.Sprintf(":%d", cfg.HTTPPort), Handler: httpSrv.Handler()}
		go func() {
			logger.Info("starting deprecated HTTP REST facade", "port", cfg.HTTPPort)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("http server error", "error", err)
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info("shutting down", "signal", sig)
		healthServer.SetServingStatus(server.ServiceName(), grpc_health_v1.HealthCheckResponse_NOT_SERVING)
		grpcServer.GracefulStop()
		if httpServer != nil {
			httpServer.Close()
		}
	}()

	logger.Info("starting engine server",
		"port", cfg.Port,
		"data_dir", cfg.DataDir,
		"auth_enabled", cfg.AuthEnabled,
		"target_loudness_lufs", cfg.TargetLoudnessLUFS,
		"mix_mode", cfg.MixMode,
	)

	if err := grpcServer.Serve(lis); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
