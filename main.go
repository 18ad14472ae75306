package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"vidu-proxy-server/modules/common/config"
	"vidu-proxy-server/modules/common/logger"
	"vidu-proxy-server/modules/server"
)

func main() {
	// 환경변수 로드
	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if !cfg.EnvFileLoaded {
		log.Info("⚠️  .env file not found, using environment variables")
	}
	if cfg.ConfigFileUsed != "" {
		log.Info("config file loaded", zap.String("path", cfg.ConfigFileUsed))
	}
	if !cfg.HasAPIKey() {
		// /health keeps working; the API routes answer 500 until the key is set
		log.Warn("VITE_VIDU_API_KEY is not set, Vidu API routes will fail")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("🚀 Vidu API Proxy Server starting",
		zap.String("addr", cfg.Addr()),
		zap.String("upstream", cfg.ViduBaseURL),
		zap.Duration("request_timeout", cfg.RequestTimeout),
	)
	log.Info(fmt.Sprintf("❤️  Health check: http://localhost:%s/health", cfg.Port))
	log.Info(fmt.Sprintf("📊 Metrics: http://localhost:%s/metrics", cfg.Port))

	if err := server.Run(ctx, cfg, log); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
	log.Info("👋 server stopped")
}
