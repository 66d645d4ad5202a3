package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ignite/mailing-admin/internal/api"
	"github.com/ignite/mailing-admin/internal/app"
	"github.com/ignite/mailing-admin/internal/config"
	"github.com/ignite/mailing-admin/internal/pkg/logger"
)

// checkPortAvailable verifies that the target port is not already in use.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %w", port, addr, err)
	}
	ln.Close()
	return nil
}

func main() {
	configPath := "config/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		configPath = v
	}
	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.Log.Level, cfg.Log.Redact())
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zl.Sync()
	zap.ReplaceGlobals(zl)

	if cfg.Auth.JWTSecret == "" {
		zl.Fatal("auth.jwt_secret (JWT_SECRET) is required")
	}
	if err := checkPortAvailable(cfg.Server.GetHost(), cfg.Server.Port); err != nil {
		zl.Fatal("pre-flight check failed", zap.Error(err))
	}

	ctx := context.Background()
	a, err := app.New(ctx, cfg, prometheus.DefaultRegisterer, zl)
	if err != nil {
		zl.Fatal("startup failed", zap.Error(err))
	}
	defer a.Close()

	server := api.NewServer(cfg.Server, a.Router(prometheus.DefaultGatherer), zl)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.Start(); err != nil {
			zl.Fatal("server error", zap.Error(err))
		}
	}()
	zl.Info("server is ready",
		zap.String("mail_provider", cfg.Mail.Provider),
		zap.Bool("personalize", cfg.Mail.Personalize),
		zap.Bool("dispatch_lock", cfg.Dispatch.LockEnabled),
	)

	<-done
	zl.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zl.Error("server shutdown error", zap.Error(err))
	}
	zl.Info("server stopped")
}
