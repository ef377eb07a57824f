package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/utafrali/shopsmoke/internal/smoke"
	"github.com/utafrali/shopsmoke/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := smoke.LoadConfig()
	if err != nil {
		slog.Error("fatal error", slog.String("error", fmt.Errorf("load config: %w", err).Error()))
		return smoke.ExitFatal
	}

	log := logger.New("smoketest", cfg.LogLevel)
	log.Info("starting smoke test",
		slog.String("user_service", cfg.UserServiceURL),
		slog.String("product_service", cfg.ProductServiceURL),
		slog.String("order_service", cfg.OrderServiceURL),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runner := smoke.NewRunner(cfg, log)
	report := runner.Run(ctx)

	report.Summary(os.Stdout)
	return report.ExitCode()
}
