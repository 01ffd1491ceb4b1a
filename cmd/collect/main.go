package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/LJTian/trend-keywords-bot/internal/app"
	"github.com/LJTian/trend-keywords-bot/internal/config"
	"github.com/LJTian/trend-keywords-bot/internal/logger"
)

// 仅执行一次抓取 → 排名 → 发布 → 通知，适合 GitHub Actions / 系统 cron 调用
func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	// 必须在任何抓取之前校验
	if err := cfg.RequireRunInputs(); err != nil {
		log.Fatal("missing run inputs", logger.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Fatal("init app failed", logger.Error(err))
	}

	res, err := a.Pipeline.Run(ctx)
	if err != nil {
		log.Fatal("run failed", logger.Error(err))
	}
	log.Info("done", logger.String("outcome", res.Outcome.String()), logger.Int("items", res.ItemCount))
}
