package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/LJTian/trend-keywords-bot/internal/api"
	"github.com/LJTian/trend-keywords-bot/internal/app"
	"github.com/LJTian/trend-keywords-bot/internal/config"
	"github.com/LJTian/trend-keywords-bot/internal/logger"
	"github.com/LJTian/trend-keywords-bot/internal/scheduler"
)

const (
	// 单次运行的上限：抓取超时 × 数据源数量之外再留出发布与通知的时间
	runTimeout = 10 * time.Minute
	// 延迟执行首轮运行，避免与进程启动争抢资源
	startupDelay    = 15 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := cfg.RequireRunInputs(); err != nil {
		log.Fatal("missing run inputs", logger.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Fatal("init app failed", logger.Error(err))
	}

	s, err := scheduler.New(cfg.CronSpec, a.Pipeline, runTimeout, log.With(logger.String("component", "scheduler")))
	if err != nil {
		log.Fatal("init scheduler failed", logger.Error(err))
	}
	if cfg.RunOnStartup {
		s.StartupDelay = startupDelay
	}
	s.Start()

	r := gin.Default()
	// 若配置了全局访问密码，则启用 Basic Auth 保护（/health 仍然免认证）
	if cfg.BasicAuthUser != "" && cfg.BasicAuthPass != "" {
		r.Use(api.BasicAuth(cfg.BasicAuthUser, cfg.BasicAuthPass))
	}

	var store api.RunStore
	if a.Store != nil {
		store = a.Store
	}
	// S3 模式下页面不在本地，不托管静态目录
	pagesDir := cfg.DocsDir
	if cfg.S3Bucket != "" {
		pagesDir = ""
	}
	api.NewServer(store, s, pagesDir).RegisterRoutes(r)

	srv := &http.Server{Addr: ":" + cfg.AppPort, Handler: r}
	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting api server", logger.String("addr", srv.Addr), logger.String("cron", cfg.CronSpec))
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("server exit", logger.Error(err))
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("server shutdown", logger.Error(err))
	}
	// 等待正在执行的定时任务结束
	select {
	case <-s.Stop().Done():
	case <-shutdownCtx.Done():
		log.Warn("scheduled run still in flight at shutdown")
	}
}
