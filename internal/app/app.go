// Package app 根据配置组装一次运行所需的全部组件，cmd/collect 与 cmd/api 共用。
package app

import (
	"context"
	"fmt"

	"github.com/LJTian/trend-keywords-bot/internal/collector"
	"github.com/LJTian/trend-keywords-bot/internal/config"
	"github.com/LJTian/trend-keywords-bot/internal/digest"
	"github.com/LJTian/trend-keywords-bot/internal/logger"
	"github.com/LJTian/trend-keywords-bot/internal/pipeline"
	"github.com/LJTian/trend-keywords-bot/internal/storage"
)

// rate 模式下每秒请求数：html 约 0.75 次，feed 约 1.5 次
var defaultRates = map[collector.Class]float64{
	collector.ClassHTML: 0.75,
	collector.ClassFeed: 1.5,
}

type App struct {
	Pipeline *pipeline.Pipeline
	// Store 未配置 POSTGRES_DSN 或连接失败时为 nil
	Store *storage.Store
}

// NewPacer 按 PACING 选择礼貌性等待策略
func NewPacer(mode string) collector.Pacer {
	switch mode {
	case "rate":
		return collector.NewRatePacer(defaultRates, 1)
	case "none":
		return collector.NoPacer{}
	default:
		return collector.NewJitterPacer(collector.DefaultJitter())
	}
}

// NewPageStore 配置了 PAGES_S3_BUCKET 时写 S3，否则写本地 DOCS_DIR
func NewPageStore(ctx context.Context, cfg *config.Config) (digest.PageStore, error) {
	if cfg.S3Bucket != "" {
		return digest.NewS3StoreFromEnv(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix)
	}
	return digest.NewDirStore(cfg.DocsDir), nil
}

// LoadSpecs 读取 sources.yaml；无法识别的 html 源记录告警后跳过
func LoadSpecs(path string, log logger.Logger) ([]collector.SourceSpec, error) {
	sf, err := config.LoadSources(path)
	if err != nil {
		return nil, err
	}
	specs, skipped := sf.Specs()
	for _, err := range skipped {
		log.Warn("source skipped", logger.Error(err))
	}
	return specs, nil
}

// Build 调用前应已通过 RequireRunInputs 校验
func Build(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	specs, err := LoadSpecs(cfg.SourcesFile, log)
	if err != nil {
		return nil, err
	}

	pages, err := NewPageStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init page store: %w", err)
	}

	notifier, err := digest.NewSlackNotifier(
		digest.NewSlackClient(cfg.SlackBotToken, cfg.SlackAPIURL), cfg.SlackChannelRaw, log)
	if err != nil {
		return nil, err
	}

	p := pipeline.New(specs,
		collector.NewHTTPFetcher(cfg.UserAgent, cfg.FetchTimeout),
		NewPacer(cfg.Pacing),
		digest.NewPublisher(pages, cfg.PagesBase),
		notifier,
		pipeline.Options{
			TopK:             cfg.TopK,
			PostLimit:        cfg.PostLimit,
			CaseFold:         cfg.CaseFold,
			Location:         cfg.Location(),
			FetchConcurrency: cfg.FetchConcurrency,
		},
		log,
	)

	a := &App{Pipeline: p}
	if cfg.PostgresDSN != "" {
		store, err := storage.NewStore(cfg.PostgresDSN, cfg.RedisAddr, log)
		if err != nil {
			// 运行记录只是附加产物，数据库不可用时照常生成摘要
			log.Warn("init store failed, run history disabled", logger.Error(err))
		} else {
			a.Store = store
			p.WithRecorder(store)
		}
	}
	log.Info("app ready", logger.Int("sources", len(specs)), logger.Bool("history", a.Store != nil))
	return a, nil
}
