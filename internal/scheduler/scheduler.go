package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/LJTian/trend-keywords-bot/internal/logger"
	"github.com/LJTian/trend-keywords-bot/internal/pipeline"
)

// Runner 一次批量运行，*pipeline.Pipeline 满足
type Runner interface {
	Run(ctx context.Context) (*pipeline.Result, error)
}

type Scheduler struct {
	cron    *cron.Cron
	runner  Runner
	log     logger.Logger
	timeout time.Duration

	// StartupDelay > 0 时，启动后延迟执行一次首轮运行
	StartupDelay time.Duration
}

// New 按 cron 表达式（5 段）注册周期运行；timeout 限制单次运行时长，0 表示不限制
func New(spec string, runner Runner, timeout time.Duration, log logger.Logger) (*Scheduler, error) {
	if log == nil {
		log = logger.NewNop()
	}
	c := cron.New()

	s := &Scheduler{
		cron:    c,
		runner:  runner,
		log:     log,
		timeout: timeout,
	}

	if _, err := c.AddFunc(spec, s.runOnce); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	if s.StartupDelay > 0 {
		time.AfterFunc(s.StartupDelay, s.runOnce)
	}
}

// Stop 停止调度并等待正在执行的任务结束
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// Busy runner 支持时报告是否有运行正在进行
func (s *Scheduler) Busy() bool {
	b, ok := s.runner.(interface{ Busy() bool })
	return ok && b.Busy()
}

// RunOnce 对外暴露的单次执行入口，方便手动触发
func (s *Scheduler) RunOnce() (*pipeline.Result, error) {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	s.log.Info("start trend run")
	res, err := s.runner.Run(ctx)
	if err != nil {
		s.log.Error("trend run failed", logger.Error(err))
		return res, err
	}
	s.log.Info("trend run done", logger.String("outcome", res.Outcome.String()), logger.Int("items", res.ItemCount))
	return res, nil
}

func (s *Scheduler) runOnce() {
	_, _ = s.RunOnce()
}
