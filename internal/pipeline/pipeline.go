// Package pipeline 串联一次批量运行：抓取 → 解析 → 去重 → 排名 → 产出摘要。
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/LJTian/trend-keywords-bot/internal/collector"
	"github.com/LJTian/trend-keywords-bot/internal/digest"
	"github.com/LJTian/trend-keywords-bot/internal/logger"
	"github.com/LJTian/trend-keywords-bot/internal/processor"
)

var ErrRunInProgress = errors.New("pipeline run already in progress")

type Fetcher interface {
	Fetch(ctx context.Context, spec collector.SourceSpec) (string, error)
}

// Publisher 写入摘要页面与索引，返回页面地址
type Publisher interface {
	Publish(ctx context.Context, d *digest.Digest) (string, error)
}

type Notifier interface {
	Notify(ctx context.Context, d *digest.Digest, pageURL string) error
}

// Recorder 可选：把运行结果写入数据库，供 API 查询
type Recorder interface {
	SaveRun(ctx context.Context, d *digest.Digest, itemCount int, pageURL string) error
}

// Options 零值字段视为未设置并取默认值；cmd 入口已在加载配置时拒绝非正数
type Options struct {
	TopK      int
	PostLimit int
	CaseFold  bool
	Location  *time.Location
	// FetchConcurrency > 1 时并发抓取，结果仍按声明顺序合并
	FetchConcurrency int
	Now              func() time.Time
}

func (o Options) withDefaults() Options {
	if o.TopK <= 0 {
		o.TopK = 10
	}
	if o.PostLimit <= 0 {
		o.PostLimit = 5
	}
	if o.Location == nil {
		o.Location = time.FixedZone("JST", 9*3600)
	}
	if o.FetchConcurrency <= 0 {
		o.FetchConcurrency = 1
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Result 一次运行的结果
type Result struct {
	Outcome   Outcome
	ItemCount int
	Digest    *digest.Digest
	PageURL   string
}

type Pipeline struct {
	sources   []collector.SourceSpec
	fetcher   Fetcher
	pacer     collector.Pacer
	publisher Publisher
	notifier  Notifier
	recorder  Recorder
	opts      Options
	log       logger.Logger

	mu    sync.Mutex
	state State
}

func New(sources []collector.SourceSpec, fetcher Fetcher, pacer collector.Pacer,
	publisher Publisher, notifier Notifier, opts Options, log logger.Logger) *Pipeline {
	if pacer == nil {
		pacer = collector.NoPacer{}
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Pipeline{
		sources:   ordered(sources),
		fetcher:   fetcher,
		pacer:     pacer,
		publisher: publisher,
		notifier:  notifier,
		opts:      opts.withDefaults(),
		log:       log,
	}
}

// WithRecorder 设置运行记录的持久化
func (p *Pipeline) WithRecorder(r Recorder) *Pipeline {
	p.recorder = r
	return p
}

// ordered html 分组在前、feed 分组在后，组内保持声明顺序
func ordered(sources []collector.SourceSpec) []collector.SourceSpec {
	out := append([]collector.SourceSpec(nil), sources...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Kind.Class() < out[j].Kind.Class()
	})
	return out
}

func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Busy 是否有一次运行正在进行
func (p *Pipeline) Busy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state != StateIdle && p.state != StateDone
}

func (p *Pipeline) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
	p.log.Info("pipeline state", logger.String("state", s.String()))
}

func (p *Pipeline) begin() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateIdle && p.state != StateDone {
		return ErrRunInProgress
	}
	p.state = StateFetching
	return nil
}

// Run 执行一次完整的批量运行
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	if err := p.begin(); err != nil {
		return nil, err
	}
	defer p.setState(StateDone)

	items, err := p.collect(ctx)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		p.log.Warn("no items fetched, skipping publish and notification")
		return &Result{Outcome: OutcomeNoItems}, nil
	}

	p.setState(StateRanking)
	analysis := processor.NewAnalyzer(processor.Options{
		TopK:      p.opts.TopK,
		PostLimit: p.opts.PostLimit,
		CaseFold:  p.opts.CaseFold,
	}).Analyze(items)
	if len(analysis.Ranked) == 0 {
		p.log.Warn("no keywords extracted, skipping publish", logger.Int("items", len(items)))
		return &Result{Outcome: OutcomeNoKeywords, ItemCount: len(items)}, nil
	}

	p.setState(StateEmitting)
	d := digest.New(digest.DateLabel(p.opts.Now(), p.opts.Location), analysis)
	res := &Result{Outcome: OutcomeDigest, ItemCount: len(items), Digest: d}

	pageURL, err := p.publisher.Publish(ctx, d)
	if err != nil {
		return res, fmt.Errorf("publish digest: %w", err)
	}
	res.PageURL = pageURL
	p.log.Info("digest published", logger.String("date", d.Date), logger.String("page", pageURL))

	if p.recorder != nil {
		if err := p.recorder.SaveRun(ctx, d, len(items), pageURL); err != nil {
			p.log.Warn("save run record failed", logger.String("date", d.Date), logger.Error(err))
		}
	}

	if err := p.notifier.Notify(ctx, d, pageURL); err != nil {
		return res, fmt.Errorf("notify: %w", err)
	}
	p.log.Info("run done", logger.Int("items", len(items)), logger.Int("keywords", len(d.Ranked)))
	return res, nil
}

type fetched struct {
	spec collector.SourceSpec
	raw  string
	ok   bool
}

// Collect 抓取并解析所有数据源；单个数据源失败只记录告警并跳过
func (p *Pipeline) Collect(ctx context.Context) ([]collector.Item, error) {
	if err := p.begin(); err != nil {
		return nil, err
	}
	defer p.setState(StateDone)
	return p.collect(ctx)
}

func (p *Pipeline) collect(ctx context.Context) ([]collector.Item, error) {
	p.setState(StateFetching)
	docs, err := p.fetchAll(ctx)
	if err != nil {
		return nil, err
	}

	p.setState(StateNormalizing)
	var items []collector.Item
	for _, doc := range docs {
		if !doc.ok {
			continue
		}
		norm, _ := collector.NormalizerFor(doc.spec.Kind)
		parsed, err := norm.Normalize(doc.raw, doc.spec)
		if err != nil {
			p.log.Warn("normalize failed", logger.String("source", doc.spec.Name), logger.Error(err))
			continue
		}
		parsed = processor.Dedup(parsed)
		p.log.Info("source collected", logger.String("source", doc.spec.Name), logger.Int("items", len(parsed)))
		items = append(items, parsed...)
	}
	return items, nil
}

func (p *Pipeline) fetchAll(ctx context.Context) ([]fetched, error) {
	docs := make([]fetched, len(p.sources))
	if p.opts.FetchConcurrency <= 1 {
		for i, spec := range p.sources {
			docs[i] = p.fetchOne(ctx, spec)
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		return docs, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.FetchConcurrency)
	for i, spec := range p.sources {
		g.Go(func() error {
			// 写入各自的槽位，合并时天然保持声明顺序
			docs[i] = p.fetchOne(gctx, spec)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

func (p *Pipeline) fetchOne(ctx context.Context, spec collector.SourceSpec) fetched {
	if _, ok := collector.NormalizerFor(spec.Kind); !ok {
		p.log.Warn("unknown source kind, skipped", logger.String("source", spec.Name), logger.String("kind", string(spec.Kind)))
		return fetched{spec: spec}
	}
	raw, err := p.fetcher.Fetch(ctx, spec)
	if err != nil {
		p.log.Warn("fetch failed", logger.String("source", spec.Name),
			logger.String("class", spec.Kind.Class().String()), logger.Error(err))
		return fetched{spec: spec}
	}
	// 被取消时由调用方检查 ctx
	_ = p.pacer.Pause(ctx, spec.Kind.Class())
	return fetched{spec: spec, raw: raw, ok: true}
}
