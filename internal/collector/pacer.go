package collector

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Pacer 控制每次成功抓取之后的礼貌性等待，与 Fetch 本身解耦
type Pacer interface {
	Pause(ctx context.Context, class Class) error
}

// JitterRange 均匀分布的随机等待区间 [Min, Max]
type JitterRange struct {
	Min time.Duration
	Max time.Duration
}

// DefaultJitter HTML 页面 1~2 秒，feed 0.5~1 秒
func DefaultJitter() map[Class]JitterRange {
	return map[Class]JitterRange{
		ClassHTML: {Min: time.Second, Max: 2 * time.Second},
		ClassFeed: {Min: 500 * time.Millisecond, Max: time.Second},
	}
}

// JitterPacer 顺序抓取时使用的阻塞式随机等待
type JitterPacer struct {
	ranges map[Class]JitterRange

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewJitterPacer(ranges map[Class]JitterRange) *JitterPacer {
	if ranges == nil {
		ranges = DefaultJitter()
	}
	return &JitterPacer{
		ranges: ranges,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (p *JitterPacer) delay(class Class) time.Duration {
	r, ok := p.ranges[class]
	if !ok || r.Max <= 0 {
		return 0
	}
	if r.Max <= r.Min {
		return r.Min
	}
	p.mu.Lock()
	n := p.rnd.Int63n(int64(r.Max - r.Min))
	p.mu.Unlock()
	return r.Min + time.Duration(n)
}

func (p *JitterPacer) Pause(ctx context.Context, class Class) error {
	d := p.delay(class)
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// RatePacer 令牌桶节流，适合并发抓取：每个分组一个 limiter
type RatePacer struct {
	limiters map[Class]*rate.Limiter
}

// NewRatePacer 以每秒请求数配置各分组，rps<=0 的分组不限速
func NewRatePacer(rps map[Class]float64, burst int) *RatePacer {
	if burst <= 0 {
		burst = 1
	}
	limiters := make(map[Class]*rate.Limiter, len(rps))
	for class, r := range rps {
		if r <= 0 {
			continue
		}
		limiters[class] = rate.NewLimiter(rate.Limit(r), burst)
	}
	return &RatePacer{limiters: limiters}
}

func (p *RatePacer) Pause(ctx context.Context, class Class) error {
	l, ok := p.limiters[class]
	if !ok {
		return nil
	}
	return l.Wait(ctx)
}

// NoPacer 不等待，测试与本地调试使用
type NoPacer struct{}

func (NoPacer) Pause(context.Context, Class) error { return nil }
