package collector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
)

// Item 统一采集后的基础结构：(来源, 标题, 链接)，链接可以为空
type Item struct {
	Source string `json:"source"`
	Title  string `json:"title"`
	Link   string `json:"link"`
}

// Kind 决定使用哪一种解析器
type Kind string

const (
	KindQiitaTrend       Kind = "qiita_trend"
	KindStackOverflowHot Kind = "stackoverflow_hot"
	KindGitHubTrending   Kind = "github_trending"
	KindHackerNews       Kind = "hackernews"
	KindFeed             Kind = "feed"
)

// Class 用于区分礼貌性等待的时长：HTML 页面比 feed 等得更久
type Class int

const (
	ClassHTML Class = iota
	ClassFeed
)

func (c Class) String() string {
	if c == ClassFeed {
		return "feed"
	}
	return "html"
}

// Class 返回该类型所属的数据源分组
func (k Kind) Class() Class {
	if k == KindFeed {
		return ClassFeed
	}
	return ClassHTML
}

var ErrUnknownKind = errors.New("unknown source kind")

// KindForName html 分组中按名称映射到解析器
func KindForName(name string) (Kind, error) {
	switch Kind(strings.TrimSpace(name)) {
	case KindQiitaTrend:
		return KindQiitaTrend, nil
	case KindStackOverflowHot:
		return KindStackOverflowHot, nil
	case KindGitHubTrending:
		return KindGitHubTrending, nil
	case KindHackerNews:
		return KindHackerNews, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// SourceSpec 描述一个声明式数据源
type SourceSpec struct {
	Name string
	Kind Kind
	URL  string
}

const (
	DefaultUserAgent    = "trend-keywords-bot (+https://github.com/LJTian/trend-keywords-bot)"
	DefaultFetchTimeout = 15 * time.Second
)

// HTTPFetcher 每次请求创建一个独立的 colly collector，只负责取回原始文本
type HTTPFetcher struct {
	UserAgent string
	Timeout   time.Duration
}

func NewHTTPFetcher(userAgent string, timeout time.Duration) *HTTPFetcher {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &HTTPFetcher{UserAgent: userAgent, Timeout: timeout}
}

// Fetch 取回数据源原文；超时、非 2xx、连接错误都会作为 error 返回，由调用方决定是否跳过
func (f *HTTPFetcher) Fetch(ctx context.Context, spec SourceSpec) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("fetch %s: %w", spec.Name, err)
	}

	c := colly.NewCollector(colly.UserAgent(f.UserAgent))
	c.SetRequestTimeout(f.Timeout)

	var body []byte
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
	})

	if err := c.Visit(spec.URL); err != nil {
		return "", fmt.Errorf("fetch %s: %w", spec.Name, err)
	}
	return string(body), nil
}
