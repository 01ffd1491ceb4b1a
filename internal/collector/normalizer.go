package collector

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Normalizer 把某一类数据源的原文解析为统一的 Item 序列
type Normalizer interface {
	Normalize(raw string, spec SourceSpec) ([]Item, error)
}

// NormalizerFor 按 kind 选择解析器；未知 kind 返回 false
func NormalizerFor(kind Kind) (Normalizer, bool) {
	switch kind {
	case KindQiitaTrend:
		return &QiitaTrend{BaseURL: qiitaBaseURL}, true
	case KindStackOverflowHot:
		return &StackOverflowHot{BaseURL: stackExchangeBaseURL}, true
	case KindGitHubTrending:
		return &GitHubTrending{BaseURL: githubBaseURL}, true
	case KindHackerNews:
		return &HackerNews{BaseURL: hnBaseURL}, true
	case KindFeed:
		return &Feed{}, true
	}
	return nil, false
}

func parseHTML(raw string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// joinedText 相当于以空格拼接各文本片段并去掉多余空白
func joinedText(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}

func absoluteLink(base, href string) string {
	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "http") {
		return href
	}
	return base + href
}
