// Package digest 负责把排名结果组装成对外产物：GitHub Pages 用的 Markdown 与 Slack 消息。
package digest

import (
	"fmt"
	"time"

	"github.com/LJTian/trend-keywords-bot/internal/collector"
	"github.com/LJTian/trend-keywords-bot/internal/processor"
)

const dateLayout = "2006-01-02"

// Digest 一次运行的汇总
type Digest struct {
	Date     string
	Ranked   []processor.RankedKeyword
	Evidence map[string][]collector.Item
}

func New(date string, a processor.Analysis) *Digest {
	ev := make(map[string][]collector.Item, len(a.Evidence))
	for _, e := range a.Evidence {
		ev[e.Keyword] = e.Items
	}
	return &Digest{Date: date, Ranked: a.Ranked, Evidence: ev}
}

// DateLabel 以指定时区输出 YYYY-MM-DD
func DateLabel(now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return now.In(loc).Format(dateLayout)
}

// PageURL 摘要页面的公开地址
func PageURL(base, date string) string {
	return fmt.Sprintf("%s/%s.html", base, date)
}
