package collector

import (
	"github.com/PuerkitoBio/goquery"
)

const hnBaseURL = "https://news.ycombinator.com/"

// HackerNews 解析 Hacker News 首页：每条故事的标题链接；站内讨论帖的相对链接补全为绝对地址
type HackerNews struct {
	BaseURL string
}

func (h *HackerNews) Normalize(raw string, spec SourceSpec) ([]Item, error) {
	doc, err := parseHTML(raw)
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, 30)
	doc.Find("span.titleline > a").Each(func(_ int, a *goquery.Selection) {
		title := joinedText(a)
		href, _ := a.Attr("href")
		if title == "" || href == "" {
			return
		}
		items = append(items, Item{
			Source: "HackerNews",
			Title:  title,
			Link:   absoluteLink(h.BaseURL, href),
		})
	})
	return items, nil
}
