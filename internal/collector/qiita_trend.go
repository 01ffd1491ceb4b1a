package collector

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const qiitaBaseURL = "https://qiita.com"

// QiitaTrend 解析 Qiita 趋势页：所有指向 /articles/ 的链接
type QiitaTrend struct {
	BaseURL string
}

func (q *QiitaTrend) Normalize(raw string, spec SourceSpec) ([]Item, error) {
	doc, err := parseHTML(raw)
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, 32)
	doc.Find("a[href^='/articles/']").Each(func(_ int, a *goquery.Selection) {
		title := joinedText(a)
		href, _ := a.Attr("href")
		if title == "" || href == "" {
			return
		}
		items = append(items, Item{
			Source: "Qiita",
			Title:  title,
			Link:   q.BaseURL + strings.TrimSpace(href),
		})
	})
	return items, nil
}
