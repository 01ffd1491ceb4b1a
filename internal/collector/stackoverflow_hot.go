package collector

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const stackExchangeBaseURL = "https://stackexchange.com"

// StackOverflowHot 解析 Stack Exchange 热门问题列表
type StackOverflowHot struct {
	BaseURL string
}

func (s *StackOverflowHot) Normalize(raw string, spec SourceSpec) ([]Item, error) {
	doc, err := parseHTML(raw)
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, 50)
	doc.Find("a.question-hyperlink").Each(func(_ int, q *goquery.Selection) {
		href, ok := q.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		items = append(items, Item{
			Source: "StackOverflow",
			Title:  joinedText(q),
			Link:   absoluteLink(s.BaseURL, href),
		})
	})
	return items, nil
}
