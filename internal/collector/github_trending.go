package collector

import (
	"github.com/PuerkitoBio/goquery"
)

const githubBaseURL = "https://github.com"

// GitHubTrending 解析 GitHub Trending：仓库名（带链接）+ 仓库简介（无链接，只用于关键词统计）
type GitHubTrending struct {
	BaseURL string
}

func (g *GitHubTrending) Normalize(raw string, spec SourceSpec) ([]Item, error) {
	doc, err := parseHTML(raw)
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, 50)
	doc.Find("article h2 a").Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok || href == "" {
			return
		}
		items = append(items, Item{
			Source: "GitHubTrending",
			Title:  joinedText(a),
			Link:   g.BaseURL + href,
		})
	})

	// 简介段落没有独立链接，但同样参与关键词统计
	doc.Find("article p").Each(func(_ int, p *goquery.Selection) {
		if t := joinedText(p); t != "" {
			items = append(items, Item{Source: "GitHubTrending", Title: t})
		}
	})
	return items, nil
}
