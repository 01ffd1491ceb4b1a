package collector

import (
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"
)

// Feed 通用 RSS / Atom 解析，来源名沿用 sources.yaml 中的 name
type Feed struct{}

func (f *Feed) Normalize(raw string, spec SourceSpec) ([]Item, error) {
	parsed, err := gofeed.NewParser().ParseString(raw)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", spec.Name, err)
	}

	items := make([]Item, 0, len(parsed.Items))
	for _, entry := range parsed.Items {
		title := strings.TrimSpace(entry.Title)
		if title == "" {
			continue
		}
		items = append(items, Item{
			Source: spec.Name,
			Title:  title,
			Link:   feedLink(entry),
		})
	}
	return items, nil
}

// feedLink Atom 取 href，RSS 取 <link> 文本；gofeed 已统一到 Link / Links
func feedLink(entry *gofeed.Item) string {
	if link := strings.TrimSpace(entry.Link); link != "" {
		return link
	}
	for _, l := range entry.Links {
		if l = strings.TrimSpace(l); l != "" {
			return l
		}
	}
	return ""
}
