package digest

import (
	"context"
	"fmt"
	"strings"
)

const (
	pageTitleFmt = "# 今週のトレンド技術キーワード（%s）"
	indexName    = "index.md"
)

var indexHeader = []string{"# 週次アーカイブ", ""}

// PageStore 页面的读写后端（本地 docs 目录或 S3）
type PageStore interface {
	Read(ctx context.Context, name string) (string, bool, error)
	Write(ctx context.Context, name, content string) error
}

// RenderPage 生成当日的 Markdown 页面
func RenderPage(d *Digest) string {
	lines := []string{fmt.Sprintf(pageTitleFmt, d.Date), ""}
	for _, k := range d.Ranked {
		lines = append(lines, fmt.Sprintf("**%d. %s** — %d件", k.Rank, k.Term, k.Count))
	}
	lines = append(lines, "\n---\n")

	for _, k := range d.Ranked {
		links := d.Evidence[k.Term]
		if len(links) == 0 {
			continue
		}
		lines = append(lines, fmt.Sprintf("## %s の関連トピック", k.Term))
		for _, it := range links {
			if it.Link == "" {
				continue
			}
			lines = append(lines, fmt.Sprintf("- [%s](%s) _%s_", it.Title, it.Link, it.Source))
		}
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

// InsertIndexEntry 在固定的两行表头之后插入最新一期；已存在则原样返回
func InsertIndexEntry(existing, date string) string {
	var lines []string
	if existing == "" {
		lines = append(lines, indexHeader...)
	} else {
		lines = strings.Split(existing, "\n")
	}

	entry := fmt.Sprintf("- [%s](./%s.html)", date, date)
	for _, l := range lines {
		if l == entry {
			return strings.Join(lines, "\n")
		}
	}

	pos := len(indexHeader)
	if pos > len(lines) {
		pos = len(lines)
	}
	out := make([]string, 0, len(lines)+1)
	out = append(out, lines[:pos]...)
	out = append(out, entry)
	out = append(out, lines[pos:]...)
	return strings.Join(out, "\n")
}

// Publisher 写入当日页面并更新归档索引
type Publisher struct {
	store     PageStore
	pagesBase string
}

func NewPublisher(store PageStore, pagesBase string) *Publisher {
	return &Publisher{store: store, pagesBase: strings.TrimRight(pagesBase, "/")}
}

// Publish 返回页面的公开地址
func (p *Publisher) Publish(ctx context.Context, d *Digest) (string, error) {
	if err := p.store.Write(ctx, d.Date+".md", RenderPage(d)); err != nil {
		return "", fmt.Errorf("write page %s: %w", d.Date, err)
	}

	idx, _, err := p.store.Read(ctx, indexName)
	if err != nil {
		return "", fmt.Errorf("read index: %w", err)
	}
	if err := p.store.Write(ctx, indexName, InsertIndexEntry(idx, d.Date)); err != nil {
		return "", fmt.Errorf("write index: %w", err)
	}
	return PageURL(p.pagesBase, d.Date), nil
}
