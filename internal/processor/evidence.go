package processor

import (
	"github.com/LJTian/trend-keywords-bot/internal/collector"
)

// EvidenceEntry 某个关键词的代表条目，最多 PostLimit 条
type EvidenceEntry struct {
	Keyword string           `json:"keyword"`
	Items   []collector.Item `json:"items"`
}

// BuildEvidence 按原始顺序扫描条目，为每个关键词挑选含链接且标题包含该词的条目
func BuildEvidence(items []collector.Item, ranked []RankedKeyword, limit int, tok *Tokenizer) []EvidenceEntry {
	entries := make([]EvidenceEntry, len(ranked))
	for i, k := range ranked {
		entries[i] = EvidenceEntry{Keyword: k.Term, Items: []collector.Item{}}
	}
	if limit <= 0 {
		return entries
	}

	for _, it := range items {
		if it.Link == "" {
			continue
		}
		keys := tok.KeySet(it.Title)
		for i, k := range ranked {
			if len(entries[i].Items) >= limit {
				continue
			}
			if _, ok := keys[k.Key]; ok {
				entries[i].Items = append(entries[i].Items, it)
			}
		}
	}
	return entries
}
