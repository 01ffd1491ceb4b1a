package processor

import (
	"sort"

	"github.com/LJTian/trend-keywords-bot/internal/collector"
)

// TokenCount 词频表，保留每个键首次出现的顺序与展示写法
type TokenCount struct {
	order   []string
	counts  map[string]int
	display map[string]string
}

func newTokenCount() *TokenCount {
	return &TokenCount{
		counts:  make(map[string]int),
		display: make(map[string]string),
	}
}

func (tc *TokenCount) add(key, surface string) {
	if _, ok := tc.counts[key]; !ok {
		tc.order = append(tc.order, key)
		tc.display[key] = surface
	}
	tc.counts[key]++
}

// Count 返回某个键的出现次数
func (tc *TokenCount) Count(key string) int {
	return tc.counts[key]
}

func (tc *TokenCount) Len() int {
	return len(tc.order)
}

// RankedKeyword 排名后的关键词；Key 为身份键，Term 为展示写法
type RankedKeyword struct {
	Term  string `json:"term"`
	Key   string `json:"-"`
	Count int    `json:"count"`
	Rank  int    `json:"rank"`
}

type Ranker struct {
	tok  *Tokenizer
	topK int
}

func NewRanker(tok *Tokenizer, topK int) *Ranker {
	return &Ranker{tok: tok, topK: topK}
}

// Count 统计所有标题中的词频
func (r *Ranker) Count(items []collector.Item) *TokenCount {
	tc := newTokenCount()
	for _, it := range items {
		for _, tok := range r.tok.Tokens(it.Title) {
			tc.add(r.tok.Key(tok), tok)
		}
	}
	return tc
}

// Rank 按次数降序取前 K 个；次数相同时先出现的词在前（稳定排序）
func (r *Ranker) Rank(items []collector.Item) []RankedKeyword {
	tc := r.Count(items)
	if r.topK <= 0 || tc.Len() == 0 {
		return nil
	}

	keys := make([]string, len(tc.order))
	copy(keys, tc.order)
	sort.SliceStable(keys, func(i, j int) bool {
		return tc.counts[keys[i]] > tc.counts[keys[j]]
	})
	if len(keys) > r.topK {
		keys = keys[:r.topK]
	}

	out := make([]RankedKeyword, 0, len(keys))
	for i, k := range keys {
		out = append(out, RankedKeyword{
			Term:  tc.display[k],
			Key:   k,
			Count: tc.counts[k],
			Rank:  i + 1,
		})
	}
	return out
}
