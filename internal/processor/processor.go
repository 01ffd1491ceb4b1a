package processor

import (
	"strings"

	"github.com/LJTian/trend-keywords-bot/internal/collector"
)

// Dedup 以 (小写标题, 链接) 作为身份键去重，保留首次出现的顺序
func Dedup(items []collector.Item) []collector.Item {
	out := make([]collector.Item, 0, len(items))
	seen := make(map[dedupKey]struct{}, len(items))

	for _, it := range items {
		key := dedupKey{title: strings.ToLower(it.Title), link: it.Link}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, it)
	}
	return out
}

type dedupKey struct {
	title string
	link  string
}

// Options 排名相关的参数
type Options struct {
	TopK      int
	PostLimit int
	// CaseFold 为 true 时 "Go" 与 "GO" 视为同一关键词，展示首次出现的写法
	CaseFold bool
}

// Analysis 一次运行的统计结果
type Analysis struct {
	Ranked   []RankedKeyword
	Evidence []EvidenceEntry
}

// EvidenceFor 返回某个关键词的关联条目
func (a *Analysis) EvidenceFor(term string) []collector.Item {
	for _, e := range a.Evidence {
		if e.Keyword == term {
			return e.Items
		}
	}
	return nil
}

// Analyzer 串联 TokenExtractor / KeywordRanker / EvidenceIndexer
type Analyzer struct {
	opts      Options
	tokenizer *Tokenizer
	ranker    *Ranker
}

func NewAnalyzer(opts Options) *Analyzer {
	tok := NewTokenizer(opts.CaseFold)
	return &Analyzer{
		opts:      opts,
		tokenizer: tok,
		ranker:    NewRanker(tok, opts.TopK),
	}
}

func (a *Analyzer) Analyze(items []collector.Item) Analysis {
	ranked := a.ranker.Rank(items)
	return Analysis{
		Ranked:   ranked,
		Evidence: BuildEvidence(items, ranked, a.opts.PostLimit, a.tokenizer),
	}
}
