package processor

import (
	"regexp"
	"strings"
)

// 字母数字开头，后接字母数字或 # + . -，总长 2~31
var tokenPattern = regexp.MustCompile(`[A-Za-z0-9][A-Za-z0-9#+.\-]{1,30}`)

var defaultStopwords = strings.Fields(`
the of and for with from this that what when where how why who whose your you into out are is in on to a an by at as or not
home about login signup tags jobs help privacy terms stackexchange stackoverflow qiita github trending follow issue pull
`)

// Tokenizer 从标题中抽取候选关键词
type Tokenizer struct {
	stopwords map[string]struct{}
	caseFold  bool
}

func NewTokenizer(caseFold bool) *Tokenizer {
	stop := make(map[string]struct{}, len(defaultStopwords))
	for _, w := range defaultStopwords {
		stop[w] = struct{}{}
	}
	return &Tokenizer{stopwords: stop, caseFold: caseFold}
}

// Tokens 按出现顺序返回标题中的候选词，同一标题内的重复也保留
func (t *Tokenizer) Tokens(title string) []string {
	matches := tokenPattern.FindAllString(title, -1)
	tokens := make([]string, 0, len(matches))
	for _, w := range matches {
		if t.discard(w) {
			continue
		}
		tokens = append(tokens, w)
	}
	return tokens
}

func (t *Tokenizer) discard(w string) bool {
	if len(w) <= 1 {
		return true
	}
	if _, ok := t.stopwords[strings.ToLower(w)]; ok {
		return true
	}
	return isDigits(w)
}

// Key 关键词的身份键；默认区分大小写
func (t *Tokenizer) Key(token string) string {
	if t.caseFold {
		return strings.ToLower(token)
	}
	return token
}

// KeySet 标题的关键词集合，用于判断某条目是否包含关键词
func (t *Tokenizer) KeySet(title string) map[string]struct{} {
	tokens := t.Tokens(title)
	set := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		set[t.Key(tok)] = struct{}{}
	}
	return set
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
