package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/LJTian/trend-keywords-bot/internal/collector"
)

// SourceEntry sources.yaml 中的一项；kind 可选，缺省时按 name 映射
type SourceEntry struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
	Kind string `yaml:"kind"`
}

type SourcesFile struct {
	HTML []SourceEntry `yaml:"html"`
	RSS  []SourceEntry `yaml:"rss"`
}

func LoadSources(path string) (*SourcesFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}
	return ParseSources(data)
}

func ParseSources(data []byte) (*SourcesFile, error) {
	sf := &SourcesFile{}
	if err := yaml.Unmarshal(data, sf); err != nil {
		return nil, fmt.Errorf("parse sources yaml: %w", err)
	}
	return sf, nil
}

// Specs 按 html 在前、rss 在后的顺序展开；无法映射的 html 源放入 skipped
func (sf *SourcesFile) Specs() (specs []collector.SourceSpec, skipped []error) {
	for _, e := range sf.HTML {
		kind, err := htmlKind(e)
		if err != nil {
			skipped = append(skipped, err)
			continue
		}
		specs = append(specs, collector.SourceSpec{Name: e.Name, Kind: kind, URL: e.URL})
	}
	for _, e := range sf.RSS {
		specs = append(specs, collector.SourceSpec{Name: e.Name, Kind: collector.KindFeed, URL: e.URL})
	}
	return specs, skipped
}

func htmlKind(e SourceEntry) (collector.Kind, error) {
	if e.Kind == "" {
		return collector.KindForName(e.Name)
	}
	k := collector.Kind(e.Kind)
	if _, ok := collector.NormalizerFor(k); !ok {
		return "", fmt.Errorf("%w: %q (source %s)", collector.ErrUnknownKind, e.Kind, e.Name)
	}
	return k, nil
}

// IsUnknownKind 判断 Specs 返回的跳过原因是否为未映射的数据源
func IsUnknownKind(err error) bool {
	return errors.Is(err, collector.ErrUnknownKind)
}
