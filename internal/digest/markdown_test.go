package digest

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LJTian/trend-keywords-bot/internal/collector"
	"github.com/LJTian/trend-keywords-bot/internal/processor"
)

func sampleDigest() *Digest {
	return New("2026-10-16", processor.Analysis{
		Ranked: []processor.RankedKeyword{
			{Term: "Rust", Key: "Rust", Count: 3, Rank: 1},
			{Term: "fast", Key: "fast", Count: 1, Rank: 2},
		},
		Evidence: []processor.EvidenceEntry{
			{Keyword: "Rust", Items: []collector.Item{
				{Source: "Qiita", Title: "Rust is fast", Link: "https://q/1"},
				{Source: "Qiita", Title: "Rust async guide", Link: "https://q/2"},
			}},
			{Keyword: "fast", Items: []collector.Item{}},
		},
	})
}

func TestDateLabelUsesLocation(t *testing.T) {
	jst := time.FixedZone("JST", 9*3600)
	now := time.Date(2026, 10, 15, 16, 30, 0, 0, time.UTC)
	assert.Equal(t, "2026-10-16", DateLabel(now, jst))
	assert.Equal(t, "2026-10-15", DateLabel(now, nil))
}

func TestRenderPage(t *testing.T) {
	want := strings.Join([]string{
		"# 今週のトレンド技術キーワード（2026-10-16）",
		"",
		"**1. Rust** — 3件",
		"**2. fast** — 1件",
		"\n---\n",
		"## Rust の関連トピック",
		"- [Rust is fast](https://q/1) _Qiita_",
		"- [Rust async guide](https://q/2) _Qiita_",
		"",
	}, "\n")
	assert.Equal(t, want, RenderPage(sampleDigest()))
}

func TestInsertIndexEntry(t *testing.T) {
	first := InsertIndexEntry("", "2026-10-09")
	assert.Equal(t, "# 週次アーカイブ\n\n- [2026-10-09](./2026-10-09.html)", first)

	second := InsertIndexEntry(first, "2026-10-16")
	assert.Equal(t, "# 週次アーカイブ\n\n- [2026-10-16](./2026-10-16.html)\n- [2026-10-09](./2026-10-09.html)", second)

	assert.Equal(t, second, InsertIndexEntry(second, "2026-10-09"))
	assert.Equal(t, second, InsertIndexEntry(second, "2026-10-16"))
}

func TestPublisherWithDirStore(t *testing.T) {
	dir := t.TempDir()
	store := NewDirStore(dir)
	p := NewPublisher(store, "https://example.github.io/trend/")

	url, err := p.Publish(context.Background(), sampleDigest())
	require.NoError(t, err)
	assert.Equal(t, "https://example.github.io/trend/2026-10-16.html", url)

	page, ok, err := store.Read(context.Background(), "2026-10-16.md")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, page, "**1. Rust** — 3件")

	_, err = p.Publish(context.Background(), sampleDigest())
	require.NoError(t, err)
	idx, _, err := store.Read(context.Background(), "index.md")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(idx, "(./2026-10-16.html)"))
}

func TestDirStoreMissingFile(t *testing.T) {
	_, ok, err := NewDirStore(t.TempDir()).Read(context.Background(), "nope.md")
	require.NoError(t, err)
	assert.False(t, ok)
}

type memS3 struct {
	objects map[string]string
}

func (m *memS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	body, ok := m.objects[*in.Bucket+"/"+*in.Key]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func (m *memS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, in.Body); err != nil {
		return nil, err
	}
	m.objects[*in.Bucket+"/"+*in.Key] = buf.String()
	return &s3.PutObjectOutput{}, nil
}

func TestPublisherWithS3Store(t *testing.T) {
	mem := &memS3{objects: map[string]string{}}
	p := NewPublisher(NewS3Store(mem, "pages", "/docs/"), "https://pages.example.com")

	_, err := p.Publish(context.Background(), sampleDigest())
	require.NoError(t, err)

	assert.Contains(t, mem.objects, "pages/docs/2026-10-16.md")
	assert.Equal(t, "# 週次アーカイブ\n\n- [2026-10-16](./2026-10-16.html)", mem.objects["pages/docs/index.md"])
}
