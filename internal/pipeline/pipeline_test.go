package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LJTian/trend-keywords-bot/internal/collector"
	"github.com/LJTian/trend-keywords-bot/internal/digest"
	"github.com/LJTian/trend-keywords-bot/internal/logger"
)

const qiitaPage = `<html><body>
<a href="/articles/1">Rust is fast</a>
<a href="/articles/2">Rust async guide</a>
</body></html>`

const zennFeed = `<?xml version="1.0"?>
<rss version="2.0"><channel><title>Zenn</title>
<item><title>Learning Rust basics</title><link>https://zenn.dev/1</link></item>
</channel></rss>`

type recordingNotifier struct {
	mu    sync.Mutex
	calls []*digest.Digest
	err   error
}

func (n *recordingNotifier) Notify(_ context.Context, d *digest.Digest, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, d)
	return n.err
}

type recordingRecorder struct {
	dates []string
	err   error
}

func (r *recordingRecorder) SaveRun(_ context.Context, d *digest.Digest, _ int, _ string) error {
	r.dates = append(r.dates, d.Date)
	return r.err
}

func fixedNow() time.Time {
	return time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
}

func TestRunEndToEnd(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/trend", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(qiitaPage)) })
	mux.HandleFunc("/feed", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(zennFeed)) })
	srv := httptest.NewServer(mux)
	defer srv.Close()

	dir := t.TempDir()
	notifier := &recordingNotifier{}
	recorder := &recordingRecorder{}
	sources := []collector.SourceSpec{
		{Name: "Zenn", Kind: collector.KindFeed, URL: srv.URL + "/feed"},
		{Name: "qiita_trend", Kind: collector.KindQiitaTrend, URL: srv.URL + "/trend"},
	}
	p := New(sources, collector.NewHTTPFetcher("", time.Second), collector.NoPacer{},
		digest.NewPublisher(digest.NewDirStore(dir), "https://pages.example"), notifier,
		Options{TopK: 2, PostLimit: 2, Now: fixedNow}, logger.NewNop()).WithRecorder(recorder)

	res, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateDone, p.State())
	assert.Equal(t, OutcomeDigest, res.Outcome)
	assert.Equal(t, 3, res.ItemCount)
	assert.Equal(t, "https://pages.example/2026-10-16.html", res.PageURL)

	require.NotEmpty(t, res.Digest.Ranked)
	assert.LessOrEqual(t, len(res.Digest.Ranked), 2)
	top := res.Digest.Ranked[0]
	assert.Equal(t, "Rust", top.Term)
	assert.Equal(t, 3, top.Count)
	for _, k := range res.Digest.Ranked[1:] {
		assert.Less(t, k.Count, top.Count)
	}

	// html 分组先于 feed 分组，取前两条
	assert.Equal(t, []collector.Item{
		{Source: "Qiita", Title: "Rust is fast", Link: "https://qiita.com/articles/1"},
		{Source: "Qiita", Title: "Rust async guide", Link: "https://qiita.com/articles/2"},
	}, res.Digest.Evidence["Rust"])

	_, err = os.Stat(dir + "/2026-10-16.md")
	assert.NoError(t, err)
	_, err = os.Stat(dir + "/index.md")
	assert.NoError(t, err)
	assert.Len(t, notifier.calls, 1)
	assert.Equal(t, []string{"2026-10-16"}, recorder.dates)
}

func TestRunAllSourcesFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	dir := t.TempDir()
	notifier := &recordingNotifier{}
	sources := []collector.SourceSpec{
		{Name: "qiita_trend", Kind: collector.KindQiitaTrend, URL: srv.URL},
		{Name: "Zenn", Kind: collector.KindFeed, URL: srv.URL},
	}
	p := New(sources, collector.NewHTTPFetcher("", time.Second), nil,
		digest.NewPublisher(digest.NewDirStore(dir), "https://pages.example"), notifier,
		Options{Now: fixedNow}, logger.NewNop())

	res, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoItems, res.Outcome)
	assert.Nil(t, res.Digest)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Empty(t, notifier.calls)
}

type stubFetcher struct {
	bodies map[string]string
	delays map[string]time.Duration
}

func (f *stubFetcher) Fetch(ctx context.Context, spec collector.SourceSpec) (string, error) {
	if d := f.delays[spec.URL]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	body, ok := f.bodies[spec.URL]
	if !ok {
		return "", errors.New("connection refused")
	}
	return body, nil
}

func feedOf(title, link string) string {
	return `<rss version="2.0"><channel><item><title>` + title + `</title><link>` + link + `</link></item></channel></rss>`
}

func TestCollectConcurrentKeepsDeclarationOrder(t *testing.T) {
	f := &stubFetcher{
		bodies: map[string]string{
			"a": feedOf("Alpha", "https://a"),
			"b": feedOf("Beta", "https://b"),
			"c": feedOf("Gamma", "https://c"),
		},
		delays: map[string]time.Duration{"a": 60 * time.Millisecond, "b": 30 * time.Millisecond},
	}
	sources := []collector.SourceSpec{
		{Name: "A", Kind: collector.KindFeed, URL: "a"},
		{Name: "B", Kind: collector.KindFeed, URL: "b"},
		{Name: "C", Kind: collector.KindFeed, URL: "c"},
	}
	p := New(sources, f, nil, nil, nil, Options{FetchConcurrency: 3}, nil)

	items, err := p.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []string{"A", "B", "C"}, []string{items[0].Source, items[1].Source, items[2].Source})
}

func TestCollectSkipsUnknownKindAndFailures(t *testing.T) {
	f := &stubFetcher{bodies: map[string]string{
		"ok":  feedOf("Kept", "https://k"),
		"odd": "<html></html>",
	}}
	sources := []collector.SourceSpec{
		{Name: "hatena", Kind: collector.Kind("hatena_hot"), URL: "odd"},
		{Name: "down", Kind: collector.KindFeed, URL: "missing"},
		{Name: "up", Kind: collector.KindFeed, URL: "ok"},
	}
	items, err := New(sources, f, nil, nil, nil, Options{}, nil).Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []collector.Item{{Source: "up", Title: "Kept", Link: "https://k"}}, items)
}

func TestCollectDedupsWithinSourceOnly(t *testing.T) {
	dup := `<rss version="2.0"><channel>
<item><title>Same</title><link>https://s</link></item>
<item><title>SAME</title><link>https://s</link></item>
</channel></rss>`
	f := &stubFetcher{bodies: map[string]string{"x": dup, "y": feedOf("Same", "https://s")}}
	sources := []collector.SourceSpec{
		{Name: "X", Kind: collector.KindFeed, URL: "x"},
		{Name: "Y", Kind: collector.KindFeed, URL: "y"},
	}
	items, err := New(sources, f, nil, nil, nil, Options{}, nil).Collect(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestRunNoKeywords(t *testing.T) {
	f := &stubFetcher{bodies: map[string]string{"x": feedOf("how to the and 2024", "https://x")}}
	notifier := &recordingNotifier{}
	p := New([]collector.SourceSpec{{Name: "X", Kind: collector.KindFeed, URL: "x"}}, f, nil,
		digest.NewPublisher(digest.NewDirStore(t.TempDir()), ""), notifier, Options{}, nil)

	res, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoKeywords, res.Outcome)
	assert.Equal(t, 1, res.ItemCount)
	assert.Empty(t, notifier.calls)
}

func TestRunNotifyErrorIsReturnedAfterPublish(t *testing.T) {
	f := &stubFetcher{bodies: map[string]string{"x": feedOf("Kubernetes operators", "https://x")}}
	dir := t.TempDir()
	notifier := &recordingNotifier{err: digest.ErrParentPost}
	recorder := &recordingRecorder{err: errors.New("db down")}
	p := New([]collector.SourceSpec{{Name: "X", Kind: collector.KindFeed, URL: "x"}}, f, nil,
		digest.NewPublisher(digest.NewDirStore(dir), "https://p"), notifier, Options{Now: fixedNow}, nil).
		WithRecorder(recorder)

	res, err := p.Run(context.Background())
	assert.ErrorIs(t, err, digest.ErrParentPost)
	require.NotNil(t, res)
	assert.Equal(t, "https://p/2026-10-16.html", res.PageURL)
	_, statErr := os.Stat(dir + "/2026-10-16.md")
	assert.NoError(t, statErr)
	assert.Len(t, recorder.dates, 1)
}

func TestCollectCanceledContext(t *testing.T) {
	f := &stubFetcher{bodies: map[string]string{"x": feedOf("Go", "https://x")}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New([]collector.SourceSpec{{Name: "X", Kind: collector.KindFeed, URL: "x"}}, f, nil, nil, nil, Options{}, nil).
		Collect(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStateStrings(t *testing.T) {
	assert.Equal(t, "fetching", StateFetching.String())
	assert.Equal(t, "no_items", OutcomeNoItems.String())
	assert.Equal(t, StateIdle, New(nil, nil, nil, nil, nil, Options{}, nil).State())
}

func TestOverlappingRunsRejected(t *testing.T) {
	f := &stubFetcher{
		bodies: map[string]string{"x": feedOf("Go", "https://x")},
		delays: map[string]time.Duration{"x": 100 * time.Millisecond},
	}
	p := New([]collector.SourceSpec{{Name: "X", Kind: collector.KindFeed, URL: "x"}}, f, nil, nil, nil, Options{}, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = p.Collect(context.Background())
	}()
	assert.Eventually(t, func() bool { return p.State() == StateFetching }, time.Second, time.Millisecond)
	assert.True(t, p.Busy())

	_, err := p.Collect(context.Background())
	assert.ErrorIs(t, err, ErrRunInProgress)

	<-done
	assert.Equal(t, StateDone, p.State())
	assert.False(t, p.Busy())
	_, err = p.Collect(context.Background())
	assert.NoError(t, err)
}

type recordingPacer struct {
	mu      sync.Mutex
	classes []collector.Class
}

func (r *recordingPacer) Pause(_ context.Context, class collector.Class) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.classes = append(r.classes, class)
	return nil
}

func TestPauseFollowsSuccessfulFetchesOnly(t *testing.T) {
	f := &stubFetcher{bodies: map[string]string{
		"good":  feedOf("Kept", "https://k"),
		"qiita": qiitaPage,
	}}
	pacer := &recordingPacer{}
	sources := []collector.SourceSpec{
		{Name: "broken", Kind: collector.KindFeed, URL: "missing"},
		{Name: "Zenn", Kind: collector.KindFeed, URL: "good"},
		{Name: "qiita_trend", Kind: collector.KindQiitaTrend, URL: "qiita"},
		{Name: "hatena", Kind: collector.Kind("hatena_hot"), URL: "qiita"},
	}
	items, err := New(sources, f, pacer, nil, nil, Options{}, nil).Collect(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 3)

	// html 分组先抓取；失败与未知类型的数据源不等待
	assert.Equal(t, []collector.Class{collector.ClassHTML, collector.ClassFeed}, pacer.classes)
}
