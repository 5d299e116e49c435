package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Bipartisan-Policy-Center/election-official-job-descriptions/internal/scraper"
)

type fakeFetcher struct {
	pages map[string]string
	calls []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, target scraper.FetchTarget) (scraper.FetchResult, error) {
	f.calls = append(f.calls, target.URL)
	body, ok := f.pages[target.URL]
	if !ok {
		return scraper.FetchResult{}, scraper.WrapError(scraper.KindNetwork, target.URL,
			fmt.Errorf("%w: 404", scraper.ErrHTTPStatus))
	}
	return scraper.FetchResult{HTML: []byte(body)}, nil
}

func yearIndex(base string) string {
	return `<html><body><ul class="weeks">
		<li><a href="` + base + `/electionline-weekly/2024/2024-01-05">Jan 5</a></li>
		<li><a href="/electionline-weekly/2024/2024-01-12">Jan 12</a></li>
		<li><a href="` + base + `/electionline-weekly/2024/2024-01-05">Jan 5 dup</a></li>
	</ul></body></html>`
}

func newTestDownloader(t *testing.T) (*Downloader, *fakeFetcher, string) {
	t.Helper()
	base := "https://electionline.test"
	fetcher := &fakeFetcher{pages: map[string]string{
		base + "/electionline-weekly/2024": yearIndex(base),
		base + "/electionline-weekly/2024/2024-01-05": "<html>week one</html>",
		base + "/electionline-weekly/2024/2024-01-12": "<html>week two</html>",
	}}
	dir := t.TempDir()
	d := New(Config{BaseURL: base, CacheDir: dir, FirstYear: 2024, LastYear: 2024}, fetcher, zap.NewNop())
	return d, fetcher, dir
}

func TestSyncDownloadsMissingWeeks(t *testing.T) {
	d, _, dir := newTestDownloader(t)

	added, err := d.Sync(context.Background())
	require.NoError(t, err)
	require.Len(t, added, 2)
	assert.Equal(t, "2024-01-05", added[0].Date)
	assert.Equal(t, "2024-01-12", added[1].Date)

	body, err := os.ReadFile(filepath.Join(dir, "2024", "2024-01-05.html"))
	require.NoError(t, err)
	assert.Equal(t, "<html>week one</html>", string(body))
}

func TestSyncSkipsCachedWeeks(t *testing.T) {
	d, fetcher, _ := newTestDownloader(t)

	_, err := d.Sync(context.Background())
	require.NoError(t, err)
	firstCalls := len(fetcher.calls)

	added, err := d.Sync(context.Background())
	require.NoError(t, err)
	assert.Empty(t, added)
	// Second sync refetches year indexes only.
	assert.Equal(t, firstCalls+1, len(fetcher.calls))
}

func TestSyncSkipsFailedWeekPages(t *testing.T) {
	d, fetcher, _ := newTestDownloader(t)
	delete(fetcher.pages, "https://electionline.test/electionline-weekly/2024/2024-01-12")

	added, err := d.Sync(context.Background())
	require.NoError(t, err, "a single bad week must not fail the sync")
	require.Len(t, added, 1)
	assert.Equal(t, "2024-01-05", added[0].Date)
}

func TestLocalWeeksSorted(t *testing.T) {
	d, _, dir := newTestDownloader(t)
	for _, p := range []string{"2023/2023-12-01.html", "2024/2024-01-12.html", "2024/2024-01-05.html"} {
		full := filepath.Join(dir, p)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte("x"), 0o644))
	}

	pages, err := d.LocalWeeks()
	require.NoError(t, err)
	require.Len(t, pages, 3)
	assert.Equal(t, 2023, pages[0].Year)
	assert.Equal(t, "2024-01-05", pages[1].Date)
	assert.Equal(t, "2024-01-12", pages[2].Date)
}

func TestLocalWeeksMissingCacheDir(t *testing.T) {
	d := New(Config{CacheDir: filepath.Join(t.TempDir(), "absent")}, &fakeFetcher{}, zap.NewNop())
	pages, err := d.LocalWeeks()
	require.NoError(t, err)
	assert.Empty(t, pages)
}
