package staticfetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bipartisan-Policy-Center/election-official-job-descriptions/internal/scraper"
)

func TestFetchReturnsBody(t *testing.T) {
	t.Parallel()

	var gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.UserAgent()
		_, _ = w.Write([]byte("<html><body>job posting</body></html>"))
	}))
	defer srv.Close()

	f := New(Config{UserAgent: "ElectionJobResearchBot/1.0", Timeout: 5 * time.Second})
	result, err := f.Fetch(context.Background(), scraper.FetchTarget{URL: srv.URL})
	require.NoError(t, err)
	assert.Contains(t, string(result.HTML), "job posting")
	assert.Equal(t, scraper.StrategyStatic, result.Strategy)
	assert.Equal(t, "ElectionJobResearchBot/1.0", gotAgent)
}

func TestFetchNonOKStatusIsError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := New(Config{Timeout: 5 * time.Second})
	_, err := f.Fetch(context.Background(), scraper.FetchTarget{URL: srv.URL + "/missing"})
	require.Error(t, err)
	assert.ErrorIs(t, err, scraper.ErrHTTPStatus)
	assert.Equal(t, scraper.KindNetwork, scraper.Classify(err))
	assert.True(t, scraper.IsRetryable(err))
}

func TestFetchConnectionRefusedIsNetworkError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	f := New(Config{Timeout: 2 * time.Second})
	_, err := f.Fetch(context.Background(), scraper.FetchTarget{URL: url})
	require.Error(t, err)
	assert.True(t, scraper.IsRetryable(err))
}

func TestFetchCanceledContext(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	f := New(Config{Timeout: 10 * time.Second})
	_, err := f.Fetch(ctx, scraper.FetchTarget{URL: srv.URL})
	require.Error(t, err)
	assert.Equal(t, scraper.KindTimeout, scraper.Classify(err))
}

func TestCollectorIsClonedPerFetch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("page " + r.URL.Path))
	}))
	defer srv.Close()

	f := New(Config{Timeout: 5 * time.Second})
	first, err := f.Fetch(context.Background(), scraper.FetchTarget{URL: srv.URL + "/a"})
	require.NoError(t, err)
	second, err := f.Fetch(context.Background(), scraper.FetchTarget{URL: srv.URL + "/b"})
	require.NoError(t, err)
	assert.Equal(t, "page /a", string(first.HTML))
	assert.Equal(t, "page /b", string(second.HTML))
}
