package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/narro/internal/common"
	"github.com/ternarybob/narro/internal/models"
)

const articleHTML = `<!DOCTYPE html>
<html>
<head>
  <title>Ignored Document Title</title>
  <meta property="og:title" content="Understanding Go Channels">
  <meta property="article:published_time" content="2024-06-15T10:30:00Z">
</head>
<body>
  <nav>Home | About | Contact</nav>
  <article>
    <h1>Understanding Go Channels</h1>
    <p>Channels are typed conduits for communication between goroutines.</p>
    <h2>Buffered Channels</h2>
    <p>A buffered channel accepts sends without a waiting receiver.</p>
    <script>trackPageView();</script>
  </article>
  <footer>Copyright 2024</footer>
</body>
</html>`

func testFetchConfig() *common.FetchConfig {
	return &common.FetchConfig{
		Timeout:      5 * time.Second,
		MaxRetries:   2,
		RetryBackoff: time.Millisecond,
		UserAgent:    "narro-test",
		CaptionLang:  "en",
	}
}

func TestWebFetcher_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "narro-test", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(articleHTML))
	}))
	defer server.Close()

	f := NewWebFetcher(testFetchConfig(), arbor.NewLogger())
	doc, err := f.Fetch(context.Background(), server.URL+"/posts/go-channels")
	require.NoError(t, err)

	assert.Equal(t, models.SourceTypeWeb, doc.SourceType)
	assert.Equal(t, "Understanding Go Channels", doc.Title)
	assert.Equal(t, "2024-06-15", doc.Published)

	require.Len(t, doc.Headings, 2)
	assert.Equal(t, models.Heading{Level: 1, Text: "Understanding Go Channels"}, doc.Headings[0])
	assert.Equal(t, models.Heading{Level: 2, Text: "Buffered Channels"}, doc.Headings[1])

	assert.Contains(t, doc.Text, "typed conduits")
	assert.NotContains(t, doc.Text, "trackPageView")
	assert.NotContains(t, doc.Text, "Home | About")
	assert.NotContains(t, doc.Text, "Copyright 2024")

	assert.Contains(t, doc.BodyMarkdown, "## Buffered Channels")
	assert.False(t, doc.FetchedAt.IsZero())
}

func TestWebFetcher_Fetch_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	f := NewWebFetcher(testFetchConfig(), arbor.NewLogger())
	_, err := f.Fetch(context.Background(), server.URL+"/missing")
	require.Error(t, err)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, ErrKindRequest, fetchErr.Kind)
}

func TestWebFetcher_Fetch_RetriesServerErrors(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(articleHTML))
	}))
	defer server.Close()

	f := NewWebFetcher(testFetchConfig(), arbor.NewLogger())
	doc, err := f.Fetch(context.Background(), server.URL+"/flaky")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, "Understanding Go Channels", doc.Title)
}

func TestWebFetcher_Fetch_EmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><script>only()</script></body></html>`))
	}))
	defer server.Close()

	f := NewWebFetcher(testFetchConfig(), arbor.NewLogger())
	_, err := f.Fetch(context.Background(), server.URL)
	require.Error(t, err)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, ErrKindExtract, fetchErr.Kind)
}
