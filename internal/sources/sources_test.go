package sources

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"sync"
	"testing"

	"briefing/internal/fetcher"
)

type route struct {
	status      int
	body        string
	contentType string
}

// mockHTTP answers requests by exact URL; unknown URLs get a 404.
type mockHTTP struct {
	mu     sync.Mutex
	routes map[string]route
	calls  []string
}

func (m *mockHTTP) Do(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req.URL.String())

	r, ok := m.routes[req.URL.String()]
	if !ok {
		r = route{status: http.StatusNotFound, body: "not found"}
	}
	h := http.Header{}
	if r.contentType != "" {
		h.Set("Content-Type", r.contentType)
	}
	return &http.Response{
		StatusCode: r.status,
		Header:     h,
		Body:       io.NopCloser(bytes.NewBufferString(r.body)),
	}, nil
}

func (m *mockHTTP) called(u string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == u {
			n++
		}
	}
	return n
}

func newFetcher(routes map[string]route) (*fetcher.Fetcher, *mockHTTP) {
	m := &mockHTTP{routes: routes}
	return fetcher.New(m), m
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func loadFixture(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path) //nolint:gosec // test-only fixture loading
	if err != nil {
		t.Fatalf("read fixture %s: %v", path, err)
	}
	return string(data)
}

func ok(body string) route {
	return route{status: http.StatusOK, body: body}
}

func algoliaCommentsURL(id int64, n int) string {
	q := url.Values{}
	q.Set("tags", fmt.Sprintf("comment,story_%d", id))
	q.Set("hitsPerPage", strconv.Itoa(max(n*3, 20)))
	return AlgoliaURL + "?" + q.Encode()
}

func algoliaStoryURL(storyURL string) string {
	q := url.Values{}
	q.Set("query", storyURL)
	q.Set("tags", "story")
	return AlgoliaURL + "?" + q.Encode()
}

var ctx = context.Background()
