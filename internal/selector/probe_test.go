package selector

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"briefing/internal/fetcher"
)

type mockHTTP struct {
	status      int
	contentType string
	body        string
	err         error
	calls       int
	accept      string
}

func (m *mockHTTP) Do(req *http.Request) (*http.Response, error) {
	m.calls++
	m.accept = req.Header.Get("Accept")
	if m.err != nil {
		return nil, m.err
	}
	return &http.Response{
		StatusCode: m.status,
		Header:     http.Header{"Content-Type": []string{m.contentType}},
		Body:       io.NopCloser(bytes.NewBufferString(m.body)),
	}, nil
}

func TestProbeAccessible(t *testing.T) {
	const html = "text/html; charset=utf-8"

	tests := []struct {
		name      string
		link      string
		mock      *mockHTTP
		want      bool
		wantCalls int
	}{
		{
			name:      "plain article",
			link:      "https://aeon.co/essays/x",
			mock:      &mockHTTP{status: 200, contentType: html, body: "<html><body><article>Essay</article></body></html>"},
			want:      true,
			wantCalls: 1,
		},
		{
			name:      "paywall cues",
			link:      "https://paper.example/story",
			mock:      &mockHTTP{status: 200, contentType: html, body: "<div>Subscribe now to continue. Already a subscriber? Sign in</div>"},
			want:      false,
			wantCalls: 1,
		},
		{
			name:      "subscribe alone is fine",
			link:      "https://blog.example/post",
			mock:      &mockHTTP{status: 200, contentType: html, body: "<footer>Subscribe to our newsletter</footer>"},
			want:      true,
			wantCalls: 1,
		},
		{
			name:      "cloudflare challenge",
			link:      "https://guarded.example/post",
			mock:      &mockHTTP{status: 200, contentType: html, body: "Please enable JavaScript and cookies to continue. Cloudflare Ray ID"},
			want:      false,
			wantCalls: 1,
		},
		{
			name:      "non-html content is accepted",
			link:      "https://files.example/paper.pdf",
			mock:      &mockHTTP{status: 200, contentType: "application/pdf", body: "subscribe paywall"},
			want:      true,
			wantCalls: 1,
		},
		{
			name:      "non-200",
			link:      "https://aeon.co/essays/gone",
			mock:      &mockHTTP{status: 403, contentType: html},
			want:      false,
			wantCalls: 1,
		},
		{
			name:      "transport error",
			link:      "https://aeon.co/essays/x",
			mock:      &mockHTTP{err: io.ErrUnexpectedEOF},
			want:      false,
			wantCalls: 1,
		},
		{
			name:      "non-http link is not fetched",
			link:      "ftp://files.example/x",
			mock:      &mockHTTP{status: 200, contentType: html},
			want:      false,
			wantCalls: 0,
		},
		{
			name:      "cues past the inspected prefix are ignored",
			link:      "https://long.example/read",
			mock:      &mockHTTP{status: 200, contentType: html, body: strings.Repeat("a", probeBodyBytes) + " subscribe paywall"},
			want:      true,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProbe(fetcher.New(tt.mock))
			got := p.Accessible(context.Background(), tt.link)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Accessible mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantCalls, tt.mock.calls); diff != "" {
				t.Errorf("calls mismatch (-want +got):\n%s", diff)
			}
			if tt.wantCalls > 0 && !strings.HasPrefix(tt.mock.accept, "text/html") {
				t.Errorf("Accept = %q, want text/html first", tt.mock.accept)
			}
		})
	}
}
