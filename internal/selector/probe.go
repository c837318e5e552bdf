package selector

import (
	"bytes"
	"context"
	"strings"
	"time"

	"briefing/internal/fetcher"
)

const (
	probeTimeout   = 25 * time.Second
	probeBodyBytes = 200000
)

// Probe fetches a link and rejects pages that look paywalled or sit behind a
// JavaScript challenge. It is a substring heuristic and will misjudge some
// pages.
type Probe struct {
	fetcher *fetcher.Fetcher
	timeout time.Duration
}

// NewProbe creates a Probe.
func NewProbe(f *fetcher.Fetcher) *Probe {
	return &Probe{fetcher: f, timeout: probeTimeout}
}

// Accessible reports whether link serves a readable page.
func (p *Probe) Accessible(ctx context.Context, link string) bool {
	if !strings.HasPrefix(link, "http") {
		return false
	}
	resp := p.fetcher.GetWithTimeout(ctx, link, map[string]string{"Accept": "text/html,application/xhtml+xml"}, p.timeout)
	if resp.Err != nil || resp.Status != 200 {
		return false
	}
	if !strings.Contains(strings.ToLower(resp.ContentType), "text/html") {
		return true
	}

	body := resp.Body
	if len(body) > probeBodyBytes {
		body = body[:probeBodyBytes]
	}
	page := string(bytes.ToLower(body))

	if strings.Contains(page, "subscribe") &&
		(strings.Contains(page, "paywall") || strings.Contains(page, "subscription") || strings.Contains(page, "sign in")) {
		return false
	}
	if strings.Contains(page, "enable javascript") && strings.Contains(page, "cloudflare") {
		return false
	}
	return true
}
