package readwise

import (
	"context"
	"log/slog"
	"slices"
)

// Saver saves a single link for later reading.
type Saver interface {
	Save(ctx context.Context, link string) error
}

// Tally counts the outcome of a publish run.
type Tally struct {
	OK  int
	Err int
}

// Failed reports whether any save failed.
func (t Tally) Failed() bool {
	return t.Err > 0
}

// Publisher pushes links to a read-later service.
type Publisher struct {
	saver Saver
	log   *slog.Logger
}

// NewPublisher creates a Publisher.
func NewPublisher(saver Saver, log *slog.Logger) *Publisher {
	return &Publisher{saver: saver, log: log}
}

// Publish saves every distinct URL in lexicographic order. A failed save is
// logged and counted; it never stops the remaining saves.
func (p *Publisher) Publish(ctx context.Context, urls []string) Tally {
	unique := slices.Clone(urls)
	slices.Sort(unique)
	unique = slices.Compact(unique)

	var t Tally
	for _, u := range unique {
		if u == "" {
			continue
		}
		if err := p.saver.Save(ctx, u); err != nil {
			p.log.Error("readwise save failed", "url", u, "error", err)
			t.Err++
			continue
		}
		t.OK++
	}
	p.log.Info("readwise saved", "ok", t.OK, "err", t.Err, "total", t.OK+t.Err)
	return t
}
