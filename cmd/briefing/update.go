package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"briefing/internal/notify"
	"briefing/internal/post"
	"briefing/internal/readwise"
	"briefing/internal/sources"
)

func updatePostCmd(a *app) *cobra.Command {
	var noPublish bool
	cmd := &cobra.Command{
		Use:   "update-post POST.md",
		Short: "Add HN discussion links and YouTube picks to a post, then save its links to Readwise",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.updatePost(cmd.Context(), args[0], !noPublish)
		},
	}
	cmd.Flags().BoolVar(&noPublish, "no-publish", false, "patch the post without saving links to Readwise")
	return cmd
}

func (a *app) updatePost(ctx context.Context, path string, publish bool) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat post: %w", err)
	}
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied post path
	if err != nil {
		return fmt.Errorf("read post: %w", err)
	}
	doc := string(data)

	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	agg, err := a.aggregator(store)
	if err != nil {
		return err
	}

	hn := sources.NewHackerNews(a.fetcher, a.log)
	discussions := hn.Discussions(ctx, post.Links(doc, post.HeadingHN), a.sources.HackerNews.DiscussionLookup)
	videos, err := agg.Videos(ctx, a.now())
	if err != nil {
		a.log.Warn("video picks unavailable", "error", err)
	}

	updated := post.Patch(doc, post.Updates{Discussions: discussions, Videos: videos})
	changed := updated != doc
	if changed {
		if err := os.WriteFile(path, []byte(updated), info.Mode().Perm()); err != nil {
			return fmt.Errorf("write post: %w", err)
		}
		a.log.Info("post updated", "path", path, "discussions", len(discussions), "videos", len(videos))
	} else {
		a.log.Info("no post changes needed", "path", path)
	}

	var tally readwise.Tally
	rw := a.readwise()
	switch {
	case !publish:
		a.log.Info("read-later publish disabled")
	case !rw.HasToken():
		a.log.Warn("READWISE_TOKEN not set, skipping read-later saves")
		publish = false
	default:
		urls := post.Links(updated, post.HeadingHN, post.HeadingAntiBubble)
		tally = readwise.NewPublisher(rw, a.log).Publish(ctx, urls)
		a.metrics.ObserveSaves(tally.OK, tally.Err)
	}

	a.finish(notify.FormatUpdate(path, changed, tally.OK, tally.Err, publish))
	if tally.Failed() {
		return errSaveFailed
	}
	return nil
}
