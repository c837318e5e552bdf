package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"briefing/internal/notify"
)

func snapshotCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Scrape every source and print the JSON snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out) //nolint:gosec // operator-supplied output path
				if err != nil {
					return fmt.Errorf("create output: %w", err)
				}
				defer func() { _ = f.Close() }()
				w = f
			}
			return a.snapshot(cmd.Context(), w)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the snapshot to `FILE` instead of stdout")
	return cmd
}

func (a *app) snapshot(ctx context.Context, w io.Writer) error {
	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	agg, err := a.aggregator(store)
	if err != nil {
		return err
	}

	a.log.Info("snapshot started", "backend", a.cfg.StateBackend)
	snap := agg.Run(ctx, a.now())

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	a.log.Info("snapshot finished", "hn", len(snap.HN), "reddit", len(snap.Reddit),
		"antibubble", len(snap.AntiBubble), "youtube", len(snap.YouTube), "errors", len(snap.Errors))
	a.finish(notify.FormatSnapshot(snap))
	return nil
}
