package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"briefing/internal/aggregator"
	"briefing/internal/config"
	"briefing/internal/fetcher"
	"briefing/internal/metrics"
	"briefing/internal/notify"
	"briefing/internal/readwise"
	"briefing/internal/selector"
	"briefing/internal/sources"
	"briefing/internal/storage"
)

// errSaveFailed makes update-post exit non-zero after a partial publish.
var errSaveFailed = errors.New("some read-later saves failed")

type notifier interface {
	Send(text string) error
}

// app carries what every subcommand needs.
type app struct {
	cfg      *config.Config
	sources  *config.Sources
	log      *slog.Logger
	fetcher  *fetcher.Fetcher
	metrics  *metrics.Metrics
	notifier notifier
	now      func() time.Time
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "briefing",
		Short: "Morning briefing content pipeline",
		Long:  "Scrapes the briefing sources into a JSON snapshot and patches published briefing posts.",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			return a.init()
		},
	}
	root.AddCommand(snapshotCmd(a), updatePostCmd(a))
	return root
}

// init loads configuration and builds the shared clients.
func (a *app) init() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	srcs, err := config.LoadSources(cfg.SourcesPath)
	if err != nil {
		return fmt.Errorf("load sources: %w", err)
	}

	a.cfg = cfg
	a.sources = srcs
	a.log = newLogger(cfg.LogLevel).With("run_id", uuid.NewString())
	a.fetcher = fetcher.New(http.DefaultClient,
		fetcher.WithTimeout(cfg.HTTPTimeout),
		fetcher.WithRateLimit(cfg.RequestsPerSecond, max(int(cfg.RequestsPerSecond), 1)),
	)
	a.metrics = metrics.New()
	a.now = time.Now

	if cfg.TelegramEnabled() {
		tg, err := notify.NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatID, a.log)
		if err != nil {
			a.log.Warn("telegram notifications disabled", "error", err)
		} else {
			a.notifier = tg
		}
	}
	return nil
}

// aggregator wires the source clients over store.
func (a *app) aggregator(store storage.Store) (*aggregator.Aggregator, error) {
	rules, err := a.sources.Reddit.CompiledRules()
	if err != nil {
		return nil, fmt.Errorf("compile subreddit rules: %w", err)
	}
	lf := a.sources.Longform
	picker := selector.NewAntiBubble(lf.Pool, sources.NewLongform(a.fetcher), selector.NewProbe(a.fetcher), store,
		selector.Options{Want: lf.Want, MinDomains: lf.MinDomains, PerSourceLimit: lf.PerSourceLimit}, a.log)

	return aggregator.New(aggregator.Clients{
		HN:         sources.NewHackerNews(a.fetcher, a.log),
		Reddit:     sources.NewReddit(a.fetcher, a.log),
		YouTube:    sources.NewYouTube(a.fetcher, store, a.log),
		AntiBubble: picker,
		Readwise:   a.readwise(),
	}, a.sources, rules, a.metrics, a.log), nil
}

func (a *app) readwise() *readwise.Client {
	return readwise.NewClient(a.fetcher, a.cfg.ReadwiseToken)
}

func (a *app) openStore(ctx context.Context) (storage.Store, error) {
	store, err := storage.Open(ctx, a.cfg.StorageOptions())
	if err != nil {
		return nil, fmt.Errorf("open %s state: %w", a.cfg.StateBackend, err)
	}
	return store, nil
}

// finish writes run metrics and sends the run report, linking the site when
// one is configured. Neither can fail the run.
func (a *app) finish(report string) {
	a.metrics.MarkRun(a.now())
	if err := a.metrics.WriteTextfile(a.cfg.MetricsTextfile); err != nil {
		a.log.Error("write metrics", "path", a.cfg.MetricsTextfile, "error", err)
	}
	if a.cfg.SiteURL != "" {
		report += "\n" + a.cfg.SiteURL
	}
	if a.notifier != nil {
		_ = a.notifier.Send(report)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
