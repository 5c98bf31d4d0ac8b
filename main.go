// Package main is the entry point for the rollcall queue dashboard.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/billie-coop/rollcall/internal/audit"
	"github.com/billie-coop/rollcall/internal/config"
	"github.com/billie-coop/rollcall/internal/events"
	"github.com/billie-coop/rollcall/internal/livechat"
	"github.com/billie-coop/rollcall/internal/queue"
	"github.com/billie-coop/rollcall/internal/tui"
	"github.com/billie-coop/rollcall/internal/watcher"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath string
		rosterPath string
		eventsPath string
		headless   bool
	)

	flagSet := pflag.NewFlagSet("rollcall", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "config.json", "path to the JSON config file")
	flagSet.StringVar(&rosterPath, "roster", "", "roster file to use (saved to the config)")
	flagSet.StringVar(&eventsPath, "events", "", "JSONL chat capture to replay on startup")
	flagSet.BoolVar(&headless, "headless", false, "run without the dashboard until interrupted")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	manager := config.NewManager(configPath)
	if err := manager.Load(); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if rosterPath != "" {
		if err := manager.Set("queue.name_list_file", rosterPath); err != nil {
			return fmt.Errorf("failed to set roster path: %w", err)
		}
	}
	cfg := manager.Get()

	logger, closeLog, err := newLogger(cfg.Log, headless)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	broker := events.NewBroker()
	defer broker.Close()

	engine := queue.New(queue.SettingsFromConfig(cfg),
		queue.WithLogger(logger),
		queue.WithBroker(broker),
		queue.WithAudit(audit.New(cfg.Queue.CountLogFile, cfg.Queue.DeductionLogFile,
			audit.WithGuardDir(cfg.Gift.GuardRecordDir))),
	)
	if err := engine.Restore(); err != nil {
		if !errors.Is(err, queue.ErrRosterFileMissing) {
			return fmt.Errorf("failed to restore queue: %w", err)
		}
		logger.Warn("starting without a roster", "error", err)
	}

	router := livechat.NewRouter(engine, cfg.Keywords,
		livechat.WithLogger(logger),
		livechat.WithRejections(
			queue.ErrNotRunning,
			queue.ErrDuplicateMembership,
			queue.ErrNotEligible,
			queue.ErrInsufficientConsolidatedCredit,
		),
	)

	w := watcher.New(watcher.Config{
		RosterPath:     cfg.Queue.NameListFile,
		ConfigPath:     manager.Path(),
		RosterInterval: cfg.Watch.RosterInterval,
		ConfigInterval: cfg.Watch.ConfigInterval,
		OnRosterChange: engine.ReloadRoster,
		OnConfigChange: func(ctx context.Context) (string, error) {
			prev := manager.Get().Queue.NameListFile
			if err := manager.Load(); err != nil {
				return "", err
			}
			next := manager.Get()
			router.SetKeywords(next.Keywords)
			if err := engine.ApplySettings(ctx, queue.SettingsFromConfig(next)); err != nil {
				return "", err
			}
			broker.Publish(events.Event{
				Type:    events.ConfigChangedEvent,
				Payload: events.ConfigChangedPayload{RosterPathChanged: next.Queue.NameListFile != prev},
			})
			return next.Queue.NameListFile, nil
		},
		Logger: logger,
	})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return engine.Run(ctx) })
	g.Go(func() error { return w.Run(ctx) })
	if eventsPath != "" {
		g.Go(func() error { return replay(ctx, logger, router, eventsPath) })
	}

	if headless {
		logger.Info("running headless", "config", manager.Path(), "roster", cfg.Queue.NameListFile)
		<-ctx.Done()
	} else {
		g.Go(func() error {
			defer stop()
			model := tui.New(ctx, engine, broker,
				tui.WithDrawCount(cfg.Queue.DrawCount),
				tui.WithRosterPathSaver(func(path string) error {
					return manager.Set("queue.name_list_file", path)
				}),
			)
			p := tea.NewProgram(model, tea.WithAltScreen())
			go func() {
				<-ctx.Done()
				p.Quit()
			}()
			_, err := p.Run()
			return err
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// replay feeds a captured chat log through the router once.
func replay(ctx context.Context, logger *slog.Logger, router *livechat.Router, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open events file: %w", err)
	}
	defer f.Close()

	handled := 0
	bad, err := livechat.ReadAll(ctx, f, func(ev livechat.Event) error {
		if _, err := router.Handle(ctx, ev); err != nil {
			logger.Warn("chat event failed", "viewer", ev.Viewer(), "error", err)
			return nil
		}
		handled++
		return nil
	})
	for _, le := range bad {
		logger.Warn("skipped chat event", "line", le.Line, "error", le.Err)
	}
	if err != nil {
		return err
	}
	logger.Info("events replayed", "path", path, "handled", handled, "skipped", len(bad))
	return nil
}

// newLogger builds the text logger. The terminal belongs to the dashboard,
// so records go to log.file unless running headless without one.
func newLogger(cfg config.LogConfig, headless bool) (*slog.Logger, func(), error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.Level))); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var out io.Writer = os.Stderr
	closeFn := func() {}
	switch {
	case cfg.File != "":
		f, err := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = f
		closeFn = func() { f.Close() }
	case !headless:
		out = io.Discard
	}

	return slog.New(slog.NewTextHandler(out, opts)), closeFn, nil
}
