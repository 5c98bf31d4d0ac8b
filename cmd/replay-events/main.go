// replay-events runs a captured chat log against a roster without the
// dashboard and prints the resulting queues.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"github.com/billie-coop/rollcall/internal/config"
	"github.com/billie-coop/rollcall/internal/livechat"
	"github.com/billie-coop/rollcall/internal/queue"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		rosterPath string
		eventsPath string
		start      string
		persist    bool
		verbose    bool
	)
	flagSet := pflag.NewFlagSet("replay-events", pflag.ContinueOnError)
	flagSet.StringVar(&rosterPath, "roster", "", "roster file (required)")
	flagSet.StringVar(&eventsPath, "events", "", "JSONL chat capture (required)")
	flagSet.StringVar(&start, "start", "normal,cutline,boarding", "sub-queues to start before replaying")
	flagSet.BoolVar(&persist, "persist", false, "write roster changes and state back to disk")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "log every routed event")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if rosterPath == "" || eventsPath == "" {
		return errors.New("--roster and --events are required")
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	// Work on a scratch copy unless asked to persist.
	if !persist {
		tmp, err := scratchCopy(rosterPath)
		if err != nil {
			return err
		}
		defer os.RemoveAll(filepath.Dir(tmp))
		rosterPath = tmp
	}

	settings := queue.Settings{
		RosterPath:    rosterPath,
		NormalCost:    1,
		CutlineCost:   2,
		RecentWinners: 10,
		GuardRewards:  map[string]int{"舰长": 1, "提督": 5, "总督": 10},
		AutoSaveGrant: true,
	}
	if persist {
		settings.StatePath = filepath.Join(filepath.Dir(rosterPath), "queue_state.json")
	}
	engine := queue.New(settings, queue.WithLogger(logger))
	if err := engine.Restore(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- engine.Run(ctx) }()

	for _, name := range strings.Split(start, ",") {
		k, ok := kinds[strings.TrimSpace(name)]
		if !ok {
			continue
		}
		if err := engine.Start(ctx, k); err != nil {
			return err
		}
	}

	router := livechat.NewRouter(engine,
		config.KeywordConfig{Queue: "排队", Cutline: "插队", Boarding: "上车"},
		livechat.WithLogger(logger),
		livechat.WithRejections(
			queue.ErrNotRunning,
			queue.ErrDuplicateMembership,
			queue.ErrNotEligible,
			queue.ErrInsufficientConsolidatedCredit,
		),
	)

	f, err := os.Open(eventsPath)
	if err != nil {
		return fmt.Errorf("failed to open events file: %w", err)
	}
	defer f.Close()

	counts := make(map[livechat.Action]int)
	bad, err := livechat.ReadAll(ctx, f, func(ev livechat.Event) error {
		action, err := router.Handle(ctx, ev)
		if err != nil {
			logger.Warn("event failed", "viewer", ev.Viewer(), "error", err)
		}
		counts[action]++
		return nil
	})
	if err != nil {
		return err
	}

	snap, err := engine.Snapshot(ctx)
	if err != nil {
		return err
	}
	status, err := engine.Status(ctx)
	if err != nil {
		return err
	}
	cancel()
	<-done

	printSummary(snap, status, counts, len(bad))
	return nil
}

var kinds = map[string]queue.Kind{
	"normal":   queue.Normal,
	"cutline":  queue.Cutline,
	"boarding": queue.Boarding,
}

func scratchCopy(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read roster: %w", err)
	}
	dir, err := os.MkdirTemp("", "replay-events-")
	if err != nil {
		return "", err
	}
	tmp := filepath.Join(dir, filepath.Base(path))
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", err
	}
	return tmp, nil
}

func printSummary(snap queue.Snapshot, status queue.Status, counts map[livechat.Action]int, skipped int) {
	fmt.Printf("Routed: queue %d, cutline %d, boarding %d, guard %d, other %d, skipped lines %d\n",
		counts[livechat.ActionQueue], counts[livechat.ActionCutline], counts[livechat.ActionBoarding],
		counts[livechat.ActionGuard], counts[livechat.ActionNone], skipped)

	section := func(title string, tickets []queue.Ticket) {
		fmt.Printf("\n%s (%d)\n", title, len(tickets))
		for i, t := range tickets {
			mark := " "
			if t.Priority {
				mark = "+"
			}
			fmt.Printf("  %s%2d. %s ×%d (序号 %d)\n", mark, i+1, t.Name, t.Credits, t.Index)
		}
	}
	section("排队", snap.Normal)
	section("插队", snap.Cutline)
	section("上车", snap.Boarding)

	fmt.Printf("\nRoster: %d entries, %d with credits\n", status.Total, status.Available)
}
