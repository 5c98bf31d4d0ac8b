package queue

import (
	"context"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"time"

	"github.com/billie-coop/rollcall/internal/audit"
	"github.com/billie-coop/rollcall/internal/config"
	"github.com/billie-coop/rollcall/internal/draw"
	"github.com/billie-coop/rollcall/internal/events"
	"github.com/billie-coop/rollcall/internal/roster"
	"github.com/billie-coop/rollcall/internal/state"
)

// Settings are the engine's tunables, usually taken from config.Config.
type Settings struct {
	RosterPath string
	StatePath  string

	NormalCost     int
	CutlineCost    int
	KeepZeroCredit bool
	RecentWinners  int

	// GuardRewards maps guard level names to credits per month.
	GuardRewards  map[string]int
	AutoSaveGrant bool
	LogGifts      bool
}

// SettingsFromConfig extracts engine settings from the loaded config.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		RosterPath:     cfg.Queue.NameListFile,
		StatePath:      cfg.Queue.StateFile,
		NormalCost:     cfg.Queue.NormalCost,
		CutlineCost:    cfg.Queue.CutlineCost,
		KeepZeroCredit: cfg.Queue.KeepZeroCredit,
		RecentWinners:  cfg.Queue.RecentWinners,
		GuardRewards:   cfg.Gift.GuardRewards,
		AutoSaveGrant:  cfg.Gift.AutoSave,
		LogGifts:       cfg.Gift.LogEvents,
	}
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithBroker publishes engine notifications on b.
func WithBroker(b *events.Broker) Option {
	return func(e *Engine) {
		e.broker = b
	}
}

// WithAudit records credit movements to l.
func WithAudit(l *audit.Log) Option {
	return func(e *Engine) {
		e.audit = l
	}
}

// WithRandSource makes draws deterministic, for tests.
func WithRandSource(src rand.Source) Option {
	return func(e *Engine) {
		e.randSource = src
	}
}

type command struct {
	fn      func() error
	mutates bool
	reply   chan error
}

// Engine owns the roster, the three sub-queues and their membership
// sets. Everything below the lifecycle fields is touched only by the Run
// goroutine, or before Run starts.
//
// Used by: main, livechat.Router, watcher.Watcher, tui.Model
// Connects to: roster (file), state (snapshot), audit (logs), events (notify)
type Engine struct {
	settings   Settings
	logger     *slog.Logger
	broker     *events.Broker
	audit      *audit.Log
	store      *state.EngineStore
	randSource rand.Source

	// Lifecycle
	commands chan command
	done     chan struct{}

	// Owned by Run
	roster   []*roster.Entry
	normal   []*ticket
	cutline  []*ticket
	boarding []*ticket
	promoted []string

	queuedNames  map[string]bool
	cutlineNames map[string]bool
	boardedNames map[string]bool

	started  map[Kind]bool
	selector *draw.Selector

	// lastWrite stamps the roster file as the engine last wrote or read
	// it, so the watcher's reload after our own save is a no-op.
	lastWrite fileStamp
}

type fileStamp struct {
	modTime time.Time
	size    int64
}

func stampOf(path string) fileStamp {
	info, err := os.Stat(path)
	if err != nil {
		return fileStamp{}
	}
	return fileStamp{modTime: info.ModTime(), size: info.Size()}
}

// New creates an engine. Call Restore before Run to load data.
func New(settings Settings, opts ...Option) *Engine {
	if settings.NormalCost < 1 {
		settings.NormalCost = 1
	}
	if settings.CutlineCost < 1 {
		settings.CutlineCost = 2
	}

	e := &Engine{
		settings:     settings,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		commands:     make(chan command),
		done:         make(chan struct{}),
		queuedNames:  make(map[string]bool),
		cutlineNames: make(map[string]bool),
		boardedNames: make(map[string]bool),
		started:      make(map[Kind]bool),
	}
	for _, opt := range opts {
		opt(e)
	}

	if settings.StatePath != "" {
		e.store = state.NewEngineStore(settings.StatePath)
	}

	var drawOpts []draw.Option
	if e.randSource != nil {
		drawOpts = append(drawOpts, draw.WithSource(e.randSource))
	}
	e.selector = draw.NewSelector(draw.NewRing(settings.RecentWinners), drawOpts...)

	return e
}

// Run processes commands until ctx is done, then writes a final snapshot.
// It must be called exactly once.
func (e *Engine) Run(ctx context.Context) error {
	defer close(e.done)

	e.logger.Info("queue engine started", "roster", e.settings.RosterPath, "entries", len(e.roster))
	for {
		select {
		case <-ctx.Done():
			e.saveState()
			e.logger.Info("queue engine stopped")
			return ctx.Err()
		case cmd := <-e.commands:
			err := cmd.fn()
			if err == nil && cmd.mutates {
				e.saveState()
			}
			cmd.reply <- err
		}
	}
}

// Done is closed when Run returns.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

func (e *Engine) exec(ctx context.Context, mutates bool, fn func() error) error {
	reply := make(chan error, 1)
	select {
	case e.commands <- command{fn: fn, mutates: mutates, reply: reply}:
	case <-e.done:
		return ErrEngineStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// update runs a mutating command.
func (e *Engine) update(ctx context.Context, fn func() error) error {
	return e.exec(ctx, true, fn)
}

// view runs a read-only command.
func (e *Engine) view(ctx context.Context, fn func() error) error {
	return e.exec(ctx, false, fn)
}

func (e *Engine) publish(t events.EventType, payload any) {
	if e.broker != nil {
		e.broker.Publish(events.Event{Type: t, Payload: payload})
	}
}

func (e *Engine) queueChanged(k Kind, action, name string) {
	e.publish(events.QueueChangedEvent, events.QueueChangedPayload{
		Queue:  k.String(),
		Action: action,
		Name:   name,
	})
}

func (e *Engine) reportError(op string, err error) {
	e.publish(events.EngineErrorEvent, events.ErrorPayload{Op: op, Err: err})
}
