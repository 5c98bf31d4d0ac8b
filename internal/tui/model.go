// Package tui is the operator dashboard: roster and the three sub-queues
// side by side, driven by engine notifications and operator keys.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/v2/key"
	tea "github.com/charmbracelet/bubbletea/v2"

	"github.com/billie-coop/rollcall/internal/events"
	"github.com/billie-coop/rollcall/internal/queue"
)

// Engine is the set of engine commands the dashboard issues.
type Engine interface {
	Snapshot(ctx context.Context) (queue.Snapshot, error)
	Start(ctx context.Context, k queue.Kind) error
	Stop(ctx context.Context, k queue.Kind) error
	CompleteNormal(ctx context.Context, id string) error
	CancelNormal(ctx context.Context, id string) error
	CompleteCutline(ctx context.Context, name string) error
	CancelCutline(ctx context.Context, name string) error
	CompleteBoarding(ctx context.Context, name string) error
	DeleteBoarding(ctx context.Context, name string) error
	DrawRandom(ctx context.Context, k int) ([]string, error)
	ReloadRoster(ctx context.Context) error
	ClearQueues(ctx context.Context) error

	AddNormalManual(ctx context.Context, name string) error
	InsertCutlineManual(ctx context.Context, index int) error
	RequestBoarding(ctx context.Context, name string, manual bool) error
	GrantCredits(ctx context.Context, name string, count int, reason string) error
	SetRosterPath(ctx context.Context, path string) error
}

// panes in focus order.
var panes = []queue.Kind{queue.Normal, queue.Cutline, queue.Boarding}

const statusTimeout = 5 * time.Second

// Model is the dashboard's bubbletea model.
type Model struct {
	ctx    context.Context
	engine Engine
	sub    <-chan events.Event

	keys   KeyMap
	styles styles
	help   *helpPanel
	prompt *prompt

	// saveRosterPath persists an operator's roster switch.
	saveRosterPath func(string) error

	width  int
	height int

	snap   queue.Snapshot
	loaded bool
	focus  int
	cursor [3]int

	drawCount    int
	confirmClear bool
	showHelp     bool

	status *statusLine
}

// Option configures a Model.
type Option func(*Model)

// WithDrawCount sets how many winners the draw key picks.
func WithDrawCount(n int) Option {
	return func(m *Model) {
		if n > 0 {
			m.drawCount = n
		}
	}
}

// WithRosterPathSaver is called after the operator switches roster
// files, typically to write the new path to the config.
func WithRosterPathSaver(fn func(string) error) Option {
	return func(m *Model) {
		m.saveRosterPath = fn
	}
}

// WithTheme overrides the palette.
func WithTheme(t Theme) Option {
	return func(m *Model) {
		m.styles = newStyles(t)
	}
}

// New creates the dashboard. The broker subscription is released when
// ctx is done.
func New(ctx context.Context, engine Engine, broker *events.Broker, opts ...Option) *Model {
	m := &Model{
		ctx:       ctx,
		engine:    engine,
		keys:      DefaultKeyMap(),
		styles:    newStyles(DefaultTheme()),
		help:      newHelpPanel(),
		drawCount: 2,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.status = newStatusLine(m.styles)
	m.prompt = newPrompt()

	if broker != nil {
		sub := broker.Subscribe()
		m.sub = sub
		go func() {
			<-ctx.Done()
			broker.Unsubscribe(sub)
		}()
	}
	return m
}

// Init loads the first snapshot and starts listening for engine events.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.refresh(), m.listenForEvents())
}

// Update handles all dashboard messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case snapshotMsg:
		if msg.err != nil {
			return m, m.status.show(msg.err.Error(), statusError)
		}
		m.snap = msg.snap
		m.loaded = true
		m.clampCursors()
		return m, nil

	case resultMsg:
		var cmd tea.Cmd
		if msg.err != nil {
			cmd = m.status.show(msg.err.Error(), statusError)
		} else if msg.text != "" {
			cmd = m.status.show(msg.text, statusSuccess)
		}
		return m, tea.Batch(cmd, m.refresh())

	case events.Event:
		return m, tea.Batch(m.handleEvent(msg), m.listenForEvents())

	case clearStatusMsg:
		m.status.clear(msg.at)
		return m, nil

	case tea.KeyPressMsg:
		return m, m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) handleEvent(ev events.Event) tea.Cmd {
	var cmd tea.Cmd
	switch ev.Type {
	case events.EngineErrorEvent:
		if p, ok := ev.Payload.(events.ErrorPayload); ok {
			cmd = m.status.show(fmt.Sprintf("%s: %v", p.Op, p.Err), statusError)
		}
	case events.RosterReloadedEvent:
		if p, ok := ev.Payload.(events.RosterReloadedPayload); ok && len(p.Orphans) > 0 {
			cmd = m.status.show(fmt.Sprintf("名单重载，移除 %d 个失效排队", len(p.Orphans)), statusWarning)
		}
	case events.CreditsGrantedEvent:
		if p, ok := ev.Payload.(events.CreditsGrantedPayload); ok {
			cmd = m.status.show(fmt.Sprintf("%s 获得 %d 次", p.Name, p.Credits), statusInfo)
		}
	}
	return tea.Batch(cmd, m.refresh())
}

func (m *Model) handleKey(msg tea.KeyPressMsg) tea.Cmd {
	if m.prompt.active() {
		line, done, cmd := m.prompt.update(msg)
		if !done || line == "" {
			return cmd
		}
		return tea.Batch(cmd, m.execute(line))
	}
	if m.showHelp {
		if key.Matches(msg, m.keys.Help) || msg.String() == "esc" || key.Matches(msg, m.keys.Quit) {
			m.showHelp = false
		}
		return nil
	}

	confirming := m.confirmClear
	m.confirmClear = false

	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return nil
	case key.Matches(msg, m.keys.Command):
		return m.prompt.open()
	case key.Matches(msg, m.keys.NextPane):
		m.focus = (m.focus + 1) % len(panes)
	case key.Matches(msg, m.keys.PrevPane):
		m.focus = (m.focus - 1 + len(panes)) % len(panes)
	case key.Matches(msg, m.keys.Up):
		if m.cursor[m.focus] > 0 {
			m.cursor[m.focus]--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor[m.focus] < len(m.tickets(m.focusedKind()))-1 {
			m.cursor[m.focus]++
		}
	case key.Matches(msg, m.keys.Complete):
		return m.completeSelected()
	case key.Matches(msg, m.keys.Cancel):
		return m.cancelSelected()
	case key.Matches(msg, m.keys.Toggle):
		return m.toggleFocused()
	case key.Matches(msg, m.keys.Draw):
		return m.draw()
	case key.Matches(msg, m.keys.Reload):
		return m.run("名单已重载", m.engine.ReloadRoster)
	case key.Matches(msg, m.keys.Clear):
		if !confirming {
			m.confirmClear = true
			return m.status.show("再按一次 C 清空排队", statusWarning)
		}
		return m.run("排队已清空", m.engine.ClearQueues)
	}
	return nil
}

func (m *Model) focusedKind() queue.Kind {
	return panes[m.focus]
}

func (m *Model) tickets(k queue.Kind) []queue.Ticket {
	switch k {
	case queue.Cutline:
		return m.snap.Cutline
	case queue.Boarding:
		return m.snap.Boarding
	default:
		return m.snap.Normal
	}
}

func (m *Model) started(k queue.Kind) bool {
	switch k {
	case queue.Cutline:
		return m.snap.CutlineStarted
	case queue.Boarding:
		return m.snap.BoardingStarted
	default:
		return m.snap.NormalStarted
	}
}

func (m *Model) selected() (queue.Ticket, bool) {
	list := m.tickets(m.focusedKind())
	i := m.cursor[m.focus]
	if i < 0 || i >= len(list) {
		return queue.Ticket{}, false
	}
	return list[i], true
}

func (m *Model) clampCursors() {
	for i, k := range panes {
		n := len(m.tickets(k))
		if m.cursor[i] >= n {
			m.cursor[i] = max(n-1, 0)
		}
	}
}
