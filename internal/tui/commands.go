package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea/v2"

	"github.com/billie-coop/rollcall/internal/queue"
)

type snapshotMsg struct {
	snap queue.Snapshot
	err  error
}

// resultMsg reports the outcome of an operator command.
type resultMsg struct {
	text string
	err  error
}

// listenForEvents waits for the next broker event.
func (m *Model) listenForEvents() tea.Cmd {
	if m.sub == nil {
		return nil
	}
	sub := m.sub
	return func() tea.Msg {
		ev, ok := <-sub
		if !ok {
			return nil
		}
		return ev
	}
}

func (m *Model) refresh() tea.Cmd {
	ctx, engine := m.ctx, m.engine
	return func() tea.Msg {
		snap, err := engine.Snapshot(ctx)
		return snapshotMsg{snap: snap, err: err}
	}
}

// run issues fn and reports success with text.
func (m *Model) run(text string, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		if err := fn(ctx); err != nil {
			return resultMsg{err: err}
		}
		return resultMsg{text: text}
	}
}

func (m *Model) completeSelected() tea.Cmd {
	t, ok := m.selected()
	if !ok {
		return nil
	}
	text := fmt.Sprintf("%s 已完成", t.Name)
	switch m.focusedKind() {
	case queue.Cutline:
		return m.run(text, func(ctx context.Context) error { return m.engine.CompleteCutline(ctx, t.Name) })
	case queue.Boarding:
		return m.run(text, func(ctx context.Context) error { return m.engine.CompleteBoarding(ctx, t.Name) })
	default:
		return m.run(text, func(ctx context.Context) error { return m.engine.CompleteNormal(ctx, t.ID) })
	}
}

func (m *Model) cancelSelected() tea.Cmd {
	t, ok := m.selected()
	if !ok {
		return nil
	}
	text := fmt.Sprintf("%s 已取消", t.Name)
	switch m.focusedKind() {
	case queue.Cutline:
		return m.run(text, func(ctx context.Context) error { return m.engine.CancelCutline(ctx, t.Name) })
	case queue.Boarding:
		return m.run(text, func(ctx context.Context) error { return m.engine.DeleteBoarding(ctx, t.Name) })
	default:
		return m.run(text, func(ctx context.Context) error { return m.engine.CancelNormal(ctx, t.ID) })
	}
}

func (m *Model) toggleFocused() tea.Cmd {
	k := m.focusedKind()
	if m.started(k) {
		return m.run(paneTitle(k)+"已停止", func(ctx context.Context) error { return m.engine.Stop(ctx, k) })
	}
	return m.run(paneTitle(k)+"已开始", func(ctx context.Context) error { return m.engine.Start(ctx, k) })
}

func (m *Model) draw() tea.Cmd {
	ctx, engine, n := m.ctx, m.engine, m.drawCount
	return func() tea.Msg {
		winners, err := engine.DrawRandom(ctx, n)
		if err != nil {
			return resultMsg{err: err}
		}
		return resultMsg{text: "抽中: " + strings.Join(winners, "、")}
	}
}
