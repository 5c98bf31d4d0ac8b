package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"

	"github.com/billie-coop/rollcall/internal/queue"
)

const rosterWidth = 28

func paneTitle(k queue.Kind) string {
	switch k {
	case queue.Cutline:
		return "插队"
	case queue.Boarding:
		return "上车"
	default:
		return "排队"
	}
}

// View renders the dashboard.
func (m *Model) View() tea.View {
	return tea.NewView(m.render())
}

func (m *Model) render() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}
	if m.showHelp {
		return m.help.view(m.width)
	}

	const headerHeight = 1
	const statusHeight = 1
	bodyHeight := max(m.height-headerHeight-statusHeight-2, 3) // borders

	roster := m.renderRoster(rosterWidth-2, bodyHeight)

	queueWidth := max((m.width-rosterWidth)/len(panes)-2, 10)
	cols := []string{roster}
	for i, k := range panes {
		cols = append(cols, m.renderQueue(i, k, queueWidth, bodyHeight))
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, cols...)

	return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), body, m.renderStatus())
}

func (m *Model) renderHeader() string {
	st := m.snap.Status
	title := gradient("rollcall", m.styles.theme.Primary, m.styles.theme.Secondary)
	info := fmt.Sprintf("  名单 %d 行 · 可用 %d · 排队 %d · 插队 %d · 上车 %d",
		st.Total, st.Available, st.Queued, st.Cutline, st.Boarded)
	return title + m.styles.hint.Render(truncate(info, m.width-lipgloss.Width(title)))
}

func (m *Model) renderRoster(width, height int) string {
	var b strings.Builder
	b.WriteString(m.styles.paneTitle.Render("名单"))
	if m.snap.RosterPath == "" {
		b.WriteString("\n" + m.styles.rowMuted.Render("未设置名单文件"))
	}

	rows := height - 1
	for i, e := range m.snap.Roster {
		if i >= rows {
			b.WriteString("\n" + m.styles.rowMuted.Render(fmt.Sprintf("… 还有 %d 行", len(m.snap.Roster)-i)))
			break
		}
		line := truncate(fmt.Sprintf("%3d %s ×%d", e.Index, e.Name, e.Credits), width)
		style := m.styles.row
		switch {
		case e.Credits == 0:
			style = m.styles.rowMuted
		case e.InQueue || e.InBoarding:
			style = m.styles.drawn
		}
		b.WriteString("\n" + style.Render(line))
	}

	return m.styles.pane.Width(width).Height(height).Render(b.String())
}

func (m *Model) renderQueue(pane int, k queue.Kind, width, height int) string {
	var b strings.Builder

	badge := m.styles.badgeOff.Render("○ 未开始")
	if m.started(k) {
		badge = m.styles.badgeOn.Render("● 进行中")
	}
	b.WriteString(m.styles.paneTitle.Render(paneTitle(k)) + " " + badge)

	list := m.tickets(k)
	if len(list) == 0 {
		b.WriteString("\n" + m.styles.rowMuted.Render("（空）"))
	}

	// Keep the cursor row visible.
	rows := height - 1
	start := 0
	if c := m.cursor[pane]; c >= rows {
		start = c - rows + 1
	}
	for i := start; i < len(list) && i < start+rows; i++ {
		t := list[i]
		mark := " "
		switch {
		case t.Drawn:
			mark = "★"
		case t.Priority:
			mark = "+"
		}
		line := truncate(fmt.Sprintf("%s%2d. %s ×%d", mark, i+1, t.Name, t.Credits), width)

		style := m.styles.row
		if t.Drawn {
			style = m.styles.drawn
		}
		if pane == m.focus && i == m.cursor[pane] {
			style = m.styles.rowCursor
		}
		b.WriteString("\n" + style.Render(line))
	}

	frame := m.styles.pane
	if pane == m.focus {
		frame = m.styles.paneFocus
	}
	return frame.Width(width).Height(height).Render(b.String())
}

func (m *Model) renderStatus() string {
	if m.prompt.active() {
		return m.styles.statusBar.Width(m.width).Render(m.prompt.view())
	}
	left := m.status.view(m.width / 2)
	if left == "" && len(m.snap.RecentWinners) > 0 {
		left = m.styles.hint.Render("最近中奖: " + strings.Join(m.snap.RecentWinners, "、"))
	}

	var hints []string
	for _, b := range m.keys.ShortHelp() {
		h := b.Help()
		hints = append(hints, h.Key+" "+h.Desc)
	}
	right := m.styles.hint.Render(strings.Join(hints, " · "))

	gap := m.width - 2 - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return m.styles.statusBar.Width(m.width).Render(left)
	}
	return m.styles.statusBar.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}
