package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea/v2"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusWarning
	statusError
	statusSuccess
)

type statusMessage struct {
	text string
	kind statusKind
	at   time.Time
}

// statusLine shows one transient message that clears itself.
type statusLine struct {
	styles     styles
	message    *statusMessage
	clearAfter time.Duration
	now        func() time.Time
}

type clearStatusMsg struct {
	at time.Time
}

func newStatusLine(s styles) *statusLine {
	return &statusLine{
		styles:     s,
		clearAfter: statusTimeout,
		now:        time.Now,
	}
}

func (s *statusLine) show(text string, kind statusKind) tea.Cmd {
	at := s.now()
	s.message = &statusMessage{text: text, kind: kind, at: at}
	return tea.Tick(s.clearAfter, func(time.Time) tea.Msg {
		return clearStatusMsg{at: at}
	})
}

// clear drops the message only if it is the one the timer was set for.
func (s *statusLine) clear(at time.Time) {
	if s.message != nil && s.message.at.Equal(at) {
		s.message = nil
	}
}

func (s *statusLine) view(width int) string {
	if s.message == nil {
		return ""
	}
	text := truncate(s.message.text, width-2)
	switch s.message.kind {
	case statusError:
		return s.styles.statusErr.Render("✗ " + text)
	case statusWarning:
		return s.styles.statusErr.Foreground(s.styles.theme.Warning).Render("! " + text)
	case statusSuccess:
		return s.styles.statusOK.Render("✓ " + text)
	default:
		return s.styles.statusInfo.Render(text)
	}
}
