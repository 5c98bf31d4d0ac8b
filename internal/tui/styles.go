package tui

import (
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/rivo/uniseg"
)

// Theme holds the dashboard palette.
type Theme struct {
	Primary   color.Color
	Secondary color.Color
	Accent    color.Color

	BgSubtle    color.Color
	FgBase      color.Color
	FgMuted     color.Color
	FgSubtle    color.Color
	Border      color.Color
	BorderFocus color.Color

	Success color.Color
	Error   color.Color
	Warning color.Color
	Info    color.Color
}

// DefaultTheme is the fire-on-slate palette.
func DefaultTheme() Theme {
	return Theme{
		Primary:   ParseHex("#C0392B"),
		Secondary: ParseHex("#F4D03F"),
		Accent:    ParseHex("#F39C12"),

		BgSubtle:    ParseHex("#3D566E"),
		FgBase:      ParseHex("#f5f6fa"),
		FgMuted:     ParseHex("#a0a0a0"),
		FgSubtle:    ParseHex("#6F6F70"),
		Border:      ParseHex("#5D6D7E"),
		BorderFocus: ParseHex("#F39C12"),

		Success: ParseHex("#27AE60"),
		Error:   ParseHex("#E74C3C"),
		Warning: ParseHex("#F39C12"),
		Info:    ParseHex("#3498DB"),
	}
}

// ParseHex converts "#rrggbb" to a color. Invalid input yields black.
func ParseHex(hex string) color.Color {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.Black
	}
	return c
}

// styles are the rendered building blocks of the dashboard.
type styles struct {
	theme Theme

	pane       lipgloss.Style
	paneFocus  lipgloss.Style
	paneTitle  lipgloss.Style
	row        lipgloss.Style
	rowCursor  lipgloss.Style
	rowMuted   lipgloss.Style
	badgeOn    lipgloss.Style
	badgeOff   lipgloss.Style
	drawn      lipgloss.Style
	statusBar  lipgloss.Style
	statusInfo lipgloss.Style
	statusErr  lipgloss.Style
	statusOK   lipgloss.Style
	hint       lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		theme: t,
		pane: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(t.Border),
		paneFocus: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(t.BorderFocus),
		paneTitle: lipgloss.NewStyle().Bold(true).Foreground(t.Accent),
		row:       lipgloss.NewStyle().Foreground(t.FgBase),
		rowCursor: lipgloss.NewStyle().Foreground(t.FgBase).Background(t.BgSubtle).Bold(true),
		rowMuted:  lipgloss.NewStyle().Foreground(t.FgSubtle),
		badgeOn:   lipgloss.NewStyle().Foreground(t.Success).Bold(true),
		badgeOff:  lipgloss.NewStyle().Foreground(t.FgMuted),
		drawn:     lipgloss.NewStyle().Foreground(t.Secondary),
		statusBar: lipgloss.NewStyle().
			Background(t.BgSubtle).
			Foreground(t.FgBase).
			Padding(0, 1),
		statusInfo: lipgloss.NewStyle().Foreground(t.Info),
		statusErr:  lipgloss.NewStyle().Foreground(t.Error).Bold(true),
		statusOK:   lipgloss.NewStyle().Foreground(t.Success),
		hint:       lipgloss.NewStyle().Foreground(t.FgMuted),
	}
}

// gradient renders text with a horizontal blend from c1 to c2, one
// grapheme cluster at a time so CJK names are not split.
func gradient(text string, c1, c2 color.Color) string {
	var clusters []string
	gr := uniseg.NewGraphemes(text)
	for gr.Next() {
		clusters = append(clusters, gr.Str())
	}
	if len(clusters) == 0 {
		return ""
	}

	from, _ := colorful.MakeColor(c1)
	to, _ := colorful.MakeColor(c2)

	var b strings.Builder
	for i, cluster := range clusters {
		t := 0.0
		if len(clusters) > 1 {
			t = float64(i) / float64(len(clusters)-1)
		}
		b.WriteString(lipgloss.NewStyle().Foreground(from.BlendHcl(to, t).Clamped()).Bold(true).Render(cluster))
	}
	return b.String()
}

// truncate shortens s to at most width terminal cells. Wide runes count
// as two cells.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if uniseg.StringWidth(s) <= width {
		return s
	}

	var b strings.Builder
	used := 0
	gr := uniseg.NewGraphemes(s)
	for gr.Next() {
		w := gr.Width()
		if used+w > width-1 {
			break
		}
		b.WriteString(gr.Str())
		used += w
	}
	b.WriteString("…")
	return b.String()
}
