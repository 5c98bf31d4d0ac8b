package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/v2/textinput"
	tea "github.com/charmbracelet/bubbletea/v2"
)

// prompt is the operator command line opened with ":".
type prompt struct {
	input textinput.Model
	shown bool
}

func newPrompt() *prompt {
	ti := textinput.New()
	ti.Prompt = ":"
	ti.Placeholder = "add 名字 · cut 序号 · board 名字 · grant 名字 次数 · draw 数量 · roster 路径"
	ti.CharLimit = 256
	return &prompt{input: ti}
}

func (p *prompt) active() bool { return p.shown }

func (p *prompt) open() tea.Cmd {
	p.shown = true
	p.input.Reset()
	return p.input.Focus()
}

func (p *prompt) close() {
	p.shown = false
	p.input.Blur()
	p.input.Reset()
}

// update feeds a key to the input. On enter it closes and returns the
// entered line with done set; esc closes with an empty line.
func (p *prompt) update(msg tea.KeyPressMsg) (string, bool, tea.Cmd) {
	switch msg.String() {
	case "enter":
		line := strings.TrimSpace(p.input.Value())
		p.close()
		return line, true, nil
	case "esc", "ctrl+c":
		p.close()
		return "", true, nil
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return "", false, cmd
}

func (p *prompt) view() string {
	return p.input.View()
}

// execute parses one operator command and issues it.
func (m *Model) execute(line string) tea.Cmd {
	verb, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	args := strings.Fields(rest)

	usage := func(format string) tea.Cmd {
		return m.status.show("用法: "+format, statusWarning)
	}

	switch verb {
	case "add":
		if rest == "" {
			return usage("add 名字")
		}
		return m.run(rest+" 已加入排队", func(ctx context.Context) error {
			return m.engine.AddNormalManual(ctx, rest)
		})

	case "cut":
		index, err := strconv.Atoi(rest)
		if err != nil {
			return usage("cut 序号")
		}
		return m.run(fmt.Sprintf("序号 %d 已插队", index), func(ctx context.Context) error {
			return m.engine.InsertCutlineManual(ctx, index)
		})

	case "board":
		if rest == "" {
			return usage("board 名字")
		}
		return m.run(rest+" 已上车", func(ctx context.Context) error {
			return m.engine.RequestBoarding(ctx, rest, true)
		})

	case "grant":
		if len(args) < 2 {
			return usage("grant 名字 次数")
		}
		count, err := strconv.Atoi(args[len(args)-1])
		if err != nil || count < 1 {
			return usage("grant 名字 次数")
		}
		name := strings.TrimSpace(strings.TrimSuffix(rest, args[len(args)-1]))
		return m.run(fmt.Sprintf("%s 增加 %d 次", name, count), func(ctx context.Context) error {
			return m.engine.GrantCredits(ctx, name, count, "手动添加")
		})

	case "draw":
		n, err := strconv.Atoi(rest)
		if err != nil || n < 1 {
			return usage("draw 数量")
		}
		m.drawCount = n
		return m.draw()

	case "roster":
		if rest == "" {
			return usage("roster 路径")
		}
		save := m.saveRosterPath
		return m.run("名单已切换到 "+rest, func(ctx context.Context) error {
			if err := m.engine.SetRosterPath(ctx, rest); err != nil {
				return err
			}
			if save != nil {
				return save(rest)
			}
			return nil
		})

	default:
		return m.status.show("未知命令: "+verb, statusWarning)
	}
}
