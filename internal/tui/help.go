package tui

import (
	"strings"

	"github.com/charmbracelet/glamour/v2"
)

const helpMarkdown = `# 操作说明

| 按键 | 作用 |
|---|---|
| tab / shift+tab | 切换排队 / 插队 / 上车 |
| ↑ ↓ | 选择 |
| enter | 完成（扣除次数） |
| x | 取消（不扣次数） |
| s | 开始 / 停止当前队列 |
| d | 随机抽取，中奖者置顶 |
| r | 重新读取名单 |
| C C | 清空排队 |
| : | 输入命令 |
| ? | 关闭帮助 |
| q | 退出 |

## 命令

| 命令 | 作用 |
|---|---|
| add 名字 | 手动加入排队 |
| cut 序号 | 按名单序号插队 |
| board 名字 | 手动上车 |
| grant 名字 次数 | 增加次数 |
| draw 数量 | 按数量抽取 |
| roster 路径 | 切换名单文件 |

## 规则

- 排队扣 **1** 次，插队扣 **2** 次，可合并同名多行的次数。
- 最近中奖的观众不参与下一次抽取。
- 名单文件被外部修改后会自动重载，排队中的观众保持原位。
`

// helpPanel renders the help text once per width.
type helpPanel struct {
	width    int
	rendered string
}

func newHelpPanel() *helpPanel {
	return &helpPanel{}
}

func (h *helpPanel) view(width int) string {
	if width <= 0 {
		width = 80
	}
	if h.rendered != "" && h.width == width {
		return h.rendered
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath("dracula"),
		glamour.WithWordWrap(width-4),
	)
	if err != nil {
		return helpMarkdown
	}
	out, err := r.Render(helpMarkdown)
	if err != nil {
		return helpMarkdown
	}

	h.width = width
	h.rendered = strings.TrimRight(out, "\n")
	return h.rendered
}
