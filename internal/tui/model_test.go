package tui

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea/v2"

	"github.com/billie-coop/rollcall/internal/events"
	"github.com/billie-coop/rollcall/internal/queue"
)

type fakeEngine struct {
	snap  queue.Snapshot
	calls []string
	err   error
}

func (f *fakeEngine) record(call string) error {
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeEngine) Snapshot(context.Context) (queue.Snapshot, error) { return f.snap, nil }
func (f *fakeEngine) Start(_ context.Context, k queue.Kind) error     { return f.record("start " + k.String()) }
func (f *fakeEngine) Stop(_ context.Context, k queue.Kind) error      { return f.record("stop " + k.String()) }
func (f *fakeEngine) CompleteNormal(_ context.Context, id string) error {
	return f.record("complete-normal " + id)
}
func (f *fakeEngine) CancelNormal(_ context.Context, id string) error {
	return f.record("cancel-normal " + id)
}
func (f *fakeEngine) CompleteCutline(_ context.Context, name string) error {
	return f.record("complete-cutline " + name)
}
func (f *fakeEngine) CancelCutline(_ context.Context, name string) error {
	return f.record("cancel-cutline " + name)
}
func (f *fakeEngine) CompleteBoarding(_ context.Context, name string) error {
	return f.record("complete-boarding " + name)
}
func (f *fakeEngine) DeleteBoarding(_ context.Context, name string) error {
	return f.record("delete-boarding " + name)
}
func (f *fakeEngine) DrawRandom(_ context.Context, k int) ([]string, error) {
	if err := f.record("draw"); err != nil {
		return nil, err
	}
	return []string{"钱五", "孙六"}[:k], nil
}
func (f *fakeEngine) ReloadRoster(context.Context) error { return f.record("reload") }
func (f *fakeEngine) ClearQueues(context.Context) error  { return f.record("clear") }
func (f *fakeEngine) AddNormalManual(_ context.Context, name string) error {
	return f.record("add " + name)
}
func (f *fakeEngine) InsertCutlineManual(_ context.Context, index int) error {
	return f.record(fmt.Sprintf("cut %d", index))
}
func (f *fakeEngine) RequestBoarding(_ context.Context, name string, manual bool) error {
	return f.record(fmt.Sprintf("board %s %t", name, manual))
}
func (f *fakeEngine) GrantCredits(_ context.Context, name string, count int, reason string) error {
	return f.record(fmt.Sprintf("grant %s %d %s", name, count, reason))
}
func (f *fakeEngine) SetRosterPath(_ context.Context, path string) error {
	return f.record("roster " + path)
}

func testSnapshot() queue.Snapshot {
	return queue.Snapshot{
		RosterPath: "名单.csv",
		Normal: []queue.Ticket{
			{ID: "t1", Name: "赵四", Index: 1, Credits: 1},
			{ID: "t2", Name: "钱五", Index: 2, Credits: 3},
		},
		Cutline:        []queue.Ticket{{ID: "c1", Name: "孙六", Index: 3, Credits: 2}},
		NormalStarted:  true,
		CutlineStarted: false,
	}
}

func newTestModel(t *testing.T) (*Model, *fakeEngine) {
	t.Helper()
	engine := &fakeEngine{snap: testSnapshot()}
	m := New(context.Background(), engine, nil, WithDrawCount(2))
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	m.Update(snapshotMsg{snap: engine.snap})
	return m, engine
}

func press(k string) tea.KeyPressMsg {
	switch k {
	case "enter":
		return tea.KeyPressMsg{Code: tea.KeyEnter}
	case "tab":
		return tea.KeyPressMsg{Code: tea.KeyTab}
	case "down":
		return tea.KeyPressMsg{Code: tea.KeyDown}
	case "esc":
		return tea.KeyPressMsg{Code: tea.KeyEscape}
	}
	r := []rune(k)[0]
	return tea.KeyPressMsg{Code: r, Text: k}
}

// send delivers a key and runs the resulting command, if any.
func send(t *testing.T, m *Model, k string) tea.Msg {
	t.Helper()
	_, cmd := m.Update(press(k))
	if cmd == nil {
		return nil
	}
	return cmd()
}

func TestKeysIssueEngineCommands(t *testing.T) {
	tests := []struct {
		name string
		keys []string
		want []string
	}{
		{name: "complete_first", keys: []string{"enter"}, want: []string{"complete-normal t1"}},
		{name: "cancel_second", keys: []string{"down", "x"}, want: []string{"cancel-normal t2"}},
		{name: "complete_cutline", keys: []string{"tab", "enter"}, want: []string{"complete-cutline 孙六"}},
		{name: "stop_running", keys: []string{"s"}, want: []string{"stop normal"}},
		{name: "start_stopped", keys: []string{"tab", "s"}, want: []string{"start cutline"}},
		{name: "empty_boarding", keys: []string{"tab", "tab", "enter"}, want: nil},
		{name: "draw", keys: []string{"d"}, want: []string{"draw"}},
		{name: "reload", keys: []string{"r"}, want: []string{"reload"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, engine := newTestModel(t)
			for _, k := range tt.keys {
				send(t, m, k)
			}
			if !reflect.DeepEqual(engine.calls, tt.want) {
				t.Errorf("calls = %v, want %v", engine.calls, tt.want)
			}
		})
	}
}

func TestClearNeedsConfirmation(t *testing.T) {
	m, engine := newTestModel(t)

	send(t, m, "C")
	if len(engine.calls) != 0 {
		t.Fatalf("first C cleared: %v", engine.calls)
	}
	if !m.confirmClear {
		t.Fatal("first C did not arm confirmation")
	}

	send(t, m, "C")
	if !reflect.DeepEqual(engine.calls, []string{"clear"}) {
		t.Errorf("calls = %v, want [clear]", engine.calls)
	}

	// Any other key disarms.
	send(t, m, "C")
	send(t, m, "down")
	send(t, m, "C")
	if len(engine.calls) != 1 {
		t.Errorf("clear ran without confirmation: %v", engine.calls)
	}
}

func TestResultShowsStatus(t *testing.T) {
	m, _ := newTestModel(t)

	m.Update(resultMsg{err: errors.New("余额不足")})
	if m.status.message == nil || m.status.message.kind != statusError {
		t.Fatalf("status = %+v, want error", m.status.message)
	}

	m.Update(resultMsg{text: "赵四 已完成"})
	if m.status.message.text != "赵四 已完成" || m.status.message.kind != statusSuccess {
		t.Errorf("status = %+v, want success", m.status.message)
	}

	at := m.status.message.at
	m.Update(clearStatusMsg{at: at})
	if m.status.message != nil {
		t.Error("status not cleared by its timer")
	}
}

func TestCursorClampsOnShrink(t *testing.T) {
	m, _ := newTestModel(t)
	send(t, m, "down")
	if m.cursor[0] != 1 {
		t.Fatalf("cursor = %d, want 1", m.cursor[0])
	}

	snap := testSnapshot()
	snap.Normal = snap.Normal[:1]
	m.Update(snapshotMsg{snap: snap})
	if m.cursor[0] != 0 {
		t.Errorf("cursor = %d after shrink, want 0", m.cursor[0])
	}
}

func TestEngineErrorEvent(t *testing.T) {
	m, _ := newTestModel(t)
	m.Update(events.Event{
		Type:    events.EngineErrorEvent,
		Payload: events.ErrorPayload{Op: "save roster", Err: errors.New("disk full")},
	})
	if m.status.message == nil || !strings.Contains(m.status.message.text, "disk full") {
		t.Errorf("status = %+v, want engine error", m.status.message)
	}
}

func TestRenderShowsQueues(t *testing.T) {
	m, _ := newTestModel(t)
	out := m.render()
	for _, want := range []string{"排队", "插队", "上车", "赵四", "钱五", "孙六", "进行中"} {
		if !strings.Contains(out, want) {
			t.Errorf("render missing %q", want)
		}
	}
}

func TestCommandLine(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{line: "add 周七", want: []string{"add 周七"}},
		{line: "add 周 七", want: []string{"add 周 七"}},
		{line: "cut 3", want: []string{"cut 3"}},
		{line: "board 吴九", want: []string{"board 吴九 true"}},
		{line: "grant 郑十 2", want: []string{"grant 郑十 2 手动添加"}},
		{line: "grant 郑 十 2", want: []string{"grant 郑 十 2 手动添加"}},
		{line: "draw 1", want: []string{"draw"}},
		{line: "roster 新名单.csv", want: []string{"roster 新名单.csv"}},
		{line: "cut three", want: nil},
		{line: "grant 郑十", want: nil},
		{line: "grant 郑十 0", want: nil},
		{line: "draw 0", want: nil},
		{line: "add", want: nil},
		{line: "launch", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			m, engine := newTestModel(t)
			cmd := m.execute(tt.line)
			// Refusals only schedule a status timeout; leave it pending.
			if tt.want != nil {
				m.Update(cmd())
			}
			if !reflect.DeepEqual(engine.calls, tt.want) {
				t.Errorf("calls = %v, want %v", engine.calls, tt.want)
			}
			if tt.want == nil && (m.status.message == nil || m.status.message.kind != statusWarning) {
				t.Errorf("status = %+v, want warning", m.status.message)
			}
		})
	}
}

func TestRosterCommandSavesPath(t *testing.T) {
	var saved string
	engine := &fakeEngine{snap: testSnapshot()}
	m := New(context.Background(), engine, nil, WithRosterPathSaver(func(path string) error {
		saved = path
		return nil
	}))

	if msg := m.execute("roster 新名单.csv")(); msg.(resultMsg).err != nil {
		t.Fatalf("roster command failed: %v", msg.(resultMsg).err)
	}
	if saved != "新名单.csv" {
		t.Errorf("saved = %q, want 新名单.csv", saved)
	}

	// A refused switch is not persisted.
	saved = ""
	engine.err = errors.New("名单文件不存在")
	if msg := m.execute("roster 旧.csv")(); msg.(resultMsg).err == nil {
		t.Fatal("expected engine error")
	}
	if saved != "" {
		t.Errorf("saved = %q after failed switch", saved)
	}
}

func TestPromptCapturesKeys(t *testing.T) {
	m, engine := newTestModel(t)

	send(t, m, ":")
	if !m.prompt.active() {
		t.Fatal("prompt not opened by :")
	}
	// Bindings are suspended while typing.
	send(t, m, "d")
	if len(engine.calls) != 0 {
		t.Errorf("key reached the engine while typing: %v", engine.calls)
	}

	send(t, m, "esc")
	if m.prompt.active() {
		t.Fatal("esc did not close the prompt")
	}
	send(t, m, "d")
	if !reflect.DeepEqual(engine.calls, []string{"draw"}) {
		t.Errorf("calls = %v, want [draw]", engine.calls)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"abc", 5, "abc"},
		{"abcdef", 4, "abc…"},
		{"赵四钱五", 5, "赵四…"},
		{"赵四", 0, ""},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}
