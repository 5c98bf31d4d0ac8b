package livechat

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/billie-coop/rollcall/internal/config"
)

var errRefused = errors.New("refused")

type call struct {
	Op     string
	Name   string
	Level  int
	Months int
}

type fakeEngine struct {
	calls []call
	err   error
}

func (f *fakeEngine) RequestNormalAdmission(_ context.Context, name string) error {
	f.calls = append(f.calls, call{Op: "queue", Name: name})
	return f.err
}

func (f *fakeEngine) RequestCutlineAdmission(_ context.Context, name string) error {
	f.calls = append(f.calls, call{Op: "cutline", Name: name})
	return f.err
}

func (f *fakeEngine) RequestBoarding(_ context.Context, name string, manual bool) error {
	if manual {
		f.calls = append(f.calls, call{Op: "boarding-manual", Name: name})
		return f.err
	}
	f.calls = append(f.calls, call{Op: "boarding", Name: name})
	return f.err
}

func (f *fakeEngine) GrantGuard(_ context.Context, name string, level, months int) error {
	f.calls = append(f.calls, call{Op: "guard", Name: name, Level: level, Months: months})
	return f.err
}

var keywords = config.KeywordConfig{Queue: "排队", Cutline: "插队", Boarding: "上车"}

func newTestRouter(engine Engine) *Router {
	return NewRouter(engine, keywords,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithRejections(errRefused),
	)
}

func TestRouterHandle(t *testing.T) {
	tests := []struct {
		name       string
		event      Event
		wantAction Action
		wantCalls  []call
	}{
		{
			name:       "queue_keyword",
			event:      Danmaku{User: "赵四", Message: "主播我要排队"},
			wantAction: ActionQueue,
			wantCalls:  []call{{Op: "queue", Name: "赵四"}},
		},
		{
			name:       "cutline_keyword",
			event:      Danmaku{User: "钱五", Message: "插队！"},
			wantAction: ActionCutline,
			wantCalls:  []call{{Op: "cutline", Name: "钱五"}},
		},
		{
			name:       "boarding_keyword",
			event:      Danmaku{User: "孙六", Message: "上车上车"},
			wantAction: ActionBoarding,
			wantCalls:  []call{{Op: "boarding", Name: "孙六"}},
		},
		{
			name:       "queue_wins_over_cutline",
			event:      Danmaku{User: "李七", Message: "排队还是插队"},
			wantAction: ActionQueue,
			wantCalls:  []call{{Op: "queue", Name: "李七"}},
		},
		{
			name:       "no_keyword",
			event:      Danmaku{User: "周八", Message: "晚上好"},
			wantAction: ActionNone,
		},
		{
			name:       "guard",
			event:      Guard{User: "吴九", Level: 3, Months: 2},
			wantAction: ActionGuard,
			wantCalls:  []call{{Op: "guard", Name: "吴九", Level: 3, Months: 2}},
		},
		{
			name:       "guard_without_level",
			event:      Guard{User: "吴九", Level: 0, Months: 1},
			wantAction: ActionNone,
		},
		{
			name:       "gift_logged_only",
			event:      Gift{User: "郑十", GiftName: "辣条", Num: 5},
			wantAction: ActionNone,
		},
		{
			name:       "super_chat_logged_only",
			event:      SuperChat{User: "郑十", Message: "排队", Price: 30},
			wantAction: ActionNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &fakeEngine{}
			r := newTestRouter(engine)

			action, err := r.Handle(context.Background(), tt.event)
			if err != nil {
				t.Fatalf("Handle: %v", err)
			}
			if action != tt.wantAction {
				t.Errorf("action = %q, want %q", action, tt.wantAction)
			}
			if !reflect.DeepEqual(engine.calls, tt.wantCalls) {
				t.Errorf("calls = %+v, want %+v", engine.calls, tt.wantCalls)
			}
		})
	}
}

func TestRouterRefusalIsNotAnError(t *testing.T) {
	engine := &fakeEngine{err: errRefused}
	r := newTestRouter(engine)

	action, err := r.Handle(context.Background(), Danmaku{User: "赵四", Message: "排队"})
	if err != nil {
		t.Fatalf("refusal returned error: %v", err)
	}
	if action != ActionNone {
		t.Errorf("action = %q, want none", action)
	}
}

func TestRouterEngineFailure(t *testing.T) {
	boom := errors.New("boom")
	engine := &fakeEngine{err: boom}
	r := newTestRouter(engine)

	_, err := r.Handle(context.Background(), Danmaku{User: "赵四", Message: "插队"})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped boom", err)
	}
}

func TestRouterSetKeywords(t *testing.T) {
	engine := &fakeEngine{}
	r := newTestRouter(engine)
	r.SetKeywords(config.KeywordConfig{Queue: "queue"})

	if action, _ := r.Handle(context.Background(), Danmaku{User: "a", Message: "排队"}); action != ActionNone {
		t.Errorf("old keyword still matched: %q", action)
	}
	if action, _ := r.Handle(context.Background(), Danmaku{User: "a", Message: "queue pls"}); action != ActionQueue {
		t.Errorf("new keyword action = %q, want queue", action)
	}
	if action, _ := r.Handle(context.Background(), Danmaku{User: "a", Message: "上车"}); action != ActionNone {
		t.Errorf("empty keyword matched: %q", action)
	}
}
