package livechat

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Event
		wantErr error
	}{
		{
			name:  "danmaku",
			input: `{"type":"danmaku","username":"赵四","uid":42,"message":"排队"}`,
			want:  Danmaku{User: "赵四", UID: 42, Message: "排队"},
		},
		{
			name:  "gift",
			input: `{"type":"gift","username":"钱五","gift_name":"辣条","num":3}`,
			want:  Gift{User: "钱五", GiftName: "辣条", Num: 3},
		},
		{
			name:  "guard",
			input: `{"type":"guard","username":"孙六","guard_level":3,"num":2}`,
			want:  Guard{User: "孙六", Level: 3, Months: 2},
		},
		{
			name:  "guard_defaults_one_month",
			input: `{"type":"guard","username":"孙六","guard_level":2}`,
			want:  Guard{User: "孙六", Level: 2, Months: 1},
		},
		{
			name:  "super_chat",
			input: `{"type":"super_chat","username":"李七","message":"hi","price":30}`,
			want:  SuperChat{User: "李七", Message: "hi", Price: 30},
		},
		{
			name:    "unknown_type",
			input:   `{"type":"like","username":"周八"}`,
			wantErr: ErrUnknownEvent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.input))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Decode() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestDecodeRejectsBadInput(t *testing.T) {
	for _, input := range []string{`not json`, `{"type":"danmaku","message":"排队"}`} {
		if _, err := Decode([]byte(input)); err == nil {
			t.Errorf("Decode(%q) succeeded, want error", input)
		}
	}
}

func TestReadAll(t *testing.T) {
	input := strings.Join([]string{
		`{"type":"danmaku","username":"赵四","message":"排队"}`,
		``,
		`garbage`,
		`{"type":"guard","username":"孙六","guard_level":3,"num":1}`,
	}, "\n")

	var got []Event
	bad, err := ReadAll(context.Background(), strings.NewReader(input), func(ev Event) error {
		got = append(got, ev)
		return nil
	})
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}

	want := []Event{
		Danmaku{User: "赵四", Message: "排队"},
		Guard{User: "孙六", Level: 3, Months: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("events = %#v, want %#v", got, want)
	}
	if len(bad) != 1 || bad[0].Line != 3 {
		t.Errorf("bad lines = %v, want line 3", bad)
	}
}

func TestReadAllStopsOnCallbackError(t *testing.T) {
	input := `{"type":"danmaku","username":"a","message":"x"}` + "\n" +
		`{"type":"danmaku","username":"b","message":"y"}`
	stop := errors.New("stop")

	calls := 0
	_, err := ReadAll(context.Background(), strings.NewReader(input), func(Event) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) {
		t.Fatalf("err = %v, want stop", err)
	}
	if calls != 1 {
		t.Errorf("callback ran %d times, want 1", calls)
	}
}

func TestReadAllHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ReadAll(ctx, strings.NewReader(`{"type":"danmaku","username":"a"}`), func(Event) error {
		t.Fatal("callback ran after cancel")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
