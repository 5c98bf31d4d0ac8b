package livechat

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrUnknownEvent is returned for records whose type is not recognized.
var ErrUnknownEvent = errors.New("unknown chat event")

// Record type tags in captured event files.
const (
	TypeDanmaku   = "danmaku"
	TypeGift      = "gift"
	TypeGuard     = "guard"
	TypeSuperChat = "super_chat"
)

// record is the on-disk shape of one event line.
type record struct {
	Type       string  `json:"type"`
	Username   string  `json:"username"`
	UID        int64   `json:"uid"`
	Message    string  `json:"message"`
	GiftName   string  `json:"gift_name"`
	Num        int     `json:"num"`
	GuardLevel int     `json:"guard_level"`
	Price      float64 `json:"price"`
}

// Decode parses one JSON line into an Event.
func Decode(line []byte) (Event, error) {
	var rec record
	if err := json.Unmarshal(line, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode chat event: %w", err)
	}
	if rec.Username == "" {
		return nil, fmt.Errorf("chat event %q has no username", rec.Type)
	}

	switch rec.Type {
	case TypeDanmaku:
		return Danmaku{User: rec.Username, UID: rec.UID, Message: rec.Message}, nil
	case TypeGift:
		return Gift{User: rec.Username, UID: rec.UID, GiftName: rec.GiftName, Num: rec.Num}, nil
	case TypeGuard:
		months := rec.Num
		if months < 1 {
			months = 1
		}
		return Guard{User: rec.Username, UID: rec.UID, Level: rec.GuardLevel, Months: months}, nil
	case TypeSuperChat:
		return SuperChat{User: rec.Username, UID: rec.UID, Message: rec.Message, Price: rec.Price}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, rec.Type)
	}
}

// LineError is a line ReadAll could not decode.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// ReadAll decodes r line by line and calls fn for every event. Blank
// lines are skipped. Undecodable lines are collected and returned after
// the stream ends; an error from fn or ctx stops the read.
func ReadAll(ctx context.Context, r io.Reader, fn func(Event) error) ([]*LineError, error) {
	var bad []*LineError

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return bad, err
		}

		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		ev, err := Decode([]byte(text))
		if err != nil {
			bad = append(bad, &LineError{Line: line, Err: err})
			continue
		}
		if err := fn(ev); err != nil {
			return bad, err
		}
	}
	if err := scanner.Err(); err != nil {
		return bad, fmt.Errorf("failed to read chat events: %w", err)
	}
	return bad, nil
}
