// Package livechat turns live-room chat events into queue commands.
package livechat

import "fmt"

// Event is one chat-room event. The set of implementations is closed.
type Event interface {
	// Viewer returns the display name of the viewer who caused the event.
	Viewer() string
	isEvent()
}

// Danmaku is a plain chat message.
type Danmaku struct {
	User    string
	UID     int64
	Message string
}

// Gift is a paid gift. Gifts are logged only; they never grant credits.
type Gift struct {
	User     string
	UID      int64
	GiftName string
	Num      int
}

// Guard is a guard subscription purchase. Level 1 is the highest tier.
type Guard struct {
	User   string
	UID    int64
	Level  int
	Months int
}

// SuperChat is a highlighted paid message.
type SuperChat struct {
	User    string
	UID     int64
	Message string
	Price   float64
}

func (d Danmaku) Viewer() string   { return d.User }
func (g Gift) Viewer() string      { return g.User }
func (g Guard) Viewer() string     { return g.User }
func (s SuperChat) Viewer() string { return s.User }

func (Danmaku) isEvent()   {}
func (Gift) isEvent()      {}
func (Guard) isEvent()     {}
func (SuperChat) isEvent() {}

func (d Danmaku) String() string {
	return fmt.Sprintf("%s: %s", d.User, d.Message)
}

func (g Gift) String() string {
	return fmt.Sprintf("%s 送出 %s x%d", g.User, g.GiftName, g.Num)
}

func (g Guard) String() string {
	return fmt.Sprintf("%s 开通 %d个月 (等级%d)", g.User, g.Months, g.Level)
}

func (s SuperChat) String() string {
	return fmt.Sprintf("%s (¥%g): %s", s.User, s.Price, s.Message)
}
