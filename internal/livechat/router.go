package livechat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/billie-coop/rollcall/internal/config"
)

// Engine is the subset of the queue engine the router drives.
type Engine interface {
	RequestNormalAdmission(ctx context.Context, name string) error
	RequestCutlineAdmission(ctx context.Context, name string) error
	RequestBoarding(ctx context.Context, name string, manual bool) error
	GrantGuard(ctx context.Context, name string, level, months int) error
}

// Action names what the router did with an event.
type Action string

const (
	ActionNone     Action = "none"
	ActionQueue    Action = "queue"
	ActionCutline  Action = "cutline"
	ActionBoarding Action = "boarding"
	ActionGuard    Action = "guard"
)

// Router matches chat events against the configured keywords and issues
// the corresponding engine command.
type Router struct {
	engine   Engine
	keywords atomic.Pointer[config.KeywordConfig]
	logger   *slog.Logger

	// rejected reports whether an engine error is an expected business
	// refusal (logged at debug) rather than a failure.
	rejected func(error) bool
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithLogger sets the router's logger.
func WithLogger(logger *slog.Logger) RouterOption {
	return func(r *Router) {
		r.logger = logger
	}
}

// WithRejections marks which engine errors are routine refusals.
func WithRejections(errs ...error) RouterOption {
	return func(r *Router) {
		r.rejected = func(err error) bool {
			for _, target := range errs {
				if errors.Is(err, target) {
					return true
				}
			}
			return false
		}
	}
}

// NewRouter creates a router over engine using keywords.
func NewRouter(engine Engine, keywords config.KeywordConfig, opts ...RouterOption) *Router {
	r := &Router{
		engine:   engine,
		logger:   slog.Default(),
		rejected: func(error) bool { return false },
	}
	r.keywords.Store(&keywords)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetKeywords replaces the keywords, e.g. after a config reload. Safe to
// call while events are being handled.
func (r *Router) SetKeywords(k config.KeywordConfig) {
	r.keywords.Store(&k)
}

// Handle routes one event. A refused request is not an error; the
// returned error is reserved for engine failures.
func (r *Router) Handle(ctx context.Context, ev Event) (Action, error) {
	switch ev := ev.(type) {
	case Danmaku:
		return r.handleDanmaku(ctx, ev)
	case Guard:
		if ev.Level <= 0 {
			return ActionNone, nil
		}
		r.logger.Info("guard purchase", "name", ev.User, "level", ev.Level, "months", ev.Months)
		return r.settle(ActionGuard, ev.User, r.engine.GrantGuard(ctx, ev.User, ev.Level, ev.Months))
	case Gift:
		r.logger.Debug("gift", "name", ev.User, "gift", ev.GiftName, "num", ev.Num)
		return ActionNone, nil
	case SuperChat:
		r.logger.Info("super chat", "name", ev.User, "price", ev.Price, "message", ev.Message)
		return ActionNone, nil
	default:
		return ActionNone, fmt.Errorf("%w: %T", ErrUnknownEvent, ev)
	}
}

// Keywords are checked in a fixed order; a message naming several only
// triggers the first.
func (r *Router) handleDanmaku(ctx context.Context, d Danmaku) (Action, error) {
	kw := r.keywords.Load()
	switch {
	case contains(d.Message, kw.Queue):
		return r.settle(ActionQueue, d.User, r.engine.RequestNormalAdmission(ctx, d.User))
	case contains(d.Message, kw.Cutline):
		return r.settle(ActionCutline, d.User, r.engine.RequestCutlineAdmission(ctx, d.User))
	case contains(d.Message, kw.Boarding):
		return r.settle(ActionBoarding, d.User, r.engine.RequestBoarding(ctx, d.User, false))
	}
	return ActionNone, nil
}

func (r *Router) settle(action Action, name string, err error) (Action, error) {
	switch {
	case err == nil:
		return action, nil
	case r.rejected(err):
		r.logger.Debug("chat request refused", "action", action, "name", name, "reason", err)
		return ActionNone, nil
	default:
		return ActionNone, fmt.Errorf("failed to handle %s for %s: %w", action, name, err)
	}
}

func contains(message, keyword string) bool {
	return keyword != "" && strings.Contains(message, keyword)
}
