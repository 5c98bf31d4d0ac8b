package queue

import (
	"context"
	"fmt"

	"github.com/billie-coop/rollcall/internal/events"
	"github.com/billie-coop/rollcall/internal/roster"
)

// Guard level names, keyed by the level number chat events carry.
var guardLevelNames = map[int]string{
	1: "总督",
	2: "提督",
	3: "舰长",
}

// GuardLevelName returns the display name for a guard level.
func GuardLevelName(level int) string {
	if name, ok := guardLevelNames[level]; ok {
		return name
	}
	return fmt.Sprintf("等级%d", level)
}

// GrantCredits appends a new roster entry for name holding count credits.
// Existing entries are never topped up; each grant is its own line.
func (e *Engine) GrantCredits(ctx context.Context, name string, count int, reason string) error {
	return e.update(ctx, func() error {
		_, err := e.grant(name, count, reason)
		return err
	})
}

// GrantGuard rewards a guard purchase: the configured credits for level,
// times months. The viewer is also written to today's new-guard file.
func (e *Engine) GrantGuard(ctx context.Context, name string, level, months int) error {
	return e.update(ctx, func() error {
		if months < 1 {
			months = 1
		}
		levelName := GuardLevelName(level)
		perMonth := e.settings.GuardRewards[levelName]
		if perMonth <= 0 {
			e.logger.Warn("no reward configured for guard level", "level", levelName, "name", name)
			return fmt.Errorf("%w: no reward for %s", ErrNotEligible, levelName)
		}

		total := perMonth * months
		reason := fmt.Sprintf("开通%d个月%s获得奖励", months, levelName)
		if _, err := e.grant(name, total, reason); err != nil {
			return err
		}

		if e.audit != nil {
			if err := e.audit.NewGuard(name, total); err != nil {
				e.logger.Warn("failed to record new guard", "name", name, "error", err)
			}
		}
		if e.settings.LogGifts {
			e.recordDeduction(name, total, reason)
		}
		return nil
	})
}

func (e *Engine) grant(name string, count int, reason string) (*roster.Entry, error) {
	if name == "" || count < 1 {
		return nil, fmt.Errorf("%w: grant of %d to %q", ErrNotEligible, count, name)
	}

	entry := &roster.Entry{
		Name:    name,
		Credits: count,
		Index:   roster.NextIndex(e.roster),
	}
	e.roster = append(e.roster, entry)
	if e.audit != nil {
		if err := e.audit.CountChange(name, 0, count, reason); err != nil {
			e.logger.Warn("failed to write count log", "name", name, "error", err)
		}
	}
	if e.settings.AutoSaveGrant {
		e.saveRoster()
	}

	e.logger.Info("credits granted", "name", name, "credits", count, "index", entry.Index, "reason", reason)
	e.publish(events.CreditsGrantedEvent, events.CreditsGrantedPayload{Name: name, Credits: count, Reason: reason})
	return entry, nil
}
