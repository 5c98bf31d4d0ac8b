package queue

import (
	"context"
	"fmt"
	"slices"

	"github.com/billie-coop/rollcall/internal/credit"
	"github.com/billie-coop/rollcall/internal/draw"
	"github.com/billie-coop/rollcall/internal/events"
	"github.com/billie-coop/rollcall/internal/roster"
)

// CompleteNormal serves the normal ticket id and debits its entry:
// NormalCost, or CutlineCost across the viewer's lines for a priority
// ticket. The viewer stays admitted until the queue restarts. A debit
// that cannot be covered is refused and the ticket stays queued.
func (e *Engine) CompleteNormal(ctx context.Context, id string) error {
	return e.update(ctx, func() error {
		i := findTicket(e.normal, id)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrTicketNotFound, id)
		}
		t := e.normal[i]

		var (
			changes []credit.Change
			cost    int
			err     error
		)
		if t.priority {
			cost = e.settings.CutlineCost
			changes, err = credit.Debit(e.roster, t.owner(), cost, t.entry)
		} else {
			cost = e.settings.NormalCost
			var c credit.Change
			c, err = credit.DebitEntry(t.entry, cost)
			changes = []credit.Change{c}
		}
		if err != nil {
			return err
		}

		t.entry.InQueue = false
		e.normal = slices.Delete(e.normal, i, i+1)
		e.unpromote(t.id)

		reason := "完成排队（正常排队）"
		if t.priority {
			reason = "完成排队（插队）"
		}
		e.recordChanges(changes, reason)
		e.recordDeduction(t.owner(), cost, "完成排队")
		e.saveRoster()

		e.logger.Info("queue ticket completed", "name", t.owner(), "index", t.index(), "cost", cost)
		e.queueChanged(Normal, "complete", t.owner())
		return nil
	})
}

// CancelNormal withdraws the normal ticket id without spending anything.
// The viewer may queue again.
func (e *Engine) CancelNormal(ctx context.Context, id string) error {
	return e.update(ctx, func() error {
		i := findTicket(e.normal, id)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrTicketNotFound, id)
		}
		t := e.normal[i]

		t.entry.InQueue = false
		e.normal = slices.Delete(e.normal, i, i+1)
		e.unpromote(t.id)
		delete(e.queuedNames, t.owner())

		e.logger.Info("queue ticket cancelled", "name", t.owner(), "index", t.index())
		e.queueChanged(Normal, "cancel", t.owner())
		return nil
	})
}

// CompleteCutline serves name's priority ticket. CutlineCost is resolved
// against the roster as it is now, most recent line first. Lines held by a
// normal ticket are not spent, including the one the placeholder points
// at, so a concurrent normal ticket can still be completed.
func (e *Engine) CompleteCutline(ctx context.Context, name string) error {
	return e.update(ctx, func() error {
		i := findOwner(e.cutline, name)
		if i < 0 {
			return fmt.Errorf("%w: %s not in cutline", ErrTicketNotFound, name)
		}

		cost := e.settings.CutlineCost
		changes, err := credit.Debit(e.roster, name, cost, nil)
		if err != nil {
			return err
		}

		e.cutline = slices.Delete(e.cutline, i, i+1)
		delete(e.cutlineNames, name)

		e.recordChanges(changes, "完成插队")
		e.recordDeduction(name, cost, "完成插队")
		e.saveRoster()

		e.logger.Info("cutline completed", "name", name, "cost", cost, "entries", len(changes))
		e.queueChanged(Cutline, "complete", name)
		return nil
	})
}

// CancelCutline removes name's priority ticket without a debit.
func (e *Engine) CancelCutline(ctx context.Context, name string) error {
	return e.update(ctx, func() error {
		i := findOwner(e.cutline, name)
		if i < 0 {
			return fmt.Errorf("%w: %s not in cutline", ErrTicketNotFound, name)
		}
		e.cutline = slices.Delete(e.cutline, i, i+1)
		delete(e.cutlineNames, name)

		e.logger.Info("cutline cancelled", "name", name)
		e.queueChanged(Cutline, "cancel", name)
		return nil
	})
}

// CompleteBoarding serves a boarded viewer and debits NormalCost from the
// entry they boarded on, topping up from their other lines if that entry
// was spent meanwhile.
func (e *Engine) CompleteBoarding(ctx context.Context, name string) error {
	return e.update(ctx, func() error {
		i := findOwner(e.boarding, name)
		if i < 0 {
			return fmt.Errorf("%w: %s not boarded", ErrTicketNotFound, name)
		}
		t := e.boarding[i]

		cost := e.settings.NormalCost
		var changes []credit.Change
		if t.entry.Credits >= cost {
			c, err := credit.DebitEntry(t.entry, cost)
			if err != nil {
				return err
			}
			changes = []credit.Change{c}
		} else {
			var err error
			changes, err = credit.Debit(e.roster, name, cost, t.entry)
			if err != nil {
				return err
			}
		}

		t.entry.InBoarding = false
		e.boarding = slices.Delete(e.boarding, i, i+1)
		delete(e.boardedNames, name)

		e.recordChanges(changes, "完成上车")
		e.recordDeduction(name, cost, "完成上车")
		e.saveRoster()

		e.logger.Info("boarding completed", "name", name, "index", t.index())
		e.queueChanged(Boarding, "complete", name)
		return nil
	})
}

// DeleteBoarding removes a boarded viewer without a debit.
func (e *Engine) DeleteBoarding(ctx context.Context, name string) error {
	return e.update(ctx, func() error {
		i := findOwner(e.boarding, name)
		if i < 0 {
			return fmt.Errorf("%w: %s not boarded", ErrTicketNotFound, name)
		}
		e.boarding[i].entry.InBoarding = false
		e.boarding = slices.Delete(e.boarding, i, i+1)
		delete(e.boardedNames, name)

		e.logger.Info("boarding deleted", "name", name)
		e.queueChanged(Boarding, "cancel", name)
		return nil
	})
}

// ClearQueues drops every normal ticket and the whole boarding list
// without debits. The cutline queue is left alone.
func (e *Engine) ClearQueues(ctx context.Context) error {
	return e.update(ctx, func() error {
		for _, t := range e.normal {
			t.entry.InQueue = false
		}
		for _, t := range e.boarding {
			t.entry.InBoarding = false
		}
		e.normal = nil
		e.boarding = nil
		e.promoted = nil
		e.queuedNames = make(map[string]bool)
		e.boardedNames = make(map[string]bool)

		e.logger.Info("queues cleared")
		e.queueChanged(Normal, "clear", "")
		e.queueChanged(Boarding, "clear", "")
		return nil
	})
}

// DrawRandom picks k normal-queue tickets at random, skipping recent
// winners and boarded viewers, and moves them to the front of the queue.
// It returns the winners' names.
func (e *Engine) DrawRandom(ctx context.Context, k int) ([]string, error) {
	var names []string
	err := e.update(ctx, func() error {
		pool := make([]draw.Candidate, len(e.normal))
		for i, t := range e.normal {
			pool[i] = draw.Candidate{Position: i, Name: t.owner()}
		}

		winners, err := e.selector.Select(pool, k, e.boardedNames)
		if err != nil {
			e.logger.Warn("draw refused", "requested", k, "queue", len(e.normal), "error", err)
			return err
		}

		// Winners keep their queue order among themselves and go ahead of
		// earlier draws.
		slices.SortFunc(winners, func(a, b draw.Candidate) int { return a.Position - b.Position })
		ids := make([]string, 0, len(winners))
		for _, w := range winners {
			ids = append(ids, e.normal[w.Position].id)
			names = append(names, w.Name)
		}
		for _, id := range ids {
			e.unpromote(id)
		}
		e.promoted = append(ids, e.promoted...)
		e.sortNormal()

		e.logger.Info("random draw", "winners", names, "recent", e.selector.Ring().Names())
		e.publish(events.DrawCompletedEvent, events.DrawCompletedPayload{Winners: names})
		e.queueChanged(Normal, "draw", "")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}

func (e *Engine) unpromote(id string) {
	if i := slices.Index(e.promoted, id); i >= 0 {
		e.promoted = slices.Delete(e.promoted, i, i+1)
	}
}

func findTicket(tickets []*ticket, id string) int {
	return slices.IndexFunc(tickets, func(t *ticket) bool { return t.id == id })
}

func findOwner(tickets []*ticket, name string) int {
	return slices.IndexFunc(tickets, func(t *ticket) bool { return t.owner() == name })
}

// recordChanges writes one count-log line per changed entry.
func (e *Engine) recordChanges(changes []credit.Change, reason string) {
	if e.audit == nil {
		return
	}
	for _, c := range changes {
		if err := e.audit.CountChange(c.Entry.Name, c.Old, c.New, reason); err != nil {
			e.logger.Warn("failed to write count log", "name", c.Entry.Name, "error", err)
		}
	}
}

func (e *Engine) recordDeduction(name string, n int, reason string) {
	if e.audit == nil {
		return
	}
	if err := e.audit.Deduction(name, n, reason); err != nil {
		e.logger.Warn("failed to write deduction log", "name", name, "error", err)
	}
}

// saveRoster writes the roster file now. A failure is logged and
// published; the in-memory debit stands and the next save retries.
func (e *Engine) saveRoster() {
	path := e.settings.RosterPath
	if path == "" {
		return
	}
	opts := roster.SaveOptions{KeepZero: e.settings.KeepZeroCredit}
	if err := roster.Save(path, e.roster, opts); err != nil {
		e.logger.Error("failed to save roster", "path", path, "error", err)
		e.reportError("save roster", err)
		return
	}
	e.lastWrite = stampOf(path)
	e.publish(events.RosterSavedEvent, nil)
}
