package queue

import (
	"context"
	"fmt"
	"sort"

	"github.com/billie-coop/rollcall/internal/credit"
	"github.com/billie-coop/rollcall/internal/roster"
)

// Start opens a sub-queue. Starting the normal queue forgets who was
// admitted last round, except viewers still holding a ticket. Starting
// cutline does the same for its set. Recent winners are kept across
// restarts.
func (e *Engine) Start(ctx context.Context, k Kind) error {
	return e.update(ctx, func() error {
		e.started[k] = true
		switch k {
		case Normal:
			e.queuedNames = liveNames(e.normal)
		case Cutline:
			e.cutlineNames = liveNames(e.cutline)
		}
		e.logger.Info("sub-queue started", "queue", k)
		e.queueChanged(k, "start", "")
		return nil
	})
}

// Stop closes a sub-queue to chat requests. Tickets stay.
func (e *Engine) Stop(ctx context.Context, k Kind) error {
	return e.update(ctx, func() error {
		e.started[k] = false
		e.logger.Info("sub-queue stopped", "queue", k)
		e.queueChanged(k, "stop", "")
		return nil
	})
}

func liveNames(tickets []*ticket) map[string]bool {
	names := make(map[string]bool, len(tickets))
	for _, t := range tickets {
		names[t.owner()] = true
	}
	return names
}

// RequestNormalAdmission queues name on its lowest-index usable entry.
func (e *Engine) RequestNormalAdmission(ctx context.Context, name string) error {
	return e.update(ctx, func() error {
		if !e.started[Normal] {
			return fmt.Errorf("%w: normal", ErrNotRunning)
		}
		return e.admitNormal(name)
	})
}

// AddNormalManual is the operator's normal admission. It ignores whether
// the normal queue is running.
func (e *Engine) AddNormalManual(ctx context.Context, name string) error {
	return e.update(ctx, func() error {
		return e.admitNormal(name)
	})
}

func (e *Engine) admitNormal(name string) error {
	if e.queuedNames[name] {
		return fmt.Errorf("%w: %s in normal queue", ErrDuplicateMembership, name)
	}

	entry := e.findUsable(name, func(en *roster.Entry) bool { return !en.InQueue })
	if entry == nil {
		return fmt.Errorf("%w: %s", ErrNotEligible, name)
	}

	entry.InQueue = true
	e.normal = append(e.normal, newTicket(entry, false))
	e.queuedNames[name] = true
	e.sortNormal()

	e.logger.Info("viewer queued", "name", name, "index", entry.Index)
	e.queueChanged(Normal, "admit", name)
	return nil
}

// RequestCutlineAdmission admits name to the priority queue if all of the
// viewer's free entries together cover CutlineCost. Nothing is debited
// until completion.
func (e *Engine) RequestCutlineAdmission(ctx context.Context, name string) error {
	return e.update(ctx, func() error {
		if !e.started[Cutline] {
			return fmt.Errorf("%w: cutline", ErrNotRunning)
		}
		if e.cutlineNames[name] {
			return fmt.Errorf("%w: %s in cutline", ErrDuplicateMembership, name)
		}

		primary, err := credit.Check(e.roster, name, e.settings.CutlineCost)
		if err != nil {
			return err
		}

		e.addCutline(newTicket(primary, true))
		e.logger.Info("viewer cut the line", "name", name, "index", primary.Index)
		return nil
	})
}

// InsertCutlineManual puts the roster entry at index into the priority
// queue on the operator's behalf. If that line is short of CutlineCost the
// difference is moved over from another free line of the same viewer.
func (e *Engine) InsertCutlineManual(ctx context.Context, index int) error {
	return e.update(ctx, func() error {
		entry := e.entryAt(index)
		if entry == nil {
			return fmt.Errorf("%w: no roster entry at index %d", ErrNotEligible, index)
		}
		if e.cutlineNames[entry.Name] {
			return fmt.Errorf("%w: %s in cutline", ErrDuplicateMembership, entry.Name)
		}
		if entry.InQueue {
			return fmt.Errorf("%w: line %d is held by a queue ticket", ErrNotEligible, index)
		}

		if need := e.settings.CutlineCost - entry.Credits; need > 0 {
			source := credit.TransferSource(e.roster, entry, need)
			if source == nil {
				return fmt.Errorf("%w: %s has %d and no line to transfer %d from",
					ErrInsufficientConsolidatedCredit, entry.Name, entry.Credits, need)
			}
			changes, err := credit.Transfer(source, entry, need)
			if err != nil {
				return err
			}
			e.recordChanges(changes[:1], fmt.Sprintf("为%s插队转移次数", entry.Name))
			e.recordChanges(changes[1:], fmt.Sprintf("从%s接收插队次数", source.Name))
			e.saveRoster()
			e.logger.Info("credits transferred for cutline", "name", entry.Name,
				"from", source.Index, "to", entry.Index, "amount", need)
		}

		e.addCutline(newTicket(entry, true))
		e.logger.Info("operator inserted cutline", "name", entry.Name, "index", entry.Index)
		return nil
	})
}

func (e *Engine) addCutline(t *ticket) {
	e.cutline = append(e.cutline, t)
	e.cutlineNames[t.owner()] = true
	sort.SliceStable(e.cutline, func(i, j int) bool {
		return e.cutline[i].index() < e.cutline[j].index()
	})
	e.queueChanged(Cutline, "admit", t.owner())
}

// RequestBoarding adds name to the boarding list. manual bypasses the
// running check.
func (e *Engine) RequestBoarding(ctx context.Context, name string, manual bool) error {
	return e.update(ctx, func() error {
		if !manual && !e.started[Boarding] {
			return fmt.Errorf("%w: boarding", ErrNotRunning)
		}
		if e.boardedNames[name] {
			return fmt.Errorf("%w: %s already boarded", ErrDuplicateMembership, name)
		}

		entry := e.findUsable(name, func(en *roster.Entry) bool { return !en.InBoarding })
		if entry == nil {
			return fmt.Errorf("%w: %s", ErrNotEligible, name)
		}

		entry.InBoarding = true
		e.boarding = append(e.boarding, newTicket(entry, false))
		e.boardedNames[name] = true

		e.logger.Info("viewer boarded", "name", name, "index", entry.Index, "manual", manual)
		e.queueChanged(Boarding, "admit", name)
		return nil
	})
}

// findUsable returns name's lowest-index entry with credits that passes
// free.
func (e *Engine) findUsable(name string, free func(*roster.Entry) bool) *roster.Entry {
	var best *roster.Entry
	for _, en := range e.roster {
		if en.Name != name || !en.Usable() || !free(en) {
			continue
		}
		if best == nil || en.Index < best.Index {
			best = en
		}
	}
	return best
}

func (e *Engine) entryAt(index int) *roster.Entry {
	for _, en := range e.roster {
		if en.Index == index {
			return en
		}
	}
	return nil
}

// sortNormal orders the normal queue: drawn tickets first in promotion
// order, then everyone else by roster index.
func (e *Engine) sortNormal() {
	rank := make(map[string]int, len(e.promoted))
	for i, id := range e.promoted {
		rank[id] = i
	}
	sort.SliceStable(e.normal, func(i, j int) bool {
		ri, iDrawn := rank[e.normal[i].id]
		rj, jDrawn := rank[e.normal[j].id]
		switch {
		case iDrawn && jDrawn:
			return ri < rj
		case iDrawn != jDrawn:
			return iDrawn
		default:
			return e.normal[i].index() < e.normal[j].index()
		}
	})
}
