package queue

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/billie-coop/rollcall/internal/events"
	"github.com/billie-coop/rollcall/internal/roster"
)

// ReloadRoster re-reads the roster file while keeping every live ticket.
// A file unchanged since the engine's own last write is not re-read.
func (e *Engine) ReloadRoster(ctx context.Context) error {
	return e.update(ctx, func() error {
		return e.reload(false)
	})
}

// SetRosterPath points the engine at another roster file and loads it,
// keeping live tickets whose viewers appear in the new file.
func (e *Engine) SetRosterPath(ctx context.Context, path string) error {
	return e.update(ctx, func() error {
		if path == "" {
			return errors.New("roster path is empty")
		}
		prev := e.settings.RosterPath
		e.settings.RosterPath = path
		if err := e.reload(true); err != nil {
			e.settings.RosterPath = prev
			return err
		}
		e.logger.Info("roster path changed", "from", prev, "to", path)
		return nil
	})
}

// RosterPath returns the current roster file.
func (e *Engine) RosterPath(ctx context.Context) (string, error) {
	var path string
	err := e.view(ctx, func() error {
		path = e.settings.RosterPath
		return nil
	})
	return path, err
}

func (e *Engine) reload(force bool) error {
	path := e.settings.RosterPath
	if path == "" {
		return fmt.Errorf("%w: no roster path configured", ErrRosterFileMissing)
	}
	if !force && !e.lastWrite.modTime.IsZero() && stampOf(path) == e.lastWrite {
		e.logger.Debug("roster unchanged since own write, skipping reload", "path", path)
		return nil
	}

	result, err := roster.ReloadPreservingQueue(path, e.liveEntries())
	if err != nil {
		e.logger.Error("roster reload failed, keeping previous roster", "path", path, "error", err)
		e.reportError("reload roster", err)
		return err
	}

	for _, pe := range result.Errors {
		e.logger.Warn("skipped roster line", "line", pe.Line, "text", pe.Text, "reason", pe.Reason)
	}

	e.roster = result.Entries
	for _, t := range e.allTickets() {
		if fresh, ok := result.Rebound[t.entry]; ok {
			t.entry = fresh
		}
	}

	e.sortNormal()
	slices.SortStableFunc(e.cutline, func(a, b *ticket) int { return a.index() - b.index() })

	var orphaned []string
	for _, old := range result.Orphans {
		orphaned = append(orphaned, old.Name)
		e.logger.Error("ticket references a viewer missing from the roster, dropping it",
			"name", old.Name, "index", old.Index)
		e.dropTicketsFor(old)
	}

	e.lastWrite = stampOf(path)
	e.logger.Info("roster reloaded", "path", path, "entries", len(e.roster),
		"skipped", len(result.Errors), "orphans", len(orphaned))
	e.publish(events.RosterReloadedEvent, events.RosterReloadedPayload{
		Path:    path,
		Entries: len(e.roster),
		Orphans: orphaned,
		Skipped: len(result.Errors),
	})
	return nil
}

// liveEntries lists the entries tickets currently point at.
func (e *Engine) liveEntries() []*roster.Entry {
	tickets := e.allTickets()
	out := make([]*roster.Entry, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, t.entry)
	}
	return out
}

func (e *Engine) allTickets() []*ticket {
	return slices.Concat(e.normal, e.cutline, e.boarding)
}

// dropTicketsFor removes every ticket on a vanished entry, with no debit.
func (e *Engine) dropTicketsFor(gone *roster.Entry) {
	keep := func(list []*ticket, names map[string]bool) []*ticket {
		return slices.DeleteFunc(list, func(t *ticket) bool {
			if t.entry != gone {
				return false
			}
			delete(names, t.owner())
			e.unpromote(t.id)
			return true
		})
	}
	e.normal = keep(e.normal, e.queuedNames)
	e.cutline = keep(e.cutline, e.cutlineNames)
	e.boarding = keep(e.boarding, e.boardedNames)
}

// ApplySettings swaps in reloaded configuration. A changed roster path is
// loaded immediately. The recent-winners capacity is fixed for the
// engine's lifetime.
func (e *Engine) ApplySettings(ctx context.Context, s Settings) error {
	return e.update(ctx, func() error {
		prevPath := e.settings.RosterPath
		if s.NormalCost < 1 {
			s.NormalCost = e.settings.NormalCost
		}
		if s.CutlineCost < 1 {
			s.CutlineCost = e.settings.CutlineCost
		}
		s.StatePath = e.settings.StatePath
		e.settings = s

		if s.RosterPath != "" && s.RosterPath != prevPath {
			e.logger.Info("roster path changed by config", "from", prevPath, "to", s.RosterPath)
			if err := e.reload(true); err != nil {
				e.settings.RosterPath = prevPath
				return err
			}
		}
		return nil
	})
}
