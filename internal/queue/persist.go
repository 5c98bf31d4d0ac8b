package queue

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/google/uuid"

	"github.com/billie-coop/rollcall/internal/roster"
	"github.com/billie-coop/rollcall/internal/state"
)

// Restore loads the engine's data before Run starts. A saved snapshot is
// preferred, roster included. The roster file is re-read over it only when
// the file changed after the engine last read or wrote it, so edits made
// while the engine was down are picked up and unsaved grants are not lost.
// Without a snapshot the roster file is loaded plain. A corrupt snapshot
// counts as no snapshot.
func (e *Engine) Restore() error {
	if e.store != nil {
		snap, ok, err := e.store.Load()
		if err != nil {
			e.logger.Warn("state snapshot unreadable, starting cold", "path", e.store.Path(), "error", err)
		}
		if ok {
			e.applyState(snap)
			e.logger.Info("state restored", "entries", len(e.roster),
				"queued", len(e.normal), "cutline", len(e.cutline), "boarded", len(e.boarding))

			if e.settings.RosterPath == "" {
				return nil
			}
			if e.rosterUnchangedSince(snap.Roster) {
				e.logger.Info("roster file unchanged since snapshot, keeping snapshot roster",
					"path", e.settings.RosterPath)
				return nil
			}
			if err := e.reload(true); err != nil {
				if errors.Is(err, roster.ErrRosterFileMissing) {
					e.logger.Warn("roster file missing, keeping snapshot roster", "path", e.settings.RosterPath)
					return nil
				}
				return err
			}
			return nil
		}
	}

	if e.settings.RosterPath == "" {
		return fmt.Errorf("%w: no roster path configured", ErrRosterFileMissing)
	}
	entries, perrs, err := roster.Load(e.settings.RosterPath)
	if err != nil {
		return err
	}
	for _, pe := range perrs {
		e.logger.Warn("skipped roster line", "line", pe.Line, "text", pe.Text, "reason", pe.Reason)
	}
	e.roster = entries
	e.lastWrite = stampOf(e.settings.RosterPath)
	e.logger.Info("roster loaded", "path", e.settings.RosterPath, "entries", len(entries), "skipped", len(perrs))
	return nil
}

// rosterUnchangedSince reports whether the configured roster file is the
// one recorded in saved. On a match lastWrite is taken over from it.
func (e *Engine) rosterUnchangedSince(saved *state.RosterStamp) bool {
	if saved == nil || saved.Path != e.settings.RosterPath {
		return false
	}
	cur := stampOf(saved.Path)
	if cur.modTime.IsZero() || !cur.modTime.Equal(saved.ModTime) || cur.size != saved.Size {
		return false
	}
	e.lastWrite = cur
	return true
}

// saveState writes the snapshot. Failure is logged and left for the next
// mutating command to retry.
func (e *Engine) saveState() {
	if e.store == nil {
		return
	}
	if err := e.store.Set(e.captureState()); err != nil {
		e.logger.Warn("failed to save state", "path", e.store.Path(), "error", err)
		e.reportError("save state", err)
	}
}

func (e *Engine) captureState() *state.EngineState {
	return &state.EngineState{
		QueueStarted:    e.started[Normal],
		BoardingStarted: e.started[Boarding],
		CutlineStarted:  e.started[Cutline],

		UserQueued:  sortedNames(e.queuedNames),
		UserBoarded: sortedNames(e.boardedNames),
		UserCutline: sortedNames(e.cutlineNames),

		QueueList:    ticketRecords(e.normal),
		CutlineList:  ticketRecords(e.cutline),
		BoardingList: ticketRecords(e.boarding),
		NameList:     entryRecords(e.roster),

		RecentWinners: e.selector.Ring().Names(),
		Promoted:      slices.Clone(e.promoted),
		Roster:        e.rosterStamp(),
	}
}

func (e *Engine) rosterStamp() *state.RosterStamp {
	if e.settings.RosterPath == "" || e.lastWrite.modTime.IsZero() {
		return nil
	}
	return &state.RosterStamp{
		Path:    e.settings.RosterPath,
		ModTime: e.lastWrite.modTime,
		Size:    e.lastWrite.size,
	}
}

func sortedNames(set map[string]bool) []string {
	return slices.Sorted(maps.Keys(set))
}

func entryRecords(entries []*roster.Entry) []state.ItemRecord {
	out := make([]state.ItemRecord, 0, len(entries))
	for _, en := range entries {
		out = append(out, state.ItemRecord{
			Name:       en.Name,
			Count:      en.Credits,
			Index:      en.Index,
			InQueue:    en.InQueue,
			InBoarding: en.InBoarding,
		})
	}
	return out
}

func ticketRecords(tickets []*ticket) []state.ItemRecord {
	out := make([]state.ItemRecord, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, state.ItemRecord{
			ID:         t.id,
			Name:       t.owner(),
			Count:      t.entry.Credits,
			Index:      t.index(),
			IsCutline:  t.priority,
			InQueue:    t.entry.InQueue,
			InBoarding: t.entry.InBoarding,
		})
	}
	return out
}

// applyState rebuilds the engine from a snapshot. Tickets are bound to
// roster entries by index; a ticket whose entry is missing is dropped.
func (e *Engine) applyState(s *state.EngineState) {
	e.started[Normal] = s.QueueStarted
	e.started[Boarding] = s.BoardingStarted
	e.started[Cutline] = s.CutlineStarted

	e.roster = make([]*roster.Entry, 0, len(s.NameList))
	byIndex := make(map[int]*roster.Entry, len(s.NameList))
	for _, r := range s.NameList {
		en := &roster.Entry{
			Name:       r.Name,
			Credits:    r.Count,
			Index:      r.Index,
			InQueue:    r.InQueue,
			InBoarding: r.InBoarding,
		}
		e.roster = append(e.roster, en)
		byIndex[en.Index] = en
	}

	bindAll := func(records []state.ItemRecord, kind Kind) []*ticket {
		var out []*ticket
		for _, r := range records {
			en := byIndex[r.Index]
			if en == nil || en.Name != r.Name {
				e.logger.Error("snapshot ticket has no roster entry, dropping it",
					"queue", kind, "name", r.Name, "index", r.Index)
				continue
			}
			id := r.ID
			if id == "" {
				id = uuid.NewString()
			}
			out = append(out, &ticket{id: id, priority: r.IsCutline, entry: en})
		}
		return out
	}
	e.normal = bindAll(s.QueueList, Normal)
	e.cutline = bindAll(s.CutlineList, Cutline)
	e.boarding = bindAll(s.BoardingList, Boarding)

	e.queuedNames = nameSet(s.UserQueued)
	e.cutlineNames = nameSet(s.UserCutline)
	e.boardedNames = nameSet(s.UserBoarded)
	// Older snapshots only carry user_boarded; rebuild boarding tickets
	// from the roster flags.
	if len(s.BoardingList) == 0 {
		for _, en := range e.roster {
			if en.InBoarding && e.boardedNames[en.Name] && findOwner(e.boarding, en.Name) < 0 {
				e.boarding = append(e.boarding, newTicket(en, false))
			}
		}
	}

	ring := e.selector.Ring()
	ring.Reset()
	ring.Push(s.RecentWinners...)

	e.promoted = nil
	for _, id := range s.Promoted {
		if findTicket(e.normal, id) >= 0 {
			e.promoted = append(e.promoted, id)
		}
	}
	e.sortNormal()
}

func nameSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}
