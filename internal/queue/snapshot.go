package queue

import (
	"context"
	"slices"

	"github.com/billie-coop/rollcall/internal/roster"
)

// Snapshot is a detached copy of the engine's state for display.
type Snapshot struct {
	RosterPath string
	Roster     []roster.Entry
	Normal     []Ticket
	Cutline    []Ticket
	Boarding   []Ticket

	RecentWinners []string

	NormalStarted   bool
	CutlineStarted  bool
	BoardingStarted bool

	Status Status
}

// Status is a count summary of the engine.
type Status struct {
	Total     int // roster entries
	Available int // entries with credits left
	Queued    int
	Cutline   int
	Boarded   int
}

// Snapshot returns a deep copy of the current state.
func (e *Engine) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := e.view(ctx, func() error {
		snap = e.snapshot()
		return nil
	})
	return snap, err
}

// Status returns the current counts.
func (e *Engine) Status(ctx context.Context) (Status, error) {
	var st Status
	err := e.view(ctx, func() error {
		st = e.status()
		return nil
	})
	return st, err
}

func (e *Engine) snapshot() Snapshot {
	snap := Snapshot{
		RosterPath:      e.settings.RosterPath,
		Roster:          make([]roster.Entry, 0, len(e.roster)),
		Normal:          make([]Ticket, 0, len(e.normal)),
		Cutline:         make([]Ticket, 0, len(e.cutline)),
		Boarding:        make([]Ticket, 0, len(e.boarding)),
		RecentWinners:   e.selector.Ring().Names(),
		NormalStarted:   e.started[Normal],
		CutlineStarted:  e.started[Cutline],
		BoardingStarted: e.started[Boarding],
		Status:          e.status(),
	}
	for _, en := range e.roster {
		snap.Roster = append(snap.Roster, en.Clone())
	}
	for _, t := range e.normal {
		snap.Normal = append(snap.Normal, t.view(slices.Contains(e.promoted, t.id)))
	}
	for _, t := range e.cutline {
		snap.Cutline = append(snap.Cutline, t.view(false))
	}
	for _, t := range e.boarding {
		snap.Boarding = append(snap.Boarding, t.view(false))
	}
	return snap
}

func (e *Engine) status() Status {
	st := Status{
		Total:   len(e.roster),
		Queued:  len(e.normal),
		Cutline: len(e.cutline),
		Boarded: len(e.boarding),
	}
	for _, en := range e.roster {
		if en.Usable() {
			st.Available++
		}
	}
	return st
}
