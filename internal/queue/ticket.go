package queue

import (
	"github.com/google/uuid"

	"github.com/billie-coop/rollcall/internal/roster"
)

// Kind selects one of the three sub-queues.
type Kind int

const (
	Normal Kind = iota
	Cutline
	Boarding
)

func (k Kind) String() string {
	switch k {
	case Normal:
		return "normal"
	case Cutline:
		return "cutline"
	case Boarding:
		return "boarding"
	default:
		return "unknown"
	}
}

// ticket is one occupant of a sub-queue. It points at the live roster
// entry it spends from, so debits and reloads act on current data.
type ticket struct {
	id       string
	priority bool
	entry    *roster.Entry
}

func newTicket(entry *roster.Entry, priority bool) *ticket {
	return &ticket{
		id:       uuid.NewString(),
		priority: priority,
		entry:    entry,
	}
}

func (t *ticket) owner() string { return t.entry.Name }
func (t *ticket) index() int    { return t.entry.Index }

// Ticket is the read-only view of a ticket handed out in snapshots.
type Ticket struct {
	ID       string
	Name     string
	Index    int
	Credits  int
	Priority bool
	// Drawn is set for tickets promoted by a random draw.
	Drawn bool
}

func (t *ticket) view(drawn bool) Ticket {
	return Ticket{
		ID:       t.id,
		Name:     t.owner(),
		Index:    t.index(),
		Credits:  t.entry.Credits,
		Priority: t.priority,
		Drawn:    drawn,
	}
}
