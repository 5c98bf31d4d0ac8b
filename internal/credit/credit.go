// Package credit resolves credit spending across roster entries that share
// a viewer name.
//
// Same-named entries are never merged in the roster; a viewer who bought
// several rewards simply appears on several lines. Priority admissions cost
// more than any single line may hold, so the resolver treats the lines as one
// balance for checking and debits them most-recent first.
package credit

import (
	"errors"
	"fmt"
	"sort"

	"github.com/billie-coop/rollcall/internal/roster"
)

// ErrInsufficientConsolidatedCredit is returned when a viewer's usable
// entries together hold less than the requested cost.
var ErrInsufficientConsolidatedCredit = errors.New("insufficient consolidated credit")

// Change records one entry's credit movement, for the audit log.
type Change struct {
	Entry *roster.Entry
	Old   int
	New   int
}

// Delta is New minus Old.
func (c Change) Delta() int {
	return c.New - c.Old
}

// Gather returns name's entries that can be spent from: credits left and
// not held by a queue ticket. own is included even when queued, since it
// is the entry the spending ticket itself holds. The result is ordered by
// descending Index.
func Gather(entries []*roster.Entry, name string, own *roster.Entry) []*roster.Entry {
	var out []*roster.Entry
	for _, e := range entries {
		if e.Name != name || !e.Usable() {
			continue
		}
		if e.InQueue && e != own {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Index > out[j].Index
	})
	return out
}

// Total sums the credits of entries.
func Total(entries []*roster.Entry) int {
	sum := 0
	for _, e := range entries {
		sum += e.Credits
	}
	return sum
}

// Check verifies that name can cover cost without touching anything. It
// returns the most recent usable entry, which priority tickets reference.
func Check(entries []*roster.Entry, name string, cost int) (*roster.Entry, error) {
	usable := Gather(entries, name, nil)
	if len(usable) == 0 || Total(usable) < cost {
		return nil, fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientConsolidatedCredit, name, Total(usable), cost)
	}
	return usable[0], nil
}

// Debit spends cost from name's entries, most recent first. The whole
// balance is checked before any entry changes, so a refused debit leaves
// every entry as it was.
func Debit(entries []*roster.Entry, name string, cost int, own *roster.Entry) ([]Change, error) {
	usable := Gather(entries, name, own)
	if total := Total(usable); total < cost {
		return nil, fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientConsolidatedCredit, name, total, cost)
	}

	var changes []Change
	remaining := cost
	for _, e := range usable {
		if remaining <= 0 {
			break
		}
		take := min(e.Credits, remaining)
		old := e.Credits
		e.Credits -= take
		remaining -= take
		changes = append(changes, Change{Entry: e, Old: old, New: e.Credits})
	}
	return changes, nil
}

// DebitEntry spends cost from a single entry.
func DebitEntry(e *roster.Entry, cost int) (Change, error) {
	if e.Credits < cost {
		return Change{}, fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientConsolidatedCredit, e.Name, e.Credits, cost)
	}
	old := e.Credits
	e.Credits -= cost
	return Change{Entry: e, Old: old, New: e.Credits}, nil
}

// Transfer moves amount credits from one entry to another of the same
// viewer. Used when an operator inserts a priority ticket for a line that
// is short of the cost.
func Transfer(from, to *roster.Entry, amount int) ([]Change, error) {
	if from.Name != to.Name {
		return nil, fmt.Errorf("cannot transfer from %s to %s", from.Name, to.Name)
	}
	if amount <= 0 {
		return nil, nil
	}
	if from.Credits < amount {
		return nil, fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientConsolidatedCredit, from.Name, from.Credits, amount)
	}

	fromOld, toOld := from.Credits, to.Credits
	from.Credits -= amount
	to.Credits += amount
	return []Change{
		{Entry: from, Old: fromOld, New: from.Credits},
		{Entry: to, Old: toOld, New: to.Credits},
	}, nil
}

// TransferSource finds an entry that can top up target: same name,
// different line, not queued, holding at least amount credits. The lowest
// index wins.
func TransferSource(entries []*roster.Entry, target *roster.Entry, amount int) *roster.Entry {
	for _, e := range entries {
		if e == target || e.Name != target.Name || e.InQueue {
			continue
		}
		if e.Credits >= amount && e.Usable() {
			return e
		}
	}
	return nil
}
