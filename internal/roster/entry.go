package roster

import "fmt"

// Entry is one line of the roster: a viewer name and the credits that line
// still holds. Queue tickets keep a pointer to the Entry they spend from,
// so debits mutate the live value.
type Entry struct {
	Name    string
	Credits int
	// Index is the 1-based line ordinal, or len(roster)+1 for entries
	// granted while running. Unique within one load cycle.
	Index int

	InQueue    bool
	InBoarding bool
}

// Usable reports whether the entry still has credits to spend.
func (e *Entry) Usable() bool {
	return e.Credits > 0
}

// Clone returns a detached copy, used for snapshots.
func (e *Entry) Clone() Entry {
	return *e
}

func (e *Entry) String() string {
	return fmt.Sprintf("%s (序号:%d, 次数:%d)", e.Name, e.Index, e.Credits)
}

// NextIndex returns the index a newly granted entry receives. Skipped
// lines leave gaps, so this is one past the highest index in use rather
// than len(entries)+1.
func NextIndex(entries []*Entry) int {
	next := len(entries) + 1
	for _, e := range entries {
		if e.Index >= next {
			next = e.Index + 1
		}
	}
	return next
}
