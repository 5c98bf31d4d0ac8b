package roster

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/natefinch/atomic"
)

var (
	// ErrRosterFileMissing is returned when the roster path does not exist.
	ErrRosterFileMissing = errors.New("roster file missing")

	// ErrRosterWrite wraps any failure while saving the roster.
	ErrRosterWrite = errors.New("roster write failed")
)

const filePerms = 0o644

// SaveOptions controls which entries Save writes.
type SaveOptions struct {
	// KeepZero writes entries that have run out of credits as "name（0"
	// instead of dropping them.
	KeepZero bool
}

// Load reads a roster file. Malformed lines are skipped and returned as
// parse errors; only a missing or unreadable file fails the load.
func Load(path string) ([]*Entry, []*ParseError, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %s", ErrRosterFileMissing, path)
		}
		return nil, nil, fmt.Errorf("failed to open roster: %w", err)
	}
	defer f.Close()

	return Read(f)
}

// Read parses roster lines from r.
func Read(r io.Reader) ([]*Entry, []*ParseError, error) {
	var (
		entries []*Entry
		errs    []*ParseError
	)

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if line == 1 {
			text = strings.TrimPrefix(text, "\ufeff")
		}

		name, credits, err := Parse(text)
		if errors.Is(err, errBlank) {
			continue
		}
		if err != nil {
			errs = append(errs, &ParseError{Line: line, Text: text, Reason: err.Error()})
			continue
		}

		entries = append(entries, &Entry{Name: name, Credits: credits, Index: line})
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read roster: %w", err)
	}

	return entries, errs, nil
}

// Save writes the roster in canonical form, ordered by Index. The file is
// replaced atomically and synced before Save returns.
func Save(path string, entries []*Entry, opts SaveOptions) error {
	content := Render(entries, opts)

	_, statErr := os.Stat(path)
	isNew := errors.Is(statErr, fs.ErrNotExist)

	if err := atomic.WriteFile(path, strings.NewReader(content)); err != nil {
		return fmt.Errorf("%w: %w", ErrRosterWrite, err)
	}

	if isNew {
		if err := os.Chmod(path, filePerms); err != nil {
			return fmt.Errorf("%w: failed to set permissions: %w", ErrRosterWrite, err)
		}
	}

	return nil
}

// Render produces the file content Save would write.
func Render(entries []*Entry, opts SaveOptions) string {
	kept := make([]*Entry, 0, len(entries))
	for _, e := range entries {
		if e.Credits > 0 || (opts.KeepZero && e.Credits == 0) {
			kept = append(kept, e)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Index < kept[j].Index
	})

	var b strings.Builder
	for _, e := range kept {
		b.WriteString(Format(e.Name, e.Credits))
		b.WriteByte('\n')
	}
	return b.String()
}

// Reload is the outcome of ReloadPreservingQueue.
type Reload struct {
	Entries []*Entry

	// Rebound maps each live entry to the fresh entry that replaces it.
	Rebound map[*Entry]*Entry

	// Orphans are live entries whose viewer no longer appears in the
	// file. Callers keep them detached and report the broken invariant.
	Orphans []*Entry

	Errors []*ParseError
}

// ReloadPreservingQueue re-reads the roster while tickets are live. Each
// entry in live (the entries tickets and boarding currently reference) is
// matched to a fresh entry: same name and index first, otherwise the
// lowest-index unclaimed entry with the same name. Queue flags are copied
// onto the match. On error the caller's state is left untouched.
func ReloadPreservingQueue(path string, live []*Entry) (*Reload, error) {
	fresh, errs, err := Load(path)
	if err != nil {
		return nil, err
	}

	result := &Reload{
		Entries: fresh,
		Rebound: make(map[*Entry]*Entry),
		Errors:  errs,
	}

	byName := make(map[string][]*Entry)
	for _, e := range fresh {
		byName[e.Name] = append(byName[e.Name], e)
	}
	claimed := make(map[*Entry]bool)

	// Exact matches are claimed before name-only fallbacks so a fallback
	// never steals an entry another ticket matches exactly.
	pending := make([]*Entry, 0, len(live))
	for _, old := range uniqueByIndex(live) {
		if match := exactMatch(byName[old.Name], old.Index, claimed); match != nil {
			bind(result, claimed, old, match)
			continue
		}
		pending = append(pending, old)
	}

	for _, old := range pending {
		match := fallbackMatch(byName[old.Name], claimed)
		if match == nil {
			result.Orphans = append(result.Orphans, old)
			continue
		}
		bind(result, claimed, old, match)
	}

	return result, nil
}

func bind(result *Reload, claimed map[*Entry]bool, old, fresh *Entry) {
	fresh.InQueue = old.InQueue
	fresh.InBoarding = old.InBoarding
	claimed[fresh] = true
	result.Rebound[old] = fresh
}

func exactMatch(candidates []*Entry, index int, claimed map[*Entry]bool) *Entry {
	for _, e := range candidates {
		if e.Index == index && !claimed[e] {
			return e
		}
	}
	return nil
}

// fallbackMatch prefers an entry that still has credits; candidates are
// already in ascending index order.
func fallbackMatch(candidates []*Entry, claimed map[*Entry]bool) *Entry {
	var spent *Entry
	for _, e := range candidates {
		if claimed[e] {
			continue
		}
		if e.Usable() {
			return e
		}
		if spent == nil {
			spent = e
		}
	}
	return spent
}

func uniqueByIndex(live []*Entry) []*Entry {
	seen := make(map[*Entry]bool, len(live))
	out := make([]*Entry, 0, len(live))
	for _, e := range live {
		if e == nil || seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Index < out[j].Index
	})
	return out
}
