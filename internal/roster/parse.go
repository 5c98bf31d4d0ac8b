package roster

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	openASCII  = "("
	closeASCII = ")"
	openFull   = "（"
	closeFull  = "）"
)

// errBlank marks a line with nothing on it. Load skips these silently.
var errBlank = errors.New("blank line")

// ParseError describes a roster line that could not be understood.
// Load collects these and keeps going.
type ParseError struct {
	Line   int
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("roster line %d %q: %s", e.Line, e.Text, e.Reason)
}

// Parse splits one roster line into a name and a credit count.
//
// A trailing "(n", "（n", "(n)" or "（n）" carries the count; without it the
// count is 1. A bracket followed by something other than digits is part of
// the name, since viewer names may contain brackets.
func Parse(line string) (string, int, error) {
	s := strings.TrimSpace(line)
	if s == "" {
		return "", 0, errBlank
	}

	pos, open, closing := lastOpenBracket(s)
	if pos < 0 {
		return s, 1, nil
	}

	suffix := strings.TrimSpace(s[pos+len(open):])
	digits := leadingDigits(suffix)
	if digits == "" {
		return s, 1, nil
	}

	rest := strings.TrimSpace(suffix[len(digits):])
	if rest != "" && rest != closing {
		return "", 0, fmt.Errorf("unexpected %q after count", rest)
	}

	name := strings.TrimSpace(s[:pos])
	if name == "" {
		return "", 0, errors.New("empty name")
	}

	credits, err := strconv.Atoi(digits)
	if err != nil {
		return "", 0, fmt.Errorf("invalid count %q", digits)
	}

	return name, credits, nil
}

// Format renders an entry in the canonical output form.
func Format(name string, credits int) string {
	switch {
	case credits > 1:
		return name + openFull + strconv.Itoa(credits)
	case credits <= 0:
		// Only reached when zero-credit entries are retained.
		return name + openFull + "0"
	default:
		return name
	}
}

// lastOpenBracket finds the right-most opening bracket of either width and
// returns its byte offset with the matching bracket pair.
func lastOpenBracket(s string) (int, string, string) {
	ascii := strings.LastIndex(s, openASCII)
	full := strings.LastIndex(s, openFull)
	if ascii < 0 && full < 0 {
		return -1, "", ""
	}
	if ascii > full {
		return ascii, openASCII, closeASCII
	}
	return full, openFull, closeFull
}

func leadingDigits(s string) string {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	return s[:end]
}
