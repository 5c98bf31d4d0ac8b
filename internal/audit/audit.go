// Package audit appends the operator-facing record of credit movements.
//
// Three plain-text files are kept:
//
//	count log      [2006-01-02 15:04:05] 钱五: 3 -> 2 (-1) | 原因: 完成排队
//	deduction log  [2006-01-02 15:04:05] 钱五 - 扣除 1 次 - 完成排队
//	new guards     <dir>/2006-01-02-新舰长.csv, header 用户名, one roster line per guard
//
// Files are only ever appended to. An empty path disables that record.
package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/billie-coop/rollcall/internal/roster"
)

const timeLayout = "2006-01-02 15:04:05"

// Log writes audit records.
//
// Used by: queue.Engine after every committed debit, transfer or grant
type Log struct {
	countPath     string
	deductionPath string
	guardDir      string
	now           func() time.Time
}

// Option configures a Log.
type Option func(*Log)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Log) {
		l.now = now
	}
}

// WithGuardDir sets where the dated new-guard files are written.
func WithGuardDir(dir string) Option {
	return func(l *Log) {
		l.guardDir = dir
	}
}

// New creates a Log writing to the given count and deduction files.
func New(countPath, deductionPath string, opts ...Option) *Log {
	l := &Log{
		countPath:     countPath,
		deductionPath: deductionPath,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// CountChange records one entry's credits moving from old to cur.
func (l *Log) CountChange(name string, old, cur int, reason string) error {
	delta := cur - old
	sign := ""
	if delta > 0 {
		sign = "+"
	}
	line := fmt.Sprintf("[%s] %s: %d -> %d (%s%d) | 原因: %s\n",
		l.now().Format(timeLayout), name, old, cur, sign, delta, reason)
	return appendLine(l.countPath, "", line)
}

// Deduction records a completed spend of n credits by name.
func (l *Log) Deduction(name string, n int, reason string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s - 扣除 %d 次", l.now().Format(timeLayout), name, n)
	if reason != "" {
		b.WriteString(" - " + reason)
	}
	b.WriteByte('\n')
	return appendLine(l.deductionPath, "", b.String())
}

// NewGuard adds name to today's new-guard file in roster line format.
func (l *Log) NewGuard(name string, credits int) error {
	if l.guardDir == "" {
		return nil
	}
	return appendLine(l.GuardFile(), "用户名\n", roster.Format(name, credits)+"\n")
}

// GuardFile returns today's new-guard file path.
func (l *Log) GuardFile() string {
	return filepath.Join(l.guardDir, l.now().Format("2006-01-02")+"-新舰长.csv")
}

// appendLine appends line to path, writing header first when the file is
// new.
func appendLine(path, header, line string) error {
	if path == "" {
		return nil
	}

	_, statErr := os.Stat(path)
	isNew := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	if isNew && header != "" {
		line = header + line
	}
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("failed to append to %s: %w", path, err)
	}
	return nil
}
