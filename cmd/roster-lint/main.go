// roster-lint checks a roster file and prints what the queue would load
// from it, the lines it would skip, and the canonical form a save writes.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/billie-coop/rollcall/internal/roster"
)

func main() {
	var (
		keepZero  bool
		canonical bool
		write     bool
	)
	flagSet := pflag.NewFlagSet("roster-lint", pflag.ContinueOnError)
	flagSet.BoolVar(&keepZero, "keep-zero", false, "keep zero-credit entries in the canonical form")
	flagSet.BoolVar(&canonical, "canonical", false, "print only the canonical form")
	flagSet.BoolVar(&write, "write", false, "rewrite the file in canonical form")
	flagSet.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: roster-lint [flags] <roster-file>")
		flagSet.PrintDefaults()
	}
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return
		}
		os.Exit(2)
	}
	if flagSet.NArg() != 1 {
		flagSet.Usage()
		os.Exit(2)
	}
	path := flagSet.Arg(0)

	entries, errs, err := roster.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	opts := roster.SaveOptions{KeepZero: keepZero}

	if canonical {
		fmt.Print(roster.Render(entries, opts))
		return
	}

	printReport(path, entries, errs)

	if write {
		if err := roster.Save(path, entries, opts); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\nRewrote %s\n", path)
	}

	if len(errs) > 0 {
		os.Exit(1)
	}
}

func printReport(path string, entries []*roster.Entry, errs []*roster.ParseError) {
	total := 0
	for _, e := range entries {
		total += e.Credits
	}

	fmt.Printf("Roster: %s\n", path)
	fmt.Printf("Entries: %d, credits: %d, skipped: %d\n", len(entries), total, len(errs))
	fmt.Println("─────────")
	for _, e := range entries {
		fmt.Printf("  %4d  %s ×%d\n", e.Index, e.Name, e.Credits)
	}

	if len(errs) > 0 {
		fmt.Println("\nSkipped lines:")
		for _, pe := range errs {
			fmt.Printf("  %4d  %q: %s\n", pe.Line, pe.Text, pe.Reason)
		}
	}
}
