package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCheckDetectsRosterChange(t *testing.T) {
	dir := t.TempDir()
	roster := filepath.Join(dir, "名单.csv")
	write(t, roster, "甲\n")

	reloads := 0
	w := New(Config{
		RosterPath:     roster,
		OnRosterChange: func(context.Context) error { reloads++; return nil },
	})
	ctx := context.Background()

	w.Check(ctx)
	if reloads != 0 {
		t.Fatalf("reload fired without a change")
	}

	write(t, roster, "甲\n乙（2\n")
	w.Check(ctx)
	if reloads != 1 {
		t.Fatalf("reloads = %d after edit, want 1", reloads)
	}

	w.Check(ctx)
	if reloads != 1 {
		t.Errorf("reload repeated for one edit")
	}
}

func TestRosterReloadErrorIsNotRetried(t *testing.T) {
	dir := t.TempDir()
	roster := filepath.Join(dir, "名单.csv")
	write(t, roster, "甲\n")

	calls := 0
	w := New(Config{
		RosterPath:     roster,
		OnRosterChange: func(context.Context) error { calls++; return errors.New("boom") },
	})

	if err := os.Remove(roster); err != nil {
		t.Fatal(err)
	}
	w.Check(context.Background())
	w.Check(context.Background())
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestConfigChangeMovesRoster(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.json")
	oldRoster := filepath.Join(dir, "old.csv")
	newRoster := filepath.Join(dir, "new.csv")
	write(t, cfgPath, `{}`)
	write(t, oldRoster, "甲\n")
	write(t, newRoster, "乙\n")

	rosterReloads := 0
	w := New(Config{
		RosterPath: oldRoster,
		ConfigPath: cfgPath,
		OnConfigChange: func(context.Context) (string, error) {
			return newRoster, nil
		},
		OnRosterChange: func(context.Context) error { rosterReloads++; return nil },
	})

	write(t, cfgPath, `{"queue": {"name_list_file": "new.csv"}}`)
	w.Check(context.Background())

	if got := w.RosterPath(); got != newRoster {
		t.Fatalf("RosterPath() = %q, want %q", got, newRoster)
	}
	if rosterReloads != 0 {
		t.Errorf("switching roster triggered a second reload")
	}

	write(t, newRoster, "乙\n丙\n")
	w.Check(context.Background())
	if rosterReloads != 1 {
		t.Errorf("edit to new roster not seen: reloads = %d", rosterReloads)
	}
}
