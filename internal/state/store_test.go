package state

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestEngineStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "queue_state.json")
	store := NewEngineStore(path)

	want := &EngineState{
		QueueStarted: true,
		UserQueued:   []string{"钱五"},
		QueueList: []ItemRecord{
			{ID: "t1", Name: "钱五", Count: 3, Index: 2, InQueue: true},
		},
		NameList: []ItemRecord{
			{Name: "赵四", Count: 1, Index: 1},
			{Name: "钱五", Count: 3, Index: 2, InQueue: true},
		},
		RecentWinners: []string{"孙六"},
		Promoted:      []string{"t1"},
		Roster: &RosterStamp{
			Path:    "名单.csv",
			ModTime: time.Date(2026, 10, 17, 20, 30, 0, 123456789, time.UTC),
			Size:    42,
		},
	}
	if err := store.Set(want); err != nil {
		t.Fatalf("Set: %v", err)
	}

	reopened := NewEngineStore(path)
	got, ok, err := reopened.Load()
	if err != nil || !ok {
		t.Fatalf("Load() ok=%v err=%v", ok, err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}
}

func TestLoadMissingIsColdStart(t *testing.T) {
	store := NewEngineStore(filepath.Join(t.TempDir(), "none.json"))
	got, ok, err := store.Load()
	if err != nil {
		t.Fatalf("Load(missing) err = %v", err)
	}
	if ok {
		t.Error("Load(missing) reported a snapshot")
	}
	if got == nil || got.QueueStarted {
		t.Errorf("Load(missing) = %+v, want defaults", got)
	}
}

func TestLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, ok, err := NewEngineStore(path).Load()
	if !errors.Is(err, ErrStateRead) {
		t.Fatalf("err = %v, want ErrStateRead", err)
	}
	if ok {
		t.Error("corrupt snapshot reported as loaded")
	}
}

func TestSetUnwritable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	// The parent "directory" is a regular file.
	store := NewEngineStore(filepath.Join(blocker, "state.json"))
	if err := store.Set(&EngineState{}); !errors.Is(err, ErrStateWrite) {
		t.Fatalf("err = %v, want ErrStateWrite", err)
	}
}
