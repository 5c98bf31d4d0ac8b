package watcher

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Config holds watcher configuration.
type Config struct {
	RosterPath string
	ConfigPath string

	RosterInterval time.Duration
	ConfigInterval time.Duration
	// DebounceDelay collapses bursts of file events into one check.
	DebounceDelay time.Duration

	// OnRosterChange is called when the roster file changed on disk.
	OnRosterChange func(ctx context.Context) error
	// OnConfigChange reloads configuration and returns the roster path
	// it now names.
	OnConfigChange func(ctx context.Context) (string, error)

	Logger *slog.Logger
}

type stamp struct {
	modTime time.Time
	size    int64
}

func stampOf(path string) stamp {
	if path == "" {
		return stamp{}
	}
	info, err := os.Stat(path)
	if err != nil {
		return stamp{}
	}
	return stamp{modTime: info.ModTime(), size: info.Size()}
}

// Watcher polls the roster and config files and reports changes.
// Polling decides what changed; fsnotify events only make the next poll
// happen sooner.
//
// Used by: main
// Connects to: queue.Engine (ReloadRoster, ApplySettings) through the
// callbacks in Config
type Watcher struct {
	cfg    Config
	logger *slog.Logger

	mu          sync.Mutex
	rosterPath  string
	rosterStamp stamp
	configStamp stamp

	// Debouncing state
	timer   *time.Timer
	timerMu sync.Mutex
	poke    chan struct{}
}

// New creates a watcher. Current file states are taken as the baseline,
// so nothing fires until a file actually changes.
func New(cfg Config) *Watcher {
	if cfg.RosterInterval <= 0 {
		cfg.RosterInterval = 3 * time.Second
	}
	if cfg.ConfigInterval <= 0 {
		cfg.ConfigInterval = time.Second
	}
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = 200 * time.Millisecond
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Watcher{
		cfg:         cfg,
		logger:      logger,
		rosterPath:  cfg.RosterPath,
		rosterStamp: stampOf(cfg.RosterPath),
		configStamp: stampOf(cfg.ConfigPath),
		poke:        make(chan struct{}, 1),
	}
}

// RosterPath returns the roster file being watched.
func (w *Watcher) RosterPath() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rosterPath
}

// SetRosterPath switches the watched roster file. The new file's current
// state becomes the baseline; the caller has already loaded it.
func (w *Watcher) SetRosterPath(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rosterPath = path
	w.rosterStamp = stampOf(path)
}

// Run polls until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	rosterTick := time.NewTicker(w.cfg.RosterInterval)
	defer rosterTick.Stop()
	configTick := time.NewTicker(w.cfg.ConfigInterval)
	defer configTick.Stop()

	notify := w.startNotify()
	if notify != nil {
		defer notify.Close()
	}
	defer w.stopTimer()

	var (
		fsEvents <-chan fsnotify.Event
		fsErrors <-chan error
	)
	if notify != nil {
		fsEvents = notify.Events
		fsErrors = notify.Errors
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-configTick.C:
			w.checkConfig(ctx)
		case <-rosterTick.C:
			w.checkRoster(ctx)
		case <-w.poke:
			w.Check(ctx)
		case ev, ok := <-fsEvents:
			if !ok {
				fsEvents = nil
				continue
			}
			w.fileChanged(ev)
		case err, ok := <-fsErrors:
			if !ok {
				fsErrors = nil
				continue
			}
			w.logger.Warn("file notification error, polling continues", "error", err)
		}
	}
}

// Check runs one poll of both files: config first, since it may move the
// roster.
func (w *Watcher) Check(ctx context.Context) {
	w.checkConfig(ctx)
	w.checkRoster(ctx)
}

func (w *Watcher) checkConfig(ctx context.Context) {
	if w.cfg.ConfigPath == "" || w.cfg.OnConfigChange == nil {
		return
	}
	current := stampOf(w.cfg.ConfigPath)
	w.mu.Lock()
	changed := current != w.configStamp
	w.configStamp = current
	w.mu.Unlock()
	if !changed || current == (stamp{}) {
		return
	}

	rosterPath, err := w.cfg.OnConfigChange(ctx)
	if err != nil {
		w.logger.Error("config reload failed", "path", w.cfg.ConfigPath, "error", err)
		return
	}
	w.logger.Info("config reloaded", "path", w.cfg.ConfigPath)

	if rosterPath != "" && rosterPath != w.RosterPath() {
		w.logger.Info("watching new roster file", "path", rosterPath)
		w.SetRosterPath(rosterPath)
	}
}

func (w *Watcher) checkRoster(ctx context.Context) {
	if w.cfg.OnRosterChange == nil {
		return
	}
	w.mu.Lock()
	path := w.rosterPath
	current := stampOf(path)
	changed := path != "" && current != w.rosterStamp
	w.rosterStamp = current
	w.mu.Unlock()
	if !changed {
		return
	}

	if err := w.cfg.OnRosterChange(ctx); err != nil {
		w.logger.Error("roster reload failed, previous roster kept", "path", path, "error", err)
		return
	}
	w.logger.Debug("roster change handled", "path", path)
}

// startNotify watches the directories holding both files. Editors often
// replace files by rename, which only a directory watch sees.
func (w *Watcher) startNotify() *fsnotify.Watcher {
	notify, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Warn("file notifications unavailable, polling only", "error", err)
		return nil
	}

	dirs := make(map[string]bool)
	for _, p := range []string{w.RosterPath(), w.cfg.ConfigPath} {
		if p != "" {
			dirs[filepath.Dir(p)] = true
		}
	}
	for dir := range dirs {
		if err := notify.Add(dir); err != nil {
			w.logger.Warn("cannot watch directory, polling only", "dir", dir, "error", err)
		}
	}
	return notify
}

// fileChanged debounces relevant file events into a single Check.
func (w *Watcher) fileChanged(ev fsnotify.Event) {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return
	}
	name := filepath.Clean(ev.Name)
	if name != filepath.Clean(w.RosterPath()) && name != filepath.Clean(w.cfg.ConfigPath) {
		return
	}

	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.cfg.DebounceDelay, func() {
		select {
		case w.poke <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) stopTimer() {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}
