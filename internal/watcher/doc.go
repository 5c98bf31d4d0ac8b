// Package watcher notices edits to the roster and config files.
//
// # Overview
//
// Operators edit the roster in a text editor while the engine runs. The
// watcher polls both files' modification time and size on fixed
// intervals (roster every 3s, config every 1s by default) and hands any
// change to a callback. The engine then reloads on its own command loop;
// the watcher never touches roster data itself.
//
// # Key Features
//
//   - Polling is authoritative and works on any filesystem
//   - fsnotify events, when available, trigger an early poll
//   - Bursts of events are debounced into one check
//   - A config change that names another roster moves the watch to it
//
// # Usage
//
//	w := watcher.New(watcher.Config{
//	    RosterPath:     cfg.Queue.NameListFile,
//	    ConfigPath:     "config.json",
//	    RosterInterval: cfg.Watch.RosterInterval,
//	    ConfigInterval: cfg.Watch.ConfigInterval,
//	    OnRosterChange: engine.ReloadRoster,
//	    OnConfigChange: reloadConfig,
//	})
//	go w.Run(ctx)
package watcher
