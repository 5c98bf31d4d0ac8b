// Package config provides local, file-backed configuration for rollcall.
//
// Settings live in a single JSON file (config.json by default) next to the
// roster. A missing file is created with defaults on first Load.
//
// Configuration File Structure:
//
//	{
//	  "queue": {
//	    "name_list_file": "/path/to/名单.csv",
//	    "cutline_cost": 2,
//	    "normal_cost": 1,
//	    "keep_zero_credit": false,
//	    "state_file": "queue_state.json",
//	    "recent_winners": 10,
//	    "draw_count": 2
//	  },
//	  "gift": {
//	    "guard_rewards": {"舰长": 1, "提督": 5, "总督": 10},
//	    "auto_save": true
//	  },
//	  "keywords": {"queue": "排队", "cutline": "插队", "boarding": "上车"},
//	  "watch": {"roster_interval": "3s", "config_interval": "1s"},
//	  "log": {"level": "info", "file": "rollcall.log"}
//	}
//
// Environment Variable Support:
//
// Every key can be overridden with a ROLLCALL_ variable, dots replaced by
// underscores:
//
//	ROLLCALL_QUEUE_NAME_LIST_FILE=/data/名单.csv
//	ROLLCALL_LOG_LEVEL=debug
//
// A .env file in the config directory is loaded first. Variables already
// present in the environment are not replaced by it.
//
// Example usage:
//
//	manager := config.NewManager("config.json")
//	if err := manager.Load(); err != nil {
//		log.Fatal(err)
//	}
//
//	cfg := manager.Get()
//	fmt.Println("roster:", cfg.Queue.NameListFile)
//
//	// Point at another roster and persist it
//	manager.Set("queue.name_list_file", "/data/名单2.csv")
package config
