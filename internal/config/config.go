package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides: ROLLCALL_QUEUE_CUTLINE_COST
// overrides queue.cutline_cost.
const EnvPrefix = "ROLLCALL"

// Config is the full rollcall configuration.
type Config struct {
	Queue    QueueConfig   `mapstructure:"queue"`
	Gift     GiftConfig    `mapstructure:"gift"`
	Keywords KeywordConfig `mapstructure:"keywords"`
	Watch    WatchConfig   `mapstructure:"watch"`
	Log      LogConfig     `mapstructure:"log"`
}

// QueueConfig holds roster and queue settings.
type QueueConfig struct {
	NameListFile     string `mapstructure:"name_list_file"`
	CutlineCost      int    `mapstructure:"cutline_cost"`
	NormalCost       int    `mapstructure:"normal_cost"`
	KeepZeroCredit   bool   `mapstructure:"keep_zero_credit"`
	StateFile        string `mapstructure:"state_file"`
	CountLogFile     string `mapstructure:"count_log_file"`
	DeductionLogFile string `mapstructure:"deduction_log_file"`
	RecentWinners    int    `mapstructure:"recent_winners"`
	DrawCount        int    `mapstructure:"draw_count"`
}

// GiftConfig controls how guard purchases become credits.
type GiftConfig struct {
	// GuardRewards maps a guard level name (舰长, 提督, 总督) to the
	// credits granted per month.
	GuardRewards   map[string]int `mapstructure:"guard_rewards"`
	LogEvents      bool           `mapstructure:"log_events"`
	AutoSave       bool           `mapstructure:"auto_save"`
	GuardRecordDir string         `mapstructure:"guard_record_dir"`
}

// KeywordConfig holds the chat keywords that trigger requests.
type KeywordConfig struct {
	Queue    string `mapstructure:"queue"`
	Cutline  string `mapstructure:"cutline"`
	Boarding string `mapstructure:"boarding"`
}

// WatchConfig holds file polling intervals.
type WatchConfig struct {
	RosterInterval time.Duration `mapstructure:"roster_interval"`
	ConfigInterval time.Duration `mapstructure:"config_interval"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// setDefaults registers every key, which also makes each one visible to
// AutomaticEnv.
func setDefaults(v *viper.Viper) {
	v.SetDefault("queue.name_list_file", "")
	v.SetDefault("queue.cutline_cost", 2)
	v.SetDefault("queue.normal_cost", 1)
	v.SetDefault("queue.keep_zero_credit", false)
	v.SetDefault("queue.state_file", "queue_state.json")
	v.SetDefault("queue.count_log_file", "count_changes.log")
	v.SetDefault("queue.deduction_log_file", "deductions.log")
	v.SetDefault("queue.recent_winners", 10)
	v.SetDefault("queue.draw_count", 2)

	v.SetDefault("gift.guard_rewards", map[string]int{"舰长": 1, "提督": 5, "总督": 10})
	v.SetDefault("gift.log_events", true)
	v.SetDefault("gift.auto_save", true)
	v.SetDefault("gift.guard_record_dir", "..")

	v.SetDefault("keywords.queue", "排队")
	v.SetDefault("keywords.cutline", "插队")
	v.SetDefault("keywords.boarding", "上车")

	v.SetDefault("watch.roster_interval", "3s")
	v.SetDefault("watch.config_interval", "1s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "rollcall.log")
}

// Manager loads and saves the configuration file.
//
// Used by: main (startup, roster path changes), watcher (reload on change)
type Manager struct {
	configPath string

	mu      sync.RWMutex
	v       *viper.Viper
	file    *viper.Viper
	config  *Config
	modTime time.Time
}

// NewManager creates a manager for the JSON config file at configPath.
func NewManager(configPath string) *Manager {
	return &Manager{
		configPath: configPath,
		config:     defaultConfig(),
	}
}

func defaultConfig() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Path returns the config file path.
func (m *Manager) Path() string {
	return m.configPath
}

// Load reads the config file, creating it with defaults when missing. A
// .env file beside the config is loaded into the environment first;
// variables already set win over it.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := loadDotEnv(filepath.Join(filepath.Dir(m.configPath), ".env")); err != nil {
		return err
	}

	// v is the effective configuration; file holds only defaults and what
	// is on disk, so saving never persists environment overrides.
	v := newFileViper(m.configPath)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	file := newFileViper(m.configPath)

	if _, err := os.Stat(m.configPath); errors.Is(err, fs.ErrNotExist) {
		m.file = file
		if err := m.save(); err != nil {
			return err
		}
	} else {
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		if err := file.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return err
	}

	m.v = v
	m.file = file
	m.config = &cfg
	m.modTime = statModTime(m.configPath)
	return nil
}

func newFileViper(path string) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("json")
	return v
}

// Save writes the file-backed settings to the config file. Values that
// only come from the environment are not written.
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.save()
}

func (m *Manager) save() error {
	if m.file == nil {
		return errors.New("config not loaded")
	}
	if dir := filepath.Dir(m.configPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := m.file.WriteConfigAs(m.configPath); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	m.modTime = statModTime(m.configPath)
	return nil
}

// Get returns the current configuration. Callers must not modify it.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// Set updates one key and saves.
func (m *Manager) Set(key string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.v == nil {
		return errors.New("config not loaded")
	}
	if !m.v.IsSet(key) {
		return fmt.Errorf("unknown config key: %s", key)
	}

	prev := m.v.Get(key)
	m.v.Set(key, value)
	var cfg Config
	if err := m.v.Unmarshal(&cfg); err != nil {
		m.v.Set(key, prev)
		return fmt.Errorf("failed to apply %s: %w", key, err)
	}
	if err := cfg.validate(); err != nil {
		m.v.Set(key, prev)
		return err
	}
	m.file.Set(key, value)
	m.config = &cfg
	return m.save()
}

// Changed reports whether the file on disk is newer than what was last
// loaded or saved.
func (m *Manager) Changed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mt := statModTime(m.configPath)
	return !mt.IsZero() && !mt.Equal(m.modTime)
}

func (c *Config) validate() error {
	if c.Queue.CutlineCost < 1 {
		return fmt.Errorf("queue.cutline_cost must be at least 1, got %d", c.Queue.CutlineCost)
	}
	if c.Queue.NormalCost < 1 {
		return fmt.Errorf("queue.normal_cost must be at least 1, got %d", c.Queue.NormalCost)
	}
	if c.Queue.RecentWinners < 1 {
		return fmt.Errorf("queue.recent_winners must be at least 1, got %d", c.Queue.RecentWinners)
	}
	if c.Watch.RosterInterval <= 0 || c.Watch.ConfigInterval <= 0 {
		return errors.New("watch intervals must be positive")
	}
	return nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func statModTime(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}
