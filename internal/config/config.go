// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package config loads server configuration. Values are layered as built-in
// defaults, then the YAML config file, then command-line flags.
package config

import (
	"errors"
	"io/fs"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// CodeInvalid marks configuration errors. The process exits non-zero.
const CodeInvalid = "CONFIG_INVALID"

// Ticks are the per-subsystem intervals driven by the scheduler.
type Ticks struct {
	Base        time.Duration `koanf:"base"`
	Power       time.Duration `koanf:"power"`
	Atmos       time.Duration `koanf:"atmos"`
	Maintenance time.Duration `koanf:"maintenance"`
	Disease     time.Duration `koanf:"disease"`
	Botany      time.Duration `koanf:"botany"`
	Plumbing    time.Duration `koanf:"plumbing"`
	NPC         time.Duration `koanf:"npc"`
	Events      time.Duration `koanf:"events"`
	Security    time.Duration `koanf:"security"`
	Cargo       time.Duration `koanf:"cargo"`
	Chemistry   time.Duration `koanf:"chemistry"`
}

// Idle controls the idle watchdog.
type Idle struct {
	Warn    time.Duration `koanf:"warn"`
	Timeout time.Duration `koanf:"timeout"`
}

// Persistence controls autosave.
type Persistence struct {
	Interval time.Duration `koanf:"interval"`
	Compress bool          `koanf:"compress"`
	// Resume starts from the newest world snapshot instead of the data files.
	Resume   bool          `koanf:"resume"`
	// Keep is how many autosave snapshots are retained.
	Keep     int           `koanf:"keep"`
}

// Queues bounds the per-session queues.
type Queues struct {
	Input  int `koanf:"input"`
	Output int `koanf:"output"`
}

// Log selects the log format.
type Log struct {
	Format string `koanf:"format"`
}

// Config is the full server configuration.
type Config struct {
	Host          string        `koanf:"host"`
	Port          int           `koanf:"port"`
	WSPort        int           `koanf:"ws_port"`
	DataDir       string        `koanf:"data_dir"`
	StartRoom     string        `koanf:"start_room"`
	Ticks         Ticks         `koanf:"ticks"`
	Idle          Idle          `koanf:"idle"`
	Admins        []string      `koanf:"admins"`
	Debug         bool          `koanf:"debug"`
	Persistence   Persistence   `koanf:"persistence"`
	Queues        Queues        `koanf:"queues"`
	MoveCooldown  time.Duration `koanf:"move_cooldown"`
	ScriptTimeout time.Duration `koanf:"script_timeout"`
	Log           Log           `koanf:"log"`
	MetricsAddr   string        `koanf:"metrics_addr"`
}

// Defaults are applied before any file or flag.
var Defaults = map[string]any{
	"host":                 "0.0.0.0",
	"port":                 5000,
	"ws_port":              8000,
	"data_dir":             "data",
	"start_room":           "bridge",
	"ticks.base":           "250ms",
	"ticks.power":          "30s",
	"ticks.atmos":          "10s",
	"ticks.maintenance":    "60s",
	"ticks.disease":        "10s",
	"ticks.botany":         "10s",
	"ticks.plumbing":       "5s",
	"ticks.npc":            "5s",
	"ticks.events":         "60s",
	"ticks.security":       "5s",
	"ticks.cargo":          "30s",
	"ticks.chemistry":      "10s",
	"idle.warn":            "10m",
	"idle.timeout":         "15m",
	"admins":               []string{},
	"debug":                false,
	"persistence.interval": "5m",
	"persistence.compress": false,
	"persistence.resume":   false,
	"persistence.keep":     5,
	"queues.input":         64,
	"queues.output":        256,
	"move_cooldown":        "1s",
	"script_timeout":       "50ms",
	"log.format":           "text",
	"metrics_addr":         "",
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"host":         "host",
	"port":         "port",
	"ws-port":      "ws_port",
	"data-dir":     "data_dir",
	"debug":        "debug",
	"log-format":   "log.format",
	"metrics-addr": "metrics_addr",
}

// Load layers defaults, the YAML file at path and the changed flags in fs.
// A missing file is only an error when required is true. flags may be nil.
func Load(path string, required bool, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")
	for key, val := range Defaults {
		if err := k.Set(key, val); err != nil {
			return nil, oops.Code(CodeInvalid).With("key", key).Wrap(err)
		}
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, oops.Code(CodeInvalid).With("path", path).Wrapf(err, "read config")
			}
		} else if required || !errors.Is(err, fs.ErrNotExist) {
			return nil, oops.Code(CodeInvalid).With("path", path).Wrapf(err, "read config")
		}
	}

	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code(CodeInvalid).Wrapf(err, "read flags")
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code(CodeInvalid).Wrapf(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks ranges and cross-field constraints.
func (c *Config) Validate() error {
	invalid := func(key string, format string, args ...any) error {
		return oops.Code(CodeInvalid).With("key", key).Errorf(format, args...)
	}
	switch {
	case c.Port < 1 || c.Port > 65535:
		return invalid("port", "port must be between 1 and 65535, got %d", c.Port)
	case c.WSPort < 0 || c.WSPort > 65535:
		return invalid("ws_port", "ws_port must be between 0 and 65535, got %d", c.WSPort)
	case c.WSPort == c.Port:
		return invalid("ws_port", "ws_port and port must differ")
	case strings.TrimSpace(c.DataDir) == "":
		return invalid("data_dir", "data_dir is required")
	case c.Ticks.Base <= 0:
		return invalid("ticks.base", "ticks.base must be positive")
	case c.Idle.Warn <= 0 || c.Idle.Timeout <= c.Idle.Warn:
		return invalid("idle", "idle.timeout must be longer than idle.warn")
	case c.Persistence.Interval <= 0:
		return invalid("persistence.interval", "persistence.interval must be positive")
	case c.Persistence.Keep < 1:
		return invalid("persistence.keep", "persistence.keep must be at least 1")
	case c.Queues.Input <= 0 || c.Queues.Output <= 0:
		return invalid("queues", "queue sizes must be positive")
	case c.MoveCooldown < 0:
		return invalid("move_cooldown", "move_cooldown cannot be negative")
	case c.ScriptTimeout <= 0:
		return invalid("script_timeout", "script_timeout must be positive")
	case !slices.Contains([]string{"text", "json"}, c.Log.Format):
		return invalid("log.format", "log.format must be 'json' or 'text', got %q", c.Log.Format)
	}
	for name, d := range c.Ticks.intervals() {
		if d <= 0 {
			return invalid("ticks."+name, "ticks.%s must be positive", name)
		}
	}
	return nil
}

func (t Ticks) intervals() map[string]time.Duration {
	return map[string]time.Duration{
		"power": t.Power, "atmos": t.Atmos, "maintenance": t.Maintenance,
		"disease": t.Disease, "botany": t.Botany, "plumbing": t.Plumbing,
		"npc": t.NPC, "events": t.Events, "security": t.Security,
		"cargo": t.Cargo, "chemistry": t.Chemistry,
	}
}

// IsAdmin reports whether the account name is listed in admins.
func (c *Config) IsAdmin(user string) bool {
	return slices.ContainsFunc(c.Admins, func(a string) bool { return strings.EqualFold(a, user) })
}

// BindFlags declares the flags Load understands on fs.
func BindFlags(fs *pflag.FlagSet) {
	fs.String("host", "0.0.0.0", "telnet and websocket bind host")
	fs.Int("port", 5000, "telnet port")
	fs.Int("ws-port", 8000, "websocket port (0 disables)")
	fs.String("data-dir", "data", "station data directory")
	fs.Bool("debug", false, "enable debug logging and debug verbs")
	fs.String("log-format", "text", "log format (json or text)")
	fs.String("metrics-addr", "", "metrics/health HTTP address (empty disables)")
}
