package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/pflag"
)

const configFileName = "config.json"

// Session listing bounds.
const (
	DefaultSessionLimit = 50
	MaxSessionLimit     = 500
)

// Config holds all application configuration.
type Config struct {
	Host           string        `json:"host"`
	Port           int           `json:"port"`
	NoBrowser      bool          `json:"no_browser"`
	ProjectsDir    string        `json:"projects_dir"`
	DataDir        string        `json:"-"`
	SessionLimit   int           `json:"session_limit"`
	SearchWorkers  int           `json:"search_workers"`
	BrowserCommand string        `json:"browser_command,omitempty"`
	OTLPEndpoint   string        `json:"otlp_endpoint,omitempty"`
	OTLPInsecure   bool          `json:"otlp_insecure,omitempty"`
	WriteTimeout   time.Duration `json:"-"`
}

// Default returns a Config with default values.
func Default() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf(
			"determining home directory: %w", err,
		)
	}
	return Config{
		Host:          "127.0.0.1",
		Port:          8000,
		ProjectsDir:   filepath.Join(home, ".claude", "projects"),
		DataDir:       filepath.Join(home, ".subtle"),
		SessionLimit:  DefaultSessionLimit,
		SearchWorkers: 8,
		WriteTimeout:  30 * time.Second,
	}, nil
}

// Load builds a Config by layering: defaults < config file < env < flags.
// The provided FlagSet must already be parsed by the caller.
// Only flags that were explicitly set override the lower layers.
func Load(fs *pflag.FlagSet) (Config, error) {
	cfg, err := LoadMinimal()
	if err != nil {
		return cfg, err
	}
	applyFlags(&cfg, fs)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadMinimal builds a Config from defaults, config file and
// env, without CLI flags. Use this for subcommands that manage
// their own flag sets.
func LoadMinimal() (Config, error) {
	cfg, err := Default()
	if err != nil {
		return cfg, err
	}
	// The data dir locates the config file, so its env override
	// applies first.
	if v := os.Getenv("SUBTLE_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if err := cfg.loadFile(); err != nil {
		return cfg, fmt.Errorf("loading config file: %w", err)
	}
	if err := cfg.loadEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) configPath() string {
	return filepath.Join(c.DataDir, configFileName)
}

func (c *Config) loadFile() error {
	data, err := os.ReadFile(c.configPath())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	// Fields absent from the file keep their defaults.
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}
	return nil
}

func (c *Config) loadEnv() error {
	if v := os.Getenv("CLAUDE_PROJECTS_DIR"); v != "" {
		c.ProjectsDir = v
	}
	if v := os.Getenv("SUBTLE_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Port = port
	}
	if v := os.Getenv("SUBTLE_BROWSER"); v != "" {
		c.BrowserCommand = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		c.OTLPEndpoint = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_INSECURE"); v != "" {
		c.OTLPInsecure, _ = strconv.ParseBool(v)
	}
	return nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.SessionLimit <= 0 || c.SessionLimit > MaxSessionLimit {
		return fmt.Errorf(
			"session_limit must be between 1 and %d, got %d",
			MaxSessionLimit, c.SessionLimit,
		)
	}
	if c.SearchWorkers <= 0 {
		return fmt.Errorf(
			"search_workers must be positive, got %d",
			c.SearchWorkers,
		)
	}
	return nil
}

// RegisterServeFlags registers serve-command flags on fs.
// The caller must call fs.Parse before passing fs to Load.
func RegisterServeFlags(fs *pflag.FlagSet) {
	fs.String("host", "127.0.0.1", "Host to bind to")
	fs.Int("port", 8000, "Port to listen on")
	fs.Bool(
		"no-browser", false,
		"Don't open browser on startup",
	)
	fs.String(
		"projects-dir", "",
		"Claude Code projects directory",
	)
}

// applyFlags copies explicitly-set flags from fs into cfg.
func applyFlags(cfg *Config, fs *pflag.FlagSet) {
	if fs == nil {
		return
	}
	fs.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "host":
			cfg.Host = f.Value.String()
		case "port":
			// pflag already validated the int; ignore parse error
			cfg.Port, _ = strconv.Atoi(f.Value.String())
		case "no-browser":
			cfg.NoBrowser = f.Value.String() == "true"
		case "projects-dir":
			cfg.ProjectsDir = f.Value.String()
		}
	})
}

// settingKinds lists the keys SaveSetting accepts and how their
// values are typed in config.json.
var settingKinds = map[string]string{
	"host":            "string",
	"port":            "int",
	"no_browser":      "bool",
	"projects_dir":    "string",
	"session_limit":   "int",
	"search_workers":  "int",
	"browser_command": "string",
	"otlp_endpoint":   "string",
	"otlp_insecure":   "bool",
}

// SettingKeys returns the keys SaveSetting accepts, sorted.
func SettingKeys() []string {
	keys := make([]string, 0, len(settingKinds))
	for k := range settingKinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func parseSetting(key, raw string) (any, error) {
	kind, ok := settingKinds[key]
	if !ok {
		return nil, fmt.Errorf("unknown setting %q", key)
	}
	switch kind {
	case "int":
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		return n, nil
	case "bool":
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		return b, nil
	}
	return raw, nil
}

// SaveSetting persists one setting to the config file, keeping
// any other keys already there, and applies it to c.
func (c *Config) SaveSetting(key, raw string) error {
	value, err := parseSetting(key, raw)
	if err != nil {
		return err
	}

	existing := make(map[string]any)
	data, err := os.ReadFile(c.configPath())
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err == nil {
		if err := json.Unmarshal(data, &existing); err != nil {
			return fmt.Errorf(
				"existing config is invalid, cannot update: %w",
				err,
			)
		}
	}
	existing[key] = value

	out, err := json.MarshalIndent(existing, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	one, err := json.Marshal(map[string]any{key: value})
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", key, err)
	}
	updated := *c
	if err := json.Unmarshal(one, &updated); err != nil {
		return fmt.Errorf("applying %s: %w", key, err)
	}
	if err := updated.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(c.DataDir, 0o700); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}
	if err := os.WriteFile(c.configPath(), out, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	*c = updated
	return nil
}
