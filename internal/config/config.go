package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Default values.
const (
	DefaultPort            = 3001
	DefaultBackend         = BackendMemory
	DefaultShutdownTimeout = 5 * time.Second
	DefaultServerURL       = "http://localhost:3001"
	DefaultClientTimeout   = 5 * time.Second
	DefaultTheme           = "classic"

	AppName = "priotodo"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Backends lists the accepted store backends.
var Backends = []string{BackendMemory, BackendSQLite}

// Themes lists the accepted UI themes.
var Themes = []string{"classic", "mono"}

// Duration is a time.Duration written as a string ("5s") in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config holds the full configuration.
type Config struct {
	Server ServerConfig `toml:"server"`
	Log    LogConfig    `toml:"log"`
	Client ClientConfig `toml:"client"`
	UI     UIConfig     `toml:"ui"`
}

// ServerConfig configures `priotodo serve`.
type ServerConfig struct {
	Host            string   `toml:"host"`
	Port            int      `toml:"port"`
	Backend         string   `toml:"backend"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
}

// LogConfig configures the charmbracelet logger.
type LogConfig struct {
	Level      string `toml:"level"`
	Format     string `toml:"format"`
	Timestamps bool   `toml:"timestamps"`
	Caller     bool   `toml:"caller"`
}

// ClientConfig configures the HTTP client used by the CLI and TUI.
type ClientConfig struct {
	URL     string   `toml:"url"`
	Timeout Duration `toml:"timeout"`
}

// UIConfig configures terminal rendering.
type UIConfig struct {
	Theme string `toml:"theme"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            DefaultPort,
			Backend:         DefaultBackend,
			ShutdownTimeout: Duration{DefaultShutdownTimeout},
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			Timestamps: true,
		},
		Client: ClientConfig{
			URL:     DefaultServerURL,
			Timeout: Duration{DefaultClientTimeout},
		},
		UI: UIConfig{Theme: DefaultTheme},
	}
}

// Addr is the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Load builds a Config from defaults, discovered files, explicitPath (if
// non-empty) and the environment. Flags are applied by the caller afterwards.
func Load(explicitPath string) (*Config, error) {
	cfg := Default()

	if p := findUserConfigFile(); p != "" {
		if err := loadFile(cfg, p); err != nil {
			return nil, fmt.Errorf("loading user config file %s: %w", p, err)
		}
	}
	if p := findProjectConfigFile(); p != "" {
		if err := loadFile(cfg, p); err != nil {
			return nil, fmt.Errorf("loading project config file %s: %w", p, err)
		}
	}
	if explicitPath != "" {
		if err := loadFile(cfg, explicitPath); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", explicitPath, err)
		}
	}
	if err := loadFromEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

// loadFromEnv overrides config from PRIOTODO_* variables.
func loadFromEnv(cfg *Config) error {
	if v := os.Getenv("PRIOTODO_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("PRIOTODO_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PRIOTODO_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("PRIOTODO_BACKEND"); v != "" {
		cfg.Server.Backend = v
	}
	if v := os.Getenv("PRIOTODO_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("PRIOTODO_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("PRIOTODO_SERVER_URL"); v != "" {
		cfg.Client.URL = v
	}
	if v := os.Getenv("PRIOTODO_THEME"); v != "" {
		cfg.UI.Theme = v
	}
	return nil
}

// Validate reports every invalid field at once. client.url is left to
// client.New, which also accepts a bare host:port.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range 1..65535", c.Server.Port))
	}
	if !contains(Backends, c.Server.Backend) {
		errs = append(errs, fmt.Errorf("server.backend %q must be one of %v", c.Server.Backend, Backends))
	}
	if c.Server.ShutdownTimeout.Duration <= 0 {
		errs = append(errs, errors.New("server.shutdown_timeout must be positive"))
	}
	if c.Client.Timeout.Duration <= 0 {
		errs = append(errs, errors.New("client.timeout must be positive"))
	}
	if !contains(Themes, c.UI.Theme) {
		errs = append(errs, fmt.Errorf("ui.theme %q must be one of %v", c.UI.Theme, Themes))
	}
	return errors.Join(errs...)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// findUserConfigFile returns the user-level config path if it exists.
func findUserConfigFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	p := filepath.Join(dir, AppName, AppName+".toml")
	if fileExists(p) {
		return p
	}
	return ""
}

// findProjectConfigFile returns the first project-level config in the
// working directory.
func findProjectConfigFile() string {
	for _, name := range []string{AppName + ".toml", "." + AppName + ".toml"} {
		if fileExists(name) {
			return name
		}
	}
	return ""
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}
