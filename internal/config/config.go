// Package config reads eatsdash settings from an optional .env file, the
// environment and command-line flags, in increasing precedence.
package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"eatsdash/internal/models"

	"github.com/joho/godotenv"
)

const appName = "eatsdash"

type Debounce struct {
	Prefix   time.Duration
	Language time.Duration
	Options  time.Duration
}

type Config struct {
	ServerURL       string
	RefreshInterval time.Duration
	HomeLat         string
	HomeLon         string
	LogFile         string
	Discover        bool

	Listen      string
	DBPath      string
	DatabaseURL string
	Fixtures    string

	Debounce Debounce
}

// Load reads .env (if present) and the environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		ServerURL:   getEnv("EATSDASH_SERVER_URL", ""),
		HomeLat:     getEnv("EATSDASH_HOME_LAT", ""),
		HomeLon:     getEnv("EATSDASH_HOME_LON", ""),
		LogFile:     getEnv("EATSDASH_LOG_FILE", ""),
		Listen:      getEnv("EATSDASH_LISTEN", ":8765"),
		DBPath:      getEnv("EATSDASH_DB", ""),
		DatabaseURL: getEnv("EATSDASH_DATABASE_URL", ""),
		Fixtures:    getEnv("EATSDASH_FIXTURES", ""),
	}

	var err error
	if cfg.Discover, err = getBool("EATSDASH_DISCOVER", false); err != nil {
		return cfg, err
	}
	durations := []struct {
		key string
		def time.Duration
		dst *time.Duration
	}{
		{"EATSDASH_REFRESH_INTERVAL", 15 * time.Second, &cfg.RefreshInterval},
		{"EATSDASH_DEBOUNCE_PREFIX", 400 * time.Millisecond, &cfg.Debounce.Prefix},
		{"EATSDASH_DEBOUNCE_LANGUAGE", 600 * time.Millisecond, &cfg.Debounce.Language},
		{"EATSDASH_DEBOUNCE_OPTIONS", 800 * time.Millisecond, &cfg.Debounce.Options},
	}
	for _, d := range durations {
		if *d.dst, err = getDuration(d.key, d.def); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// BindFlags registers flags that override the loaded values.
func (c *Config) BindFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.ServerURL, "server", c.ServerURL, "backend base URL")
	fs.DurationVar(&c.RefreshInterval, "refresh", c.RefreshInterval, "panel refresh interval")
	fs.StringVar(&c.HomeLat, "home-lat", c.HomeLat, "home latitude")
	fs.StringVar(&c.HomeLon, "home-lon", c.HomeLon, "home longitude")
	fs.StringVar(&c.LogFile, "log", c.LogFile, "log file (panel) or empty for the default")
	fs.BoolVar(&c.Discover, "discover", c.Discover, "find the backend over mDNS when -server is empty")
	fs.StringVar(&c.Listen, "listen", c.Listen, "backend listen address")
	fs.StringVar(&c.DBPath, "db", c.DBPath, "backend database path")
	fs.StringVar(&c.DatabaseURL, "database-url", c.DatabaseURL, "optional Postgres URL for order history")
	fs.StringVar(&c.Fixtures, "fixtures", c.Fixtures, "YAML file to seed the backend with")
}

// Home parses the viewer's home coordinate. Both halves or neither.
func (c Config) Home() (*models.Coordinate, error) {
	latS, lonS := strings.TrimSpace(c.HomeLat), strings.TrimSpace(c.HomeLon)
	if latS == "" && lonS == "" {
		return nil, nil
	}
	if latS == "" || lonS == "" {
		return nil, fmt.Errorf("home location needs both latitude and longitude")
	}
	lat, err := strconv.ParseFloat(latS, 64)
	if err != nil || lat < -90 || lat > 90 {
		return nil, fmt.Errorf("invalid home latitude %q", latS)
	}
	lon, err := strconv.ParseFloat(lonS, 64)
	if err != nil || lon < -180 || lon > 180 {
		return nil, fmt.Errorf("invalid home longitude %q", lonS)
	}
	return &models.Coordinate{Lat: lat, Lon: lon}, nil
}

// ResolvedDBPath is DBPath or the per-user default.
func (c Config) ResolvedDBPath() (string, error) {
	if c.DBPath != "" {
		return c.DBPath, nil
	}
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName, "eatsdash.db"), nil
}

// ResolvedLogFile is LogFile or the per-user default for the panel.
func (c Config) ResolvedLogFile() (string, error) {
	if c.LogFile != "" {
		return c.LogFile, nil
	}
	dir := os.Getenv("XDG_STATE_HOME")
	if dir == "" {
		var err error
		if dir, err = dataDir(); err != nil {
			return "", err
		}
	}
	return filepath.Join(dir, appName, "panel.log"), nil
}

func dataDir() (string, error) {
	switch runtime.GOOS {
	case "windows":
		if dir := os.Getenv("APPDATA"); dir != "" {
			return dir, nil
		}
		return filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming"), nil
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support"), nil
	default:
		if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
			return dir, nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".local", "share"), nil
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) (bool, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return fallback, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}
