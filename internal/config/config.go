package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config is the resolved client configuration.
type Config struct {
	APIBind          string
	LogFile          string
	CacheDir         string
	RequestTimeout   time.Duration
	ReconnectBase    time.Duration
	UploadClearDelay time.Duration
	MediaSession     bool
}

const (
	defaultConfigPath       = "~/.config/tonearm/config.toml"
	defaultAPIBind          = "127.0.0.1:8080"
	defaultLogFile          = "~/.local/state/tonearm/tonearm.log"
	defaultCacheDir         = "~/.cache/tonearm"
	defaultRequestTimeout   = 10 * time.Second
	defaultReconnectBase    = time.Second
	defaultUploadClearDelay = 3 * time.Second
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIBind:          defaultAPIBind,
		LogFile:          MustExpand(defaultLogFile),
		CacheDir:         MustExpand(defaultCacheDir),
		RequestTimeout:   defaultRequestTimeout,
		ReconnectBase:    defaultReconnectBase,
		UploadClearDelay: defaultUploadClearDelay,
		MediaSession:     true,
	}
}

// Load reads the config at path (or the default location), falling back to
// defaults for a missing file and for blank values.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIBind          string `toml:"api_bind"`
		LogFile          string `toml:"log_file"`
		CacheDir         string `toml:"cache_dir"`
		RequestTimeout   string `toml:"request_timeout"`
		ReconnectBase    string `toml:"reconnect_base"`
		UploadClearDelay string `toml:"upload_clear_delay"`
		MediaSession     *bool  `toml:"media_session"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIBind); v != "" {
		cfg.APIBind = v
	}
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = MustExpand(v)
	}
	if v := strings.TrimSpace(raw.CacheDir); v != "" {
		cfg.CacheDir = MustExpand(v)
	}
	if raw.MediaSession != nil {
		cfg.MediaSession = *raw.MediaSession
	}

	durations := []struct {
		key   string
		value string
		dst   *time.Duration
	}{
		{"request_timeout", raw.RequestTimeout, &cfg.RequestTimeout},
		{"reconnect_base", raw.ReconnectBase, &cfg.ReconnectBase},
		{"upload_clear_delay", raw.UploadClearDelay, &cfg.UploadClearDelay},
	}
	for _, d := range durations {
		v := strings.TrimSpace(d.value)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", d.key, err)
		}
		if parsed <= 0 {
			return Config{}, fmt.Errorf("parse %s: must be positive, got %s", d.key, v)
		}
		*d.dst = parsed
	}

	return cfg, nil
}

// LogoCachePath returns the bbolt file backing the stream logo cache.
func (c Config) LogoCachePath() string {
	dir := strings.TrimSpace(c.CacheDir)
	if dir == "" {
		dir = MustExpand(defaultCacheDir)
	}
	return filepath.Join(dir, "logos.db")
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return ExpandPath(defaultConfigPath)
	}
	return ExpandPath(path)
}

// MustExpand is ExpandPath that returns path unchanged on failure.
func MustExpand(path string) string {
	expanded, err := ExpandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

// ExpandPath trims path, expands a leading ~ and makes it absolute.
func ExpandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
