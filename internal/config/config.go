package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/validate"
	"github.com/BurntSushi/toml"
)

// Routes are the endpoint paths of the session server, relative to BaseURL.
type Routes struct {
	CSRF   string `toml:"csrf"`
	Login  string `toml:"login"`
	Logout string `toml:"logout"`
	Me     string `toml:"me"`
}

type Config struct {
	BaseURL         string `toml:"base_url"`
	XSRFCookieName  string `toml:"xsrf_cookie_name"`
	StoreModuleName string `toml:"store_module_name"`
	Routes          Routes `toml:"routes"`

	UserAgent          string `toml:"user_agent"`
	RequestTimeoutSecs int    `toml:"request_timeout_secs"`

	CacheDir string `toml:"cache_dir"`
	DBPath   string `toml:"db_path"`
	LogPath  string `toml:"log_path"`
	Verbose  bool   `toml:"verbose"`
}

func Default() Config {
	cacheDir := filepath.Join(userConfigDir(), "sanctum")
	return Config{
		BaseURL:         "http://localhost:8000",
		XSRFCookieName:  "XSRF-TOKEN",
		StoreModuleName: "sanctum",
		Routes: Routes{
			CSRF:   "sanctum/csrf-cookie",
			Login:  "login",
			Logout: "logout",
			Me:     "me",
		},
		UserAgent:          "sanctum/1.0",
		RequestTimeoutSecs: 10,
		CacheDir:           cacheDir,
		DBPath:             filepath.Join(cacheDir, "cache.db"),
		LogPath:            filepath.Join(cacheDir, "debug.log"),
	}
}

// Load reads the TOML file at path over the defaults and applies the
// environment overrides.  A missing file is not an error.
func Load(path string) (cfg Config, err error) {
	defer func() { err = errors.Annotate(err, "loading config: %w") }()

	cfg = Default()
	if path != "" {
		_, err = toml.DecodeFile(path, &cfg)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("decoding %q: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()

	return cfg, cfg.Validate()
}

// ApplyEnvOverrides overrides fields from SANCTUM_* environment variables.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("SANCTUM_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("SANCTUM_XSRF_COOKIE"); v != "" {
		c.XSRFCookieName = v
	}
	if v := os.Getenv("SANCTUM_LOG_VERBOSE"); v != "" {
		c.Verbose, _ = strconv.ParseBool(v)
	}
}

// Validate returns an error if the configuration can't be used.
func (c *Config) Validate() (err error) {
	errs := []error{
		validate.NotEmpty("base_url", c.BaseURL),
		validate.NotEmpty("xsrf_cookie_name", c.XSRFCookieName),
		validate.NotEmpty("store_module_name", c.StoreModuleName),
		validate.NotNegative("request_timeout_secs", c.RequestTimeoutSecs),
		validate.NotEmpty("db_path", c.DBPath),
	}

	if c.BaseURL != "" {
		u, parseErr := url.Parse(c.BaseURL)
		switch {
		case parseErr != nil:
			errs = append(errs, fmt.Errorf("base_url: %w", parseErr))
		case u.Scheme != "http" && u.Scheme != "https":
			errs = append(errs, fmt.Errorf("base_url: scheme %q: %w", u.Scheme, errors.ErrBadEnumValue))
		case u.Host == "":
			errs = append(errs, fmt.Errorf("base_url: host: %w", errors.ErrEmptyValue))
		}
	}

	return errors.Join(errs...)
}

// ParsedBaseURL returns BaseURL as a URL.  It must only be called on a valid
// configuration.
func (c *Config) ParsedBaseURL() *url.URL {
	u, _ := url.Parse(c.BaseURL)
	return u
}

// RequestTimeout returns the per-request timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSecs) * time.Second
}

func userConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config")
}
