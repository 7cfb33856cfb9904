package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	APIURL          string        `yaml:"apiUrl"`
	APIToken        string        `yaml:"apiToken"`
	Port            string        `yaml:"port"`
	DBPath          string        `yaml:"dbPath"`
	AdminToken      string        `yaml:"adminToken"`
	HTTPTimeout     time.Duration `yaml:"httpTimeout"`
	PollInterval    time.Duration `yaml:"pollInterval"`
	PollMaxInterval time.Duration `yaml:"pollMaxInterval"`
	DraftTTL        time.Duration `yaml:"draftTtl"`
	MembersLimit    int           `yaml:"membersLimit"`
	MembersRefresh  time.Duration `yaml:"membersRefresh"`
	CORS            bool          `yaml:"cors"`
	LogLevel        string        `yaml:"logLevel"`
	LogFormat       string        `yaml:"logFormat"`
}

func Default() Config {
	return Config{
		APIURL:          "http://localhost:8080/api/v1",
		Port:            ":3001",
		DBPath:          "lmsadmin.db",
		HTTPTimeout:     5 * time.Second,
		PollInterval:    3 * time.Second,
		PollMaxInterval: 30 * time.Second,
		DraftTTL:        30 * time.Minute,
		MembersLimit:    100,
		MembersRefresh:  5 * time.Minute,
		CORS:            true,
		LogLevel:        "info",
		LogFormat:       "text",
	}
}

// Load starts from Default, overlays the YAML file named by LMS_CONFIG when
// set, then applies LMS_* environment variables.
func Load() (Config, error) {
	c := Default()
	if path := os.Getenv("LMS_CONFIG"); path != "" {
		if err := c.loadFile(path); err != nil {
			return c, err
		}
	}
	if err := c.loadEnv(); err != nil {
		return c, err
	}
	return c, c.Validate()
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadEnv() error {
	strs := map[string]*string{
		"LMS_API_URL":     &c.APIURL,
		"LMS_API_TOKEN":   &c.APIToken,
		"LMS_PORT":        &c.Port,
		"LMS_DB_PATH":     &c.DBPath,
		"LMS_ADMIN_TOKEN": &c.AdminToken,
		"LMS_LOG_LEVEL":   &c.LogLevel,
		"LMS_LOG_FORMAT":  &c.LogFormat,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"LMS_HTTP_TIMEOUT":      &c.HTTPTimeout,
		"LMS_POLL_INTERVAL":     &c.PollInterval,
		"LMS_POLL_MAX_INTERVAL": &c.PollMaxInterval,
		"LMS_DRAFT_TTL":         &c.DraftTTL,
		"LMS_MEMBERS_REFRESH":   &c.MembersRefresh,
	}
	for key, dst := range durations {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
	}

	if v := os.Getenv("LMS_MEMBERS_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LMS_MEMBERS_LIMIT: %w", err)
		}
		c.MembersLimit = n
	}
	if v := os.Getenv("LMS_CORS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("LMS_CORS: %w", err)
		}
		c.CORS = b
	}
	return nil
}

func (c Config) Validate() error {
	if !strings.HasPrefix(c.APIURL, "http://") && !strings.HasPrefix(c.APIURL, "https://") {
		return fmt.Errorf("api url must be http(s): %q", c.APIURL)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}
	if c.PollMaxInterval < c.PollInterval {
		return fmt.Errorf("poll max interval %s is below poll interval %s", c.PollMaxInterval, c.PollInterval)
	}
	if c.DraftTTL <= 0 {
		return fmt.Errorf("draft ttl must be positive")
	}
	if c.MembersRefresh <= 0 {
		return fmt.Errorf("members refresh must be positive")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be positive")
	}
	if c.MembersLimit < 0 {
		return fmt.Errorf("members limit must not be negative")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format: %q (text or json)", c.LogFormat)
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level: %q", c.LogLevel)
	}
	return l, nil
}

// NewLogger builds the process logger from LogLevel and LogFormat.
func (c Config) NewLogger() *slog.Logger {
	level, err := c.Level()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
