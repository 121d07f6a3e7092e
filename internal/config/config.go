package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"rbcal/internal/timeslots"
)

// ErrEmptyPath is returned by Load and Save when no path is given.
var ErrEmptyPath = errors.New("config path is empty")

// EnvPrefix prefixes the environment variables read by ApplyEnv.
const EnvPrefix = "RBCAL_"

// SourceConfig describes a single ICS source. Exactly one of Path and URL
// is expected.
type SourceConfig struct {
	// ID is an internal identifier used for logging and metrics labels.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label.
	Name string `yaml:"name" json:"name"`
	// Path is a local .ics file.
	Path string `yaml:"path,omitempty" json:"path,omitempty"`
	// URL is an ICS subscription endpoint.
	URL string `yaml:"url,omitempty" json:"url,omitempty"`
	// Resource is assigned to events that carry no resource of their own.
	Resource string `yaml:"resource,omitempty" json:"resource,omitempty"`
}

// Location returns Path or URL, whichever is set.
func (s SourceConfig) Location() string {
	if s.Path != "" {
		return s.Path
	}
	return s.URL
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// ViewConfig configures the day columns and date rows.
type ViewConfig struct {
	// Min and Max bound the visible hours of a day column ("HH:MM").
	// Max may be "24:00".
	Min string `yaml:"min" json:"min"`
	Max string `yaml:"max" json:"max"`

	// Step is the snap step in minutes, split into Timeslots slots.
	Step      int `yaml:"step" json:"step"`
	Timeslots int `yaml:"timeslots" json:"timeslots"`

	// MaxRows caps the event rows of a month cell, one row being kept
	// for "+N more". Zero disables the cap.
	MaxRows int `yaml:"max_rows" json:"max_rows"`
	MinRows int `yaml:"min_rows" json:"min_rows"`

	RTL bool `yaml:"rtl" json:"rtl"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone days are laid out in (e.g. "Europe/Berlin").
	Timezone string `yaml:"timezone" json:"timezone"`

	// WeekStart is "monday" (default) or "sunday".
	WeekStart string `yaml:"week_start" json:"week_start"`

	// RefreshCron is a cron-style schedule string (e.g. "*/15 * * * *")
	// for reloading the sources.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// LogLevel is DEBUG, INFO or ERROR.
	LogLevel string `yaml:"log_level" json:"log_level"`

	View ViewConfig `yaml:"view" json:"view"`

	Sources []SourceConfig `yaml:"sources" json:"sources"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:      "127.0.0.1:8080",
		Timezone:    "UTC",
		WeekStart:   "monday",
		RefreshCron: "*/15 * * * *",
		LogLevel:    "INFO",
		View: ViewConfig{
			Min:       "00:00",
			Max:       "24:00",
			Step:      timeslots.DefaultStep,
			Timeslots: timeslots.DefaultTimeslots,
			MaxRows:   5,
		},
		Sources: []SourceConfig{},
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	switch c.WeekStart {
	case "monday", "sunday":
	default:
		c.WeekStart = "monday"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "*/15 * * * *"
	}
	if c.LogLevel == "" {
		c.LogLevel = "INFO"
	}

	v := &c.View
	if v.Min == "" {
		v.Min = "00:00"
	}
	if v.Max == "" {
		v.Max = "24:00"
	}
	if v.Step <= 0 {
		v.Step = timeslots.DefaultStep
	}
	if v.Timeslots <= 0 {
		v.Timeslots = timeslots.DefaultTimeslots
	}
	if v.MaxRows < 0 {
		v.MaxRows = 0
	}
	if v.MinRows < 0 {
		v.MinRows = 0
	}

	if c.Sources == nil {
		c.Sources = []SourceConfig{}
	}
	for i := range c.Sources {
		if c.Sources[i].ID == "" {
			c.Sources[i].ID = "source-" + strconv.Itoa(i+1)
		}
	}
}

// Validate reports settings that cannot be normalized away.
func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	if _, err := c.View.TimeSlotOptions(time.Now()); err != nil {
		return err
	}
	for _, s := range c.Sources {
		if (s.Path == "") == (s.URL == "") {
			return fmt.Errorf("source %s: exactly one of path and url must be set", s.ID)
		}
	}
	return nil
}

// Location returns the configured timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// FirstWeekday returns the first day of a week row.
func (c *Config) FirstWeekday() time.Weekday {
	if c.WeekStart == "sunday" {
		return time.Sunday
	}
	return time.Monday
}

// TimeSlotOptions converts the view into the options of the day column
// showing date.
func (v ViewConfig) TimeSlotOptions(date time.Time) (timeslots.Options, error) {
	lo, err := parseClock(v.Min)
	if err != nil {
		return timeslots.Options{}, fmt.Errorf("view.min: %w", err)
	}
	hi, err := parseClock(v.Max)
	if err != nil {
		return timeslots.Options{}, fmt.Errorf("view.max: %w", err)
	}
	opts := timeslots.Options{
		Date:      date,
		Min:       lo,
		Max:       hi,
		Step:      v.Step,
		Timeslots: v.Timeslots,
	}
	if err := opts.Validate(); err != nil {
		return timeslots.Options{}, err
	}
	return opts, nil
}

// parseClock parses "HH:MM" into an offset from midnight. "24:00" is the
// end of the day.
func parseClock(s string) (time.Duration, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("invalid time %q, want HH:MM", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q: %w", s, err)
	}
	m, err := strconv.Atoi(mm)
	if err != nil {
		return 0, fmt.Errorf("invalid minute in %q: %w", s, err)
	}
	if h < 0 || m < 0 || m > 59 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("time %q out of range", s)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute, nil
}

// ApplyEnv overrides settings from RBCAL_* variables. getenv is usually
// os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := getenv(EnvPrefix + key); v != "" {
			*dst = v
		}
	}
	set(&c.Listen, "LISTEN")
	set(&c.Timezone, "TIMEZONE")
	set(&c.WeekStart, "WEEK_START")
	set(&c.RefreshCron, "REFRESH")
	set(&c.LogLevel, "LOG_LEVEL")

	user, pass := getenv(EnvPrefix+"BASIC_AUTH_USERNAME"), getenv(EnvPrefix+"BASIC_AUTH_PASSWORD")
	if user != "" && pass != "" {
		c.BasicAuth = &BasicAuthConfig{Username: user, Password: pass}
	}
}

// Load loads configuration from the given YAML path and applies the
// environment overrides.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms (creating the parent directory) and returned.
//   - Otherwise the YAML is read, unmarshalled and normalized.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			cfg.ApplyEnv(os.Getenv)
			cfg.Normalize()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.ApplyEnv(os.Getenv)
	cfg.Normalize()

	return &cfg, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600
// permissions, creating the parent directory with 0700.
func Save(path string, cfg *Config) error {
	if path == "" {
		return ErrEmptyPath
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".rbcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save delegates to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
