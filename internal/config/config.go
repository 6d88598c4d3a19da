// internal/config/config.go
//
// This package handles configuration and the .orderdesk directory structure.
// Every directory the desk runs from gets a .orderdesk/ folder holding the
// config file, logs and small bits of persisted state.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// DeskDir is the name of the directory we create in the working directory.
	DeskDir = ".orderdesk"

	defaultBaseURL         = "http://localhost:8080/api"
	defaultTimeout         = 15 * time.Second
	defaultView            = "pending"
	defaultPageSize        = 10
	maxPageSize            = 100
	defaultDashboardPoll   = 30 * time.Second
	defaultTrackingPoll    = 30 * time.Second
	defaultEstimateMinutes = 30
	defaultOrderTypeTTL    = 5 * time.Minute
	minimumPollInterval    = time.Second
	envFileName            = ".env"
	envBaseURL             = "ORDERDESK_API_URL"
	envToken               = "ORDERDESK_API_TOKEN"
	envTimeout             = "ORDERDESK_API_TIMEOUT"
	envView                = "ORDERDESK_VIEW"
	envPageSize            = "ORDERDESK_PAGE_SIZE"
)

const defaultProjectConfigYAML = `# orderdesk configuration
version: 1

# Order API. The token may also come from ORDERDESK_API_TOKEN or a .env file.
api:
  base_url: http://localhost:8080/api
  timeout: 15s

# Staff dashboard.
dashboard:
  # pending, branch or deleted
  default_view: pending
  page_size: 10
  poll_interval: 30s

# Customer tracking view.
tracking:
  poll_interval: 30s
  default_estimate_minutes: 30

cache:
  order_type_ttl: 5m
`

// Duration is a time.Duration that reads and writes as "30s" in YAML.
type Duration time.Duration

// UnmarshalYAML accepts Go duration strings or a bare number of seconds.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	value := strings.TrimSpace(node.Value)
	if value == "" {
		*d = 0
		return nil
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		*d = Duration(time.Duration(seconds) * time.Second)
		return nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid duration %q", value)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML writes the duration in Go notation.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std converts to time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// APIConfig points the desk at the order API.
type APIConfig struct {
	BaseURL string   `yaml:"base_url"`
	Token   string   `yaml:"token,omitempty"`
	Timeout Duration `yaml:"timeout"`
}

// DashboardConfig captures dashboard preferences.
type DashboardConfig struct {
	DefaultView  string   `yaml:"default_view"`
	PageSize     int      `yaml:"page_size"`
	PollInterval Duration `yaml:"poll_interval"`
}

// TrackingConfig tunes the customer tracking view.
type TrackingConfig struct {
	PollInterval           Duration `yaml:"poll_interval"`
	DefaultEstimateMinutes int      `yaml:"default_estimate_minutes"`
}

// CacheConfig tunes the order-type cache.
type CacheConfig struct {
	OrderTypeTTL Duration `yaml:"order_type_ttl"`
}

// ProjectConfig models .orderdesk/config.yaml.
type ProjectConfig struct {
	Version   int             `yaml:"version"`
	API       APIConfig       `yaml:"api"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Tracking  TrackingConfig  `yaml:"tracking"`
	Cache     CacheConfig     `yaml:"cache"`
}

// Config holds the runtime configuration for the desk.
type Config struct {
	// ProjectDir is the directory where the user ran `orderdesk` from
	ProjectDir string

	// DeskProjectDir is ProjectDir/.orderdesk
	DeskProjectDir string

	Project ProjectConfig

	// onDisk is config.yaml as read, without environment overrides. Saves
	// write this copy.
	onDisk ProjectConfig
}

// InitDeskDir creates the .orderdesk directory structure in the given
// directory and writes a commented default config.yaml if none exists.
//
// .orderdesk/
// ├── config.yaml
// └── logs/     <- diagnostic log and staff activity journal
func InitDeskDir(projectDir string) error {
	deskDir := filepath.Join(projectDir, DeskDir)
	if err := os.MkdirAll(filepath.Join(deskDir, "logs"), 0o755); err != nil {
		return err
	}
	return ensureProjectConfig(filepath.Join(deskDir, "config.yaml"))
}

// NewConfig loads .env (when present), then config.yaml, then environment
// overrides. Environment variables already set win over .env entries.
func NewConfig(projectDir string) (*Config, error) {
	if err := loadDotEnv(filepath.Join(projectDir, envFileName)); err != nil {
		return nil, err
	}
	cfg := &Config{
		ProjectDir:     projectDir,
		DeskProjectDir: filepath.Join(projectDir, DeskDir),
		Project:        defaultProjectConfig(),
	}
	cfg.onDisk = cfg.Project
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	cfg.Project.applyEnvOverrides()
	cfg.Project.normalize()
	if err := cfg.Project.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.DeskProjectDir, "logs")
}

// ActivityLogPath is the staff activity journal.
func (c *Config) ActivityLogPath() string {
	return filepath.Join(c.LogsDir(), "activity.log")
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.DeskProjectDir, "config.yaml")
}

// BaseURL of the order API.
func (c *Config) BaseURL() string { return c.Project.API.BaseURL }

// Token is the bearer token, possibly empty.
func (c *Config) Token() string { return c.Project.API.Token }

// Timeout bounds one API round trip.
func (c *Config) Timeout() time.Duration { return c.Project.API.Timeout.Std() }

// DefaultView is the dashboard tab shown at startup.
func (c *Config) DefaultView() string { return c.Project.Dashboard.DefaultView }

// PageSize is the initial number of rows per page.
func (c *Config) PageSize() int { return c.Project.Dashboard.PageSize }

// DashboardPollInterval is the background refresh period of the list.
func (c *Config) DashboardPollInterval() time.Duration {
	return c.Project.Dashboard.PollInterval.Std()
}

// TrackingPollInterval is the re-poll period of the tracking view.
func (c *Config) TrackingPollInterval() time.Duration {
	return c.Project.Tracking.PollInterval.Std()
}

// DefaultEstimateMinutes is used when neither the tracking response nor the
// order type carries an estimate.
func (c *Config) DefaultEstimateMinutes() int {
	return c.Project.Tracking.DefaultEstimateMinutes
}

// OrderTypeTTL is the order-type cache lifetime.
func (c *Config) OrderTypeTTL() time.Duration { return c.Project.Cache.OrderTypeTTL.Std() }

// SetDefaultView updates the startup tab and persists it back to
// .orderdesk/config.yaml.
func (c *Config) SetDefaultView(view string) error {
	view = strings.ToLower(strings.TrimSpace(view))
	if !validView(view) {
		return fmt.Errorf("config: unknown view %q", view)
	}
	c.Project.Dashboard.DefaultView = view
	c.onDisk.Dashboard.DefaultView = view
	return c.saveProjectConfig()
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	parsed := defaultProjectConfig()
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	c.onDisk = parsed
	return nil
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version: 1,
		API: APIConfig{
			BaseURL: defaultBaseURL,
			Timeout: Duration(defaultTimeout),
		},
		Dashboard: DashboardConfig{
			DefaultView:  defaultView,
			PageSize:     defaultPageSize,
			PollInterval: Duration(defaultDashboardPoll),
		},
		Tracking: TrackingConfig{
			PollInterval:           Duration(defaultTrackingPoll),
			DefaultEstimateMinutes: defaultEstimateMinutes,
		},
		Cache: CacheConfig{OrderTypeTTL: Duration(defaultOrderTypeTTL)},
	}
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if pc.API.Timeout <= 0 {
		pc.API.Timeout = Duration(defaultTimeout)
	}
	if pc.Dashboard.PageSize == 0 {
		pc.Dashboard.PageSize = defaultPageSize
	}
	if pc.Dashboard.PollInterval == 0 {
		pc.Dashboard.PollInterval = Duration(defaultDashboardPoll)
	}
	if pc.Tracking.PollInterval == 0 {
		pc.Tracking.PollInterval = Duration(defaultTrackingPoll)
	}
	if pc.Tracking.DefaultEstimateMinutes == 0 {
		pc.Tracking.DefaultEstimateMinutes = defaultEstimateMinutes
	}
	if pc.Cache.OrderTypeTTL == 0 {
		pc.Cache.OrderTypeTTL = Duration(defaultOrderTypeTTL)
	}
}

func (pc *ProjectConfig) applyEnvOverrides() {
	if value := strings.TrimSpace(os.Getenv(envBaseURL)); value != "" {
		pc.API.BaseURL = value
	}
	if value := strings.TrimSpace(os.Getenv(envToken)); value != "" {
		pc.API.Token = value
	}
	if value := strings.TrimSpace(os.Getenv(envTimeout)); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil && parsed > 0 {
			pc.API.Timeout = Duration(parsed)
		}
	}
	if value := strings.TrimSpace(os.Getenv(envView)); value != "" {
		pc.Dashboard.DefaultView = value
	}
	if value := strings.TrimSpace(os.Getenv(envPageSize)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			pc.Dashboard.PageSize = parsed
		}
	}
}

func (pc *ProjectConfig) normalize() {
	pc.API.BaseURL = strings.TrimRight(strings.TrimSpace(pc.API.BaseURL), "/")
	if pc.API.BaseURL == "" {
		pc.API.BaseURL = defaultBaseURL
	}
	pc.API.Token = strings.TrimSpace(pc.API.Token)
	pc.Dashboard.DefaultView = strings.ToLower(strings.TrimSpace(pc.Dashboard.DefaultView))
	if pc.Dashboard.DefaultView == "" {
		pc.Dashboard.DefaultView = defaultView
	}
	if pc.Dashboard.PageSize > maxPageSize {
		pc.Dashboard.PageSize = maxPageSize
	}
	if pc.Dashboard.PollInterval > 0 && pc.Dashboard.PollInterval < Duration(minimumPollInterval) {
		pc.Dashboard.PollInterval = Duration(minimumPollInterval)
	}
	if pc.Tracking.PollInterval > 0 && pc.Tracking.PollInterval < Duration(minimumPollInterval) {
		pc.Tracking.PollInterval = Duration(minimumPollInterval)
	}
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	parsed, err := url.Parse(pc.API.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute URL, got %q", pc.API.BaseURL)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("api.base_url scheme must be http or https")
	}
	if !validView(pc.Dashboard.DefaultView) {
		return fmt.Errorf("dashboard.default_view must be pending, branch or deleted")
	}
	if pc.Dashboard.PageSize < 1 {
		return fmt.Errorf("dashboard.page_size must be positive")
	}
	if pc.Dashboard.PollInterval < 0 || pc.Tracking.PollInterval < 0 {
		return fmt.Errorf("poll intervals must not be negative")
	}
	if pc.Tracking.DefaultEstimateMinutes < 0 {
		return fmt.Errorf("tracking.default_estimate_minutes must not be negative")
	}
	if pc.Cache.OrderTypeTTL < 0 {
		return fmt.Errorf("cache.order_type_ttl must not be negative")
	}
	return nil
}

func validView(view string) bool {
	switch view {
	case "pending", "branch", "deleted":
		return true
	default:
		return false
	}
}

// loadDotEnv reads path into the environment without overriding variables
// that are already set. A missing file is not an error.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("config: load %s: %w", path, err)
	}
	return nil
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0o644)
}

func (c *Config) saveProjectConfig() error {
	if c == nil {
		return fmt.Errorf("config: nil receiver")
	}
	c.onDisk.applyDefaults()
	c.onDisk.normalize()
	if err := c.onDisk.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := os.MkdirAll(c.DeskProjectDir, 0o755); err != nil {
		return fmt.Errorf("config: ensure desk dir: %w", err)
	}
	data, err := yaml.Marshal(c.onDisk)
	if err != nil {
		return fmt.Errorf("config: encode config: %w", err)
	}
	if err := os.WriteFile(c.ProjectConfigPath(), data, 0o644); err != nil {
		return fmt.Errorf("config: write project config: %w", err)
	}
	return nil
}
