package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/Netflix/go-env"
)

// AdminConfig holds the admin command interface configuration
type AdminConfig struct {
	// ExecutablePath is the path to the admin command-line tool
	ExecutablePath string `json:"executable_path,omitempty" env:"SAFERESTART_ADMIN_EXECUTABLE"`

	// Username is the admin console user
	Username string `json:"username,omitempty" env:"SAFERESTART_ADMIN_USERNAME"`

	// Password is the admin console password
	Password string `json:"password,omitempty" env:"SAFERESTART_ADMIN_PASSWORD"`

	// ClosedMarker is the text the close command prints once per closed resource
	ClosedMarker string `json:"closed_marker,omitempty" env:"SAFERESTART_ADMIN_CLOSED_MARKER"`

	// SkipResourceTracking disables the open-resource listing before close and during confirmation
	SkipResourceTracking bool `json:"skip_resource_tracking,omitempty" env:"SAFERESTART_ADMIN_SKIP_RESOURCE_TRACKING"`

	// AdminServerName is the admin tool's name for the admin subsystem
	AdminServerName string `json:"admin_server_name,omitempty" env:"SAFERESTART_ADMIN_ADMIN_SERVER_NAME"`

	// MainServerName is the admin tool's name for the database subsystem
	MainServerName string `json:"main_server_name,omitempty" env:"SAFERESTART_ADMIN_MAIN_SERVER_NAME"`

	// CommandTimeoutSec bounds a single admin invocation, 0 disables the bound
	CommandTimeoutSec int `json:"command_timeout_seconds,omitempty" env:"SAFERESTART_ADMIN_COMMAND_TIMEOUT_SECONDS"`
}

// FlagConfig holds restart flag configuration
type FlagConfig struct {
	// Path is the marker file whose existence means a restart is pending
	Path string `json:"path,omitempty" env:"SAFERESTART_FLAG_PATH"`
}

// ConfirmConfig holds post-restart quiescence confirmation configuration
type ConfirmConfig struct {
	// PollIntervalSec is the delay between quiescence checks
	PollIntervalSec int `json:"poll_interval_seconds,omitempty" env:"SAFERESTART_CONFIRM_POLL_INTERVAL_SECONDS"`

	// TimeoutSec bounds the confirmation phase, 0 waits until cancelled
	TimeoutSec int `json:"timeout_seconds,omitempty" env:"SAFERESTART_CONFIRM_TIMEOUT_SECONDS"`

	// ExpectReopened expects the server to reopen every closed resource on start
	ExpectReopened bool `json:"expect_reopened,omitempty" env:"SAFERESTART_CONFIRM_EXPECT_REOPENED"`
}

// HistoryConfig holds run history configuration
type HistoryConfig struct {
	// Disabled turns off run history recording
	Disabled bool `json:"disabled,omitempty" env:"SAFERESTART_HISTORY_DISABLED"`

	// DatabasePath is the SQLite database file, empty selects the default state directory
	DatabasePath string `json:"database_path,omitempty" env:"SAFERESTART_HISTORY_DB_PATH"`
}

// PrometheusConfig holds Prometheus Remote Write configuration
type PrometheusConfig struct {
	// RemoteWriteURL is the Prometheus Remote Write endpoint URL
	RemoteWriteURL string `json:"remote_write_url,omitempty" env:"SAFERESTART_PROMETHEUS_REMOTE_WRITE_URL"`

	// RemoteWriteUsername is the username for Remote Write authentication
	RemoteWriteUsername string `json:"remote_write_username,omitempty" env:"SAFERESTART_PROMETHEUS_REMOTE_WRITE_USERNAME"`

	// RemoteWritePassword is the password for Remote Write authentication
	RemoteWritePassword string `json:"remote_write_password,omitempty" env:"SAFERESTART_PROMETHEUS_REMOTE_WRITE_PASSWORD"`

	// HostLabel is the host label value for metrics
	HostLabel string `json:"host_label,omitempty" env:"SAFERESTART_PROMETHEUS_HOST_LABEL"`

	// TimeoutSec is the timeout in seconds for metric pushes
	TimeoutSec int `json:"timeout_seconds,omitempty" env:"SAFERESTART_PROMETHEUS_TIMEOUT_SECONDS"`
}

// CloudWatchConfig holds AWS CloudWatch metrics configuration
type CloudWatchConfig struct {
	// Enabled indicates if run metrics are published to CloudWatch
	Enabled bool `json:"enabled,omitempty" env:"SAFERESTART_CLOUDWATCH_ENABLED"`

	// Region is the AWS region to publish to
	Region string `json:"region,omitempty" env:"SAFERESTART_CLOUDWATCH_REGION"`

	// Namespace is the CloudWatch metric namespace
	Namespace string `json:"namespace,omitempty" env:"SAFERESTART_CLOUDWATCH_NAMESPACE"`

	// AWSProfile is the AWS profile to use (optional)
	AWSProfile string `json:"aws_profile,omitempty" env:"SAFERESTART_CLOUDWATCH_AWS_PROFILE"`
}

// PromtailConfig holds Promtail logging configuration
type PromtailConfig struct {
	// URL is the Promtail push endpoint URL
	URL string `json:"url,omitempty" env:"SAFERESTART_LOKI_URL"`

	// Username is the username for basic authentication
	Username string `json:"username,omitempty" env:"SAFERESTART_LOKI_USERNAME"`

	// Password is the password for basic authentication
	Password string `json:"password,omitempty" env:"SAFERESTART_LOKI_PASSWORD"`

	// BatchWaitSeconds is the time to wait before sending a batch
	BatchWaitSeconds int `json:"batch_wait_seconds,omitempty" env:"SAFERESTART_LOKI_BATCH_WAIT_SECONDS"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error)
	Level string `json:"level,omitempty" env:"SAFERESTART_LOG_LEVEL"`

	// Debug mirrors every log line to stdout
	Debug bool `json:"debug,omitempty" env:"SAFERESTART_LOG_DEBUG"`

	// Promtail holds Promtail configuration
	Promtail *PromtailConfig `json:"promtail,omitempty"`
}

// ConfigSource represents the source of a configuration value
type ConfigSource string

const (
	SourceDefault     ConfigSource = "default"
	SourceJSONFile    ConfigSource = "json"
	SourceEnvironment ConfigSource = "env"
)

// ConfigSourceMap tracks the source of each configuration field
type ConfigSourceMap map[string]ConfigSource

// AppConfig holds application configuration
type AppConfig struct {
	// Version is the configuration schema version
	Version int `json:"version,omitempty"`

	Admin      *AdminConfig      `json:"admin,omitempty"`
	Flag       *FlagConfig       `json:"flag,omitempty"`
	Confirm    *ConfirmConfig    `json:"confirm,omitempty"`
	History    *HistoryConfig    `json:"history,omitempty"`
	Prometheus *PrometheusConfig `json:"prometheus,omitempty"`
	CloudWatch *CloudWatchConfig `json:"cloudwatch,omitempty"`
	Logging    *LoggingConfig    `json:"logging,omitempty"`

	// ConfigSources tracks the source of each configuration field
	ConfigSources ConfigSourceMap `json:"-"`
}

// envFields maps tracked field names to the environment variable overriding them
var envFields = []struct {
	field string
	env   string
}{
	{"Admin.ExecutablePath", "SAFERESTART_ADMIN_EXECUTABLE"},
	{"Admin.Username", "SAFERESTART_ADMIN_USERNAME"},
	{"Admin.Password", "SAFERESTART_ADMIN_PASSWORD"},
	{"Admin.ClosedMarker", "SAFERESTART_ADMIN_CLOSED_MARKER"},
	{"Admin.SkipResourceTracking", "SAFERESTART_ADMIN_SKIP_RESOURCE_TRACKING"},
	{"Admin.AdminServerName", "SAFERESTART_ADMIN_ADMIN_SERVER_NAME"},
	{"Admin.MainServerName", "SAFERESTART_ADMIN_MAIN_SERVER_NAME"},
	{"Admin.CommandTimeoutSec", "SAFERESTART_ADMIN_COMMAND_TIMEOUT_SECONDS"},
	{"Flag.Path", "SAFERESTART_FLAG_PATH"},
	{"Confirm.PollIntervalSec", "SAFERESTART_CONFIRM_POLL_INTERVAL_SECONDS"},
	{"Confirm.TimeoutSec", "SAFERESTART_CONFIRM_TIMEOUT_SECONDS"},
	{"Confirm.ExpectReopened", "SAFERESTART_CONFIRM_EXPECT_REOPENED"},
	{"History.Disabled", "SAFERESTART_HISTORY_DISABLED"},
	{"History.DatabasePath", "SAFERESTART_HISTORY_DB_PATH"},
	{"Prometheus.RemoteWriteURL", "SAFERESTART_PROMETHEUS_REMOTE_WRITE_URL"},
	{"Prometheus.RemoteWriteUsername", "SAFERESTART_PROMETHEUS_REMOTE_WRITE_USERNAME"},
	{"Prometheus.RemoteWritePassword", "SAFERESTART_PROMETHEUS_REMOTE_WRITE_PASSWORD"},
	{"Prometheus.HostLabel", "SAFERESTART_PROMETHEUS_HOST_LABEL"},
	{"Prometheus.TimeoutSec", "SAFERESTART_PROMETHEUS_TIMEOUT_SECONDS"},
	{"CloudWatch.Enabled", "SAFERESTART_CLOUDWATCH_ENABLED"},
	{"CloudWatch.Region", "SAFERESTART_CLOUDWATCH_REGION"},
	{"CloudWatch.Namespace", "SAFERESTART_CLOUDWATCH_NAMESPACE"},
	{"CloudWatch.AWSProfile", "SAFERESTART_CLOUDWATCH_AWS_PROFILE"},
	{"Logging.Level", "SAFERESTART_LOG_LEVEL"},
	{"Logging.Debug", "SAFERESTART_LOG_DEBUG"},
	{"Promtail.URL", "SAFERESTART_LOKI_URL"},
	{"Promtail.Username", "SAFERESTART_LOKI_USERNAME"},
	{"Promtail.Password", "SAFERESTART_LOKI_PASSWORD"},
	{"Promtail.BatchWaitSeconds", "SAFERESTART_LOKI_BATCH_WAIT_SECONDS"},
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Version: 1,
		Admin: &AdminConfig{
			ExecutablePath:    "/usr/local/bin/fmsadmin",
			ClosedMarker:      "File Closed",
			AdminServerName:   "adminserver",
			MainServerName:    "server",
			CommandTimeoutSec: 300,
		},
		Flag: &FlagConfig{
			Path: "/var/tmp/saferestart/restart.pending",
		},
		Confirm: &ConfirmConfig{
			PollIntervalSec: 5,
			TimeoutSec:      900, // 15 minutes
		},
		History: &HistoryConfig{},
		Prometheus: &PrometheusConfig{
			TimeoutSec: 30,
		},
		CloudWatch: &CloudWatchConfig{
			Region:    "us-east-1",
			Namespace: "SafeRestart",
		},
		Logging: &LoggingConfig{
			Level: "info",
			Promtail: &PromtailConfig{
				BatchWaitSeconds: 1,
			},
		},
		ConfigSources: make(ConfigSourceMap),
	}
}

// MinimalDefaultConfig returns the template written on first run
func MinimalDefaultConfig() *AppConfig {
	cfg := DefaultConfig()
	cfg.History = nil
	cfg.CloudWatch = nil
	return cfg
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*AppConfig, error) {
	config := DefaultConfig()

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// LoadFromEnv loads configuration from environment variables using Netflix/go-env.
// Fields without a matching variable keep their current value.
func (c *AppConfig) LoadFromEnv() error {
	c.ensureSections()

	targets := []struct {
		name string
		v    interface{}
	}{
		{"Admin", c.Admin},
		{"Flag", c.Flag},
		{"Confirm", c.Confirm},
		{"History", c.History},
		{"Prometheus", c.Prometheus},
		{"CloudWatch", c.CloudWatch},
		{"Logging", c.Logging},
		{"Promtail", c.Logging.Promtail},
	}
	for _, t := range targets {
		if _, err := env.UnmarshalFromEnviron(t.v); err != nil {
			return fmt.Errorf("failed to unmarshal %s environment variables: %w", t.name, err)
		}
	}

	if c.ConfigSources == nil {
		c.ConfigSources = make(ConfigSourceMap)
	}
	for _, f := range envFields {
		if _, ok := os.LookupEnv(f.env); ok {
			c.ConfigSources[f.field] = SourceEnvironment
		}
	}

	return nil
}

// ensureSections fills nil sections with defaults so callers never nil-check
func (c *AppConfig) ensureSections() {
	def := DefaultConfig()
	if c.Admin == nil {
		c.Admin = def.Admin
	}
	if c.Flag == nil {
		c.Flag = def.Flag
	}
	if c.Confirm == nil {
		c.Confirm = def.Confirm
	}
	if c.History == nil {
		c.History = def.History
	}
	if c.Prometheus == nil {
		c.Prometheus = def.Prometheus
	}
	if c.CloudWatch == nil {
		c.CloudWatch = def.CloudWatch
	}
	if c.Logging == nil {
		c.Logging = def.Logging
	}
	if c.Logging.Promtail == nil {
		c.Logging.Promtail = def.Logging.Promtail
	}
}

// Validate validates the configuration
func (c *AppConfig) Validate() error {
	validators := []func() error{
		c.validateAdmin,
		c.validateFlag,
		c.validateConfirm,
		c.validatePrometheus,
		c.validateCloudWatch,
		c.validateLogging,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

// ValidateForRun checks the values a restart run cannot proceed without.
// Status and trigger invocations only need Validate.
func (c *AppConfig) ValidateForRun() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Admin == nil || c.Admin.ExecutablePath == "" {
		return fmt.Errorf("admin executable path is required")
	}
	if c.Admin.Username == "" || c.Admin.Password == "" {
		return fmt.Errorf("admin username and password are required")
	}
	return nil
}

// validateAdmin validates Admin configuration
func (c *AppConfig) validateAdmin() error {
	if c.Admin == nil {
		return nil
	}

	if strings.TrimSpace(c.Admin.ClosedMarker) == "" {
		return fmt.Errorf("admin closed marker cannot be empty")
	}

	if c.Admin.AdminServerName == "" || c.Admin.MainServerName == "" {
		return fmt.Errorf("admin subsystem names cannot be empty")
	}

	if c.Admin.AdminServerName == c.Admin.MainServerName {
		return fmt.Errorf("admin subsystem names must differ")
	}

	if c.Admin.CommandTimeoutSec < 0 {
		return fmt.Errorf("admin command timeout cannot be negative")
	}

	return nil
}

// validateFlag validates Flag configuration
func (c *AppConfig) validateFlag() error {
	if c.Flag == nil {
		return nil
	}

	if c.Flag.Path == "" {
		return fmt.Errorf("restart flag path cannot be empty")
	}

	if strings.HasSuffix(c.Flag.Path, "/") {
		return fmt.Errorf("restart flag path must name a file, got directory %s", c.Flag.Path)
	}

	return nil
}

// validateConfirm validates Confirm configuration
func (c *AppConfig) validateConfirm() error {
	if c.Confirm == nil {
		return nil
	}

	if c.Confirm.PollIntervalSec < 1 {
		return fmt.Errorf("confirm poll interval must be at least 1 second")
	}

	if c.Confirm.TimeoutSec < 0 {
		return fmt.Errorf("confirm timeout cannot be negative")
	}

	if c.Confirm.TimeoutSec > 0 && c.Confirm.TimeoutSec < c.Confirm.PollIntervalSec {
		return fmt.Errorf("confirm timeout must be at least the poll interval")
	}

	return nil
}

// validatePrometheus validates Prometheus configuration
func (c *AppConfig) validatePrometheus() error {
	if c.Prometheus == nil {
		return nil
	}

	// Skip validation if RemoteWriteURL is empty (metrics disabled)
	if c.Prometheus.RemoteWriteURL == "" {
		return nil
	}

	if c.Prometheus.TimeoutSec < 1 {
		return fmt.Errorf("prometheus timeout must be at least 1 second")
	}

	if (c.Prometheus.RemoteWriteUsername == "") != (c.Prometheus.RemoteWritePassword == "") {
		return fmt.Errorf("remote write username and password must be set together")
	}

	return nil
}

// validateCloudWatch validates CloudWatch configuration
func (c *AppConfig) validateCloudWatch() error {
	if c.CloudWatch == nil || !c.CloudWatch.Enabled {
		return nil
	}

	if c.CloudWatch.Region == "" {
		return fmt.Errorf("cloudwatch region cannot be empty when cloudwatch is enabled")
	}

	if c.CloudWatch.Namespace == "" {
		return fmt.Errorf("cloudwatch namespace cannot be empty when cloudwatch is enabled")
	}

	return nil
}

// validateLogging validates Logging configuration
func (c *AppConfig) validateLogging() error {
	if c.Logging == nil {
		return nil
	}

	if c.Logging.Level != "" {
		validLevels := map[string]bool{
			"debug": true,
			"info":  true,
			"warn":  true,
			"error": true,
		}
		if !validLevels[strings.ToLower(c.Logging.Level)] {
			return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
		}
	}

	if c.Logging.Promtail != nil {
		// Skip validation if Promtail URL is empty (console logging only)
		if c.Logging.Promtail.URL == "" {
			return nil
		}

		if c.Logging.Promtail.BatchWaitSeconds < 1 {
			return fmt.Errorf("promtail batch wait must be at least 1 second")
		}
	}

	return nil
}

// MarkDefaults marks all configuration fields as coming from defaults
func (c *AppConfig) MarkDefaults() {
	if c.ConfigSources == nil {
		c.ConfigSources = make(ConfigSourceMap)
	}
	c.ConfigSources["Version"] = SourceDefault
	for _, f := range envFields {
		c.ConfigSources[f.field] = SourceDefault
	}
}

// MergeJSONConfig merges non-zero values from a JSON file over c
func (c *AppConfig) MergeJSONConfig(jsonConfig *AppConfig) {
	if jsonConfig == nil {
		return
	}
	c.ensureSections()

	if jsonConfig.Version != 0 {
		c.Version = jsonConfig.Version
		c.ConfigSources["Version"] = SourceJSONFile
	}

	if a := jsonConfig.Admin; a != nil {
		c.mergeString(&c.Admin.ExecutablePath, a.ExecutablePath, "Admin.ExecutablePath")
		c.mergeString(&c.Admin.Username, a.Username, "Admin.Username")
		c.mergeString(&c.Admin.Password, a.Password, "Admin.Password")
		c.mergeString(&c.Admin.ClosedMarker, a.ClosedMarker, "Admin.ClosedMarker")
		c.mergeBool(&c.Admin.SkipResourceTracking, a.SkipResourceTracking, "Admin.SkipResourceTracking")
		c.mergeString(&c.Admin.AdminServerName, a.AdminServerName, "Admin.AdminServerName")
		c.mergeString(&c.Admin.MainServerName, a.MainServerName, "Admin.MainServerName")
		c.mergeInt(&c.Admin.CommandTimeoutSec, a.CommandTimeoutSec, "Admin.CommandTimeoutSec")
	}

	if f := jsonConfig.Flag; f != nil {
		c.mergeString(&c.Flag.Path, f.Path, "Flag.Path")
	}

	if cf := jsonConfig.Confirm; cf != nil {
		c.mergeInt(&c.Confirm.PollIntervalSec, cf.PollIntervalSec, "Confirm.PollIntervalSec")
		c.mergeInt(&c.Confirm.TimeoutSec, cf.TimeoutSec, "Confirm.TimeoutSec")
		c.mergeBool(&c.Confirm.ExpectReopened, cf.ExpectReopened, "Confirm.ExpectReopened")
	}

	if h := jsonConfig.History; h != nil {
		c.mergeBool(&c.History.Disabled, h.Disabled, "History.Disabled")
		c.mergeString(&c.History.DatabasePath, h.DatabasePath, "History.DatabasePath")
	}

	if p := jsonConfig.Prometheus; p != nil {
		c.mergeString(&c.Prometheus.RemoteWriteURL, p.RemoteWriteURL, "Prometheus.RemoteWriteURL")
		c.mergeString(&c.Prometheus.RemoteWriteUsername, p.RemoteWriteUsername, "Prometheus.RemoteWriteUsername")
		c.mergeString(&c.Prometheus.RemoteWritePassword, p.RemoteWritePassword, "Prometheus.RemoteWritePassword")
		c.mergeString(&c.Prometheus.HostLabel, p.HostLabel, "Prometheus.HostLabel")
		c.mergeInt(&c.Prometheus.TimeoutSec, p.TimeoutSec, "Prometheus.TimeoutSec")
	}

	if cw := jsonConfig.CloudWatch; cw != nil {
		c.mergeBool(&c.CloudWatch.Enabled, cw.Enabled, "CloudWatch.Enabled")
		c.mergeString(&c.CloudWatch.Region, cw.Region, "CloudWatch.Region")
		c.mergeString(&c.CloudWatch.Namespace, cw.Namespace, "CloudWatch.Namespace")
		c.mergeString(&c.CloudWatch.AWSProfile, cw.AWSProfile, "CloudWatch.AWSProfile")
	}

	if l := jsonConfig.Logging; l != nil {
		c.mergeString(&c.Logging.Level, l.Level, "Logging.Level")
		c.mergeBool(&c.Logging.Debug, l.Debug, "Logging.Debug")
		if pt := l.Promtail; pt != nil {
			c.mergeString(&c.Logging.Promtail.URL, pt.URL, "Promtail.URL")
			c.mergeString(&c.Logging.Promtail.Username, pt.Username, "Promtail.Username")
			c.mergeString(&c.Logging.Promtail.Password, pt.Password, "Promtail.Password")
			c.mergeInt(&c.Logging.Promtail.BatchWaitSeconds, pt.BatchWaitSeconds, "Promtail.BatchWaitSeconds")
		}
	}
}

func (c *AppConfig) mergeString(dst *string, v, field string) {
	if v == "" {
		return
	}
	*dst = v
	c.ConfigSources[field] = SourceJSONFile
}

func (c *AppConfig) mergeInt(dst *int, v int, field string) {
	if v == 0 {
		return
	}
	*dst = v
	c.ConfigSources[field] = SourceJSONFile
}

// mergeBool only merges true: every boolean option defaults to false
func (c *AppConfig) mergeBool(dst *bool, v bool, field string) {
	if !v {
		return
	}
	*dst = v
	c.ConfigSources[field] = SourceJSONFile
}
