package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment variable read by Load
const EnvPrefix = "VKBACKUP_"

// Config holds all configuration options for a backup run
type Config struct {
	// Photo source
	VK VKConfig `yaml:"vk" json:"vk"`

	// Destinations
	Yandex YandexConfig `yaml:"yandex" json:"yandex"`
	GDrive GDriveConfig `yaml:"gdrive" json:"gdrive"`
	Bucket BucketConfig `yaml:"bucket" json:"bucket"`

	// Local working folder
	Staging StagingConfig `yaml:"staging" json:"staging"`

	// Async operation polling
	Polling PollingConfig `yaml:"polling" json:"polling"`

	// Shared HTTP settings
	HTTP HTTPConfig `yaml:"http" json:"http"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// VKConfig holds photo source settings
type VKConfig struct {
	Token      string        `yaml:"token" json:"token"`
	APIVersion string        `yaml:"api_version" json:"api_version"`
	BaseURL    string        `yaml:"base_url" json:"base_url"`
	PageSize   int           `yaml:"page_size" json:"page_size"`
	PageDelay  time.Duration `yaml:"page_delay" json:"page_delay"`
}

// YandexConfig holds Yandex.Disk destination settings
type YandexConfig struct {
	Enabled     bool          `yaml:"enabled" json:"enabled"`
	Token       string        `yaml:"token" json:"token"`
	BaseURL     string        `yaml:"base_url" json:"base_url"`
	Folder      string        `yaml:"folder" json:"folder"`
	Manifest    string        `yaml:"manifest" json:"manifest"`
	FolderPause time.Duration `yaml:"folder_pause" json:"folder_pause"`
}

// GDriveConfig holds Google Drive destination settings
type GDriveConfig struct {
	Enabled     bool          `yaml:"enabled" json:"enabled"`
	Token       string        `yaml:"token" json:"token"`
	APIURL      string        `yaml:"api_url" json:"api_url"`
	UploadURL   string        `yaml:"upload_url" json:"upload_url"`
	Folder      string        `yaml:"folder" json:"folder"`
	ParentID    string        `yaml:"parent_id" json:"parent_id"`
	Manifest    string        `yaml:"manifest" json:"manifest"`
	FolderPause time.Duration `yaml:"folder_pause" json:"folder_pause"`
}

// BucketConfig holds S3-compatible bucket destination settings
type BucketConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	Endpoint  string `yaml:"endpoint" json:"endpoint"`
	AccessKey string `yaml:"access_key" json:"access_key"`
	SecretKey string `yaml:"secret_key" json:"secret_key"`
	Bucket    string `yaml:"bucket" json:"bucket"`
	Region    string `yaml:"region" json:"region"`
	UseSSL    bool   `yaml:"use_ssl" json:"use_ssl"`
	Folder    string `yaml:"folder" json:"folder"`
	Manifest  string `yaml:"manifest" json:"manifest"`
}

// StagingConfig holds the local staging folder settings
type StagingConfig struct {
	Directory string `yaml:"directory" json:"directory"`
}

// PollingConfig bounds the wait for asynchronous remote operations
type PollingConfig struct {
	Interval    time.Duration `yaml:"interval" json:"interval"`
	MaxInterval time.Duration `yaml:"max_interval" json:"max_interval"`
	Multiplier  float64       `yaml:"multiplier" json:"multiplier"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
}

// HTTPConfig holds settings shared by every REST client
type HTTPConfig struct {
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
	UserAgent string        `yaml:"user_agent" json:"user_agent"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		VK: VKConfig{
			APIVersion: "5.131",
			BaseURL:    "https://api.vk.com/method/",
			PageSize:   200,
			PageDelay:  330 * time.Millisecond,
		},
		Yandex: YandexConfig{
			Enabled:     true,
			BaseURL:     "https://cloud-api.yandex.net/v1/disk/",
			Folder:      "ВКонтакте",
			Manifest:    "result_yd.json",
			FolderPause: 100 * time.Millisecond,
		},
		GDrive: GDriveConfig{
			Enabled:     true,
			APIURL:      "https://www.googleapis.com/drive/v3/",
			UploadURL:   "https://www.googleapis.com/upload/drive/v3/",
			Folder:      "ВКонтакте",
			ParentID:    "root",
			Manifest:    "result_gd.json",
			FolderPause: 100 * time.Millisecond,
		},
		Bucket: BucketConfig{
			Enabled:  false,
			Region:   "us-east-1",
			UseSSL:   true,
			Folder:   "vkontakte",
			Manifest: "result_s3.json",
		},
		Staging: StagingConfig{
			Directory: "Photos",
		},
		Polling: PollingConfig{
			Interval:    2 * time.Second,
			MaxInterval: 10 * time.Second,
			Multiplier:  1.0,
			Timeout:     5 * time.Minute,
		},
		HTTP: HTTPConfig{
			Timeout:   30 * time.Second,
			UserAgent: "vkbackup/1.0",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	// Credentials
	if v := os.Getenv(EnvPrefix + "VK_TOKEN"); v != "" {
		c.VK.Token = v
	}
	if v := os.Getenv(EnvPrefix + "YANDEX_TOKEN"); v != "" {
		c.Yandex.Token = v
	}
	if v := os.Getenv(EnvPrefix + "GDRIVE_TOKEN"); v != "" {
		c.GDrive.Token = v
	}
	if v := os.Getenv(EnvPrefix + "BUCKET_ACCESS_KEY"); v != "" {
		c.Bucket.AccessKey = v
	}
	if v := os.Getenv(EnvPrefix + "BUCKET_SECRET_KEY"); v != "" {
		c.Bucket.SecretKey = v
	}
	if v := os.Getenv(EnvPrefix + "BUCKET_ENDPOINT"); v != "" {
		c.Bucket.Endpoint = v
		c.Bucket.Enabled = true
	}
	if v := os.Getenv(EnvPrefix + "BUCKET_NAME"); v != "" {
		c.Bucket.Bucket = v
	}

	// Staging
	if v := os.Getenv(EnvPrefix + "STAGING_DIR"); v != "" {
		c.Staging.Directory = v
	}

	// Polling
	if v := os.Getenv(EnvPrefix + "POLL_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %sPOLL_TIMEOUT: %w", EnvPrefix, err)
		}
		c.Polling.Timeout = d
	}

	// Logging level
	if v := os.Getenv(EnvPrefix + "LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	for _, loc := range SearchPaths() {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}
	return ""
}

// SearchPaths lists the config file locations in order of precedence
func SearchPaths() []string {
	home := os.Getenv("HOME")
	return []string{
		"vkbackup.yaml",
		".vkbackup.yaml",
		".vkbackup.yml",
		filepath.Join(home, ".config", "vkbackup", "config.yaml"),
		filepath.Join(home, ".vkbackup.yaml"),
	}
}

// Validate checks if the configuration is structurally valid.
// Credentials are checked separately by ValidateCredentials because they may
// still be resolved from the credential store after loading.
func (c *Config) Validate() error {
	var errs []error

	// Source
	if c.VK.BaseURL == "" {
		errs = append(errs, errors.New("vk base url is required"))
	}
	if c.VK.PageSize < 1 || c.VK.PageSize > 200 {
		errs = append(errs, errors.New("vk page size must be between 1 and 200"))
	}
	if c.VK.PageDelay < 0 {
		errs = append(errs, errors.New("vk page delay cannot be negative"))
	}

	// Destinations
	if !c.Yandex.Enabled && !c.GDrive.Enabled && !c.Bucket.Enabled {
		errs = append(errs, errors.New("at least one destination must be enabled"))
	}
	if c.Yandex.Enabled {
		if c.Yandex.Folder == "" || c.Yandex.Manifest == "" {
			errs = append(errs, errors.New("yandex folder and manifest are required"))
		}
	}
	if c.GDrive.Enabled {
		if c.GDrive.Folder == "" || c.GDrive.Manifest == "" {
			errs = append(errs, errors.New("gdrive folder and manifest are required"))
		}
	}
	if c.Bucket.Enabled {
		if c.Bucket.Endpoint == "" || c.Bucket.Bucket == "" {
			errs = append(errs, errors.New("bucket endpoint and bucket name are required"))
		}
		if c.Bucket.Manifest == "" {
			errs = append(errs, errors.New("bucket manifest is required"))
		}
	}

	// Staging
	if strings.TrimSpace(c.Staging.Directory) == "" {
		errs = append(errs, errors.New("staging directory is required"))
	}

	// Polling
	if c.Polling.Interval <= 0 {
		errs = append(errs, errors.New("polling interval must be positive"))
	}
	if c.Polling.Timeout <= 0 {
		errs = append(errs, errors.New("polling timeout must be positive"))
	}
	if c.Polling.Multiplier < 1 {
		errs = append(errs, errors.New("polling multiplier must be at least 1"))
	}
	if c.Polling.MaxInterval < c.Polling.Interval {
		errs = append(errs, errors.New("polling max interval must not be below interval"))
	}

	if c.HTTP.Timeout <= 0 {
		errs = append(errs, errors.New("http timeout must be positive"))
	}

	// Validate logging
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// ValidateCredentials checks that every enabled service has its credential
func (c *Config) ValidateCredentials() error {
	var errs []error

	if c.VK.Token == "" {
		errs = append(errs, errors.New("VK access token is required"))
	}
	if c.Yandex.Enabled && c.Yandex.Token == "" {
		errs = append(errs, errors.New("Yandex.Disk token is required"))
	}
	if c.GDrive.Enabled && c.GDrive.Token == "" {
		errs = append(errs, errors.New("Google Drive token is required"))
	}
	if c.Bucket.Enabled && (c.Bucket.AccessKey == "" || c.Bucket.SecretKey == "") {
		errs = append(errs, errors.New("bucket access key and secret key are required"))
	}

	return errors.Join(errs...)
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Masked returns a copy of the configuration with credentials masked for display
func (c *Config) Masked() *Config {
	masked := *c
	masked.VK.Token = MaskSecret(c.VK.Token)
	masked.Yandex.Token = MaskSecret(c.Yandex.Token)
	masked.GDrive.Token = MaskSecret(c.GDrive.Token)
	masked.Bucket.AccessKey = MaskSecret(c.Bucket.AccessKey)
	masked.Bucket.SecretKey = MaskSecret(c.Bucket.SecretKey)
	return &masked
}

// MaskSecret keeps the first and last four characters of a secret
func MaskSecret(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) <= 8:
		return "***"
	default:
		return s[:4] + "..." + s[len(s)-4:]
	}
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["vk-token"].(string); ok && v != "" {
		c.VK.Token = v
	}
	if v, ok := flags["yandex-token"].(string); ok && v != "" {
		c.Yandex.Token = v
	}
	if v, ok := flags["gdrive-token"].(string); ok && v != "" {
		c.GDrive.Token = v
	}
	if v, ok := flags["staging-dir"].(string); ok && v != "" {
		c.Staging.Directory = v
	}
	if v, ok := flags["folder"].(string); ok && v != "" {
		c.Yandex.Folder = v
		c.GDrive.Folder = v
		c.Bucket.Folder = v
	}
	if v, ok := flags["poll-timeout"].(time.Duration); ok && v > 0 {
		c.Polling.Timeout = v
	}
	if v, ok := flags["yandex-enabled"].(bool); ok {
		c.Yandex.Enabled = v
	}
	if v, ok := flags["gdrive-enabled"].(bool); ok {
		c.GDrive.Enabled = v
	}
	if v, ok := flags["bucket-enabled"].(bool); ok {
		c.Bucket.Enabled = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".vkbackup.env"))

	// Start with defaults
	config := DefaultConfig()

	// Load from config file
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Override with command line flags
	config.MergeCommandLineFlags(flags)

	// Validate final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
