package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.VK.PageSize != 200 {
		t.Errorf("Expected default page size to be 200, got %d", config.VK.PageSize)
	}

	if config.VK.PageDelay != 330*time.Millisecond {
		t.Errorf("Expected default page delay to be 330ms, got %v", config.VK.PageDelay)
	}

	if config.Staging.Directory != "Photos" {
		t.Errorf("Expected default staging directory to be Photos, got %s", config.Staging.Directory)
	}

	if config.Yandex.Manifest != "result_yd.json" || config.GDrive.Manifest != "result_gd.json" {
		t.Errorf("Unexpected default manifest names: %s, %s", config.Yandex.Manifest, config.GDrive.Manifest)
	}

	if config.Polling.Interval != 2*time.Second {
		t.Errorf("Expected default polling interval to be 2s, got %v", config.Polling.Interval)
	}

	if config.Bucket.Enabled {
		t.Error("Expected bucket destination to be disabled by default")
	}

	if err := config.Validate(); err != nil {
		t.Errorf("Expected defaults to validate, got %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("VKBACKUP_VK_TOKEN", "vk-token")
	t.Setenv("VKBACKUP_YANDEX_TOKEN", "yd-token")
	t.Setenv("VKBACKUP_GDRIVE_TOKEN", "gd-token")
	t.Setenv("VKBACKUP_STAGING_DIR", "/tmp/staging")
	t.Setenv("VKBACKUP_POLL_TIMEOUT", "45s")
	t.Setenv("VKBACKUP_LOG_LEVEL", "debug")
	t.Setenv("VKBACKUP_BUCKET_ENDPOINT", "localhost:9000")

	config := DefaultConfig()
	if err := config.LoadFromEnv(); err != nil {
		t.Fatalf("Failed to load from environment: %v", err)
	}

	if config.VK.Token != "vk-token" {
		t.Errorf("Expected VK token to be vk-token, got %s", config.VK.Token)
	}
	if config.Yandex.Token != "yd-token" {
		t.Errorf("Expected Yandex token to be yd-token, got %s", config.Yandex.Token)
	}
	if config.GDrive.Token != "gd-token" {
		t.Errorf("Expected Drive token to be gd-token, got %s", config.GDrive.Token)
	}
	if config.Staging.Directory != "/tmp/staging" {
		t.Errorf("Expected staging directory to be /tmp/staging, got %s", config.Staging.Directory)
	}
	if config.Polling.Timeout != 45*time.Second {
		t.Errorf("Expected poll timeout to be 45s, got %v", config.Polling.Timeout)
	}
	if config.Logging.Level != "debug" {
		t.Errorf("Expected log level to be debug, got %s", config.Logging.Level)
	}
	if !config.Bucket.Enabled || config.Bucket.Endpoint != "localhost:9000" {
		t.Errorf("Expected bucket endpoint to enable the bucket destination")
	}
}

func TestLoadFromEnvRejectsBadDuration(t *testing.T) {
	t.Setenv("VKBACKUP_POLL_TIMEOUT", "soon")

	config := DefaultConfig()
	if err := config.LoadFromEnv(); err == nil {
		t.Error("Expected an error for an unparsable poll timeout")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		wantError string
	}{
		{
			name:   "defaults",
			mutate: func(c *Config) {},
		},
		{
			name:      "page size too large",
			mutate:    func(c *Config) { c.VK.PageSize = 500 },
			wantError: "page size",
		},
		{
			name: "no destinations",
			mutate: func(c *Config) {
				c.Yandex.Enabled = false
				c.GDrive.Enabled = false
			},
			wantError: "at least one destination",
		},
		{
			name:      "bucket without endpoint",
			mutate:    func(c *Config) { c.Bucket.Enabled = true },
			wantError: "bucket endpoint",
		},
		{
			name:      "zero polling timeout",
			mutate:    func(c *Config) { c.Polling.Timeout = 0 },
			wantError: "polling timeout",
		},
		{
			name:      "multiplier below one",
			mutate:    func(c *Config) { c.Polling.Multiplier = 0.5 },
			wantError: "multiplier",
		},
		{
			name:      "empty staging directory",
			mutate:    func(c *Config) { c.Staging.Directory = "  " },
			wantError: "staging directory",
		},
		{
			name:      "invalid log level",
			mutate:    func(c *Config) { c.Logging.Level = "loud" },
			wantError: "invalid log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			err := config.Validate()
			if tt.wantError == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantError) {
				t.Errorf("Validate() error = %v, want it to mention %q", err, tt.wantError)
			}
		})
	}
}

func TestValidateCredentials(t *testing.T) {
	config := DefaultConfig()
	err := config.ValidateCredentials()
	if err == nil {
		t.Fatal("Expected missing tokens to fail validation")
	}
	for _, want := range []string{"VK", "Yandex", "Google Drive"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Expected error to mention %s, got %v", want, err)
		}
	}

	config.VK.Token = "vk"
	config.Yandex.Token = "yd"
	config.GDrive.Enabled = false
	if err := config.ValidateCredentials(); err != nil {
		t.Errorf("Expected disabled destination to need no token, got %v", err)
	}
}

func TestMergeCommandLineFlags(t *testing.T) {
	config := DefaultConfig()

	flags := map[string]interface{}{
		"vk-token":       "flag-vk",
		"yandex-token":   "flag-yd",
		"staging-dir":    "/flag/staging",
		"folder":         "Backup",
		"poll-timeout":   time.Minute,
		"gdrive-enabled": false,
		"log-level":      "error",
	}

	config.MergeCommandLineFlags(flags)

	if config.VK.Token != "flag-vk" {
		t.Errorf("Expected VK token to be flag-vk, got %s", config.VK.Token)
	}
	if config.Yandex.Token != "flag-yd" {
		t.Errorf("Expected Yandex token to be flag-yd, got %s", config.Yandex.Token)
	}
	if config.Staging.Directory != "/flag/staging" {
		t.Errorf("Expected staging directory to be /flag/staging, got %s", config.Staging.Directory)
	}
	if config.Yandex.Folder != "Backup" || config.GDrive.Folder != "Backup" || config.Bucket.Folder != "Backup" {
		t.Error("Expected folder flag to apply to every destination")
	}
	if config.Polling.Timeout != time.Minute {
		t.Errorf("Expected poll timeout to be 1m, got %v", config.Polling.Timeout)
	}
	if config.GDrive.Enabled {
		t.Error("Expected gdrive to be disabled by flag")
	}
	if config.Logging.Level != "error" {
		t.Errorf("Expected log level to be error, got %s", config.Logging.Level)
	}
}

func TestSaveAndLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nested", "vkbackup.yaml")

	config := DefaultConfig()
	config.VK.Token = "saved-token"
	config.Polling.Timeout = 90 * time.Second
	config.GDrive.ParentID = "folder-123"

	if err := config.Save(configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	info, err := os.Stat(configPath)
	if err != nil {
		t.Fatalf("Failed to stat saved config: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Expected config file mode 0600, got %v", info.Mode().Perm())
	}

	loaded := DefaultConfig()
	if err := loaded.LoadFromFile(configPath); err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if loaded.VK.Token != "saved-token" {
		t.Errorf("Expected loaded token to be saved-token, got %s", loaded.VK.Token)
	}
	if loaded.Polling.Timeout != 90*time.Second {
		t.Errorf("Expected loaded poll timeout to be 90s, got %v", loaded.Polling.Timeout)
	}
	if loaded.GDrive.ParentID != "folder-123" {
		t.Errorf("Expected loaded parent id to be folder-123, got %s", loaded.GDrive.ParentID)
	}
}

func TestLoadFromFileParsesDurations(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	content := `
vk:
  page_delay: 500ms
polling:
  interval: 1s
  timeout: 2m
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	config := DefaultConfig()
	if err := config.LoadFromFile(configPath); err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if config.VK.PageDelay != 500*time.Millisecond {
		t.Errorf("Expected page delay 500ms, got %v", config.VK.PageDelay)
	}
	if config.Polling.Interval != time.Second || config.Polling.Timeout != 2*time.Minute {
		t.Errorf("Unexpected polling settings: %+v", config.Polling)
	}
	if config.VK.PageSize != 200 {
		t.Errorf("Expected untouched defaults to survive, got page size %d", config.VK.PageSize)
	}
}

func TestMaskSecret(t *testing.T) {
	tests := map[string]string{
		"":                 "",
		"short":            "***",
		"abcd1234efgh5678": "abcd...5678",
	}
	for in, want := range tests {
		if got := MaskSecret(in); got != want {
			t.Errorf("MaskSecret(%q) = %q, want %q", in, got, want)
		}
	}

	config := DefaultConfig()
	config.VK.Token = "abcd1234efgh5678"
	masked := config.Masked()
	if masked.VK.Token == config.VK.Token {
		t.Error("Expected masked copy to hide the token")
	}
	if config.VK.Token != "abcd1234efgh5678" {
		t.Error("Masked must not modify the original config")
	}
}

func TestLoad(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("Failed to chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("HOME", t.TempDir())
	t.Setenv("VKBACKUP_VK_TOKEN", "env-token")

	config, err := Load("", map[string]interface{}{"vk-token": "flag-token"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if config.VK.Token != "flag-token" {
		t.Errorf("Expected flags to win over env, got %s", config.VK.Token)
	}

	if _, err := Load("", map[string]interface{}{"log-level": "nope"}); err == nil {
		t.Error("Expected Load to fail validation for a bad log level")
	}
}
