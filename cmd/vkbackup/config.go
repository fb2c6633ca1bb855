package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"vkbackup/pkg/config"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage vkbackup configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (VKBACKUP_*, also read from .env)
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file is created as 'vkbackup.yaml' in the current directory unless a
different path is given with --config.`,
	RunE: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the effective configuration after merging every source.

Tokens and keys are masked.`,
	RunE: runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long: `Validate the effective configuration.

Structural problems are errors. Missing tokens are reported as warnings
because they can still come from the credential store or a prompt.`,
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

const exampleConfig = `# vkbackup configuration file
#
# Every value can also be set through environment variables prefixed with
# VKBACKUP_, for example VKBACKUP_VK_TOKEN or VKBACKUP_YANDEX_TOKEN.
# Prefer 'vkbackup auth set <service>' over storing tokens here.

# Photo source
vk:
  token: ""
  api_version: "5.131"
  base_url: "https://api.vk.com/method/"
  # photos.getAll page size (1-200)
  page_size: 200
  # pause between page requests
  page_delay: 330ms

# Yandex.Disk destination
yandex:
  enabled: true
  token: ""
  base_url: "https://cloud-api.yandex.net/v1/disk/"
  folder: "ВКонтакте"
  manifest: "result_yd.json"
  folder_pause: 100ms

# Google Drive destination
gdrive:
  enabled: true
  token: ""
  api_url: "https://www.googleapis.com/drive/v3/"
  upload_url: "https://www.googleapis.com/upload/drive/v3/"
  folder: "ВКонтакте"
  # folder id the new folder is created in
  parent_id: "root"
  manifest: "result_gd.json"
  folder_pause: 100ms

# S3-compatible bucket destination
bucket:
  enabled: false
  endpoint: "localhost:9000"
  access_key: ""
  secret_key: ""
  bucket: "vk-photos"
  region: "us-east-1"
  use_ssl: true
  folder: "vkontakte"
  manifest: "result_s3.json"

# Local staging folder.
# WARNING: it is emptied before every run and removed afterwards.
staging:
  directory: "Photos"

# Waiting for Yandex.Disk copy-from-URL operations
polling:
  interval: 2s
  max_interval: 10s
  multiplier: 1.0
  timeout: 5m

http:
  timeout: 30s
  user_agent: "vkbackup/1.0"

logging:
  # debug, info, warn, error
  level: "info"
  # also write JSON logs to this file
  file: ""
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	out := printer()

	configPath := configFile
	if configPath == "" {
		configPath = "vkbackup.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists: %s", configPath)
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0600); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	out.Success("Configuration file created: %s", configPath)
	fmt.Fprintln(out.Writer(), "\nNext steps:")
	fmt.Fprintln(out.Writer(), "1. Store your tokens with 'vkbackup auth set vk|yandex|gdrive'")
	fmt.Fprintln(out.Writer(), "2. Run 'vkbackup config validate' to check the configuration")
	fmt.Fprintln(out.Writer(), "3. Start a backup with 'vkbackup run'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	out := printer()

	cfg, err := loadConfig(nil)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	data, err := yaml.Marshal(cfg.Masked())
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	out.Title("Current configuration")
	fmt.Fprintln(out.Writer())
	fmt.Fprint(out.Writer(), string(data))

	fmt.Fprintln(out.Writer(), "\nConfiguration sources (in order of priority):")
	fmt.Fprintln(out.Writer(), "1. Command line flags")
	fmt.Fprintf(out.Writer(), "2. Environment variables (%s*)\n", config.EnvPrefix)
	if configFile != "" {
		fmt.Fprintf(out.Writer(), "3. Configuration file: %s\n", configFile)
	} else {
		fmt.Fprintln(out.Writer(), "3. Configuration file: first found of")
		for _, p := range config.SearchPaths() {
			fmt.Fprintf(out.Writer(), "     %s\n", p)
		}
	}
	fmt.Fprintln(out.Writer(), "4. Default values")
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	out := printer()

	cfg, err := loadConfig(nil)
	if err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	if err := cfg.ValidateCredentials(); err != nil {
		out.Warning("Credentials missing from configuration:")
		for _, e := range unwrapJoined(err) {
			fmt.Fprintf(out.Writer(), "  - %v\n", e)
		}
		fmt.Fprintln(out.Writer())
	}

	out.Success("Configuration is valid")

	fmt.Fprintln(out.Writer(), "\nConfiguration summary:")
	out.Info("Yandex.Disk", enabledText(cfg.Yandex.Enabled))
	out.Info("Google Drive", enabledText(cfg.GDrive.Enabled))
	out.Info("Bucket", enabledText(cfg.Bucket.Enabled))
	out.Info("Staging folder", cfg.Staging.Directory)
	out.Info("Poll timeout", cfg.Polling.Timeout.String())
	out.Info("Log level", cfg.Logging.Level)
	return nil
}

func unwrapJoined(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}

func enabledText(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}
