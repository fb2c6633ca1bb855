package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"vkbackup/pkg/auth"
	"vkbackup/pkg/backup"
	"vkbackup/pkg/config"
	"vkbackup/pkg/logger"
	"vkbackup/pkg/ui"
)

var (
	// Run command flags
	userID      string
	photoCount  int
	allAlbums   bool
	directMode  bool
	folderName  string
	stagingDir  string
	vkToken     string
	yandexToken string
	gdriveToken string
	pollTimeout time.Duration
	useYandex   bool
	useGDrive   bool
	useBucket   bool
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Back up a user's photos",
	Long: `Back up the photos of a VK user.

The newest --count photos of the profile album are copied, or every photo
of every album with --all. Missing values are asked for on the terminal.

WARNING: the staging folder (default ./Photos) is emptied before the
download starts and removed when the run ends.`,
	Example: `  # Ask for everything interactively
  vkbackup run

  # Ten newest profile photos of user 1
  vkbackup run --user 1 --count 10

  # Every album, Yandex.Disk copies straight from VK
  vkbackup run --user 1 --all --direct

  # Only Google Drive, into a custom folder
  vkbackup run --user 1 --count 5 --yandex=false --folder "VK backup"`,
	Args: cobra.NoArgs,
	RunE: runBackup,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&userID, "user", "u", "", "VK user id")
	runCmd.Flags().IntVarP(&photoCount, "count", "n", 0, "number of newest profile photos")
	runCmd.Flags().BoolVar(&allAlbums, "all", false, "back up every album instead of the profile album")
	runCmd.Flags().BoolVar(&directMode, "direct", false, "let destinations that support it copy from VK directly")
	runCmd.Flags().StringVar(&folderName, "folder", "", "remote folder name (default \"ВКонтакте\")")
	runCmd.Flags().StringVar(&stagingDir, "staging-dir", "", "local staging folder (default \"Photos\")")
	runCmd.Flags().StringVar(&vkToken, "vk-token", "", "VK access token")
	runCmd.Flags().StringVar(&yandexToken, "yandex-token", "", "Yandex.Disk OAuth token")
	runCmd.Flags().StringVar(&gdriveToken, "gdrive-token", "", "Google Drive OAuth token")
	runCmd.Flags().DurationVar(&pollTimeout, "poll-timeout", 0, "how long to wait for a Yandex.Disk copy to finish")
	runCmd.Flags().BoolVar(&useYandex, "yandex", true, "upload to Yandex.Disk")
	runCmd.Flags().BoolVar(&useGDrive, "gdrive", true, "upload to Google Drive")
	runCmd.Flags().BoolVar(&useBucket, "bucket", false, "upload to the configured S3 bucket")
}

func runBackup(cmd *cobra.Command, args []string) error {
	out := printer()

	cfg, err := loadConfig(runFlags(cmd))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	log := logger.GetLogger()
	log.WithField("version", version).Info("vkbackup starting")

	if manager, err := auth.NewManager(); err != nil {
		log.WithError(err).Warn("Credential store unavailable")
	} else {
		manager.ApplyTo(cfg)
	}

	p := newTerminalPrompter()
	req, err := buildRequest(p)
	if err != nil {
		return err
	}
	if err := promptTokens(p, cfg); err != nil {
		return err
	}
	if err := cfg.ValidateCredentials(); err != nil {
		return fmt.Errorf("missing credentials:\n%w\nStore them with 'vkbackup auth set <service>'", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner, err := backup.FromConfig(cfg, log, backup.WithProgress(func() ui.Progress {
		if quiet {
			return ui.NopProgress()
		}
		return ui.NewBar(out)
	}))
	if err != nil {
		return err
	}

	out.Title("VK photo backup")
	out.Info("User", req.OwnerID)
	if req.AllAlbums {
		out.Info("Source", "all albums")
	} else {
		out.Info("Source", fmt.Sprintf("%d newest profile photos", req.Count))
	}
	out.Info("Staging folder", cfg.Staging.Directory)

	report, err := runner.Run(ctx, req)
	if report != nil {
		printReport(out, report)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return errors.New("interrupted")
		}
		log.WithError(err).Error("Backup failed")
		return err
	}

	log.WithField("run_id", report.RunID).Info("Backup finished")
	return nil
}

// runFlags collects the flags that override configuration values
func runFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	if vkToken != "" {
		flags["vk-token"] = vkToken
	}
	if yandexToken != "" {
		flags["yandex-token"] = yandexToken
	}
	if gdriveToken != "" {
		flags["gdrive-token"] = gdriveToken
	}
	if stagingDir != "" {
		flags["staging-dir"] = stagingDir
	}
	if folderName != "" {
		flags["folder"] = folderName
	}
	if pollTimeout > 0 {
		flags["poll-timeout"] = pollTimeout
	}
	if cmd.Flags().Changed("yandex") {
		flags["yandex-enabled"] = useYandex
	}
	if cmd.Flags().Changed("gdrive") {
		flags["gdrive-enabled"] = useGDrive
	}
	if cmd.Flags().Changed("bucket") {
		flags["bucket-enabled"] = useBucket
	}
	return flags
}

// buildRequest fills the user id and count from flags, asking for the
// missing ones
func buildRequest(p *prompter) (backup.Request, error) {
	req := backup.Request{
		OwnerID:   userID,
		Count:     photoCount,
		AllAlbums: allAlbums,
		Direct:    directMode,
	}

	if req.OwnerID == "" {
		id, err := p.Line("VK user id")
		if err != nil {
			return req, fmt.Errorf("user id is required (--user): %w", err)
		}
		req.OwnerID = id
	}
	if !req.AllAlbums && req.Count <= 0 {
		n, err := p.Count("Number of photos to back up")
		if err != nil {
			return req, fmt.Errorf("photo count is required (--count): %w", err)
		}
		req.Count = n
	}

	return req, req.Validate()
}

// promptTokens asks for every token the enabled services still miss
func promptTokens(p *prompter, cfg *config.Config) error {
	if !p.interactive {
		return nil
	}

	ask := func(label string, target *string) error {
		if *target != "" {
			return nil
		}
		v, err := p.Secret(label)
		if err != nil {
			return err
		}
		*target = v
		return nil
	}

	if err := ask("VK access token", &cfg.VK.Token); err != nil {
		return err
	}
	if cfg.Yandex.Enabled {
		if err := ask("Yandex.Disk token", &cfg.Yandex.Token); err != nil {
			return err
		}
	}
	if cfg.GDrive.Enabled {
		if err := ask("Google Drive token", &cfg.GDrive.Token); err != nil {
			return err
		}
	}
	return nil
}

func printReport(out *ui.Printer, report *backup.Report) {
	fmt.Fprintln(out.Writer())
	out.Info("Run", report.RunID)
	out.Info("Photos found", fmt.Sprintf("%d", report.Fetched))
	if report.Staged {
		out.Summary("Downloaded", report.Download.Downloaded, report.Download.Attempted)
	}

	for _, t := range report.Targets {
		if t.Err != nil && t.Result.Attempted == 0 {
			out.Error("%s: %v", t.Destination, t.Err)
			continue
		}
		out.Summary("Uploaded to "+t.Destination, t.Result.Succeeded(), t.Result.Attempted)
		if t.Err != nil {
			out.Warning("%s: %v", t.Destination, t.Err)
		}
		if t.Manifest != "" && (t.Err == nil || t.Result.Succeeded() > 0) {
			out.Info("Manifest", t.Manifest)
		}
	}
}
