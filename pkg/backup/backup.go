// Package backup runs one backup: fetch photo metadata from VK, pick the
// largest rendition of each photo, stage the files locally, upload them to
// every destination and write one manifest per destination.
package backup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"vkbackup/pkg/destination"
	errs "vkbackup/pkg/errors"
	"vkbackup/pkg/logger"
	"vkbackup/pkg/manifest"
	"vkbackup/pkg/photo"
	"vkbackup/pkg/storage"
	"vkbackup/pkg/ui"
	"vkbackup/pkg/vk"
)

// PhotoSource lists a user's photos
type PhotoSource interface {
	FetchRecent(ctx context.Context, ownerID string, count int) ([]vk.Photo, error)
	FetchAll(ctx context.Context, ownerID string) ([]vk.Photo, error)
}

// Staging is the local folder photos pass through
type Staging interface {
	destination.Source
	Path() string
	Prepare() (string, error)
	DownloadAll(ctx context.Context, records []photo.Record, progress ui.Progress) (storage.Summary, error)
	Teardown() error
}

// Target is a destination together with its folder name and manifest path
type Target struct {
	Destination destination.Destination
	Folder      string
	Manifest    string
}

// Request describes what to back up
type Request struct {
	OwnerID string
	// Count is the number of newest profile photos; ignored with AllAlbums
	Count     int
	AllAlbums bool
	// Direct lets URL-capable destinations copy straight from VK
	Direct bool
}

// Validate checks the request before any network call
func (r Request) Validate() error {
	if r.OwnerID == "" {
		return &errs.Error{Type: errs.ErrorTypeConfig, Message: "user id is required"}
	}
	if !r.AllAlbums && r.Count <= 0 {
		return &errs.Error{Type: errs.ErrorTypeConfig, Message: fmt.Sprintf("photo count must be positive, got %d", r.Count)}
	}
	return nil
}

// TargetReport is the outcome for one destination
type TargetReport struct {
	Destination string
	Folder      destination.Folder
	Result      destination.Result
	Manifest    string
	Direct      bool
	Err         error
}

// Report is the outcome of a run
type Report struct {
	RunID      string
	OwnerID    string
	Fetched    int
	Selected   int
	Staged     bool
	Download   storage.Summary
	Targets    []TargetReport
	StartedAt  time.Time
	FinishedAt time.Time
}

// Failed returns the reports of destinations that hit a fatal error
func (r *Report) Failed() []TargetReport {
	var failed []TargetReport
	for _, t := range r.Targets {
		if t.Err != nil {
			failed = append(failed, t)
		}
	}
	return failed
}

// Runner drives the backup phases in order. It is not safe for
// concurrent use.
type Runner struct {
	source      PhotoSource
	staging     Staging
	targets     []Target
	logger      logger.Logger
	newProgress func() ui.Progress
}

// Option configures a Runner
type Option func(*Runner)

// WithLogger sets the logger
func WithLogger(log logger.Logger) Option {
	return func(r *Runner) {
		if log != nil {
			r.logger = log
		}
	}
}

// WithProgress sets the factory for per-phase progress reporters
func WithProgress(newProgress func() ui.Progress) Option {
	return func(r *Runner) {
		if newProgress != nil {
			r.newProgress = newProgress
		}
	}
}

// NewRunner creates a runner uploading to targets in the given order
func NewRunner(source PhotoSource, staging Staging, targets []Target, opts ...Option) *Runner {
	r := &Runner{
		source:      source,
		staging:     staging,
		targets:     targets,
		logger:      logger.GetLogger(),
		newProgress: func() ui.Progress { return ui.NopProgress() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run performs one backup. A destination that fails to create its folder
// or write its manifest is recorded in the report and the run moves on;
// Run itself fails only when fetching, selecting or staging fails, or ctx
// is cancelled. The staging folder is removed once, after every
// destination finished.
func (r *Runner) Run(ctx context.Context, req Request) (report *Report, err error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	report = &Report{
		RunID:     uuid.NewString(),
		OwnerID:   req.OwnerID,
		StartedAt: time.Now(),
	}
	log := r.logger.WithFields(map[string]interface{}{
		"run_id":   report.RunID,
		"owner_id": req.OwnerID,
	})
	defer func() { report.FinishedAt = time.Now() }()

	logger.LogPhase(log, "fetch", map[string]interface{}{
		"all_albums": req.AllAlbums,
		"count":      req.Count,
	})
	photos, err := r.fetch(ctx, req)
	if err != nil {
		return report, fmt.Errorf("fetch photos: %w", err)
	}
	report.Fetched = len(photos)

	records, err := photo.SelectMaxSize(photos)
	if err != nil {
		return report, fmt.Errorf("select sizes: %w", err)
	}
	report.Selected = len(records)

	if r.needsStaging(req) {
		report.Staged = true
		if _, err := r.staging.Prepare(); err != nil {
			return report, fmt.Errorf("prepare staging folder: %w", err)
		}
		defer func() {
			if terr := r.staging.Teardown(); terr != nil {
				log.WithError(terr).Error("Failed to remove staging folder")
				if err == nil {
					err = terr
				}
			}
		}()

		logger.LogPhase(log, "download", map[string]interface{}{
			"photos": len(records),
			"path":   r.staging.Path(),
		})
		report.Download, err = r.staging.DownloadAll(ctx, records, r.newProgress())
		if err != nil {
			return report, err
		}
		logger.LogSummary(log, "download", report.Download.Downloaded, report.Download.Attempted)
	}

	for _, target := range r.targets {
		tr := r.upload(ctx, log, target, req, records)
		report.Targets = append(report.Targets, tr)
		if err := ctx.Err(); err != nil {
			return report, err
		}
	}

	return report, nil
}

func (r *Runner) fetch(ctx context.Context, req Request) ([]vk.Photo, error) {
	if req.AllAlbums {
		return r.source.FetchAll(ctx, req.OwnerID)
	}
	return r.source.FetchRecent(ctx, req.OwnerID, req.Count)
}

// needsStaging is false only in direct mode with every target able to copy
// from a URL
func (r *Runner) needsStaging(req Request) bool {
	if !req.Direct {
		return true
	}
	for _, t := range r.targets {
		if !destination.SupportsURL(t.Destination) {
			return true
		}
	}
	return false
}

func (r *Runner) upload(ctx context.Context, log logger.Logger, target Target, req Request, records []photo.Record) TargetReport {
	dst := target.Destination
	tr := TargetReport{
		Destination: dst.Name(),
		Manifest:    target.Manifest,
		Direct:      req.Direct && destination.SupportsURL(dst),
	}
	log = log.WithField("destination", dst.Name())

	logger.LogPhase(log, "upload", map[string]interface{}{
		"folder": target.Folder,
		"direct": tr.Direct,
	})

	folder, err := dst.CreateFolder(ctx, target.Folder)
	if err != nil {
		log.WithError(err).Error("Failed to create remote folder")
		tr.Err = fmt.Errorf("create folder %q: %w", target.Folder, err)
		r.writeManifest(log, target, &tr)
		return tr
	}
	tr.Folder = folder

	if tr.Direct {
		tr.Result, err = destination.UploadRemote(ctx, dst, folder, records, log, r.newProgress())
	} else {
		tr.Result, err = destination.UploadMany(ctx, dst, folder, r.staging, log, r.newProgress())
	}
	if err != nil {
		tr.Err = err
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return tr
		}
	}

	r.writeManifest(log, target, &tr)
	return tr
}

// writeManifest replaces the destination's manifest with this run's entries.
// A destination that uploaded nothing still gets [].
func (r *Runner) writeManifest(log logger.Logger, target Target, tr *TargetReport) {
	if target.Manifest == "" {
		return
	}
	if err := manifest.Write(target.Manifest, tr.Result.Entries); err != nil {
		log.WithError(err).Error("Failed to write manifest")
		if tr.Err == nil {
			tr.Err = err
		}
	}
}
