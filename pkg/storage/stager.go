// Package storage manages the local staging folder that holds downloaded
// photos between the download phase and the upload phase.
//
// Prepare is destructive: every regular file already in the folder is
// removed without confirmation.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"

	"vkbackup/internal/httpclient"
	"vkbackup/pkg/config"
	errs "vkbackup/pkg/errors"
	"vkbackup/pkg/logger"
	"vkbackup/pkg/photo"
	"vkbackup/pkg/ui"
)

// Summary is the outcome of a download phase
type Summary struct {
	Attempted  int
	Downloaded int
	Failed     []string
}

// StagedFile is one file in the staging folder
type StagedFile struct {
	Name string
	Size int64
}

// Stager owns one staging folder on a billy filesystem
type Stager struct {
	fs       billy.Filesystem
	folder   string
	display  string
	http     *httpclient.Client
	logger   logger.Logger
	tornDown bool
}

// NewStager creates a stager for folder on fs
func NewStager(fs billy.Filesystem, folder string, client *httpclient.Client, log logger.Logger) *Stager {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Stager{
		fs:      fs,
		folder:  folder,
		display: folder,
		http:    client,
		logger:  log.WithField("component", "staging"),
	}
}

// NewOSStager creates a stager for the configured directory on the local disk
func NewOSStager(cfg config.StagingConfig, httpCfg config.HTTPConfig, log logger.Logger) (*Stager, error) {
	abs, err := filepath.Abs(cfg.Directory)
	if err != nil {
		return nil, errs.LocalIO(err, "resolve staging directory %q", cfg.Directory)
	}

	s := NewStager(osfs.New(filepath.Dir(abs)), filepath.Base(abs), httpclient.New(httpCfg, log), log)
	s.display = abs
	return s, nil
}

// Path returns the staging folder as shown to the user
func (s *Stager) Path() string {
	return s.display
}

// Prepare empties the staging folder, creating it when missing.
// Subdirectories are left in place.
func (s *Stager) Prepare() (string, error) {
	s.tornDown = false

	info, err := s.fs.Stat(s.folder)
	switch {
	case os.IsNotExist(err):
		if err := s.fs.MkdirAll(s.folder, 0755); err != nil {
			return "", errs.LocalIO(err, "create staging folder %s", s.display)
		}
		s.logger.InfoWithFields("staging folder created", map[string]interface{}{
			"path": s.display,
		})
		return s.display, nil
	case err != nil:
		return "", errs.LocalIO(err, "stat staging folder %s", s.display)
	case !info.IsDir():
		return "", errs.LocalIO(fmt.Errorf("not a directory"), "staging path %s", s.display)
	}

	entries, err := s.fs.ReadDir(s.folder)
	if err != nil {
		return "", errs.LocalIO(err, "read staging folder %s", s.display)
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			s.logger.WarnWithFields("leaving subdirectory in staging folder", map[string]interface{}{
				"name": entry.Name(),
			})
			continue
		}
		if err := s.fs.Remove(s.fs.Join(s.folder, entry.Name())); err != nil {
			return "", errs.LocalIO(err, "remove %s", entry.Name())
		}
		removed++
	}

	s.logger.InfoWithFields("staging folder cleared", map[string]interface{}{
		"path":    s.display,
		"removed": removed,
	})
	return s.display, nil
}

// DownloadAll fetches every record into the staging folder. Failed items
// are logged and skipped; only a cancelled context stops the phase early.
func (s *Stager) DownloadAll(ctx context.Context, records []photo.Record, progress ui.Progress) (Summary, error) {
	if progress == nil {
		progress = ui.NopProgress()
	}

	summary := Summary{Attempted: len(records)}
	progress.Start("Downloading photos", len(records))
	defer progress.Finish()

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		err := s.Download(ctx, rec)
		logger.LogTransfer(s.logger, "local", rec.FileName, err)
		progress.Advance(err == nil)
		if err != nil {
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			summary.Failed = append(summary.Failed, rec.FileName)
			continue
		}
		summary.Downloaded++
	}

	return summary, nil
}

// Download fetches one record and stores it under its file name
func (s *Stager) Download(ctx context.Context, rec photo.Record) error {
	req, err := s.http.NewRequest(ctx, http.MethodGet, rec.URL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "image/*")

	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := s.http.CheckStatus(resp); err != nil {
		return err
	}

	return s.write(rec.FileName, resp.Body)
}

// write stores r via a temporary file and a rename so a failed transfer
// never leaves a partial photo behind
func (s *Stager) write(name string, r io.Reader) error {
	tmp, err := s.fs.TempFile(s.folder, ".download-")
	if err != nil {
		return errs.LocalIO(err, "create temporary file for %s", name)
	}
	tmpName := tmp.Name()

	_, err = io.Copy(tmp, r)
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = s.fs.Remove(tmpName)
		return errs.LocalIO(err, "write %s", name)
	}

	if err := s.fs.Rename(tmpName, s.fs.Join(s.folder, name)); err != nil {
		_ = s.fs.Remove(tmpName)
		return errs.LocalIO(err, "rename %s", name)
	}
	return nil
}

// List returns the regular files of the staging folder sorted by name
func (s *Stager) List() ([]StagedFile, error) {
	entries, err := s.fs.ReadDir(s.folder)
	if err != nil {
		return nil, errs.LocalIO(err, "read staging folder %s", s.display)
	}

	files := make([]StagedFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		files = append(files, StagedFile{Name: entry.Name(), Size: entry.Size()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// Open opens a staged file for reading
func (s *Stager) Open(name string) (io.ReadCloser, error) {
	f, err := s.fs.Open(s.fs.Join(s.folder, name))
	if err != nil {
		return nil, errs.LocalIO(err, "open %s", name)
	}
	return f, nil
}

// Teardown deletes the staging folder and everything in it. Calls after
// the first are no-ops.
func (s *Stager) Teardown() error {
	if s.tornDown {
		return nil
	}
	s.tornDown = true

	if err := util.RemoveAll(s.fs, s.folder); err != nil {
		return errs.LocalIO(err, "remove staging folder %s", s.display)
	}
	s.logger.InfoWithFields("staging folder removed", map[string]interface{}{
		"path": s.display,
	})
	return nil
}
