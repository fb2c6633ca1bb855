// Package destination defines the contract shared by every cloud target
// and the batch upload loops that drive it.
package destination

import (
	"context"
	"fmt"
	"io"

	"vkbackup/pkg/logger"
	"vkbackup/pkg/manifest"
	"vkbackup/pkg/photo"
	"vkbackup/pkg/storage"
	"vkbackup/pkg/ui"
)

// Folder identifies a remote folder. Yandex.Disk addresses it by Path,
// Google Drive by ID, a bucket by Path used as a key prefix.
type Folder struct {
	Name string
	Path string
	ID   string
}

// Destination is a cloud storage target
type Destination interface {
	// Name is the human-readable name of the service
	Name() string
	// CreateFolder creates a folder for this run. It is not guaranteed to
	// be idempotent.
	CreateFolder(ctx context.Context, name string) (Folder, error)
	// UploadFile stores body under name inside folder
	UploadFile(ctx context.Context, folder Folder, name string, body io.Reader, size int64) error
}

// URLUploader is implemented by destinations that can copy a file straight
// from a public URL without it passing through the local disk
type URLUploader interface {
	UploadURL(ctx context.Context, folder Folder, name, sourceURL string) error
}

// Source is the read side of the staging folder
type Source interface {
	List() ([]storage.StagedFile, error)
	Open(name string) (io.ReadCloser, error)
}

// Result is the outcome of one batch upload
type Result struct {
	Destination string
	Entries     []manifest.Entry
	Attempted   int
	Failed      []string
}

// Succeeded returns the number of uploaded files
func (r Result) Succeeded() int {
	return len(r.Entries)
}

// UploadMany uploads every staged file to folder under its upload name.
// A failing file is logged and skipped; the batch never aborts on a single
// failure. The returned error is set only when the staging folder cannot
// be listed or ctx is done.
func UploadMany(ctx context.Context, dst Destination, folder Folder, src Source, log logger.Logger, progress ui.Progress) (Result, error) {
	log, progress = defaults(log, progress)
	result := Result{Destination: dst.Name()}

	files, err := src.List()
	if err != nil {
		return result, err
	}
	result.Attempted = len(files)

	progress.Start("Uploading to "+dst.Name(), len(files))
	defer progress.Finish()

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		entry, err := uploadStaged(ctx, dst, folder, src, f)
		logger.LogTransfer(log, dst.Name(), f.Name, err)
		progress.Advance(err == nil)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			result.Failed = append(result.Failed, f.Name)
			continue
		}
		result.Entries = append(result.Entries, entry)
	}

	logger.LogSummary(log, "upload:"+dst.Name(), result.Succeeded(), result.Attempted)
	return result, nil
}

func uploadStaged(ctx context.Context, dst Destination, folder Folder, src Source, f storage.StagedFile) (manifest.Entry, error) {
	name, err := photo.UploadName(f.Name)
	if err != nil {
		return manifest.Entry{}, err
	}
	size, err := photo.SizeFromName(f.Name)
	if err != nil {
		return manifest.Entry{}, err
	}

	body, err := src.Open(f.Name)
	if err != nil {
		return manifest.Entry{}, err
	}
	defer body.Close()

	if err := dst.UploadFile(ctx, folder, name, body, f.Size); err != nil {
		return manifest.Entry{}, err
	}
	return manifest.Entry{FileName: name, Size: string(size)}, nil
}

// UploadRemote asks dst to copy every record straight from its source URL.
// Failures are skipped the same way as in UploadMany.
func UploadRemote(ctx context.Context, dst Destination, folder Folder, records []photo.Record, log logger.Logger, progress ui.Progress) (Result, error) {
	log, progress = defaults(log, progress)
	result := Result{Destination: dst.Name(), Attempted: len(records)}

	up, ok := dst.(URLUploader)
	if !ok {
		return result, fmt.Errorf("%s cannot upload from a URL", dst.Name())
	}

	progress.Start("Copying to "+dst.Name(), len(records))
	defer progress.Finish()

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		name, err := photo.UploadName(rec.FileName)
		if err == nil {
			err = up.UploadURL(ctx, folder, name, rec.URL)
		}
		logger.LogTransfer(log, dst.Name(), rec.FileName, err)
		progress.Advance(err == nil)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			result.Failed = append(result.Failed, rec.FileName)
			continue
		}
		result.Entries = append(result.Entries, manifest.Entry{FileName: name, Size: string(rec.Size)})
	}

	logger.LogSummary(log, "copy:"+dst.Name(), result.Succeeded(), result.Attempted)
	return result, nil
}

// SupportsURL reports whether dst implements URLUploader
func SupportsURL(dst Destination) bool {
	_, ok := dst.(URLUploader)
	return ok
}

func defaults(log logger.Logger, progress ui.Progress) (logger.Logger, ui.Progress) {
	if log == nil {
		log = logger.GetLogger()
	}
	if progress == nil {
		progress = ui.NopProgress()
	}
	return log, progress
}
