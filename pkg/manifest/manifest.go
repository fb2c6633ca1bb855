// Package manifest records which files reached a destination as a flat
// JSON array of {file_name, size} objects.
package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"

	errs "vkbackup/pkg/errors"
)

// Entry is one successfully uploaded file
type Entry struct {
	FileName string `json:"file_name"`
	Size     string `json:"size"`
}

// Write replaces the manifest at path with entries, in order, using a
// temporary file and a rename. An empty batch is written as [].
func Write(path string, entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return errs.Wrap(errs.ErrorTypeLocalIO, err, "encode manifest %s", path)
	}
	data = append(data, '\n')

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errs.LocalIO(err, "create manifest directory %s", dir)
		}
	}

	tempPath := path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return errs.LocalIO(err, "create temporary manifest %s", tempPath)
	}

	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(tempPath)
		return errs.LocalIO(err, "write manifest %s", path)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return errs.LocalIO(err, "sync manifest %s", path)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return errs.LocalIO(err, "close manifest %s", path)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return errs.LocalIO(err, "replace manifest %s", path)
	}
	return nil
}

// Read loads a manifest written by Write
func Read(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.LocalIO(err, "read manifest %s", path)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeLocalIO, err, "decode manifest %s", path)
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}
