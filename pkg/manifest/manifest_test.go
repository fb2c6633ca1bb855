package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "vkbackup/pkg/errors"
)

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result_yd.json")
	entries := []Entry{
		{FileName: "a.jpg", Size: "x"},
		{FileName: "10_1700000000.jpg", Size: "w"},
	}

	require.NoError(t, Write(path, entries))

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, entries, got)
}

func TestWriteFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result_gd.json")
	require.NoError(t, Write(path, []Entry{{FileName: "a.jpg", Size: "x"}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[\n  {\n    \"file_name\": \"a.jpg\",\n    \"size\": \"x\"\n  }\n]\n", string(data))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temporary file must not survive")
}

func TestWriteEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "result_s3.json")
	require.NoError(t, Write(path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))

	got, err := Read(path)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestWriteReplacesPreviousRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result_yd.json")
	require.NoError(t, Write(path, []Entry{{FileName: "old.jpg", Size: "s"}}))
	require.NoError(t, Write(path, []Entry{{FileName: "new.jpg", Size: "z"}}))

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, []Entry{{FileName: "new.jpg", Size: "z"}}, got)
}

func TestReadErrors(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, errs.IsLocalIO(err))

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))
	_, err = Read(path)
	assert.True(t, errs.IsLocalIO(err))
}
